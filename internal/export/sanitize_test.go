package export

import "testing"

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		maxLen int
		want   string
	}{
		{"plain title", "Tiny Habits", 120, "Tiny Habits"},
		{"control chars dropped", " A\nB\rC\x00D ", 100, "A B CD"},
		{"allowed punctuation kept", "Day 1 (part 2), don't-stop", 100, "Day 1 (part 2), don't-stop"},
		{"path separators replaced", "a/b\\c:d", 100, "a_b_c_d"},
		{"runs collapse", "bad<>|\"name", 100, "bad_name"},
		{"spaces collapse", "coffee    pour", 100, "coffee pour"},
		{"emoji replaced", "🔥 hot take 🔥", 100, "hot take"},
		{"dots trimmed", "...hidden.", 100, "hidden"},
		{"unicode letters kept", "Café Morgen", 100, "Café Morgen"},
		{"truncated", "abcdefghijklmnopqrstuvwxyz", 10, "abcdefghij"},
		{"truncation retrims", "abcd efgh", 5, "abcd"},
		{"no limit", "abcdefghij", 0, "abcdefghij"},
		{"nothing left", "<<>>", 100, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeName(tt.in, tt.maxLen); got != tt.want {
				t.Errorf("SanitizeName(%q, %d) = %q, want %q", tt.in, tt.maxLen, got, tt.want)
			}
		})
	}
}
