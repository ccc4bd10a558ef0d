package playback

import (
	"errors"
	"testing"
)

func TestParseRange(t *testing.T) {
	const clipSize = 4096

	tests := []struct {
		name    string
		header  string
		size    int64
		want    *Range
		wantErr error
	}{
		{"no header sends whole clip", "", clipSize, nil, nil},
		{"whitespace only", "   ", clipSize, nil, nil},
		{"initial request", "bytes=0-", clipSize, &Range{0, 4095}, nil},
		{"seek into clip", "bytes=2048-", clipSize, &Range{2048, 4095}, nil},
		{"closed range", "bytes=100-199", clipSize, &Range{100, 199}, nil},
		{"single byte", "bytes=0-0", clipSize, &Range{0, 0}, nil},
		{"end clamped to clip", "bytes=4000-9000", clipSize, &Range{4000, 4095}, nil},
		{"moov atom at tail", "bytes=-512", clipSize, &Range{3584, 4095}, nil},
		{"suffix longer than clip", "bytes=-10000", clipSize, &Range{0, 4095}, nil},
		{"last byte", "bytes=4095-", clipSize, &Range{4095, 4095}, nil},

		{"start past end of clip", "bytes=4096-", clipSize, nil, ErrUnsatisfiable},
		{"range past end of clip", "bytes=5000-6000", clipSize, nil, ErrUnsatisfiable},
		{"empty clip", "bytes=0-", 0, nil, ErrUnsatisfiable},
		{"suffix of empty clip", "bytes=-10", 0, nil, ErrUnsatisfiable},

		{"multi range", "bytes=0-99, 200-299", clipSize, nil, ErrInvalidRange},
		{"missing unit", "0-100", clipSize, nil, ErrInvalidRange},
		{"wrong unit", "frames=0-100", clipSize, nil, ErrInvalidRange},
		{"no dash", "bytes=100", clipSize, nil, ErrInvalidRange},
		{"bad start", "bytes=abc-100", clipSize, nil, ErrInvalidRange},
		{"bad end", "bytes=0-abc", clipSize, nil, ErrInvalidRange},
		{"end before start", "bytes=300-200", clipSize, nil, ErrInvalidRange},
		{"zero suffix", "bytes=-0", clipSize, nil, ErrInvalidRange},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRange(tt.header, tt.size)

			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseRange(%q) error = %v, want %v", tt.header, err, tt.wantErr)
			}
			switch {
			case tt.want == nil && got != nil:
				t.Errorf("ParseRange(%q) = %+v, want nil", tt.header, *got)
			case tt.want != nil && got == nil:
				t.Errorf("ParseRange(%q) = nil, want %+v", tt.header, *tt.want)
			case tt.want != nil && *got != *tt.want:
				t.Errorf("ParseRange(%q) = %+v, want %+v", tt.header, *got, *tt.want)
			}
		})
	}
}

func TestRange_Headers(t *testing.T) {
	tests := []struct {
		r          Range
		total      int64
		wantLength int64
		wantRange  string
	}{
		{Range{0, 99}, 1000, 100, "bytes 0-99/1000"},
		{Range{500, 999}, 1000, 500, "bytes 500-999/1000"},
		{Range{0, 0}, 1, 1, "bytes 0-0/1"},
	}

	for _, tt := range tests {
		if got := tt.r.ContentLength(); got != tt.wantLength {
			t.Errorf("%+v ContentLength() = %d, want %d", tt.r, got, tt.wantLength)
		}
		if got := tt.r.ContentRange(tt.total); got != tt.wantRange {
			t.Errorf("%+v ContentRange() = %s, want %s", tt.r, got, tt.wantRange)
		}
	}
}
