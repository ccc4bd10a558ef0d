package playback

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrInvalidRange  = errors.New("invalid range format")
	ErrUnsatisfiable = errors.New("range not satisfiable")
)

// Range is an inclusive byte range of a clip.
type Range struct {
	Start int64
	End   int64
}

func (r Range) ContentLength() int64 {
	return r.End - r.Start + 1
}

func (r Range) ContentRange(total int64) string {
	return fmt.Sprintf("bytes %d-%d/%d", r.Start, r.End, total)
}

// ParseRange resolves a Range header against a clip of size bytes. A nil
// range with a nil error means the whole clip should be sent. Video elements
// only ever ask for one range, so multi-range requests are treated as
// invalid and answered with the whole clip.
func ParseRange(header string, size int64) (*Range, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}

	set, ok := strings.CutPrefix(header, "bytes=")
	if !ok || strings.Contains(set, ",") {
		return nil, ErrInvalidRange
	}

	first, last, ok := strings.Cut(strings.TrimSpace(set), "-")
	if !ok {
		return nil, ErrInvalidRange
	}

	if first == "" {
		return suffixRange(last, size)
	}

	start, err := parseOffset(first)
	if err != nil {
		return nil, err
	}
	end := size - 1
	if last != "" {
		if end, err = parseOffset(last); err != nil {
			return nil, err
		}
		if end < start {
			return nil, ErrInvalidRange
		}
	}

	if start >= size {
		return nil, ErrUnsatisfiable
	}
	return &Range{Start: start, End: min(end, size-1)}, nil
}

// suffixRange handles "bytes=-N", the last N bytes.
func suffixRange(n string, size int64) (*Range, error) {
	length, err := parseOffset(n)
	if err != nil || length == 0 {
		return nil, ErrInvalidRange
	}
	if size == 0 {
		return nil, ErrUnsatisfiable
	}
	return &Range{Start: max(size-length, 0), End: size - 1}, nil
}

func parseOffset(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil || v < 0 {
		return 0, ErrInvalidRange
	}
	return v, nil
}
