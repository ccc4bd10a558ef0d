package playback

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// Blob is a seekable body of known size, such as a stored clip.
type Blob interface {
	ID() string
	ContentType() string
	Size() int64
	Open() (io.ReadSeekCloser, error)
}

type PlaybackService interface {
	ServeClip(w http.ResponseWriter, r *http.Request, blob Blob) error
}

type Server struct {
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

// ServeClip writes blob to w, honoring a single byte range so a video
// element can seek.
func (s *Server) ServeClip(w http.ResponseWriter, r *http.Request, blob Blob) error {
	body, err := blob.Open()
	if err != nil {
		return fmt.Errorf("failed to open clip: %w", err)
	}
	defer body.Close()

	size := blob.Size()
	contentType := blob.ContentType()
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "no-store")

	parsedRange, err := ParseRange(r.Header.Get("Range"), size)

	if err == ErrUnsatisfiable {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	}

	if err != nil && err != ErrInvalidRange {
		return err
	}

	if parsedRange == nil {
		w.Header().Set("Content-Length", fmt.Sprintf("%d", size))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.Copy(w, body)
		}
		return nil
	}

	if _, err := body.Seek(parsedRange.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}

	w.Header().Set("Content-Length", fmt.Sprintf("%d", parsedRange.ContentLength()))
	w.Header().Set("Content-Range", parsedRange.ContentRange(size))
	w.WriteHeader(http.StatusPartialContent)

	if r.Method != http.MethodHead {
		if _, err := io.CopyN(w, body, parsedRange.ContentLength()); err != nil {
			s.logger.Debug("clip range copy interrupted", "clip_id", blob.ID(), "error", err)
		}
	}
	return nil
}
