package session

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNoticeNotFound = errors.New("notice not found")

type NoticeKind string

const (
	NoticeScriptFailed   NoticeKind = "script_failed"
	NoticeClipFailed     NoticeKind = "clip_failed"
	NoticeReauthRequired NoticeKind = "reauth_required"
)

const (
	MessageScriptFailed   = "Failed to generate script. Please try again."
	MessageClipFailed     = "Failed to generate video clip. Please try again later."
	MessageReauthRequired = "API Key issue detected. Please select your API key again."
)

// Notice is a dismissible message shown to the user.
type Notice struct {
	ID        string     `json:"id"`
	Kind      NoticeKind `json:"kind"`
	Message   string     `json:"message"`
	Segment   *int       `json:"segment,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

func newNotice(kind NoticeKind, message string, segment *int) Notice {
	return Notice{
		ID:        uuid.New().String(),
		Kind:      kind,
		Message:   message,
		Segment:   segment,
		CreatedAt: time.Now(),
	}
}
