package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/reelsmith/reelsmith-agent/internal/catalog"
	"github.com/reelsmith/reelsmith-agent/internal/genai"
	"github.com/reelsmith/reelsmith-agent/internal/session"
	"github.com/reelsmith/reelsmith-agent/internal/studio"
)

func TestCreateSession_Validation(t *testing.T) {
	env := setupTestEnv(t)

	tests := []struct {
		name       string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"missing niche", CreateSessionRequest{Topic: "x"}, http.StatusBadRequest, "BAD_REQUEST"},
		{"unknown niche", CreateSessionRequest{NicheID: "nope", Topic: "x"}, http.StatusNotFound, "NICHE_NOT_FOUND"},
		{"blank topic", CreateSessionRequest{NicheID: "gaming-walkthrough", Topic: "  "}, http.StatusBadRequest, "BAD_REQUEST"},
		{"not json", "{", http.StatusBadRequest, "BAD_REQUEST"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, "/sessions/", tt.body)
			if rr.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rr.Code, tt.wantStatus, rr.Body.String())
			}
			if body := decodeJSONBody(t, rr); body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", body["code"], tt.wantCode)
			}
		})
	}
}

func TestSessionLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	base := "/sessions/" + s.ID()

	rr := env.do(t, http.MethodGet, base+"/", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("get status = %d", rr.Code)
	}
	var view session.View
	if err := json.Unmarshal(rr.Body.Bytes(), &view); err != nil {
		t.Fatal(err)
	}
	if view.Tone != genai.DefaultTone || len(view.Segments) != 3 {
		t.Errorf("view tone=%q segments=%d", view.Tone, len(view.Segments))
	}

	rr = env.do(t, http.MethodGet, "/sessions/", nil)
	var list SessionsResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &list); err != nil {
		t.Fatal(err)
	}
	if len(list.Sessions) != 1 || list.Sessions[0].Title != "Tiny Habits" {
		t.Errorf("sessions = %+v", list.Sessions)
	}

	clip := env.attachClip(t, s, 1, "clip")

	rr = env.do(t, http.MethodDelete, base+"/", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rr.Code)
	}
	if _, err := env.clips.Lookup(clip.ID()); err == nil {
		t.Error("closing the session should release its clips")
	}

	rr = env.do(t, http.MethodGet, base+"/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("get after close status = %d, want %d", rr.Code, http.StatusNotFound)
	}
	rr = env.do(t, http.MethodDelete, base+"/", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestScriptText(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)

	rr := env.do(t, http.MethodGet, "/sessions/"+s.ID()+"/script.txt", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	want := "TITLE: Tiny Habits\n\nCAPTION: Try this today\n\nSCRIPT:\n[3s] Visual: sunrise timelapse\nAudio: Every morning counts."
	if !strings.HasPrefix(rr.Body.String(), want) {
		t.Errorf("body = %q", rr.Body.String())
	}
}

func TestRequestClip(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	base := "/sessions/" + s.ID() + "/segments/"

	rr := env.do(t, http.MethodPost, base+"1/clip", nil)
	if rr.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp ClipRequestResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Prompt != "coffee pour" || resp.Index != 1 || resp.JobID == "" {
		t.Errorf("resp = %+v", resp)
	}
	if got := s.View().Segments[1].ClipStatus; got != session.ClipPending {
		t.Errorf("clip status = %q, want pending", got)
	}

	rr = env.do(t, http.MethodPost, base+"1/clip", nil)
	if rr.Code != http.StatusConflict {
		t.Errorf("duplicate request status = %d, want %d", rr.Code, http.StatusConflict)
	}

	rr = env.do(t, http.MethodPost, base+"9/clip", nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("out of range status = %d, want %d", rr.Code, http.StatusNotFound)
	}

	rr = env.do(t, http.MethodPost, base+"abc/clip", nil)
	if rr.Code != http.StatusBadRequest {
		t.Errorf("non-numeric index status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRequestClip_QueueFailure(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	env.queue.err = errors.New("disk full")

	rr := env.do(t, http.MethodPost, "/sessions/"+s.ID()+"/segments/0/clip", nil)
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", rr.Code)
	}
	view := s.View()
	if view.Segments[0].ClipStatus != session.ClipFailed {
		t.Errorf("clip status = %q, want failed", view.Segments[0].ClipStatus)
	}
	if len(view.Notices) != 1 {
		t.Errorf("notices = %+v, want one", view.Notices)
	}
}

func TestRemoveClip(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	clip := env.attachClip(t, s, 2, "clip")

	rr := env.do(t, http.MethodDelete, "/sessions/"+s.ID()+"/segments/2/clip", nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	if s.View().Segments[2].Clip != nil {
		t.Error("clip should be gone from the view")
	}
	if _, err := env.clips.Lookup(clip.ID()); err == nil {
		t.Error("removed clip should be released")
	}
}

func TestUpdateSettings(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	path := "/sessions/" + s.ID() + "/segments/0/settings"

	rr := env.do(t, http.MethodPatch, path, map[string]any{"trim_start": 1.5, "transition": "fade"})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var cs studio.ClipSettings
	if err := json.Unmarshal(rr.Body.Bytes(), &cs); err != nil {
		t.Fatal(err)
	}
	if cs.TrimStart != 1.5 || cs.Transition != studio.TransitionFade {
		t.Errorf("settings = %+v", cs)
	}

	// Absent fields are left alone.
	rr = env.do(t, http.MethodPatch, path, map[string]any{"trim_end": 4})
	if err := json.Unmarshal(rr.Body.Bytes(), &cs); err != nil {
		t.Fatal(err)
	}
	if cs.TrimStart != 1.5 || cs.TrimEnd != 4 || cs.Transition != studio.TransitionFade {
		t.Errorf("settings after second patch = %+v", cs)
	}

	rr = env.do(t, http.MethodPatch, path, map[string]any{"transition": "wipe"})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("unknown transition status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRecordDuration(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	path := "/sessions/" + s.ID() + "/segments/1/duration"

	rr := env.do(t, http.MethodPost, path, DurationRequest{Duration: 8})
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var cs studio.ClipSettings
	if err := json.Unmarshal(rr.Body.Bytes(), &cs); err != nil {
		t.Fatal(err)
	}
	if cs.Duration != 8 || cs.TrimEnd != 8 {
		t.Errorf("settings = %+v, want duration and trim end seeded to 8", cs)
	}

	rr = env.do(t, http.MethodPost, path, DurationRequest{Duration: 0})
	if rr.Code != http.StatusBadRequest {
		t.Errorf("zero duration status = %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestPlayStopPlayer(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	base := "/sessions/" + s.ID()

	rr := env.do(t, http.MethodPost, base+"/play", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var play PlayResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &play); err != nil {
		t.Fatal(err)
	}
	if play.Started || play.Player.Playing {
		t.Errorf("play with no clips = %+v, want stopped", play)
	}

	env.attachClip(t, s, 1, "clip")

	// No browser attached, so nothing can render the sequence.
	rr = env.do(t, http.MethodPost, base+"/play", nil)
	if err := json.Unmarshal(rr.Body.Bytes(), &play); err != nil {
		t.Fatal(err)
	}
	if play.Player.Playing {
		t.Error("play without a viewer should leave the player stopped")
	}

	rr = env.do(t, http.MethodPost, base+"/stop", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("stop status = %d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, base+"/player", nil)
	body := decodeJSONBody(t, rr)
	if body["is_playing"] != false {
		t.Errorf("player = %v", body)
	}
}

func TestDismissNotice(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	if err := s.ClipFailed(0, errors.New("model overloaded")); err != nil {
		t.Fatal(err)
	}
	notices := s.View().Notices
	if len(notices) != 1 {
		t.Fatalf("notices = %+v", notices)
	}

	base := "/sessions/" + s.ID() + "/notices/"
	rr := env.do(t, http.MethodDelete, base+notices[0].ID, nil)
	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d", rr.Code)
	}
	rr = env.do(t, http.MethodDelete, base+notices[0].ID, nil)
	if rr.Code != http.StatusNotFound {
		t.Errorf("second dismiss status = %d, want %d", rr.Code, http.StatusNotFound)
	}
}

func TestExportEDL(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	path := "/sessions/" + s.ID() + "/export.edl"

	rr := env.do(t, http.MethodGet, path, nil)
	if rr.Code != http.StatusUnprocessableEntity {
		t.Fatalf("empty export status = %d, want %d", rr.Code, http.StatusUnprocessableEntity)
	}

	env.attachClip(t, s, 0, "a")
	if _, err := s.RecordDuration(0, 6); err != nil {
		t.Fatal(err)
	}

	rr = env.do(t, http.MethodGet, path+"?fps=25", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, ".edl") {
		t.Errorf("Content-Disposition = %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "TITLE:") {
		t.Errorf("body = %q", rr.Body.String())
	}

	for _, fps := range []string{"abc", "0", "-5"} {
		rr = env.do(t, http.MethodGet, path+"?fps="+fps, nil)
		if rr.Code != http.StatusBadRequest {
			t.Errorf("fps=%s status = %d, want %d", fps, rr.Code, http.StatusBadRequest)
		}
	}
}

func TestExportPlaylist(t *testing.T) {
	env := setupTestEnv(t)
	s := env.readySession(t)
	clip := env.attachClip(t, s, 1, "b")
	if _, err := s.RecordDuration(1, 5); err != nil {
		t.Fatal(err)
	}

	rr := env.do(t, http.MethodGet, "/sessions/"+s.ID()+"/export.m3u8", nil)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	body := rr.Body.String()
	if !strings.HasPrefix(body, "#EXTM3U") {
		t.Errorf("body = %q", body)
	}
	if want := "http://example.com" + clip.URL() + "#t=0,5"; !strings.Contains(body, want) {
		t.Errorf("body missing %q:\n%s", want, body)
	}
}

func TestWriteSessionError(t *testing.T) {
	tests := []struct {
		err        error
		wantStatus int
		wantCode   string
	}{
		{session.ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{session.ErrSessionClosed, http.StatusGone, "SESSION_CLOSED"},
		{session.ErrScriptPending, http.StatusConflict, "SCRIPT_PENDING"},
		{session.ErrClipInProgress, http.StatusConflict, "CLIP_IN_PROGRESS"},
		{fmt.Errorf("%w: 7", studio.ErrIndexOutOfRange), http.StatusNotFound, "SEGMENT_NOT_FOUND"},
		{studio.ErrNoClip, http.StatusConflict, "NO_CLIP"},
		{catalog.ErrNicheNotFound, http.StatusNotFound, "NICHE_NOT_FOUND"},
		{genai.ErrCredentialRequired, http.StatusPreconditionRequired, "CREDENTIAL_REQUIRED"},
		{errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.wantCode, func(t *testing.T) {
			rr := httptest.NewRecorder()
			writeSessionError(rr, tt.err)
			if rr.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rr.Code, tt.wantStatus)
			}
			if body := decodeJSONBody(t, rr); body["code"] != tt.wantCode {
				t.Errorf("code = %v, want %s", body["code"], tt.wantCode)
			}
		})
	}
}
