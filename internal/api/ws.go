package api

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/reelsmith/reelsmith-agent/internal/session"
)

// Client message types accepted on a session socket.
const (
	MessageReport        = "report"
	MessagePlay          = "play"
	MessageStop          = "stop"
	MessagePreviewToggle = "preview_toggle"
	MessagePreviewSeek   = "preview_seek"
)

const (
	wsWriteWait    = 10 * time.Second
	wsPongWait     = 60 * time.Second
	wsPingInterval = 45 * time.Second
	wsReadLimit    = 64 << 10
)

// ClientMessage is what the browser sends over the session socket.
type ClientMessage struct {
	Type     string          `json:"type"`
	Report   *session.Report `json:"report,omitempty"`
	Index    int             `json:"index,omitempty"`
	Position float64         `json:"position,omitempty"`
}

// socketError is sent back when a client message could not be applied.
type socketError struct {
	Type  string `json:"type"`
	Error string `json:"error"`
	Code  string `json:"code"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || isAllowedOrigin(origin)
	},
}

// sessionSocketHandler attaches a browser as the session's playback surface.
// Session events stream out; reports and playback controls stream in.
func sessionSocketHandler(cfg ServerConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, ok := sessionFor(cfg, w, r)
		if !ok {
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			cfg.Logger.Warn("websocket upgrade failed", "session_id", s.ID(), "error", err)
			return
		}

		events, unsubscribe := s.Subscribe()
		logger := cfg.Logger.With("session_id", s.ID())
		logger.Debug("viewer attached")

		var writeMu sync.Mutex
		write := func(v any) error {
			writeMu.Lock()
			defer writeMu.Unlock()
			conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
			return conn.WriteJSON(v)
		}

		done := make(chan struct{})
		var wg sync.WaitGroup
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer conn.Close()

			ping := time.NewTicker(wsPingInterval)
			defer ping.Stop()

			for {
				select {
				case ev, ok := <-events:
					if !ok {
						writeMu.Lock()
						conn.WriteControl(websocket.CloseMessage,
							websocket.FormatCloseMessage(websocket.CloseGoingAway, "session closed"),
							time.Now().Add(wsWriteWait))
						writeMu.Unlock()
						return
					}
					if err := write(ev); err != nil {
						return
					}
				case <-ping.C:
					writeMu.Lock()
					err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
					writeMu.Unlock()
					if err != nil {
						return
					}
				case <-done:
					return
				}
			}
		}()

		conn.SetReadLimit(wsReadLimit)
		conn.SetReadDeadline(time.Now().Add(wsPongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(wsPongWait))
		})

		for {
			var msg ClientMessage
			if err := conn.ReadJSON(&msg); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					logger.Debug("viewer read failed", "error", err)
				}
				break
			}
			conn.SetReadDeadline(time.Now().Add(wsPongWait))

			if err := dispatchMessage(s, msg); err != nil {
				code := "BAD_REQUEST"
				if errors.Is(err, session.ErrSessionClosed) {
					code = "SESSION_CLOSED"
				}
				if write(socketError{Type: "error", Error: err.Error(), Code: code}) != nil {
					break
				}
			}
		}

		close(done)
		unsubscribe()
		wg.Wait()
		logger.Debug("viewer detached")
	}
}

func dispatchMessage(s *session.Session, msg ClientMessage) error {
	switch msg.Type {
	case MessageReport:
		if msg.Report == nil {
			return errors.New("report message without report")
		}
		return s.HandleReport(*msg.Report)
	case MessagePlay:
		_, err := s.Play()
		return err
	case MessageStop:
		s.Stop()
		return nil
	case MessagePreviewToggle:
		return s.PreviewToggle(msg.Index)
	case MessagePreviewSeek:
		return s.PreviewSeek(msg.Index, msg.Position)
	default:
		return errors.New("unknown message type " + msg.Type)
	}
}
