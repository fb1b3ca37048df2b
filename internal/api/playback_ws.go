package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/hireloop/interview-engine/internal/replay"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// PlaybackCommand is a control message from the viewer
type PlaybackCommand struct {
	Type       string  `json:"type"` // play, pause, seek, speed
	PositionMs int64   `json:"position_ms,omitempty"`
	Speed      float64 `json:"speed,omitempty"`
}

// PlaybackFrame is a state message to the viewer
type PlaybackFrame struct {
	Type string `json:"type"` // state, error
	replay.PlayerState
	Message string `json:"message,omitempty"`
}

// handlePlaybackWS streams reconstructed editor states over a websocket.
// The viewer drives a server-side playback clock with play/pause/seek/speed
// commands; the server pushes a frame on every tick while playing and after
// every command.
func (s *Server) handlePlaybackWS(w http.ResponseWriter, r *http.Request) {
	submissionID := chi.URLParam(r, "id")
	if submissionID == "" {
		http.Error(w, "submission id required", http.StatusBadRequest)
		return
	}

	player, err := s.service.NewPlayer(r.Context(), submissionID)
	if err != nil {
		slog.Error("failed to build player", "submission_id", submissionID, "error", err)
		http.Error(w, "submission not found", http.StatusNotFound)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}
	defer conn.Close()

	slog.Info("playback websocket connected", "submission_id", submissionID)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Frame writes happen from the reader and the ticker loop
	var writeMu sync.Mutex
	sendFrame := func(frame PlaybackFrame) error {
		writeMu.Lock()
		defer writeMu.Unlock()

		data, err := json.Marshal(frame)
		if err != nil {
			return err
		}
		return conn.WriteMessage(websocket.TextMessage, data)
	}

	sendState := func() error {
		return sendFrame(PlaybackFrame{Type: "state", PlayerState: player.Snapshot()})
	}

	// Initial frame so the viewer can render position zero
	if err := sendState(); err != nil {
		return
	}

	var wg sync.WaitGroup

	// Read control commands from the viewer
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		for {
			_, message, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					slog.Debug("websocket read error", "error", err)
				}
				return
			}

			var cmd PlaybackCommand
			if err := json.Unmarshal(message, &cmd); err != nil {
				slog.Debug("invalid command format", "error", err)
				continue
			}

			switch cmd.Type {
			case "play":
				player.Play()
			case "pause":
				player.Pause()
			case "seek":
				player.Seek(cmd.PositionMs)
			case "speed":
				if !s.service.ValidSpeed(cmd.Speed) {
					sendFrame(PlaybackFrame{Type: "error", Message: "unsupported playback speed"})
					continue
				}
				player.SetSpeed(cmd.Speed)
			default:
				slog.Debug("unknown playback command", "type", cmd.Type)
				continue
			}

			if err := sendState(); err != nil {
				return
			}
		}
	}()

	// Push frames while the clock runs
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer cancel()

		ticker := time.NewTicker(s.config.Playback.TickInterval)
		defer ticker.Stop()

		wasPlaying := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				snap := player.Snapshot()
				if !snap.Playing && !wasPlaying {
					continue
				}
				wasPlaying = snap.Playing

				if err := sendFrame(PlaybackFrame{Type: "state", PlayerState: snap}); err != nil {
					return
				}
			}
		}
	}()

	wg.Wait()
	slog.Info("playback websocket disconnected", "submission_id", submissionID)
}
