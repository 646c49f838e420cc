package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

const streamWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleSweepStream upgrades to WebSocket and pushes sweep progress events
// until the job reaches a terminal state or the client disconnects. The
// first event is a snapshot of current progress, so late subscribers see
// where the sweep stands.
func (s *Server) handleSweepStream(w http.ResponseWriter, r *http.Request) {
	job, ok := s.registry.get(chi.URLParam(r, "id"))
	if !ok {
		s.writeError(w, http.StatusNotFound, "unknown sweep id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	// The listener's read deadline carries over to the hijacked conn and
	// would kill long streams.
	_ = conn.SetReadDeadline(time.Time{})

	ch := job.subscribe()
	defer job.unsubscribe(ch)

	state := job.snapshot()
	snapshot := progressEvent{SweepID: job.id, Status: state.Status, Done: state.Done, Total: state.Total}
	if err := writeEvent(conn, snapshot); err != nil {
		return
	}
	if state.Status != sweepRunning {
		closeStream(conn)
		return
	}

	// Reader goroutine: we never expect client messages, only disconnects.
	clientGone := make(chan struct{})
	go func() {
		defer close(clientGone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case event, open := <-ch:
			if !open {
				closeStream(conn)
				return
			}
			if err := writeEvent(conn, event); err != nil {
				return
			}
			if event.Status != sweepRunning {
				closeStream(conn)
				return
			}
		case <-clientGone:
			return
		}
	}
}

func writeEvent(conn *websocket.Conn, event progressEvent) error {
	_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
	return conn.WriteJSON(event)
}

func closeStream(conn *websocket.Conn) {
	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteTimeout))
}
