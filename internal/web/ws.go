package web

import (
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

// handleChatSocket serves the chat over a WebSocket. Each text frame is a
// chatRequest; each reply is the JSON ChatReply for it. Frames on one
// connection are handled in order.
func (s *Server) handleChatSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		slog.Warn("websocket accept failed", "error", err)
		return
	}
	defer conn.CloseNow()
	conn.SetReadLimit(maxBodyBytes)

	ctx := r.Context()
	id := sessionID(r)
	slog.Debug("chat socket opened", "session_id", id)

	for {
		var req chatRequest
		if err := wsjson.Read(ctx, conn, &req); err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
				slog.Debug("chat socket closed", "session_id", id)
			default:
				slog.Debug("chat socket read failed", "session_id", id, "error", err)
			}
			return
		}

		reply, err := s.svc.SendChat(ctx, id, req.Text)
		if err != nil {
			status := statusOf(err)
			slog.Error("chat socket send failed", "session_id", id, "error", err)
			wsjson.Write(ctx, conn, map[string]string{"error": http.StatusText(status)})
			conn.Close(websocket.StatusInternalError, http.StatusText(status))
			return
		}
		if err := wsjson.Write(ctx, conn, reply); err != nil {
			slog.Debug("chat socket write failed", "session_id", id, "error", err)
			return
		}
	}
}
