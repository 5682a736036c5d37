package http

import (
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"claimguard/apperrors"
	"claimguard/claim"
	"claimguard/monitoring"
	"claimguard/scoring"
)

const (
	liveWriteWait      = 10 * time.Second
	livePongWait       = 60 * time.Second
	livePingPeriod     = (livePongWait * 9) / 10
	liveMaxMessageSize = 64 << 10
)

// liveReply is one frame sent back on the live scoring socket.
type liveReply struct {
	Type   string           `json:"type"`
	Result *scoring.Result  `json:"result,omitempty"`
	Error  *apperrors.Error `json:"error,omitempty"`
}

// handleLiveScore scores each inbound JSON record and writes the reply before
// reading the next message.
func (h *Handlers) handleLiveScore(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	monitoring.LiveConnections.Inc()
	defer monitoring.LiveConnections.Dec()

	requestID := GetRequestID(r.Context())
	log := h.logger.With(zap.String("request_id", requestID))
	log.Info("live scoring connected", zap.String("remote", r.RemoteAddr))

	conn.SetReadLimit(liveMaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(livePongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(livePongWait))
	})

	done := make(chan struct{})
	defer close(done)
	go keepAlive(conn, done)

	adapter := h.adapter.For("live")
	for {
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("live scoring read error", zap.Error(err))
			}
			break
		}
		conn.SetReadDeadline(time.Now().Add(livePongWait))

		reply := liveReply{Type: "error"}
		if msgType != websocket.TextMessage {
			reply.Error = apperrors.NewInvalidRecord("(root)", "expected a text message")
		} else if rec, err := claim.ValidateJSON(data); err != nil {
			reply.Error = asAppError(err)
		} else if res, err := adapter.Submit(r.Context(), rec); err != nil {
			reply.Error = asAppError(err)
		} else {
			reply = liveReply{Type: "result", Result: &res}
		}

		conn.SetWriteDeadline(time.Now().Add(liveWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Warn("live scoring write error", zap.Error(err))
			break
		}
	}
	log.Info("live scoring disconnected")
}

func keepAlive(conn *websocket.Conn, done <-chan struct{}) {
	ticker := time.NewTicker(livePingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(liveWriteWait)); err != nil {
				return
			}
		}
	}
}

// checkOrigin accepts same-host requests, requests without an Origin header
// and any origin in allowed.
func checkOrigin(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err == nil && u.Host == r.Host {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}
