package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/zeromicro/go-zero/core/logx"

	"github.com/whytehoux-projecty/Registration-Login-System/internal/svc"
)

// statusWebSocketHandler upgrades GET /system/ws and subscribes the
// connection to the broadcaster, grounded on the streamspace
// WebSocketHandler's upgrader construction and origin check against the
// same closed CORS allow-list the REST surface enforces.
func statusWebSocketHandler(svcCtx *svc.ServiceContext) http.HandlerFunc {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     allowedOriginChecker(svcCtx),
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Errorf("handler: websocket upgrade failed: %v", err)
			return
		}
		svcCtx.Broadcaster.Subscribe(conn)
	}
}

func allowedOriginChecker(svcCtx *svc.ServiceContext) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		for _, allowed := range svcCtx.Config.CORS.AllowedOrigins {
			if allowed == "*" || allowed == origin {
				return true
			}
		}
		return false
	}
}
