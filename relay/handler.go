package relay

import (
	"context"
	"net/http"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// HandleConnections upgrades the request to a websocket and attaches
// the connection to the hub. The relay channel itself carries no
// authentication; membership is checked per move against the runtime
// state. A SessionID header resumes a previous subscription.
func HandleConnections(ctx context.Context, w http.ResponseWriter, r *http.Request, hub *Hub, rdb *redis.Client, logger *zap.Logger, upgrader websocket.Upgrader) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Error("error upgrading websocket", zap.Error(err))
		return
	}

	client := NewClient(hub, conn, rdb, logger)
	logger.Info("websocket client connected", zap.String("remote", conn.RemoteAddr().String()))

	go client.writePump()

	if sessionID := r.Header.Get("SessionID"); sessionID != "" && rdb != nil {
		client.resume(ctx, sessionID)
	}

	go client.readPump(context.Background())
}
