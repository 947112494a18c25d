package websocket

import (
	"context"
	"net"
	"net/http"

	"CardWar/internal/utils"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Admitter takes a fresh connection through the want-game handshake.
type Admitter interface {
	Admit(ctx context.Context, conn net.Conn)
}

// GET /ws
//
// Upgrades and hands the connection to the same admission path as TCP
// clients. ctx is the server's lifetime, not the request's.
func ServeWS(ctx context.Context, a Admitter) gin.HandlerFunc {
	logger := utils.Component("websocket")
	return func(c *gin.Context) {
		ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Debug("upgrade failed", "addr", c.ClientIP(), "err", err)
			return
		}
		a.Admit(ctx, NewConn(ws))
	}
}
