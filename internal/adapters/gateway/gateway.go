// Package gateway owns the realtime WebSocket endpoint: connection upgrade,
// the read/write pumps, and dispatch of client events to the coordinator.
package gateway

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/owndc/owndc/internal/app"
	"github.com/owndc/owndc/internal/config"
	"github.com/owndc/owndc/internal/core"
	"github.com/owndc/owndc/internal/domain"
)

type Controller struct {
	Coord   *app.Coordinator
	Cfg     *config.Config
	limiter *rateLimiter
}

func NewController(coord *app.Coordinator, cfg *config.Config) *Controller {
	return &Controller{
		Coord:   coord,
		Cfg:     cfg,
		limiter: newRateLimiter(cfg.ChatRate, cfg.ChatInterval),
	}
}

// wsConn adapts a websocket connection to core.Connection. The send channel
// is drained by the write pump; TrySend drops instead of blocking.
type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return core.ErrBackpressure
	}
	select {
	case c.send <- f:
		return nil
	default:
		return core.ErrBackpressure
	}
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades an authenticated session to the realtime connection.
// A request without a resolvable identity is refused before the upgrade;
// there is no partial registration.
func (ctl *Controller) HandleWS(c *gin.Context) {
	uid := domain.UserID(c.GetString("user_id"))
	if uid == "" {
		c.AbortWithStatus(http.StatusUnauthorized)
		return
	}

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "gateway").Msg("ws upgrade")
		return
	}
	ws.SetReadLimit(ctl.Cfg.ReadLimit)

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}
	log.Info().Str("module", "gateway").Str("user", string(uid)).Msg("connection established")

	ctl.Coord.Connect(uid, conn)

	go ctl.writePump(conn)
	go ctl.readPump(uid, conn)
}

func (ctl *Controller) writePump(c *wsConn) {
	for data := range c.send {
		if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
			log.Error().Err(err).Str("module", "gateway").Msg("writePump set deadline")
			return
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Error().Err(err).Str("module", "gateway").Msg("writePump write error")
			return
		}
	}
}

func (ctl *Controller) readPump(uid domain.UserID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "gateway").Str("user", string(uid)).Msg("readPump closing")
		ctl.Coord.Disconnect(uid, c)
		c.Close()
	}()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("module", "gateway").Str("user", string(uid)).Msg("readPump read error")
			}
			return
		}
		ctl.handleFrame(uid, c, data)
	}
}
