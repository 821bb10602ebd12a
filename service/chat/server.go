package chat

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"CommLink/logger"
	"CommLink/tools/ids"
	"CommLink/tools/safe"
	"CommLink/tools/security"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

const (
	sendQueueSize = 256
	writeTimeout  = 5 * time.Second
)

// Server owns the realtime side of the gateway: registry, presence
// broadcaster, event router and delivery bridge, plus the WebSocket
// endpoint feeding them.
type Server struct {
	nodeID string
	reg    *Registry
	fan    *Fanout
	pres   *Broadcaster
	router *Router
	bridge *Bridge
	jwt    security.Options
}

func NewServer(nodeID string, jwtOpts security.Options, store MessageStatusStore) *Server {
	reg := NewRegistry()
	fan := NewFanout(4, 1024)
	pres := NewBroadcaster(reg, fan)
	reg.OnMutate(pres.Announce)
	return &Server{
		nodeID: nodeID,
		reg:    reg,
		fan:    fan,
		pres:   pres,
		router: NewRouter(reg, store),
		bridge: NewBridge(reg),
		jwt:    jwtOpts,
	}
}

func (s *Server) NodeID() string      { return s.nodeID }
func (s *Server) Registry() *Registry { return s.reg }
func (s *Server) Bridge() *Bridge     { return s.bridge }

// Close tears down every live connection and the fan-out pool.
func (s *Server) Close() {
	for _, c := range s.reg.Clients() {
		s.reg.Detach(c)
		c.Close()
	}
	s.fan.Close()
}

// HandleWS upgrades GET /chat. The handshake carries the user identity
// either as a signed token (?token=...) or, failing that, a bare
// ?user=... parameter. Connections with neither are accepted but never
// addressable.
func (s *Server) HandleWS(c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger.Infof("[ws] upgrade failed: %v", err)
		return
	}

	userID := s.handshakeUser(c)
	client := NewClient(ids.GenerateString(), userID, ws, sendQueueSize)
	safe.SafeGo(func() { client.WritePump(writeTimeout) })

	s.reg.Attach(client)
	if userID != "" {
		if evicted := s.reg.Register(userID, client); evicted != nil {
			logger.Infof("[ws] evict stale conn=%s user=%s", evicted.ConnID, userID)
			evicted.Close()
		}
	} else {
		// still gets presence broadcasts, just not addressable
		s.pres.Announce()
	}
	logger.Infof("[ws] connected conn=%s user=%s remote=%s", client.ConnID, userID, ws.RemoteAddr())

	s.readLoop(c.Request.Context(), client)

	s.reg.Detach(client)
	client.Close()
	logger.Infof("[ws] disconnected conn=%s user=%s", client.ConnID, userID)
}

// readLoop is the only reader of the socket. Any read error ends the
// session; a panic inside one frame's handling is contained so it
// cannot take unrelated connections down with it.
func (s *Server) readLoop(ctx context.Context, client *Client) {
	ws := client.WS
	for {
		mt, data, rerr := ws.ReadMessage()
		if rerr != nil {
			if websocket.IsCloseError(rerr,
				websocket.CloseNormalClosure,
				websocket.CloseGoingAway,
				websocket.CloseNoStatusReceived,
			) {
				logger.Infof("[ws] peer closed conn=%s err=%v", client.ConnID, rerr)
			} else if ne, ok := rerr.(net.Error); ok && ne.Timeout() {
				logger.Infof("[ws] read timeout conn=%s err=%v", client.ConnID, rerr)
			} else {
				logger.Infof("[ws] read err conn=%s err=%v", client.ConnID, rerr)
			}
			return
		}
		if mt != websocket.TextMessage && mt != websocket.BinaryMessage {
			continue
		}

		frame, perr := ParseFrame(data)
		if perr != nil {
			sample := data
			if len(sample) > 256 {
				sample = sample[:256]
			}
			logger.Infof("[ws] bad frame conn=%s err=%v sample=%q", client.ConnID, perr, sample)
			continue
		}

		safe.Recovered("ws.route", func() {
			s.router.Route(ctx, client, frame)
		})
	}
}

// handshakeUser resolves the connecting user. A verified token wins;
// the bare query parameter is kept for clients that authenticate over
// HTTP only.
func (s *Server) handshakeUser(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		claims, err := security.Verify(s.jwt, token, "")
		if err != nil {
			logger.Infof("[ws] handshake token rejected: %v", err)
			return ""
		}
		return claims.UserID()
	}
	return c.Query("user")
}
