package ws

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog/log"

	"github.com/mizupool/battleroyale/internal/game"
)

// member is the slice of a Socket.IO connection the feed needs.
type member interface {
	ID() string
	Emit(event string, args ...interface{})
}

type envelope struct {
	event   string
	payload any
}

// Server pushes game events to spectators over Socket.IO. Spectators are
// read-only; every mutation goes through the HTTP API.
type Server struct {
	orch  *game.Orchestrator
	queue chan envelope

	mu      sync.Mutex
	members map[string]member
}

func New(orch *game.Orchestrator) *Server {
	srv := &Server{
		orch:    orch,
		queue:   make(chan envelope, 256),
		members: make(map[string]member),
	}
	go srv.pump()
	return srv
}

// Mount attaches the Socket.IO server with handlers to the given Gin engine.
func (srv *Server) Mount(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(s socketio.Conn) error {
		srv.addMember(s)
		s.Emit("game:state", srv.orch.Snapshot())
		log.Info().Str("sid", s.ID()).Msg("spectator connected")
		return nil
	})

	io.OnEvent("/", "game:refresh", func(s socketio.Conn) {
		s.Emit("game:state", srv.orch.Snapshot())
	})

	io.OnError("/", func(s socketio.Conn, e error) {
		log.Error().Str("sid", s.ID()).Err(e).Msg("socket error")
	})
	io.OnDisconnect("/", func(s socketio.Conn, reason string) {
		srv.removeMember(s)
		log.Info().Str("sid", s.ID()).Str("reason", reason).Msg("spectator disconnected")
	})

	go io.Serve()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))

	// Basic CORS preflight for Socket.IO POST
	r.OPTIONS("/socket.io/*any", func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Status(http.StatusNoContent)
	})

	return io
}

// Publish implements game.Broadcaster. It never blocks the caller: events are
// handed to a single writer goroutine, and dropped with a warning when the
// queue is full. Spectators catch up via game:refresh.
func (srv *Server) Publish(event string, payload any) {
	select {
	case srv.queue <- envelope{event: event, payload: payload}:
	default:
		log.Warn().Str("event", event).Msg("spectator queue full, dropping event")
	}
}

func (srv *Server) pump() {
	for ev := range srv.queue {
		srv.mu.Lock()
		conns := make([]member, 0, len(srv.members))
		for _, c := range srv.members {
			conns = append(conns, c)
		}
		srv.mu.Unlock()
		for _, c := range conns {
			c.Emit(ev.event, ev.payload)
		}
	}
}

func (srv *Server) addMember(c member) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	srv.members[c.ID()] = c
}

func (srv *Server) removeMember(c member) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	delete(srv.members, c.ID())
}
