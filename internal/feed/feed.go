package feed

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/zeusync/tickphys/internal/core/observability/log"
	"github.com/zeusync/tickphys/internal/sim"
)

var (
	ErrAlreadyRunning = errors.New("feed is already running")
	ErrNotRunning     = errors.New("feed is not running")
)

var _ sim.FrameObserver = (*Server)(nil)

type Config struct {
	Addr         string
	WriteTimeout time.Duration
	// SendBuffer is how many snapshots may queue per client before it is dropped.
	SendBuffer int
}

func DefaultConfig(addr string) Config {
	return Config{Addr: addr, WriteTimeout: time.Second, SendBuffer: 8}
}

// Server streams per-frame simulation snapshots to websocket clients.
type Server struct {
	cfg      Config
	logger   log.Log
	upgrader websocket.Upgrader

	running atomic.Bool
	addr    atomic.Pointer[string]

	serverMu sync.Mutex
	server   *http.Server

	clientsMu sync.RWMutex
	clients   map[string]*client

	frames  atomic.Uint64
	dropped atomic.Uint64
}

func New(cfg Config, logger log.Log) *Server {
	if cfg.SendBuffer <= 0 {
		cfg.SendBuffer = 8
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &Server{
		cfg:    cfg,
		logger: logger.With(log.String("component", "feed")),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		clients: make(map[string]*client),
	}
}

// Handler serves /ws and /health.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", s.handleHealth)
	return mux
}

func (s *Server) Start(_ context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		s.running.Store(false)
		return errors.Wrapf(err, "failed to listen on %s", s.cfg.Addr)
	}
	srv := &http.Server{Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}
	s.serverMu.Lock()
	s.server = srv
	s.serverMu.Unlock()

	addr := ln.Addr().String()
	s.addr.Store(&addr)

	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("Feed server error", log.Error(err))
		}
	}()

	s.logger.Info("Feed started", log.String("address", addr))
	return nil
}

// Addr is the bound listen address, or "" before Start. Safe to poll from
// any goroutine.
func (s *Server) Addr() string {
	if addr := s.addr.Load(); addr != nil {
		return *addr
	}
	return ""
}

func (s *Server) Stop(ctx context.Context) error {
	if !s.running.CompareAndSwap(true, false) {
		return ErrNotRunning
	}

	s.clientsMu.Lock()
	for id, c := range s.clients {
		c.close()
		delete(s.clients, id)
	}
	s.clientsMu.Unlock()

	s.serverMu.Lock()
	srv := s.server
	s.serverMu.Unlock()
	if srv == nil {
		return ErrNotRunning
	}
	if err := srv.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "failed to shutdown feed server")
	}
	s.logger.Info("Feed stopped", log.Uint64("frames", s.frames.Load()), log.Uint64("dropped", s.dropped.Load()))
	return nil
}

func (s *Server) Clients() int {
	s.clientsMu.RLock()
	defer s.clientsMu.RUnlock()
	return len(s.clients)
}

// Dropped counts clients disconnected for falling behind.
func (s *Server) Dropped() uint64 { return s.dropped.Load() }

// OnFrame broadcasts the frame's snapshot when anyone is listening.
func (s *Server) OnFrame(simulation *sim.Simulation, _ sim.FrameReport) {
	if s.Clients() == 0 {
		return
	}
	if err := s.Broadcast(simulation.Snapshot()); err != nil {
		s.logger.Warn("Snapshot broadcast failed", log.Error(err))
	}
}

// Broadcast encodes snap once and queues it for every client. Clients whose
// queue is full are disconnected; the caller never blocks on the network.
func (s *Server) Broadcast(snap sim.Snapshot) error {
	data, err := json.Marshal(snap)
	if err != nil {
		return errors.Wrap(err, "failed to encode snapshot")
	}
	s.frames.Add(1)

	var slow []*client
	s.clientsMu.RLock()
	for _, c := range s.clients {
		if !c.offer(data) {
			slow = append(slow, c)
		}
	}
	s.clientsMu.RUnlock()

	for _, c := range slow {
		if s.remove(c) {
			s.dropped.Add(1)
			s.logger.Warn("Dropping slow feed client", log.String("client_id", c.id))
		}
	}
	return nil
}

func (s *Server) add(c *client) {
	s.clientsMu.Lock()
	s.clients[c.id] = c
	s.clientsMu.Unlock()
}

func (s *Server) remove(c *client) bool {
	s.clientsMu.Lock()
	_, ok := s.clients[c.id]
	delete(s.clients, c.id)
	s.clientsMu.Unlock()
	c.close()
	return ok
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("Websocket upgrade failed", log.Error(err))
		return
	}

	c := newClient(conn, s.cfg.SendBuffer)
	s.add(c)
	s.logger.Info("Feed client connected",
		log.String("client_id", c.id),
		log.String("remote_addr", conn.RemoteAddr().String()),
	)

	go func() {
		if err := c.writeLoop(s.cfg.WriteTimeout); err != nil {
			s.logger.Debug("Feed client write stopped", log.String("client_id", c.id), log.Error(err))
		}
		s.remove(c)
	}()

	if err := c.readLoop(); err != nil {
		s.logger.Debug("Feed client read stopped", log.String("client_id", c.id), log.Error(err))
	}
	s.remove(c)
	s.logger.Info("Feed client disconnected",
		log.String("client_id", c.id),
		log.Duration("connected_for", time.Since(c.connectedAt)),
	)
}

type health struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
	Frames  uint64 `json:"frames"`
	Dropped uint64 `json:"dropped"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health{
		Status:  "ok",
		Clients: s.Clients(),
		Frames:  s.frames.Load(),
		Dropped: s.dropped.Load(),
	})
}
