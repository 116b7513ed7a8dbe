// Package inspect serves a development inspector for the reactive engine:
// a live websocket stream of change notifications plus a Prometheus metrics
// endpoint. It is a dev-only observer, never a state transport.
package inspect

import (
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/veil-dev/veil/pkg/reactive"
)

// Event is the wire form of one engine notification.
type Event struct {
	// Kind is "track", "trigger" or "effect".
	Kind string `json:"kind"`

	// Op is the access or mutation kind.
	Op string `json:"op,omitempty"`

	// Target describes the raw value's dynamic type.
	Target string `json:"target,omitempty"`

	// Key is the stringified property key.
	Key string `json:"key,omitempty"`

	// New and Old carry stringified values where the mutation defines them.
	New string `json:"new,omitempty"`
	Old string `json:"old,omitempty"`

	// Effect fields, set for effect-run events.
	EffectID   uint64 `json:"effect_id,omitempty"`
	EffectName string `json:"effect_name,omitempty"`
	DurationUS int64  `json:"duration_us,omitempty"`

	// TS is the event timestamp in unix milliseconds.
	TS int64 `json:"ts"`
}

// Config configures the inspector server.
type Config struct {
	// Logger receives connection lifecycle logs. Default: slog.Default().
	Logger *slog.Logger

	// SendBuffer is the per-client event buffer. When a slow client falls
	// behind, the oldest events are dropped. Default: 256.
	SendBuffer int

	// IncludeTracks streams track events too. Off by default: tracks are
	// an order of magnitude noisier than triggers.
	IncludeTracks bool

	// WriteTimeout bounds each websocket write. Default: 10s.
	WriteTimeout time.Duration
}

// Option configures the inspector server.
type Option func(*Config)

// WithLogger sets the connection logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Config) {
		c.Logger = l
	}
}

// WithSendBuffer sets the per-client event buffer size.
func WithSendBuffer(n int) Option {
	return func(c *Config) {
		c.SendBuffer = n
	}
}

// WithTracks enables streaming of track events.
func WithTracks(include bool) Option {
	return func(c *Config) {
		c.IncludeTracks = include
	}
}

func defaultConfig() Config {
	return Config{
		Logger:       slog.Default(),
		SendBuffer:   256,
		WriteTimeout: 10 * time.Second,
	}
}

// Server streams engine activity to websocket clients.
//
//	srv := inspect.NewServer()
//	defer srv.Close()
//	http.ListenAndServe(":8090", srv.Handler())
type Server struct {
	config   Config
	router   chi.Router
	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[*client]struct{}

	removeHooks func()
}

type client struct {
	conn *websocket.Conn
	send chan Event
}

// NewServer creates an inspector and registers it with the engine.
func NewServer(opts ...Option) *Server {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}

	s := &Server{
		config:  config,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// The inspector is a local dev tool; origins are not checked.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}

	r := chi.NewRouter()
	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/events", s.handleEvents)
	s.router = r

	s.removeHooks = reactive.RegisterHooks(s)
	return s
}

// Handler returns the HTTP handler serving /healthz, /metrics and /events.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close detaches the inspector from the engine and disconnects all clients.
func (s *Server) Close() {
	if s.removeHooks != nil {
		s.removeHooks()
		s.removeHooks = nil
	}

	s.mu.Lock()
	clients := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		clients = append(clients, c)
	}
	s.clients = make(map[*client]struct{})
	s.mu.Unlock()

	for _, c := range clients {
		close(c.send)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.config.Logger.Error("websocket upgrade failed", "error", err)
		return
	}

	c := &client{
		conn: conn,
		send: make(chan Event, s.config.SendBuffer),
	}

	s.mu.Lock()
	s.clients[c] = struct{}{}
	s.mu.Unlock()

	s.config.Logger.Info("inspector client connected", "remote", conn.RemoteAddr())

	go s.writeLoop(c)
	s.readLoop(c)
}

// readLoop drains the connection until it closes; the inspector never acts
// on client input.
func (s *Server) readLoop(c *client) {
	defer s.drop(c)
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure) {
				s.config.Logger.Error("inspector read error", "error", err)
			}
			return
		}
	}
}

func (s *Server) writeLoop(c *client) {
	for ev := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(s.config.WriteTimeout))
		if err := c.conn.WriteJSON(ev); err != nil {
			s.config.Logger.Error("inspector write error", "error", err)
			s.drop(c)
			return
		}
	}
	_ = c.conn.Close()
}

func (s *Server) drop(c *client) {
	s.mu.Lock()
	_, present := s.clients[c]
	delete(s.clients, c)
	s.mu.Unlock()
	if present {
		close(c.send)
	}
	_ = c.conn.Close()
}

// publish fans an event out to every client, dropping the oldest buffered
// event for clients that have fallen behind.
func (s *Server) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- ev:
		default:
			select {
			case <-c.send:
			default:
			}
			select {
			case c.send <- ev:
			default:
			}
		}
	}
}

// OnTrack implements reactive.Hooks.
func (s *Server) OnTrack(ev reactive.TrackEvent) {
	if !s.config.IncludeTracks {
		return
	}
	s.publish(Event{
		Kind:   "track",
		Op:     ev.Op.String(),
		Target: fmt.Sprintf("%T", ev.Target),
		Key:    stringify(ev.Key),
		TS:     time.Now().UnixMilli(),
	})
}

// OnTrigger implements reactive.Hooks.
func (s *Server) OnTrigger(ev reactive.TriggerEvent) {
	s.publish(Event{
		Kind:   "trigger",
		Op:     ev.Op.String(),
		Target: fmt.Sprintf("%T", ev.Target),
		Key:    stringify(ev.Key),
		New:    stringify(ev.NewValue),
		Old:    stringify(ev.OldValue),
		TS:     time.Now().UnixMilli(),
	})
}

// OnEffectRun implements reactive.Hooks.
func (s *Server) OnEffectRun(ev reactive.EffectRunEvent) {
	s.publish(Event{
		Kind:       "effect",
		EffectID:   ev.ID,
		EffectName: ev.Name,
		DurationUS: ev.Duration.Microseconds(),
		TS:         time.Now().UnixMilli(),
	})
}

// stringify renders a value for the wire, capped so huge payloads don't
// flood the stream. Truncation lands on a rune boundary so the wire never
// carries a split UTF-8 sequence.
func stringify(v any) string {
	if v == nil {
		return ""
	}
	s := fmt.Sprintf("%v", v)
	const maxLen = 256
	if len(s) <= maxLen {
		return s
	}
	cut := maxLen
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "…"
}
