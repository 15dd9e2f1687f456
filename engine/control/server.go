package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	ws "github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Carmen-Shannon/oxy-station/engine/presentation"
)

// Path is where the WebSocket endpoint is mounted.
const Path = "/ws"

const (
	sendChSize = 256
	writeWait  = 10 * time.Second
	maxMessage = 4096
)

// ErrNotAccepted is returned when the mailbox refuses a change, e.g. after shutdown.
var ErrNotAccepted = errors.New("change not accepted")

// Poster queues a function for the frame loop.
type Poster interface {
	Post(fn func()) bool
}

// client is one WebSocket peer with a single write goroutine.
type client struct {
	conn   *ws.Conn
	sendCh chan []byte
	done   chan struct{}
	once   sync.Once
}

func (c *client) close() {
	c.once.Do(func() {
		close(c.done)
		_ = c.conn.Close()
	})
}

// send queues data without blocking; a client that cannot keep up is dropped.
func (c *client) send(data []byte) bool {
	select {
	case <-c.done:
		return false
	case c.sendCh <- data:
		return true
	default:
		c.close()
		return false
	}
}

func (c *client) writeLoop() {
	for {
		select {
		case <-c.done:
			return
		case data := <-c.sendCh:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.close()
				return
			}
			if err := c.conn.WriteMessage(ws.TextMessage, data); err != nil {
				c.close()
				return
			}
		}
	}
}

type server struct {
	router   *Router
	poster   Poster
	upgrader ws.Upgrader
	addr     string

	mu       sync.Mutex
	clients  map[*client]struct{}
	progress []byte
	ready    bool
	controls bool

	logger zerolog.Logger
}

// Server is the WebSocket control surface.
type Server interface {
	// Handler returns the HTTP handler serving Path.
	Handler() http.Handler

	// ListenAndServe serves until ctx is cancelled.
	//
	// Parameters:
	//   - ctx: the context bounding the server
	//
	// Returns:
	//   - error: error if the listener fails; nil after a clean shutdown
	ListenAndServe(ctx context.Context) error

	// Apply queues a parameter change on the frame loop and broadcasts the stored value once it
	// has been applied. Failures are logged and broadcast as errors.
	//
	// Parameters:
	//   - target: the target name
	//   - param: the parameter name
	//   - v: the value
	//
	// Returns:
	//   - error: ErrNotAccepted if the frame loop refused the change
	Apply(target, param string, v any) error

	// PublishOverlay broadcasts loading progress.
	PublishOverlay(o presentation.Overlay)

	// PublishReady broadcasts that every asset has loaded.
	PublishReady()

	// PublishControls broadcasts that the parameter controls are revealed.
	PublishControls()

	// PublishError broadcasts a failure.
	PublishError(err error)

	// Clients returns the number of connected peers.
	Clients() int
}

var _ Server = &server{}

// NewServer creates a control server.
//
// Parameters:
//   - router: the parameter router
//   - options: builder options
//
// Returns:
//   - Server: the server
func NewServer(router *Router, options ...ServerBuilderOption) Server {
	if router == nil {
		panic("control: router is required")
	}
	s := &server{
		router:  router,
		addr:    "127.0.0.1:7878",
		clients: make(map[*client]struct{}),
		logger:  zerolog.Nop(),
		// The zero CheckOrigin accepts requests without an Origin header (native clients) and
		// same-origin pages only, so a foreign page cannot drive the scene through localhost.
		upgrader: ws.Upgrader{},
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(Path, s.serveWS)
	return mux
}

func (s *server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", s.addr).Msg("control server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("control server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := srv.Shutdown(shutdownCtx)
	s.closeAll()
	if err != nil {
		return fmt.Errorf("control server shutdown: %w", err)
	}
	return nil
}

func (s *server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	conn.SetReadLimit(maxMessage)

	c := &client{conn: conn, sendCh: make(chan []byte, sendChSize), done: make(chan struct{})}
	go c.writeLoop()

	s.mu.Lock()
	s.clients[c] = struct{}{}
	replay := [][]byte{mustMarshal(Envelope{Type: TypeSchema, Targets: s.router.Schema()})}
	if s.progress != nil {
		replay = append(replay, s.progress)
	}
	if s.ready {
		replay = append(replay, mustMarshal(Envelope{Type: TypeReady}))
	}
	if s.controls {
		replay = append(replay, mustMarshal(Envelope{Type: TypeControls}))
	}
	s.mu.Unlock()

	for _, data := range replay {
		c.send(data)
	}
	s.logger.Debug().Str("remote", r.RemoteAddr).Msg("control client connected")

	s.readLoop(c)

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	c.close()
	s.logger.Debug().Str("remote", r.RemoteAddr).Msg("control client disconnected")
}

func (s *server) readLoop(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		var msg SetParamMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			c.send(mustMarshal(Envelope{Type: TypeError, Error: fmt.Sprintf("malformed message: %v", err)}))
			continue
		}
		if err := s.apply(msg.Target, msg.Param, msg.Value, c); err != nil {
			c.send(mustMarshal(Envelope{Type: TypeError, Target: msg.Target, Error: err.Error()}))
		}
	}
}

func (s *server) Apply(target, param string, v any) error {
	return s.apply(target, param, v, nil)
}

// apply posts the change; errors go back to origin, or to everyone when origin is nil.
func (s *server) apply(target, param string, v any, origin *client) error {
	run := func() {
		stored, err := s.router.Apply(target, param, v)
		if err != nil {
			s.logger.Warn().Err(err).Str("target", target).Str("param", param).Msg("parameter change rejected")
			reply := mustMarshal(Envelope{Type: TypeError, Target: target, Error: err.Error()})
			if origin != nil {
				origin.send(reply)
			} else {
				s.broadcast(reply)
			}
			return
		}
		ps := describe(stored)
		s.broadcast(mustMarshal(Envelope{Type: TypeParam, Target: target, Param: &ps}))
	}

	if s.poster == nil {
		run()
		return nil
	}
	if !s.poster.Post(run) {
		return ErrNotAccepted
	}
	return nil
}

func (s *server) PublishOverlay(o presentation.Overlay) {
	data := mustMarshal(Envelope{Type: TypeProgress, Progress: &ProgressPayload{
		Percentage: o.Percentage,
		Text:       o.Text,
		BarOffset:  o.BarOffset,
		Opacity:    o.Opacity,
		Visible:    o.Visible,
		Error:      o.Error,
	}})
	s.mu.Lock()
	s.progress = data
	s.mu.Unlock()
	s.broadcast(data)
}

func (s *server) PublishReady() {
	s.mu.Lock()
	s.ready = true
	s.mu.Unlock()
	s.broadcast(mustMarshal(Envelope{Type: TypeReady}))
}

func (s *server) PublishControls() {
	s.mu.Lock()
	s.controls = true
	s.mu.Unlock()
	s.broadcast(mustMarshal(Envelope{Type: TypeControls}))
}

func (s *server) PublishError(err error) {
	if err == nil {
		return
	}
	s.broadcast(mustMarshal(Envelope{Type: TypeError, Error: err.Error()}))
}

func (s *server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

func (s *server) broadcast(data []byte) {
	s.mu.Lock()
	peers := make([]*client, 0, len(s.clients))
	for c := range s.clients {
		peers = append(peers, c)
	}
	s.mu.Unlock()

	for _, c := range peers {
		c.send(data)
	}
}

func (s *server) closeAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		c.close()
		delete(s.clients, c)
	}
}

// mustMarshal encodes an envelope; every field type is JSON-safe.
func mustMarshal(e Envelope) []byte {
	data, err := json.Marshal(e)
	if err != nil {
		panic(fmt.Sprintf("control: marshal %s: %v", e.Type, err))
	}
	return data
}
