package devtools

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/go-drift/vio/pkg/metrics"
)

// Bridge defaults.
const (
	DefaultPort    = 3100
	DefaultTimeout = 5 * time.Second
	// SocketPath is where apps connect.
	SocketPath = "/ws"
)

var (
	// ErrNotConnected is returned by Call when no app is connected, or when
	// the app disconnects before answering.
	ErrNotConnected = stderrors.New("no vio app connected")
	// ErrTimeout is returned by Call when the app does not answer in time.
	ErrTimeout = stderrors.New("devtools call timed out")
	// ErrClosed is returned by Call after Close.
	ErrClosed = stderrors.New("devtools bridge closed")
)

// BridgeOption configures a Bridge.
type BridgeOption func(*Bridge)

// WithAddr sets the listen address. Defaults to "localhost:3100".
func WithAddr(addr string) BridgeOption {
	return func(b *Bridge) {
		if addr != "" {
			b.addr = addr
		}
	}
}

// WithTimeout sets the per-call timeout. Defaults to 5s.
func WithTimeout(d time.Duration) BridgeOption {
	return func(b *Bridge) {
		if d > 0 {
			b.timeout = d
		}
	}
}

// WithLogger sets the bridge's logger.
func WithLogger(l *zap.Logger) BridgeOption {
	return func(b *Bridge) {
		if l != nil {
			b.logger = l
		}
	}
}

// Bridge is the controller side of a devtools connection. It holds at most
// one app connection; a new connection replaces the previous one.
type Bridge struct {
	addr     string
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Bridge
	upgrader websocket.Upgrader

	mu        sync.Mutex
	server    *http.Server
	listener  net.Listener
	client    *session
	connected chan struct{} // closed while client is set
	closed    bool

	nextID atomic.Uint64
}

// NewBridge creates a bridge. It does not listen until Start or Run.
func NewBridge(opts ...BridgeOption) *Bridge {
	b := &Bridge{
		addr:      fmt.Sprintf("localhost:%d", DefaultPort),
		timeout:   DefaultTimeout,
		logger:    zap.NewNop(),
		metrics:   metrics.NewBridge(),
		connected: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Metrics returns the bridge's collectors.
func (b *Bridge) Metrics() *metrics.Bridge { return b.metrics }

// Handler returns the bridge's HTTP routes: the app socket, /health and
// /metrics.
func (b *Bridge) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc(SocketPath, b.handleSocket)
	mux.HandleFunc("/health", b.handleHealth)
	mux.Handle("/metrics", b.metrics.Handler())
	return mux
}

// Start binds the listener and serves in the background. It is a no-op
// when already started.
func (b *Bridge) Start(_ context.Context) error {
	_, err := b.listen()
	return err
}

// Run serves until ctx is done or the server fails, then closes the bridge.
func (b *Bridge) Run(ctx context.Context) error {
	srv, err := b.listen()
	if err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-srv.done
		return srv.err
	})
	g.Go(func() error {
		select {
		case <-ctx.Done():
		case <-srv.done:
		}
		return b.Close()
	})
	return g.Wait()
}

type serving struct {
	done chan struct{}
	err  error
}

func (b *Bridge) listen() (*serving, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrClosed
	}
	if b.server != nil {
		return nil, fmt.Errorf("devtools bridge already listening on %s", b.listener.Addr())
	}

	ln, err := net.Listen("tcp", b.addr)
	if err != nil {
		return nil, fmt.Errorf("devtools listen: %w", err)
	}
	b.listener = ln
	b.server = &http.Server{
		Handler:           b.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srv := &serving{done: make(chan struct{})}
	server := b.server
	go func() {
		defer close(srv.done)
		if err := server.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			b.logger.Error("devtools server failed", zap.Error(err))
			srv.err = err
		}
	}()
	b.logger.Info("devtools bridge listening", zap.String("addr", ln.Addr().String()))
	return srv, nil
}

// Addr returns the bound address, or the configured one before Start.
func (b *Bridge) Addr() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.listener != nil {
		return b.listener.Addr().String()
	}
	return b.addr
}

// Connected reports whether an app is connected.
func (b *Bridge) Connected() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.client != nil
}

// SessionID returns the id of the current app session, or "".
func (b *Bridge) SessionID() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.client == nil {
		return ""
	}
	return b.client.id
}

// WaitConnected blocks until an app is connected or ctx is done.
func (b *Bridge) WaitConnected(ctx context.Context) error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return ErrClosed
	}
	ch := b.connected
	b.mu.Unlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Call sends method with params to the connected app and returns the raw
// JSON result. It fails with ErrNotConnected, ErrTimeout, a *RemoteError
// carrying the app's message, or the context's error.
func (b *Bridge) Call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	start := time.Now()
	result, err := b.call(ctx, method, params)

	outcome := "ok"
	switch {
	case stderrors.Is(err, ErrTimeout):
		outcome = "timeout"
	case err != nil:
		outcome = "error"
	}
	b.metrics.ObserveCall(method, outcome, time.Since(start))
	return result, err
}

func (b *Bridge) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	b.mu.Lock()
	closed, s := b.closed, b.client
	b.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}
	if s == nil {
		return nil, fmt.Errorf("%w: start your app and connect it to the bridge", ErrNotConnected)
	}

	raw, err := encodeParams(params)
	if err != nil {
		return nil, err
	}
	req := Request{ID: b.nextID.Add(1), Method: method, Params: raw}

	reply, err := s.send(req)
	if err != nil {
		return nil, err
	}
	defer s.forget(req.ID)

	timer := time.NewTimer(b.timeout)
	defer timer.Stop()

	select {
	case resp, ok := <-reply:
		if !ok {
			return nil, fmt.Errorf("%w: app disconnected before answering %s", ErrNotConnected, method)
		}
		if resp.Error != nil {
			return nil, &RemoteError{Method: method, Message: resp.Error.Message}
		}
		return resp.Result, nil
	case <-timer.C:
		return nil, fmt.Errorf("%w: %s did not respond within %s", ErrTimeout, method, b.timeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func encodeParams(params any) (json.RawMessage, error) {
	switch p := params.(type) {
	case nil:
		return json.RawMessage(`{}`), nil
	case json.RawMessage:
		if len(p) == 0 {
			return json.RawMessage(`{}`), nil
		}
		return p, nil
	}
	data, err := json.Marshal(params)
	if err != nil {
		return nil, fmt.Errorf("encode params: %w", err)
	}
	return data, nil
}

// Close fails pending calls, disconnects the app and shuts the server down.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil
	}
	b.closed = true
	client := b.client
	b.client = nil
	server := b.server
	b.mu.Unlock()

	var err error
	if client != nil {
		err = multierr.Append(err, client.close())
	}
	b.metrics.SetConnected(false)
	if server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		err = multierr.Append(err, server.Shutdown(ctx))
	}
	b.logger.Info("devtools bridge closed")
	return err
}

func (b *Bridge) handleSocket(w http.ResponseWriter, r *http.Request) {
	ws, err := b.upgrader.Upgrade(w, r, nil)
	if err != nil {
		b.logger.Warn("devtools upgrade failed", zap.Error(err))
		return
	}
	s := newSession(ws)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		_ = s.close()
		return
	}
	prev := b.client
	b.client = s
	if prev == nil {
		close(b.connected)
	}
	b.mu.Unlock()

	if prev != nil {
		b.logger.Info("devtools app replaced", zap.String("session", prev.id))
		_ = prev.close()
	}
	b.metrics.ObserveConnection()
	b.metrics.SetConnected(true)
	b.logger.Info("devtools app connected",
		zap.String("session", s.id),
		zap.String("remote", r.RemoteAddr))

	s.readLoop(b.logger)

	b.mu.Lock()
	if b.client == s {
		b.client = nil
		b.connected = make(chan struct{})
		b.metrics.SetConnected(false)
	}
	b.mu.Unlock()
	b.logger.Info("devtools app disconnected", zap.String("session", s.id))
}

func (b *Bridge) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	b.mu.Lock()
	health := struct {
		Status    string `json:"status"`
		Connected bool   `json:"connected"`
		Session   string `json:"session,omitempty"`
	}{Status: "ok", Connected: b.client != nil}
	if b.client != nil {
		health.Session = b.client.id
	}
	b.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(health)
}

// session is one app connection.
type session struct {
	id string
	ws *websocket.Conn

	writeMu sync.Mutex

	mu      sync.Mutex
	pending map[uint64]chan Response
	ended   bool
}

func newSession(ws *websocket.Conn) *session {
	return &session{
		id:      uuid.NewString(),
		ws:      ws,
		pending: make(map[uint64]chan Response),
	}
}

// send registers req and writes it. The returned channel receives the
// response, or is closed when the session ends first.
func (s *session) send(req Request) (<-chan Response, error) {
	reply := make(chan Response, 1)
	s.mu.Lock()
	if s.ended {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: app disconnected", ErrNotConnected)
	}
	s.pending[req.ID] = reply
	s.mu.Unlock()

	s.writeMu.Lock()
	err := s.ws.WriteJSON(req)
	s.writeMu.Unlock()
	if err != nil {
		s.forget(req.ID)
		return nil, fmt.Errorf("%w: %v", ErrNotConnected, err)
	}
	return reply, nil
}

func (s *session) forget(id uint64) {
	s.mu.Lock()
	delete(s.pending, id)
	s.mu.Unlock()
}

func (s *session) readLoop(logger *zap.Logger) {
	defer s.end()
	for {
		_, data, err := s.ws.ReadMessage()
		if err != nil {
			return
		}
		var resp Response
		if err := json.Unmarshal(data, &resp); err != nil {
			logger.Warn("malformed devtools response", zap.String("session", s.id), zap.Error(err))
			continue
		}
		s.mu.Lock()
		reply, ok := s.pending[resp.ID]
		delete(s.pending, resp.ID)
		s.mu.Unlock()
		if ok {
			reply <- resp
		}
	}
}

// end fails every pending call.
func (s *session) end() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ended {
		return
	}
	s.ended = true
	for id, reply := range s.pending {
		close(reply)
		delete(s.pending, id)
	}
}

func (s *session) close() error {
	s.writeMu.Lock()
	_ = s.ws.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	s.writeMu.Unlock()
	s.end()
	return s.ws.Close()
}
