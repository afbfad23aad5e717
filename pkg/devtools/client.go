package devtools

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/go-drift/vio/pkg/errors"
)

// Executor runs fn on the goroutine that owns the app. It must eventually
// call fn exactly once.
type Executor func(fn func())

// ConnectOption configures Connect.
type ConnectOption func(*Conn)

// WithExecutor routes every request through exec so handlers run on the
// app's goroutine. By default requests run on the connection's read loop.
func WithExecutor(exec Executor) ConnectOption {
	return func(c *Conn) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithConnLogger sets the connection's logger.
func WithConnLogger(l *zap.Logger) ConnectOption {
	return func(c *Conn) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithHandshakeTimeout bounds the WebSocket handshake. Defaults to 5s.
func WithHandshakeTimeout(d time.Duration) ConnectOption {
	return func(c *Conn) {
		if d > 0 {
			c.handshake = d
		}
	}
}

// Conn is the app side of a devtools connection.
type Conn struct {
	ws         *websocket.Conn
	controller Controller
	exec       Executor
	logger     *zap.Logger
	handshake  time.Duration

	writeMu   sync.Mutex
	done      chan struct{}
	closing   chan struct{}
	closeOnce sync.Once
	err       error
}

// Connect dials the bridge at url and serves its requests against c until
// the connection ends. Requests are handled one at a time in arrival order.
func Connect(ctx context.Context, url string, c Controller, opts ...ConnectOption) (*Conn, error) {
	conn := &Conn{
		controller: c,
		exec:       func(fn func()) { fn() },
		logger:     zap.NewNop(),
		handshake:  5 * time.Second,
		done:       make(chan struct{}),
		closing:    make(chan struct{}),
	}
	for _, opt := range opts {
		opt(conn)
	}

	dialer := websocket.Dialer{HandshakeTimeout: conn.handshake}
	ws, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	conn.ws = ws
	conn.logger.Info("devtools connected", zap.String("url", url))

	go conn.serve()
	return conn, nil
}

// Done is closed when the connection has ended.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the connection, or nil after Close.
func (c *Conn) Err() error {
	<-c.done
	return c.err
}

// Close disconnects from the bridge and waits for the read loop to exit.
func (c *Conn) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.closing)
		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		err = c.ws.Close()
	})
	<-c.done
	return err
}

func (c *Conn) serve() {
	defer close(c.done)
	defer errors.Recover("devtools.serve")
	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			select {
			case <-c.closing:
			default:
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					c.err = err
				}
			}
			c.logger.Info("devtools disconnected", zap.Error(c.err))
			return
		}

		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			errors.Report(errors.New("devtools.serve", errors.KindProtocol, "malformed request: %v", err))
			if err := c.write(NewErrorResponse(0, "malformed request: "+err.Error())); err != nil {
				c.err = err
				return
			}
			continue
		}

		resp, ok := c.run(req)
		if !ok {
			return
		}
		if err := c.write(resp); err != nil {
			if !stderrors.Is(err, websocket.ErrCloseSent) {
				c.err = err
			}
			return
		}
	}
}

func (c *Conn) run(req Request) (Response, bool) {
	result := make(chan Response, 1)
	c.exec(func() { result <- Handle(c.controller, req) })
	select {
	case resp := <-result:
		c.logger.Debug("devtools request",
			zap.Uint64("id", req.ID),
			zap.String("method", req.Method),
			zap.Bool("ok", resp.Error == nil))
		return resp, true
	case <-c.closing:
		return Response{}, false
	}
}

func (c *Conn) write(resp Response) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	return c.ws.WriteJSON(resp)
}
