package devtools

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/errors"
	"github.com/go-drift/vio/pkg/navigation"
	"github.com/go-drift/vio/pkg/render"
	"github.com/go-drift/vio/pkg/store"
	"github.com/go-drift/vio/pkg/surface"
	"github.com/go-drift/vio/pkg/vio"
)

func newApp(t *testing.T) *vio.App {
	t.Helper()
	doc := surface.NewDocument()
	root := surface.NewElement("div")
	root.SetAttribute("id", "app")
	doc.Body().AppendChild(root)

	home := core.Define(core.Definition{
		Name:   "Home",
		State:  core.State{"title": "home"},
		Render: func(s core.State) *core.Node { return core.H("h1", nil, s["title"]) },
	})
	about := core.Define(core.Definition{
		Name:   "About",
		Render: func(core.State) *core.Node { return core.H("p", nil, "about") },
	})

	app, err := vio.New(doc, vio.Config{
		Routes: []navigation.Route{{Path: "/", Component: home}, {Path: "/about", Component: about}},
		Store: &vio.StoreConfig{
			State: store.State{"count": 0.0},
			Actions: map[string]store.Reducer{
				"add": func(s store.State, p any) store.State {
					n, _ := p.(float64)
					s["count"] = s["count"].(float64) + n
					return s
				},
			},
		},
		Counter: render.NewCounter(),
	})
	require.NoError(t, err)
	require.NoError(t, app.Register(home))
	require.NoError(t, app.Register(about))
	require.NoError(t, app.Mount("/"))
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func call(t *testing.T, c Controller, method string, params any) Response {
	t.Helper()
	raw, err := json.Marshal(params)
	require.NoError(t, err)
	return Handle(c, Request{ID: 7, Method: method, Params: raw})
}

func result[T any](t *testing.T, resp Response) T {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected error response")
	var v T
	require.NoError(t, json.Unmarshal(resp.Result, &v))
	return v
}

func TestHandleUnknownMethod(t *testing.T) {
	resp := Handle(newApp(t), Request{ID: 3, Method: "explode"})
	assert.Equal(t, uint64(3), resp.ID)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "Unknown method: explode", resp.Error.Message)
}

func TestHandleStoreMethods(t *testing.T) {
	app := newApp(t)

	assert.Equal(t, map[string]any{"count": 0.0}, result[map[string]any](t, call(t, app, MethodGetStore, nil)))

	ok := result[Success](t, call(t, app, MethodDispatch, map[string]any{"action": "add", "payload": 2}))
	assert.True(t, ok.Success)
	assert.Equal(t, map[string]any{"count": 2.0}, result[map[string]any](t, call(t, app, MethodGetStore, nil)))

	resp := call(t, app, MethodDispatch, map[string]any{"action": "nope"})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "nope")
	assert.Equal(t, uint64(7), resp.ID)
}

func TestHandleComponentMethods(t *testing.T) {
	app := newApp(t)
	root := app.RootID()

	state := result[map[string]any](t, call(t, app, MethodGetState, map[string]any{"instanceId": root}))
	assert.Equal(t, map[string]any{"title": "home"}, state)

	result[Success](t, call(t, app, MethodSetState, map[string]any{"instanceId": root, "state": map[string]any{"title": "hi"}}))
	assert.Equal(t, "hi", app.Container().TextContent())

	resp := call(t, app, MethodSetState, map[string]any{"instanceId": "Ghost-1", "state": map[string]any{}})
	require.NotNil(t, resp.Error)

	tree := result[vio.TreeNode](t, call(t, app, MethodGetComponentTree, nil))
	assert.Equal(t, root, tree.ID)
	assert.Equal(t, "Home", tree.Name)

	names := result[[]string](t, call(t, app, MethodGetRegisteredComponents, nil))
	assert.Equal(t, []string{"Home", "About"}, names)

	result[Success](t, call(t, app, MethodRemoveComponent, map[string]any{"instanceId": root}))
	assert.Equal(t, "", app.RootID())
}

func TestHandleNavigateBatchEmitHistory(t *testing.T) {
	app := newApp(t)

	nav := result[navigateResult](t, call(t, app, MethodNavigate, map[string]any{"path": "/about"}))
	assert.True(t, nav.Matched)
	assert.Equal(t, "about", app.Container().TextContent())

	nav = result[navigateResult](t, call(t, app, MethodNavigate, map[string]any{"path": "/missing"}))
	assert.False(t, nav.Matched)

	result[Success](t, call(t, app, MethodBatch, map[string]any{"operations": []map[string]any{
		{"action": "navigate", "target": "/"},
		{"action": "dispatch", "payload": map[string]any{"action": "add", "value": 5}},
	}}))
	assert.Equal(t, 5.0, app.GetStore()["count"])
	assert.Equal(t, "/", app.CurrentRoute().Path)

	resp := call(t, app, MethodBatch, map[string]any{"operations": []map[string]any{{"action": "fly"}}})
	require.NotNil(t, resp.Error)

	result[Success](t, call(t, app, MethodEmit, map[string]any{"event": "custom:ping", "payload": map[string]any{"n": 1}}))
	resp = call(t, app, MethodEmit, map[string]any{})
	require.NotNil(t, resp.Error)

	var history []struct {
		Type    string         `json:"type"`
		Payload map[string]any `json:"payload"`
	}
	require.Nil(t, call(t, app, MethodGetEventHistory, nil).Error)
	require.NoError(t, json.Unmarshal(call(t, app, MethodGetEventHistory, nil).Result, &history))
	require.NotEmpty(t, history)
	last := history[len(history)-1]
	assert.Equal(t, "custom:ping", last.Type)
	assert.Equal(t, 1.0, last.Payload["n"])
}

func TestHandleInvalidParams(t *testing.T) {
	resp := Handle(newApp(t), Request{ID: 1, Method: MethodGetState, Params: json.RawMessage(`[1,2]`)})
	require.NotNil(t, resp.Error)
	assert.Contains(t, resp.Error.Message, "invalid params")
}

type panicking struct{ Controller }

func (panicking) GetStore() map[string]any { panic("store exploded") }

type quietHandler struct{ panics int }

func (h *quietHandler) HandleError(*errors.RuntimeError)  {}
func (h *quietHandler) HandlePanic(*errors.PanicError)    { h.panics++ }
func (h *quietHandler) HandleBuildError(*errors.BuildError) {}

func TestHandlePanicBecomesErrorResponse(t *testing.T) {
	h := &quietHandler{}
	old := errors.DefaultHandler
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(old) })

	resp := Handle(panicking{}, Request{ID: 9, Method: MethodGetStore})
	require.NotNil(t, resp.Error)
	assert.Equal(t, uint64(9), resp.ID)
	assert.Equal(t, "panic: store exploded", resp.Error.Message)
	assert.Equal(t, 1, h.panics)
}

func TestToolsCoverMethods(t *testing.T) {
	for _, m := range Methods() {
		_, ok := methods[m]
		assert.True(t, ok, "catalog method %s has no handler", m)
	}
	assert.Len(t, Methods(), len(methods))

	tool, ok := LookupTool("vio_dispatch")
	require.True(t, ok)
	assert.Equal(t, MethodDispatch, tool.Method)
	_, ok = LookupTool(MethodGetStore)
	assert.True(t, ok)
}

func startBridge(t *testing.T, opts ...BridgeOption) *Bridge {
	t.Helper()
	b, _ := startObservedBridge(t, opts...)
	return b
}

func startObservedBridge(t *testing.T, opts ...BridgeOption) (*Bridge, *observer.ObservedLogs) {
	t.Helper()
	obsCore, logs := observer.New(zap.InfoLevel)
	opts = append([]BridgeOption{WithAddr("127.0.0.1:0"), WithLogger(zap.New(obsCore))}, opts...)
	b := NewBridge(opts...)
	require.NoError(t, b.Start(context.Background()))
	t.Cleanup(func() { _ = b.Close() })
	return b, logs
}

func socketURL(b *Bridge) string {
	return "ws://" + b.Addr() + SocketPath
}

func waitConnected(t *testing.T, b *Bridge) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, b.WaitConnected(ctx))
}

func TestBridgeRoundTrip(t *testing.T) {
	b, logs := startObservedBridge(t)
	app := newApp(t)

	conn, err := Connect(context.Background(), socketURL(b), app)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	waitConnected(t, b)
	assert.True(t, b.Connected())
	assert.NotEmpty(t, b.SessionID())
	require.Eventually(t, func() bool {
		return logs.FilterMessage("devtools app connected").Len() == 1
	}, 2*time.Second, 5*time.Millisecond)

	ctx := context.Background()
	_, err = b.Call(ctx, MethodDispatch, map[string]any{"action": "add", "payload": 3})
	require.NoError(t, err)

	raw, err := b.Call(ctx, MethodGetStore, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `{"count":3}`, string(raw))

	_, err = b.Call(ctx, "explode", nil)
	var remote *RemoteError
	require.True(t, stderrors.As(err, &remote))
	assert.Equal(t, "explode", remote.Method)
	assert.Equal(t, "Unknown method: explode", remote.Message)
}

func TestBridgeCallWithoutApp(t *testing.T) {
	b := startBridge(t)
	_, err := b.Call(context.Background(), MethodGetStore, nil)
	assert.True(t, stderrors.Is(err, ErrNotConnected))
	assert.False(t, b.Connected())
}

func TestBridgeTimeout(t *testing.T) {
	b := startBridge(t, WithTimeout(50*time.Millisecond))

	silent, _, err := websocket.DefaultDialer.Dial(socketURL(b), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = silent.Close() })
	waitConnected(t, b)

	_, err = b.Call(context.Background(), MethodGetStore, nil)
	assert.True(t, stderrors.Is(err, ErrTimeout))
	assert.Contains(t, err.Error(), "getStore did not respond within 50ms")
}

func TestBridgeFailsPendingCallOnDisconnect(t *testing.T) {
	b := startBridge(t)

	silent, _, err := websocket.DefaultDialer.Dial(socketURL(b), nil)
	require.NoError(t, err)
	waitConnected(t, b)

	go func() {
		var req Request
		if err := silent.ReadJSON(&req); err == nil {
			_ = silent.Close()
		}
	}()

	_, err = b.Call(context.Background(), MethodGetStore, nil)
	assert.True(t, stderrors.Is(err, ErrNotConnected))
	require.Eventually(t, func() bool { return !b.Connected() }, 2*time.Second, 5*time.Millisecond)
}

func TestBridgeReplacesPreviousApp(t *testing.T) {
	b := startBridge(t)

	first, err := Connect(context.Background(), socketURL(b), newApp(t))
	require.NoError(t, err)
	waitConnected(t, b)
	firstSession := b.SessionID()

	second, err := Connect(context.Background(), socketURL(b), newApp(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = second.Close() })

	select {
	case <-first.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("first connection was not closed")
	}
	require.Eventually(t, func() bool {
		id := b.SessionID()
		return id != "" && id != firstSession
	}, 2*time.Second, 5*time.Millisecond)

	raw, err := b.Call(context.Background(), MethodGetRegisteredComponents, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `["Home","About"]`, string(raw))
}

func TestConnRunsRequestsOnExecutor(t *testing.T) {
	b := startBridge(t)

	posted := make(chan func())
	app := newApp(t)
	conn, err := Connect(context.Background(), socketURL(b), app,
		WithExecutor(func(fn func()) { posted <- fn }))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	waitConnected(t, b)

	done := make(chan error, 1)
	go func() {
		_, err := b.Call(context.Background(), MethodNavigate, map[string]any{"path": "/about"})
		done <- err
	}()

	select {
	case fn := <-posted:
		fn()
	case <-time.After(2 * time.Second):
		t.Fatal("request was not posted to the executor")
	}
	require.NoError(t, <-done)
	assert.Equal(t, "about", app.Container().TextContent())
}

func TestBridgeHealthAndMetrics(t *testing.T) {
	b := startBridge(t)

	resp, err := http.Get("http://" + b.Addr() + "/health")
	require.NoError(t, err)
	var health map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	resp.Body.Close()
	assert.Equal(t, "ok", health["status"])
	assert.Equal(t, false, health["connected"])

	_, _ = b.Call(context.Background(), MethodGetStore, nil)

	resp, err = http.Get("http://" + b.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBridgeRunStopsOnCancel(t *testing.T) {
	b := NewBridge(WithAddr("127.0.0.1:0"))
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- b.Run(ctx) }()
	require.Eventually(t, func() bool { return b.Addr() != "127.0.0.1:0" }, 2*time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Run did not return")
	}

	_, err := b.Call(context.Background(), MethodGetStore, nil)
	assert.True(t, stderrors.Is(err, ErrClosed))
}

type reportingHandler struct {
	quietHandler
	errs chan *errors.RuntimeError
}

func (h *reportingHandler) HandleError(err *errors.RuntimeError) { h.errs <- err }

func TestConnReportsMalformedRequest(t *testing.T) {
	h := &reportingHandler{errs: make(chan *errors.RuntimeError, 1)}
	old := errors.DefaultHandler
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(old) })

	replies := make(chan Response, 1)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		if err := ws.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
			return
		}
		var resp Response
		if err := ws.ReadJSON(&resp); err == nil {
			replies <- resp
		}
	}))
	t.Cleanup(srv.Close)

	conn, err := Connect(context.Background(), "ws"+strings.TrimPrefix(srv.URL, "http"), newApp(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	select {
	case resp := <-replies:
		assert.Equal(t, uint64(0), resp.ID)
		require.NotNil(t, resp.Error)
		assert.True(t, strings.HasPrefix(resp.Error.Message, "malformed request:"))
	case <-time.After(2 * time.Second):
		t.Fatal("no reply to malformed request")
	}

	reported := <-h.errs
	assert.Equal(t, errors.KindProtocol, reported.Kind)
	assert.Equal(t, "devtools.serve", reported.Op)
}
