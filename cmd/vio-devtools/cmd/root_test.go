package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/go-drift/vio/pkg/config"
	"github.com/go-drift/vio/pkg/core"
	"github.com/go-drift/vio/pkg/devtools"
	"github.com/go-drift/vio/pkg/render"
	"github.com/go-drift/vio/pkg/store"
	"github.com/go-drift/vio/pkg/surface"
	"github.com/go-drift/vio/pkg/vio"
)

func TestToolsCommand_ListsCatalog(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(&out)
	root.SetArgs([]string{"tools"})
	require.NoError(t, root.Execute())

	for _, tool := range devtools.Tools {
		assert.Contains(t, out.String(), tool.Name)
	}
	assert.Contains(t, out.String(), "instanceId,state")
}

func TestCallCommand_RejectsUnknownMethod(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCommand(&out)
	root.SetArgs([]string{"call", "explode"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown method "explode"`)
}

func TestParseCall(t *testing.T) {
	method, params, err := parseCall([]string{"vio_navigate", `{"path":"/about"}`})
	require.NoError(t, err)
	assert.Equal(t, devtools.MethodNavigate, method)
	assert.JSONEq(t, `{"path":"/about"}`, string(params))

	method, params, err = parseCall([]string{"getStore"})
	require.NoError(t, err)
	assert.Equal(t, devtools.MethodGetStore, method)
	assert.Nil(t, params)

	_, _, err = parseCall([]string{"dispatch", "{not json"})
	assert.Error(t, err)
}

func TestGlobalFlags_OverrideConfig(t *testing.T) {
	dir := t.TempDir()
	yaml := "devtools:\n  host: example.test\n  port: 4000\n  timeout: 2s\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, config.FileName), []byte(yaml), 0o644))

	flags := &globalFlags{}
	cmd := &cobra.Command{Use: "test"}
	flags.register(cmd)
	require.NoError(t, cmd.ParseFlags([]string{"--dir", dir, "--port", "0", "--log-level", "debug"}))

	cfg, err := flags.resolve(cmd)
	require.NoError(t, err)
	assert.Equal(t, "example.test", cfg.DevtoolsHost)
	assert.Equal(t, 0, cfg.DevtoolsPort)
	assert.Equal(t, 2*time.Second, cfg.Timeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestServeApp_StartsAndStopsBridge(t *testing.T) {
	cfg := &config.Resolved{DevtoolsHost: "127.0.0.1", Timeout: time.Second}
	var bridge *devtools.Bridge
	app := newServeApp(cfg, zap.NewNop(), &bridge)
	require.NoError(t, app.Err())

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	require.NotNil(t, bridge)
	assert.NotEqual(t, "127.0.0.1:0", bridge.Addr())
	require.NoError(t, app.Stop(ctx))

	_, err := bridge.Call(ctx, devtools.MethodGetStore, nil)
	assert.ErrorIs(t, err, devtools.ErrClosed)
}

func TestRunCall_PrintsResult(t *testing.T) {
	bridge := devtools.NewBridge(devtools.WithAddr("127.0.0.1:0"))
	require.NoError(t, bridge.Start(context.Background()))
	t.Cleanup(func() { _ = bridge.Close() })

	app := newCounterApp(t)
	conn, err := devtools.Connect(context.Background(), "ws://"+bridge.Addr()+devtools.SocketPath, app)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, bridge.WaitConnected(ctx))

	var out bytes.Buffer
	require.NoError(t, runCall(ctx, bridge, &out, devtools.MethodDispatch, []byte(`{"action":"increment"}`)))
	assert.Equal(t, "{\n  \"success\": true\n}\n", out.String())

	out.Reset()
	require.NoError(t, runCall(ctx, bridge, &out, devtools.MethodGetStore, nil))
	assert.JSONEq(t, `{"count":1}`, out.String())

	err = runCall(ctx, bridge, &out, devtools.MethodDispatch, []byte(`{"action":"missing"}`))
	var remote *devtools.RemoteError
	assert.ErrorAs(t, err, &remote)
}

func newCounterApp(t *testing.T) *vio.App {
	t.Helper()
	doc := surface.NewDocument()
	root := surface.NewElement("div")
	root.SetAttribute("id", "app")
	doc.Body().AppendChild(root)

	counter := core.Define(core.Definition{
		Name:   "Counter",
		Render: func(core.State) *core.Node { return core.H("span", nil, "counter") },
	})
	app, err := vio.New(doc, vio.Config{
		Component: counter,
		Counter:   render.NewCounter(),
		Store: &vio.StoreConfig{
			State: store.State{"count": 0},
			Actions: map[string]store.Reducer{
				"increment": func(s store.State, _ any) store.State {
					return store.State{"count": s["count"].(int) + 1}
				},
			},
		},
	})
	require.NoError(t, err)
	require.NoError(t, app.Mount(""))
	t.Cleanup(func() { _ = app.Close() })
	return app
}
