package devtools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/go-drift/vio/pkg/config"
)

func TestModule_Lifecycle(t *testing.T) {
	var bridge *Bridge
	app := fx.New(
		fx.NopLogger,
		fx.Supply(&config.Resolved{DevtoolsHost: "127.0.0.1", DevtoolsPort: 0}),
		fx.Supply(zap.NewNop()),
		Module(),
		fx.Populate(&bridge),
	)
	require.NoError(t, app.Err())

	ctx := context.Background()
	require.NoError(t, app.Start(ctx))
	require.NotNil(t, bridge)
	assert.NotEqual(t, "127.0.0.1:0", bridge.Addr())

	app2 := newApp(t)
	conn, err := Connect(ctx, socketURL(bridge), app2)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	waitConnected(t, bridge)

	raw, err := bridge.Call(ctx, MethodGetRegisteredComponents, nil)
	require.NoError(t, err)
	assert.JSONEq(t, `["Home","About"]`, string(raw))

	require.NoError(t, app.Stop(ctx))
	_, err = bridge.Call(ctx, MethodGetStore, nil)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewFromParams_UsesConfig(t *testing.T) {
	b := NewFromParams(Params{Config: &config.Resolved{
		DevtoolsHost: "localhost",
		DevtoolsPort: 4200,
		Timeout:      config.DefaultTimeout,
	}})
	assert.Equal(t, "localhost:4200", b.Addr())
	assert.Equal(t, config.DefaultTimeout, b.timeout)
}
