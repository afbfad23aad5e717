package devtools

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/go-drift/vio/pkg/config"
)

// Module returns the fx module that provides a Bridge configured from a
// *config.Resolved and ties it to the fx lifecycle.
func Module() fx.Option {
	return fx.Module("devtools",
		fx.Provide(NewFromParams),
		fx.Invoke(registerLifecycle),
	)
}

// Params are the dependencies of NewFromParams.
type Params struct {
	fx.In

	Config *config.Resolved
	Logger *zap.Logger `optional:"true"`
}

// NewFromParams builds a Bridge listening on the configured devtools address.
func NewFromParams(p Params) *Bridge {
	opts := []BridgeOption{
		WithAddr(p.Config.DevtoolsAddr()),
		WithTimeout(p.Config.Timeout),
	}
	if p.Logger != nil {
		opts = append(opts, WithLogger(p.Logger.Named("devtools")))
	}
	return NewBridge(opts...)
}

func registerLifecycle(lc fx.Lifecycle, b *Bridge) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return b.Start(ctx)
		},
		OnStop: func(_ context.Context) error {
			return b.Close()
		},
	})
}
