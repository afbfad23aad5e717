package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-drift/vio/pkg/devtools"
)

func newCallCommand(flags *globalFlags) *cobra.Command {
	var wait time.Duration
	cmd := &cobra.Command{
		Use:   "call METHOD [PARAMS]",
		Short: "Send one call to the app and print the result",
		Long: `Start the bridge, wait for the app to connect, send one call and print
the JSON result.

METHOD is a method name (getStore) or a tool name (vio_get_store).
PARAMS is a JSON object, for example '{"path": "/users/1"}'.`,
		Example: `  vio-devtools call getStore
  vio-devtools call vio_navigate '{"path": "/about"}'`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			method, params, err := parseCall(args)
			if err != nil {
				return err
			}
			cfg, err := flags.resolve(cmd)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			logger, err := cfg.Logger()
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			bridge := devtools.NewBridge(
				devtools.WithAddr(cfg.DevtoolsAddr()),
				devtools.WithTimeout(cfg.Timeout),
				devtools.WithLogger(logger.Named("devtools")),
			)
			if err := bridge.Start(cmd.Context()); err != nil {
				return err
			}
			defer func() { _ = bridge.Close() }()

			waitCtx, cancel := context.WithTimeout(cmd.Context(), wait)
			defer cancel()
			if err := bridge.WaitConnected(waitCtx); err != nil {
				return fmt.Errorf("no app connected to %s within %s: %w", bridge.Addr(), wait, err)
			}
			return runCall(cmd.Context(), bridge, cmd.OutOrStdout(), method, params)
		},
	}
	cmd.Flags().DurationVar(&wait, "wait", 30*time.Second, "how long to wait for the app to connect")
	return cmd
}

// parseCall resolves the method name and validates the optional params.
func parseCall(args []string) (string, json.RawMessage, error) {
	tool, ok := devtools.LookupTool(args[0])
	if !ok {
		return "", nil, fmt.Errorf("unknown method %q (see 'vio-devtools tools')", args[0])
	}
	if len(args) < 2 {
		return tool.Method, nil, nil
	}
	raw := json.RawMessage(args[1])
	if !json.Valid(raw) {
		return "", nil, fmt.Errorf("params for %s are not valid JSON", tool.Method)
	}
	return tool.Method, raw, nil
}

// runCall sends one call through b and writes the indented result to out.
func runCall(ctx context.Context, b *devtools.Bridge, out io.Writer, method string, params json.RawMessage) error {
	var p any
	if params != nil {
		p = params
	}
	result, err := b.Call(ctx, method, p)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, result, "", "  "); err != nil {
		return err
	}
	buf.WriteByte('\n')
	_, err = buf.WriteTo(out)
	return err
}
