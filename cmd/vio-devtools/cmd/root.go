// Package cmd implements the vio-devtools CLI commands.
//
// The root command carries the flags shared by every subcommand; they
// override the values resolved from vio.yaml.
package cmd

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-drift/vio/pkg/config"
)

// Version information set at build time.
var (
	Version   = "0.1.0-dev"
	BuildTime = "unknown"
)

type globalFlags struct {
	dir      string
	host     string
	port     int
	timeout  time.Duration
	logLevel string
}

// NewRootCommand builds the command tree writing to out.
func NewRootCommand(out io.Writer) *cobra.Command {
	flags := &globalFlags{}
	root := &cobra.Command{
		Use:   "vio-devtools",
		Short: "Inspect and drive a running vio app",
		Long: `vio-devtools hosts the WebSocket bridge a vio app connects to in
development and forwards calls to it.

Settings come from vio.yaml in the project root and can be overridden
with flags.`,
		Version:       Version + " (built " + BuildTime + ")",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.SetOut(out)
	root.SetErr(out)

	flags.register(root)
	root.AddCommand(
		newServeCommand(flags),
		newCallCommand(flags),
		newToolsCommand(),
	)
	return root
}

// Execute runs the CLI with os.Args.
func Execute() error {
	root := NewRootCommand(os.Stdout)
	err := root.ExecuteContext(context.Background())
	if err != nil {
		root.PrintErrln("Error:", err)
	}
	return err
}

func (f *globalFlags) register(cmd *cobra.Command) {
	pf := cmd.PersistentFlags()
	pf.StringVar(&f.dir, "dir", "", "project directory holding vio.yaml (default: nearest go.mod)")
	pf.StringVar(&f.host, "host", "", "bridge listen host")
	pf.IntVar(&f.port, "port", 0, "bridge listen port (0 picks a free port)")
	pf.DurationVar(&f.timeout, "timeout", 0, "per-call timeout")
	pf.StringVar(&f.logLevel, "log-level", "", "log level (debug, info, warn, error)")
}

// resolve loads vio.yaml and applies the flags that were set explicitly.
func (f *globalFlags) resolve(cmd *cobra.Command) (*config.Resolved, error) {
	dir := f.dir
	if dir == "" {
		if root, err := config.FindProjectRoot(); err == nil {
			dir = root
		} else {
			dir = "."
		}
	}
	cfg, err := config.Resolve(dir)
	if err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("host") {
		cfg.DevtoolsHost = f.host
	}
	if pf.Changed("port") {
		cfg.DevtoolsPort = f.port
	}
	if pf.Changed("timeout") && f.timeout > 0 {
		cfg.Timeout = f.timeout
	}
	if pf.Changed("log-level") {
		cfg.LogLevel = f.logLevel
	}
	return cfg, nil
}
