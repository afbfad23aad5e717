package cmd

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/go-drift/vio/pkg/devtools"
)

func newToolsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the calls a connected app answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "TOOL\tMETHOD\tPARAMS\tDESCRIPTION")
			for _, t := range devtools.Tools {
				params := strings.Join(t.Params, ",")
				if params == "" {
					params = "-"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", t.Name, t.Method, params, t.Description)
			}
			return w.Flush()
		},
	}
}
