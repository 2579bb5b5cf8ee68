package cmd

import (
	"github.com/spf13/cobra"

	"github.com/perf-annotate/internal/mcpserver"
)

func newMCPCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the queries as MCP tools over stdio",
		Long: `Serve the queries as Model Context Protocol tools on stdin and stdout.

Profiles given with -i are loaded before serving; clients can load others
with the load_profile tool. Logs go to stderr.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			r, err := a.router()
			if err != nil {
				return err
			}

			// Picking needs the terminal the protocol runs on.
			a.opts.format = "text"
			session, err := a.newSession()
			if err != nil {
				return err
			}

			if len(a.opts.inputs) > 0 {
				set, err := a.load(cmd.Context(), r)
				if err != nil {
					return err
				}
				session.Load(set)
			}

			a.logger.Info("Serving MCP on stdio (%d event(s) loaded)", len(session.Events()))
			return mcpserver.New(session, a.loader(r), a.logger, Version).ServeStdio()
		},
	}
}
