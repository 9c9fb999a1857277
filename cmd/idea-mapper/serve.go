package main

import (
	"github.com/spf13/cobra"

	"github.com/sozercan/idea-mapper/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP analysis API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := ctx.buildAnalyzer()
			if err != nil {
				return err
			}

			cfg := ctx.cfg.Server
			if cmd.Flags().Changed("host") {
				cfg.Host = host
			}
			if cmd.Flags().Changed("port") {
				cfg.Port = port
			}

			return server.New(cfg, a).Run()
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "Listen host (overrides SERVER_HOST)")
	cmd.Flags().StringVarP(&port, "port", "p", "", "Listen port (overrides SERVER_PORT)")
	return cmd
}
