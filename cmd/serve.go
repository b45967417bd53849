package cmd

import (
	"github.com/Brawl345/supacreds/server"
	"github.com/Brawl345/supacreds/store"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the credentials store to a local dashboard",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			if cmd.Flags().Changed("listen") {
				cfg.ListenAddr = addr
			}

			r, closer := newResolver(cfg)
			defer func() {
				if err := closer.Close(); err != nil {
					log.Err(err).Msg("Failed to close fallback store")
				}
			}()

			credentials := store.New()
			defer credentials.Clear()

			srv := server.New(r, credentials, resolverConfig(cfg))
			return srv.ListenAndServe(cmd.Context(), cfg.ListenAddr)
		},
	}

	cmd.Flags().StringVar(&addr, "listen", "", "address to listen on (LISTEN_ADDR)")

	return cmd
}
