// Package cmd implements the supacreds command line.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/Brawl345/supacreds/config"
	"github.com/Brawl345/supacreds/logger"
	"github.com/Brawl345/supacreds/model"
	"github.com/rs/xid"
	"github.com/spf13/cobra"
)

var log = logger.New("cmd")

type cfgKey struct{}

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "supacreds",
		Short:         "Resolve and manage Supabase credentials for the dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(os.Getenv)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), cfgKey{}, cfg))
			return nil
		},
	}

	root.AddCommand(
		newResolveCmd(),
		newServeCmd(),
		newFallbackCmd(),
		newVersionCmd(),
	)

	return root
}

// Execute runs the root command and returns the process exit code.
func Execute(ctx context.Context) int {
	err := NewRootCmd().ExecuteContext(ctx)
	if err == nil {
		return 0
	}

	if errors.Is(err, model.ErrMissingCredentials) {
		_, _ = fmt.Fprintln(os.Stderr, "❌ Credentials unavailable:", err)
		return 1
	}

	guid := xid.New().String()
	log.Err(err).
		Str("guid", guid).
		Send()
	_, _ = fmt.Fprintf(os.Stderr, "❌ %s (%s)\n", err, guid)
	return 1
}

func configFrom(cmd *cobra.Command) *config.Config {
	cfg, _ := cmd.Context().Value(cfgKey{}).(*config.Config)
	return cfg
}
