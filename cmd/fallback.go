package cmd

import (
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/Brawl345/supacreds/config"
	"github.com/Brawl345/supacreds/model"
	"github.com/Brawl345/supacreds/utils"
	"github.com/spf13/cobra"
)

func newFallbackCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "fallback",
		Short: "Manage persisted fallback values",
	}

	var reveal bool
	cmd.PersistentFlags().BoolVar(&reveal, "reveal", false, "print values unmasked")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List persisted keys",
			Args:  cobra.NoArgs,
			RunE: withFallbackStore(func(cmd *cobra.Command, s model.CredentialService, _ []string) error {
				creds, err := s.GetAllCredentials()
				if err != nil {
					return err
				}
				if len(creds) == 0 {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No keys stored yet")
					return nil
				}

				names := make([]string, 0, len(creds))
				for name := range creds {
					names = append(names, name)
				}
				sort.Strings(names)
				for _, name := range names {
					_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, display(creds[name], reveal))
				}
				return nil
			}),
		},
		&cobra.Command{
			Use:   "get KEY",
			Short: "Print a persisted value",
			Args:  cobra.ExactArgs(1),
			RunE: withFallbackStore(func(cmd *cobra.Command, s model.CredentialService, args []string) error {
				value, err := s.GetKey(args[0])
				if errors.Is(err, model.ErrNotFound) {
					return fmt.Errorf("key %q not found", args[0])
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), display(value, reveal))
				return nil
			}),
		},
		&cobra.Command{
			Use:   "set KEY VALUE",
			Short: "Persist a value",
			Args:  cobra.ExactArgs(2),
			RunE: withFallbackStore(func(cmd *cobra.Command, s model.CredentialService, args []string) error {
				if err := s.SetKey(args[0], args[1]); err != nil {
					return fmt.Errorf("saving key %q: %w", args[0], err)
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ Key saved")
				return nil
			}),
		},
		&cobra.Command{
			Use:   "delete KEY",
			Short: "Remove a persisted value",
			Args:  cobra.ExactArgs(1),
			RunE: withFallbackStore(func(cmd *cobra.Command, s model.CredentialService, args []string) error {
				err := s.DeleteKey(args[0])
				if errors.Is(err, model.ErrNotFound) {
					return fmt.Errorf("key %q not found", args[0])
				}
				if err != nil {
					return err
				}
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "✅ Key deleted")
				return nil
			}),
		},
	)

	return cmd
}

type fallbackRunFunc func(cmd *cobra.Command, s model.CredentialService, args []string) error

func withFallbackStore(fn fallbackRunFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd)
		if cfg.FallbackBackend == config.BackendNone {
			return errors.New("no fallback store configured (FALLBACK_BACKEND=none)")
		}

		s, closer, err := openFallbackStore(cfg)
		if err != nil {
			return err
		}
		defer func(c io.Closer) {
			if err := c.Close(); err != nil {
				log.Err(err).Msg("Failed to close fallback store")
			}
		}(closer)

		return fn(cmd, s, args)
	}
}

func display(value string, reveal bool) string {
	if reveal {
		return value
	}
	return utils.MaskSecret(value)
}
