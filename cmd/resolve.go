package cmd

import (
	"encoding/json"

	"github.com/Brawl345/supacreds/model"
	"github.com/Brawl345/supacreds/store"
	"github.com/Brawl345/supacreds/utils"
	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	var (
		baseURL     string
		projectID   int64
		identity    string
		fallbackKey string
		reveal      bool
		verbose     bool
	)

	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve the credential bundle for a project and print it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := configFrom(cmd)
			if cmd.Flags().Changed("base-url") {
				cfg.BaseURL = baseURL
			}
			if cmd.Flags().Changed("project-id") {
				cfg.ProjectID = projectID
			}
			if cmd.Flags().Changed("user") {
				cfg.UserIdentity = identity
			}
			if cmd.Flags().Changed("fallback-key") {
				cfg.FallbackKey = fallbackKey
			}

			r, closer := newResolver(cfg)
			defer func() {
				if err := closer.Close(); err != nil {
					log.Err(err).Msg("Failed to close fallback store")
				}
			}()

			bundle, report, err := r.ResolveWithReport(cmd.Context(), resolverConfig(cfg))

			if verbose {
				for _, stage := range report.Stages {
					cmd.PrintErrf("%-8s %s", stage.Stage, stage.Outcome)
					if stage.Err != nil {
						cmd.PrintErrf(" (%s)", stage.Err)
					}
					cmd.PrintErrln()
				}
			}

			if err != nil {
				return err
			}

			credentials := store.New()
			credentials.Set(bundle)
			return printBundle(cmd, credentials, reveal)
		},
	}

	cmd.Flags().StringVar(&baseURL, "base-url", "", "dashboard API root (API_BASE_URL)")
	cmd.Flags().Int64Var(&projectID, "project-id", 0, "project to resolve (PROJECT_ID)")
	cmd.Flags().StringVar(&identity, "user", "", "external user identity (USER_IDENTITY)")
	cmd.Flags().StringVar(&fallbackKey, "fallback-key", "", "persisted key holding a fallback service token (FALLBACK_KEY)")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "print secrets unmasked")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "print what every source contributed")

	return cmd
}

func printBundle(cmd *cobra.Command, credentials *store.Credentials, reveal bool) error {
	bundle, _ := credentials.Bundle()
	if !reveal {
		bundle = model.Bundle{
			EndpointURL:  bundle.EndpointURL,
			AnonymousKey: utils.MaskSecret(bundle.AnonymousKey),
			ServiceToken: utils.MaskSecret(bundle.ServiceToken),
			StorageURL:   utils.MaskSecret(bundle.StorageURL),
		}
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(bundle)
}
