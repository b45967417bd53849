package cmd

import (
	"fmt"

	"github.com/Brawl345/supacreds/utils"
	"github.com/spf13/cobra"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := utils.ReadVersionInfo()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "supacreds-%s (%s, %s/%s)\n", info.Revision, info.GoVersion, info.GoOS, info.GoArch)
			if !info.LastCommit.IsZero() {
				_, _ = fmt.Fprintf(out, "Last commit: %s\n", info.LastCommit.Format("2006-01-02 15:04:05 MST"))
			}
			if info.DirtyBuild {
				_, _ = fmt.Fprintln(out, "Built from a modified working tree")
			}
			return nil
		},
	}
}
