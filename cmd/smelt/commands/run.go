package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/smelt/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Build the configured asset bundles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			opts := app.RunOptions{}
			opts.Locales, _ = cmd.Flags().GetStringSlice("locales")
			opts.Themes, _ = cmd.Flags().GetStringSlice("themes")
			opts.Outputs, _ = cmd.Flags().GetStringSlice("outputs")
			opts.OutputExtensions, _ = cmd.Flags().GetStringSlice("output-extensions")
			opts.Jobs, _ = cmd.Flags().GetInt("jobs")
			opts.NoCache, _ = cmd.Flags().GetBool("no-cache")
			return c.app.Run(cmd.Context(), opts)
		},
	}
	cmd.Flags().StringSlice("locales", nil, "Restrict the run to locales matching these substrings")
	cmd.Flags().StringSlice("themes", nil, "Restrict the run to themes matching these substrings")
	cmd.Flags().StringSlice("outputs", nil, "Restrict the run to outputs matching these substrings")
	cmd.Flags().StringSlice("output-extensions", nil, "Restrict the run to outputs with these extensions")
	cmd.Flags().IntP("jobs", "j", 0, "Worker pool size (defaults to the configured value)")
	cmd.Flags().BoolP("no-cache", "n", false, "Bypass the build cache and force execution")
	return cmd
}
