package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/reunite-dev/reunite/internal/config"
)

// NewCheckConfigCommand creates the check-config command. It loads the
// configuration the same way serve does and prints the effective result,
// so misconfigurations surface before a deploy.
func NewCheckConfigCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "check-config",
		Short: "Validate the configuration and print the effective values",
		Long: `Load the configuration (defaults, file, environment) exactly as the
serve command would, validate it against the schema, and print the
effective values as YAML.

Example:
  reunite check-config --config reunite.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(rootOpts.Config)
			if err != nil {
				return WrapExitError(ExitCommandError, "configuration invalid", err)
			}
			out, err := yaml.Marshal(cfg)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to render configuration", err)
			}
			fmt.Fprint(cmd.OutOrStdout(), string(out))
			return nil
		},
	}
}
