// file: cmd/config.go
// version: 1.0.0
// guid: 5811df85-f650-4fd2-8262-c425345e1438

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jdfalk/spit/internal/config"
)

var (
	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Create or show the configuration",
	}

	configInitCmd = &cobra.Command{
		Use:   "init [path]",
		Short: "Write the current configuration to a file",
		Long: `Write the current configuration (defaults plus any overrides) to a
YAML file, $HOME/` + config.ConfigFileName + ` unless a path is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigFilePath()
			if len(args) == 1 {
				path = args[0]
			}
			force, _ := cmd.Flags().GetBool("force")
			if err := config.SaveConfigToFile(path, config.AppConfig, force); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
			return nil
		},
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			b, err := config.MarshalYAML(config.AppConfig.Redacted())
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(b)
			return err
		},
	}
)

func init() {
	configInitCmd.Flags().Bool("force", false, "overwrite an existing file")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}
