package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"kiosk/internal/config"
)

func newConfigCommand(e *env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Creates and inspects configuration files.",
	}

	var force bool

	initCmd := &cobra.Command{
		Use:   "init <path.yaml>",
		Short: "Writes the default configuration.",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			path := args[0]

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := config.Default().SaveConfig(path); err != nil {
				return err
			}

			fmt.Fprintf(e.out, "✅ Wrote %s\n", path)

			return nil
		},
	}

	initCmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Prints the effective configuration with secrets masked.",
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, err := e.config()
			if err != nil {
				return err
			}

			masked := *cfg
			if masked.Source.APIKey != "" {
				masked.Source.APIKey = "***"
			}

			if e.asJSON {
				return e.printJSON(masked)
			}

			data, err := yaml.Marshal(&masked)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			_, err = e.out.Write(data)

			return err
		},
	}

	cmd.AddCommand(initCmd, showCmd)

	return cmd
}
