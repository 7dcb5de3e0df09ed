package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"prd-manager/internal/adapters/secondary/config"
)

// createConfigCommand creates the 'config' command
func (c *CLI) createConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:         "config",
		Short:       "Manage CLI configuration",
		Long:        `Manage CLI configuration settings and preferences.`,
		Annotations: map[string]string{annotationNoSnapshot: "true"},
	}

	cmd.AddCommand(
		c.createConfigGetCommand(),
		c.createConfigSetCommand(),
		c.createConfigListCommand(),
		c.createConfigResetCommand(),
		c.createConfigPathCommand(),
	)

	return cmd
}

// createConfigGetCommand creates the 'config get' command
func (c *CLI) createConfigGetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "get [key]",
		Short: "Get a configuration value",
		Long:  `Get the current value of a configuration setting.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			key := args[0]

			value, err := c.configMgr.Get(key)
			if err != nil {
				return c.handleError(cmd, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %v\n", key, value)
			return nil
		},
	}
}

// createConfigSetCommand creates the 'config set' command
func (c *CLI) createConfigSetCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "set [key] [value]",
		Short: "Set a configuration value",
		Long: fmt.Sprintf(`Set a configuration value. Changes are saved immediately.

Keys: %s`, strings.Join(config.ValidKeys(), ", ")),
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]

			if err := c.configMgr.Set(key, value); err != nil {
				return c.handleError(cmd, err)
			}

			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Configuration updated: %s = %s\n", key, value)
			return nil
		},
	}
}

// createConfigListCommand creates the 'config list' command
func (c *CLI) createConfigListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		Long:  `Display all current configuration settings and their values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.configMgr.Load()
			if err != nil {
				return c.handleError(cmd, err)
			}

			format := c.outputFormat
			if f, _ := cmd.Flags().GetString("output"); f != "" {
				format = f
			}

			if strings.EqualFold(format, formatJSON) {
				values := make(map[string]interface{}, len(config.ValidKeys()))
				for _, key := range config.ValidKeys() {
					value, err := c.configMgr.Get(key)
					if err != nil {
						return c.handleError(cmd, err)
					}
					values[key] = value
				}
				formatter := &JSONFormatter{writer: cmd.OutOrStdout(), pretty: true}
				return formatter.write(values, "config")
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintln(out, "Current Configuration:")
			_, _ = fmt.Fprintln(out, "")

			_, _ = fmt.Fprintln(out, "CLI:")
			_, _ = fmt.Fprintf(out, "  Output Format:  %s\n", cfg.CLI.OutputFormat)
			_, _ = fmt.Fprintf(out, "  Color Scheme:   %s\n", cfg.CLI.ColorScheme)
			_, _ = fmt.Fprintf(out, "  Recent Limit:   %d\n", cfg.CLI.RecentLimit)
			_, _ = fmt.Fprintln(out, "")

			_, _ = fmt.Fprintln(out, "Storage:")
			_, _ = fmt.Fprintf(out, "  Data File:     %s\n", valueOrDefault(cfg.Storage.DataFile, "(in memory)"))
			_, _ = fmt.Fprintf(out, "  Backup Count:  %d\n", cfg.Storage.BackupCount)
			_, _ = fmt.Fprintln(out, "")

			_, _ = fmt.Fprintln(out, "Defaults:")
			_, _ = fmt.Fprintf(out, "  Priority:  %s\n", cfg.Defaults.Priority)
			_, _ = fmt.Fprintf(out, "  Author:    %s\n", valueOrDefault(cfg.Defaults.Author, "(none)"))
			_, _ = fmt.Fprintln(out, "")

			_, _ = fmt.Fprintln(out, "Logging:")
			_, _ = fmt.Fprintf(out, "  Level:   %s\n", cfg.Logging.Level)
			_, _ = fmt.Fprintf(out, "  Format:  %s\n", cfg.Logging.Format)
			_, _ = fmt.Fprintf(out, "  File:    %s\n", valueOrDefault(cfg.Logging.File, "(stderr)"))

			return nil
		},
	}
}

// createConfigResetCommand creates the 'config reset' command
func (c *CLI) createConfigResetCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset configuration to defaults",
		Long:  `Reset all configuration settings to their default values.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !force {
				_, _ = fmt.Fprint(cmd.OutOrStdout(), "Reset all configuration to defaults? [y/N]: ")

				response, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(response), "y") {
					_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Cancelled")
					return nil
				}
			}

			if err := c.configMgr.Reset(); err != nil {
				return c.handleError(cmd, err)
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Configuration reset to defaults")
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Skip confirmation prompt")

	return cmd
}

// createConfigPathCommand creates the 'config path' command
func (c *CLI) createConfigPathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		Long:  `Display the path to the configuration file.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), c.configMgr.GetConfigPath())
			return nil
		},
	}
}
