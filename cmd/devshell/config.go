// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"strings"

	"devshell-cli/internal/config"
	"devshell-cli/internal/issue"

	"github.com/spf13/cobra"
)

// configCmd is the `devshell config` command tree.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage devshell configuration",
	Long: `Manage devshell configuration.

Configuration is stored in:
  - Linux: ~/.config/devshell/config.cue
  - macOS: ~/Library/Application Support/devshell/config.cue
  - Windows: %APPDATA%\devshell\config.cue`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func init() {
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfig(); err != nil {
				return err
			}
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Printf("%s Configuration ready at %s\n", SuccessStyle.Render("✓"), path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.ConfigFilePath()
			if err != nil {
				return err
			}
			fmt.Println(path)
			return nil
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		if iss := issue.Lookup(issue.ConfigLoadFailedId); iss != nil {
			if rendered, rerr := iss.Render("dark"); rerr == nil {
				fmt.Fprint(os.Stderr, rendered)
			}
		}
		return err
	}

	keyStyle := EnvStyle
	valueStyle := SuccessStyle

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	path, pathErr := config.ConfigFilePath()
	if pathErr == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), path)
		} else {
			fmt.Printf("%s: %s\n", keyStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
		}
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", keyStyle.Render("default_provisioner"), valueStyle.Render(cfg.DefaultProvisioner.String()))
	fmt.Printf("%s: %s\n", keyStyle.Render("provision_command"), valueStyle.Render(strings.Join(cfg.ProvisionCommand, " ")))
	fmt.Printf("%s: %s\n", keyStyle.Render("container_engine"), valueStyle.Render(cfg.ContainerEngine.String()))
	if len(cfg.Includes) > 0 {
		fmt.Printf("%s:\n", keyStyle.Render("includes"))
		for _, inc := range cfg.Includes {
			fmt.Printf("  - %s\n", valueStyle.Render(inc.String()))
		}
	}
	fmt.Printf("%s: %s\n", keyStyle.Render("ui.color_scheme"), valueStyle.Render(cfg.UI.ColorScheme.String()))
	fmt.Printf("%s: %v\n", keyStyle.Render("ui.verbose"), cfg.UI.Verbose)

	return nil
}
