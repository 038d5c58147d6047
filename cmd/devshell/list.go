// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var listQuiet bool

// listCmd prints every registered environment in declaration order.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List registered environments",
	Long: `List registered environments in declaration order.

Output is deterministic: the same envfiles always produce the same
listing. Use --quiet for names only, one per line, suitable for scripts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, _, err := loadRegistry(cmd.Context())
		if err != nil {
			return err
		}

		if listQuiet {
			for _, name := range reg.Names() {
				fmt.Println(name)
			}
			return nil
		}

		if reg.Len() == 0 {
			fmt.Println(SubtitleStyle.Render("No environments registered. Run 'devshell init' to create an envfile."))
			return nil
		}

		fmt.Println(TitleStyle.Render("Registered environments"))
		fmt.Println()
		for _, env := range reg.Environments() {
			line := "  " + EnvStyle.Render(string(env.Name))
			if env.Description != "" {
				line += "  " + SubtitleStyle.Render(env.Description)
			}
			fmt.Println(line)
			if verbose {
				fmt.Printf("    %s %d package(s)", VerboseStyle.Render("packages:"), len(env.Packages))
				if env.Provisioner.IsSet() {
					fmt.Printf("  %s %s", VerboseStyle.Render("provisioner:"), env.Provisioner)
				}
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	listCmd.Flags().BoolVarP(&listQuiet, "quiet", "q", false, "print names only, one per line")
}
