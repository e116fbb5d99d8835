package cli

import (
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
)

// entrypointsCommand creates the entrypoints command, which shows the entry
// point override table in effect: built-in defaults plus config entries.
func (c *CLI) entrypointsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "entrypoints",
		Short: "Show the entry point override table",
		Long: `Show the entry point override table.

Some packages ship secondary entry points that other bundles import
directly, such as a worker build next to the package root. The override
table maps those paths to their own module names; entries from the config
file are layered over the built-in defaults.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			return runEntrypoints(cfg.Overrides())
		},
	}
}

func runEntrypoints(overrides entrypoint.Static) error {
	pkgs := make([]string, 0, len(overrides))
	for pkg := range overrides {
		pkgs = append(pkgs, pkg)
	}
	sort.Strings(pkgs)

	rows := [][]string{}
	for _, pkg := range pkgs {
		for _, o := range overrides[pkg] {
			rows = append(rows, []string{pkg, o.RelativePath, o.LogicalName})
		}
	}
	if len(rows) == 0 {
		printDetail("No entry point overrides configured")
		return nil
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Package", "Path", "Module").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	fmt.Println(t.Render())
	return nil
}
