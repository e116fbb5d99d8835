package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/enumerate"
	apperrors "github.com/tschf/mle-module-loader/pkg/errors"
	"github.com/tschf/mle-module-loader/pkg/ident"
	"github.com/tschf/mle-module-loader/pkg/integrations/jsdelivr"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// moduleRow is one member of the closure as shown by inspect.
type moduleRow struct {
	ID        ident.Identifier
	URL       string // bundle URL the loader would fetch
	Overrides []entrypoint.Override
}

// buildRows maps a resolved dependency set to inspect rows. Entry point
// overrides are looked up per package so the browser can show which members
// will produce extra modules.
func buildRows(set *ident.Set, cdnBase string, reg entrypoint.Registry) []moduleRow {
	if cdnBase == "" {
		cdnBase = jsdelivr.DefaultCDNBase
	}
	rows := make([]moduleRow, 0, set.Len())
	for _, id := range set.Items() {
		rows = append(rows, moduleRow{
			ID:        id,
			URL:       cdnBase + "/" + id.String() + "/+esm",
			Overrides: reg.Lookup(id.Original),
		})
	}
	return rows
}

// inspectCommand creates the inspect command, an interactive browser over
// the resolved dependency closure.
func (c *CLI) inspectCommand() *cobra.Command {
	opts := pipelineOpts{}

	cmd := &cobra.Command{
		Use:   "inspect <package[@version]>",
		Short: "Browse the resolved dependency closure",
		Long: `Browse the resolved dependency closure.

The closure is resolved without downloading any bundles, then shown in an
interactive list: the package, its pinned version, the module name it will
get in the database, and any secondary entry points. Selecting a member
prints its details, including the bundle URL the loader would fetch.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.applyConfig(cmd, cfg)
			return c.runInspect(cmd.Context(), args[0], cfg, &opts)
		},
	}

	opts.addFlags(cmd)
	return cmd
}

// runInspect resolves the closure and runs the interactive browser.
func (c *CLI) runInspect(ctx context.Context, token string, cfg *Config, opts *pipelineOpts) error {
	name, _ := enumerate.SplitSpec(token)
	if err := apperrors.ValidateNpmPackageName(name); err != nil {
		return err
	}

	p, err := c.newPipeline(cfg, opts)
	if err != nil {
		return err
	}
	defer p.Close()

	c.Logger.Infof("Resolving %s", token)
	prog := newProgress(c.Logger)
	tokens, err := p.lister.List(ctx, token)
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Resolved %d packages", len(tokens)))

	set, err := ident.NewSet(tokens)
	if err != nil {
		return err
	}
	rows := buildRows(set, cfg.CDNBase, cfg.Overrides())

	m := newInspectModel(rows)
	program := tea.NewProgram(m)
	finalModel, err := program.Run()
	if err != nil {
		return err
	}

	fm, ok := finalModel.(inspectModel)
	if !ok || fm.Selected == nil {
		printDetail("No selection made")
		return nil
	}

	sel := fm.Selected
	printNewline()
	printKeyValue("Package", sel.ID.Original)
	printKeyValue("Version", sel.ID.Version)
	printKeyValue("Module", sel.ID.Normalized)
	printKeyValue("Bundle", StyleLink.Render(sel.URL))
	for _, o := range sel.Overrides {
		printKeyValue("Entry point", fmt.Sprintf("%s → %s", o.RelativePath, o.LogicalName))
	}
	return nil
}

// =============================================================================
// inspectModel - Interactive closure browser
// =============================================================================

// inspectModel is the bubbletea model for browsing the closure.
type inspectModel struct {
	Rows     []moduleRow
	Cursor   int
	Selected *moduleRow
	Height   int
	Offset   int
}

func newInspectModel(rows []moduleRow) inspectModel {
	return inspectModel{
		Rows:   rows,
		Height: 15,
	}
}

func (m inspectModel) Init() tea.Cmd {
	return nil
}

func (m inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Rows)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			m.Selected = &m.Rows[m.Cursor]
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 6
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m inspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Dependency Closure"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ select  q quit"))
	b.WriteString("\n\n")

	end := m.Offset + m.Height
	if end > len(m.Rows) {
		end = len(m.Rows)
	}

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		r := m.Rows[i]

		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}

		entries := "—"
		if len(r.Overrides) > 0 {
			names := make([]string, len(r.Overrides))
			for j, o := range r.Overrides {
				names[j] = o.RelativePath
			}
			entries = strings.Join(names, ", ")
		}

		rows = append(rows, []string{cursor, r.ID.Original, r.ID.Version, r.ID.Normalized, entries})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Package", "Version", "Module", "Entry points").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}

			actualIdx := m.Offset + row
			if actualIdx >= len(m.Rows) {
				return lipgloss.NewStyle()
			}
			if actualIdx == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
			}
			if col == 4 {
				return lipgloss.NewStyle().Foreground(colorDim)
			}
			return lipgloss.NewStyle().Foreground(colorWhite)
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Rows))))

	return b.String()
}
