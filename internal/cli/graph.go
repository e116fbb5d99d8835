package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tschf/mle-module-loader/pkg/enumerate"
	apperrors "github.com/tschf/mle-module-loader/pkg/errors"
	"github.com/tschf/mle-module-loader/pkg/graph"
	"github.com/tschf/mle-module-loader/pkg/loader"
	"github.com/tschf/mle-module-loader/pkg/sqlgen"
)

// graphOpts holds the command-line flags for the graph command.
type graphOpts struct {
	pipelineOpts

	output   string // output file; extension selects the format
	detailed bool   // include package@version in node labels
}

// graphCommand creates the graph command for visualizing the module
// reference graph.
func (c *CLI) graphCommand() *cobra.Command {
	opts := graphOpts{}

	cmd := &cobra.Command{
		Use:   "graph <package[@version]>",
		Short: "Render the module reference graph",
		Long: `Render the module reference graph.

The package's dependency closure is resolved and processed the same way
generate does, then the produced modules and the references between them
are emitted as a graph: DOT text on stdout, or a .dot or .svg file with
--output. Secondary entry points are drawn dashed.

Examples:
  mleloader graph css-select                # DOT on stdout
  mleloader graph css-select -o deps.svg    # rendered SVG
  mleloader graph linkedom -o deps.dot --detailed`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.applyConfig(cmd, cfg)
			return c.runGraph(cmd.Context(), args[0], cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output file: .dot or .svg (stdout if empty)")
	cmd.Flags().BoolVar(&opts.detailed, "detailed", false, "include package@version in node labels")
	opts.addFlags(cmd)

	return cmd
}

// runGraph resolves and processes the closure, then writes the graph in the
// format implied by the output path.
func (c *CLI) runGraph(ctx context.Context, token string, cfg *Config, opts *graphOpts) error {
	name, _ := enumerate.SplitSpec(token)
	if err := apperrors.ValidateNpmPackageName(name); err != nil {
		return err
	}

	p, err := c.newPipeline(cfg, &opts.pipelineOpts)
	if err != nil {
		return err
	}
	defer p.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Resolving %s...", token))
	spinner.Start()

	tokens, err := p.lister.List(ctx, token)
	if err != nil {
		spinner.StopWithError("Resolution failed")
		return err
	}

	res, err := loader.Run(ctx, p.fetcher, &sqlgen.Renderer{}, tokens, loader.Options{
		Refresh:  opts.refresh,
		Registry: cfg.Overrides(),
		Logger:   c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.Stop()

	g := graph.Build(res.Artifacts)
	dot := graph.ToDOT(g, graph.Options{Detailed: opts.detailed})

	switch {
	case opts.output == "":
		fmt.Print(dot)
		return nil
	case strings.HasSuffix(opts.output, ".dot"):
		if err := os.WriteFile(opts.output, []byte(dot), 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
	case strings.HasSuffix(opts.output, ".svg"):
		svg, err := graph.RenderSVG(dot)
		if err != nil {
			return err
		}
		if err := os.WriteFile(opts.output, svg, 0644); err != nil {
			return fmt.Errorf("write %s: %w", opts.output, err)
		}
	default:
		return fmt.Errorf("unsupported output format %q (use .dot or .svg)", opts.output)
	}

	printSuccess("Graph complete")
	printFile(opts.output)
	printStats(g.NodeCount(), g.EdgeCount(), 0)
	return nil
}
