package cli

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tschf/mle-module-loader/pkg/buildinfo"
	"github.com/tschf/mle-module-loader/pkg/enumerate"
	apperrors "github.com/tschf/mle-module-loader/pkg/errors"
	"github.com/tschf/mle-module-loader/pkg/loader"
	"github.com/tschf/mle-module-loader/pkg/report"
	"github.com/tschf/mle-module-loader/pkg/sqlgen"
)

// generateOpts holds the command-line flags for the generate command.
type generateOpts struct {
	pipelineOpts

	out       string // artifact output directory
	envName   string // environment name, empty derives from the package
	dirObject string // BFILE directory object for create statements
	prefetch  int    // concurrent cache warm-up workers
	report    string // report file path, empty means <out>/report.json
	mongoURI  string // also record the run in MongoDB
}

// applyConfig fills in file-configured values for flags the user left unset.
func (o *generateOpts) applyConfig(cmd *cobra.Command, cfg *Config) {
	o.pipelineOpts.applyConfig(cmd, cfg)
	if !cmd.Flags().Changed("out") && cfg.Out != "" {
		o.out = cfg.Out
	}
	if !cmd.Flags().Changed("env-name") && cfg.EnvName != "" {
		o.envName = cfg.EnvName
	}
	if !cmd.Flags().Changed("dir-object") && cfg.DirObject != "" {
		o.dirObject = cfg.DirObject
	}
	if !cmd.Flags().Changed("report") && cfg.Report.Path != "" {
		o.report = cfg.Report.Path
	}
	if !cmd.Flags().Changed("mongo-uri") && cfg.Report.MongoURI != "" {
		o.mongoURI = cfg.Report.MongoURI
	}
}

// generateCommand creates the generate command, the main pipeline: resolve
// the dependency closure, fetch and rewrite every bundle, write the artifact
// tree.
func (c *CLI) generateCommand() *cobra.Command {
	opts := generateOpts{prefetch: 4}

	cmd := &cobra.Command{
		Use:   "generate <package[@version]>",
		Short: "Generate MLE modules and load scripts for an npm package",
		Long: `Generate MLE modules and load scripts for an npm package.

The package's transitive dependency closure is resolved, each member's
bundled ES module is downloaded from jsDelivr, cross-module imports are
rewritten to database-local module names, and the result is written as an
artifact tree: one JavaScript file per module plus install, create and drop
scripts.

Examples:
  mleloader generate css-select                   # latest version
  mleloader generate css-select@5.1.0             # pinned version
  mleloader generate linkedom -o build --env-name dom_env`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.applyConfig(cmd, cfg)
			return c.runGenerate(cmd.Context(), args[0], cfg, &opts)
		},
	}

	cmd.Flags().StringVarP(&opts.out, "out", "o", defaultOutDir, "output directory for the artifact tree")
	cmd.Flags().StringVar(&opts.envName, "env-name", "", "environment name (default <package>_env)")
	cmd.Flags().StringVar(&opts.dirObject, "dir-object", "", "directory object in create statements (default "+sqlgen.DefaultDirObject+")")
	cmd.Flags().IntVar(&opts.prefetch, "prefetch", opts.prefetch, "concurrent cache warm-up fetches (0 disables)")
	cmd.Flags().StringVar(&opts.report, "report", "", "report file (default <out>/report.json)")
	cmd.Flags().StringVar(&opts.mongoURI, "mongo-uri", "", "also record the run in MongoDB")
	opts.addFlags(cmd)

	return cmd
}

// runGenerate resolves the closure, runs the loader and writes the artifact
// tree plus the run report.
func (c *CLI) runGenerate(ctx context.Context, token string, cfg *Config, opts *generateOpts) error {
	name, _ := enumerate.SplitSpec(token)
	if err := apperrors.ValidateNpmPackageName(name); err != nil {
		return err
	}
	if opts.envName != "" {
		if err := apperrors.ValidateEnvName(opts.envName); err != nil {
			return err
		}
	}

	p, err := c.newPipeline(cfg, &opts.pipelineOpts)
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

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Fetching %d modules...", len(tokens)))
	spinner.Start()

	res, err := loader.Run(ctx, p.fetcher, &sqlgen.Renderer{DirObject: opts.dirObject}, tokens, loader.Options{
		EnvName:  opts.envName,
		Refresh:  opts.refresh,
		Prefetch: opts.prefetch,
		Registry: cfg.Overrides(),
		Logger:   c.Logger,
	})
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.Stop()

	scripts := sqlgen.Assemble(res.Artifacts, sqlgen.Meta{
		RunID:       res.RunID,
		Root:        res.Root,
		ToolVersion: buildinfo.Version,
	})
	if err := sqlgen.WriteTree(opts.out, scripts, res.Artifacts); err != nil {
		return err
	}

	reportPath := opts.report
	if reportPath == "" {
		reportPath = filepath.Join(opts.out, "report.json")
	}
	if err := c.writeReport(ctx, res, cfg, reportPath, opts.mongoURI); err != nil {
		return err
	}

	printSummary(res, opts.out, reportPath)
	return nil
}

// writeReport persists the run record: always to a JSON file, and to MongoDB
// when a URI is given. An unreachable MongoDB fails the command; recording
// there was asked for explicitly.
func (c *CLI) writeReport(ctx context.Context, res *loader.Result, cfg *Config, path, mongoURI string) error {
	rep := report.FromResult(res, buildinfo.Version)

	sinks := []report.Sink{&report.FileSink{Path: path}}
	if mongoURI != "" {
		ms, err := report.NewMongoSink(ctx, mongoURI, cfg.Report.MongoDatabase, cfg.Report.MongoCollection)
		if err != nil {
			return err
		}
		sinks = append(sinks, ms)
	}

	for _, s := range sinks {
		if err := s.Write(ctx, rep); err != nil {
			return err
		}
		if err := s.Close(ctx); err != nil {
			return err
		}
	}
	return nil
}

// printSummary prints the post-run report: produced files, stats, anything
// the user should look at before deploying.
func printSummary(res *loader.Result, out, reportPath string) {
	references := 0
	for _, rec := range res.Artifacts.Modules {
		references += len(rec.References)
	}

	printSuccess("Generated %d modules", res.Stats.Modules)
	printKeyValue("Environment", res.EnvName)
	printFile(filepath.Join(out, "install.sql"))
	printFile(filepath.Join(out, "create_modules.sql"))
	printFile(filepath.Join(out, "drop_modules.sql"))
	printFile(reportPath)
	printStats(res.Stats.Modules, references, res.Stats.EntryPoints)

	if len(res.Unresolved) > 0 {
		printNewline()
		printWarning("%d references left pointing at the CDN", len(res.Unresolved))
		for _, u := range res.Unresolved {
			printDetail(u.String())
		}
	}
	if len(res.Builtins) > 0 {
		printNewline()
		printWarning("Node builtins referenced: %s", strings.Join(res.Builtins, ", "))
		printDetail("These must be available in the database MLE runtime.")
	}

	printNewline()
	printNextStep("Install", "cd "+out+" && sql user@db @install.sql")
}
