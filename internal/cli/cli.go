// Package cli implements the mleloader command-line interface.
package cli

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/tschf/mle-module-loader/pkg/buildinfo"
	"github.com/tschf/mle-module-loader/pkg/cache"
	"github.com/tschf/mle-module-loader/pkg/enumerate"
	"github.com/tschf/mle-module-loader/pkg/integrations/jsdelivr"
	"github.com/tschf/mle-module-loader/pkg/integrations/npm"
)

// =============================================================================
// Constants
// =============================================================================

const (
	// appName is the application name used for directories and display.
	appName = "mleloader"

	// defaultOutDir is where generate writes artifacts unless told otherwise.
	defaultOutDir = "dist"
)

// Dependency lister strategies.
const (
	listerRegistry = "registry" // walk registry metadata over HTTP
	listerExec     = "exec"     // shell out to an external lister
)

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger     *log.Logger
	configPath string
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          "mleloader",
		Short:        "Mleloader packages npm modules for Oracle MLE",
		Long:         `Mleloader resolves an npm package's transitive dependency closure, downloads each member's bundled ES module from the jsDelivr CDN, rewrites cross-module imports to database-local names, and emits the scripts that load everything into Oracle MLE.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default mleloader.toml when present)")

	// Register all subcommands
	root.AddCommand(c.generateCommand())
	root.AddCommand(c.graphCommand())
	root.AddCommand(c.inspectCommand())
	root.AddCommand(c.entrypointsCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())

	return root
}

// =============================================================================
// Pipeline Factory
// =============================================================================

// pipelineOpts holds the flags shared by every command that resolves a
// dependency closure and fetches bundles.
type pipelineOpts struct {
	lister   string // dependency lister strategy
	refresh  bool   // bypass caches
	noCache  bool   // disable caching entirely
	redisURL string // shared redis cache backend
	maxDepth int    // registry lister depth limit
	maxNodes int    // registry lister package limit
}

// addFlags registers the shared pipeline flags on cmd.
func (o *pipelineOpts) addFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.lister, "lister", listerRegistry, "dependency lister: registry (default) or exec")
	cmd.Flags().BoolVar(&o.refresh, "refresh", false, "bypass cached responses")
	cmd.Flags().BoolVar(&o.noCache, "no-cache", false, "disable caching")
	cmd.Flags().StringVar(&o.redisURL, "redis", "", "redis URL for a shared cache backend")
	cmd.Flags().IntVar(&o.maxDepth, "max-depth", enumerate.DefaultMaxDepth, "maximum dependency depth (registry lister)")
	cmd.Flags().IntVar(&o.maxNodes, "max-nodes", enumerate.DefaultMaxNodes, "maximum packages to resolve (registry lister)")
}

// applyConfig fills in file-configured values for flags the user left unset.
// Flags always win over file values.
func (o *pipelineOpts) applyConfig(cmd *cobra.Command, cfg *Config) {
	if !cmd.Flags().Changed("lister") && cfg.Lister != "" {
		o.lister = cfg.Lister
	}
	if !cmd.Flags().Changed("redis") && cfg.Cache.Redis != "" {
		o.redisURL = cfg.Cache.Redis
	}
}

// pipeline bundles the collaborators of one resolving command.
type pipeline struct {
	backend cache.Cache
	fetcher *jsdelivr.Client
	lister  enumerate.Lister
}

// Close releases the cache backend.
func (p *pipeline) Close() error {
	return p.backend.Close()
}

// newPipeline assembles the cache backend, CDN fetcher and dependency lister
// for a command, honoring endpoint overrides from the config file.
func (c *CLI) newPipeline(cfg *Config, o *pipelineOpts) (*pipeline, error) {
	backend, err := newCache(o.noCache, o.redisURL)
	if err != nil {
		return nil, err
	}

	fetcher := jsdelivr.NewClientAt(backend, cfg.CDNBase, cfg.DataBase)

	var lister enumerate.Lister
	switch o.lister {
	case listerRegistry, "":
		lister = &enumerate.RegistryLister{
			Registry: npm.NewClientAt(backend, cfg.RegistryBase),
			Resolver: fetcher,
			MaxDepth: o.maxDepth,
			MaxNodes: o.maxNodes,
			Refresh:  o.refresh,
			Logger:   c.Logger,
		}
	case listerExec:
		lister = &enumerate.ExecLister{Argv: cfg.ListerArgv}
	default:
		backend.Close()
		return nil, fmt.Errorf("unknown lister %q (must be %q or %q)", o.lister, listerRegistry, listerExec)
	}

	return &pipeline{backend: backend, fetcher: fetcher, lister: lister}, nil
}

func newCache(noCache bool, redisURL string) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	if redisURL != "" {
		return cache.NewRedisCache(redisURL)
	}
	dir, err := cacheDir()
	if err != nil {
		return cache.NewNullCache(), nil
	}
	return cache.NewFileCache(dir)
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/mleloader/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}
