package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/tschf/mle-module-loader/internal/server"
	"github.com/tschf/mle-module-loader/pkg/buildinfo"
)

// shutdownTimeout bounds how long in-flight runs may finish after the
// process is told to stop.
const shutdownTimeout = 10 * time.Second

// serveOpts holds the command-line flags for the serve command.
type serveOpts struct {
	pipelineOpts

	addr      string // listen address
	dirObject string // BFILE directory object for create statements
}

// serveCommand creates the serve command, which exposes the pipeline as an
// HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	opts := serveOpts{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		Long: `Run the HTTP API server.

The server exposes the pipeline over HTTP: POST /api/v1/runs resolves a
package, fetches and rewrites its bundles, and returns the scripts in the
response instead of writing files. See also GET /api/v1/entrypoints and
GET /healthz.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			opts.applyConfig(cmd, cfg)
			return c.runServe(cmd.Context(), cfg, &opts)
		},
	}

	cmd.Flags().StringVar(&opts.addr, "addr", server.DefaultAddr, "listen address")
	cmd.Flags().StringVar(&opts.dirObject, "dir-object", "", "directory object in create statements")
	opts.addFlags(cmd)

	return cmd
}

// applyConfig fills in file-configured values for flags the user left unset.
func (o *serveOpts) applyConfig(cmd *cobra.Command, cfg *Config) {
	o.pipelineOpts.applyConfig(cmd, cfg)
	if !cmd.Flags().Changed("dir-object") && cfg.DirObject != "" {
		o.dirObject = cfg.DirObject
	}
}

// runServe starts the server and blocks until the context is cancelled or
// the listener fails.
func (c *CLI) runServe(ctx context.Context, cfg *Config, opts *serveOpts) error {
	p, err := c.newPipeline(cfg, &opts.pipelineOpts)
	if err != nil {
		return err
	}
	defer p.Close()

	srv, err := server.New(server.Options{
		Addr:        opts.addr,
		Fetcher:     p.fetcher,
		Lister:      p.lister,
		Registry:    cfg.Overrides(),
		DirObject:   opts.dirObject,
		ToolVersion: buildinfo.Version,
		Logger:      c.Logger,
	})
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		c.Logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
