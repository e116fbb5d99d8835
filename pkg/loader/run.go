package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/ident"
	"github.com/tschf/mle-module-loader/pkg/observability"
	"github.com/tschf/mle-module-loader/pkg/rewrite"
)

// Options configure a single run. The zero value is usable: no environment
// name (derived from the first token), no refresh, no prefetch, default
// entry point registry, default logger.
type Options struct {
	// EnvName names the generated environment. Empty derives
	// "<normalized first token>_env".
	EnvName string
	// Refresh bypasses fetch caches for every module.
	Refresh bool
	// Prefetch warms the fetch cache with this many concurrent workers
	// before the sequential walk. Values below 2 disable it, as does
	// Refresh: a refreshing run re-fetches deliberately, and warming the
	// cache first would just fetch everything twice.
	Prefetch int
	// Registry resolves secondary entry points. Nil uses the built-in
	// defaults.
	Registry entrypoint.Registry
	// Logger receives progress output. Nil uses the package default.
	Logger *log.Logger
}

// Stats summarize a finished run.
type Stats struct {
	Modules     int           // total modules written
	EntryPoints int           // modules written for secondary entry points
	Unresolved  int           // references left unsubstituted
	Duration    time.Duration // wall time for the whole run
}

// Result is the outcome of a successful run.
type Result struct {
	RunID      string // random identifier, used by reports
	Root       string // first token, name@version
	EnvName    string
	Artifacts  *BuildArtifacts
	Unresolved []UnresolvedRef
	Builtins   []string // Node core modules referenced anywhere in the set
	Stats      Stats
}

// Run processes the dependency set given by tokens. The first token is
// treated as the root package; the rest are its transitive dependencies.
// Every member of the set plus every secondary entry point referenced from
// a processed bundle ends up in the returned artifacts exactly once, with
// entry points finalized before the module that referenced them. The
// environment create/drop pair is rendered last, over the complete import
// list.
func Run(ctx context.Context, fetcher Fetcher, render StatementRenderer, tokens []string, opts Options) (*Result, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("loader: fetcher is required")
	}
	if render == nil {
		return nil, fmt.Errorf("loader: statement renderer is required")
	}

	set, err := ident.NewSet(tokens)
	if err != nil {
		return nil, err
	}
	if set.Len() == 0 {
		return nil, fmt.Errorf("loader: empty dependency set")
	}
	root := set.Items()[0]

	if opts.Registry == nil {
		opts.Registry = entrypoint.Defaults()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.EnvName == "" {
		opts.EnvName = root.Normalized + "_env"
	}

	start := time.Now()
	observability.Loader().OnRunStart(ctx, root.String())

	p := &processor{
		ctx:         ctx,
		fetcher:     fetcher,
		render:      render,
		reg:         opts.Registry,
		logger:      opts.Logger,
		refresh:     opts.Refresh,
		set:         set,
		visited:     make(map[rewrite.Module]bool),
		owners:      make(map[string]rewrite.Module),
		artifacts:   &BuildArtifacts{},
		builtinSeen: make(map[string]bool),
	}

	if opts.Prefetch > 1 && !opts.Refresh {
		p.prefetch(opts.Prefetch)
	}

	var runErr error
	for _, id := range set.Items() {
		m := rewrite.Module{Name: id.Original, Version: id.Version}
		if err := p.process(m, id.Normalized); err != nil {
			runErr = err
			break
		}
	}
	if runErr == nil {
		p.artifacts.EnvCreate = render.EnvCreate(opts.EnvName, p.artifacts.EnvImports)
		p.artifacts.EnvDrop = render.EnvDrop(opts.EnvName)
	}

	duration := time.Since(start)
	observability.Loader().OnRunComplete(ctx, root.String(), len(p.artifacts.Modules), duration, runErr)
	if runErr != nil {
		return nil, runErr
	}

	entryPoints := 0
	for _, rec := range p.artifacts.Modules {
		if rec.Module.RelativePath != "" {
			entryPoints++
		}
	}

	return &Result{
		RunID:      uuid.NewString(),
		Root:       root.String(),
		EnvName:    opts.EnvName,
		Artifacts:  p.artifacts,
		Unresolved: p.unresolved,
		Builtins:   p.builtins,
		Stats: Stats{
			Modules:     len(p.artifacts.Modules),
			EntryPoints: entryPoints,
			Unresolved:  len(p.unresolved),
			Duration:    duration,
		},
	}, nil
}

// prefetch warms the fetch cache for every package root in the set.
// Failures are logged and otherwise ignored; the sequential walk will hit
// the same module again and surface the error properly.
func (p *processor) prefetch(workers int) {
	if workers > p.set.Len() {
		workers = p.set.Len()
	}

	jobs := make(chan ident.Identifier)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				if p.ctx.Err() != nil {
					continue
				}
				if _, err := p.fetcher.FetchModule(p.ctx, id.Original, id.Version, "", false); err != nil {
					p.logger.Debug("prefetch failed", "module", id.String(), "err", err)
				}
			}
		}()
	}

	for _, id := range p.set.Items() {
		jobs <- id
	}
	close(jobs)
	wg.Wait()
}
