package enumerate

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/tschf/mle-module-loader/pkg/integrations/jsdelivr"
	"github.com/tschf/mle-module-loader/pkg/integrations/npm"
)

const (
	DefaultMaxDepth = 50  // Default maximum dependency depth below the root
	DefaultMaxNodes = 500 // Default maximum packages in the closure
	defaultWorkers  = 8
)

// ManifestSource answers what a package version depends on and what the
// registry currently tags as latest. [npm.Client] is the production source.
type ManifestSource interface {
	Latest(ctx context.Context, pkg string, refresh bool) (string, error)
	FetchManifest(ctx context.Context, pkg, version string, refresh bool) (*npm.Manifest, error)
}

// VersionResolver pins a semver range specifier to a concrete version.
// [jsdelivr.Client] is the production resolver.
type VersionResolver interface {
	ResolveVersion(ctx context.Context, name, specifier string, refresh bool) (string, error)
}

var (
	_ ManifestSource  = (*npm.Client)(nil)
	_ VersionResolver = (*jsdelivr.Client)(nil)
)

// RegistryLister expands dependencies by walking registry metadata over
// HTTP, level by level: each member's manifest names its direct runtime
// dependencies as semver ranges, each range is pinned to a concrete version,
// and newly pinned packages form the next level. No npm tooling is involved.
//
// Output is deterministic for a given registry state: members appear in
// breadth-first order, root first, and each manifest's dependencies are
// visited in sorted name order. Within a level the network calls run
// concurrently; ordering never depends on completion order.
type RegistryLister struct {
	Registry ManifestSource  // manifest and dist-tags lookups (required)
	Resolver VersionResolver // semver range pinning (required)
	MaxDepth int             // levels below the root (default: DefaultMaxDepth)
	MaxNodes int             // total package cap (default: DefaultMaxNodes)
	Workers  int             // concurrent registry calls (default: 8)
	Refresh  bool            // bypass HTTP caches
	Logger   *log.Logger     // diagnostics (default: log.Default())
}

var _ Lister = (*RegistryLister)(nil)

type member struct {
	name    string
	version string
}

func (m member) token() string { return m.name + "@" + m.version }

type depRef struct {
	name string
	spec string
}

// List expands pkg into its transitive runtime closure.
//
// A bare name pins through the registry's latest tag, anything after the
// last @ is treated as a specifier and pinned through the resolver (an
// exact version resolves to itself). Failures on the root are fatal;
// failures further down log a warning and prune that branch, mirroring how
// installers treat broken optional corners of the graph.
func (l *RegistryLister) List(ctx context.Context, pkg string) ([]string, error) {
	if l.Registry == nil || l.Resolver == nil {
		return nil, fmt.Errorf("enumerate: registry lister needs both a registry and a resolver client")
	}

	name, spec := SplitSpec(pkg)
	version, err := l.pin(ctx, name, spec)
	if err != nil {
		return nil, err
	}

	root := member{name: name, version: version}
	tokens := []string{root.token()}
	visited := map[string]bool{root.token(): true}
	seen := map[depRef]bool{}
	capped := false

	level := []member{root}
	for depth := 0; len(level) > 0 && depth < l.maxDepth(); depth++ {
		manifests, errs := l.fetchManifests(ctx, level)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var refs []depRef
		for i, m := range level {
			if errs[i] != nil {
				if depth == 0 {
					return nil, errs[i]
				}
				l.logger().Warn("manifest fetch failed", "package", m.token(), "err", errs[i])
				continue
			}
			for _, depName := range slices.Sorted(maps.Keys(manifests[i].Dependencies)) {
				ref := depRef{name: depName, spec: manifests[i].Dependencies[depName]}
				if seen[ref] {
					continue
				}
				seen[ref] = true
				refs = append(refs, ref)
			}
		}

		versions, errs := l.pinRefs(ctx, refs)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		var next []member
		for i, ref := range refs {
			if errs[i] != nil {
				l.logger().Warn("range resolution failed", "package", ref.name, "range", ref.spec, "err", errs[i])
				continue
			}
			m := member{name: ref.name, version: versions[i]}
			if visited[m.token()] {
				continue
			}
			if len(visited) >= l.maxNodes() {
				capped = true
				continue
			}
			visited[m.token()] = true
			tokens = append(tokens, m.token())
			next = append(next, m)
		}
		level = next
	}

	if capped {
		l.logger().Warn("package cap reached, closure truncated", "max", l.maxNodes())
	}
	return tokens, nil
}

func (l *RegistryLister) pin(ctx context.Context, name, spec string) (string, error) {
	if spec == "" || spec == "latest" {
		return l.Registry.Latest(ctx, name, l.Refresh)
	}
	return l.Resolver.ResolveVersion(ctx, name, spec, l.Refresh)
}

func (l *RegistryLister) fetchManifests(ctx context.Context, level []member) ([]*npm.Manifest, []error) {
	manifests := make([]*npm.Manifest, len(level))
	errs := make([]error, len(level))

	sem := make(chan struct{}, l.workers())
	var wg sync.WaitGroup
	for i, m := range level {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			manifests[i], errs[i] = l.Registry.FetchManifest(ctx, m.name, m.version, l.Refresh)
		}()
	}
	wg.Wait()
	return manifests, errs
}

func (l *RegistryLister) pinRefs(ctx context.Context, refs []depRef) ([]string, []error) {
	versions := make([]string, len(refs))
	errs := make([]error, len(refs))

	sem := make(chan struct{}, l.workers())
	var wg sync.WaitGroup
	for i, ref := range refs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			if ctx.Err() != nil {
				errs[i] = ctx.Err()
				return
			}
			versions[i], errs[i] = l.pin(ctx, ref.name, ref.spec)
		}()
	}
	wg.Wait()
	return versions, errs
}

func (l *RegistryLister) maxDepth() int {
	if l.MaxDepth <= 0 {
		return DefaultMaxDepth
	}
	return l.MaxDepth
}

func (l *RegistryLister) maxNodes() int {
	if l.MaxNodes <= 0 {
		return DefaultMaxNodes
	}
	return l.MaxNodes
}

func (l *RegistryLister) workers() int {
	if l.Workers <= 0 {
		return defaultWorkers
	}
	return l.Workers
}

func (l *RegistryLister) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}
