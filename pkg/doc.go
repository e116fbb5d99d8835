// Package pkg provides the core libraries for loading npm modules into
// Oracle MLE.
//
// # Overview
//
// Mleloader turns an npm package and its transitive dependencies into
// database artifacts: one JavaScript module per package, the SQL that
// creates them, and an MLE environment that wires the imports together.
// The pkg directory is organized into three main areas:
//
//  1. Domain logic (identifiers, dependency enumeration, reference
//     rewriting, the loader itself)
//  2. Output (SQL generation, run reports, reference graphs)
//  3. Infrastructure (caching, HTTP clients, retry, validation)
//
// # Architecture
//
// The typical data flow through mleloader:
//
//	npm package name
//	         ↓
//	    [enumerate] package (resolve the dependency closure)
//	         ↓
//	    [loader] package (fetch bundles, rewrite references)
//	         ↓
//	    [sqlgen] package (render statements, write the artifact tree)
//	         ↓
//	    install.sql / create_modules.sql / drop_modules.sql / modules/*.js
//
// # Quick Start
//
// Resolve a package and generate its artifacts:
//
//	import (
//	    "context"
//	    "github.com/tschf/mle-module-loader/pkg/cache"
//	    "github.com/tschf/mle-module-loader/pkg/enumerate"
//	    "github.com/tschf/mle-module-loader/pkg/integrations/jsdelivr"
//	    "github.com/tschf/mle-module-loader/pkg/integrations/npm"
//	    "github.com/tschf/mle-module-loader/pkg/loader"
//	    "github.com/tschf/mle-module-loader/pkg/sqlgen"
//	)
//
//	// 1. Resolve the closure
//	backend := cache.NewNullCache()
//	fetcher := jsdelivr.NewClient(backend)
//	lister := &enumerate.RegistryLister{
//	    Registry: npm.NewClient(backend),
//	    Resolver: fetcher,
//	}
//	tokens, _ := lister.List(context.Background(), "css-select")
//
//	// 2. Fetch and rewrite every member
//	res, _ := loader.Run(context.Background(), fetcher, &sqlgen.Renderer{}, tokens, loader.Options{})
//
//	// 3. Write the artifact tree
//	scripts := sqlgen.Assemble(res.Artifacts, sqlgen.Meta{RunID: res.RunID, Root: res.Root})
//	_ = sqlgen.WriteTree("dist", scripts, res.Artifacts)
//
// # Main Packages
//
// ## Domain Logic
//
// [ident] - Package identifiers: parsing name@version tokens, deriving
// database-safe logical names, and the ordered dependency set.
//
// [enumerate] - Dependency closure expansion. RegistryLister walks npm
// registry metadata over HTTP; ExecLister shells out to an external
// command that prints the closure.
//
// [rewrite] - CDN reference rewriting. Finds jsDelivr import specifiers
// inside a bundle and substitutes logical module names.
//
// [entrypoint] - Secondary entry point registry: which package-relative
// paths get their own module, and under what name.
//
// [loader] - The run itself: fetches every member of the set, rewrites
// references, recurses into secondary entry points, and accumulates
// per-module artifacts in dependency-safe order.
//
// ## Output
//
// [sqlgen] - SQL and SQLcl statement rendering, script assembly, and the
// on-disk artifact tree.
//
// [report] - Durable run records, written as JSON next to the artifacts
// or inserted into a MongoDB collection.
//
// [graph] - The module reference graph: DOT output and Graphviz SVG
// rendering.
//
// ## Infrastructure
//
// [cache] - Cache backends: file-based for the CLI, Redis for shared
// environments, a null backend for cache-free runs.
//
// [integrations] - HTTP clients for jsDelivr and the npm registry, with
// transparent response caching.
//
// [httputil] - Retry with exponential backoff for transient HTTP
// failures.
//
// [errors] - Error codes and input validation shared by the CLI and the
// API server.
//
// [observability] - Hook interfaces for instrumenting loader runs, cache
// operations, and API calls without binding to a metrics backend.
//
// [buildinfo] - Version, commit, and build date, stamped in by the
// linker.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/loader/...             # Specific package
//	go test -tags integration ./pkg/...  # Include integration tests
//
// [ident]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/ident
// [enumerate]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/enumerate
// [rewrite]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/rewrite
// [entrypoint]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/entrypoint
// [loader]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/loader
// [sqlgen]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/sqlgen
// [report]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/report
// [graph]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/graph
// [cache]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/cache
// [integrations]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/integrations
// [httputil]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/httputil
// [errors]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/errors
// [observability]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/observability
// [buildinfo]: https://pkg.go.dev/github.com/tschf/mle-module-loader/pkg/buildinfo
package pkg
