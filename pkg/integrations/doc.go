// Package integrations provides HTTP clients for the CDN and registry APIs.
//
// # Overview
//
// This package contains low-level API clients for fetching bundled modules
// and package metadata. Each upstream has its own subpackage:
//
//   - [jsdelivr]: jsDelivr CDN (bundled ESM modules, version resolution)
//   - [npm]: npm registry (dist-tags, version manifests)
//
// # Client Pattern
//
// Both clients follow a consistent pattern:
//
//	client := jsdelivr.NewClient(backend)  // backend is a cache.Cache
//	src, err := client.FetchModule(ctx, "linkedom", "0.16.11", "", false)  // false = use cache
//
// Clients handle:
//   - HTTP requests with retry and rate limiting
//   - Response caching via [cache.Cache], with per-client prefix and TTL
//   - API-specific parsing and normalization
//
// # Shared Infrastructure
//
// The [Client] type provides the shared HTTP functionality: [Client.Cached]
// for cache-or-fetch of JSON values, [Client.Get] and [Client.GetText] for
// raw requests, retry classification of response codes, and observability
// hook emission.
//
// [jsdelivr]: github.com/tschf/mle-module-loader/pkg/integrations/jsdelivr
// [npm]: github.com/tschf/mle-module-loader/pkg/integrations/npm
package integrations
