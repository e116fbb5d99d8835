// Package jsdelivr provides an HTTP client for the jsDelivr CDN and data API.
//
// # Overview
//
// jsDelivr (https://www.jsdelivr.com) mirrors the npm registry and serves
// every package file through its CDN. The /+esm endpoint additionally
// transpiles a file into a single self-contained ES module whose only
// imports are other jsDelivr /+esm URLs, which is what makes npm packages
// loadable inside Oracle MLE without a bundler step.
//
// # Usage
//
//	client := jsdelivr.NewClient(backend)
//
//	version, err := client.ResolveVersion(ctx, "linkedom", "^0.16.0", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	source, err := client.FetchModule(ctx, "linkedom", version, "", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Endpoints
//
// Two hosts are involved:
//
//   - cdn.jsdelivr.net/npm serves bundle content: /<name>@<version>/+esm
//     for a package main entry, /<name>@<version>/<path>/+esm for a file
//     inside the package.
//   - data.jsdelivr.com/v1 answers metadata queries; [Client.ResolveVersion]
//     uses /packages/npm/<name>/resolved to turn a semver range into the
//     concrete version the CDN would serve for it.
//
// # Caching
//
// Bundle content for a pinned version never changes upstream, so it is
// cached for [cache.TTLBundle]. Version resolution follows new releases and
// uses the shorter [cache.TTLMetadata]. Pass refresh=true to bypass the
// cache for either call.
package jsdelivr
