// Package npm provides an HTTP client for the npm registry API.
//
// # Overview
//
// This package fetches package metadata from the npm registry
// (https://registry.npmjs.org). It answers two questions the registry is
// authoritative for: what "latest" currently points at, and what an exact
// published version declares as its runtime dependencies.
//
// # Usage
//
//	client := npm.NewClient(backend)
//
//	version, err := client.Latest(ctx, "linkedom", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	m, err := client.FetchManifest(ctx, "linkedom", version, false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	fmt.Println(m.Name, m.Version)
//	fmt.Println("Dependencies:", m.Dependencies)
//
// # Manifest
//
// [Client.FetchManifest] returns a [Manifest] containing:
//
//   - Name, Version: Package identity for the requested version
//   - Dependencies: Runtime dependencies with their declared range specifiers
//   - Description, License, HomePage: Package metadata
//
// devDependencies, peerDependencies, and optionalDependencies are not
// included; they play no part in what a database environment has to load.
//
// # Scoped Packages
//
// Scoped names such as @oracle/sdl contain a slash the registry's URL layout
// requires percent-encoded. Both lookups encode the package name, callers
// pass it verbatim.
//
// # Caching
//
// Responses are cached under the npm: namespace for [cache.TTLMetadata].
// Pass refresh=true to bypass the cache.
package npm
