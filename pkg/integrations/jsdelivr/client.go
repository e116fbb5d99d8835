package jsdelivr

import (
	"context"
	"errors"
	"fmt"

	"github.com/tschf/mle-module-loader/pkg/cache"
	"github.com/tschf/mle-module-loader/pkg/integrations"
	"github.com/tschf/mle-module-loader/pkg/loader"
)

// Default endpoints for the jsDelivr CDN and its companion data API.
const (
	DefaultCDNBase  = "https://cdn.jsdelivr.net/npm"
	DefaultDataBase = "https://data.jsdelivr.com/v1"
)

// Client fetches pre-bundled ES modules from the jsDelivr CDN and resolves
// version ranges through the jsDelivr data API.
//
// Bundles and version lookups are cached under separate namespaces with
// different lifetimes: a bundle for a pinned version is immutable and cached
// for [cache.TTLBundle], while range resolution moves as new versions publish
// and is cached for [cache.TTLMetadata].
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	data     *integrations.Client
	cdnBase  string
	dataBase string
}

var _ loader.Fetcher = (*Client)(nil)

// NewClient creates a jsDelivr client with the given cache backend.
// The same backend serves both the bundle and data-API namespaces.
func NewClient(backend cache.Cache) *Client {
	return NewClientAt(backend, DefaultCDNBase, DefaultDataBase)
}

// NewClientAt creates a client against specific endpoints, for setups where
// a private mirror stands in for the public CDN. Empty bases fall back to
// the defaults.
func NewClientAt(backend cache.Cache, cdnBase, dataBase string) *Client {
	if cdnBase == "" {
		cdnBase = DefaultCDNBase
	}
	if dataBase == "" {
		dataBase = DefaultDataBase
	}
	return &Client{
		Client:   integrations.NewClient(backend, "jsdelivr:", cache.TTLBundle, nil),
		data:     integrations.NewClient(backend, "jsdelivr-data:", cache.TTLMetadata, nil),
		cdnBase:  cdnBase,
		dataBase: dataBase,
	}
}

// FetchModule downloads the bundled ES module source for a package version.
//
// The bundle URL is <cdnBase>/<name>@<version>/+esm; when relPath is
// non-empty it addresses a file inside the package instead,
// <cdnBase>/<name>@<version>/<relPath>/+esm. Scoped names keep their @ and /
// verbatim, the CDN resolves them as-is.
//
// If refresh is true the cache is bypassed and a fresh download is made.
//
// Returns the bundle source on success, [integrations.ErrNotFound] if the
// package, version, or path does not exist, and [integrations.ErrNetwork]
// for transport failures.
func (c *Client) FetchModule(ctx context.Context, name, version, relPath string, refresh bool) (string, error) {
	target := name + "@" + version
	if relPath != "" {
		target += "/" + relPath
	}

	var source string
	err := c.Cached(ctx, "bundle:"+target, refresh, &source, func() error {
		text, err := c.GetText(ctx, c.cdnBase+"/"+target+"/+esm")
		if err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return fmt.Errorf("%w: module %s", err, target)
			}
			return err
		}
		source = text
		return nil
	})
	if err != nil {
		return "", err
	}
	return source, nil
}

// ResolveVersion asks the jsDelivr data API which concrete version satisfies
// a semver specifier such as "^0.16.0", "latest", or "1.x".
//
// If refresh is true the cache is bypassed and a fresh lookup is made.
//
// Returns [integrations.ErrNotFound] both when the package does not exist and
// when no published version satisfies the specifier (the API reports the
// latter as a 200 with a null version).
func (c *Client) ResolveVersion(ctx context.Context, name, specifier string, refresh bool) (string, error) {
	url := fmt.Sprintf("%s/packages/npm/%s/resolved?specifier=%s", c.dataBase, name, integrations.URLEncode(specifier))

	var resolved resolvedResponse
	err := c.data.Cached(ctx, "resolve:"+name+"@"+specifier, refresh, &resolved, func() error {
		if err := c.data.Get(ctx, url, &resolved); err != nil {
			if errors.Is(err, integrations.ErrNotFound) {
				return fmt.Errorf("%w: package %s", err, name)
			}
			return err
		}
		if resolved.Version == "" {
			return fmt.Errorf("%w: no version of %s satisfies %q", integrations.ErrNotFound, name, specifier)
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return resolved.Version, nil
}

type resolvedResponse struct {
	Version string `json:"version"`
}
