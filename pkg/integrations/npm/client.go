package npm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/tschf/mle-module-loader/pkg/cache"
	"github.com/tschf/mle-module-loader/pkg/integrations"
)

// DefaultBaseURL is the public npm registry endpoint.
const DefaultBaseURL = "https://registry.npmjs.org"

// Manifest holds metadata for one published version of an npm package.
//
// Dependencies maps runtime dependency names to their semver range specifiers
// exactly as declared in the package's dependencies field; devDependencies,
// peerDependencies, and optionalDependencies are not included.
//
// Zero values: all string fields are empty, Dependencies is nil.
// This struct is safe for concurrent reads after construction.
type Manifest struct {
	Name         string            // Package name (e.g., "linkedom", never empty in valid manifest)
	Version      string            // Exact version (e.g., "0.16.11", never empty in valid manifest)
	Description  string            // Package description (may be empty)
	License      string            // License identifier (may be empty)
	HomePage     string            // Homepage URL (may be empty)
	Dependencies map[string]string // Runtime deps, name -> range specifier (nil if none)
}

// Client provides access to the npm registry API.
// It handles HTTP requests with caching and automatic retries.
//
// All methods are safe for concurrent use by multiple goroutines.
type Client struct {
	*integrations.Client
	baseURL string
}

// NewClient creates an npm registry client with the given cache backend.
// Registry metadata moves with every publish, so responses are cached for
// [cache.TTLMetadata].
func NewClient(backend cache.Cache) *Client {
	return NewClientAt(backend, DefaultBaseURL)
}

// NewClientAt creates a client against a specific registry endpoint, for
// setups that proxy npmjs.org through a private registry. An empty baseURL
// falls back to the default.
func NewClientAt(backend cache.Cache, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		Client:  integrations.NewClient(backend, "npm:", cache.TTLMetadata, nil),
		baseURL: baseURL,
	}
}

// Latest returns the version the registry currently tags as "latest".
//
// The lookup requests the abbreviated packument (install metadata only),
// which is a fraction of the size of the full document for packages with a
// long publish history.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns [integrations.ErrNotFound] if the package does not exist or
// carries no latest tag, [integrations.ErrNetwork] for HTTP failures.
func (c *Client) Latest(ctx context.Context, pkg string, refresh bool) (string, error) {
	pkg = strings.TrimSpace(pkg)

	var tags distTags
	err := c.Cached(ctx, "latest:"+pkg, refresh, &tags, func() error {
		return c.fetchDistTags(ctx, pkg, &tags)
	})
	if err != nil {
		return "", err
	}
	return tags.Latest, nil
}

func (c *Client) fetchDistTags(ctx context.Context, pkg string, tags *distTags) error {
	url := c.baseURL + "/" + integrations.URLEncode(pkg)
	headers := map[string]string{
		// Abbreviated packument; the full one repeats every version's manifest.
		"Accept": "application/vnd.npm.install-v1+json",
	}

	var data packument
	if err := c.GetWithHeaders(ctx, url, headers, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: npm package %s", err, pkg)
		}
		return err
	}
	if data.DistTags.Latest == "" {
		return fmt.Errorf("%w: npm package %s has no latest tag", integrations.ErrNotFound, pkg)
	}

	*tags = data.DistTags
	return nil
}

// FetchManifest retrieves the manifest for one exact version of a package.
//
// The version must be a concrete version string, not a range; the registry's
// per-version endpoint does not resolve specifiers.
//
// If refresh is true, the cache is bypassed and a fresh API call is made.
//
// Returns:
//   - Manifest populated with metadata on success
//   - [integrations.ErrNotFound] if the package or version doesn't exist
//   - [integrations.ErrNetwork] for HTTP failures (timeout, 5xx, etc.)
//
// The returned Manifest pointer is never nil if err is nil.
// This method is safe for concurrent use.
func (c *Client) FetchManifest(ctx context.Context, pkg, version string, refresh bool) (*Manifest, error) {
	pkg = strings.TrimSpace(pkg)

	var m Manifest
	err := c.Cached(ctx, "manifest:"+pkg+"@"+version, refresh, &m, func() error {
		return c.fetchManifest(ctx, pkg, version, &m)
	})
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) fetchManifest(ctx context.Context, pkg, version string, m *Manifest) error {
	url := c.baseURL + "/" + integrations.URLEncode(pkg) + "/" + version

	var data manifestResponse
	if err := c.Get(ctx, url, &data); err != nil {
		if errors.Is(err, integrations.ErrNotFound) {
			return fmt.Errorf("%w: %s@%s", err, pkg, version)
		}
		return err
	}

	*m = Manifest{
		Name:         data.Name,
		Version:      data.Version,
		Description:  data.Description,
		License:      extractField(data.License, "type"),
		HomePage:     data.HomePage,
		Dependencies: data.Dependencies,
	}
	return nil
}

// extractField pulls a string out of a field the registry serves either as a
// bare string or as an object, e.g. license: "MIT" vs {"type": "MIT"}.
func extractField(v any, field string) string {
	switch val := v.(type) {
	case string:
		return val
	case map[string]any:
		if s, ok := val[field].(string); ok {
			return s
		}
	}
	return ""
}

type packument struct {
	DistTags distTags `json:"dist-tags"`
}

type distTags struct {
	Latest string `json:"latest"`
}

type manifestResponse struct {
	Name         string            `json:"name"`
	Version      string            `json:"version"`
	Description  string            `json:"description"`
	License      any               `json:"license"`
	HomePage     string            `json:"homepage"`
	Dependencies map[string]string `json:"dependencies"`
}
