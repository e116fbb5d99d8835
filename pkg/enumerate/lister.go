// Package enumerate expands a root package into the ordered name@version
// tokens of its transitive runtime dependency closure.
//
// Two strategies are provided: [ExecLister] shells out to an external lister
// such as npm-remote-ls, [RegistryLister] walks registry metadata over HTTP
// and needs no npm tooling installed. Both return the root first and keep a
// stable discovery order. Tokens may repeat; identity handling downstream
// de-duplicates.
package enumerate

import (
	"context"
	"strings"
)

// Lister expands a root package into its transitive dependency tokens.
//
// The pkg argument is a bare name ("linkedom"), a pinned token
// ("linkedom@0.16.11"), or a name with a semver range ("linkedom@^0.16.0"),
// scoped names included. Implementations return name@version tokens with
// exact versions, root first. Duplicates are allowed.
type Lister interface {
	List(ctx context.Context, pkg string) ([]string, error)
}

// SplitSpec separates a package token into name and version specifier.
// A missing specifier yields an empty spec; the leading @ of a scoped name
// is never treated as a separator.
func SplitSpec(token string) (name, spec string) {
	token = strings.TrimSpace(token)
	at := strings.LastIndex(token, "@")
	if at <= 0 {
		return token, ""
	}
	return token[:at], token[at+1:]
}
