// Package ident parses npm package identifiers and normalizes them into
// database-safe logical names.
//
// A token has the form "name@version". The name may itself contain an "@"
// (scoped packages like "@fortawesome/fontawesome-free"), so the split
// happens at the last "@". Normalization maps every character outside
// [A-Za-z0-9] to an underscore, producing a name that is valid as an
// unquoted database identifier.
//
// Because normalization is lossy, two distinct packages can map to the same
// logical name ("foo-bar" and "foo_bar" both become "foo_bar"). [NewSet]
// detects this and returns a [NormalizationCollisionError] rather than
// silently merging two different modules.
package ident

import (
	"fmt"
	"strings"
)

// Identifier is a parsed name@version token.
type Identifier struct {
	Original   string // package name as published (e.g. "@fortawesome/fontawesome-free")
	Version    string // version as listed (e.g. "6.5.1")
	Normalized string // database-safe logical name (e.g. "_fortawesome_fontawesome_free")
}

// String returns the token form "name@version".
func (id Identifier) String() string { return id.Original + "@" + id.Version }

// MalformedIdentifierError reports a token that cannot be split into a
// package name and a version.
type MalformedIdentifierError struct {
	Token  string
	Reason string
}

func (e *MalformedIdentifierError) Error() string {
	return fmt.Sprintf("malformed identifier %q: %s", e.Token, e.Reason)
}

// NormalizationCollisionError reports two distinct modules that map to the
// same normalized logical name.
type NormalizationCollisionError struct {
	Normalized string
	First      string // module that claimed the name first, in name@version form
	Second     string // module that collided with it
}

func (e *NormalizationCollisionError) Error() string {
	return fmt.Sprintf("logical name %q is claimed by both %s and %s", e.Normalized, e.First, e.Second)
}

// Parse splits a token at the last "@" and normalizes the name part.
// Scoped packages keep their scope as part of the name: "@scope/pkg@1.0.0"
// splits into name "@scope/pkg" and version "1.0.0".
func Parse(token string) (Identifier, error) {
	trimmed := strings.TrimSpace(token)
	at := strings.LastIndex(trimmed, "@")
	switch {
	case at < 0:
		return Identifier{}, &MalformedIdentifierError{Token: token, Reason: "missing version separator"}
	case at == 0:
		return Identifier{}, &MalformedIdentifierError{Token: token, Reason: "empty package name"}
	case at == len(trimmed)-1:
		return Identifier{}, &MalformedIdentifierError{Token: token, Reason: "empty version"}
	}
	name := trimmed[:at]
	return Identifier{
		Original:   name,
		Version:    trimmed[at+1:],
		Normalized: Normalize(name),
	}, nil
}

// Normalize maps every character outside [A-Za-z0-9] to an underscore.
// It is idempotent: Normalize(Normalize(s)) == Normalize(s).
func Normalize(name string) string {
	var b strings.Builder
	b.Grow(len(name))
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Set is an ordered, de-duplicated collection of identifiers.
// Order follows first appearance in the input tokens.
type Set struct {
	items  []Identifier
	index  map[string]int        // name@version -> position in items
	byNorm map[string]Identifier // normalized name -> owning identifier
}

// NewSet parses raw tokens into a Set. Tokens repeating an already-seen
// name/version pair collapse into the first occurrence. Two entries that
// normalize to the same logical name (distinct packages, or one package
// listed at two versions) return a NormalizationCollisionError.
func NewSet(tokens []string) (*Set, error) {
	s := &Set{
		index:  make(map[string]int),
		byNorm: make(map[string]Identifier),
	}
	for _, tok := range tokens {
		id, err := Parse(tok)
		if err != nil {
			return nil, err
		}
		key := id.String()
		if _, ok := s.index[key]; ok {
			continue
		}
		if prev, ok := s.byNorm[id.Normalized]; ok {
			return nil, &NormalizationCollisionError{
				Normalized: id.Normalized,
				First:      prev.String(),
				Second:     id.String(),
			}
		}
		s.byNorm[id.Normalized] = id
		s.index[key] = len(s.items)
		s.items = append(s.items, id)
	}
	return s, nil
}

// Items returns the identifiers in input order.
// The returned slice is shared; callers must not modify it.
func (s *Set) Items() []Identifier { return s.items }

// Len returns the number of distinct identifiers.
func (s *Set) Len() int { return len(s.items) }

// Contains reports whether the set holds name at version.
func (s *Set) Contains(name, version string) bool {
	_, ok := s.index[name+"@"+version]
	return ok
}

// ByNormalized returns the identifier that owns the given logical name.
func (s *Set) ByNormalized(logical string) (Identifier, bool) {
	id, ok := s.byNorm[logical]
	return id, ok
}
