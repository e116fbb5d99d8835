package enumerate

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/tschf/mle-module-loader/pkg/ident"
)

// DefaultArgv is the subprocess [ExecLister] runs when none is configured.
// npm-remote-ls walks the registry without a local install; the root package
// token is appended as the final argument.
var DefaultArgv = []string{"npm-remote-ls", "--flatten", "--development", "false", "--optional", "false"}

// ExecLister expands dependencies by running an external lister subprocess
// and parsing its stdout.
type ExecLister struct {
	Argv []string // command and flags, package token appended (default: DefaultArgv)
	Dir  string   // working directory (default: inherited)
}

var _ Lister = (*ExecLister)(nil)

// List runs the configured subprocess for pkg and parses its stdout.
//
// A non-zero exit returns an error carrying the subprocess stderr. Output
// that yields no tokens at all is also an error; a lister that found the
// package always reports at least the package itself.
func (l *ExecLister) List(ctx context.Context, pkg string) ([]string, error) {
	argv := l.Argv
	if len(argv) == 0 {
		argv = DefaultArgv
	}

	if _, err := exec.LookPath(argv[0]); err != nil {
		return nil, fmt.Errorf("lister %q not found. Install the default with:\n  npm install -g npm-remote-ls", argv[0])
	}

	args := append(append([]string(nil), argv[1:]...), pkg)
	cmd := exec.CommandContext(ctx, argv[0], args...)
	cmd.Dir = l.Dir

	var out, errBuf bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &errBuf

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %v: %s", argv[0], err, strings.TrimSpace(errBuf.String()))
	}

	tokens := ParseListOutput(out.String())
	if len(tokens) == 0 {
		return nil, fmt.Errorf("%s: no package tokens in output", argv[0])
	}
	return tokens, nil
}

// ParseListOutput extracts name@version tokens from lister output.
//
// It accepts the formats the common listers produce:
//
//	npm-remote-ls --flatten    [ 'a@1.0.0',
//	                             'b@2.0.0' ]
//	npm ls --parseable --long  /path/node_modules/a:a@1.0.0
//	tree or bulleted listings  +-- a@1.0.0, - a@1.0.0
//	plain tokens               a@1.0.0
//
// Anything that does not reduce to a parsable token is skipped, so warning
// and progress lines interleaved with real output are harmless. Order and
// duplicates are preserved.
func ParseListOutput(output string) []string {
	var tokens []string
	for _, line := range strings.Split(output, "\n") {
		for _, piece := range strings.Split(line, ",") {
			if token, ok := parsePiece(piece); ok {
				tokens = append(tokens, token)
			}
		}
	}
	return tokens
}

func parsePiece(piece string) (string, bool) {
	s := strings.TrimSpace(piece)
	s = strings.Trim(s, "[]")
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `'"`)
	if i := strings.LastIndex(s, ":"); i >= 0 {
		s = s[i+1:]
	}
	s = strings.TrimLeft(s, "│├└┬─\\+-*` ")
	s = strings.TrimSpace(s)
	if fields := strings.Fields(s); len(fields) > 0 {
		s = fields[0]
	} else {
		return "", false
	}

	if _, err := ident.Parse(s); err != nil {
		return "", false
	}
	return s, true
}
