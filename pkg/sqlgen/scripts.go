package sqlgen

import (
	"slices"
	"strings"
	"time"

	"github.com/tschf/mle-module-loader/pkg/loader"
)

// Scripts holds the three deployable script texts for one run.
type Scripts struct {
	Install string // SQLcl load instructions plus environment create
	Create  string // pure-SQL BFILE creates plus environment create
	Drop    string // rollback: environment drop, then module drops
}

// Meta is stamped into each script header so a deployed artifact can be
// traced back to the run that produced it.
type Meta struct {
	RunID       string
	Root        string // root package token, name@version
	ToolVersion string
	GeneratedAt time.Time // zero means now
}

// Assemble renders the accumulated artifacts into the three scripts.
//
// Install and Create list modules in finalize order, dependencies before
// dependents, and end with the environment create. Drop inverts the build:
// the environment goes first, then the modules in reverse order, so a
// partially applied rollback never leaves an environment importing a
// dropped module.
func Assemble(a *loader.BuildArtifacts, meta Meta) Scripts {
	header := scriptHeader(meta)

	drops := slices.Clone(a.DropStatements)
	slices.Reverse(drops)

	return Scripts{
		Install: script(header, a.LoadInstructions, a.EnvCreate),
		Create:  script(header, a.CreateStatements, a.EnvCreate),
		Drop:    script(header, append([]string{a.EnvDrop}, drops...), ""),
	}
}

func scriptHeader(meta Meta) string {
	at := meta.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}

	var b strings.Builder
	b.WriteString("-- Generated by mleloader " + meta.ToolVersion + "\n")
	b.WriteString("-- Run:  " + meta.RunID + "\n")
	b.WriteString("-- Root: " + meta.Root + "\n")
	b.WriteString("-- Date: " + at.UTC().Format(time.RFC3339) + "\n")
	return b.String()
}

func script(header string, statements []string, final string) string {
	var b strings.Builder
	b.WriteString(header)
	b.WriteString("\n")
	for _, s := range statements {
		b.WriteString(s)
		b.WriteString("\n")
	}
	if final != "" {
		b.WriteString("\n")
		b.WriteString(final)
		b.WriteString("\n")
	}
	return b.String()
}
