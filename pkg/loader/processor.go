package loader

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/ident"
	"github.com/tschf/mle-module-loader/pkg/observability"
	"github.com/tschf/mle-module-loader/pkg/rewrite"
)

// processor walks modules depth-first and accumulates run state. It is
// created once per Run and never shared between goroutines; only the
// prefetch warm-up fans out, and that touches nothing but the fetcher.
type processor struct {
	ctx     context.Context
	fetcher Fetcher
	render  StatementRenderer
	reg     entrypoint.Registry
	logger  *log.Logger
	refresh bool

	set         *ident.Set
	visited     map[rewrite.Module]bool
	owners      map[string]rewrite.Module
	artifacts   *BuildArtifacts
	unresolved  []UnresolvedRef
	builtins    []string
	builtinSeen map[string]bool
}

// frame is one entry of the explicit processing stack. A module's frame
// stays on the stack until every obligation it emitted has been processed,
// which is what guarantees children are finalized before their parent.
type frame struct {
	rec      *ModuleRecord
	children []rewrite.Obligation
	next     int
}

// process handles one module and, transitively, every secondary entry
// point reachable from it. Modules already claimed by an earlier call are
// skipped, so processing the same set in any order yields each module
// exactly once.
func (p *processor) process(m rewrite.Module, logicalName string) error {
	if p.visited[m] {
		return nil
	}
	p.visited[m] = true

	root, err := p.expand(m, logicalName)
	if err != nil {
		return err
	}
	stack := []*frame{root}

	for len(stack) > 0 {
		top := stack[len(stack)-1]
		if top.next < len(top.children) {
			ob := top.children[top.next]
			top.next++
			if p.visited[ob.Module] {
				continue
			}
			p.visited[ob.Module] = true
			child, err := p.expand(ob.Module, ob.LogicalName)
			if err != nil {
				return err
			}
			stack = append(stack, child)
			continue
		}
		if err := p.finalize(top.rec); err != nil {
			return err
		}
		stack = stack[:len(stack)-1]
	}
	return nil
}

// expand fetches and rewrites one module, folds its diagnostics into the
// run state, and returns its stack frame. The returned frame carries the
// module's obligations; the caller decides when to finalize.
func (p *processor) expand(m rewrite.Module, logicalName string) (*frame, error) {
	rec := &ModuleRecord{Module: m, LogicalName: logicalName, Status: StatusPending}

	rec.Status = StatusFetching
	p.logger.Debug("fetching module", "module", m.String())
	observability.Loader().OnModuleFetch(p.ctx, m.String())
	src, err := p.fetcher.FetchModule(p.ctx, m.Name, m.Version, m.RelativePath, p.refresh)
	if err != nil {
		return nil, &FetchError{Module: m, Err: err}
	}
	rec.Source = src

	rec.Status = StatusRewriting
	res := rewrite.Rewrite(src, m, p.set, p.reg)
	rec.Rewritten = res.Text
	rec.Unresolved = res.Unresolved
	rec.References = res.References
	rec.Builtins = res.Builtins

	for _, ref := range res.Unresolved {
		p.logger.Warn("unresolved reference", "module", m.String(), "ref", ref)
		p.unresolved = append(p.unresolved, UnresolvedRef{Module: m, Ref: ref})
	}
	for _, b := range res.Builtins {
		if !p.builtinSeen[b] {
			p.builtinSeen[b] = true
			p.builtins = append(p.builtins, b)
		}
	}

	return &frame{rec: rec, children: res.Obligations}, nil
}

// finalize claims the module's logical name and appends its artifacts.
// Logical names must be unique across the run: two modules mapping to the
// same name would shadow each other inside the environment.
func (p *processor) finalize(rec *ModuleRecord) error {
	if owner, ok := p.owners[rec.LogicalName]; ok {
		return &ident.NormalizationCollisionError{
			Normalized: rec.LogicalName,
			First:      owner.String(),
			Second:     rec.Module.String(),
		}
	}
	p.owners[rec.LogicalName] = rec.Module

	rec.Status = StatusWritten
	a := p.artifacts
	a.Modules = append(a.Modules, rec)
	a.LoadInstructions = append(a.LoadInstructions, p.render.LoadInstruction(rec.LogicalName, rec.Module.Version))
	a.CreateStatements = append(a.CreateStatements, p.render.CreateStatement(rec.LogicalName, rec.Module.Version))
	a.DropStatements = append(a.DropStatements, p.render.DropStatement(rec.LogicalName))
	a.EnvImports = append(a.EnvImports, p.render.EnvImport(rec.LogicalName))

	p.logger.Debug("module written", "module", rec.Module.String(), "as", rec.LogicalName)
	observability.Loader().OnModuleWritten(p.ctx, rec.LogicalName)
	return nil
}
