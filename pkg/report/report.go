// Package report captures the outcome of a loader run in a durable form
// and ships it to one or more sinks: a JSON file next to the generated
// scripts, or a MongoDB collection serving as deployment history.
package report

import (
	"context"
	"time"

	"github.com/tschf/mle-module-loader/pkg/loader"
)

// ModuleEntry describes one produced module.
type ModuleEntry struct {
	LogicalName string   `json:"logical_name" bson:"logical_name"`
	Package     string   `json:"package" bson:"package"`
	Version     string   `json:"version" bson:"version"`
	Path        string   `json:"path,omitempty" bson:"path,omitempty"`
	References  []string `json:"references,omitempty" bson:"references,omitempty"`
}

// Report is the persisted record of one run.
type Report struct {
	RunID       string        `json:"run_id" bson:"run_id"`
	Root        string        `json:"root" bson:"root"`
	EnvName     string        `json:"env_name" bson:"env_name"`
	ToolVersion string        `json:"tool_version,omitempty" bson:"tool_version,omitempty"`
	GeneratedAt time.Time     `json:"generated_at" bson:"generated_at"`
	DurationMS  int64         `json:"duration_ms" bson:"duration_ms"`
	Modules     []ModuleEntry `json:"modules" bson:"modules"`
	Unresolved  []string      `json:"unresolved,omitempty" bson:"unresolved,omitempty"`
	Builtins    []string      `json:"builtins,omitempty" bson:"builtins,omitempty"`
}

// Sink persists reports. Close releases any underlying connection; callers
// pass a context because some backends disconnect over the network.
type Sink interface {
	Write(ctx context.Context, r *Report) error
	Close(ctx context.Context) error
}

// FromResult flattens a run result into its report form.
func FromResult(res *loader.Result, toolVersion string) *Report {
	r := &Report{
		RunID:       res.RunID,
		Root:        res.Root,
		EnvName:     res.EnvName,
		ToolVersion: toolVersion,
		GeneratedAt: time.Now().UTC(),
		DurationMS:  res.Stats.Duration.Milliseconds(),
		Builtins:    res.Builtins,
	}
	for _, rec := range res.Artifacts.Modules {
		r.Modules = append(r.Modules, ModuleEntry{
			LogicalName: rec.LogicalName,
			Package:     rec.Module.Name,
			Version:     rec.Module.Version,
			Path:        rec.Module.RelativePath,
			References:  rec.References,
		})
	}
	for _, u := range res.Unresolved {
		r.Unresolved = append(r.Unresolved, u.String())
	}
	return r
}
