package server

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/enumerate"
	apperrors "github.com/tschf/mle-module-loader/pkg/errors"
	"github.com/tschf/mle-module-loader/pkg/loader"
	"github.com/tschf/mle-module-loader/pkg/report"
	"github.com/tschf/mle-module-loader/pkg/sqlgen"
)

// Handler builds the route tree. Split from [New] so tests can drive the
// API through httptest.
func Handler(opts Options) http.Handler {
	a := &api{opts: opts}
	if a.opts.Registry == nil {
		a.opts.Registry = entrypoint.Defaults()
	}
	if a.opts.Logger == nil {
		a.opts.Logger = log.Default()
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(requestLogger(a.opts.Logger))

	r.Get("/healthz", a.health)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/runs", a.createRun)
		r.Get("/entrypoints", a.listEntrypoints)
	})
	return r
}

type api struct {
	opts Options
}

type runRequest struct {
	Package   string `json:"package"`
	EnvName   string `json:"env_name"`
	DirObject string `json:"dir_object"`
	Refresh   bool   `json:"refresh"`
}

type scriptsBody struct {
	Install string `json:"install"`
	Create  string `json:"create"`
	Drop    string `json:"drop"`
}

type runResponse struct {
	report.Report
	Scripts scriptsBody `json:"scripts"`
}

func (a *api) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// createRun runs the whole pipeline for one package and returns the
// artifacts inline. Nothing is written on the server.
func (a *api) createRun(w http.ResponseWriter, r *http.Request) {
	var req runRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeInvalidInput, err, "invalid request body"))
		return
	}
	if req.Package == "" {
		writeError(w, apperrors.New(apperrors.ErrCodeInvalidInput, "package is required"))
		return
	}
	name, _ := enumerate.SplitSpec(req.Package)
	if err := apperrors.ValidateNpmPackageName(name); err != nil {
		writeError(w, err)
		return
	}
	if req.EnvName != "" {
		if err := apperrors.ValidateEnvName(req.EnvName); err != nil {
			writeError(w, err)
			return
		}
	}

	ctx := r.Context()
	tokens, err := a.opts.Lister.List(ctx, req.Package)
	if err != nil {
		writeError(w, apperrors.Wrap(apperrors.ErrCodeListerFailed, err, "list dependencies for %s: %v", req.Package, err))
		return
	}

	dirObject := req.DirObject
	if dirObject == "" {
		dirObject = a.opts.DirObject
	}

	res, err := loader.Run(ctx, a.opts.Fetcher, &sqlgen.Renderer{DirObject: dirObject}, tokens, loader.Options{
		EnvName:  req.EnvName,
		Refresh:  req.Refresh,
		Registry: a.opts.Registry,
		Logger:   a.opts.Logger,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	scripts := sqlgen.Assemble(res.Artifacts, sqlgen.Meta{
		RunID:       res.RunID,
		Root:        res.Root,
		ToolVersion: a.opts.ToolVersion,
	})

	writeJSON(w, http.StatusOK, runResponse{
		Report:  *report.FromResult(res, a.opts.ToolVersion),
		Scripts: scriptsBody{Install: scripts.Install, Create: scripts.Create, Drop: scripts.Drop},
	})
}

type entrypointBody struct {
	Package string `json:"package"`
	Path    string `json:"path"`
	Name    string `json:"name"`
}

func (a *api) listEntrypoints(w http.ResponseWriter, _ *http.Request) {
	out := []entrypointBody{}
	for _, pkg := range slices.Sorted(maps.Keys(a.opts.Registry)) {
		for _, ov := range a.opts.Registry[pkg] {
			out = append(out, entrypointBody{Package: pkg, Path: ov.RelativePath, Name: ov.LogicalName})
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entrypoints": out})
}
