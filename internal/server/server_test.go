package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	"github.com/tschf/mle-module-loader/pkg/integrations"
)

type stubFetcher struct {
	sources map[string]string
}

func (f *stubFetcher) FetchModule(_ context.Context, name, version, relPath string, _ bool) (string, error) {
	key := name + "@" + version
	if relPath != "" {
		key += "/" + relPath
	}
	src, ok := f.sources[key]
	if !ok {
		return "", fmt.Errorf("%w: module %s", integrations.ErrNotFound, key)
	}
	return src, nil
}

type stubLister struct {
	tokens []string
	err    error
}

func (l *stubLister) List(context.Context, string) ([]string, error) {
	return l.tokens, l.err
}

func testOptions() Options {
	return Options{
		Fetcher: &stubFetcher{sources: map[string]string{
			"app@1.0.0":        `import{compile}from"/npm/css-select@5.1.0/+esm";export default compile;`,
			"css-select@5.1.0": `export function compile(){}`,
		}},
		Lister:      &stubLister{tokens: []string{"app@1.0.0", "css-select@5.1.0"}},
		Registry:    entrypoint.Static{},
		ToolVersion: "test",
		Logger:      log.New(io.Discard),
	}
}

func doRequest(t *testing.T, h http.Handler, method, path string, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = bytes.NewReader([]byte(body))
	}
	req := httptest.NewRequest(method, path, rd)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

type runBody struct {
	RunID   string `json:"run_id"`
	Root    string `json:"root"`
	EnvName string `json:"env_name"`
	Modules []struct {
		LogicalName string `json:"logical_name"`
		Package     string `json:"package"`
		Version     string `json:"version"`
		Path        string `json:"path"`
	} `json:"modules"`
	Scripts struct {
		Install string `json:"install"`
		Create  string `json:"create"`
		Drop    string `json:"drop"`
	} `json:"scripts"`
	Unresolved []string `json:"unresolved"`
}

func decodeRun(t *testing.T, w *httptest.ResponseRecorder) runBody {
	t.Helper()
	var got runBody
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("response is not valid JSON: %v\n%s", err, w.Body.String())
	}
	return got
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var got errorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("error response is not valid JSON: %v\n%s", err, w.Body.String())
	}
	return got.Error
}

func TestHealthz(t *testing.T) {
	w := doRequest(t, Handler(testOptions()), http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("unexpected body: %s", w.Body.String())
	}
}

func TestCreateRun(t *testing.T) {
	w := doRequest(t, Handler(testOptions()), http.MethodPost, "/api/v1/runs", `{"package":"app"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}

	got := decodeRun(t, w)
	if got.RunID == "" {
		t.Error("run_id should be set")
	}
	if got.Root != "app@1.0.0" {
		t.Errorf("root = %q, want app@1.0.0", got.Root)
	}
	if got.EnvName != "app_env" {
		t.Errorf("env_name = %q, want app_env", got.EnvName)
	}
	if len(got.Modules) != 2 {
		t.Fatalf("got %d modules, want 2: %+v", len(got.Modules), got.Modules)
	}
	if got.Modules[0].LogicalName != "app" || got.Modules[1].LogicalName != "css_select" {
		t.Errorf("module order = %+v", got.Modules)
	}
	if !strings.Contains(got.Scripts.Install, "mle create-module -filename modules/css_select.js") {
		t.Errorf("install script incomplete:\n%s", got.Scripts.Install)
	}
	if !strings.Contains(got.Scripts.Create, "create or replace mle module css_select") {
		t.Errorf("create script incomplete:\n%s", got.Scripts.Create)
	}
	if !strings.Contains(got.Scripts.Drop, "drop mle env if exists app_env;") {
		t.Errorf("drop script incomplete:\n%s", got.Scripts.Drop)
	}
	if len(got.Unresolved) != 0 {
		t.Errorf("unresolved = %v", got.Unresolved)
	}
}

func TestCreateRunEnvNameOverride(t *testing.T) {
	w := doRequest(t, Handler(testOptions()), http.MethodPost, "/api/v1/runs",
		`{"package":"app@1.0.0","env_name":"release_env"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	got := decodeRun(t, w)
	if got.EnvName != "release_env" {
		t.Errorf("env_name = %q, want release_env", got.EnvName)
	}
	if !strings.Contains(got.Scripts.Install, "create or replace mle env release_env") {
		t.Errorf("install script should use the override:\n%s", got.Scripts.Install)
	}
}

func TestCreateRunDirObjectOverride(t *testing.T) {
	w := doRequest(t, Handler(testOptions()), http.MethodPost, "/api/v1/runs",
		`{"package":"app","dir_object":"JS_DIR"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	got := decodeRun(t, w)
	if !strings.Contains(got.Scripts.Create, "bfile(JS_DIR,") {
		t.Errorf("create script should use the directory object override:\n%s", got.Scripts.Create)
	}
}

func TestCreateRunValidation(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantCode string
	}{
		{"missing package", `{}`, "INVALID_INPUT"},
		{"malformed body", `{`, "INVALID_INPUT"},
		{"uppercase package", `{"package":"MyApp"}`, "INVALID_PACKAGE"},
		{"path traversal", `{"package":"../../../etc"}`, "INVALID_PACKAGE"},
		{"bad env name", `{"package":"app","env_name":"1bad"}`, "INVALID_ENV_NAME"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(t, Handler(testOptions()), http.MethodPost, "/api/v1/runs", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
			}
			if got := decodeError(t, w); got.Code != tt.wantCode {
				t.Errorf("code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestCreateRunListerFailure(t *testing.T) {
	opts := testOptions()
	opts.Lister = &stubLister{err: fmt.Errorf("npm-remote-ls: exit status 1")}

	w := doRequest(t, Handler(opts), http.MethodPost, "/api/v1/runs", `{"package":"app"}`)
	if w.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502: %s", w.Code, w.Body.String())
	}
	if got := decodeError(t, w); got.Code != "LISTER_FAILED" {
		t.Errorf("code = %q, want LISTER_FAILED", got.Code)
	}
}

func TestCreateRunMissingModule(t *testing.T) {
	opts := testOptions()
	opts.Lister = &stubLister{tokens: []string{"gone@1.0.0"}}

	w := doRequest(t, Handler(opts), http.MethodPost, "/api/v1/runs", `{"package":"gone"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404: %s", w.Code, w.Body.String())
	}
	if got := decodeError(t, w); got.Code != "PACKAGE_NOT_FOUND" {
		t.Errorf("code = %q, want PACKAGE_NOT_FOUND", got.Code)
	}
}

func TestCreateRunWithEntryPoint(t *testing.T) {
	opts := testOptions()
	opts.Registry = nil // fall back to the built-in override table
	opts.Fetcher = &stubFetcher{sources: map[string]string{
		"myapp@1.0.0":             `import{parseHTML}from"/npm/linkedom@0.16.11/+esm";`,
		"linkedom@0.16.11":        `export function parseHTML(){}`,
		"linkedom@0.16.11/worker": `onmessage=()=>{};`,
	}}
	opts.Lister = &stubLister{tokens: []string{"myapp@1.0.0", "linkedom@0.16.11"}}

	w := doRequest(t, Handler(opts), http.MethodPost, "/api/v1/runs", `{"package":"myapp"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	got := decodeRun(t, w)
	if len(got.Modules) != 3 {
		t.Fatalf("got %d modules, want 3: %+v", len(got.Modules), got.Modules)
	}
	names := map[string]bool{}
	for _, m := range got.Modules {
		names[m.LogicalName] = true
	}
	if !names["linkedom_worker"] {
		t.Errorf("worker entry point missing: %+v", got.Modules)
	}
	if !strings.Contains(got.Scripts.Create, "create or replace mle module linkedom_worker") {
		t.Errorf("create script missing worker module:\n%s", got.Scripts.Create)
	}
}

func TestListEntrypoints(t *testing.T) {
	opts := testOptions()
	opts.Registry = entrypoint.Static{
		"linkedom": {{RelativePath: "worker", LogicalName: "linkedom_worker"}},
	}

	w := doRequest(t, Handler(opts), http.MethodGet, "/api/v1/entrypoints", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var got struct {
		Entrypoints []entrypointBody `json:"entrypoints"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(got.Entrypoints) != 1 {
		t.Fatalf("got %d entrypoints, want 1", len(got.Entrypoints))
	}
	e := got.Entrypoints[0]
	if e.Package != "linkedom" || e.Path != "worker" || e.Name != "linkedom_worker" {
		t.Errorf("entry = %+v", e)
	}
}

func TestNewValidatesOptions(t *testing.T) {
	if _, err := New(Options{Lister: &stubLister{}}); err == nil {
		t.Error("expected error without fetcher")
	}
	if _, err := New(Options{Fetcher: &stubFetcher{}}); err == nil {
		t.Error("expected error without lister")
	}
	if s, err := New(testOptions()); err != nil || s == nil {
		t.Errorf("New failed: %v", err)
	}
}
