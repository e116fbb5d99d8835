package enumerate

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/tschf/mle-module-loader/pkg/integrations/npm"
)

// fakeRegistry serves canned manifests keyed by name@version. Lookups are
// counted, methods are called from worker goroutines.
type fakeRegistry struct {
	mu        sync.Mutex
	latest    map[string]string
	manifests map[string]*npm.Manifest
	calls     map[string]int
}

func (f *fakeRegistry) Latest(_ context.Context, pkg string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("latest:" + pkg)
	v, ok := f.latest[pkg]
	if !ok {
		return "", errors.New("package not found")
	}
	return v, nil
}

func (f *fakeRegistry) FetchManifest(_ context.Context, pkg, version string, _ bool) (*npm.Manifest, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := pkg + "@" + version
	f.count("manifest:" + token)
	m, ok := f.manifests[token]
	if !ok {
		return nil, errors.New("manifest not found")
	}
	return m, nil
}

func (f *fakeRegistry) count(key string) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[key]++
}

// fakeResolver pins ranges from a canned name@spec table.
type fakeResolver struct {
	mu       sync.Mutex
	versions map[string]string
	calls    int
}

func (f *fakeResolver) ResolveVersion(_ context.Context, name, specifier string, _ bool) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	v, ok := f.versions[name+"@"+specifier]
	if !ok {
		return "", errors.New("no matching version")
	}
	return v, nil
}

func manifest(name, version string, deps map[string]string) *npm.Manifest {
	return &npm.Manifest{Name: name, Version: version, Dependencies: deps}
}

// testGraph is a small closure with a shared dependency:
//
//	app -> css-select, linkedom
//	linkedom -> css-select, uhyphen
func testGraph() (*fakeRegistry, *fakeResolver) {
	reg := &fakeRegistry{
		latest: map[string]string{"app": "1.0.0"},
		manifests: map[string]*npm.Manifest{
			"app@1.0.0": manifest("app", "1.0.0", map[string]string{
				"linkedom":   "^0.16.0",
				"css-select": "^5.1.0",
			}),
			"linkedom@0.16.11": manifest("linkedom", "0.16.11", map[string]string{
				"css-select": "^5.1.0",
				"uhyphen":    "^0.2.0",
			}),
			"css-select@5.1.0": manifest("css-select", "5.1.0", nil),
			"uhyphen@0.2.1":    manifest("uhyphen", "0.2.1", nil),
		},
	}
	res := &fakeResolver{
		versions: map[string]string{
			"linkedom@^0.16.0":  "0.16.11",
			"css-select@^5.1.0": "5.1.0",
			"uhyphen@^0.2.0":    "0.2.1",
		},
	}
	return reg, res
}

func quietLister(reg ManifestSource, res VersionResolver) *RegistryLister {
	return &RegistryLister{
		Registry: reg,
		Resolver: res,
		Logger:   log.New(io.Discard),
	}
}

func TestRegistryListerOrder(t *testing.T) {
	reg, res := testGraph()
	l := quietLister(reg, res)

	tokens, err := l.List(context.Background(), "app")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	// Root first, then breadth-first with dependency names sorted per level.
	want := []string{"app@1.0.0", "css-select@5.1.0", "linkedom@0.16.11", "uhyphen@0.2.1"}
	if len(tokens) != len(want) {
		t.Fatalf("got tokens %v, want %v", tokens, want)
	}
	for i := range tokens {
		if tokens[i] != want[i] {
			t.Errorf("token[%d] = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestRegistryListerBareNameUsesLatest(t *testing.T) {
	reg, res := testGraph()
	l := quietLister(reg, res)

	if _, err := l.List(context.Background(), "app"); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if reg.calls["latest:app"] != 1 {
		t.Errorf("expected one latest lookup for app, got %d", reg.calls["latest:app"])
	}
}

func TestRegistryListerPinnedRootUsesResolver(t *testing.T) {
	reg, res := testGraph()
	res.versions["app@1.0.0"] = "1.0.0"
	l := quietLister(reg, res)

	tokens, err := l.List(context.Background(), "app@1.0.0")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if tokens[0] != "app@1.0.0" {
		t.Errorf("expected root app@1.0.0, got %s", tokens[0])
	}
	if reg.calls["latest:app"] != 0 {
		t.Error("pinned root should not consult dist-tags")
	}
}

func TestRegistryListerSharedDepResolvedOnce(t *testing.T) {
	reg, res := testGraph()
	l := quietLister(reg, res)

	if _, err := l.List(context.Background(), "app"); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	// css-select@^5.1.0 is referenced by both app and linkedom.
	if res.calls != 3 {
		t.Errorf("expected 3 range resolutions, got %d", res.calls)
	}
	if reg.calls["manifest:css-select@5.1.0"] != 1 {
		t.Errorf("expected one manifest fetch for css-select, got %d", reg.calls["manifest:css-select@5.1.0"])
	}
}

func TestRegistryListerMaxDepth(t *testing.T) {
	reg, res := testGraph()
	l := quietLister(reg, res)
	l.MaxDepth = 1

	tokens, err := l.List(context.Background(), "app")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	// Depth 1 stops after the root's direct dependencies, uhyphen is two
	// levels down and must not appear.
	want := []string{"app@1.0.0", "css-select@5.1.0", "linkedom@0.16.11"}
	if len(tokens) != len(want) {
		t.Fatalf("got tokens %v, want %v", tokens, want)
	}
}

func TestRegistryListerMaxNodes(t *testing.T) {
	reg, res := testGraph()
	l := quietLister(reg, res)
	l.MaxNodes = 2

	tokens, err := l.List(context.Background(), "app")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tokens) != 2 {
		t.Errorf("expected closure truncated to 2 tokens, got %v", tokens)
	}
}

func TestRegistryListerRootErrorsAreFatal(t *testing.T) {
	reg, res := testGraph()
	l := quietLister(reg, res)

	if _, err := l.List(context.Background(), "no-such-package"); err == nil {
		t.Error("expected error for unknown root")
	}

	delete(reg.manifests, "app@1.0.0")
	if _, err := l.List(context.Background(), "app"); err == nil {
		t.Error("expected error for missing root manifest")
	}
}

func TestRegistryListerDepManifestFailurePrunesBranch(t *testing.T) {
	reg, res := testGraph()
	delete(reg.manifests, "linkedom@0.16.11")
	l := quietLister(reg, res)

	tokens, err := l.List(context.Background(), "app")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	// linkedom stays in the closure, its children do not.
	joined := strings.Join(tokens, " ")
	if !strings.Contains(joined, "linkedom@0.16.11") {
		t.Errorf("linkedom should remain listed: %v", tokens)
	}
	if strings.Contains(joined, "uhyphen") {
		t.Errorf("uhyphen should be pruned with its parent: %v", tokens)
	}
}

func TestRegistryListerRangeFailureSkipsDep(t *testing.T) {
	reg, res := testGraph()
	delete(res.versions, "uhyphen@^0.2.0")
	l := quietLister(reg, res)

	tokens, err := l.List(context.Background(), "app")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if strings.Contains(strings.Join(tokens, " "), "uhyphen") {
		t.Errorf("unresolvable range should drop the dep: %v", tokens)
	}
}

func TestRegistryListerMissingClients(t *testing.T) {
	l := &RegistryLister{}
	if _, err := l.List(context.Background(), "app"); err == nil {
		t.Error("expected error when clients are missing")
	}
}
