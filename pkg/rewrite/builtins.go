package rewrite

import "strings"

// nodeBuiltins lists the Node.js core modules (module.builtinModules, top
// level only, private "_" modules excluded).
//
// To regenerate:
//
//	node -p "[...require('module').builtinModules].filter(m => !m.startsWith('_') && !m.includes('/')).sort().join('\n')"
var nodeBuiltins = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// IsNodeBuiltin reports whether spec names a Node.js core module, with or
// without the "node:" prefix. Subpath imports like "fs/promises" count as
// their base module.
func IsNodeBuiltin(spec string) bool {
	spec = strings.TrimPrefix(spec, "node:")
	if i := strings.IndexByte(spec, '/'); i >= 0 {
		spec = spec[:i]
	}
	return nodeBuiltins[spec]
}
