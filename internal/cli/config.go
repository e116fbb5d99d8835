package cli

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"

	"github.com/tschf/mle-module-loader/pkg/entrypoint"
	apperrors "github.com/tschf/mle-module-loader/pkg/errors"
)

// defaultConfigFile is picked up from the working directory when --config is
// not given.
const defaultConfigFile = "mleloader.toml"

// Config is the optional TOML configuration file. Every field has a zero
// value that defers to the flag default; flags always win over file values.
//
//	out = "dist"
//	env_name = "app_env"
//	dir_object = "MLE_DIR"
//	lister = "registry"
//
//	[cache]
//	redis = "redis://ci-cache:6379/0"
//
//	[report]
//	mongo_uri = "mongodb://localhost:27017"
//
//	[[entrypoint]]
//	package = "linkedom"
//	path = "worker"
//	name = "linkedom_worker"
type Config struct {
	Out          string   `toml:"out"`           // artifact output directory
	EnvName      string   `toml:"env_name"`      // environment name
	DirObject    string   `toml:"dir_object"`    // directory object in create statements
	Lister       string   `toml:"lister"`        // "registry" or "exec"
	ListerArgv   []string `toml:"lister_argv"`   // exec lister command and flags
	CDNBase      string   `toml:"cdn_base"`      // jsDelivr CDN endpoint override
	DataBase     string   `toml:"data_base"`     // jsDelivr data API endpoint override
	RegistryBase string   `toml:"registry_base"` // npm registry endpoint override

	Cache  CacheConfig  `toml:"cache"`
	Report ReportConfig `toml:"report"`

	overrides entrypoint.Static // parsed [[entrypoint]] entries
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Redis string `toml:"redis"` // redis URL; empty uses the file cache
}

// ReportConfig controls where run reports go.
type ReportConfig struct {
	Path            string `toml:"path"`             // report file (default <out>/report.json)
	MongoURI        string `toml:"mongo_uri"`        // also record runs in MongoDB
	MongoDatabase   string `toml:"mongo_database"`   // default "mleloader"
	MongoCollection string `toml:"mongo_collection"` // default "runs"
}

// Overrides returns the entry point override table with the file's
// [[entrypoint]] entries layered over the built-in defaults.
func (cfg *Config) Overrides() entrypoint.Static {
	return entrypoint.Merge(entrypoint.Defaults(), cfg.overrides)
}

// loadConfig reads the file named by --config. Without the flag, a
// mleloader.toml in the working directory is used when present; otherwise an
// empty config is returned.
func (c *CLI) loadConfig() (*Config, error) {
	path := c.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return &Config{}, nil
		}
		path = defaultConfigFile
	}
	return LoadConfig(path)
}

// LoadConfig reads and validates a config file.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if cfg.Lister != "" && cfg.Lister != listerRegistry && cfg.Lister != listerExec {
		return nil, fmt.Errorf("%s: unknown lister %q (must be %q or %q)", path, cfg.Lister, listerRegistry, listerExec)
	}
	for key, base := range map[string]string{
		"cdn_base":      cfg.CDNBase,
		"data_base":     cfg.DataBase,
		"registry_base": cfg.RegistryBase,
	} {
		if base == "" {
			continue
		}
		if err := apperrors.ValidateURL(base); err != nil {
			return nil, fmt.Errorf("%s: %s: %w", path, key, err)
		}
	}

	overrides, err := entrypoint.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	cfg.overrides = overrides

	return &cfg, nil
}
