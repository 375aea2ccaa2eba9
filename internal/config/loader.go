// internal/config/loader.go
//
// Configuration loader and hot-reloader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `.env` file at `<root>/conf/.env`.
  2. `conf/site.yaml`.
  3. Environment variables prefixed `SITE_`, where `__` maps to “.”
     (e.g., `SITE_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every `vault:<mount/path>#<key>` string is swapped for the
secret it names.  The tree is then unmarshalled into strongly-typed
structs, defaulted, validated, enriched with the runtime root path, and
cached in an `atomic.Pointer` for lock-free reads.  `Reload()` simply
calls `Load()` again and swaps the pointer.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, secret count.
  • ERROR spans: YAML parse, env overlay, secrets, unmarshal, validation.
  • INFO span: final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed (bootstrap console).

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/site.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"
)

// EnvPrefix marks environment overrides.
const EnvPrefix = "SITE_"

var (
	current atomic.Pointer[Config]
	secrets atomic.Value // SecretGetter used by Reload
)

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves SITE_ROOT or climbs directories until conf/site.yaml is
// found.  Falls back to executable heuristic for production layout.
func rootDir() string {
	if r := os.Getenv("SITE_ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "site.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir { // reached filesystem root
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root and loads from it.  sg may be nil when no Vault
// references are expected.
func Load(ctx context.Context, sg SecretGetter) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)
	return LoadFrom(ctx, root, sg)
}

// LoadFrom reads .env, YAML, env overrides, resolves secrets, validates,
// and caches Config.
func LoadFrom(ctx context.Context, root string, sg SecretGetter) (*Config, error) {
	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "site.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, fmt.Errorf("config: load %s: %w", yamlPath, err)
	}
	zap.S().Debugw("config yaml loaded", "file", yamlPath)

	// Env overrides: SITE_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, fmt.Errorf("config: env overlay: %w", err)
	}

	n, err := resolveSecrets(ctx, k, sg)
	if err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}
	zap.S().Debugw("config secrets resolved", "count", n)

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	applyDefaults(&cfg)
	cfg.Paths.Root = root
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, fmt.Errorf("config: %w", err)
	}

	current.Store(&cfg)
	if sg != nil {
		secrets.Store(secretHolder{sg})
	}
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"contact_mode", cfg.Contact.Mode,
		"database", cfg.Database.Enabled,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

type secretHolder struct{ SecretGetter }

// Get returns the last successfully loaded Config, or nil.
func Get() *Config { return current.Load() }

// Reload re-reads configuration from the same root with the same secret
// source and swaps the cached pointer on success.
func Reload(ctx context.Context) error {
	var sg SecretGetter
	if h, ok := secrets.Load().(secretHolder); ok {
		sg = h.SecretGetter
	}
	root := rootDir()
	if c := Get(); c != nil {
		root = c.Paths.Root
	}
	_, err := LoadFrom(ctx, root, sg)
	return err
}
