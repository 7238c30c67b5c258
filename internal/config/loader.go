// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from three layers (highest
precedence last):

  1. Optional `<root>/conf/.env` file.
  2. `conf/global.yaml` (optional; defaults cover every key).
  3. Environment variables prefixed `PROFILEFORM_`, where `__` maps to “.”
     (e.g., `PROFILEFORM_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every string value that starts with `vault:` is resolved
through Vault and written back into the tree.  The tree is then
unmarshalled into strongly-typed structs, defaulted, validated, enriched
with the runtime root path, and cached in an `atomic.Pointer` for lock-free
reads.  `Get()` returns the last loaded value.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay, secret resolution.
  • ERROR spans: YAML parse, env overlay, unmarshal, validation failures.
  • INFO  span:  final “config loaded” with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/profileform/internal/vault"
)

// EnvPrefix is the environment override prefix.
const EnvPrefix = "PROFILEFORM_"

var current atomic.Pointer[Config]

/*──────────────────────────── secret resolution ────────────────────────────*/

// SecretReader fetches one key of a KV-v2 secret.  *vault.Client satisfies it.
type SecretReader interface {
	GetKV(ctx context.Context, secretPath, key string, ttl time.Duration) (string, error)
}

// NewSecretReader is called at most once per Load, and only when the merged
// tree holds a `vault:` value.  Tests replace it.
var NewSecretReader = func(ctx context.Context) (SecretReader, error) {
	return vault.New(ctx, zap.S())
}

// resolveSecrets rewrites every `vault:` string in k with its secret value.
func resolveSecrets(ctx context.Context, k *koanf.Koanf) error {
	var keys []string
	for key, val := range k.All() {
		if s, ok := val.(string); ok && strings.HasPrefix(s, vault.Prefix) {
			keys = append(keys, key)
		}
	}
	if len(keys) == 0 {
		return nil
	}
	sort.Strings(keys)

	reader, err := NewSecretReader(ctx)
	if err != nil {
		return fmt.Errorf("config: vault client: %w", err)
	}
	for _, key := range keys {
		ref, _, err := vault.ParseRef(k.String(key))
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		val, err := reader.GetKV(ctx, ref.Path, ref.Key, 0)
		if err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		if err := k.Set(key, val); err != nil {
			return fmt.Errorf("config: %s: %w", key, err)
		}
		zap.S().Debugw("config secret resolved", "key", key, "ref", ref.String())
	}
	return nil
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves PROFILEFORM_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to executable heuristic for the
// production layout, then to the working directory.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
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

// Load reads .env, YAML, env overrides, resolves secrets, validates, and
// caches Config.
func Load(ctx context.Context) (*Config, error) {
	root := rootDir()
	zap.S().Debugw("config root resolved", "root", root)

	// .env (optional, no error if missing)
	_ = godotenv.Load(filepath.Join(root, "conf", ".env"))

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	switch err := k.Load(file.Provider(yamlPath), yaml.Parser()); {
	case errors.Is(err, fs.ErrNotExist):
		zap.S().Debugw("config yaml absent, using defaults", "file", yamlPath)
	case err != nil:
		zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
		return nil, err
	default:
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// Env overrides: PROFILEFORM_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	if err := resolveSecrets(ctx, k); err != nil {
		zap.S().Errorw("config secret resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}

	cfg.applyDefaults()
	cfg.Paths.Root = root
	if cfg.Form.Definition != "" && !filepath.IsAbs(cfg.Form.Definition) {
		cfg.Form.Definition = filepath.Join(root, cfg.Form.Definition)
	}
	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"listen_addr", cfg.HTTP.ListenAddr,
		"force_https", cfg.HTTP.ForceHTTPS,
		"require_age", cfg.Form.RequireAge,
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config { return current.Load() }

