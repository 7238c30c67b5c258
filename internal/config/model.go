// internal/config/model.go
//
// Typed configuration model.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                               – dotenv values,
//   • `conf/global.yaml`                            – primary static file,
//   • `PROFILEFORM_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through the Vault client *before* unmarshalling, so the model never
// stores Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal; the app fails fast if
// required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Durations accept Go syntax ("90s", "30m").

package config

import (
	"encoding/base64"
	"fmt"
	"strings"
	"time"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr   string        `koanf:"listen_addr"   validate:"required,hostname_port"`
	ForceHTTPS   bool          `koanf:"force_https"`
	ReadTimeout  time.Duration `koanf:"read_timeout"  validate:"gte=0"`
	WriteTimeout time.Duration `koanf:"write_timeout" validate:"gte=0"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"  validate:"gte=0"`
}

//
// Form section
//

// Form holds validation policy.
type Form struct {
	// RequireAge makes an empty age a violation instead of an omitted value.
	RequireAge bool `koanf:"require_age"`
	// Definition optionally points at a YAML file that replaces the built-in
	// labels, options, and messages.  Relative paths resolve against Root.
	Definition string `koanf:"definition"`
}

//
// Session section
//

// Session controls the in-memory draft cache.
type Session struct {
	CookieName    string        `koanf:"cookie_name"`
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"gte=0"`
	EvictInterval time.Duration `koanf:"evict_interval" validate:"gte=0"`
	MaxEntries    int           `koanf:"max_entries"    validate:"gte=0"`
}

//
// CSRF section
//

// CSRF holds the token signing key.  Key is base64url (raw) encoded and is
// normally a `vault:` reference.  Empty means a random per-process key.
type CSRF struct {
	Key    string        `koanf:"key"     validate:"omitempty,min=43"`
	MaxAge time.Duration `koanf:"max_age" validate:"gte=0"`
}

// KeyBytes decodes Key.  It returns nil, nil when no key is configured.
func (c CSRF) KeyBytes() ([]byte, error) {
	if c.Key == "" {
		return nil, nil
	}
	b, err := base64.RawURLEncoding.DecodeString(strings.TrimRight(c.Key, "="))
	if err != nil {
		return nil, fmt.Errorf("csrf.key: %w", err)
	}
	return b, nil
}

//
// Notify section
//

// Notify controls submission notifications.  Accepted submissions are always
// logged; WebhookURL adds an HTTP POST per submission.
type Notify struct {
	WebhookURL string        `koanf:"webhook_url" validate:"omitempty,url"`
	Retries    int           `koanf:"retries"     validate:"gte=0,lte=10"`
	Timeout    time.Duration `koanf:"timeout"     validate:"gte=0"`
	QueueSize  int           `koanf:"queue_size"  validate:"gte=0"`
}

//
// Log section
//

// Log tunes the zap logger.
type Log struct {
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

//
// GeoIP section
//

// GeoIP points at an optional GeoLite2-City database.
type GeoIP struct {
	DB string `koanf:"db"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // PROFILEFORM_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	HTTP    HTTP    `koanf:"http"`
	Form    Form    `koanf:"form"`
	Session Session `koanf:"session"`
	CSRF    CSRF    `koanf:"csrf"`
	Notify  Notify  `koanf:"notify"`
	Log     Log     `koanf:"log"`
	GeoIP   GeoIP   `koanf:"geoip"`
	Paths   Paths   `koanf:"-"` // not loaded from config files
}

// applyDefaults fills zero values that have a sensible default.
func (c *Config) applyDefaults() {
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = ":8080"
	}
	if c.HTTP.ReadTimeout == 0 {
		c.HTTP.ReadTimeout = 10 * time.Second
	}
	if c.HTTP.WriteTimeout == 0 {
		c.HTTP.WriteTimeout = 15 * time.Second
	}
	if c.HTTP.IdleTimeout == 0 {
		c.HTTP.IdleTimeout = 60 * time.Second
	}
	if c.Session.IdleTTL == 0 {
		c.Session.IdleTTL = 30 * time.Minute
	}
	if c.Session.EvictInterval == 0 {
		c.Session.EvictInterval = time.Minute
	}
	if c.Session.MaxEntries == 0 {
		c.Session.MaxEntries = 10000
	}
	if c.CSRF.MaxAge == 0 {
		c.CSRF.MaxAge = 2 * time.Hour
	}
	if c.Notify.Timeout == 0 {
		c.Notify.Timeout = 5 * time.Second
	}
	if c.Notify.QueueSize == 0 {
		c.Notify.QueueSize = 256
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}
