// internal/config/model.go
//
// Typed configuration model for the site.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from three overlay layers:
//
//   • optional `.env`                        – dotenv values,
//   • `conf/site.yaml`                       – primary static file,
//   • `SITE_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with the prefix `vault:` is resolved
// through a SecretGetter *before* unmarshalling, so the model never stores
// Vault URIs, only plain strings.
//
// Validation happens immediately after unmarshal and defaulting; the app
// fails fast if required fields are missing.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.  Koanf ignores `yaml`
//     tags unless configured otherwise.
//   • Durations are written as Go duration strings ("1500ms", "5s").
//   • The `Paths` block is filled at runtime; YAML must not try to set it.

package config

import "time"

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr      string        `koanf:"listen_addr"      validate:"required,hostname_port"`
	ForceHTTPS      bool          `koanf:"force_https"`
	ReadTimeout     time.Duration `koanf:"read_timeout"     validate:"gte=0"`
	WriteTimeout    time.Duration `koanf:"write_timeout"    validate:"gte=0"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"     validate:"gte=0"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" validate:"gte=0"`
}

//
// Database section
//

// Database configures the optional inquiry store.
//
// The DSN template is kept in YAML so operators can tweak host, port, or
// flags without touching Vault.  The password is usually a `vault:`
// reference and is spliced into the DSN at open time.
type Database struct {
	Enabled  bool   `koanf:"enabled"`
	DSN      string `koanf:"dsn"       validate:"required_if=Enabled true"`
	Password string `koanf:"password"`
	MaxOpen  int    `koanf:"max_open"  validate:"gte=0"`
	MaxIdle  int    `koanf:"max_idle"  validate:"gte=0"`
}

//
// Contact section
//

// Contact selects how form submissions are delivered.
//
//   - simulated: wait SendDelay, always succeed.
//   - actions:   run the form definition's post-submit actions.
type Contact struct {
	Mode         string        `koanf:"mode"          validate:"oneof=simulated actions"`
	SendDelay    time.Duration `koanf:"send_delay"    validate:"gte=0"`
	DismissAfter time.Duration `koanf:"dismiss_after" validate:"gte=0"`
	SendTimeout  time.Duration `koanf:"send_timeout"  validate:"gte=0"`
}

// Webhook is the default target for `webhook` form actions.
type Webhook struct {
	URL      string        `koanf:"url"       validate:"omitempty,url"`
	Secret   string        `koanf:"secret"`
	Timeout  time.Duration `koanf:"timeout"   validate:"gte=0"`
	RetryMax int           `koanf:"retry_max" validate:"gte=0,lte=10"`
}

// Mail configures the outbound e-mail queue used by `email` actions.
type Mail struct {
	Transport string   `koanf:"transport"  validate:"oneof=log smtp"`
	SMTPAddr  string   `koanf:"smtp_addr"  validate:"required_if=Transport smtp"`
	Username  string   `koanf:"username"`
	Password  string   `koanf:"password"`
	From      string   `koanf:"from"       validate:"omitempty,email"`
	To        []string `koanf:"to"         validate:"dive,email"`
	QueueSize int      `koanf:"queue_size" validate:"gte=0"`
	Workers   int      `koanf:"workers"    validate:"gte=0"`
}

//
// Visitor sessions
//

// Session tunes the in-memory visitor store and its cookie.
type Session struct {
	CookieName    string        `koanf:"cookie_name"    validate:"required"`
	Secret        string        `koanf:"secret"         validate:"required,min=32"`
	Secure        bool          `koanf:"secure"`
	IdleTTL       time.Duration `koanf:"idle_ttl"       validate:"gt=0"`
	MaxVisitors   int           `koanf:"max_visitors"   validate:"gte=0"`
	EvictInterval time.Duration `koanf:"evict_interval" validate:"gt=0"`
}

// Security holds form-protection settings.
type Security struct {
	CSRFKey     string        `koanf:"csrf_key"      validate:"required,min=32"`
	MinFillTime time.Duration `koanf:"min_fill_time" validate:"gte=0"`
	MaxFormAge  time.Duration `koanf:"max_form_age"  validate:"gt=0"`
	CSP         string        `koanf:"csp"`
}

//
// Misc sections
//

// Geo points at an optional GeoLite2 City database.
type Geo struct {
	DBPath string `koanf:"db_path"`
}

// Content points at an optional catalogue override file.
type Content struct {
	File string `koanf:"file"`
}

// Routes maps friendly paths to canonical page paths, e.g.
// "/work" → "/portfolio".
type Routes struct {
	Aliases map[string]string `koanf:"aliases" validate:"dive,keys,startswith=/,endkeys,startswith=/"`
}

// Log selects the log level.
type Log struct {
	Level string `koanf:"level" validate:"omitempty,oneof=debug info warn error"`
}

// Vault tunes secret caching.  Connection settings come from the standard
// VAULT_ADDR and VAULT_TOKEN variables.
type Vault struct {
	CacheTTL time.Duration `koanf:"cache_ttl" validate:"gte=0"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.  The loader
// discovers `Root` (repo root or SITE_ROOT override) so later code can
// build absolute file paths.
type Paths struct {
	Root string
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	SiteName string   `koanf:"site_name" validate:"required"`
	BaseURL  string   `koanf:"base_url"  validate:"omitempty,url"`
	Debug    bool     `koanf:"debug"`
	Theme    string   `koanf:"theme"     validate:"omitempty,alphanum"`
	HTTP     HTTP     `koanf:"http"`
	Database Database `koanf:"database"`
	Contact  Contact  `koanf:"contact"`
	Webhook  Webhook  `koanf:"webhook"`
	Mail     Mail     `koanf:"mail"`
	Session  Session  `koanf:"session"`
	Security Security `koanf:"security"`
	Geo      Geo      `koanf:"geo"`
	Content  Content  `koanf:"content"`
	Routes   Routes   `koanf:"routes"`
	Log      Log      `koanf:"log"`
	Vault    Vault    `koanf:"vault"`
	Paths    Paths    `koanf:"-"` // not loaded from config files
}

// applyDefaults fills zero values the YAML may omit.
func applyDefaults(c *Config) {
	setDur := func(d *time.Duration, v time.Duration) {
		if *d == 0 {
			*d = v
		}
	}
	setInt := func(i *int, v int) {
		if *i == 0 {
			*i = v
		}
	}
	setStr := func(s *string, v string) {
		if *s == "" {
			*s = v
		}
	}

	setStr(&c.Theme, "default")
	setStr(&c.HTTP.ListenAddr, ":8080")
	setDur(&c.HTTP.ReadTimeout, 10*time.Second)
	setDur(&c.HTTP.WriteTimeout, 15*time.Second)
	setDur(&c.HTTP.IdleTimeout, 60*time.Second)
	setDur(&c.HTTP.ShutdownTimeout, 10*time.Second)

	setInt(&c.Database.MaxOpen, 10)
	setInt(&c.Database.MaxIdle, 5)

	setStr(&c.Contact.Mode, "simulated")
	setDur(&c.Contact.SendDelay, 1500*time.Millisecond)
	setDur(&c.Contact.DismissAfter, 5*time.Second)
	setDur(&c.Contact.SendTimeout, 20*time.Second)

	setDur(&c.Webhook.Timeout, 5*time.Second)
	setInt(&c.Webhook.RetryMax, 3)

	setStr(&c.Mail.Transport, "log")
	setInt(&c.Mail.QueueSize, 64)
	setInt(&c.Mail.Workers, 2)

	setStr(&c.Session.CookieName, "site_visitor")
	setDur(&c.Session.IdleTTL, 30*time.Minute)
	setInt(&c.Session.MaxVisitors, 10000)
	setDur(&c.Session.EvictInterval, time.Minute)

	setDur(&c.Security.MinFillTime, 2*time.Second)
	setDur(&c.Security.MaxFormAge, 2*time.Hour)

	setStr(&c.Log.Level, "info")
	setDur(&c.Vault.CacheTTL, 10*time.Minute)
}
