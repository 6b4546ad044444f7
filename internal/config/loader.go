package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Load builds a Config from the process environment, filling defaults from
// struct tags, and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := bindEnv(reflect.ValueOf(&cfg).Elem()); err != nil {
		return nil, fmt.Errorf("config load: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}

// binding is the env tag set of one config field.
type binding struct {
	name     string
	alias    string
	fallback string
	required bool
}

func bindingOf(f reflect.StructField) (binding, bool) {
	name := f.Tag.Get("env")
	if name == "" {
		return binding{}, false
	}
	return binding{
		name:     name,
		alias:    f.Tag.Get("envAlt"),
		fallback: f.Tag.Get("default"),
		required: f.Tag.Get("required") == "true",
	}, true
}

// resolve returns the raw value for b: the primary variable, then the alias,
// then the default.
func (b binding) resolve() (string, error) {
	for _, key := range []string{b.name, b.alias} {
		if key == "" {
			continue
		}
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			return v, nil
		}
	}
	if b.required {
		return "", fmt.Errorf("required environment variable %s is not set", b.name)
	}
	return b.fallback, nil
}

// bindEnv walks the exported fields of v, descending into nested sections.
func bindEnv(v reflect.Value) error {
	t := v.Type()
	for i := range t.NumField() {
		f, target := t.Field(i), v.Field(i)
		if !f.IsExported() {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			if err := bindEnv(target); err != nil {
				return err
			}
			continue
		}

		b, ok := bindingOf(f)
		if !ok {
			continue
		}
		raw, err := b.resolve()
		if err != nil {
			return err
		}
		if raw == "" {
			continue
		}
		if err := assign(target, raw); err != nil {
			return fmt.Errorf("%s=%q: %w", b.name, raw, err)
		}
	}
	return nil
}

type parser func(raw string) (reflect.Value, error)

var parsers = map[reflect.Type]parser{
	reflect.TypeFor[string](): func(raw string) (reflect.Value, error) {
		return reflect.ValueOf(raw), nil
	},
	reflect.TypeFor[int](): func(raw string) (reflect.Value, error) {
		n, err := strconv.Atoi(raw)
		return reflect.ValueOf(n), err
	},
	reflect.TypeFor[int64](): func(raw string) (reflect.Value, error) {
		n, err := strconv.ParseInt(raw, 10, 64)
		return reflect.ValueOf(n), err
	},
	reflect.TypeFor[bool](): func(raw string) (reflect.Value, error) {
		b, err := strconv.ParseBool(raw)
		return reflect.ValueOf(b), err
	},
	reflect.TypeFor[time.Duration](): func(raw string) (reflect.Value, error) {
		d, err := time.ParseDuration(raw)
		return reflect.ValueOf(d), err
	},
	reflect.TypeFor[[]string](): func(raw string) (reflect.Value, error) {
		return reflect.ValueOf(splitList(raw)), nil
	},
}

func assign(target reflect.Value, raw string) error {
	parse, ok := parsers[target.Type()]
	if !ok {
		return fmt.Errorf("unsupported field type %s", target.Type())
	}
	val, err := parse(raw)
	if err != nil {
		return fmt.Errorf("cannot parse as %s: %w", target.Type(), err)
	}
	target.Set(val)
	return nil
}

// splitList splits a comma separated value, dropping blank entries.
func splitList(raw string) []string {
	var out []string
	for item := range strings.SplitSeq(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// problems collects validation failures so they can be reported together.
type problems []string

func (p *problems) addf(format string, args ...any) {
	*p = append(*p, fmt.Sprintf(format, args...))
}

func (p problems) err() error {
	if len(p) == 0 {
		return nil
	}
	errs := make([]error, len(p))
	for i, msg := range p {
		errs[i] = errors.New(msg)
	}
	return errors.Join(errs...)
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var p problems
	c.Store.check(&p)
	c.Server.check(&p)
	c.Upload.check(&p)

	if c.Rate.Enabled && c.Rate.RequestsPerMinute <= 0 {
		p.addf("RATE_LIMIT_REQUESTS_PER_MINUTE must be positive when rate limiting is enabled")
	}
	if c.Metrics.Enabled && !strings.HasPrefix(c.Metrics.Path, "/") {
		p.addf("METRICS_PATH %q must start with /", c.Metrics.Path)
	}

	if !slices.Contains([]string{"debug", "info", "warn", "error"}, strings.ToLower(c.Logging.Level)) {
		p.addf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Logging.Level)
	}
	if !slices.Contains([]string{"text", "json"}, strings.ToLower(c.Logging.Format)) {
		p.addf("LOG_FORMAT %q is not one of text, json", c.Logging.Format)
	}
	return p.err()
}

func (s StoreConfig) check(p *problems) {
	switch strings.ToLower(s.Backend) {
	case BackendMemory:
		// Pool settings only apply to postgres.
	case BackendPostgres:
		if s.DatabaseURL == "" {
			p.addf("DATABASE_URL is required when STORE_BACKEND=postgres")
		}
		if s.MaxConns <= 0 {
			p.addf("DB_MAX_CONNS must be positive")
		}
		if s.MinConns < 0 {
			p.addf("DB_MIN_CONNS must not be negative")
		}
		if s.MaxConns < s.MinConns {
			p.addf("DB_MAX_CONNS %d is below DB_MIN_CONNS %d", s.MaxConns, s.MinConns)
		}
	default:
		p.addf("STORE_BACKEND %q is not one of %s, %s", s.Backend, BackendMemory, BackendPostgres)
	}
}

func (s ServerConfig) check(p *problems) {
	if s.Port < 1 || s.Port > 65535 {
		p.addf("SERVER_PORT %d is outside 1-65535", s.Port)
	}
	if s.ReadTimeout < 0 {
		p.addf("SERVER_READ_TIMEOUT must not be negative")
	}
	if s.ShutdownTimeout <= 0 {
		p.addf("SERVER_SHUTDOWN_TIMEOUT must be positive")
	}
}

func (u UploadConfig) check(p *problems) {
	if u.MaxFileSize <= 0 {
		p.addf("UPLOAD_MAX_FILE_SIZE must be positive")
	}
	if u.MaxConcurrent <= 0 {
		p.addf("UPLOAD_MAX_CONCURRENT must be positive")
	}
	if u.MaxWaitTime <= 0 {
		p.addf("UPLOAD_MAX_WAIT_TIME must be positive")
	}
}

// String renders the config for logs with the database URL masked.
func (c *Config) String() string {
	dbURL := ""
	if c.Store.DatabaseURL != "" {
		dbURL = "[MASKED]"
	}
	parts := []string{
		fmt.Sprintf("server=%s", c.Server.Addr()),
		fmt.Sprintf("store=%s url=%q max_conns=%d", c.Store.Backend, dbURL, c.Store.MaxConns),
		fmt.Sprintf("upload_max_bytes=%d upload_max_concurrent=%d", c.Upload.MaxFileSize, c.Upload.MaxConcurrent),
		fmt.Sprintf("rate_limit=%t rpm=%d", c.Rate.Enabled, c.Rate.RequestsPerMinute),
		fmt.Sprintf("metrics=%t path=%s", c.Metrics.Enabled, c.Metrics.Path),
		fmt.Sprintf("log=%s/%s", c.Logging.Level, c.Logging.Format),
	}
	return strings.Join(parts, " ")
}
