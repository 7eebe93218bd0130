// Package config defines the JSON-serializable configuration of a salesetl
// invocation. A Config is built once in cmd/salesetl, from an optional JSON
// file overlaid with environment variables, and passed down explicitly; no
// other package reads the process environment.
//
// Example (trimmed):
//
//	{
//	  "job": "sales-nightly",
//	  "object_store": { "kind": "s3", "region": "us-east-1" },
//	  "db": { "kind": "mysql", "host": "db", "user": "etl", "name": "SALES" },
//	  "load": { "batch_size": 1000, "mode": "replace" },
//	  "metrics": { "backend": "prometheus", "pushgateway_url": "http://pgw:9091" }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"salesetl/internal/objectstore"
)

// Defaults applied by Default.
const (
	DefaultDBKind         = "mysql"
	DefaultDBName         = "SALES"
	DefaultTable          = "sales"
	DefaultConnectTimeout = 5 * time.Second
	DefaultBatchSize      = 1000
	DefaultLoadMode       = "replace"
	DefaultObjectStore    = "s3"
)

// Config is the top-level configuration of one invocation.
type Config struct {
	// Job names the run in metrics and logs.
	Job string `json:"job"`

	ObjectStore objectstore.Config `json:"object_store"`
	DB          DB                 `json:"db"`
	Load        Load               `json:"load"`
	Metrics     Metrics            `json:"metrics"`
}

// DB configures the relational store. DSN, when set, overrides the
// host/port/user/password/name fields.
type DB struct {
	Kind           string   `json:"kind"`
	Host           string   `json:"host"`
	Port           int      `json:"port"`
	User           string   `json:"user"`
	Password       string   `json:"password"`
	Name           string   `json:"name"`
	DSN            string   `json:"dsn"`
	Table          string   `json:"table"`
	ConnectTimeout Duration `json:"connect_timeout"`
}

// CheckCredentials reports an error naming the missing connection settings
// when no DSN is configured and host, user or password is empty. SQLite
// needs none of them.
func (d DB) CheckCredentials() error {
	if d.DSN != "" || strings.EqualFold(d.Kind, "sqlite") {
		return nil
	}
	var missing []string
	if d.Host == "" {
		missing = append(missing, "DB_HOST")
	}
	if d.User == "" {
		missing = append(missing, "DB_USER")
	}
	if d.Password == "" {
		missing = append(missing, "DB_PASSWORD")
	}
	if len(missing) > 0 {
		return fmt.Errorf("database connection settings are missing: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Load configures the batch loader.
type Load struct {
	BatchSize int `json:"batch_size"`

	// Mode is "replace" (truncate, then load the snapshot) or "append".
	Mode string `json:"mode"`
}

// Metrics selects the metrics backend. Backend is "", "none", "prometheus"
// or "datadog".
type Metrics struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DatadogAddr    string `json:"datadog_addr"`
}

// Duration is a time.Duration that decodes from a Go duration string
// ("5s", "1m30s") or a JSON number of seconds.
type Duration time.Duration

// D returns d as a time.Duration.
func (d Duration) D() time.Duration { return time.Duration(d) }

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		v, err := parseDuration(s)
		if err != nil {
			return err
		}
		*d = Duration(v)
		return nil
	}
	var secs float64
	if err := json.Unmarshal(b, &secs); err != nil {
		return fmt.Errorf("duration must be a string or a number of seconds: %w", err)
	}
	*d = Duration(time.Duration(secs * float64(time.Second)))
	return nil
}

// parseDuration accepts a Go duration string or a bare number of seconds.
func parseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Default returns a Config populated with the built-in defaults.
func Default() Config {
	return Config{
		Job:         "salesetl",
		ObjectStore: objectstore.Config{Kind: DefaultObjectStore},
		DB: DB{
			Kind:           DefaultDBKind,
			Name:           DefaultDBName,
			Table:          DefaultTable,
			ConnectTimeout: Duration(DefaultConnectTimeout),
		},
		Load: Load{
			BatchSize: DefaultBatchSize,
			Mode:      DefaultLoadMode,
		},
	}
}

// Decode overlays the JSON document read from r onto base. Fields absent
// from the document keep their base values.
func Decode(r io.Reader, base Config) (Config, error) {
	cfg := base
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: decode: %w", err)
	}
	return cfg, nil
}

// LoadFile reads a JSON config file and overlays it onto Default().
func LoadFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f, Default())
}

// LookupFunc matches the signature of os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// FromEnv returns Default() with environment overrides applied.
func FromEnv(lookup LookupFunc) (Config, error) {
	cfg := Default()
	if err := cfg.ApplyEnv(lookup); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ApplyEnv overrides c with the environment variables that are set and
// non-empty. Unset variables leave the current value untouched.
func (c *Config) ApplyEnv(lookup LookupFunc) error {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	str("JOB_NAME", &c.Job)

	str("OBJECTSTORE_KIND", &c.ObjectStore.Kind)
	str("AWS_REGION", &c.ObjectStore.Region)
	str("OBJECTSTORE_ENDPOINT", &c.ObjectStore.Endpoint)
	str("OBJECTSTORE_ROOT", &c.ObjectStore.Root)
	if v, ok := get("OBJECTSTORE_PATH_STYLE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("config: OBJECTSTORE_PATH_STYLE=%q: %w", v, err)
		}
		c.ObjectStore.PathStyle = b
	}

	str("DB_KIND", &c.DB.Kind)
	str("DB_HOST", &c.DB.Host)
	str("DB_USER", &c.DB.User)
	str("DB_PASSWORD", &c.DB.Password)
	str("DB_NAME", &c.DB.Name)
	str("DB_DSN", &c.DB.DSN)
	str("DB_TABLE", &c.DB.Table)
	if v, ok := get("DB_PORT"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: DB_PORT=%q: %w", v, err)
		}
		c.DB.Port = n
	}
	if v, ok := get("DB_CONNECT_TIMEOUT"); ok {
		d, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("config: DB_CONNECT_TIMEOUT=%q: %w", v, err)
		}
		c.DB.ConnectTimeout = Duration(d)
	}

	if v, ok := get("LOAD_BATCH_SIZE"); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: LOAD_BATCH_SIZE=%q: %w", v, err)
		}
		c.Load.BatchSize = n
	}
	if v, ok := get("LOAD_MODE"); ok {
		c.Load.Mode = strings.ToLower(v)
	}

	str("METRICS_BACKEND", &c.Metrics.Backend)
	str("PUSHGATEWAY_URL", &c.Metrics.PushgatewayURL)
	str("DD_AGENT_ADDR", &c.Metrics.DatadogAddr)
	return nil
}
