package config

import (
	"fmt"
	"regexp"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that is surfaced but does not block
	// execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "db.table"). Message is
// human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate performs static checks over c. It does not mutate c; callers
// decide whether warnings are fatal.
func Validate(c Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(c.Job) == "" {
		add(SeverityWarning, "job", "job is empty; metrics will be pushed without a job name")
	}

	switch c.ObjectStore.Kind {
	case "":
		add(SeverityError, "object_store.kind", "object_store.kind must not be empty")
	case "s3":
		if c.ObjectStore.Region == "" {
			add(SeverityWarning, "object_store.region", "no region configured; the AWS SDK default chain decides")
		}
	case "file":
		if strings.TrimSpace(c.ObjectStore.Root) == "" {
			add(SeverityError, "object_store.root", "file object store requires a root directory")
		}
	default:
		add(SeverityWarning, "object_store.kind", "unknown object store kind %q; ensure a matching backend is registered", c.ObjectStore.Kind)
	}

	issues = append(issues, validateDB(c.DB)...)

	if c.Load.BatchSize <= 0 {
		add(SeverityError, "load.batch_size", "batch_size=%d; must be positive", c.Load.BatchSize)
	}
	switch c.Load.Mode {
	case "replace", "append":
	case "":
		add(SeverityWarning, "load.mode", "load.mode is empty; %q is used", DefaultLoadMode)
	default:
		add(SeverityError, "load.mode", "unknown load mode %q; want replace or append", c.Load.Mode)
	}

	switch c.Metrics.Backend {
	case "", "none":
	case "prometheus", "prom", "pushgateway":
		if c.Metrics.PushgatewayURL == "" {
			add(SeverityError, "metrics.pushgateway_url", "prometheus backend requires pushgateway_url")
		}
	case "datadog", "dd":
		if c.Metrics.DatadogAddr == "" {
			add(SeverityError, "metrics.datadog_addr", "datadog backend requires datadog_addr")
		}
	default:
		add(SeverityError, "metrics.backend", "unknown metrics backend %q", c.Metrics.Backend)
	}

	return issues
}

func validateDB(d DB) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	switch d.Kind {
	case "":
		add(SeverityError, "db.kind", "db.kind must not be empty")
	case "mysql", "postgres", "mssql":
		if d.DSN == "" && d.Host == "" {
			add(SeverityError, "db.host", "db.host (or db.dsn) is required for %s", d.Kind)
		}
	case "sqlite":
		if d.DSN == "" && d.Name == "" {
			add(SeverityError, "db.name", "sqlite requires db.dsn or db.name as the database path")
		}
	default:
		add(SeverityWarning, "db.kind", "unknown db kind %q; ensure a matching backend is registered", d.Kind)
	}

	if d.Port < 0 || d.Port > 65535 {
		add(SeverityError, "db.port", "port %d out of range", d.Port)
	}
	if !identRe.MatchString(d.Table) {
		add(SeverityError, "db.table", "table %q must be a plain identifier", d.Table)
	}
	if d.ConnectTimeout < 0 {
		add(SeverityError, "db.connect_timeout", "connect_timeout must not be negative")
	} else if d.ConnectTimeout == 0 {
		add(SeverityWarning, "db.connect_timeout", "connect_timeout is zero; connects may block indefinitely")
	}
	return issues
}
