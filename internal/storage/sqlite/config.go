package sqlite

import "time"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:sales.db?_pragma=busy_timeout(5000)"
	//   ":memory:"
	DSN string

	// Table is the target table name, e.g. "sales".
	Table string

	// ConnectTimeout bounds the initial ping.
	ConnectTimeout time.Duration
}
