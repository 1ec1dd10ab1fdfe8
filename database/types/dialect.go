// Package types contains the core database type and interface definitions.
// They live apart from the database package so dialect implementations and
// consumers can depend on them without import cycles.
//
//nolint:revive // Package name "types" is intentionally generic
package types

import (
	"fmt"
	"strings"
)

// Dialect identifies the database backend family a process runs against.
// It is resolved once at startup and never changes afterwards.
type Dialect int

const (
	// Embedded is the file-based, single-writer SQLite backend.
	Embedded Dialect = iota + 1
	// Networked is the client-server PostgreSQL backend.
	Networked
)

// String returns the dialect's name as used in logs and telemetry.
func (d Dialect) String() string {
	switch d {
	case Embedded:
		return "sqlite"
	case Networked:
		return "postgresql"
	default:
		return fmt.Sprintf("dialect(%d)", int(d))
	}
}

// ParseDialect accepts the names returned by String plus their common aliases.
func ParseDialect(name string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3", "embedded":
		return Embedded, nil
	case "postgresql", "postgres", "pg", "networked":
		return Networked, nil
	default:
		return 0, fmt.Errorf("unknown database dialect %q", name)
	}
}
