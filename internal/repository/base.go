// Package repository implements the data access layer for the application.
//
// Query methods return materialized collections, never lazily-loaded
// relations; list methods are paginated and documented with their expected
// cardinality.
package repository

import "strings"

// isUniqueConstraintError checks if a DB error is a unique constraint violation.
// Callers use it to treat duplicate-insert races as "already in desired state".
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	// PostgreSQL unique violation SQLSTATE 23505; sqlite reports the
	// constraint name instead.
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "23505")
}
