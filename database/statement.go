package database

import "github.com/heritagehub/cms/database/internal/placeholder"

// readKeywords lead statements that produce rows rather than an execution result.
var readKeywords = map[string]bool{
	"SELECT":  true,
	"WITH":    true,
	"VALUES":  true,
	"PRAGMA":  true,
	"EXPLAIN": true,
	"SHOW":    true,
}

// ReturnsRows reports whether query should go through All rather than Run,
// judged by its leading keyword.
func ReturnsRows(query string) bool {
	return readKeywords[placeholder.LeadingKeyword(query)]
}
