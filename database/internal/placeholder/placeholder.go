// Package placeholder rewrites statements written with '?' markers into the
// forms the individual dialects expect.
//
// The rewrite is a plain left-to-right scan: it does not parse SQL, so a '?'
// inside a string literal or comment is rewritten like any other. Callers must
// keep literal question marks out of statements, or double them ("??") to get
// a single literal '?' in the rewritten text.
package placeholder

import (
	"regexp"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

var returningClause = regexp.MustCompile(`(?i)\breturning\b`)

// Rebind replaces each '?' with $1, $2, ... $n in order of appearance.
func Rebind(query string) string {
	out, err := sq.Dollar.ReplacePlaceholders(query)
	if err != nil {
		return query
	}
	return out
}

// Count returns the number of bind markers in query, honouring the "??" escape.
func Count(query string) int {
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			continue
		}
		if i+1 < len(query) && query[i+1] == '?' {
			i++
			continue
		}
		n++
	}
	return n
}

// LeadingKeyword returns the statement's first word in upper case.
func LeadingKeyword(query string) string {
	query = strings.TrimSpace(query)
	end := strings.IndexFunc(query, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '('
	})
	if end < 0 {
		end = len(query)
	}
	return strings.ToUpper(query[:end])
}

// IsInsert reports whether the statement's leading keyword is INSERT.
func IsInsert(query string) bool {
	return LeadingKeyword(query) == "INSERT"
}

// HasReturning reports whether the statement already carries a RETURNING clause.
func HasReturning(query string) bool {
	return returningClause.MatchString(query)
}

// WithReturning appends "RETURNING <column>" unless the statement already has a
// RETURNING clause. A trailing semicolon is dropped so the clause stays inside
// the statement.
func WithReturning(query, column string) string {
	if HasReturning(query) {
		return query
	}
	trimmed := strings.TrimRight(query, " \t\r\n;")
	return trimmed + " RETURNING " + column
}
