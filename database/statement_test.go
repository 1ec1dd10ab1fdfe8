package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReturnsRows(t *testing.T) {
	tests := []struct {
		query string
		want  bool
	}{
		{"SELECT * FROM blogs", true},
		{"  select id from events", true},
		{"WITH recent AS (SELECT 1) SELECT * FROM recent", true},
		{"PRAGMA table_info(news)", true},
		{"INSERT INTO contacts (name) VALUES (?)", false},
		{"UPDATE banners SET active = 0", false},
		{"DELETE FROM rsvps WHERE id = ?", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ReturnsRows(tt.query), tt.query)
	}
}
