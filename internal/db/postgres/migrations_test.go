package postgres

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Ordered(t *testing.T) {
	require.NoError(t, checkOrder(Migrations))

	bad := []Migration{{Version: 2, Name: "b"}, {Version: 1, Name: "a"}}
	assert.ErrorContains(t, checkOrder(bad), "out of order")
}

func TestMigrations_CoverTables(t *testing.T) {
	var all strings.Builder
	for _, m := range Migrations {
		assert.NotEmpty(t, m.Name)
		all.WriteString(m.SQL)
	}
	for _, table := range []string{
		"programs", "awards", "deals", "cash_prices", "search_history",
		"subscribers", "owner_sessions", "owner_login_attempts",
	} {
		assert.Contains(t, all.String(), "CREATE TABLE IF NOT EXISTS "+table+" (", table)
	}
}
