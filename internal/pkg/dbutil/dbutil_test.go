package dbutil

import (
	"fmt"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

func TestFinalize_RebindsPlaceholders(t *testing.T) {
	query, args := Finalize("SELECT id FROM repositories WHERE user_id = ?", []interface{}{"u1"})
	require.Equal(t, "SELECT id FROM repositories WHERE user_id = $1", query)
	require.Equal(t, []interface{}{"u1"}, args)
}

func TestFinalize_RewritesLimitClause(t *testing.T) {
	query, args := Finalize("SELECT id FROM repositories WHERE user_id = ? LIMIT ?,?", []interface{}{"u1", 10, 5})
	require.Equal(t, "SELECT id FROM repositories WHERE user_id = $1 LIMIT $2 OFFSET $3", query)
	require.Equal(t, []interface{}{"u1", 5, 10}, args)
}

func TestIsConflict(t *testing.T) {
	require.True(t, IsConflict(&pq.Error{Code: "23505"}))
	require.False(t, IsConflict(&pq.Error{Code: "42P01"}))
	require.False(t, IsConflict(fmt.Errorf("plain error")))
}
