package obs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDescribeSQL(t *testing.T) {
	name, op := describeSQL("-- name: InsertPayment :one\nINSERT INTO payments (order_id) VALUES ($1)")
	require.Equal(t, "db.InsertPayment", name)
	require.Equal(t, "INSERT", op)

	name, op = describeSQL("select 1")
	require.Equal(t, "pgx.query", name)
	require.Equal(t, "SELECT", op)
}
