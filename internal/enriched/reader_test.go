package enriched

import (
	"database/sql"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestReturnsEncodesNullsAsNaN(t *testing.T) {
	day := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	rows := []Row{
		{Date: day, Close: 100},
		{Date: day.AddDate(0, 0, 1), Close: 101, DailyReturnPct: sql.NullFloat64{Float64: 1, Valid: true}},
		{Date: day.AddDate(0, 0, 2), Close: 100, DailyReturnPct: sql.NullFloat64{Float64: -0.99, Valid: true}},
	}

	returns := Returns(rows)
	require.Len(t, returns, 3)
	require.True(t, math.IsNaN(returns[0]), "the first observation has no prior close")
	require.InDelta(t, 1, returns[1], 1e-9)
	require.InDelta(t, -0.99, returns[2], 1e-9)
}

func TestReturnsEmptySeries(t *testing.T) {
	require.Empty(t, Returns(nil))
}
