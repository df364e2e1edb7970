package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"finpipe/internal/config"
)

func TestFormatKeySkipsBlankParts(t *testing.T) {
	require.Equal(t, "finpipe:enriched:series:AAPL:2024-01-01:2024-03-08",
		EnrichedSeriesKey("AAPL", "2024-01-01", "2024-03-08"))
	require.Equal(t, "finpipe:a:b", FormatCacheKey("a", " ", "b", ""))
}

func TestNewTTLSet(t *testing.T) {
	ttls := NewTTLSet(config.CacheTTL{Short: 5, Medium: 0, Long: -1})
	require.Equal(t, 5*time.Second, ttls.Short)
	require.Equal(t, time.Minute, ttls.Medium, "zero falls back to the default")
	require.Equal(t, time.Duration(0), ttls.Long, "negative disables the bucket")
}

func TestBuildKeyWithSuffix(t *testing.T) {
	require.Equal(t, "finpipe:enriched:symbols", BuildKeyWithSuffix(EnrichedSymbolsKey(), " "))
	require.Equal(t, "finpipe:enriched:symbols:v2", BuildKeyWithSuffix(EnrichedSymbolsKey(), "v2"))
}
