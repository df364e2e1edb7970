// Package cache centralises Redis key construction and TTL policy so key
// shapes never drift between readers.
package cache

import (
	"fmt"
	"strings"
	"time"

	"finpipe/internal/config"
)

// Namespace is the Redis key prefix for the pipeline.
const Namespace = "finpipe"

// TTLClass represents a config-driven TTL bucket.
type TTLClass string

const (
	TTLShort  TTLClass = "short"
	TTLMedium TTLClass = "medium"
	TTLLong   TTLClass = "long"
)

// TTLSet normalises cache TTLs from config into time.Duration values.
type TTLSet struct {
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// NewTTLSet converts config TTLs (in seconds) into durations.
func NewTTLSet(cfg config.CacheTTL) TTLSet {
	return TTLSet{
		Short:  durationOrDefault(cfg.Short, 10*time.Second),
		Medium: durationOrDefault(cfg.Medium, time.Minute),
		Long:   durationOrDefault(cfg.Long, 5*time.Minute),
	}
}

func durationOrDefault(seconds int, fallback time.Duration) time.Duration {
	if seconds < 0 {
		return 0
	}
	if seconds == 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

// Duration returns the configured duration for the given TTL class.
func (t TTLSet) Duration(class TTLClass) time.Duration {
	switch class {
	case TTLShort:
		return t.Short
	case TTLMedium:
		return t.Medium
	case TTLLong:
		return t.Long
	default:
		return 0
	}
}

func formatKey(parts ...string) string {
	values := make([]string, 0, len(parts)+1)
	values = append(values, Namespace)
	for _, part := range parts {
		clean := strings.TrimSpace(part)
		if clean == "" {
			continue
		}
		values = append(values, clean)
	}
	return strings.Join(values, ":")
}

// --- Enriched Price Keys ----------------------------------------------------

// EnrichedSymbolsKey holds the distinct symbol list.
func EnrichedSymbolsKey() string {
	return formatKey("enriched", "symbols")
}

// EnrichedSeriesKey holds one symbol's enriched series for a date window.
func EnrichedSeriesKey(symbol, from, to string) string {
	return formatKey("enriched", "series", symbol, from, to)
}

// --- TTL Helpers ------------------------------------------------------------

// EnrichedSymbolsTTL returns the TTL for the symbol list; it only changes
// when a new symbol first appears.
func EnrichedSymbolsTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLMedium)
}

// EnrichedSeriesTTL returns the TTL for series payloads.
func EnrichedSeriesTTL(ttl TTLSet) time.Duration {
	return ttl.Duration(TTLShort)
}

// FormatCacheKey is exported for dynamic key construction when patterns
// are not covered by helpers.
func FormatCacheKey(parts ...string) string {
	return formatKey(parts...)
}

// BuildKeyWithSuffix appends an arbitrary suffix to an existing key.
func BuildKeyWithSuffix(baseKey, suffix string) string {
	if strings.TrimSpace(suffix) == "" {
		return baseKey
	}
	return fmt.Sprintf("%s:%s", baseKey, strings.TrimSpace(suffix))
}
