package ingest

import "strings"

// DefaultSymbol is ingested when no symbol list is configured.
const DefaultSymbol = "AAPL"

// ParseSymbols splits a comma-separated ticker list, trimming and
// upper-casing each entry. Blank input falls back to DefaultSymbol.
// De-duplication is deliberately not performed; the upsert key absorbs
// repeats.
func ParseSymbols(raw string) []string {
	parts := strings.Split(raw, ",")
	symbols := make([]string, 0, len(parts))
	for _, part := range parts {
		symbol := strings.ToUpper(strings.TrimSpace(part))
		if symbol == "" {
			continue
		}
		symbols = append(symbols, symbol)
	}
	if len(symbols) == 0 {
		return []string{DefaultSymbol}
	}
	return symbols
}
