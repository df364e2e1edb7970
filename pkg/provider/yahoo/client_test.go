package yahoo

import (
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t.UTC()
}

func chartPayload(symbol string, ts []int64, quote map[string][]*float64, adjClose []*float64) map[string]interface{} {
	indicators := map[string]interface{}{
		"quote": []map[string]interface{}{{
			"open":   quote["open"],
			"high":   quote["high"],
			"low":    quote["low"],
			"close":  quote["close"],
			"volume": quote["volume"],
		}},
	}
	if adjClose != nil {
		indicators["adjclose"] = []map[string]interface{}{{"adjclose": adjClose}}
	}
	return map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []map[string]interface{}{{
				"meta":       map[string]interface{}{"symbol": symbol, "currency": "USD"},
				"timestamp":  ts,
				"indicators": indicators,
			}},
			"error": nil,
		},
	}
}

func fp(v float64) *float64 { return &v }

func newChartServer(t *testing.T, payload interface{}) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasPrefix(r.URL.Path, "/v8/finance/chart/"))
		require.Equal(t, "1d", r.URL.Query().Get("interval"))
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(payload))
	}))
	client := NewClient(WithBaseURL(server.URL), WithMaxRetries(0))
	return server, client
}

func TestClientDailyBars(t *testing.T) {
	session := day("2024-03-08")
	payload := chartPayload("AAPL", []int64{session.Unix()}, map[string][]*float64{
		"open":   {fp(168.49)},
		"high":   {fp(173.7)},
		"low":    {fp(168.35)},
		"close":  {fp(170.73)},
		"volume": {fp(71765100)},
	}, []*float64{fp(169.93)})

	server, client := newChartServer(t, payload)
	defer server.Close()

	bars, err := client.DailyBars(context.Background(), "AAPL", session, session.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	require.Equal(t, session, bars[0].Date)
	require.InDelta(t, 168.49, bars[0].Open, 1e-9)
	require.InDelta(t, 173.7, bars[0].High, 1e-9)
	require.InDelta(t, 168.35, bars[0].Low, 1e-9)
	require.InDelta(t, 170.73, bars[0].Close, 1e-9)
	require.InDelta(t, 169.93, bars[0].AdjClose, 1e-9)
	require.InDelta(t, 71765100, bars[0].Volume, 1e-9)
}

func TestClientDailyBarsNullFieldsBecomeNaN(t *testing.T) {
	session := day("2024-03-08")
	payload := chartPayload("AAPL", []int64{session.Unix()}, map[string][]*float64{
		"open":   {nil},
		"high":   {fp(173.7)},
		"low":    {fp(168.35)},
		"close":  {fp(170.73)},
		"volume": {nil},
	}, nil)

	server, client := newChartServer(t, payload)
	defer server.Close()

	bars, err := client.DailyBars(context.Background(), "AAPL", session, session.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, bars, 1)
	require.True(t, math.IsNaN(bars[0].Open))
	require.True(t, math.IsNaN(bars[0].Volume))
	require.True(t, math.IsNaN(bars[0].AdjClose), "missing adjclose block yields NaN")
	require.InDelta(t, 170.73, bars[0].Close, 1e-9)
}

func TestClientDailyBarsHoliday(t *testing.T) {
	// Venues answer holidays with a result that has no timestamp axis.
	payload := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": []map[string]interface{}{{
				"meta":       map[string]interface{}{"symbol": "AAPL"},
				"indicators": map[string]interface{}{"quote": []map[string]interface{}{}},
			}},
			"error": nil,
		},
	}

	server, client := newChartServer(t, payload)
	defer server.Close()

	session := day("2024-12-25")
	bars, err := client.DailyBars(context.Background(), "AAPL", session, session.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Empty(t, bars)
}

func TestClientDailyBarsSymbolNotFound(t *testing.T) {
	payload := map[string]interface{}{
		"chart": map[string]interface{}{
			"result": nil,
			"error": map[string]interface{}{
				"code":        "Not Found",
				"description": "No data found, symbol may be delisted",
			},
		},
	}

	server, client := newChartServer(t, payload)
	defer server.Close()

	session := day("2024-03-08")
	_, err := client.DailyBars(context.Background(), "NOPE", session, session.AddDate(0, 0, 1))
	require.ErrorIs(t, err, ErrSymbolNotFound)
}

func TestClientDailyBarsServerError(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "upstream unavailable", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(WithBaseURL(server.URL), WithMaxRetries(2))
	session := day("2024-03-08")
	_, err := client.DailyBars(context.Background(), "AAPL", session, session.AddDate(0, 0, 1))
	require.Error(t, err)
	require.Contains(t, err.Error(), "http status 502")
	require.Equal(t, 3, attempts, "retries the configured budget before giving up")
}

func TestClientDailyBarsSortsByDate(t *testing.T) {
	d1 := day("2024-03-07")
	d2 := day("2024-03-08")
	payload := chartPayload("AAPL", []int64{d2.Unix(), d1.Unix()}, map[string][]*float64{
		"open":   {fp(2), fp(1)},
		"high":   {fp(2), fp(1)},
		"low":    {fp(2), fp(1)},
		"close":  {fp(2), fp(1)},
		"volume": {fp(2), fp(1)},
	}, []*float64{fp(2), fp(1)})

	server, client := newChartServer(t, payload)
	defer server.Close()

	bars, err := client.DailyBars(context.Background(), "AAPL", d1, d2.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, bars, 2)
	require.True(t, bars[0].Date.Before(bars[1].Date))
	require.InDelta(t, 1.0, bars[0].Close, 1e-9)
}
