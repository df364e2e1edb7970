package rawstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecords() []PriceRecord {
	return []PriceRecord{
		{
			Symbol:   "AAPL",
			Date:     "2024-03-08",
			Open:     168.49,
			High:     173.7,
			Low:      168.35,
			Close:    170.73,
			AdjClose: 169.93,
			Volume:   71765100,
		},
	}
}

func TestNewClientValidatesCredentials(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		key     string
		wantErr bool
	}{
		{name: "both present", url: "https://store.test", key: "service-role", wantErr: false},
		{name: "missing url", url: "", key: "service-role", wantErr: true},
		{name: "missing key", url: "https://store.test", key: "", wantErr: true},
		{name: "whitespace key", url: "https://store.test", key: "   ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient(tt.url, tt.key)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUpsertPrices(t *testing.T) {
	var gotPath, gotQuery, gotPrefer, gotAuth string
	var gotRecords []PriceRecord

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		gotPrefer = r.Header.Get("Prefer")
		gotAuth = r.Header.Get("Authorization")
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &gotRecords))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "service-role")
	require.NoError(t, err)

	require.NoError(t, client.UpsertPrices(context.Background(), sampleRecords()))
	require.Equal(t, "/rest/v1/raw_prices", gotPath)
	require.Equal(t, "on_conflict=symbol,date", gotQuery)
	require.Equal(t, "resolution=merge-duplicates,return=minimal", gotPrefer)
	require.Equal(t, "Bearer service-role", gotAuth)
	require.Len(t, gotRecords, 1)
	require.Equal(t, "AAPL", gotRecords[0].Symbol)
	require.Equal(t, int64(71765100), gotRecords[0].Volume)
}

func TestUpsertPricesEmptyBatchSkipsRequest(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "service-role")
	require.NoError(t, err)

	require.NoError(t, client.UpsertPrices(context.Background(), nil))
	require.False(t, called, "empty batch must not hit the store at all")
}

func TestUpsertPricesConflictHandling(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr bool
	}{
		{
			name:    "benign duplicate-key conflict",
			status:  http.StatusConflict,
			body:    `{"message":"duplicate key value violates unique constraint: row already exists"}`,
			wantErr: false,
		},
		{
			name:    "conflict with different body",
			status:  http.StatusConflict,
			body:    `{"message":"foreign key violation"}`,
			wantErr: true,
		},
		{
			name:    "unauthorized",
			status:  http.StatusUnauthorized,
			body:    `{"message":"invalid api key"}`,
			wantErr: true,
		},
		{
			name:    "server error",
			status:  http.StatusInternalServerError,
			body:    `{"message":"boom"}`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer server.Close()

			client, err := NewClient(server.URL, "service-role")
			require.NoError(t, err)

			err = client.UpsertPrices(context.Background(), sampleRecords())
			if tt.wantErr {
				require.Error(t, err)
				require.Contains(t, err.Error(), "rawstore: http status")
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestUpsertPricesIdempotentReplay(t *testing.T) {
	// The store keeps one row per (symbol, date); replaying the same batch
	// merges instead of duplicating.
	store := map[string]PriceRecord{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var records []PriceRecord
		require.NoError(t, json.NewDecoder(r.Body).Decode(&records))
		for _, rec := range records {
			store[rec.Symbol+"|"+rec.Date] = rec
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client, err := NewClient(server.URL, "service-role")
	require.NoError(t, err)

	require.NoError(t, client.UpsertPrices(context.Background(), sampleRecords()))
	require.NoError(t, client.UpsertPrices(context.Background(), sampleRecords()))
	require.Len(t, store, 1)
}
