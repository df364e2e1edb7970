package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTruncate(t *testing.T) {
	require.Equal(t, "abc", truncate("abc", 5))
	require.Equal(t, "abcde", truncate("abcdefgh", 5))
	require.Equal(t, "❌ab", truncate("❌abc", 3), "limit counts characters, not bytes")
}

func TestRunFailedSendsWebhook(t *testing.T) {
	var payload struct {
		Content string `json:"content"`
	}
	received := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received = true
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	n := New(nil, server.URL, "ingest_stock_data", "fetch_and_upsert")
	logical := time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC)
	n.RunFailed(context.Background(), "manual__2024-03-08", logical, errors.New("store unreachable"))

	require.True(t, received, "a failed run must fire the webhook")
	require.Contains(t, payload.Content, "ingest_stock_data.fetch_and_upsert")
	require.Contains(t, payload.Content, "2024-03-08")
	require.Contains(t, payload.Content, "store unreachable")
}

func TestRunFailedTruncatesAlert(t *testing.T) {
	var content string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Content string `json:"content"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		content = payload.Content
	}))
	defer server.Close()

	n := New(nil, server.URL, "ingest_stock_data", "fetch_and_upsert")
	n.RunFailed(context.Background(), "run", time.Now(), errors.New(strings.Repeat("x", 2000)))

	require.Len(t, []rune(content), maxWebhookLen)
}

func TestRunFailedWebhookErrorsAreSwallowed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	n := New(nil, server.URL, "dag", "task")
	// Must not panic or propagate; reporting is best-effort.
	n.RunFailed(context.Background(), "run", time.Now(), errors.New("boom"))
}

func TestNoSinksConfiguredIsNoop(t *testing.T) {
	n := New(nil, "", "dag", "task")
	n.RunSucceeded(context.Background(), "run", time.Now(), map[string]interface{}{"rows": 3})
	n.RunFailed(context.Background(), "run", time.Now(), errors.New("boom"))
}
