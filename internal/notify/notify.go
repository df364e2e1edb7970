// Package notify records run outcomes to the etl_run_log table and pushes
// failure alerts to a chat webhook. Both sinks are optional and best-effort:
// a broken sink is logged, never propagated, so reporting can't fail a run.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/zeromicro/go-zero/core/logx"
	"github.com/zeromicro/go-zero/core/stores/sqlx"
)

const (
	// Column limits on etl_run_log.error_message and the webhook payload.
	maxErrorLen   = 1800
	maxWebhookLen = 500

	webhookTimeout = 10 * time.Second
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Notifier reports run outcomes. A nil conn disables the run log; an empty
// webhook URL disables alerts.
type Notifier struct {
	conn       sqlx.SqlConn
	webhookURL string
	httpClient *http.Client
	dagID      string
	taskID     string
}

func New(conn sqlx.SqlConn, webhookURL, dagID, taskID string) *Notifier {
	return &Notifier{
		conn:       conn,
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: webhookTimeout},
		dagID:      dagID,
		taskID:     taskID,
	}
}

// RunSucceeded records a successful run. Details land in the jsonb column.
func (n *Notifier) RunSucceeded(ctx context.Context, runID string, logicalDate time.Time, details map[string]interface{}) {
	n.writeRunLog(ctx, runID, logicalDate, StatusSuccess, details, "")
}

// RunFailed records a failed run and fires the webhook alert.
func (n *Notifier) RunFailed(ctx context.Context, runID string, logicalDate time.Time, runErr error) {
	msg := ""
	if runErr != nil {
		msg = runErr.Error()
	}
	n.writeRunLog(ctx, runID, logicalDate, StatusFailed, nil, truncate(msg, maxErrorLen))

	alert := fmt.Sprintf("❌ %s.%s failed\nrun: %s\nlogical date: %s\nerror: %s",
		n.dagID, n.taskID, runID, logicalDate.Format("2006-01-02"), msg)
	n.sendWebhook(ctx, truncate(alert, maxWebhookLen))
}

func (n *Notifier) writeRunLog(ctx context.Context, runID string, logicalDate time.Time, status string, details map[string]interface{}, errMsg string) {
	if n.conn == nil {
		return
	}

	var detailsJSON interface{}
	if details != nil {
		raw, err := json.Marshal(details)
		if err != nil {
			logx.WithContext(ctx).Errorf("notify: marshal run details: %v", err)
		} else {
			detailsJSON = string(raw)
		}
	}

	const q = `
INSERT INTO public.etl_run_log (dag_id, task_id, run_id, logical_date, status, ended_at, details, error_message)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := n.conn.ExecCtx(ctx, q,
		n.dagID, n.taskID, runID, logicalDate, status, time.Now().UTC(), detailsJSON, nullIfEmpty(errMsg))
	if err != nil {
		logx.WithContext(ctx).Errorf("notify: insert run log: %v", err)
	}
}

func (n *Notifier) sendWebhook(ctx context.Context, content string) {
	if n.webhookURL == "" {
		return
	}

	body, err := json.Marshal(map[string]string{"content": content})
	if err != nil {
		logx.WithContext(ctx).Errorf("notify: marshal webhook payload: %v", err)
		return
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		logx.WithContext(ctx).Errorf("notify: build webhook request: %v", err)
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		logx.WithContext(ctx).Errorf("notify: send webhook: %v", err)
		return
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logx.WithContext(ctx).Errorf("notify: webhook returned %d", resp.StatusCode)
	}
}

// truncate cuts to limit runes; the limits are character limits on the
// receiving side, not byte limits.
func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
