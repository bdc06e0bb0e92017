package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// CompletionNotifier posts a summary of finished batch runs to a webhook.
// Delivery is best effort: failures are logged and never fail the run.
type CompletionNotifier struct {
	url        string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewCompletionNotifier(url string, logger *zap.Logger) *CompletionNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &CompletionNotifier{
		url:        url,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		logger:     logger,
	}
}

func (c *CompletionNotifier) URL() string {
	return c.url
}

func (c *CompletionNotifier) Notify(ctx context.Context, run *Run) {
	if c.url == "" || run == nil {
		c.logger.Debug("skipping completion notice", zap.String("url", c.url))
		return
	}

	payload := map[string]interface{}{
		"runId":   run.ID,
		"profile": run.Profile,
		"status":  run.Status,
		"rows":    run.Rows,
		"matched": run.Matched,
		"errors":  run.Errors,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		c.logger.Warn("building completion notice", zap.Error(err))
		return
	}

	req.Header.Set("Content-Type", "application/json")

	c.logger.Info("calling completion webhook", zap.String("url", c.url), zap.String("run_id", run.ID))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("completion webhook failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	c.logger.Info("completion webhook responded", zap.Int("status", resp.StatusCode))
}
