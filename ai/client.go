package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/korjavin/docquizbot/logger"
)

const maxLoggedBody = 300

// postJSON sends payload as JSON and decodes a 200 response into out.
func postJSON(ctx context.Context, client *http.Client, log *logger.Logger, url, apiKey string, payload, out interface{}) error {
	reqJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqJSON))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	reqSentTime := time.Now()
	resp, err := client.Do(req)
	reqDuration := time.Since(reqSentTime)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			log.Warn("Model request timed out", "url", url, "duration", reqDuration)
			return fmt.Errorf("model request timed out after %v: %w", reqDuration, ctx.Err())
		}
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	log.Debug("Model response received", "status", resp.StatusCode, "duration", reqDuration, "bytes", len(body))

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, truncate(string(body), maxLoggedBody))
	}

	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
