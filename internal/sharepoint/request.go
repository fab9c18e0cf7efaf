package sharepoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

// getJSON performs an authenticated GET against the Graph API and returns
// the HTTP status plus the parsed JSON body. A 401 response clears the
// cached token, re-authenticates, and retries with fresh headers, at most
// maxRetries additional times. Non-200 statuses are returned with an empty
// body so callers can distinguish 404/403 from transport failure; a
// transport error on the final attempt is returned as an error.
func (c *Client) getJSON(ctx context.Context, requestURL string, maxRetries int) (int, gjson.Result, error) {
	if err := c.ensureToken(ctx); err != nil {
		return 0, gjson.Result{}, err
	}

	for attempt := 0; attempt <= maxRetries; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
		if err != nil {
			return 0, gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Authorization", "Bearer "+c.accessToken)
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if attempt < maxRetries {
				log.Warnf("sharepoint: request failed, retrying (attempt %d/%d): %v", attempt+1, maxRetries+1, err)
				continue
			}
			return 0, gjson.Result{}, err
		}

		if resp.StatusCode == http.StatusUnauthorized && attempt < maxRetries {
			_ = resp.Body.Close()
			log.Warnf("sharepoint: got 401, refreshing token and retrying (attempt %d/%d)", attempt+1, maxRetries+1)
			c.InvalidateToken()
			if err = c.ensureToken(ctx); err != nil {
				return http.StatusUnauthorized, gjson.Result{}, err
			}
			continue
		}

		if resp.StatusCode != http.StatusOK {
			_ = resp.Body.Close()
			return resp.StatusCode, gjson.Result{}, nil
		}

		body, err := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		if err != nil {
			return resp.StatusCode, gjson.Result{}, fmt.Errorf("failed to read response body: %w", err)
		}
		return resp.StatusCode, gjson.ParseBytes(body), nil
	}

	// Unreachable: the loop always returns on its final attempt.
	return 0, gjson.Result{}, fmt.Errorf("request retries exhausted for %s", requestURL)
}

func secondsToDuration(seconds int64) time.Duration {
	return time.Duration(seconds) * time.Second
}

// truncateForLog shortens identifiers and response snippets so secrets and
// tokens never land in the logs in full.
func truncateForLog(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
