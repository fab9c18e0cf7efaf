package sharepoint

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"golang.org/x/oauth2/clientcredentials"
)

// Authenticate obtains a fresh bearer token for the Graph API. It first
// attempts a plain HTTP client-credentials grant against the token endpoint
// and falls back to the oauth2 clientcredentials flow when that fails for
// any reason. On success the token and its expiry are cached on the client.
func (c *Client) Authenticate(ctx context.Context) error {
	if err := c.authenticateDirect(ctx); err == nil {
		return nil
	} else {
		log.Warnf("sharepoint: direct authentication failed, trying oauth2 fallback: %v", err)
	}
	if err := c.authenticateFallback(ctx); err != nil {
		c.accessToken = ""
		c.tokenExpires = c.now()
		return fmt.Errorf("authentication failed on both paths: %w", err)
	}
	return nil
}

// tokenEndpoint returns the v2.0 token endpoint for the configured tenant.
func (c *Client) tokenEndpoint() string {
	return fmt.Sprintf("%s/%s/oauth2/v2.0/token", c.authorityBase, c.creds.TenantID)
}

// authenticateDirect performs the client_credentials grant with a
// form-encoded POST, avoiding any SDK machinery.
func (c *Client) authenticateDirect(ctx context.Context) error {
	data := url.Values{}
	data.Set("client_id", c.creds.ClientID)
	data.Set("client_secret", c.creds.ClientSecret)
	data.Set("scope", GraphScope)
	data.Set("grant_type", "client_credentials")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenEndpoint(), strings.NewReader(data.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("token request failed: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, truncateForLog(string(body), 200))
	}

	result := gjson.ParseBytes(body)
	accessToken := result.Get("access_token").String()
	if accessToken == "" {
		return fmt.Errorf("token response missing access_token")
	}
	expiresIn := result.Get("expires_in").Int()
	if expiresIn <= 0 {
		expiresIn = 3600
	}

	c.setToken(accessToken, expiresIn)
	log.Debug("sharepoint: authenticated via direct token endpoint")
	return nil
}

// authenticateFallback runs the oauth2 clientcredentials flow. The exchange
// happens on its own goroutine so a blocking transport cannot stall the
// caller past context cancellation; the result is awaited before returning.
func (c *Client) authenticateFallback(ctx context.Context) error {
	conf := &clientcredentials.Config{
		ClientID:     c.creds.ClientID,
		ClientSecret: c.creds.ClientSecret,
		TokenURL:     c.tokenEndpoint(),
		Scopes:       []string{GraphScope},
	}

	type tokenResult struct {
		accessToken string
		expiresIn   int64
		err         error
	}
	ch := make(chan tokenResult, 1)
	go func() {
		tok, err := conf.Token(ctx)
		if err != nil {
			ch <- tokenResult{err: err}
			return
		}
		expiresIn := int64(tok.Expiry.Sub(c.now()).Seconds())
		ch <- tokenResult{accessToken: tok.AccessToken, expiresIn: expiresIn}
	}()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		if res.err != nil {
			return fmt.Errorf("oauth2 client credentials flow failed: %w", res.err)
		}
		if res.expiresIn <= 0 {
			res.expiresIn = 3600
		}
		c.setToken(res.accessToken, res.expiresIn)
		log.Debug("sharepoint: authenticated via oauth2 fallback")
		return nil
	}
}

// setToken caches the bearer token, shaving a safety margin off the
// reported lifetime.
func (c *Client) setToken(accessToken string, expiresIn int64) {
	c.accessToken = accessToken
	c.tokenExpires = c.now().Add(secondsToDuration(expiresIn) - tokenExpirySafetyMargin)
	log.Infof("sharepoint: token acquired, valid until %s", c.tokenExpires.Format("15:04:05"))
}

// tokenValid reports whether the cached token can still be used.
func (c *Client) tokenValid() bool {
	return c.accessToken != "" && c.now().Before(c.tokenExpires)
}

// ensureToken re-authenticates transparently when the cached token is
// missing or expired.
func (c *Client) ensureToken(ctx context.Context) error {
	if c.tokenValid() {
		return nil
	}
	return c.Authenticate(ctx)
}

// InvalidateToken discards the cached token so the next API call
// re-authenticates.
func (c *Client) InvalidateToken() {
	c.accessToken = ""
	c.tokenExpires = c.now()
}
