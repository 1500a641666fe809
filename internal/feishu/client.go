// Package feishu delivers interactive-card replies through the Feishu open
// platform API.
package feishu

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

const (
	defaultAPIBase = "https://open.feishu.cn"
	httpTimeout    = 10 * time.Second
)

// Client authenticates with app credentials and posts threaded card replies.
// Safe for concurrent use; the tenant token is cached until shortly before
// it expires.
type Client struct {
	AppID      string
	AppSecret  string
	APIBase    string
	HTTPClient *http.Client

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewClient creates a Client. Empty apiBase means the public Feishu endpoint.
func NewClient(appID, appSecret, apiBase string) *Client {
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Client{
		AppID:      appID,
		AppSecret:  appSecret,
		APIBase:    apiBase,
		HTTPClient: &http.Client{Timeout: httpTimeout},
	}
}

// Reply posts a markdown card as a threaded reply to messageID. If the
// tenant token cannot be acquired no delivery is attempted. Delivery is
// at-most-once; callers log the returned error and move on.
func (c *Client) Reply(ctx context.Context, messageID, title, content string) error {
	token, err := c.ensureToken(ctx)
	if err != nil {
		return fmt.Errorf("tenant token: %w", err)
	}

	card := map[string]any{
		"config": map[string]any{"wide_screen_mode": true},
		"header": map[string]any{
			"template": "blue",
			"title":    map[string]any{"tag": "plain_text", "content": title},
		},
		"elements": []map[string]any{
			{"tag": "markdown", "content": content},
		},
	}
	cardJSON, err := json.Marshal(card)
	if err != nil {
		return fmt.Errorf("marshal card: %w", err)
	}

	body, _ := json.Marshal(map[string]any{
		"msg_type": "interactive",
		"content":  string(cardJSON),
	})

	url := fmt.Sprintf("%s/open-apis/im/v1/messages/%s/reply", c.APIBase, messageID)
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create reply request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("post reply: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	json.NewDecoder(resp.Body).Decode(&result)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("reply returned HTTP %d: %s", resp.StatusCode, result.Msg)
	}
	if result.Code != 0 {
		return fmt.Errorf("reply rejected (code %d): %s", result.Code, result.Msg)
	}
	return nil
}

// ensureToken returns a valid tenant access token, refreshing it if the
// cached one is expired or missing.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.tokenExpiry) {
		return c.accessToken, nil
	}

	body, _ := json.Marshal(map[string]string{
		"app_id":     c.AppID,
		"app_secret": c.AppSecret,
	})

	url := c.APIBase + "/open-apis/auth/v3/tenant_access_token/internal"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request token: %w", err)
	}
	defer resp.Body.Close()

	var result struct {
		Code              int    `json:"code"`
		Msg               string `json:"msg"`
		TenantAccessToken string `json:"tenant_access_token"`
		Expire            int    `json:"expire"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("parse token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || result.Code != 0 || result.TenantAccessToken == "" {
		return "", fmt.Errorf("token rejected (HTTP %d, code %d): %s", resp.StatusCode, result.Code, result.Msg)
	}

	c.accessToken = result.TenantAccessToken
	// Refresh a minute early so in-flight replies never race expiry.
	c.tokenExpiry = time.Now().Add(time.Duration(result.Expire-60) * time.Second)
	return c.accessToken, nil
}
