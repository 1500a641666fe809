package feishu

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePlatform serves the token and reply endpoints of the open API.
type fakePlatform struct {
	srv *httptest.Server

	tokenCalls   atomic.Int64
	replyCalls   atomic.Int64
	tokenFails   bool
	lastAuth     string
	lastReplyURL string
	lastBody     map[string]any
}

func newFakePlatform(t *testing.T) *fakePlatform {
	t.Helper()
	f := &fakePlatform{}
	f.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case strings.HasSuffix(r.URL.Path, "/tenant_access_token/internal"):
			f.tokenCalls.Add(1)
			if f.tokenFails {
				json.NewEncoder(w).Encode(map[string]any{"code": 99991663, "msg": "app not found"})
				return
			}
			json.NewEncoder(w).Encode(map[string]any{
				"code": 0, "msg": "ok",
				"tenant_access_token": "t-xyz", "expire": 7200,
			})
		case strings.Contains(r.URL.Path, "/im/v1/messages/"):
			f.replyCalls.Add(1)
			f.lastAuth = r.Header.Get("Authorization")
			f.lastReplyURL = r.URL.Path
			json.NewDecoder(r.Body).Decode(&f.lastBody)
			json.NewEncoder(w).Encode(map[string]any{"code": 0, "msg": "success"})
		default:
			t.Errorf("unexpected request: %s", r.URL.Path)
		}
	}))
	t.Cleanup(f.srv.Close)
	return f
}

func TestReply_PostsCard(t *testing.T) {
	f := newFakePlatform(t)
	c := NewClient("cli_app", "secret", f.srv.URL)

	err := c.Reply(context.Background(), "om_123", "🎮 Dota 2 - Review", "**Dota 2**\n\nGreat game.")
	require.NoError(t, err)

	assert.Equal(t, int64(1), f.tokenCalls.Load())
	assert.Equal(t, int64(1), f.replyCalls.Load())
	assert.Equal(t, "Bearer t-xyz", f.lastAuth)
	assert.Contains(t, f.lastReplyURL, "/im/v1/messages/om_123/reply")

	assert.Equal(t, "interactive", f.lastBody["msg_type"])
	var card map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.lastBody["content"].(string)), &card))
	header := card["header"].(map[string]any)
	title := header["title"].(map[string]any)
	assert.Equal(t, "🎮 Dota 2 - Review", title["content"])
	elements := card["elements"].([]any)
	first := elements[0].(map[string]any)
	assert.Equal(t, "markdown", first["tag"])
	assert.Contains(t, first["content"], "Great game.")
}

func TestReply_TokenCachedAcrossReplies(t *testing.T) {
	f := newFakePlatform(t)
	c := NewClient("cli_app", "secret", f.srv.URL)

	require.NoError(t, c.Reply(context.Background(), "om_1", "t", "a"))
	require.NoError(t, c.Reply(context.Background(), "om_2", "t", "b"))

	assert.Equal(t, int64(1), f.tokenCalls.Load())
	assert.Equal(t, int64(2), f.replyCalls.Load())
}

func TestReply_TokenFailure_NoReplyAttempted(t *testing.T) {
	f := newFakePlatform(t)
	f.tokenFails = true
	c := NewClient("cli_app", "bad-secret", f.srv.URL)

	err := c.Reply(context.Background(), "om_1", "t", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "tenant token")
	assert.Equal(t, int64(0), f.replyCalls.Load())
}

func TestReply_PlatformRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/tenant_access_token/internal") {
			json.NewEncoder(w).Encode(map[string]any{"code": 0, "tenant_access_token": "t", "expire": 7200})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"code": 230001, "msg": "invalid message id"})
	}))
	defer srv.Close()

	c := NewClient("cli_app", "secret", srv.URL)
	err := c.Reply(context.Background(), "om_bad", "t", "body")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "230001")
}

func TestReply_NetworkError(t *testing.T) {
	f := newFakePlatform(t)
	url := f.srv.URL
	f.srv.Close()

	c := NewClient("cli_app", "secret", url)
	err := c.Reply(context.Background(), "om_1", "t", "body")
	assert.Error(t, err)
}
