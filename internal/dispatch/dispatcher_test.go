package dispatch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luoxy/steamlark/internal/event"
)

// inlineLauncher runs submitted tasks synchronously so tests can assert on
// their effects without sleeping.
type inlineLauncher struct {
	submitted int
	accept    bool
}

func (l *inlineLauncher) Submit(task func()) bool {
	l.submitted++
	if l.accept {
		task()
	}
	return l.accept
}

type recordingRunner struct {
	mu      sync.Mutex
	intents []event.Intent
}

func (r *recordingRunner) Run(_ context.Context, intent event.Intent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.intents = append(r.intents, intent)
}

type fakeGuard struct {
	duplicate bool
	lastID    string
}

func (g *fakeGuard) FirstSeen(_ context.Context, eventID string) bool {
	g.lastID = eventID
	return !g.duplicate
}

func newTestDispatcher() (*Dispatcher, *recordingRunner, *inlineLauncher, *fakeGuard) {
	runner := &recordingRunner{}
	launcher := &inlineLauncher{accept: true}
	guard := &fakeGuard{}
	return NewDispatcher(runner, launcher, guard), runner, launcher, guard
}

func post(t *testing.T, d *Dispatcher, body string) map[string]string {
	t.Helper()
	req := httptest.NewRequest("POST", "/feishu/event", strings.NewReader(body))
	w := httptest.NewRecorder()
	d.HandleEvent(w, req)

	require.Equal(t, 200, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/json")

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func messageEvent(chatType, text string, mentions string) string {
	content, _ := json.Marshal(map[string]string{"text": text})
	quoted, _ := json.Marshal(string(content))
	if mentions == "" {
		mentions = "[]"
	}
	return `{
		"header": {"event_id": "ev_1", "event_type": "im.message.receive_v1"},
		"event": {
			"sender": {"sender_type": "user", "sender_id": {"open_id": "ou_1"}},
			"message": {
				"message_id": "om_1",
				"chat_id": "oc_1",
				"chat_type": "` + chatType + `",
				"message_type": "text",
				"content": ` + string(quoted) + `,
				"mentions": ` + mentions + `
			}
		}
	}`
}

const botMention = `[{"key": "@_user_1", "name": "steamlark"}]`

func TestHandleEvent_ChallengeEcho(t *testing.T) {
	d, runner, _, _ := newTestDispatcher()
	resp := post(t, d, `{"challenge": "c-123", "type": "url_verification", "event": {"garbage": true}}`)
	assert.Equal(t, "c-123", resp["challenge"])
	assert.Empty(t, runner.intents)
}

func TestHandleEvent_NoEvent(t *testing.T) {
	d, _, launcher, _ := newTestDispatcher()
	resp := post(t, d, `{"header": {"event_id": "e1", "event_type": "im.message.receive_v1"}}`)
	assert.Equal(t, "ignored", resp["status"])
	assert.Zero(t, launcher.submitted)
}

func TestHandleEvent_NoMessage(t *testing.T) {
	d, _, launcher, _ := newTestDispatcher()
	resp := post(t, d, `{"event": {"sender": {"sender_type": "user"}}}`)
	assert.Equal(t, "ignored", resp["status"])
	assert.Zero(t, launcher.submitted)
}

func TestHandleEvent_MalformedJSON(t *testing.T) {
	d, _, launcher, _ := newTestDispatcher()
	resp := post(t, d, `{{{not json`)
	// Success-shaped ack so the platform never retries.
	assert.Equal(t, "ok", resp["status"])
	assert.Zero(t, launcher.submitted)
}

func TestHandleEvent_P2PSteamLink_LaunchesAnalysis(t *testing.T) {
	d, runner, launcher, _ := newTestDispatcher()
	resp := post(t, d, messageEvent("p2p", "https://store.steampowered.com/app/570", ""))

	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, 1, launcher.submitted)
	require.Len(t, runner.intents, 1)
	assert.Equal(t, event.KindContentAnalysis, runner.intents[0].Kind)
	assert.Equal(t, "https://store.steampowered.com/app/570", runner.intents[0].URL)
	assert.Equal(t, "om_1", runner.intents[0].MessageID)
}

func TestHandleEvent_GroupMention_GeneralQuestion(t *testing.T) {
	d, runner, _, _ := newTestDispatcher()
	resp := post(t, d, messageEvent("group", "@_user_1 what should I play?", botMention))

	assert.Equal(t, "ok", resp["status"])
	require.Len(t, runner.intents, 1)
	assert.Equal(t, event.KindGeneralQuestion, runner.intents[0].Kind)
	assert.Equal(t, "what should I play?", runner.intents[0].Text)
}

func TestHandleEvent_GroupWithoutMention_Ignored(t *testing.T) {
	d, runner, launcher, _ := newTestDispatcher()
	resp := post(t, d, messageEvent("group", "hello", ""))

	assert.Equal(t, "ignored", resp["status"])
	assert.Zero(t, launcher.submitted)
	assert.Empty(t, runner.intents)
}

func TestHandleEvent_EmptyAfterStripping_NoTask(t *testing.T) {
	d, _, launcher, _ := newTestDispatcher()
	resp := post(t, d, messageEvent("group", "@_user_1  ", botMention))

	assert.Equal(t, "ignored", resp["status"])
	assert.Zero(t, launcher.submitted)
}

func TestHandleEvent_BotSender_Ignored(t *testing.T) {
	d, _, launcher, _ := newTestDispatcher()
	body := strings.Replace(messageEvent("p2p", "hi", ""), `"sender_type": "user"`, `"sender_type": "bot"`, 1)
	resp := post(t, d, body)

	assert.Equal(t, "ignored", resp["status"])
	assert.Zero(t, launcher.submitted)
}

func TestHandleEvent_OtherEventType_Ignored(t *testing.T) {
	d, _, launcher, _ := newTestDispatcher()
	body := strings.Replace(messageEvent("p2p", "hi", ""), "im.message.receive_v1", "im.chat.updated_v1", 1)
	resp := post(t, d, body)

	assert.Equal(t, "ignored", resp["status"])
	assert.Zero(t, launcher.submitted)
}

func TestHandleEvent_DuplicateDelivery_AckedNotRelaunched(t *testing.T) {
	d, runner, launcher, guard := newTestDispatcher()
	guard.duplicate = true
	resp := post(t, d, messageEvent("p2p", "https://store.steampowered.com/app/570", ""))

	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, "ev_1", guard.lastID)
	assert.Zero(t, launcher.submitted)
	assert.Empty(t, runner.intents)
}

func TestHandleEvent_QueueFull_StillAcked(t *testing.T) {
	d, runner, launcher, _ := newTestDispatcher()
	launcher.accept = false
	resp := post(t, d, messageEvent("p2p", "https://store.steampowered.com/app/570", ""))

	// Drop is invisible to the platform.
	assert.Equal(t, "ok", resp["status"])
	assert.Equal(t, 1, launcher.submitted)
	assert.Empty(t, runner.intents)
}

func TestHandleEvent_OneTaskPerEvent(t *testing.T) {
	d, runner, launcher, _ := newTestDispatcher()
	// A steam link resolves to exactly one analysis task, never an extra
	// general-question task for the same event.
	post(t, d, messageEvent("p2p", "review https://store.steampowered.com/app/570 please", ""))

	assert.Equal(t, 1, launcher.submitted)
	require.Len(t, runner.intents, 1)
	assert.Equal(t, event.KindContentAnalysis, runner.intents[0].Kind)
}

func TestHandleEvent_ResponseIndependentOfTaskLatency(t *testing.T) {
	runner := &recordingRunner{}
	guard := &fakeGuard{}
	slowPool := &asyncLauncher{delay: 200 * time.Millisecond, runner: runner}
	d := NewDispatcher(runner, slowPool, guard)

	start := time.Now()
	resp := post(t, d, messageEvent("p2p", "https://store.steampowered.com/app/570", ""))
	assert.Equal(t, "ok", resp["status"])
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestRoutes_ServesWebhookPath(t *testing.T) {
	d, _, _, _ := newTestDispatcher()
	srv := httptest.NewServer(d.Routes())
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/feishu/event", "application/json", strings.NewReader(`{"challenge":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, "x", out["challenge"])
}

type asyncLauncher struct {
	delay  time.Duration
	runner *recordingRunner
}

func (l *asyncLauncher) Submit(task func()) bool {
	go func() {
		time.Sleep(l.delay)
		task()
	}()
	return true
}
