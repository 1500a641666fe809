// Package dispatch is the webhook entry point: it validates and classifies
// inbound Feishu events and launches background tasks without blocking the
// HTTP response.
//
// Every response is HTTP 200 with a small JSON body. The platform retries
// and alerts on error statuses, so malformed payloads are swallowed into a
// success-shaped acknowledgment.
package dispatch

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"github.com/luoxy/steamlark/internal/event"
)

// TaskRunner executes one resolved intent to completion.
type TaskRunner interface {
	Run(ctx context.Context, intent event.Intent)
}

// Launcher accepts fire-and-forget work. Submit reports whether the task
// was accepted, which the webhook response deliberately does not reflect.
type Launcher interface {
	Submit(task func()) bool
}

// Deduper reports whether an event id is seen for the first time.
type Deduper interface {
	FirstSeen(ctx context.Context, eventID string) bool
}

// Dispatcher handles the single webhook route.
type Dispatcher struct {
	Runner TaskRunner
	Pool   Launcher
	Guard  Deduper
}

// NewDispatcher wires the webhook handler to its collaborators.
func NewDispatcher(runner TaskRunner, pool Launcher, guard Deduper) *Dispatcher {
	return &Dispatcher{Runner: runner, Pool: pool, Guard: guard}
}

// Routes returns the HTTP mux for the webhook server.
func (d *Dispatcher) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/feishu/event", d.HandleEvent)
	return mux
}

// HandleEvent processes one inbound event and responds immediately; any
// launched task runs on its own context, independent of this request.
func (d *Dispatcher) HandleEvent(w http.ResponseWriter, r *http.Request) {
	var payload event.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("[Dispatch] undecodable payload: %v", err)
		writeJSON(w, map[string]string{"status": "ok"})
		return
	}

	// URL verification handshake short-circuits everything else.
	if payload.IsChallenge() {
		writeJSON(w, map[string]string{"challenge": payload.Challenge})
		return
	}

	if payload.Header != nil && payload.Header.EventType != "" && payload.Header.EventType != event.EventTypeMessage {
		writeJSON(w, map[string]string{"status": "ignored"})
		return
	}
	if payload.Event == nil || payload.Event.Message == nil {
		writeJSON(w, map[string]string{"status": "ignored"})
		return
	}
	// Never react to our own (or any bot's) messages.
	if s := payload.Event.Sender; s != nil && s.SenderType == "bot" {
		writeJSON(w, map[string]string{"status": "ignored"})
		return
	}

	if payload.Header != nil && !d.Guard.FirstSeen(r.Context(), payload.Header.EventID) {
		log.Printf("[Dispatch] duplicate delivery of %s, already handled", payload.Header.EventID)
		writeJSON(w, map[string]string{"status": "ok"})
		return
	}

	intent := event.Classify(payload.Event.Message)
	if intent.Kind == event.KindIgnore {
		writeJSON(w, map[string]string{"status": "ignored"})
		return
	}

	// Fire and forget: the response never waits on or observes the task.
	if d.Pool.Submit(func() { d.Runner.Run(context.Background(), intent) }) {
		log.Printf("[Dispatch] launched %s task for %s", intent.Kind, intent.MessageID)
	}
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(body)
}
