// Package task executes one background workflow per eligible message.
//
// A launched task runs extraction, completion and delivery strictly in
// order, ends in exactly one reply attempt, and never reports back to the
// webhook path that launched it.
package task

import (
	"context"
	"fmt"
	"log"

	"github.com/luoxy/steamlark/internal/event"
	"github.com/luoxy/steamlark/internal/steam"
)

// Extractor fetches structured data for a store page URL.
type Extractor interface {
	Fetch(ctx context.Context, url string) (*steam.GameData, error)
}

// Completer generates prose. Implementations convert their own failures to
// user-facing text, so these calls cannot fail.
type Completer interface {
	ReviewGame(ctx context.Context, data *steam.GameData) string
	Answer(ctx context.Context, question string) string
}

// Sink delivers a markdown card as a threaded reply.
type Sink interface {
	Reply(ctx context.Context, messageID, title, content string) error
}

// Card titles for the non-review reply paths.
const (
	FailureTitle = "Processing failed"
	GeneralTitle = "💬 Assistant"
)

// Runner orchestrates the two workflows.
type Runner struct {
	Extractor Extractor
	Completer Completer
	Sink      Sink
}

// NewRunner creates a Runner over the given adapters.
func NewRunner(extractor Extractor, completer Completer, sink Sink) *Runner {
	return &Runner{Extractor: extractor, Completer: completer, Sink: sink}
}

// Run executes the workflow for one resolved intent. KindIgnore is a no-op;
// the other kinds end in exactly one delivery attempt.
func (r *Runner) Run(ctx context.Context, intent event.Intent) {
	switch intent.Kind {
	case event.KindContentAnalysis:
		r.runContentAnalysis(ctx, intent)
	case event.KindGeneralQuestion:
		r.runGeneralQuestion(ctx, intent)
	}
}

func (r *Runner) runContentAnalysis(ctx context.Context, intent event.Intent) {
	data, err := r.Extractor.Fetch(ctx, intent.URL)
	if err != nil {
		log.Printf("[Task] extraction failed for %s: %v", intent.URL, err)
		body := fmt.Sprintf("Couldn't read anything useful from that link. Check that it points at a store page, or try again later.\n%s", intent.URL)
		r.deliver(ctx, intent.MessageID, FailureTitle, body)
		return
	}

	review := r.Completer.ReviewGame(ctx, data)

	body := fmt.Sprintf("**%s**\n\n%s\n\n[View on the Steam store](%s)", data.Title, review, data.URL)
	title := fmt.Sprintf("🎮 %s - Review", data.Title)
	r.deliver(ctx, intent.MessageID, title, body)
}

func (r *Runner) runGeneralQuestion(ctx context.Context, intent event.Intent) {
	answer := r.Completer.Answer(ctx, intent.Text)
	r.deliver(ctx, intent.MessageID, GeneralTitle, answer)
}

// deliver makes the single reply attempt. Delivery failures are logged and
// dropped; the user never sees them and nothing is retried.
func (r *Runner) deliver(ctx context.Context, messageID, title, content string) {
	if err := r.Sink.Reply(ctx, messageID, title, content); err != nil {
		log.Printf("[Task] reply to %s not delivered: %v", messageID, err)
	}
}
