package event

import (
	"regexp"
	"strings"
)

// Kind is the classified action for one inbound message.
type Kind string

const (
	// KindContentAnalysis means the message carried a Steam store link.
	KindContentAnalysis Kind = "content_analysis"
	// KindGeneralQuestion means the message carried free text for the assistant.
	KindGeneralQuestion Kind = "general_question"
	// KindIgnore means no task should be launched.
	KindIgnore Kind = "ignore"
)

// Intent is the resolved action for one message, computed once per event.
type Intent struct {
	Kind      Kind
	URL       string // set for KindContentAnalysis
	Text      string // user intent text after mention stripping
	MessageID string // reply target
}

// storeURLPattern matches a Steam store app link. The full canonical URL is
// captured, including the optional slug segment after the numeric id.
var storeURLPattern = regexp.MustCompile(`https://store\.steampowered\.com/app/\d+(?:/[A-Za-z0-9_\-.%]+)?`)

// IntentText strips every mention placeholder from the message text and
// trims surrounding whitespace, yielding what the user actually asked.
func IntentText(m *Message) string {
	text := m.Text()
	for _, mention := range m.Mentions {
		if mention.Key != "" {
			text = strings.ReplaceAll(text, mention.Key, "")
		}
	}
	return strings.TrimSpace(text)
}

// Classify resolves the intent for one message. First match wins:
// Steam store link, then non-empty text, then ignore. Ineligible chats
// (group/topic without a mention, unknown chat types) always resolve to
// KindIgnore.
func Classify(m *Message) Intent {
	if m == nil || !m.Eligible() {
		return Intent{Kind: KindIgnore}
	}

	text := IntentText(m)
	if url := storeURLPattern.FindString(text); url != "" {
		return Intent{Kind: KindContentAnalysis, URL: url, Text: text, MessageID: m.MessageID}
	}
	if text != "" {
		return Intent{Kind: KindGeneralQuestion, Text: text, MessageID: m.MessageID}
	}
	return Intent{Kind: KindIgnore}
}
