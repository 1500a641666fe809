// Package event defines the Feishu webhook event envelope and derives a
// processing intent from one inbound message.
package event

import "encoding/json"

// Payload is the raw JSON body posted by the Feishu event subscription.
// Either Challenge is set (URL verification handshake) or Header/Event are.
type Payload struct {
	Challenge string  `json:"challenge,omitempty"`
	Type      string  `json:"type,omitempty"`
	Header    *Header `json:"header,omitempty"`
	Event     *Event  `json:"event,omitempty"`
}

// IsChallenge reports whether this payload is a URL verification request.
func (p *Payload) IsChallenge() bool {
	return p.Challenge != ""
}

// Header is the event envelope header.
type Header struct {
	EventID   string `json:"event_id"`
	EventType string `json:"event_type"`
}

// EventTypeMessage is the only event type this bot subscribes to.
const EventTypeMessage = "im.message.receive_v1"

// Event wraps the sender and message of an im.message.receive_v1 event.
type Event struct {
	Sender  *Sender  `json:"sender,omitempty"`
	Message *Message `json:"message,omitempty"`
}

// Sender identifies who produced the message.
type Sender struct {
	SenderType string    `json:"sender_type"` // "user" or "bot"
	SenderID   *SenderID `json:"sender_id,omitempty"`
}

// SenderID holds the sender's platform identifiers.
type SenderID struct {
	OpenID string `json:"open_id"`
}

// Chat type values carried in Message.ChatType.
const (
	ChatTypeP2P   = "p2p"
	ChatTypeGroup = "group"
	ChatTypeTopic = "topic"
)

// Message is one inbound chat message. Content is a JSON string whose shape
// depends on MessageType; for "text" messages it is {"text": "..."}.
type Message struct {
	MessageID   string    `json:"message_id"`
	ChatID      string    `json:"chat_id"`
	ChatType    string    `json:"chat_type"`
	MessageType string    `json:"message_type"`
	Content     string    `json:"content"`
	Mentions    []Mention `json:"mentions,omitempty"`
}

// Mention is one @-reference inside the message text. Key is the literal
// placeholder (e.g. "@_user_1") that appears in the text content.
type Mention struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Eligible reports whether this message should be considered at all:
// direct chats always, group/topic chats only when the bot was mentioned.
func (m *Message) Eligible() bool {
	switch m.ChatType {
	case ChatTypeP2P:
		return true
	case ChatTypeGroup, ChatTypeTopic:
		return len(m.Mentions) > 0
	default:
		return false
	}
}

// textContent mirrors the content payload of a "text" message.
type textContent struct {
	Text string `json:"text"`
}

// Text extracts the plain text from the message content payload.
// Returns "" for non-text or malformed content.
func (m *Message) Text() string {
	var tc textContent
	if err := json.Unmarshal([]byte(m.Content), &tc); err != nil {
		return ""
	}
	return tc.Text
}
