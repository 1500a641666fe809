// Package llm calls an OpenAI-compatible chat-completion endpoint to review
// games and answer questions.
//
// The client never returns an error to its caller: every transport, status
// or parse failure is logged and replaced by a fixed apology string, so the
// reply pipeline always has text to deliver.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/luoxy/steamlark/internal/steam"
)

const (
	defaultAPIBase = "https://api.deepseek.com"
	callTimeout    = 45 * time.Second
)

// Apology replaces the model output whenever the completion call fails.
const Apology = "Sorry, the analysis service hit a small snag. Please try again in a bit..."

// Options configures a Client.
type Options struct {
	APIKey      string
	APIBase     string // empty means the DeepSeek API
	Model       string
	Temperature float64
	MaxTokens   int
}

// Client is a chat-completion client with two fixed prompt modes.
type Client struct {
	opts       Options
	personas   *PersonaSet
	HTTPClient *http.Client
}

// NewClient creates a Client. A nil personas set falls back to the builtin
// prompts.
func NewClient(opts Options, personas *PersonaSet) *Client {
	if opts.Model == "" {
		opts.Model = "deepseek-chat"
	}
	if opts.MaxTokens < 1 {
		opts.MaxTokens = 1024
	}
	if opts.Temperature == 0 {
		opts.Temperature = 0.7
	}
	if personas == nil {
		personas = DefaultPersonas()
	}
	return &Client{
		opts:       opts,
		personas:   personas,
		HTTPClient: &http.Client{Timeout: callTimeout},
	}
}

// ReviewGame produces review prose for an extracted store listing.
func (c *Client) ReviewGame(ctx context.Context, data *steam.GameData) string {
	prompt := renderTemplate(c.personas.Get(ModeGameCritic).Template, map[string]string{
		"title":      data.Title,
		"tags":       strings.Join(data.Tags, ", "),
		"short_desc": data.ShortDesc,
		"full_desc":  data.FullDesc,
	})
	return c.complete(ctx, ModeGameCritic, prompt)
}

// Answer produces an answer for a free-text question.
func (c *Client) Answer(ctx context.Context, question string) string {
	prompt := renderTemplate(c.personas.Get(ModeAssistant).Template, map[string]string{
		"question": question,
	})
	return c.complete(ctx, ModeAssistant, prompt)
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// chatResponse mirrors the OpenAI chat completion response structure.
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// complete runs one chat completion and returns prose, or Apology on any
// failure.
func (c *Client) complete(ctx context.Context, mode Mode, userPrompt string) string {
	persona := c.personas.Get(mode)

	model := c.opts.Model
	if persona.Model != "" {
		model = persona.Model
	}
	temperature := c.opts.Temperature
	if persona.Temperature != nil {
		temperature = *persona.Temperature
	}
	maxTokens := c.opts.MaxTokens
	if persona.MaxTokens > 0 {
		maxTokens = persona.MaxTokens
	}

	body, err := json.Marshal(map[string]any{
		"model": model,
		"messages": []chatMessage{
			{Role: "system", Content: persona.System},
			{Role: "user", Content: userPrompt},
		},
		"temperature": temperature,
		"max_tokens":  maxTokens,
	})
	if err != nil {
		log.Printf("[LLM] marshal request failed: %v", err)
		return Apology
	}

	apiBase := c.opts.APIBase
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	endpoint := strings.TrimRight(apiBase, "/") + "/chat/completions"

	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(body))
	if err != nil {
		log.Printf("[LLM] create request failed: %v", err)
		return Apology
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		log.Printf("[LLM] %s call failed: %v", mode, err)
		return Apology
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[LLM] read response failed: %v", err)
		return Apology
	}
	if resp.StatusCode != http.StatusOK {
		log.Printf("[LLM] %s returned HTTP %d: %s", mode, resp.StatusCode, truncateForLog(respBody))
		return Apology
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		log.Printf("[LLM] parse response failed: %v", err)
		return Apology
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		log.Printf("[LLM] empty completion for mode %s", mode)
		return Apology
	}
	return parsed.Choices[0].Message.Content
}

func truncateForLog(b []byte) string {
	const max = 200
	if len(b) <= max {
		return string(b)
	}
	return string(b[:max]) + "..."
}

// renderTemplate substitutes {name} placeholders in a persona template.
func renderTemplate(template string, fields map[string]string) string {
	pairs := make([]string, 0, len(fields)*2)
	for name, value := range fields {
		pairs = append(pairs, fmt.Sprintf("{%s}", name), value)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
