package llm

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Mode selects which persona drives a completion.
type Mode string

const (
	// ModeGameCritic reviews an extracted store listing.
	ModeGameCritic Mode = "game-critic"
	// ModeAssistant answers a free-text question.
	ModeAssistant Mode = "general-assistant"
)

// Persona holds the prompt configuration for one mode. Model, Temperature
// and MaxTokens are optional per-mode overrides of the client options.
type Persona struct {
	System      string   `yaml:"system"`
	Template    string   `yaml:"template"`
	Model       string   `yaml:"model,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	MaxTokens   int      `yaml:"maxTokens,omitempty"`
}

// PersonaSet maps modes to personas.
type PersonaSet struct {
	personas map[Mode]Persona
}

// Get returns the persona for a mode, falling back to the builtin one.
func (s *PersonaSet) Get(mode Mode) Persona {
	if s != nil {
		if p, ok := s.personas[mode]; ok {
			return p
		}
	}
	return builtinPersonas[mode]
}

// personasFile is the top-level structure of personas.yaml.
type personasFile struct {
	Personas map[Mode]Persona `yaml:"personas"`
}

// LoadPersonas reads a personas.yaml overriding the builtin prompts.
// A missing file is not an error; the builtins apply.
func LoadPersonas(path string) (*PersonaSet, error) {
	if path == "" {
		return DefaultPersonas(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultPersonas(), nil
		}
		return nil, fmt.Errorf("read personas file: %w", err)
	}

	var f personasFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse personas file: %w", err)
	}

	set := DefaultPersonas()
	for mode, p := range f.Personas {
		base := set.personas[mode]
		if p.System == "" {
			p.System = base.System
		}
		if p.Template == "" {
			p.Template = base.Template
		}
		set.personas[mode] = p
	}
	return set, nil
}

// DefaultPersonas returns a set containing only the builtin prompts.
func DefaultPersonas() *PersonaSet {
	personas := make(map[Mode]Persona, len(builtinPersonas))
	for mode, p := range builtinPersonas {
		personas[mode] = p
	}
	return &PersonaSet{personas: personas}
}

var builtinPersonas = map[Mode]Persona{
	ModeGameCritic: {
		System: "You are a veteran game critic.",
		Template: `Review the following Steam store listing and score it.

**Title**: {title}
**Tags**: {tags}
**Short description**:
{short_desc}
**Full description**:
{full_desc}

Your tasks:
1. Summarize the core gameplay in two or three sentences.
2. List two or three likely strengths of this game.
3. List two or three likely weaknesses.
4. Give a fun score from 1 to 10 (an integer) and explain it in one sentence.

Answer in Markdown, strictly in this layout:
### Core Gameplay
[your summary]

### Highlights ✨
- [strength 1]
- [strength 2]

### Rough Edges ⛈️
- [weakness 1]
- [weakness 2]

### Fun Score
**[score]/10** - [your reasoning]`,
	},
	ModeAssistant: {
		System:   "You are a helpful, concise assistant replying inside a chat thread. Answer in Markdown.",
		Template: "{question}",
	},
}
