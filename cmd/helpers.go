package cmd

import (
	"fmt"

	"github.com/luoxy/steamlark/internal/config"
	"github.com/luoxy/steamlark/internal/llm"
)

// newLLMClient builds the completion client from config, including any
// personas.yaml overrides.
func newLLMClient(cfg config.Config) (*llm.Client, error) {
	personas, err := llm.LoadPersonas(cfg.PersonasFile)
	if err != nil {
		return nil, fmt.Errorf("loading personas: %w", err)
	}
	return llm.NewClient(llm.Options{
		APIKey:      cfg.LLM.APIKey,
		APIBase:     cfg.LLM.APIBase,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	}, personas), nil
}
