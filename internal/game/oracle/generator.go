// Package oracle chooses actions for computer-controlled fighters by asking
// a language model, falling back to a safe pass when it cannot.
package oracle

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/Dadudekc/shinobi-arena/internal/config"
)

// Generator produces a raw model reply for a system prompt and user prompt.
// Implementations must honor ctx cancellation.
type Generator interface {
	Generate(ctx context.Context, system, prompt string) (string, error)
}

// AnthropicGenerator calls the Anthropic Messages API.
type AnthropicGenerator struct {
	client anthropic.Client
	cfg    config.OracleConfig
}

// NewAnthropicGenerator builds a generator from configuration.
//
// Precondition: The environment variable named by cfg.APIKeyEnv must be set.
func NewAnthropicGenerator(cfg config.OracleConfig) (*AnthropicGenerator, error) {
	key := os.Getenv(cfg.APIKeyEnv)
	if key == "" {
		return nil, fmt.Errorf("oracle: environment variable %s is not set", cfg.APIKeyEnv)
	}
	return &AnthropicGenerator{
		client: anthropic.NewClient(option.WithAPIKey(key)),
		cfg:    cfg,
	}, nil
}

// UnavailableGenerator always fails. It stands in when no API credentials
// are configured, so the adapter's pass fallback keeps fights moving.
type UnavailableGenerator struct{}

func (UnavailableGenerator) Generate(context.Context, string, string) (string, error) {
	return "", errors.New("oracle: no generation service configured")
}

// Generate sends one message to the configured model and returns the
// concatenated text of the reply.
//
// Postcondition: The call is bounded by cfg.RequestTimeout.
func (g *AnthropicGenerator) Generate(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.cfg.RequestTimeout)
	defer cancel()

	msg, err := g.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(g.cfg.Model),
		MaxTokens:   int64(g.cfg.MaxTokens),
		Temperature: anthropic.Float(g.cfg.Temperature),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("oracle: generation call failed: %w", err)
	}

	var out string
	for _, block := range msg.Content {
		if block.Type == "text" {
			out += block.Text
		}
	}
	return out, nil
}
