// Package narrator turns a signal and its macro snapshot into a short
// plain-English rationale. The LLM is strictly optional: narration
// always succeeds, degrading to a templated sentence when the model is
// disabled, unconfigured or unreachable.
package narrator

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"macro-trader/internal/config"
	"macro-trader/internal/models"
)

const systemPrompt = `You are a macro analyst covering gold. Given the ` +
	`current macro snapshot and a derived trading signal, write a short ` +
	`paragraph (2-3 sentences) explaining the signal in plain English. ` +
	`Mention the Fed rate and dollar index. Do not give financial advice.`

// Completer produces a completion for a system/user prompt pair.
type Completer interface {
	CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// OpenAIClient implements Completer using the OpenAI API.
type OpenAIClient struct {
	client    *openai.Client
	model     string
	maxTokens int
}

// NewOpenAIClient creates an OpenAI completer.
func NewOpenAIClient(apiKey, model string, maxTokens int) *OpenAIClient {
	return &OpenAIClient{
		client:    openai.NewClient(apiKey),
		model:     model,
		maxTokens: maxTokens,
	}
}

// CompleteWithSystem sends a prompt with system message to the model.
func (c *OpenAIClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("openai completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from openai")
	}
	return resp.Choices[0].Message.Content, nil
}

// Narrator narrates signals, with a template fallback.
type Narrator struct {
	completer Completer
	logger    zerolog.Logger
}

// New creates a narrator from configuration. When narration is disabled
// or no API key is set, the narrator runs on the template alone.
func New(cfg config.NarratorConfig, apiKey string, logger zerolog.Logger) *Narrator {
	n := &Narrator{logger: logger}
	if cfg.Enabled && apiKey != "" {
		n.completer = NewOpenAIClient(apiKey, cfg.Model, cfg.MaxTokens)
	}
	return n
}

// NewWithCompleter creates a narrator around an existing completer.
func NewWithCompleter(completer Completer, logger zerolog.Logger) *Narrator {
	return &Narrator{completer: completer, logger: logger}
}

// Narrate returns a rationale for the signal. It never fails: model
// errors are logged and the templated fallback is returned instead.
func (n *Narrator) Narrate(ctx context.Context, snap models.MacroSnapshot, result models.SignalResult) string {
	if n.completer == nil {
		return Fallback(snap, result)
	}

	userPrompt := fmt.Sprintf(
		"Snapshot: fed rate %.2f%%, 10Y treasury %.2f%%, CPI YoY %.1f%%, gold $%.2f, DXY %.1f.\n"+
			"Signal: %s (%s, %s confidence).",
		snap.FedRate, snap.Treasury10Y, snap.CPIYoY, snap.GoldPrice, snap.DXYLevel,
		result.Signal, result.Bias, result.Confidence)

	text, err := n.completer.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	if err != nil {
		n.logger.Warn().Err(err).Msg("Narration failed, using template")
		return Fallback(snap, result)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return Fallback(snap, result)
	}
	return text
}

// Fallback builds the templated one-line rationale.
func Fallback(snap models.MacroSnapshot, result models.SignalResult) string {
	return fmt.Sprintf("Fed at %.2f%% with DXY at %.1f suggests %s bias for gold.",
		snap.FedRate, snap.DXYLevel, strings.ToLower(result.Bias))
}
