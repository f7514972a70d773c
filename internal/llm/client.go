// Package llm wraps the external chat-completion model behind a small client
// interface so services can be tested against stubs.
package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/schema"

	"github.com/noah-isme/kelas-qna-api/pkg/config"
)

// PartKind tags a content part.
type PartKind string

const (
	PartText     PartKind = "text"
	PartImage    PartKind = "image"
	PartDocument PartKind = "document"
)

// Part is one block of a multi-part message: plain text, or a binary image or
// document payload with its MIME type.
type Part struct {
	Kind PartKind
	Text string
	MIME string
	Data []byte
}

// TextPart builds a text content part.
func TextPart(text string) Part {
	return Part{Kind: PartText, Text: text}
}

// ImagePart builds an image content part.
func ImagePart(mime string, data []byte) Part {
	return Part{Kind: PartImage, MIME: mime, Data: data}
}

// DocumentPart builds a document content part.
func DocumentPart(mime string, data []byte) Part {
	return Part{Kind: PartDocument, MIME: mime, Data: data}
}

// Request is a single completion call.
type Request struct {
	MaxTokens int
	Parts     []Part
}

// Client issues chat completions against the configured model.
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// AnthropicClient talks to the Anthropic messages API via langchaingo.
type AnthropicClient struct {
	model     llms.Model
	maxTokens int
	timeout   config.LLMConfig
}

// NewAnthropicClient constructs a client from configuration.
func NewAnthropicClient(cfg config.LLMConfig) (*AnthropicClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("llm api key required")
	}
	model, err := anthropic.New(
		anthropic.WithToken(cfg.APIKey),
		anthropic.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("init anthropic client: %w", err)
	}
	return &AnthropicClient{model: model, maxTokens: cfg.MaxTokens, timeout: cfg}, nil
}

// Complete sends a single-turn user message built from req.Parts and returns
// the model's text answer.
func (c *AnthropicClient) Complete(ctx context.Context, req Request) (string, error) {
	if len(req.Parts) == 0 {
		return "", fmt.Errorf("completion requires at least one content part")
	}
	if c.timeout.CallTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout.CallTimeout)
		defer cancel()
	}

	parts := make([]llms.ContentPart, 0, len(req.Parts))
	for _, part := range req.Parts {
		switch part.Kind {
		case PartText:
			parts = append(parts, llms.TextPart(part.Text))
		case PartImage, PartDocument:
			parts = append(parts, llms.BinaryPart(part.MIME, part.Data))
		default:
			return "", fmt.Errorf("unsupported content part kind %q", part.Kind)
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = c.maxTokens
	}

	resp, err := c.model.GenerateContent(ctx,
		[]llms.MessageContent{{Role: schema.ChatMessageTypeHuman, Parts: parts}},
		llms.WithMaxTokens(maxTokens),
	)
	if err != nil {
		return "", fmt.Errorf("model completion: %w", err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return "", fmt.Errorf("model returned empty completion")
	}
	return resp.Choices[0].Content, nil
}
