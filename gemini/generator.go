// Package gemini wraps the Gemini API for drafting email replies.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/bassamadnan/mailgenie/gmail"
	"github.com/bassamadnan/mailgenie/logging"
)

var (
	errNoContent     = errors.New("message has no content to reply to")
	errEmptyResponse = errors.New("model returned no text")
)

// GenerationError reports a failed draft generation: quota exhaustion, a
// rejected prompt, or service unavailability. The cause is preserved
// unchanged; the UI decides whether to fall back to a manual reply.
type GenerationError struct {
	Err error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generate reply: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

const replyInstruction = `You are a professional email assistant.
Read the email below and write a polite, clear, and concise reply.
Return only the reply body, without a subject line or commentary.`

// Generator produces reply drafts through the Gemini API. One synchronous
// call per draft, no retries, no streaming.
type Generator struct {
	client *genai.Client
	model  string
}

// NewGenerator dials the Gemini API with the given key and model name.
func NewGenerator(ctx context.Context, apiKey, model string) (*Generator, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &Generator{client: client, model: model}, nil
}

// Close releases the underlying API client.
func (g *Generator) Close() error {
	return g.client.Close()
}

// GenerateReply asks the model for a reply draft to the given message and
// returns the draft text. Every failure mode, including a message with
// nothing to reply to, is a *GenerationError.
func (g *Generator) GenerateReply(ctx context.Context, detail *gmail.MessageDetail) (string, error) {
	prompt, err := BuildPrompt(detail)
	if err != nil {
		return "", err
	}

	resp, err := g.client.GenerativeModel(g.model).GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", &GenerationError{Err: err}
	}

	text := responseText(resp)
	if text == "" {
		return "", &GenerationError{Err: errEmptyResponse}
	}
	slog.Info("reply draft generated", logging.Operation("generate"), logging.MessageID(detail.ID), slog.Int("chars", len(text)))
	return text, nil
}

// BuildPrompt assembles the instruction plus the message content. The plain
// text body wins; an HTML-only message falls back to its snippet. A message
// with neither is an explicit error, never a crash.
func BuildPrompt(detail *gmail.MessageDetail) (string, error) {
	content := strings.TrimSpace(detail.BodyText)
	if content == "" {
		content = strings.TrimSpace(detail.Snippet)
	}
	if content == "" {
		return "", &GenerationError{Err: errNoContent}
	}
	return replyInstruction + "\n\nEmail content:\n" + content, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	return strings.TrimSpace(b.String())
}
