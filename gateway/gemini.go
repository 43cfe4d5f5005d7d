// Package gateway talks to the external services the drafting pipeline
// depends on: Gemini for generation and embeddings, Tavily for research.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/generative-ai-go/genai"
)

const (
	DefaultGenerationModel = "gemini-2.5-flash"
	maxRetries             = 3
	maxPromptChars         = 30000
	generationTimeout      = 60 * time.Second
)

// InitialBackoff is the delay before the first retry; tests shorten it
var InitialBackoff = time.Second

var (
	// ErrNoCredentials is returned when no API key was configured
	ErrNoCredentials = errors.New("GEMINI_API_KEY not set")
	// ErrEmptyResponse is returned when the model produced no text
	ErrEmptyResponse = errors.New("API returned empty content")
)

// Prompt is a single generation request
type Prompt struct {
	System      string
	Text        string
	Temperature float32
	// Once disables retries for calls whose failure is tolerated
	Once bool
}

// Gemini generates text with a Gemini model
type Gemini struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// NewGemini wraps client; a nil client makes every call fail with ErrNoCredentials
func NewGemini(client *genai.Client, model string) *Gemini {
	if model == "" {
		model = DefaultGenerationModel
	}
	return &Gemini{
		client:  client,
		model:   model,
		timeout: generationTimeout,
	}
}

// Generate sends the prompt, retrying with exponential backoff unless the
// prompt is marked Once
func (g *Gemini) Generate(ctx context.Context, p Prompt) (string, error) {
	if g.client == nil {
		return "", ErrNoCredentials
	}

	text := truncatePrompt(p.Text)
	attempts := maxRetries
	if p.Once {
		attempts = 1
	}

	return withRetry(ctx, attempts, func() (string, error) {
		return g.call(ctx, p.System, text, p.Temperature)
	})
}

// truncatePrompt cuts text to maxPromptChars bytes on a rune boundary
func truncatePrompt(text string) string {
	if len(text) <= maxPromptChars {
		return text
	}
	log.Printf("Warning: Prompt too long (%d chars), truncating to %d chars", len(text), maxPromptChars)
	cut := maxPromptChars
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + "\n\n[Conteúdo truncado por extensão...]"
}

// withRetry runs fn up to attempts times, doubling the wait between tries.
// A cancelled context ends the wait early.
func withRetry(ctx context.Context, attempts int, fn func() (string, error)) (string, error) {
	var lastErr error
	backoff := InitialBackoff
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			timer := time.NewTimer(backoff)
			select {
			case <-ctx.Done():
				timer.Stop()
				return "", fmt.Errorf("generation cancelled after %d attempts: %w", attempt, errors.Join(ctx.Err(), lastErr))
			case <-timer.C:
			}
			backoff *= 2
		}

		content, err := fn()
		if err == nil {
			return content, nil
		}
		lastErr = err
		log.Printf("Warning: Gemini attempt %d/%d failed: %v", attempt+1, attempts, err)
	}

	return "", fmt.Errorf("failed to generate content after %d attempts: %w", attempts, lastErr)
}

func (g *Gemini) call(ctx context.Context, system, text string, temperature float32) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	model := g.client.GenerativeModel(g.model)
	model.SetTemperature(temperature)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(text))
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	return responseText(resp)
}

// responseText concatenates the text parts of every candidate
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrEmptyResponse
	}
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
		return "", fmt.Errorf("API blocked prompt: %s", resp.PromptFeedback.BlockReason)
	}
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("API returned no candidates")
	}

	var out strings.Builder
	for i, candidate := range resp.Candidates {
		if candidate.FinishReason != genai.FinishReasonUnspecified && candidate.FinishReason != genai.FinishReasonStop {
			log.Printf("Warning: Candidate %d finished with reason: %s", i, candidate.FinishReason)
		}
		if candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				out.WriteString(string(t))
			}
		}
	}

	result := strings.TrimSpace(out.String())
	if result == "" {
		return "", ErrEmptyResponse
	}
	return result, nil
}
