// Package providers defines the capability contract every vision model backend
// implements, along with the shared provider error type and prompt builders.
package providers

import (
	"context"
)

// Provider name tags used in configuration and rate-limiter identity.
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Image is an encoded bitmap handed to a backend.
type Image struct {
	Data []byte
	MIME string
}

// Config represents the configuration for an LLM provider backend.
type Config struct {
	Provider        string
	Model           string
	APIKey          string
	BaseURL         string
	Temperature     float64
	MaxOutputTokens int
}

// Client is the capability set a concrete backend must provide. Every call
// honors context cancellation and returns plain text or an error; provider
// failures carry an HTTP-like status via *Error.
type Client interface {
	// TranscribeLine transcribes a single line image verbatim. The caller
	// supplies the system and user prompt wording.
	TranscribeLine(ctx context.Context, img Image, systemPrompt, userPrompt string) (string, error)

	// JudgeLine arbitrates between two disagreeing candidate transcriptions
	// of the same line image and returns a single corrected line.
	JudgeLine(ctx context.Context, img Image, candidateA, candidateB string) (string, error)

	// FormatTranscription reflows a raw page transcription into Markdown
	// without changing its words.
	FormatTranscription(ctx context.Context, raw string) (string, error)

	// GenerateTitle produces a short title for a transcribed note.
	GenerateTitle(ctx context.Context, text string) (string, error)

	// TestConnection verifies the backend is reachable with the configured
	// credentials and model.
	TestConnection(ctx context.Context) error

	// Name reports the provider tag, e.g. "gemini".
	Name() string
}
