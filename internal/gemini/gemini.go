// Package gemini implements the provider contract on top of the Google
// Gemini SDK. The SDK's HTTP traffic is routed through the request pipeline,
// which injects the API key header and owns retry, caching, and rate limits.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/inkmark-app/inkmark/internal/pipeline"
	"github.com/inkmark-app/inkmark/internal/providers"
)

// Client talks to Gemini through the SDK with pipeline-backed transport.
type Client struct {
	genai       *genai.Client
	model       string
	temperature float64
	maxTokens   int
}

// New creates a client for the configured model. The pipeline becomes the
// SDK's HTTP transport; cfg.BaseURL overrides the API endpoint when set.
func New(ctx context.Context, cfg providers.Config, p *pipeline.Pipeline) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is not set")
	}

	opts := []option.ClientOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithHTTPClient(p.HTTPClient(map[string]string{"x-goog-api-key": cfg.APIKey})),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(cfg.BaseURL))
	}

	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Client{
		genai:       client,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxOutputTokens,
	}, nil
}

// Close releases the underlying SDK client.
func (c *Client) Close() error {
	return c.genai.Close()
}

// Name reports the provider tag.
func (c *Client) Name() string {
	return providers.ProviderGemini
}

// TranscribeLine sends the line image with the caller's prompt wording.
func (c *Client) TranscribeLine(ctx context.Context, img providers.Image, systemPrompt, userPrompt string) (string, error) {
	return c.generate(ctx, systemPrompt, imagePart(img), genai.Text(userPrompt))
}

// JudgeLine shows both candidates alongside the line image and asks for a
// single corrected line.
func (c *Client) JudgeLine(ctx context.Context, img providers.Image, candidateA, candidateB string) (string, error) {
	return c.generate(ctx, "", imagePart(img), genai.Text(providers.JudgePrompt(candidateA, candidateB)))
}

// FormatTranscription reflows a raw page transcription into Markdown.
func (c *Client) FormatTranscription(ctx context.Context, raw string) (string, error) {
	return c.generate(ctx, "", genai.Text(providers.FormatPrompt(raw)))
}

// GenerateTitle produces a short title for the transcribed note.
func (c *Client) GenerateTitle(ctx context.Context, text string) (string, error) {
	return c.generate(ctx, "", genai.Text(providers.TitlePrompt(text)))
}

// TestConnection performs a cheap token count to verify the model and key.
func (c *Client) TestConnection(ctx context.Context) error {
	model := c.genai.GenerativeModel(c.model)
	if _, err := model.CountTokens(ctx, genai.Text("ping")); err != nil {
		return wrapError(err)
	}
	return nil
}

func (c *Client) generate(ctx context.Context, systemPrompt string, parts ...genai.Part) (string, error) {
	model := c.genai.GenerativeModel(c.model)
	model.SetTemperature(float32(c.temperature))
	if c.maxTokens > 0 {
		model.SetMaxOutputTokens(int32(c.maxTokens))
	}
	if systemPrompt != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(systemPrompt)}}
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return "", wrapError(err)
	}

	text, err := responseText(resp)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(providers.StripCodeFence(text)), nil
}

// responseText collects the text parts of the first candidate.
func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", &providers.Error{
			Provider: providers.ProviderGemini,
			Message:  "no candidates in response",
		}
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &providers.Error{
			Provider: providers.ProviderGemini,
			Message:  "empty content in response",
		}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return "", &providers.Error{
			Provider: providers.ProviderGemini,
			Message:  "no text parts in response",
		}
	}
	return sb.String(), nil
}

// wrapError maps SDK failures onto the shared taxonomy. Cancellation and
// network errors pass through untouched so classification sees them as-is.
func wrapError(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var ne net.Error
	if errors.As(err, &ne) {
		return err
	}

	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		message := gerr.Message
		if message == "" {
			message = gerr.Error()
		}
		return &providers.Error{
			Provider:   providers.ProviderGemini,
			StatusCode: gerr.Code,
			Message:    message,
			Err:        err,
		}
	}

	return &providers.Error{
		Provider: providers.ProviderGemini,
		Message:  err.Error(),
		Err:      err,
	}
}

// imagePart converts an encoded image to an SDK blob part.
func imagePart(img providers.Image) genai.Part {
	format := strings.TrimPrefix(img.MIME, "image/")
	return genai.ImageData(format, img.Data)
}
