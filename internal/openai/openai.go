// Package openai implements the provider contract against any
// OpenAI-compatible chat completions API: OpenAI itself, LM Studio, or an
// Ollama /v1 endpoint.
package openai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/inkmark-app/inkmark/internal/pipeline"
	"github.com/inkmark-app/inkmark/internal/providers"
)

const (
	// DefaultBaseURL is used when the configuration does not name a
	// compatible server.
	DefaultBaseURL = "https://api.openai.com/v1"

	// DefaultMaxOutputTokens bounds completion length for line-sized calls.
	DefaultMaxOutputTokens = 1024
)

// Client talks to an OpenAI-compatible backend through a request pipeline.
type Client struct {
	model       string
	baseURL     string
	apiKey      string
	temperature float64
	maxTokens   int
	pipeline    *pipeline.Pipeline
}

// New creates a client for the configured model and server.
func New(cfg providers.Config, p *pipeline.Pipeline) *Client {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	maxTokens := cfg.MaxOutputTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxOutputTokens
	}
	return &Client{
		model:       cfg.Model,
		baseURL:     baseURL,
		apiKey:      cfg.APIKey,
		temperature: cfg.Temperature,
		maxTokens:   maxTokens,
		pipeline:    p,
	}
}

// Name reports the provider tag.
func (c *Client) Name() string {
	return providers.ProviderOpenAI
}

// TranscribeLine sends the line image with the caller's prompt wording.
func (c *Client) TranscribeLine(ctx context.Context, img providers.Image, systemPrompt, userPrompt string) (string, error) {
	messages := []map[string]any{
		{
			"role":    "system",
			"content": systemPrompt,
		},
		{
			"role":    "user",
			"content": visionContent(userPrompt, img),
		},
	}
	return c.chat(ctx, messages)
}

// JudgeLine shows both candidates alongside the line image and asks for a
// single corrected line.
func (c *Client) JudgeLine(ctx context.Context, img providers.Image, candidateA, candidateB string) (string, error) {
	messages := []map[string]any{
		{
			"role":    "user",
			"content": visionContent(providers.JudgePrompt(candidateA, candidateB), img),
		},
	}
	return c.chat(ctx, messages)
}

// FormatTranscription reflows a raw page transcription into Markdown.
func (c *Client) FormatTranscription(ctx context.Context, raw string) (string, error) {
	return c.textCall(ctx, providers.FormatPrompt(raw))
}

// GenerateTitle produces a short title for the transcribed note.
func (c *Client) GenerateTitle(ctx context.Context, text string) (string, error) {
	return c.textCall(ctx, providers.TitlePrompt(text))
}

// TestConnection lists models to verify the server and credentials.
func (c *Client) TestConnection(ctx context.Context) error {
	req := &pipeline.Request{
		Method: "GET",
		URL:    c.baseURL + "/models",
		Header: c.headers(),
	}

	resp, err := c.pipeline.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("openai connection test: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return c.apiError(resp)
	}
	return nil
}

func (c *Client) textCall(ctx context.Context, prompt string) (string, error) {
	messages := []map[string]any{
		{
			"role":    "user",
			"content": prompt,
		},
	}
	return c.chat(ctx, messages)
}

func (c *Client) chat(ctx context.Context, messages []map[string]any) (string, error) {
	requestBody, err := json.Marshal(map[string]any{
		"model":       c.model,
		"messages":    messages,
		"temperature": c.temperature,
		"max_tokens":  c.maxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req := &pipeline.Request{
		Method: "POST",
		URL:    c.baseURL + "/chat/completions",
		Header: c.headers(),
		Body:   requestBody,
	}

	resp, err := c.pipeline.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", c.apiError(resp)
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(resp.Body, &response); err != nil {
		return "", &providers.Error{
			Provider: c.Name(),
			Message:  fmt.Sprintf("malformed response body: %v", err),
			Err:      err,
		}
	}
	if len(response.Choices) == 0 {
		return "", &providers.Error{
			Provider: c.Name(),
			Message:  "no choices in response",
		}
	}

	return strings.TrimSpace(providers.StripCodeFence(response.Choices[0].Message.Content)), nil
}

func (c *Client) headers() http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		h.Set("Authorization", "Bearer "+c.apiKey)
	}
	return h
}

// apiError extracts the server's error message from a non-200 response.
func (c *Client) apiError(resp *pipeline.Response) *providers.Error {
	var body struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	message := strings.TrimSpace(string(resp.Body))
	if err := json.Unmarshal(resp.Body, &body); err == nil && body.Error.Message != "" {
		message = body.Error.Message
	}

	return &providers.Error{
		Provider:   c.Name(),
		StatusCode: resp.StatusCode,
		Message:    message,
	}
}

// visionContent builds the mixed text+image content parts for one message.
func visionContent(prompt string, img providers.Image) []map[string]any {
	dataURI := fmt.Sprintf("data:%s;base64,%s", img.MIME, base64.StdEncoding.EncodeToString(img.Data))
	return []map[string]any{
		{
			"type": "text",
			"text": prompt,
		},
		{
			"type": "image_url",
			"image_url": map[string]any{
				"url": dataURI,
			},
		},
	}
}
