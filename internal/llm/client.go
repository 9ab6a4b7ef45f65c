package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUpstream wraps every failure of the chat-completions API. Calls are
// never retried.
var ErrUpstream = errors.New("upstream LLM error")

const (
	FarmingAssistantPrompt = "You are a farming assistant."
	DiseaseAssistantPrompt = "You are a crop disease management assistant."
)

type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	Timeout     time.Duration
}

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type completionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

// Client talks to an OpenAI-compatible /chat/completions endpoint.
type Client struct {
	http        *resty.Client
	model       string
	maxTokens   int
	temperature float64
	logger      *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetHeader("Content-Type", "application/json").
		SetTimeout(cfg.Timeout)
	if cfg.APIKey != "" {
		rc.SetAuthToken(cfg.APIKey)
	}

	return &Client{
		http:        rc,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		logger:      logger,
	}
}

// Complete sends messages and returns the first choice's content.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, error) {
	var out completionResponse
	start := time.Now()

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(completionRequest{
			Model:       c.model,
			Messages:    messages,
			MaxTokens:   c.maxTokens,
			Temperature: c.temperature,
		}).
		SetResult(&out).
		Post("/chat/completions")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	c.logger.Debug("chat completion",
		slog.String("model", c.model),
		slog.Int("status", resp.StatusCode()),
		slog.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode() != http.StatusOK {
		return "", fmt.Errorf("%w: status %d: %s", ErrUpstream, resp.StatusCode(), truncate(resp.String(), 512))
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("%w: response has no choices", ErrUpstream)
	}
	return out.Choices[0].Message.Content, nil
}

// Chat answers a single farming question.
func (c *Client) Chat(ctx context.Context, message string) (string, error) {
	return c.Complete(ctx, []Message{
		{Role: "system", Content: FarmingAssistantPrompt},
		{Role: "user", Content: message},
	})
}

// Remedy asks for organic and chemical control of a detected disease.
func (c *Client) Remedy(ctx context.Context, disease string) (string, error) {
	return c.Complete(ctx, []Message{
		{Role: "system", Content: DiseaseAssistantPrompt},
		{Role: "user", Content: RemedyPrompt(disease)},
	})
}

func RemedyPrompt(disease string) string {
	return "You are an agricultural expert. Provide remedies for the crop disease: " + disease + ".\n" +
		"Respond in this format:\n\n" +
		"## Identification Summary\n...\n\n" +
		"## Organic Control\n...\n\n" +
		"## Chemical Control\n..."
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
