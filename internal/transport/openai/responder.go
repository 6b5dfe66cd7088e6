package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/techrealm/programdex/internal/domain"
	"github.com/techrealm/programdex/internal/domain/search/result"
)

// Defaults for Config.
const (
	DefaultModel       = openai.GPT3Dot5Turbo
	DefaultMaxTokens   = 300
	DefaultTemperature = 0.7
	// ContextPrograms is how many ranked programs are given to the model.
	ContextPrograms = 5
)

const systemPrompt = "You are a helpful education advisor assistant. " +
	"Provide concise, helpful information about study programs."

// Responder writes chat replies with an OpenAI-compatible chat completion API.
type Responder struct {
	client      *openai.Client
	model       string
	maxTokens   int
	temperature float32
	timeout     time.Duration
	logger      *zap.Logger
}

// Config holds the chat completion settings.
type Config struct {
	APIKey      string
	BaseURL     string
	Model       string
	MaxTokens   int
	Temperature float32
	Timeout     time.Duration
	Logger      *zap.Logger
}

// NewResponder creates an OpenAI-compatible responder.
func NewResponder(cfg *Config) *Responder {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Responder{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       model,
		maxTokens:   maxTokens,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Respond implements retrieval.Responder.
func (r *Responder) Respond(ctx context.Context, query string, results []result.Result) (string, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	req := openai.ChatCompletionRequest{
		Model: r.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: userPrompt(query, results)},
		},
		MaxTokens:   r.maxTokens,
		Temperature: r.temperature,
	}

	resp, err := r.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", parseAPIError(err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("empty completion: %w", domain.ErrResponderError)
	}

	r.logger.Debug("Chat completion",
		zap.String("model", r.model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
	)
	return resp.Choices[0].Message.Content, nil
}

// HealthCheck verifies API availability via ListModels (free endpoint).
func (r *Responder) HealthCheck(ctx context.Context) error {
	if _, err := r.client.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// userPrompt lists the top programs as context ahead of the question.
func userPrompt(query string, results []result.Result) string {
	var b strings.Builder
	b.WriteString("Context: Available programs:\n")
	for i := range results {
		if i == ContextPrograms {
			break
		}
		p := results[i].Program()
		fmt.Fprintf(&b, "- %s at %s\n", p.Name, p.University)
		fmt.Fprintf(&b, "  Duration: %s, Tuition: %s\n", orNA(p.Duration), orNA(p.TuitionFee))
	}
	b.WriteString("\n\nUser question: ")
	b.WriteString(query)
	return b.String()
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

// parseAPIError extracts a human-readable error from the API response.
// All errors are wrapped with domain.ErrResponderError.
func parseAPIError(err error) error {
	wrap := domain.ErrResponderError

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if detail := extractDetail(reqErr.Body); detail != "" {
			return fmt.Errorf("chat API error %d: %s: %w", reqErr.HTTPStatusCode, detail, wrap)
		}
		return fmt.Errorf("chat API error %d: %w", reqErr.HTTPStatusCode, wrap)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w", apiErr.HTTPStatusCode, apiErr.Message, wrap)
	}

	return fmt.Errorf("chat request failed: %v: %w", err, wrap)
}

// extractDetail extracts the "detail" field from a JSON error body (some
// OpenAI-compatible gateways use it instead of "error").
func extractDetail(body []byte) string {
	var parsed struct {
		Detail string `json:"detail"`
	}
	if json.Unmarshal(body, &parsed) == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return ""
}
