package services

import (
	"context"
	"errors"
	"fmt"

	"chat-api/models"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// ErrEmptyCompletion is returned when the provider answers with a
// structurally valid response that carries no message content.
var ErrEmptyCompletion = errors.New("completion response has no content")

// UpstreamError is an error response from the completion provider. Status
// and Message are the provider's own.
type UpstreamError struct {
	Status  int
	Message string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("completion provider returned %d: %s", e.Status, e.Message)
}

// NetworkError is a transport failure before any provider response was
// received, timeouts included.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("completion request failed: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// CompletionConfig carries the deployment-level generation constants. These
// are not user-controllable.
type CompletionConfig struct {
	Model       string
	Temperature float32
	MaxTokens   int
}

// CompletionService talks to an OpenAI-compatible completion provider. The
// underlying client is constructed once and shared by all requests.
type CompletionService struct {
	client *openai.Client
	cfg    CompletionConfig
	logger *zap.Logger
}

// NewCompletionService builds a client for the provider at baseURL.
func NewCompletionService(apiKey, baseURL string, cfg CompletionConfig, logger *zap.Logger) *CompletionService {
	clientCfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientCfg.BaseURL = baseURL
	}
	return &CompletionService{
		client: openai.NewClientWithConfig(clientCfg),
		cfg:    cfg,
		logger: logger,
	}
}

// Complete sends the entire ordered history to the provider and returns the
// assistant's next turn. The provider is stateless across calls, so its
// conversational memory is exactly what the history contains.
//
// Failures come back as one of the tagged causes: ErrEmptyCompletion,
// *UpstreamError, or *NetworkError.
func (s *CompletionService) Complete(ctx context.Context, history []models.Message) (models.Message, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(history))
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
		})
	}

	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Messages:    messages,
		Temperature: s.cfg.Temperature,
		MaxTokens:   s.cfg.MaxTokens,
	})
	if err != nil {
		return models.Message{}, classifyProviderError(err)
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		s.logger.Error("completion provider returned an invalid response structure",
			zap.String("model", s.cfg.Model),
			zap.Int("choices", len(resp.Choices)))
		return models.Message{}, ErrEmptyCompletion
	}

	choice := resp.Choices[0].Message
	role := models.Role(choice.Role)
	if !role.Valid() {
		role = models.RoleAssistant
	}
	return models.Message{Role: role, Content: choice.Content}, nil
}

// classifyProviderError maps client errors onto the tagged causes by shape:
// an error response from the provider becomes *UpstreamError, anything that
// never produced a response becomes *NetworkError.
func classifyProviderError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Status: apiErr.HTTPStatusCode, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Status: reqErr.HTTPStatusCode, Message: reqErr.Error()}
	}
	return &NetworkError{Err: err}
}
