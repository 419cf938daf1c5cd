package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// OpenAITransport delivers attempts to an OpenAI-compatible endpoint, such
// as the batch proxy. SDK-level retries are disabled; retrying is the
// driver's job, and double retry layers would stretch the backoff schedule.
type OpenAITransport struct {
	client openai.Client
}

type TransportOptions struct {
	BaseURL string
}

type TransportOption func(*TransportOptions)

func WithBaseURL(url string) TransportOption {
	return func(o *TransportOptions) {
		o.BaseURL = url
	}
}

func NewOpenAITransport(apiKey string, opts ...TransportOption) (*OpenAITransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}

	options := &TransportOptions{}
	for _, opt := range opts {
		opt(options)
	}

	clientOptions := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	}
	if options.BaseURL != "" {
		clientOptions = append(clientOptions, option.WithBaseURL(options.BaseURL))
	}

	return &OpenAITransport{
		client: openai.NewClient(clientOptions...),
	}, nil
}

func (t *OpenAITransport) Send(ctx context.Context, req *Request, timeout time.Duration, idempotencyKey string) Outcome {
	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(req.Model),
		Messages: toOpenAIMessages(req),
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(req.MaxTokens)
	}

	completion, err := t.client.Chat.Completions.New(ctx, params,
		option.WithHeader(IdempotencyKeyHeader, idempotencyKey),
		option.WithRequestTimeout(timeout),
	)
	if err != nil {
		return classifyOpenAIError(err)
	}

	resp := &Response{
		ID:    completion.ID,
		Model: completion.Model,
		Usage: Usage{
			InputTokens:  completion.Usage.PromptTokens,
			OutputTokens: completion.Usage.CompletionTokens,
			TotalTokens:  completion.Usage.TotalTokens,
		},
	}
	if len(completion.Choices) > 0 {
		resp.Content = completion.Choices[0].Message.Content
	}

	return Success(resp)
}

func toOpenAIMessages(req *Request) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}

	for _, message := range req.Messages {
		switch message.Role {
		case RoleSystem:
			messages = append(messages, openai.SystemMessage(message.Content))
		case RoleAssistant:
			messages = append(messages, openai.AssistantMessage(message.Content))
		default:
			messages = append(messages, openai.UserMessage(message.Content))
		}
	}

	return messages
}

func classifyOpenAIError(err error) Outcome {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return Outcome{
			Kind:       ClassifyStatus(apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Err:        err,
		}
	}

	return ClassifyError(err)
}
