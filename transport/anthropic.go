package transport

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicTransport delivers attempts to the Anthropic Messages API (or a
// proxy speaking it) behind the same boundary as the OpenAI transport, so
// the driver stays provider-agnostic.
type AnthropicTransport struct {
	client anthropic.Client
}

func NewAnthropicTransport(apiKey string, opts ...TransportOption) (*AnthropicTransport, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
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

	return &AnthropicTransport{
		client: anthropic.NewClient(clientOptions...),
	}, nil
}

func (t *AnthropicTransport) Send(ctx context.Context, req *Request, timeout time.Duration, idempotencyKey string) Outcome {
	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultAnthropicMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  toAnthropicMessages(req),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: req.System},
		}
	}

	message, err := t.client.Messages.New(ctx, params,
		option.WithHeader(IdempotencyKeyHeader, idempotencyKey),
		option.WithRequestTimeout(timeout),
	)
	if err != nil {
		return classifyAnthropicError(err)
	}

	resp := &Response{
		ID:    message.ID,
		Model: string(message.Model),
		Usage: Usage{
			InputTokens:  message.Usage.InputTokens,
			OutputTokens: message.Usage.OutputTokens,
			TotalTokens:  message.Usage.InputTokens + message.Usage.OutputTokens,
		},
	}
	for _, block := range message.Content {
		if block.Type == "text" {
			resp.Content += block.Text
		}
	}

	return Success(resp)
}

func toAnthropicMessages(req *Request) []anthropic.MessageParam {
	messages := make([]anthropic.MessageParam, 0, len(req.Messages))
	for _, message := range req.Messages {
		switch message.Role {
		case RoleAssistant:
			messages = append(messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(message.Content)))
		default:
			messages = append(messages, anthropic.NewUserMessage(anthropic.NewTextBlock(message.Content)))
		}
	}

	return messages
}

func classifyAnthropicError(err error) Outcome {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return Outcome{
			Kind:       ClassifyStatus(apiErr.StatusCode),
			StatusCode: apiErr.StatusCode,
			Err:        err,
		}
	}

	return ClassifyError(err)
}
