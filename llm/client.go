// Package llm talks to an OpenAI-compatible chat-completion endpoint
// (DashScope compatible mode by default) and pulls the model text out of
// whatever response shape the provider returns.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single non-streaming completion.
type Request struct {
	System   string
	Messages []Message

	// EnableThinking is forwarded as the provider's enable_thinking flag
	// when set.
	EnableThinking *bool
}

// Response holds the extracted model text and the raw upstream body.
type Response struct {
	Text string
	Raw  []byte
}

type Client struct {
	cfg    Config
	client openai.Client
}

// New builds a client for cfg. Retries are disabled; a failed call is
// reported to the caller as is.
func New(cfg Config) (*Client, error) {
	cfg = cfg.Merge(Config{})
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}

	client := openai.NewClient(
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(baseURL(cfg.APIURL)),
		option.WithMaxRetries(0),
		option.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)

	return &Client{cfg: cfg, client: client}, nil
}

func (c *Client) Model() string {
	return c.cfg.Model
}

// Complete sends req and returns the model text. Transport failures yield an
// *UpstreamError of kind unreachable, non-2xx answers one of kind status.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.System != "" {
		messages = append(messages, openai.SystemMessage(req.System))
	}
	for _, m := range req.Messages {
		if strings.TrimSpace(m.Content) == "" {
			continue
		}
		switch m.Role {
		case "assistant":
			messages = append(messages, openai.AssistantMessage(m.Content))
		case "system":
			messages = append(messages, openai.SystemMessage(m.Content))
		default:
			messages = append(messages, openai.UserMessage(m.Content))
		}
	}

	var raw []byte
	opts := []option.RequestOption{
		option.WithResponseBodyInto(&raw),
		option.WithJSONSet("stream", false),
	}
	if req.EnableThinking != nil {
		opts = append(opts, option.WithJSONSet("enable_thinking", *req.EnableThinking))
	}

	_, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.cfg.Model),
		Messages: messages,
	}, opts...)
	if err != nil {
		return nil, upstreamError(err)
	}

	return &Response{Text: ModelText(raw), Raw: raw}, nil
}

func upstreamError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		detail := apiErr.Message
		if detail == "" {
			detail = http.StatusText(apiErr.StatusCode)
		}
		return &UpstreamError{Kind: KindStatus, StatusCode: apiErr.StatusCode, Detail: detail, Err: err}
	}
	return &UpstreamError{Kind: KindUnreachable, Detail: err.Error(), Err: err}
}
