package openai

import (
	"errors"
	"strings"

	"callstack/pkg/classifier"
	"github.com/sashabaranov/go-openai"
	"golang.org/x/net/context"
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
}

type chatGPTService struct {
	client *openai.Client
	model  string
}

// NewChatGPT returns a classifier backend on the chat completions API in JSON
// mode.
func NewChatGPT(cfg Config) (classifier.IClassifier, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("openai API key is required")
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	return &chatGPTService{
		client: openai.NewClientWithConfig(clientCfg),
		model:  model,
	}, nil
}

func (c *chatGPTService) Complete(ctx context.Context, req classifier.Request) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.SystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: req.UserMessage()},
		},
		Temperature: 0,
		MaxTokens:   512,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in chat completion response")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
