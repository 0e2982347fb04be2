package ai

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/korjavin/docquizbot/logger"
)

const (
	deepseekAPIURL = "https://api.deepseek.com/v1/chat/completions"
	deepseekModel  = "deepseek-chat"

	deepseekSystemPrompt = "You write exam questions. Read the passage after \"generate question:\" " +
		"and reply with exactly one short question about it, ending with a question mark. " +
		"Reply with the question only, in the language of the passage."
)

// DeepseekClient generates questions through the Deepseek chat completions API
type DeepseekClient struct {
	apiKey string
	url    string
	http   *http.Client
	log    *logger.Logger
}

// NewDeepseekClient creates a new Deepseek API client
func NewDeepseekClient(apiKey string, log *logger.Logger) *DeepseekClient {
	return &DeepseekClient{
		apiKey: apiKey,
		url:    deepseekAPIURL,
		http:   &http.Client{},
		log:    log.With("component", "DeepseekClient"),
	}
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepseekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepseekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

type deepseekResponseChoice struct {
	Message deepseekMessage `json:"message"`
}

type deepseekResponse struct {
	Choices []deepseekResponseChoice `json:"choices"`
	ID      string                   `json:"id,omitempty"`
}

// Infer asks the chat model for one question about the prompt's passage.
func (c *DeepseekClient) Infer(ctx context.Context, prompt string) (string, error) {
	reqBody := deepseekRequest{
		Model: deepseekModel,
		Messages: []deepseekMessage{
			{Role: "system", Content: deepseekSystemPrompt},
			{Role: "user", Content: prompt},
		},
		MaxTokens:   128,
		Temperature: 0.7,
	}

	var resp deepseekResponse
	if err := postJSON(ctx, c.http, c.log, c.url, c.apiKey, reqBody, &resp); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no choices in API response")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
