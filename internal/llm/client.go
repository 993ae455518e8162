package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// ChatClient is an OpenAI-compatible chat-completions client. Groq,
// DeepSeek and the HuggingFace router all speak this protocol.
type ChatClient struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *logrus.Logger
}

func NewChatClient(name, baseURL, apiKey, model string, logger *logrus.Logger) *ChatClient {
	return &ChatClient{
		name:    name,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		logger: logger,
	}
}

// NewHuggingFace talks to the HuggingFace inference router.
func NewHuggingFace(apiKey, model string, logger *logrus.Logger) *ChatClient {
	return NewChatClient("huggingface", "https://router.huggingface.co/v1", apiKey, model, logger)
}

// NewGroq talks to the Groq OpenAI-compatible endpoint.
func NewGroq(apiKey, model string, logger *logrus.Logger) *ChatClient {
	return NewChatClient("groq", "https://api.groq.com/openai/v1", apiKey, model, logger)
}

// NewDeepSeek talks to the DeepSeek chat API.
func NewDeepSeek(apiKey, model string, logger *logrus.Logger) *ChatClient {
	return NewChatClient("deepseek", "https://api.deepseek.com/v1", apiKey, model, logger)
}

func (c *ChatClient) Name() string {
	return c.name
}

func (c *ChatClient) Configured() bool {
	return c.apiKey != ""
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Call sends one chat completion request and returns the raw text of the
// first choice.
func (c *ChatClient) Call(ctx context.Context, systemMessage, prompt string, temperature float64, maxTokens int) (string, error) {
	payload := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemMessage},
			{Role: "user", Content: prompt},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewBuffer(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	c.logger.WithFields(logrus.Fields{
		"provider":    c.name,
		"model":       c.model,
		"prompt_size": len(prompt),
		"max_tokens":  maxTokens,
	}).Debug("Calling LLM provider")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	responseBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("provider returned status %d: %s", resp.StatusCode, string(responseBody))
	}

	var parsed chatResponse
	if err := json.Unmarshal(responseBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("provider returned no choices")
	}

	return strings.TrimSpace(parsed.Choices[0].Message.Content), nil
}
