// Package ai talks to an OpenAI-compatible chat completion endpoint for
// conversational replies and short chat titles.
package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CallOptions are the generation knobs for one call type.
type CallOptions struct {
	Temperature float64
	MaxTokens   int
}

// Config is injected at construction; call logic never reads ambient state.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Reply   CallOptions
	Title   CallOptions
}

type Client struct {
	cfg        Config
	httpClient *http.Client
}

func NewClient(cfg Config) *Client {
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 90 * time.Second},
	}
}

const replySystemPrompt = "You are a compassionate legal assistant."

const titleSystemPrompt = "You generate chat titles."

// GenerateReply renders the conversation history into the assistant prompt
// and returns the model's reply text.
func (c *Client) GenerateReply(ctx context.Context, history []ChatMessage, query string) (string, error) {
	var conversation strings.Builder
	for i, msg := range history {
		if i > 0 {
			conversation.WriteString("\n")
		}
		conversation.WriteString(capitalizeRole(msg.Role))
		conversation.WriteString(": ")
		conversation.WriteString(msg.Content)
	}

	prompt := fmt.Sprintf(`You are a helpful legal assistant. Use the user's past conversation to respond thoughtfully.
Do not mention you have access to prior history, but integrate it naturally.

Conversation history:
%s

User's Latest Query:
%s

Your response:`, conversation.String(), query)

	reply, err := c.complete(ctx, []ChatMessage{
		{Role: "system", Content: replySystemPrompt},
		{Role: "user", Content: prompt},
	}, c.cfg.Reply)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(reply), nil
}

// GenerateTitle asks for a 4-8 word summary of the opening exchange. An
// empty result is an error; the caller keeps its placeholder title.
func (c *Client) GenerateTitle(ctx context.Context, query, reply string) (string, error) {
	prompt := fmt.Sprintf(`You are an AI assistant that generates short and meaningful chat titles.
Given a user's query and an assistant's response, return a concise, 4-8 word title summarizing the topic.
Do not include quotes, punctuation, or emojis, just the title.

User's Query: %s
Assistant's Response: %s

Title:`, query, reply)

	title, err := c.complete(ctx, []ChatMessage{
		{Role: "system", Content: titleSystemPrompt},
		{Role: "user", Content: prompt},
	}, c.cfg.Title)
	if err != nil {
		return "", err
	}

	title = strings.TrimSpace(title)
	if title == "" {
		return "", fmt.Errorf("empty title from model")
	}
	return title, nil
}

type completionRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens"`
	Stream      bool          `json:"stream"`
}

func (c *Client) complete(ctx context.Context, messages []ChatMessage, opts CallOptions) (string, error) {
	reqBody := completionRequest{
		Model:       c.cfg.Model,
		Messages:    messages,
		Temperature: opts.Temperature,
		MaxTokens:   opts.MaxTokens,
		Stream:      false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshal completion request failed: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("build completion request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read completion response failed: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("completion response status %d: %s", resp.StatusCode, string(raw))
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("parse completion json failed: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("empty completion choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func capitalizeRole(role string) string {
	if role == "" {
		return role
	}
	return strings.ToUpper(role[:1]) + role[1:]
}
