package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Greeting opens every assistant transcript.
const Greeting = "Hello! I'm your AI book assistant. Describe what kind of book you're looking for, and I'll recommend something perfect for you!"

const requestTimeout = 60 * time.Second

// ErrEmptyPrompt is returned when the prompt is blank.
var ErrEmptyPrompt = errors.New("prompt is empty")

// Role identifies who wrote a Turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one entry of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

type recommendRequest struct {
	Prompt  string `json:"prompt"`
	History []Turn `json:"history,omitempty"`
}

type recommendResponse struct {
	Reply string `json:"reply"`
	Error string `json:"error,omitempty"`
}

// Client talks to the recommendation proxy. It never holds the model's API
// key.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient returns a client for the proxy at baseURL. An empty baseURL means
// no proxy; Recommend then answers with a local suggestion.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// Recommend asks the proxy for a reply to prompt given the prior turns. When
// the proxy is unreachable or has no key configured the local suggestion is
// returned instead.
func (c *Client) Recommend(ctx context.Context, history []Turn, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", ErrEmptyPrompt
	}
	if c == nil || c.baseURL == "" {
		return CannedReply(prompt), nil
	}

	body, err := json.Marshal(recommendRequest{Prompt: prompt, History: history})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/recommend", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		log.Printf("assistant proxy unreachable, using local reply: %v", err)
		return CannedReply(prompt), nil
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	var payload recommendResponse
	_ = json.Unmarshal(raw, &payload)

	if resp.StatusCode == http.StatusServiceUnavailable {
		log.Printf("assistant proxy not configured, using local reply")
		return CannedReply(prompt), nil
	}
	if resp.StatusCode >= 400 {
		if payload.Error != "" {
			return "", fmt.Errorf("assistant returned status %d: %s", resp.StatusCode, payload.Error)
		}
		return "", fmt.Errorf("assistant returned status %d", resp.StatusCode)
	}
	reply := strings.TrimSpace(payload.Reply)
	if reply == "" {
		return "", fmt.Errorf("assistant returned an empty reply")
	}
	return reply, nil
}

// CannedReply is the suggestion shown when no model is available.
func CannedReply(prompt string) string {
	return fmt.Sprintf("Based on your interest in %q, I recommend checking out some classics from our library! "+
		"Try exploring our Science Fiction or Classic Literature sections. "+
		"You can also use the search feature to find specific titles or authors.", prompt)
}
