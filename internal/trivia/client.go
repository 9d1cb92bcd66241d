// Package trivia fetches questions from the question-generation API.
package trivia

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"quizdrill/internal/model"
)

const (
	defaultBaseURL = "https://api.quizdrill.dev/v1/questions"
	defaultTimeout = 15 * time.Second
)

// Client talks to the question-generation API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint.
func WithBaseURL(url string) Option {
	return func(c *Client) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithAPIKey sets the bearer token sent with each request.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// NewClient constructs a Client with the given options.
func NewClient(opts ...Option) *Client {
	c := &Client{
		baseURL:    defaultBaseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type questionRequest struct {
	Topic string `json:"topic"`
	Index int    `json:"index"`
}

// GetQuestion requests one multiple-choice question for a topic. index is
// the zero-based position within the session, letting the service avoid
// repeats.
func (c *Client) GetQuestion(ctx context.Context, topic string, index int) (model.Question, error) {
	payload, err := json.Marshal(questionRequest{Topic: topic, Index: index})
	if err != nil {
		return model.Question{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(payload))
	if err != nil {
		return model.Question{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.Question{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return model.Question{}, fmt.Errorf("question api returned status %d", resp.StatusCode)
	}

	var q model.Question
	if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
		return model.Question{}, err
	}
	if err := validate(q); err != nil {
		return model.Question{}, err
	}
	return q, nil
}

func validate(q model.Question) error {
	if q.Text == "" {
		return fmt.Errorf("question api returned an empty question")
	}
	if len(q.Options) < 2 {
		return fmt.Errorf("question api returned %d options", len(q.Options))
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return fmt.Errorf("question api returned correct_index %d for %d options", q.CorrectIndex, len(q.Options))
	}
	return nil
}
