// Package llm 呼叫託管的文字生成服務（Hugging Face 的 OpenAI 相容 chat completions）。
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"med_bridge/internal/metrics"
	"med_bridge/pkg/config"
)

var (
	ErrRateLimited   = errors.New("llm: rate limited")
	ErrQuotaExceeded = errors.New("llm: free tier limit reached")
	ErrEmptyResponse = errors.New("llm: empty response")
)

// Generator 最窄的生成介面，方便測試時替換
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// InferenceError 推論服務回傳非 2xx
type InferenceError struct {
	StatusCode int
	Body       string
	RetryAfter time.Duration
	kind       error
}

func (e *InferenceError) Error() string {
	return fmt.Sprintf("llm: api error %d: %s", e.StatusCode, e.Body)
}

func (e *InferenceError) Unwrap() error { return e.kind }

// ChatMessage chat completions 的單則訊息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message ChatMessage `json:"message"`
	} `json:"choices"`
}

type Client struct {
	httpClient  *http.Client
	baseURL     string
	apiKey      string
	model       string
	maxTokens   int
	temperature float64
}

// NewClient 建立推論客戶端；逾時由 http.Client 與呼叫端的 context 共同限制
func NewClient(cfg config.LLMConfig) *Client {
	return &Client{
		httpClient:  &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
	}
}

// Model 目前使用的模型名稱
func (c *Client) Model() string { return c.model }

// Generate 以單一 user 訊息送出 prompt
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	return c.Chat(ctx, []ChatMessage{{Role: "user", Content: prompt}})
}

// Chat 送出一次 chat completions 請求並回傳第一個候選的內容
func (c *Client) Chat(ctx context.Context, messages []ChatMessage) (string, error) {
	start := time.Now()
	text, err := c.chat(ctx, messages)

	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	metrics.LLMRequestDuration.WithLabelValues(outcome).Observe(time.Since(start).Seconds())
	return text, err
}

func (c *Client) chat(ctx context.Context, messages []ChatMessage) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   c.maxTokens,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("llm: encode request: %w", err)
	}

	url := fmt.Sprintf("%s/models/%s/v1/chat/completions", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("llm: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("llm: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("llm: read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		ie := &InferenceError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 300)}
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			ie.kind = ErrRateLimited
			ie.RetryAfter = parseRetryAfter(resp.Header.Get("Retry-After"))
		case http.StatusPaymentRequired:
			ie.kind = ErrQuotaExceeded
		}
		return "", ie
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", fmt.Errorf("llm: decode response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", ErrEmptyResponse
	}
	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", ErrEmptyResponse
	}
	return content, nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
