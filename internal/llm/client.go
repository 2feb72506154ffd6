// Package llm talks to an OpenAI-compatible chat-completion endpoint
// (the Hugging Face router by default) and exposes streamed plan
// generation as a single cancellable call.
package llm

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// SystemInstruction is the fixed system message sent with every
// generation request.
const SystemInstruction = "You are an expert fitness and nutrition coach for students. Your goal is to create practical, budget-friendly, and effective workout and diet plans. Be encouraging and clear in your instructions. Format your response using Markdown."

// Config holds configuration for the chat-completion client.
type Config struct {
	Token       string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
}

// DefaultConfig returns the production parameters: 1024 output tokens,
// temperature 0.8, streamed delivery.
func DefaultConfig(token string) Config {
	return Config{
		Token:       token,
		BaseURL:     "https://router.huggingface.co/v1",
		Model:       "meta-llama/Meta-Llama-3-8B-Instruct",
		Timeout:     2 * time.Minute,
		MaxTokens:   1024,
		Temperature: 0.8,
	}
}

// Client is a streaming chat-completion client.
type Client struct {
	cfg         Config
	httpClient  *http.Client
	mu          sync.Mutex
	lastRequest time.Time
}

// New creates a Client. Zero-valued optional config fields fall back to
// the defaults.
func New(cfg Config) *Client {
	defaults := DefaultConfig(cfg.Token)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = defaults.MaxTokens
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = defaults.Temperature
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Temperature float64       `json:"temperature,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

type chatChunk struct {
	Choices []struct {
		Delta *struct {
			Role    string `json:"role,omitempty"`
			Content string `json:"content,omitempty"`
		} `json:"delta,omitempty"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Generate sends the prompt alongside the fixed system instruction and
// folds the streamed deltas into one string, trimmed of surrounding
// whitespace. Empty deltas (end-of-stream markers and role headers) are
// skipped, not errors. Any failure during stream setup or consumption
// returns an error and an empty string, never a partial accumulation.
// Cancelling the context aborts an in-flight stream. onDelta, when
// non-nil, observes each text fragment as it arrives.
func (c *Client) Generate(ctx context.Context, prompt string, onDelta func(delta string)) (string, error) {
	deltas, errs := c.stream(ctx, prompt)

	var accumulated strings.Builder
	for delta := range deltas {
		accumulated.WriteString(delta)
		if onDelta != nil {
			onDelta(delta)
		}
	}
	if err := <-errs; err != nil {
		return "", err
	}
	return strings.TrimSpace(accumulated.String()), nil
}

// stream starts a streamed chat completion and returns channels of
// incremental content deltas and a terminal error. Both channels are
// closed when the stream ends.
func (c *Client) stream(ctx context.Context, prompt string) (<-chan string, <-chan error) {
	contentChan := make(chan string, 100)
	errorChan := make(chan error, 1)

	go func() {
		defer close(contentChan)
		defer close(errorChan)

		// Auto-apply timeout if context has no deadline
		if _, hasDeadline := ctx.Deadline(); !hasDeadline {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
			defer cancel()
		}

		startTime := time.Now()

		if c.cfg.Token == "" {
			errorChan <- fmt.Errorf("API token not configured")
			return
		}

		// Rate limiting
		c.mu.Lock()
		elapsed := time.Since(c.lastRequest)
		if elapsed < 100*time.Millisecond {
			time.Sleep(100*time.Millisecond - elapsed)
		}
		c.lastRequest = time.Now()
		c.mu.Unlock()

		reqBody := chatRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: SystemInstruction},
				{Role: "user", Content: prompt},
			},
			MaxTokens:   c.cfg.MaxTokens,
			Temperature: c.cfg.Temperature,
			Stream:      true,
		}

		jsonData, err := json.Marshal(reqBody)
		if err != nil {
			errorChan <- fmt.Errorf("failed to marshal request: %w", err)
			return
		}

		// Retry loop for request setup and rate limits, before any
		// streaming begins.
		const maxRetries = 3
		var lastErr error

		for attempt := 0; attempt <= maxRetries; attempt++ {
			if attempt > 0 {
				select {
				case <-time.After(time.Duration(1<<uint(attempt-1)) * time.Second):
				case <-ctx.Done():
					errorChan <- ctx.Err()
					return
				}
			}

			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
			if err != nil {
				errorChan <- fmt.Errorf("failed to create request: %w", err)
				return
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
			req.Header.Set("Accept", "text/event-stream")

			resp, err := c.httpClient.Do(req)
			if err != nil {
				lastErr = fmt.Errorf("request failed: %w", err)
				continue
			}

			if resp.StatusCode == http.StatusTooManyRequests {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				lastErr = fmt.Errorf("rate limit exceeded (429): %s", strings.TrimSpace(string(body)))
				continue
			}

			if resp.StatusCode != http.StatusOK {
				body, _ := io.ReadAll(resp.Body)
				resp.Body.Close()
				errorChan <- fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
				return
			}

			if err := c.consume(ctx, resp.Body, contentChan); err != nil {
				resp.Body.Close()
				log.Error().Err(err).Dur("elapsed", time.Since(startTime)).Msg("Model stream failed")
				errorChan <- err
				return
			}
			resp.Body.Close()
			log.Debug().Dur("elapsed", time.Since(startTime)).Str("model", c.cfg.Model).Msg("Model stream completed")
			return
		}

		errorChan <- fmt.Errorf("max retries exceeded: %w", lastErr)
	}()

	return contentChan, errorChan
}

// consume reads server-sent events until the [DONE] sentinel, pushing
// non-empty content deltas to out. Chunks without a delta are skipped.
func (c *Client) consume(ctx context.Context, body io.Reader, out chan<- string) error {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			return nil
		}

		var chunk chatChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			return fmt.Errorf("malformed stream chunk: %w", err)
		}
		if chunk.Error != nil {
			return fmt.Errorf("API error: %s", chunk.Error.Message)
		}
		if len(chunk.Choices) > 0 && chunk.Choices[0].Delta != nil {
			delta := chunk.Choices[0].Delta.Content
			if delta != "" {
				select {
				case out <- delta:
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("stream read failed: %w", err)
	}
	return nil
}
