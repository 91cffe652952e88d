// Package ai provides the generative calls for the blogr pipeline.
// Text generation goes through the Gemini API, images through Together.
package ai

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"os"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/semaphore"
	"google.golang.org/genai"

	"blogr/app"
)

const (
	maxRetries   = 5
	initialDelay = 5 * time.Second
)

var (
	// Limit concurrent generative requests to avoid rate limit churn
	llmSemaphore = semaphore.NewWeighted(2)
	llmTimeout   = 120 * time.Second

	clientOnce sync.Once
	client     *genai.Client
	clientErr  error
)

// Model returns the configured Gemini model name.
func Model() string {
	if m := os.Getenv("GEMINI_MODEL"); m != "" {
		return m
	}
	return "gemini-2.5-flash"
}

func getClient(ctx context.Context) (*genai.Client, error) {
	clientOnce.Do(func() {
		key := os.Getenv("GEMINI_API_KEY")
		if key == "" {
			clientErr = fmt.Errorf("GEMINI_API_KEY is not set")
			return
		}
		client, clientErr = genai.NewClient(ctx, &genai.ClientConfig{APIKey: key})
	})
	return client, clientErr
}

// generate sends a prompt to Gemini with retry on transient failures.
// Empty responses are treated as failures and retried.
func generate(ctx context.Context, prompt string) (string, error) {
	c, err := getClient(ctx)
	if err != nil {
		return "", err
	}

	if err := llmSemaphore.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("llm request queue full: %w", err)
	}
	defer llmSemaphore.Release(1)

	app.Log("ai", "[LLM] Prompt: %s", truncateLog(prompt, 100))

	var lastErr error

	for attempt := 0; attempt < maxRetries; attempt++ {
		callCtx, cancel := context.WithTimeout(ctx, llmTimeout)
		start := time.Now()
		rsp, err := c.Models.GenerateContent(callCtx, Model(), genai.Text(prompt), nil)
		cancel()

		status := 200
		if err != nil {
			status = 0
		}
		app.RecordAPICall("gemini", "POST", "models/"+Model(), status, time.Since(start), err)

		if err == nil {
			text := strings.TrimSpace(rsp.Text())
			if text != "" {
				return text, nil
			}
			err = fmt.Errorf("empty response from model")
		}

		lastErr = err
		app.Log("ai", "[LLM] Attempt %d failed: %v", attempt+1, err)

		if attempt < maxRetries-1 {
			sleep := time.Duration(float64(initialDelay)*math.Pow(2, float64(attempt))) +
				time.Duration(rand.Int63n(int64(2*time.Second)))
			app.Log("ai", "[LLM] Retrying in %v", sleep.Round(time.Millisecond))
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(sleep):
			}
		}
	}

	return "", fmt.Errorf("gemini call failed after %d attempts: %w", maxRetries, lastErr)
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func truncateLog(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return truncate(s, maxLen) + "..."
}
