package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"os"
	"time"

	"blogr/app"
)

// ImageEndpoint is the Together image generation API.
var ImageEndpoint = "https://api.together.xyz/v1/images/generations"

// ImageModel is the image generation model to use.
var ImageModel = "black-forest-labs/FLUX.1-schnell-Free"

var imageClient = &http.Client{
	Timeout: 120 * time.Second,
}

var downloadClient = &http.Client{
	Timeout: 30 * time.Second,
}

type imageRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	N      int    `json:"n"`
	Size   string `json:"size"`
}

type imageResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// ImagePrompt builds the generation prompt for a topic.
func ImagePrompt(topic string) string {
	return fmt.Sprintf("A futuristic representation of %s in the world of cryptocurrency, "+
		"digital art style, high contrast, vibrant colors, blockchain background, "+
		"intricate details, concept art, 8k --ar 16:9", topic)
}

// GenerateImage asks the image model for a 16:9 picture of the topic and
// returns the raw image bytes.
func GenerateImage(ctx context.Context, topic string) ([]byte, error) {
	key := os.Getenv("TOGETHER_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("TOGETHER_API_KEY is not set")
	}

	body, err := json.Marshal(&imageRequest{
		Model:  ImageModel,
		Prompt: ImagePrompt(topic),
		N:      1,
		Size:   "1024x576",
	})
	if err != nil {
		return nil, err
	}

	var lastErr error

	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			delay := time.Duration(1<<attempt)*time.Second + time.Duration(rand.Intn(1000))*time.Millisecond
			app.Log("ai", "Retrying image generation in %v (attempt %d)", delay, attempt+1)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		url, err := requestImage(ctx, key, body)
		if err != nil {
			lastErr = err
			app.Log("ai", "Image generation failed: %v", err)
			continue
		}

		img, err := downloadImage(ctx, url)
		if err != nil {
			lastErr = err
			app.Log("ai", "Image download failed: %v", err)
			continue
		}

		app.Log("ai", "Generated image for %q (%d bytes)", truncateLog(topic, 60), len(img))
		return img, nil
	}

	return nil, fmt.Errorf("image generation failed after 3 attempts: %w", lastErr)
}

func requestImage(ctx context.Context, key string, body []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, "POST", ImageEndpoint, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	rsp, err := imageClient.Do(req)
	if err != nil {
		app.RecordAPICall("together", "POST", ImageEndpoint, 0, time.Since(start), err)
		return "", err
	}
	defer rsp.Body.Close()

	app.RecordAPICall("together", "POST", ImageEndpoint, rsp.StatusCode, time.Since(start), nil)

	b, err := io.ReadAll(rsp.Body)
	if err != nil {
		return "", err
	}

	if rsp.StatusCode != 200 {
		return "", fmt.Errorf("image api returned %d: %s", rsp.StatusCode, truncateLog(string(b), 200))
	}

	var out imageResponse
	if err := json.Unmarshal(b, &out); err != nil {
		return "", fmt.Errorf("decoding image response: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("image api error: %s", out.Error.Message)
	}
	if len(out.Data) == 0 || out.Data[0].URL == "" {
		return "", fmt.Errorf("image response contained no url")
	}

	return out.Data[0].URL, nil
}

func downloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	rsp, err := downloadClient.Do(req)
	if err != nil {
		app.RecordAPICall("together", "GET", url, 0, time.Since(start), err)
		return nil, err
	}
	defer rsp.Body.Close()

	app.RecordAPICall("together", "GET", url, rsp.StatusCode, time.Since(start), nil)

	if rsp.StatusCode != 200 {
		return nil, fmt.Errorf("image download returned %d", rsp.StatusCode)
	}

	return io.ReadAll(rsp.Body)
}
