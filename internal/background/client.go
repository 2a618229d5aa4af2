// Package background fetches the random picture shown behind the list view.
package background

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"todo-web/internal/config"

	"github.com/gabriel-vasile/mimetype"
)

var (
	ErrDisabled         = errors.New("background images are disabled")
	ErrUnexpectedStatus = errors.New("unexpected status from image service")
	ErrTooLarge         = errors.New("image exceeds size limit")
	ErrNotImage         = errors.New("response is not an image")
)

// Config holds random image service configuration
type Config struct {
	Enabled  bool
	ImageURL string        // GET returns a random image
	Timeout  time.Duration // Whole request budget, redirects included
	MaxBytes int64         // Larger bodies are rejected
}

// NewConfigFromEnv creates a Config from environment variables
func NewConfigFromEnv() *Config {
	return &Config{
		Enabled:  config.GetEnvBool("BACKGROUND_ENABLED", true),
		ImageURL: config.GetEnv("BACKGROUND_IMAGE_URL", "https://picsum.photos/1920/1080"),
		Timeout:  config.GetEnvSeconds("BACKGROUND_TIMEOUT_SECONDS", 10*time.Second),
		MaxBytes: config.GetEnvInt64("BACKGROUND_MAX_BYTES", 5<<20),
	}
}

// Image is a fetched picture
type Image struct {
	Data        []byte
	ContentType string
}

// Client fetches images from the configured service
type Client struct {
	cfg  *Config
	http *http.Client
}

// NewClient creates a Client with its own HTTP client bounded by cfg.Timeout
func NewClient(cfg *Config) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}
}

// Fetch performs one GET against the image service. Failures are not retried.
func (c *Client) Fetch(ctx context.Context) (*Image, error) {
	if !c.cfg.Enabled {
		return nil, ErrDisabled
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.ImageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	req.Header.Set("Accept", "image/*")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	// Read one byte past the limit to tell "exactly at" from "over"
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.cfg.MaxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if int64(len(data)) > c.cfg.MaxBytes {
		return nil, ErrTooLarge
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "image/") {
		return nil, fmt.Errorf("%w: %s", ErrNotImage, detected.String())
	}

	return &Image{Data: data, ContentType: detected.String()}, nil
}
