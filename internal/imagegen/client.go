// Package imagegen calls a hosted text-to-image inference API and normalizes
// the result to the fixed PNG format diary entries embed.
package imagegen

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg" // register JPEG decoder
	"image/png"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"shapediary/internal/config"
	"shapediary/internal/middleware"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register WebP decoder; some providers ignore Accept
)

const (
	// Generated images are landscape banners above each diary entry.
	ImageWidth  = 600
	ImageHeight = 300

	maxResponseBytes = 16 << 20
)

// Client requests images from a Hugging Face style inference endpoint.
type Client struct {
	baseURL string
	model   string
	token   string
	http    *http.Client
}

// NewClient builds a Client from application configuration.
func NewClient(cfg *config.Config) *Client {
	timeout := cfg.ImageTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{
		baseURL: cfg.HFAPIURL,
		model:   cfg.HFModel,
		token:   cfg.HFToken,
		http:    &http.Client{Timeout: timeout},
	}
}

type generateRequest struct {
	Inputs     string             `json:"inputs"`
	Parameters generateParameters `json:"parameters"`
}

type generateParameters struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Generate sends the prompt to the inference API and returns PNG bytes at
// ImageWidth x ImageHeight. Every failure mode (transport, quota, unusable
// payload) comes back as an error; callers treat it as a recoverable
// "no image" condition, never as fatal.
func (c *Client) Generate(ctx context.Context, prompt string) ([]byte, error) {
	body, err := json.Marshal(generateRequest{
		Inputs: prompt,
		Parameters: generateParameters{
			Width:  ImageWidth,
			Height: ImageHeight,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode generation request: %w", err)
	}

	endpoint, err := url.JoinPath(c.baseURL, c.model)
	if err != nil {
		return nil, fmt.Errorf("invalid inference endpoint: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to build generation request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "image/png")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("inference request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read inference response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("inference API returned %d: %s", resp.StatusCode, truncate(payload, 200))
	}

	normalized, err := normalizePNG(payload)
	if err != nil {
		return nil, err
	}

	middleware.Logger.InfoContext(ctx, "image generated",
		slog.String("model", c.model),
		slog.Int("bytes", len(normalized)),
		slog.Duration("elapsed", time.Since(start)),
	)
	return normalized, nil
}

// normalizePNG decodes whatever raster format the provider returned (png,
// jpeg or webp), scales it to the fixed output dimensions when the provider
// ignored them, and re-encodes as PNG.
func normalizePNG(payload []byte) ([]byte, error) {
	img, format, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("inference API returned an unusable payload: %w", err)
	}

	b := img.Bounds()
	if format == "png" && b.Dx() == ImageWidth && b.Dy() == ImageHeight {
		return payload, nil
	}

	dst := image.NewRGBA(image.Rect(0, 0, ImageWidth, ImageHeight))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Over, nil)

	buf := bytes.NewBuffer(nil)
	if err := png.Encode(buf, dst); err != nil {
		return nil, fmt.Errorf("failed to encode PNG: %w", err)
	}
	return buf.Bytes(), nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
