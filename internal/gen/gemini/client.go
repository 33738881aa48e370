// Package gemini implements the generation collaborator on the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"google.golang.org/genai"

	"github.com/skylark-tools/letterpipe/pkg/pipeline/core"
)

type Config struct {
	APIKey string
	Model  string

	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

// Client turns one prompt into one completion. Retry policy lives in
// the call engine, not here.
type Client struct {
	client *genai.Client
	model  string
}

func New(ctx context.Context, cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("GEMINI_MODEL is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, err
	}
	return &Client{client: client, model: strings.TrimSpace(cfg.Model)}, nil
}

// Complete sends prompt and returns the model's text response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(
		ctx,
		c.model,
		genai.Text(prompt),
		&genai.GenerateContentConfig{CandidateCount: 1},
	)
	if err != nil {
		return "", classifyErr(err)
	}
	return strings.TrimSpace(resp.Text()), nil
}

// classifyErr maps genai failures onto the call-engine taxonomy so
// the retry decision never inspects library types.
func classifyErr(err error) error {
	if err == nil {
		return nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 429:
			return core.RateLimited(err)
		case apiErr.Code/100 == 5:
			return core.Server(err)
		case apiErr.Code/100 == 4:
			return core.BadRequest(err)
		}
		return err
	}
	var ne net.Error
	if errors.As(err, &ne) {
		if ne.Timeout() {
			return core.Timeout(err)
		}
		return core.Connectivity(err)
	}
	return err
}
