package imagegen

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"optemus/internal/domain"
)

// OpenAIOptions configures the OpenAI image generator.
type OpenAIOptions struct {
	APIKey     string
	Model      string
	BaseURL    string
	HTTPClient *http.Client
	Timeout    time.Duration
	MaxRetries int
}

// OpenAIGenerator wraps the OpenAI images endpoint. Transient failures are
// retried inside the wrapper with a small fixed budget; content rejections
// and auth failures are never retried.
type OpenAIGenerator struct {
	client     *openai.Client
	model      string
	maxRetries int
}

// NewOpenAIGenerator builds a generator with a bounded request timeout.
func NewOpenAIGenerator(opts OpenAIOptions) (*OpenAIGenerator, error) {
	if strings.TrimSpace(opts.APIKey) == "" {
		return nil, errors.New("imagegen: OpenAI API key is required")
	}
	cfg := openai.DefaultConfig(strings.TrimSpace(opts.APIKey))
	if opts.BaseURL != "" {
		cfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	}
	if opts.HTTPClient != nil {
		cfg.HTTPClient = opts.HTTPClient
	} else {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = 60 * time.Second
		}
		cfg.HTTPClient = &http.Client{Timeout: timeout}
	}
	model := opts.Model
	if model == "" {
		model = "gpt-image-1"
	}
	retries := opts.MaxRetries
	if retries < 0 {
		retries = 0
	} else if retries == 0 {
		retries = 2
	}
	return &OpenAIGenerator{
		client:     openai.NewClientWithConfig(cfg),
		model:      model,
		maxRetries: retries,
	}, nil
}

// Generate requests a single image for the given prompt.
func (g *OpenAIGenerator) Generate(ctx context.Context, prompt, size, quality string) (Result, error) {
	if g == nil {
		return Result{}, errors.New("imagegen: generator not configured")
	}

	req := openai.ImageRequest{
		Model:   g.model,
		Prompt:  prompt,
		N:       1,
		Size:    size,
		Quality: quality,
	}

	var lastErr error
	for attempt := 0; attempt <= g.maxRetries; attempt++ {
		resp, err := g.client.CreateImage(ctx, req)
		if err != nil {
			mapped := mapOpenAIError(err)
			lastErr = mapped
			if retryable(mapped) && attempt < g.maxRetries {
				continue
			}
			return Result{}, mapped
		}
		if len(resp.Data) == 0 {
			return Result{}, domain.ErrEmptyResult
		}
		return extractResult(resp.Data[0])
	}
	return Result{}, lastErr
}

func extractResult(d openai.ImageResponseDataInner) (Result, error) {
	if d.B64JSON != "" {
		raw, err := base64.StdEncoding.DecodeString(d.B64JSON)
		if err != nil {
			return Result{}, fmt.Errorf("imagegen: decode image payload: %w", err)
		}
		return Result{Data: raw}, nil
	}
	if d.URL != "" {
		return Result{URL: d.URL}, nil
	}
	return Result{}, domain.ErrEmptyResult
}

func retryable(err error) bool {
	return errors.Is(err, domain.ErrProviderTimeout) || errors.Is(err, domain.ErrProviderQuota)
}

// mapOpenAIError classifies provider failures so callers can react per kind.
// Content rejections must stay distinct from infrastructure failures: only
// the former is shown to the user verbatim and never retried.
func mapOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		code, _ := apiErr.Code.(string)
		switch {
		case code == "content_policy_violation" || code == "moderation_blocked":
			return fmt.Errorf("%w: %s", domain.ErrContentRejected, apiErr.Message)
		case code == "insufficient_quota" || apiErr.HTTPStatusCode == http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", domain.ErrProviderQuota, apiErr.Message)
		case apiErr.HTTPStatusCode == http.StatusUnauthorized || code == "invalid_api_key":
			return fmt.Errorf("%w: %s", domain.ErrProviderAuth, apiErr.Message)
		case apiErr.HTTPStatusCode == http.StatusBadRequest:
			return fmt.Errorf("%w: %s", domain.ErrContentRejected, apiErr.Message)
		case apiErr.HTTPStatusCode >= http.StatusInternalServerError:
			return fmt.Errorf("%w: %s", domain.ErrProviderTimeout, apiErr.Message)
		}
		return fmt.Errorf("imagegen: provider error: %s", apiErr.Message)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		if reqErr.HTTPStatusCode == http.StatusUnauthorized {
			return fmt.Errorf("%w: http %d", domain.ErrProviderAuth, reqErr.HTTPStatusCode)
		}
		return fmt.Errorf("%w: http %d", domain.ErrProviderTimeout, reqErr.HTTPStatusCode)
	}

	// Anything else is a transport-level failure.
	return fmt.Errorf("%w: %v", domain.ErrProviderTimeout, err)
}

var _ Generator = (*OpenAIGenerator)(nil)
