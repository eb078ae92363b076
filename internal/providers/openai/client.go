package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	sdk "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/rs/zerolog"

	"thumbgen/internal/domain"
	"thumbgen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = fmt.Errorf("%w: OpenAI API key is not configured", domain.ErrConfiguration)

const (
	DefaultModel   = "dall-e-3"
	DefaultSize    = "1792x1024"
	DefaultQuality = "standard"
)

// Options configures the OpenAI images client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	Size           string
	Quality        string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// ImageAsset is the normalized result of one image generation.
type ImageAsset struct {
	URL           string
	Data          []byte
	MIME          string
	RevisedPrompt string
}

// Client wraps the OpenAI SDK for single-image generation.
type Client struct {
	apiKey     string
	baseURL    string
	model      string
	size       string
	quality    string
	httpClient *http.Client
	logger     *infra.Logger

	once sync.Once
	api  *sdk.Client
}

// NewClient constructs a client with defaults applied. The SDK client itself
// is built lazily so that a missing key never reaches the network layer.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		timeout := opts.RequestTimeout
		if timeout <= 0 {
			timeout = 90 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = DefaultModel
	}
	size := strings.TrimSpace(opts.Size)
	if size == "" {
		size = DefaultSize
	}
	quality := strings.TrimSpace(opts.Quality)
	if quality == "" {
		quality = DefaultQuality
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	return &Client{
		apiKey:     strings.TrimSpace(opts.APIKey),
		baseURL:    strings.TrimSpace(opts.BaseURL),
		model:      model,
		size:       size,
		quality:    quality,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

func (c *Client) sdkClient() *sdk.Client {
	c.once.Do(func() {
		opts := []option.RequestOption{
			option.WithAPIKey(c.apiKey),
			option.WithHTTPClient(c.httpClient),
			option.WithMaxRetries(0),
		}
		if c.baseURL != "" {
			opts = append(opts, option.WithBaseURL(c.baseURL))
		}
		client := sdk.NewClient(opts...)
		c.api = &client
	})
	return c.api
}

// GenerateImage issues exactly one images.generate call.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: openai: prompt is required", domain.ErrValidation)
	}

	params := sdk.ImageGenerateParams{
		Model:          sdk.ImageModel(c.model),
		Prompt:         prompt,
		N:              sdk.Int(1),
		Size:           sdk.ImageGenerateParamsSize(c.size),
		Quality:        sdk.ImageGenerateParamsQuality(c.quality),
		ResponseFormat: sdk.ImageGenerateParamsResponseFormat("url"),
	}
	resp, err := c.sdkClient().Images.Generate(ctx, params)
	if err != nil {
		return nil, classifyError(err)
	}
	if resp == nil || len(resp.Data) == 0 {
		return nil, fmt.Errorf("%w: openai: response contained no images", domain.ErrProvider)
	}

	img := resp.Data[0]
	asset := &ImageAsset{URL: strings.TrimSpace(img.URL), RevisedPrompt: img.RevisedPrompt}
	if b64 := strings.TrimSpace(img.B64JSON); b64 != "" {
		data, err := base64.StdEncoding.DecodeString(b64)
		if err != nil {
			return nil, fmt.Errorf("%w: openai: decode inline image: %w", domain.ErrProvider, err)
		}
		asset.Data = data
		asset.MIME = "image/png"
	}
	if asset.URL == "" && len(asset.Data) == 0 {
		return nil, fmt.Errorf("%w: openai: image url missing from response", domain.ErrProvider)
	}
	c.logger.Debug().
		Str("model", c.model).
		Str("size", c.size).
		Bool("inline", len(asset.Data) > 0).
		Msg("openai: generated image")
	return asset, nil
}

// classifyError maps SDK failures onto the domain taxonomy: an API response
// with a status is a provider failure, anything else never reached the API.
func classifyError(err error) error {
	var apiErr *sdk.Error
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: openai: status %d: %w", domain.ErrProvider, apiErr.StatusCode, err)
	}
	return fmt.Errorf("%w: openai: %w", domain.ErrNetwork, err)
}
