package google

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"thumbgen/internal/domain"
	"thumbgen/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without credentials.
var ErrMissingAPIKey = fmt.Errorf("%w: Google API key is not configured", domain.ErrConfiguration)

const (
	DefaultModel       = "imagen-3.0-generate-002"
	DefaultAspectRatio = "16:9"
)

// Options configures the Imagen client.
type Options struct {
	APIKey         string
	BaseURL        string
	Model          string
	AspectRatio    string
	HTTPClient     *http.Client
	Logger         *infra.Logger
	RequestTimeout time.Duration
}

// ImageAsset is the normalized result of one Imagen call.
type ImageAsset struct {
	Data []byte
	MIME string
}

// imagesAPI is the slice of genai.Models used here.
type imagesAPI interface {
	GenerateImages(ctx context.Context, model string, prompt string, config *genai.GenerateImagesConfig) (*genai.GenerateImagesResponse, error)
}

// Client wraps the genai SDK for Imagen text-to-image calls.
type Client struct {
	apiKey      string
	baseURL     string
	model       string
	aspectRatio string
	httpClient  *http.Client
	logger      *infra.Logger

	once    sync.Once
	api     imagesAPI
	initErr error
}

// NewClient constructs a client with defaults applied. The genai client is
// created on first use, after the credential check.
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
	aspect := strings.TrimSpace(opts.AspectRatio)
	if aspect == "" {
		aspect = DefaultAspectRatio
	}
	logger := opts.Logger
	if logger == nil {
		l := infra.Logger(zerolog.New(io.Discard))
		logger = &l
	}
	return &Client{
		apiKey:      strings.TrimSpace(opts.APIKey),
		baseURL:     strings.TrimSpace(opts.BaseURL),
		model:       model,
		aspectRatio: aspect,
		httpClient:  httpClient,
		logger:      logger,
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

func (c *Client) images(ctx context.Context) (imagesAPI, error) {
	c.once.Do(func() {
		if c.api != nil {
			return
		}
		cfg := &genai.ClientConfig{
			APIKey:     c.apiKey,
			Backend:    genai.BackendGeminiAPI,
			HTTPClient: c.httpClient,
		}
		if c.baseURL != "" {
			cfg.HTTPOptions = genai.HTTPOptions{BaseURL: c.baseURL}
		}
		client, err := genai.NewClient(ctx, cfg)
		if err != nil {
			c.initErr = fmt.Errorf("%w: google: init client: %w", domain.ErrConfiguration, err)
			return
		}
		c.api = client.Models
	})
	return c.api, c.initErr
}

// GenerateImage requests a single 16:9 image and returns its inline bytes.
func (c *Client) GenerateImage(ctx context.Context, prompt string) (*ImageAsset, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, fmt.Errorf("%w: google: prompt is required", domain.ErrValidation)
	}
	api, err := c.images(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := api.GenerateImages(ctx, c.model, prompt, &genai.GenerateImagesConfig{
		NumberOfImages: 1,
		AspectRatio:    c.aspectRatio,
	})
	if err != nil {
		return nil, classifyError(err)
	}
	if resp == nil {
		return nil, fmt.Errorf("%w: google: empty response", domain.ErrProvider)
	}
	for _, generated := range resp.GeneratedImages {
		if generated == nil || generated.Image == nil || len(generated.Image.ImageBytes) == 0 {
			continue
		}
		mime := strings.TrimSpace(generated.Image.MIMEType)
		if mime == "" {
			mime = "image/png"
		}
		c.logger.Debug().
			Str("model", c.model).
			Int("bytes", len(generated.Image.ImageBytes)).
			Msg("google: generated image")
		return &ImageAsset{Data: generated.Image.ImageBytes, MIME: mime}, nil
	}
	return nil, fmt.Errorf("%w: google: response contained no image data", domain.ErrProvider)
}

func classifyError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%w: google: status %d: %w", domain.ErrProvider, apiErr.Code, err)
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return fmt.Errorf("%w: google: status %d: %w", domain.ErrProvider, apiErrPtr.Code, err)
	}
	return fmt.Errorf("%w: google: %w", domain.ErrNetwork, err)
}
