package storage

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	_ "golang.org/x/image/webp"

	"thumbgen/internal/domain"
)

// DefaultMaxBytes caps downloaded and decoded images.
const DefaultMaxBytes int64 = 20 << 20

// Asset is an image persisted in an AssetStore.
type Asset struct {
	Key  string
	MIME string
	Data []byte
}

// Resolver turns an image reference (http(s) URL or data: URL) into a stored
// asset.
type Resolver struct {
	store      AssetStore
	httpClient *http.Client
	maxBytes   int64
}

// NewResolver builds a resolver writing into store. A nil client means
// NewDownloadClient with a one minute timeout.
func NewResolver(store AssetStore, httpClient *http.Client, maxBytes int64) *Resolver {
	if httpClient == nil {
		httpClient = NewDownloadClient(60 * time.Second)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Resolver{store: store, httpClient: httpClient, maxBytes: maxBytes}
}

// Store exposes the underlying asset store.
func (r *Resolver) Store() AssetStore {
	return r.store
}

// Resolve fetches or decodes ref and stores the bytes under their content key.
func (r *Resolver) Resolve(ctx context.Context, ref string) (Asset, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return Asset{}, domain.ValidationError("image reference is required")
	}
	var (
		data []byte
		mime string
		err  error
	)
	switch {
	case strings.HasPrefix(ref, "data:"):
		data, mime, err = decodeDataURL(ref)
	case strings.HasPrefix(ref, "http://"), strings.HasPrefix(ref, "https://"):
		data, mime, err = r.download(ctx, ref)
	default:
		err = domain.ValidationError("unsupported image reference scheme")
	}
	if err != nil {
		return Asset{}, err
	}
	if int64(len(data)) > r.maxBytes {
		return Asset{}, domain.ValidationError("image exceeds %d bytes", r.maxBytes)
	}
	return r.Save(ctx, data, mime)
}

// Save stores raw image bytes. Anything that does not decode as png, jpeg,
// gif or webp is rejected before it reaches the store; the stored content
// type is the decoded format.
func (r *Resolver) Save(ctx context.Context, data []byte, mime string) (Asset, error) {
	if len(data) == 0 {
		return Asset{}, domain.ValidationError("image is empty")
	}
	if declared := normalizeMIME(mime, data); !isImageMIME(declared) {
		return Asset{}, domain.ValidationError("content type %q is not an image", declared)
	}
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Asset{}, domain.ValidationError("unsupported or corrupt image: %v", err)
	}
	mime = "image/" + format
	key, err := r.store.Put(ctx, ContentKey(data, mime), data, mime)
	if err != nil {
		return Asset{}, err
	}
	return Asset{Key: key, MIME: mime, Data: data}, nil
}

// Load reads a previously stored asset.
func (r *Resolver) Load(ctx context.Context, key string) ([]byte, error) {
	return r.store.Get(ctx, key)
}

func (r *Resolver) download(ctx context.Context, imageURL string) ([]byte, string, error) {
	parsed, err := url.Parse(imageURL)
	if err != nil || parsed.Host == "" {
		return nil, "", domain.ValidationError("invalid image url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		return nil, "", fmt.Errorf("storage: build download request: %w", err)
	}
	resp, err := r.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, ErrBlockedAddress) {
			return nil, "", fmt.Errorf("%w: image url: %w", domain.ErrValidation, ErrBlockedAddress)
		}
		return nil, "", fmt.Errorf("%w: storage: download image: %w", domain.ErrNetwork, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return nil, "", fmt.Errorf("%w: storage: download status %d", domain.ErrProvider, resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, r.maxBytes+1))
	if err != nil {
		return nil, "", fmt.Errorf("%w: storage: read image: %w", domain.ErrNetwork, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

func decodeDataURL(ref string) ([]byte, string, error) {
	meta, payload, ok := strings.Cut(strings.TrimPrefix(ref, "data:"), ",")
	if !ok {
		return nil, "", domain.ValidationError("malformed data url")
	}
	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if !isBase64 {
		return nil, "", domain.ValidationError("data url must be base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, "", errors.Join(domain.ValidationError("data url payload is not valid base64"), err)
	}
	return data, mime, nil
}

// isImageMIME accepts image types and the generic types servers send for
// binary bodies; the decoder has the final word.
func isImageMIME(mime string) bool {
	return strings.HasPrefix(mime, "image/") || mime == "application/octet-stream" || mime == "binary/octet-stream"
}

func normalizeMIME(mime string, data []byte) string {
	mime = strings.ToLower(strings.TrimSpace(mime))
	if i := strings.IndexByte(mime, ';'); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" || mime == "application/octet-stream" || mime == "binary/octet-stream" {
		mime = http.DetectContentType(data)
		if i := strings.IndexByte(mime, ';'); i >= 0 {
			mime = mime[:i]
		}
	}
	return mime
}
