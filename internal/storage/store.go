// Package storage keeps background and uploaded image bytes addressed by
// content hash, on the local filesystem or in S3.
package storage

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"thumbgen/internal/domain"
)

// ErrAssetNotFound is returned by Get for unknown keys.
var ErrAssetNotFound = fmt.Errorf("%w: asset", domain.ErrNotFound)

// AssetStore is implemented by FileStore and S3Store.
type AssetStore interface {
	Put(ctx context.Context, key string, data []byte, mime string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
}

// ContentKey derives the storage key of an asset from its bytes.
func ContentKey(data []byte, mime string) string {
	sum := sha256.Sum256(data)
	return "assets/" + hex.EncodeToString(sum[:]) + extensionFor(mime)
}

func extensionFor(mime string) string {
	switch strings.ToLower(strings.TrimSpace(mime)) {
	case "image/png":
		return ".png"
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".bin"
	}
}
