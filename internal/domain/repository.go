package domain

import "context"

// GenerationRepository persists generation attempts.
type GenerationRepository interface {
	Record(ctx context.Context, rec *GenerationRecord) error
	ListRecent(ctx context.Context, limit int) ([]GenerationRecord, error)
}
