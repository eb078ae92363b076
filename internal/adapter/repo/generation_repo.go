package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"thumbgen/internal/domain"
	"thumbgen/internal/infra"
	"thumbgen/internal/sqlinline"
)

// DefaultListLimit caps ListRecent when the caller passes no limit.
const DefaultListLimit = 50

// GenerationRepositoryPG implements domain.GenerationRepository on
// PostgreSQL through a marker-checking infra.SQLRunner.
type GenerationRepositoryPG struct {
	db infra.SQLExecutor
}

// NewGenerationRepository creates a repo backed by db.
func NewGenerationRepository(db infra.SQLExecutor) *GenerationRepositoryPG {
	return &GenerationRepositoryPG{db: db}
}

// EnsureSchema creates the generations table when missing.
func (r *GenerationRepositoryPG) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, sqlinline.QEnsureGenerationsTable); err != nil {
		return fmt.Errorf("repo: ensure generations table: %w", err)
	}
	return nil
}

// Record inserts one generation attempt.
func (r *GenerationRepositoryPG) Record(ctx context.Context, rec *domain.GenerationRecord) error {
	if rec == nil {
		return domain.ValidationError("generation record is nil")
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.Exec(ctx, sqlinline.QInsertGeneration,
		rec.ID, rec.SessionID, string(rec.Provider), rec.Title, rec.Prompt,
		string(rec.Status), rec.ErrorMessage, rec.Duration.Milliseconds(), rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("repo: insert generation: %w", err)
	}
	return nil
}

// ListRecent returns the newest records first.
func (r *GenerationRepositoryPG) ListRecent(ctx context.Context, limit int) ([]domain.GenerationRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	rows, err := r.db.Query(ctx, sqlinline.QListRecentGenerations, limit)
	if err != nil {
		return nil, fmt.Errorf("repo: list generations: %w", err)
	}
	defer rows.Close()

	items := make([]domain.GenerationRecord, 0, limit)
	for rows.Next() {
		var (
			rec        domain.GenerationRecord
			provider   string
			status     string
			durationMS int64
		)
		if err := rows.Scan(&rec.ID, &rec.SessionID, &provider, &rec.Title, &rec.Prompt, &status, &rec.ErrorMessage, &durationMS, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("repo: scan generation: %w", err)
		}
		rec.Provider = domain.ProviderChoice(provider)
		rec.Status = domain.GenerationStatus(status)
		rec.Duration = time.Duration(durationMS) * time.Millisecond
		items = append(items, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// MemoryGenerationRepository keeps the most recent records in process
// memory; it serves when no database is configured.
type MemoryGenerationRepository struct {
	mu      sync.Mutex
	max     int
	records []domain.GenerationRecord
}

// NewMemoryGenerationRepository keeps at most max records (DefaultListLimit
// when max <= 0).
func NewMemoryGenerationRepository(max int) *MemoryGenerationRepository {
	if max <= 0 {
		max = DefaultListLimit
	}
	return &MemoryGenerationRepository{max: max}
}

func (r *MemoryGenerationRepository) Record(_ context.Context, rec *domain.GenerationRecord) error {
	if rec == nil {
		return domain.ValidationError("generation record is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, *rec)
	if over := len(r.records) - r.max; over > 0 {
		r.records = append(r.records[:0:0], r.records[over:]...)
	}
	return nil
}

func (r *MemoryGenerationRepository) ListRecent(_ context.Context, limit int) ([]domain.GenerationRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > len(r.records) {
		limit = len(r.records)
	}
	out := make([]domain.GenerationRecord, 0, limit)
	for i := len(r.records) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, r.records[i])
	}
	return out, nil
}

var (
	_ domain.GenerationRepository = (*GenerationRepositoryPG)(nil)
	_ domain.GenerationRepository = (*MemoryGenerationRepository)(nil)
)
