package domain

import (
	"encoding/json"
	"time"
)

// GenerationStatus enumerates the outcome of a generation attempt.
type GenerationStatus string

const (
	GenerationStatusSucceeded GenerationStatus = "succeeded"
	GenerationStatusFailed    GenerationStatus = "failed"
)

// GenerationRecord is one logged provider call.
type GenerationRecord struct {
	ID           string           `json:"id"`
	SessionID    string           `json:"session_id,omitempty"`
	Provider     ProviderChoice   `json:"provider"`
	Title        string           `json:"title"`
	Prompt       string           `json:"prompt"`
	Status       GenerationStatus `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	Duration     time.Duration    `json:"-"`
	CreatedAt    time.Time        `json:"created_at"`
}

// MarshalJSON reports Duration in whole milliseconds.
func (r GenerationRecord) MarshalJSON() ([]byte, error) {
	type plain GenerationRecord
	return json.Marshal(struct {
		plain
		DurationMS int64 `json:"duration_ms"`
	}{plain: plain(r), DurationMS: r.Duration.Milliseconds()})
}
