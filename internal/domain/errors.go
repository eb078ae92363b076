package domain

import (
	"errors"
	"fmt"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrProvider           = errors.New("provider error")
	ErrNetwork            = errors.New("network error")
	ErrNotFound           = errors.New("not found")
	ErrInvalidState       = errors.New("invalid editor state")
	ErrGenerationInFlight = errors.New("generation already in flight")
	ErrInvalidPatch       = errors.New("invalid patch")
	ErrInvalidElement     = errors.New("invalid element")
)

// GenerationError is the terminal result of a failed provider call. It
// matches both its Kind sentinel and the underlying cause with errors.Is.
type GenerationError struct {
	Provider ProviderChoice
	Kind     error
	Err      error
}

// NewGenerationError wraps err for the given provider and kind.
func NewGenerationError(provider ProviderChoice, kind, err error) *GenerationError {
	return &GenerationError{Provider: provider, Kind: kind, Err: err}
}

func (e *GenerationError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Provider, e.Kind)
	}
	if errors.Is(e.Err, e.Kind) {
		return fmt.Sprintf("%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Provider, e.Kind, e.Err)
}

func (e *GenerationError) Unwrap() []error {
	out := make([]error, 0, 2)
	if e.Kind != nil {
		out = append(out, e.Kind)
	}
	if e.Err != nil {
		out = append(out, e.Err)
	}
	return out
}

// UserMessage is the single user-visible message for a failed generation.
func (e *GenerationError) UserMessage() string {
	return fmt.Sprintf("Failed to generate thumbnail with %s. Please try again.", e.Provider.DisplayName())
}

// ValidationError wraps a field-level message as ErrValidation.
func ValidationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
