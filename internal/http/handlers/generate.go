package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"thumbgen/internal/domain"
	"thumbgen/internal/editor"
	providerimage "thumbgen/internal/providers/image"
)

// keywordList accepts either a JSON array or the comma-separated string the
// form field produces.
type keywordList []string

func (k *keywordList) UnmarshalJSON(b []byte) error {
	var list []string
	if err := json.Unmarshal(b, &list); err == nil {
		*k = list
		return nil
	}
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	*k = domain.SplitKeywords(raw)
	return nil
}

type generateRequest struct {
	Title        string      `json:"title"`
	Subtitle     string      `json:"subtitle"`
	Keywords     keywordList `json:"keywords"`
	ColorPalette string      `json:"colorPalette"`
	Style        string      `json:"style"`
	Provider     string      `json:"provider"`
}

func (g generateRequest) toDomain(provider domain.ProviderChoice) domain.GenerationRequest {
	return domain.GenerationRequest{
		Title:        g.Title,
		Subtitle:     g.Subtitle,
		Keywords:     []string(g.Keywords),
		ColorPalette: g.ColorPalette,
		Style:        g.Style,
		Provider:     provider,
	}
}

type imageResponse struct {
	ImageURL string `json:"imageUrl"`
}

// GenerateOpenAI is endpoint A.
func (a *App) GenerateOpenAI(w http.ResponseWriter, r *http.Request) {
	a.generateWith(w, r, domain.ProviderOpenAI)
}

// GenerateImagen is endpoint B.
func (a *App) GenerateImagen(w http.ResponseWriter, r *http.Request) {
	a.generateWith(w, r, domain.ProviderImagen)
}

func (a *App) generateWith(w http.ResponseWriter, r *http.Request, provider domain.ProviderChoice) {
	var body generateRequest
	if !a.decode(w, r, &body, false) {
		return
	}
	req := body.toDomain(provider)
	if err := req.Validate(); err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}

	prompt := providerimage.BuildThumbnailPrompt(req)
	start := time.Now()
	ref, err := a.Generator.Generate(r.Context(), provider, prompt)
	a.record(r.Context(), req, prompt, start, err)
	if err != nil {
		a.fail(w, r, providerimage.Classify(provider, err), http.StatusInternalServerError)
		return
	}
	a.json(w, http.StatusOK, imageResponse{ImageURL: ref.Href()})
}

// Compare runs both providers for one request.
func (a *App) Compare(w http.ResponseWriter, r *http.Request) {
	var body generateRequest
	if !a.decode(w, r, &body, false) {
		return
	}
	result, err := editor.Compare(r.Context(), a.Generator, body.toDomain(""))
	if err != nil {
		a.fail(w, r, err, http.StatusInternalServerError)
		return
	}
	for provider, outcome := range result {
		if outcome.Err != nil {
			a.Logger.Warn().Err(outcome.Err).Str("provider", string(provider)).Msg("compare: provider failed")
		}
	}
	a.json(w, http.StatusOK, result)
}

func (a *App) record(ctx context.Context, req domain.GenerationRequest, prompt string, start time.Time, err error) {
	if a.Generations == nil {
		return
	}
	rec := &domain.GenerationRecord{
		ID:        uuid.NewString(),
		Provider:  req.Provider,
		Title:     req.Title,
		Prompt:    prompt,
		Status:    domain.GenerationStatusSucceeded,
		Duration:  time.Since(start),
		CreatedAt: start,
	}
	if err != nil {
		rec.Status = domain.GenerationStatusFailed
		rec.ErrorMessage = err.Error()
	}
	if recErr := a.Generations.Record(context.WithoutCancel(ctx), rec); recErr != nil {
		a.Logger.Warn().Err(recErr).Msg("record generation")
	}
}
