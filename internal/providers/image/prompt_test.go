package image

import (
	"strings"
	"testing"

	"thumbgen/internal/domain"
)

var optionalClauses = []string{"Subtitle:", "Include elements related to:", "Use this color palette:", "Style:"}

func TestBuildThumbnailPromptTitleOnly(t *testing.T) {
	got := BuildThumbnailPrompt(domain.GenerationRequest{Title: "Epic Boss Fight", Provider: domain.ProviderOpenAI})

	if !strings.Contains(got, `titled "Epic Boss Fight".`) {
		t.Fatalf("prompt missing verbatim title: %s", got)
	}
	for _, clause := range optionalClauses {
		if strings.Contains(got, clause) {
			t.Fatalf("prompt should not contain %q: %s", clause, got)
		}
	}
	if !strings.HasSuffix(got, closingFormat) {
		t.Fatalf("prompt must end with closing instruction: %s", got)
	}
	if !strings.Contains(got, closingQuality) {
		t.Fatalf("prompt missing quality instruction: %s", got)
	}
}

func TestBuildThumbnailPromptAllFields(t *testing.T) {
	req := domain.GenerationRequest{
		Title:        "Gaming Thumbnail",
		Subtitle:     "Part 2",
		Keywords:     []string{"Gaming", " Action ", "", "Vibrant"},
		ColorPalette: "Dark with neon accents",
		Style:        "3D Render",
	}
	got := BuildThumbnailPrompt(req)

	checks := []string{
		`Create a YouTube thumbnail for a video titled "Gaming Thumbnail".`,
		`Subtitle: "Part 2".`,
		"Include elements related to: Gaming, Action, Vibrant.",
		"Use this color palette: Dark with neon accents.",
		"Style: 3D Render.",
	}
	for _, expect := range checks {
		if !strings.Contains(got, expect) {
			t.Fatalf("prompt missing %q: %s", expect, got)
		}
	}
	if lines := strings.Split(got, "\n"); len(lines) != 7 {
		t.Fatalf("line count = %d, want 7: %q", len(lines), lines)
	}
}

func TestBuildThumbnailPromptOmitsBlankFields(t *testing.T) {
	fields := []struct {
		name   string
		mutate func(*domain.GenerationRequest)
		clause string
	}{
		{"subtitle", func(r *domain.GenerationRequest) { r.Subtitle = "sub" }, "Subtitle:"},
		{"keywords", func(r *domain.GenerationRequest) { r.Keywords = []string{"kw"} }, "Include elements related to:"},
		{"palette", func(r *domain.GenerationRequest) { r.ColorPalette = "warm" }, "Use this color palette:"},
		{"style", func(r *domain.GenerationRequest) { r.Style = "Neon" }, "Style:"},
	}

	// every subset of the optional fields
	for mask := 0; mask < 1<<len(fields); mask++ {
		req := domain.GenerationRequest{Title: "  spaced <title> \"quoted\"  ", Keywords: []string{" ", ""}, Subtitle: "  "}
		for i, f := range fields {
			if mask&(1<<i) != 0 {
				f.mutate(&req)
			}
		}
		got := BuildThumbnailPrompt(req)
		if !strings.Contains(got, `titled "`+req.Title+`".`) {
			t.Fatalf("mask %b: title not verbatim: %s", mask, got)
		}
		for i, f := range fields {
			present := strings.Contains(got, f.clause)
			if want := mask&(1<<i) != 0; present != want {
				t.Fatalf("mask %b: clause %q present=%v want %v: %s", mask, f.clause, present, want, got)
			}
		}
	}
}

func TestBuildThumbnailPromptDeterministic(t *testing.T) {
	req := domain.GenerationRequest{Title: "Tech Review", Keywords: []string{"Tech"}, Style: "Minimalist"}
	if BuildThumbnailPrompt(req) != BuildThumbnailPrompt(req) {
		t.Fatalf("prompt builder must be deterministic")
	}
}
