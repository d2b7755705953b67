package domain

import "testing"

func TestNormalizeClampsCount(t *testing.T) {
	cases := []struct {
		in   int
		want int
	}{
		{1, 1},
		{2, 2},
		{4, 4},
		{0, 1},
		{3, 1},
		{5, 1},
		{-1, 1},
		{100, 1},
	}
	for _, c := range cases {
		r := GenerationRequest{Prompt: "a cat", Count: c.in}
		r.Normalize()
		if r.Count != c.want {
			t.Fatalf("count %d normalized to %d, want %d", c.in, r.Count, c.want)
		}
	}
}

func TestNormalizeDefaults(t *testing.T) {
	r := GenerationRequest{Prompt: "a cat"}
	r.Normalize()
	if r.Size != SizeSquare {
		t.Fatalf("default size = %q, want %q", r.Size, SizeSquare)
	}
	if r.Quality != QualityMedium {
		t.Fatalf("default quality = %q, want %q", r.Quality, QualityMedium)
	}
}

func TestValidateRejectsEmptyPrompt(t *testing.T) {
	for _, prompt := range []string{"", "   ", "\t\n"} {
		r := GenerationRequest{Prompt: prompt}
		r.Normalize()
		if err := r.Validate(); err != ErrPromptRequired {
			t.Fatalf("prompt %q: Validate() = %v, want ErrPromptRequired", prompt, err)
		}
	}
}

func TestSettingsFromRequestFillsStyleDefaults(t *testing.T) {
	r := GenerationRequest{Prompt: "p", Size: SizeSquare, Quality: QualityHigh}
	s := SettingsFromRequest(r)
	if s.StyleType != StyleTypeStandard || s.StylePreset != StylePresetDefault {
		t.Fatalf("unexpected settings: %+v", s)
	}
	r.StyleType = StyleTypeDark
	r.StylePreset = StylePresetProposals
	s = SettingsFromRequest(r)
	if s.StyleType != StyleTypeDark || s.StylePreset != StylePresetProposals {
		t.Fatalf("explicit styles not carried: %+v", s)
	}
}
