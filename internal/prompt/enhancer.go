// Package prompt builds the augmented prompt string sent to the image
// provider. Enhancement is a pure string transformation so that identical
// inputs always produce identical provider calls.
package prompt

import (
	"strings"

	"optemus/internal/domain"
)

const (
	darkClause  = " Use darker colors, shadows, and dramatic lighting."
	lightClause = " Use lighter colors, soft lighting, and a cheerful atmosphere."

	internalClause  = " Use a corporate style, professional and clean."
	proposalsClause = " Make it bold, attention-grabbing, and visually striking."
)

// variationClauses encourage diversity across variants of the same request.
// Four templates exist; count is clamped to at most 4 so they are exhaustive.
var variationClauses = []string{
	" Make this version unique with its own distinctive style and perspective.",
	" Create a completely different interpretation from the first version, with contrasting elements and viewpoint.",
	" Create a third unique version with different lighting, angle, and artistic approach from the previous versions.",
	" Create a fourth distinct version that explores a different aspect of the concept, with its own unique composition and elements.",
}

// Enhance augments basePrompt with style, preset and per-variant diversity
// clauses. variantIndex is 0-based among totalVariants requested.
func Enhance(basePrompt, styleType, stylePreset string, variantIndex, totalVariants int) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	switch styleType {
	case domain.StyleTypeDark:
		b.WriteString(darkClause)
	case domain.StyleTypeLight:
		b.WriteString(lightClause)
	}

	switch stylePreset {
	case domain.StylePresetInternal:
		b.WriteString(internalClause)
	case domain.StylePresetProposals:
		b.WriteString(proposalsClause)
	}

	if totalVariants > 1 && variantIndex >= 0 && variantIndex < len(variationClauses) {
		b.WriteString(variationClauses[variantIndex])
	}

	return b.String()
}
