package intent

import (
	"strconv"
	"strings"
	"unicode"

	"worldmodel_server/core/domain"
)

// =============================================================================
// Text-Only Fallback (cascade step 5)
// =============================================================================

// textAnalyzer is the cascade's floor: filter obvious UI boilerplate to
// ignore, reapply the name-shape heuristics at reduced confidence, and
// default anything left to a low-confidence ignore. It always produces a
// result so that every interaction yields exactly one classification.
type textAnalyzer struct{}

func newTextAnalyzer() *textAnalyzer { return &textAnalyzer{} }

func (a *textAnalyzer) Name() string       { return "text" }
func (a *textAnalyzer) Threshold() float64 { return 0 }

var uiBoilerplatePhrases = []string{
	"sort by", "filter", "view all", "show more", "load more",
	"next", "previous", "page", "cart", "checkout", "sign in", "log in",
	"register", "menu", "close", "apply", "clear", "accept", "cancel",
	"wishlist", "compare", "back to top", "skip to",
}

func (a *textAnalyzer) Analyze(in *Input) *domain.ClassificationResult {
	text := normalizeWhitespace(in.Interaction.Element.Text)

	if isUIBoilerplate(text) {
		return &domain.ClassificationResult{
			Type:       domain.IntentIgnore,
			Confidence: 0.80,
			Reasoning:  "UI boilerplate text",
		}
	}

	if looksLikeCategoryName(text) {
		return &domain.ClassificationResult{
			Type:       domain.IntentCategory,
			Confidence: 0.60,
			Reasoning:  "category-shaped text, no stronger signal",
		}
	}
	if looksLikeProductName(text) {
		return &domain.ClassificationResult{
			Type:       domain.IntentProduct,
			Confidence: 0.50,
			Reasoning:  "product-shaped text, no stronger signal",
		}
	}

	return &domain.ClassificationResult{
		Type:       domain.IntentIgnore,
		Confidence: 0.50,
		Reasoning:  "cascade exhausted",
	}
}

// isUIBoilerplate filters text that is clearly a page control rather than an
// entity: known control phrases, shouty all-caps labels, bare numbers, and
// text too long to be a name.
func isUIBoilerplate(text string) bool {
	if text == "" {
		return true
	}
	if len(text) > 100 {
		return true
	}
	if _, err := strconv.Atoi(text); err == nil {
		return true
	}
	if isAllCaps(text) {
		return true
	}

	t := strings.ToLower(text)
	for _, phrase := range uiBoilerplatePhrases {
		if strings.Contains(t, phrase) {
			return true
		}
	}
	return false
}

// isAllCaps reports whether the text has letters and all of them are upper case.
func isAllCaps(text string) bool {
	hasLetter := false
	for _, r := range text {
		if unicode.IsLetter(r) {
			hasLetter = true
			if !unicode.IsUpper(r) {
				return false
			}
		}
	}
	return hasLetter
}
