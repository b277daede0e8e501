package intent

import (
	"strings"

	"worldmodel_server/core/domain"
)

// =============================================================================
// Behavioral Context Analyzer (cascade step 4)
// =============================================================================

// behaviorAnalyzer uses the session-level stage to bias ambiguous element
// text: early-funnel sessions click categories, late-funnel sessions click
// products.
type behaviorAnalyzer struct{}

func newBehaviorAnalyzer() *behaviorAnalyzer { return &behaviorAnalyzer{} }

func (a *behaviorAnalyzer) Name() string       { return "behavior" }
func (a *behaviorAnalyzer) Threshold() float64 { return 0.60 }

func (a *behaviorAnalyzer) Analyze(in *Input) *domain.ClassificationResult {
	if in.Session == nil {
		return nil
	}

	text := normalizeWhitespace(in.Interaction.Element.Text)
	if text == "" {
		return nil
	}

	browsing := in.Session.BehaviorType == domain.BehaviorBrowse ||
		in.Session.ShoppingStage == domain.StageAwareness
	buying := in.Session.ShoppingStage == domain.StagePurchase ||
		in.Session.ShoppingStage == domain.StageConsideration

	if browsing && looksLikeCategoryName(text) {
		return &domain.ClassificationResult{
			Type:       domain.IntentCategory,
			Confidence: 0.70,
			Reasoning:  "browsing session, category-shaped text",
		}
	}
	if buying && looksLikeProductName(text) {
		return &domain.ClassificationResult{
			Type:       domain.IntentProduct,
			Confidence: 0.60,
			Reasoning:  "purchase-stage session, product-shaped text",
		}
	}
	return nil
}

// =============================================================================
// Name-Shape Heuristics (shared with the text fallback)
// =============================================================================

var categoryKeywords = []string{
	"shirts", "t-shirts", "tees", "pants", "trousers", "jeans", "dresses",
	"skirts", "shoes", "sneakers", "boots", "accessories", "bags",
	"tops", "bottoms", "outerwear", "jackets", "coats", "sweaters",
	"hoodies", "knitwear", "underwear", "swimwear", "activewear",
	"sale", "new arrivals", "men", "women", "kids", "baby",
}

var materialFitWords = []string{
	"cotton", "leather", "wool", "denim", "linen", "silk", "cashmere",
	"polyester", "slim", "regular", "relaxed", "skinny", "tapered", "fit",
}

var productKeywords = []string{
	"shirt", "tee", "jacket", "dress", "sneaker", "boot", "jean", "hoodie",
	"coat", "sweater", "cardigan", "blazer", "chino", "short", "skirt",
	"bag", "belt", "scarf", "sock", "trainer", "loafer", "sandal",
}

var productDescriptors = []string{
	"classic", "premium", "essential", "vintage", "organic", "recycled",
	"oversized", "cropped", "ribbed", "printed", "striped", "embroidered",
}

// looksLikeCategoryName: short, carries a catalog keyword, and free of
// material/fit words that would point at a single product.
func looksLikeCategoryName(text string) bool {
	t := strings.ToLower(text)
	if len(t) == 0 || len(t) > 40 {
		return false
	}
	for _, w := range materialFitWords {
		if strings.Contains(t, w) {
			return false
		}
	}
	words := strings.Fields(t)
	for _, kw := range categoryKeywords {
		if strings.Contains(kw, " ") {
			if strings.Contains(t, kw) {
				return true
			}
			continue
		}
		// Single-token keywords match whole words only: "men" must not match
		// inside "payment".
		for _, w := range words {
			if strings.Trim(w, ",&/'’") == kw {
				return true
			}
		}
	}
	return false
}

// looksLikeProductName: mid-length text carrying a product-type or
// descriptor word, the shape of a product card title.
func looksLikeProductName(text string) bool {
	if len(text) < 15 || len(text) > 150 {
		return false
	}
	t := strings.ToLower(text)
	for _, kw := range productKeywords {
		if strings.Contains(t, kw) {
			return true
		}
	}
	for _, kw := range productDescriptors {
		if strings.Contains(t, kw) {
			return true
		}
	}
	return false
}
