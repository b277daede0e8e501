package intent

import "worldmodel_server/core/domain"

// =============================================================================
// Navigation Intent Analyzer (cascade step 3)
// =============================================================================

// navigationAnalyzer attributes a click the type of the page it led to: a
// click that landed on a product URL was a product selection even when the
// clicked element itself said nothing useful. Look-ahead only reads
// interactions that are already materialized.
type navigationAnalyzer struct{}

func newNavigationAnalyzer() *navigationAnalyzer { return &navigationAnalyzer{} }

func (a *navigationAnalyzer) Name() string       { return "navigation" }
func (a *navigationAnalyzer) Threshold() float64 { return 0.70 }

func (a *navigationAnalyzer) Analyze(in *Input) *domain.ClassificationResult {
	if in.Interaction.Interaction.Type != domain.InteractionClick || len(in.Following) == 0 {
		return nil
	}

	currentURL := in.Interaction.Context.PageURL
	nextURL := ""
	for _, next := range in.Following {
		if next.Context.PageURL != "" && next.Context.PageURL != currentURL {
			nextURL = next.Context.PageURL
			break
		}
	}
	if nextURL == "" {
		return nil
	}

	// Same path, different query/fragment: an in-page control, not navigation.
	if sameResource(currentURL, nextURL) {
		return &domain.ClassificationResult{
			Type:       domain.IntentUI,
			Confidence: 0.70,
			Reasoning:  "click changed only query/fragment",
		}
	}

	dest := classifyURL(nextURL)
	if dest == nil {
		return nil
	}

	switch dest.Type {
	case domain.IntentProduct:
		return &domain.ClassificationResult{
			Type:          domain.IntentProduct,
			Confidence:    0.85,
			Reasoning:     "click led to a product-detail page",
			ExtractedData: &domain.ExtractedData{URL: nextURL},
		}
	case domain.IntentCategory:
		return &domain.ClassificationResult{
			Type:          domain.IntentCategory,
			Confidence:    0.85,
			Reasoning:     "click led to a category page",
			ExtractedData: &domain.ExtractedData{URL: nextURL},
		}
	case domain.IntentNavigation:
		return &domain.ClassificationResult{
			Type:       domain.IntentNavigation,
			Confidence: 0.75,
			Reasoning:  "click led to the homepage",
		}
	}
	return nil
}
