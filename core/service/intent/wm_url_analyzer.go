package intent

import "worldmodel_server/core/domain"

// =============================================================================
// URL Structural Analyzer (cascade step 2)
// =============================================================================

// urlAnalyzer classifies from the URL path shape alone. URL structure is the
// strongest single signal after an explicit variant selector hit.
type urlAnalyzer struct{}

func newURLAnalyzer() *urlAnalyzer { return &urlAnalyzer{} }

func (a *urlAnalyzer) Name() string       { return "urlstruct" }
func (a *urlAnalyzer) Threshold() float64 { return 0.80 }

func (a *urlAnalyzer) Analyze(in *Input) *domain.ClassificationResult {
	return classifyURL(in.Interaction.Context.PageURL)
}

// classifyURL is shared with the navigation analyzer, which applies the same
// families to the look-ahead destination URL.
func classifyURL(url string) *domain.ClassificationResult {
	if url == "" {
		return nil
	}

	switch {
	case isProductURL(url):
		return &domain.ClassificationResult{
			Type:       domain.IntentProduct,
			Confidence: 0.95,
			Reasoning:  "product-detail URL pattern",
		}
	case isCategoryURL(url):
		return &domain.ClassificationResult{
			Type:       domain.IntentCategory,
			Confidence: 0.90,
			Reasoning:  "category URL pattern",
		}
	case homepageURLPattern.MatchString(url):
		return &domain.ClassificationResult{
			Type:       domain.IntentNavigation,
			Confidence: 0.80,
			Reasoning:  "homepage URL pattern",
		}
	}
	return nil
}
