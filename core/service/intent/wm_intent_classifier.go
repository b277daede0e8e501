// Package intent implements the per-interaction intent classification cascade.
//
// Analyzers run in strict order, first one to clear its threshold wins:
//
//	1. attribute  (0.80)  → variant selectors on product-detail pages
//	2. urlstruct  (0.80)  → URL path shape (product/category/homepage)
//	3. navigation (0.70)  → look-ahead: where did this click lead
//	4. behavior   (0.60)  → session stage plus name-shape heuristics
//	5. text       (always) → boilerplate filter and reduced-confidence fallback
//
// Every interaction yields exactly one result; the cascade never errors.
package intent

import (
	"github.com/rs/zerolog"

	"worldmodel_server/core/domain"
)

// Input is one interaction plus the session summary and the interactions
// that immediately follow it (for look-ahead only; never further-classified).
type Input struct {
	Interaction *domain.InteractionRecord
	Session     *domain.SessionContext
	Following   []*domain.InteractionRecord
}

// analyzer is one rule in the ordered cascade. Analyze returns nil when the
// rule has nothing to say; a non-nil result only wins when its confidence
// clears the rule's threshold.
type analyzer interface {
	Name() string
	Threshold() float64
	Analyze(in *Input) *domain.ClassificationResult
}

// Classifier runs the cascade. Stateless per call and safe for concurrent use.
type Classifier struct {
	log       zerolog.Logger
	analyzers []analyzer
	fallback  *textAnalyzer
}

// NewClassifier creates the cascade in its fixed evaluation order.
func NewClassifier(log zerolog.Logger) *Classifier {
	return &Classifier{
		log: log,
		analyzers: []analyzer{
			newAttributeAnalyzer(),
			newURLAnalyzer(),
			newNavigationAnalyzer(),
			newBehaviorAnalyzer(),
		},
		fallback: newTextAnalyzer(),
	}
}

// Classify produces exactly one ClassificationResult for the interaction.
func (c *Classifier) Classify(in *Input) *domain.ClassificationResult {
	if result := shortCircuit(in); result != nil {
		return result
	}

	for _, a := range c.analyzers {
		result := a.Analyze(in)
		if result == nil || result.Confidence < a.Threshold() {
			continue
		}
		result.Source = a.Name()
		c.enrich(in, result)
		return result
	}

	// The text fallback always produces a result.
	result := c.fallback.Analyze(in)
	result.Source = c.fallback.Name()
	c.enrich(in, result)
	return result
}

// shortCircuit handles non-click types and empty input before the cascade.
func shortCircuit(in *Input) *domain.ClassificationResult {
	if !in.Interaction.Interaction.Type.IsClickLike() {
		return &domain.ClassificationResult{
			Type:       domain.IntentIgnore,
			Confidence: 1.0,
			Reasoning:  "non-click interaction type",
			Source:     "precheck",
		}
	}
	if in.Interaction.Element.Text == "" && in.Interaction.Context.PageURL == "" {
		return &domain.ClassificationResult{
			Type:       domain.IntentIgnore,
			Confidence: 1.0,
			Reasoning:  "no element text and no page URL",
			Source:     "precheck",
		}
	}
	return nil
}

// enrich derives domain and extracted entity data for product/category wins.
func (c *Classifier) enrich(in *Input, result *domain.ClassificationResult) {
	if result.Type != domain.IntentProduct && result.Type != domain.IntentCategory {
		return
	}

	rec := in.Interaction
	result.Domain = extractHostname(rec.Context.PageURL)

	data := &domain.ExtractedData{
		Name: normalizeWhitespace(rec.Element.Text),
		URL:  rec.Context.PageURL,
	}
	// The navigation analyzer pins the destination URL; the entity lives there.
	if result.ExtractedData != nil && result.ExtractedData.URL != "" {
		data.URL = result.ExtractedData.URL
	}

	switch result.Type {
	case domain.IntentCategory:
		path, textImplied, urlImplied := deriveCategoryPath(rec.Element.Text, data.URL)
		data.CategoryPath = path
		data.TextImpliedPath = textImplied
		data.URLImpliedPath = urlImplied
		if textImplied != "" && urlImplied != "" && textImplied != urlImplied {
			// URL wins; both signals stay on the result for downstream consumers.
			c.log.Warn().
				Str("text_path", textImplied).
				Str("url_path", urlImplied).
				Str("url", rec.Context.PageURL).
				Msg("category path mismatch between element text and URL")
		}
	case domain.IntentProduct:
		data.ProductID = deriveProductID(data.URL)
	}

	result.ExtractedData = data
}
