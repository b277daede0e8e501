// Package sequence groups an ordered interaction list into behavioral
// segments and derives a session-level shape from the segment types.
package sequence

import (
	"strings"

	"worldmodel_server/core/domain"
)

// Segmenter assigns each interaction a behavior, merges adjacent runs of the
// same behavior into segments, and scores the resulting analysis. Stateless
// and safe for concurrent use.
type Segmenter struct{}

func NewSegmenter() *Segmenter { return &Segmenter{} }

// conversionPhrases mark the interactions that commit to a purchase.
var conversionPhrases = []string{
	"add to cart", "add to bag", "add to basket", "buy now",
	"checkout", "place order", "proceed to payment",
}

// variantSelectorMarkers are substrings of selectors that point at option
// pickers on a product-detail page.
var variantSelectorMarkers = []string{
	"size", "color", "colour", "variant", "swatch", "option",
}

var searchURLMarkers = []string{"/search", "?q=", "&q=", "?query=", "&query="}

// Analyze segments the interactions in order. Classifications must be
// parallel to interactions (one result per interaction, same index); entries
// may be nil when no classification exists for that interaction.
func (s *Segmenter) Analyze(interactions []*domain.InteractionRecord, classifications []*domain.ClassificationResult) *domain.SequenceAnalysis {
	analysis := &domain.SequenceAnalysis{}
	if len(interactions) == 0 {
		return analysis
	}

	behaviors := make([]domain.BehaviorType, len(interactions))
	for i, rec := range interactions {
		var result *domain.ClassificationResult
		if i < len(classifications) {
			result = classifications[i]
		}
		behaviors[i] = deriveBehavior(rec, result)
	}

	analysis.Segments = buildSegments(interactions, behaviors)
	analysis.ConversionComplete = hasSegment(analysis.Segments, domain.BehaviorConvert)
	analysis.OverallType = overallType(analysis.Segments, interactions)
	analysis.UserIntent = sessionIntent(analysis)
	analysis.QualityScore = qualityScore(analysis)
	return analysis
}

// deriveBehavior maps one interaction to its behavior. Conversion and
// configuration signals dominate; page context separates focused product
// evaluation from general browsing.
func deriveBehavior(rec *domain.InteractionRecord, result *domain.ClassificationResult) domain.BehaviorType {
	text := strings.ToLower(rec.Element.Text)
	for _, phrase := range conversionPhrases {
		if strings.Contains(text, phrase) {
			return domain.BehaviorConvert
		}
	}
	if result != nil && result.AttributeData != nil &&
		result.AttributeData.AttributeType == domain.AttributeAction {
		return domain.BehaviorConvert
	}

	onProductPage := rec.Context.PageType == domain.PageProduct ||
		looksLikeProductPageURL(rec.Context.PageURL)

	if onProductPage {
		if result != nil && result.Type == domain.IntentProductAttribute {
			return domain.BehaviorConfigure
		}
		if selectorLooksLikeVariantPicker(rec.Selectors.Primary) ||
			selectorLooksLikeVariantPicker(rec.Selectors.CSSPath) {
			return domain.BehaviorConfigure
		}
		return domain.BehaviorFocus
	}
	return domain.BehaviorBrowse
}

func looksLikeProductPageURL(url string) bool {
	u := strings.ToLower(url)
	return strings.Contains(u, "/product") || strings.Contains(u, "/p/")
}

func selectorLooksLikeVariantPicker(selector string) bool {
	s := strings.ToLower(selector)
	if s == "" {
		return false
	}
	for _, marker := range variantSelectorMarkers {
		if strings.Contains(s, marker) {
			return true
		}
	}
	return false
}

// buildSegments merges adjacent runs of the same behavior. Segment boundaries
// are exactly the behavior changes, so adjacent segments always differ.
func buildSegments(interactions []*domain.InteractionRecord, behaviors []domain.BehaviorType) []*domain.SequenceSegment {
	var segments []*domain.SequenceSegment
	start := 0
	for i := 1; i <= len(behaviors); i++ {
		if i < len(behaviors) && behaviors[i] == behaviors[start] {
			continue
		}
		seg := &domain.SequenceSegment{
			Type:         behaviors[start],
			Interactions: interactions[start:i],
			StartIndex:   start,
			EndIndex:     i - 1,
			Intent:       segmentIntent(behaviors[start]),
		}
		seg.Confidence = segmentConfidence(seg)
		segments = append(segments, seg)
		start = i
	}
	return segments
}

func segmentIntent(t domain.BehaviorType) string {
	switch t {
	case domain.BehaviorBrowse:
		return "exploring catalog"
	case domain.BehaviorFocus:
		return "evaluating product"
	case domain.BehaviorConfigure:
		return "configuring product options"
	case domain.BehaviorConvert:
		return "completing purchase"
	}
	return ""
}

// segmentConfidence starts from a per-type base and grows slightly with the
// number of supporting interactions, capped at +0.2.
func segmentConfidence(seg *domain.SequenceSegment) float64 {
	base := map[domain.BehaviorType]float64{
		domain.BehaviorBrowse:    0.70,
		domain.BehaviorFocus:     0.80,
		domain.BehaviorConfigure: 0.90,
		domain.BehaviorConvert:   0.95,
	}[seg.Type]

	bonus := 0.03 * float64(len(seg.Interactions))
	if bonus > 0.2 {
		bonus = 0.2
	}
	if base+bonus > 1.0 {
		return 1.0
	}
	return base + bonus
}

func hasSegment(segments []*domain.SequenceSegment, t domain.BehaviorType) bool {
	for _, seg := range segments {
		if seg.Type == t {
			return true
		}
	}
	return false
}

// overallType picks the session shape from which behaviors are present and
// whether the session touched a search results page.
func overallType(segments []*domain.SequenceSegment, interactions []*domain.InteractionRecord) domain.SequenceType {
	focused := hasSegment(segments, domain.BehaviorFocus) || hasSegment(segments, domain.BehaviorConfigure)
	converted := hasSegment(segments, domain.BehaviorConvert)

	if converted && focused {
		if sessionUsedSearch(interactions) {
			return domain.SequenceSearchToCart
		}
		return domain.SequenceBrowseToCart
	}
	if hasSegment(segments, domain.BehaviorConfigure) {
		return domain.SequenceProductConfiguration
	}
	return domain.SequenceNavigationFlow
}

func sessionUsedSearch(interactions []*domain.InteractionRecord) bool {
	for _, rec := range interactions {
		u := strings.ToLower(rec.Context.PageURL)
		for _, marker := range searchURLMarkers {
			if strings.Contains(u, marker) {
				return true
			}
		}
		if rec.Context.PageType == domain.PageSearch {
			return true
		}
	}
	return false
}

func sessionIntent(a *domain.SequenceAnalysis) string {
	switch a.OverallType {
	case domain.SequenceSearchToCart:
		return "searched for a product and added it to cart"
	case domain.SequenceBrowseToCart:
		return "browsed the catalog and added a product to cart"
	case domain.SequenceProductConfiguration:
		return "configured product options without purchasing"
	default:
		return "navigated the store"
	}
}

// qualityScore rates how much world-model signal the session carries. Richer
// sessions (more segments, more distinct behaviors, a conversion) score
// higher; the structural score is averaged with mean segment confidence.
func qualityScore(a *domain.SequenceAnalysis) float64 {
	if len(a.Segments) == 0 {
		return 0
	}

	n := float64(len(a.Segments))
	score := 0.5 + 0.2*n/(n+2)

	distinct := map[domain.BehaviorType]bool{}
	for _, seg := range a.Segments {
		distinct[seg.Type] = true
	}
	score += 0.1 * float64(len(distinct))

	if a.ConversionComplete {
		score += 0.2
	}
	if hasSegment(a.Segments, domain.BehaviorConfigure) {
		score += 0.1
	}

	var confSum float64
	for _, seg := range a.Segments {
		confSum += seg.Confidence
	}
	score = (score + confSum/n) / 2

	if score > 1.0 {
		return 1.0
	}
	return score
}
