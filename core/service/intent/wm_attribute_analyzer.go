package intent

import (
	"regexp"
	"strings"

	"worldmodel_server/core/domain"
)

// =============================================================================
// Product Attribute Analyzer (cascade step 1)
// =============================================================================

// attributeAnalyzer detects variant-selector interactions on product-detail
// pages. Sub-detectors run in a fixed order (color, size, action, style,
// availability); the first one clearing the analyzer threshold wins.
type attributeAnalyzer struct {
	detectors []attributeDetector
}

type attributeDetector interface {
	attributeType() domain.AttributeType
	detect(text string) (confidence float64, ok bool)
}

func newAttributeAnalyzer() *attributeAnalyzer {
	return &attributeAnalyzer{
		detectors: []attributeDetector{
			&colorDetector{},
			&sizeDetector{},
			&actionDetector{},
			&styleDetector{},
			&availabilityDetector{},
		},
	}
}

func (a *attributeAnalyzer) Name() string       { return "attribute" }
func (a *attributeAnalyzer) Threshold() float64 { return 0.80 }

func (a *attributeAnalyzer) Analyze(in *Input) *domain.ClassificationResult {
	rec := in.Interaction
	if !isProductURL(rec.Context.PageURL) {
		return nil
	}

	text := normalizeWhitespace(rec.Element.Text)
	if text == "" {
		return nil
	}

	for _, d := range a.detectors {
		confidence, ok := d.detect(text)
		if !ok || confidence < a.Threshold() {
			continue
		}

		return &domain.ClassificationResult{
			Type:       domain.IntentProductAttribute,
			Confidence: confidence,
			Reasoning:  "variant selector: " + string(d.attributeType()),
			AttributeData: &domain.AttributeData{
				AttributeType: d.attributeType(),
				Value:         text,
				Selector:      rec.Selectors.Primary,
				XPath:         rec.Selectors.XPath,
				ElementTag:    rec.Element.Tag,
				Position:      rec.Visual.BoundingBox,
				Available:     !looksUnavailable(text),
			},
		}
	}

	return nil
}

// =============================================================================
// Color
// =============================================================================

var colorDictionary = map[string]bool{
	"black": true, "white": true, "navy": true, "blue": true, "red": true,
	"green": true, "grey": true, "gray": true, "beige": true, "brown": true,
	"pink": true, "purple": true, "yellow": true, "orange": true, "khaki": true,
	"olive": true, "burgundy": true, "teal": true, "cream": true, "ivory": true,
	"charcoal": true, "maroon": true, "tan": true, "gold": true, "silver": true,
	"denim": true, "indigo": true, "mustard": true, "coral": true, "mint": true,
}

var colorModifiers = map[string]bool{
	"light": true, "dark": true, "deep": true, "pale": true, "bright": true,
	"heather": true, "washed": true, "faded": true, "dusty": true, "off": true,
}

type colorDetector struct{}

func (d *colorDetector) attributeType() domain.AttributeType { return domain.AttributeColor }

func (d *colorDetector) detect(text string) (float64, bool) {
	words := strings.Fields(strings.ToLower(text))

	switch len(words) {
	case 1:
		if colorDictionary[words[0]] {
			return 0.95, true
		}
	case 2:
		// "Light Blue", "Washed Black", "Off White"
		if colorModifiers[words[0]] && colorDictionary[words[1]] {
			return 0.90, true
		}
		if colorDictionary[words[0]] && colorDictionary[words[1]] {
			return 0.85, true
		}
	}
	return 0, false
}

// =============================================================================
// Size
// =============================================================================

var (
	sizeEnumPattern    = regexp.MustCompile(`(?i)^(xxs|xs|s|m|l|xl|xxl|xxxl|2xl|3xl|one size)$`)
	sizeWaistPattern   = regexp.MustCompile(`(?i)^(w?\d{2}\s*[x/]\s*l?\d{2}|w\d{2}(\s*l\d{2})?)$`)
	sizeShoePattern    = regexp.MustCompile(`(?i)^(us|uk|eu)\s*\d{1,2}(\.5)?$`)
	sizeNumericPattern = regexp.MustCompile(`^\d{1,2}(\.5)?$`)
)

type sizeDetector struct{}

func (d *sizeDetector) attributeType() domain.AttributeType { return domain.AttributeSize }

func (d *sizeDetector) detect(text string) (float64, bool) {
	t := strings.TrimSpace(text)
	switch {
	case sizeEnumPattern.MatchString(t):
		return 0.95, true
	case sizeWaistPattern.MatchString(t):
		return 0.90, true
	case sizeShoePattern.MatchString(t):
		return 0.90, true
	case sizeNumericPattern.MatchString(t):
		return 0.80, true
	}
	return 0, false
}

// =============================================================================
// Action (add-to-cart / buy controls)
// =============================================================================

var actionPhrases = map[string]float64{
	"add to cart":     0.95,
	"add to bag":      0.95,
	"add to basket":   0.95,
	"buy now":         0.95,
	"purchase":        0.90,
	"checkout now":    0.90,
	"add to wishlist": 0.90,
}

type actionDetector struct{}

func (d *actionDetector) attributeType() domain.AttributeType { return domain.AttributeAction }

func (d *actionDetector) detect(text string) (float64, bool) {
	t := strings.ToLower(text)
	for phrase, confidence := range actionPhrases {
		if strings.Contains(t, phrase) {
			return confidence, true
		}
	}
	return 0, false
}

// =============================================================================
// Style / Fit
// =============================================================================

var stylePhrases = map[string]float64{
	"slim fit":    0.90,
	"regular fit": 0.90,
	"relaxed fit": 0.90,
	"classic fit": 0.90,
	"loose fit":   0.90,
	"skinny":      0.85,
	"straight":    0.85,
	"tapered":     0.85,
	"oversized":   0.85,
	"cropped":     0.85,
	"relaxed":     0.80,
	"fitted":      0.80,
	"fit":         0.70,
}

type styleDetector struct{}

func (d *styleDetector) attributeType() domain.AttributeType { return domain.AttributeStyle }

func (d *styleDetector) detect(text string) (float64, bool) {
	t := strings.ToLower(text)
	best := 0.0
	for phrase, confidence := range stylePhrases {
		if strings.Contains(t, phrase) && confidence > best {
			best = confidence
		}
	}
	return best, best > 0
}

// =============================================================================
// Availability
// =============================================================================

var availabilityPhrases = map[string]float64{
	"out of stock":  0.95,
	"sold out":      0.95,
	"in stock":      0.90,
	"back in stock": 0.90,
	"low stock":     0.90,
	"unavailable":   0.90,
	"only":          0, // handled by the "only N left" pattern below
}

var onlyLeftPattern = regexp.MustCompile(`(?i)only\s+\d+\s+left`)

type availabilityDetector struct{}

func (d *availabilityDetector) attributeType() domain.AttributeType {
	return domain.AttributeAvailability
}

func (d *availabilityDetector) detect(text string) (float64, bool) {
	t := strings.ToLower(text)
	if onlyLeftPattern.MatchString(t) {
		return 0.90, true
	}
	for phrase, confidence := range availabilityPhrases {
		if confidence > 0 && strings.Contains(t, phrase) {
			return confidence, true
		}
	}
	return 0, false
}

// looksUnavailable reports whether the text itself signals an unavailable option.
func looksUnavailable(text string) bool {
	t := strings.ToLower(text)
	return strings.Contains(t, "out of stock") ||
		strings.Contains(t, "sold out") ||
		strings.Contains(t, "unavailable")
}
