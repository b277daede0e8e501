// Package pageclass classifies the enclosing page of an interaction from
// DOM-shape and URL signals.
package pageclass

import (
	"strings"

	"worldmodel_server/core/domain"
)

// Confidence per matched decision rule. URL-only fallback sits below all of
// them so a DOM-backed classification always wins.
const (
	confProduct     = 0.90
	confCategory    = 0.85
	confCart        = 0.80
	confSearch      = 0.80
	confHomepage    = 0.70
	confURLFallback = 0.60
)

// Keyword groups searched in the serialized DOM snapshot. Matching is plain
// lowercase substring search; the snapshot carries no schema guarantees.
var (
	productGridKeywords = []string{
		"product-grid", "product-list", "product-tile", "product-card",
		"productcard", "plp-", "listing-grid", "results-grid",
	}
	productDetailKeywords = []string{
		"add to cart", "add-to-cart", "add to bag", "buy now",
		"product-detail", "product-price", "size guide", "pdp-",
	}
	navigationKeywords = []string{
		"<nav", "navbar", "main-menu", "mega-menu", "breadcrumb", "site-nav",
	}
	cartKeywords = []string{
		"shopping cart", "cart-item", "cart-total", "basket", "proceed to checkout",
	}
	searchKeywords = []string{
		`type="search"`, "search-input", "search-results", "searchbox", "search results for",
	}
	variantKeywords = []string{
		"swatch", "size-selector", "color-option", "colour-option",
		"variant", "size-picker",
	}
)

// Classifier derives a PageClassification for one interaction. Stateless and
// safe for concurrent use.
type Classifier struct{}

// NewClassifier creates a page classifier.
func NewClassifier() *Classifier {
	return &Classifier{}
}

// Classify never fails: missing or malformed input only reduces confidence.
func (c *Classifier) Classify(rec *domain.InteractionRecord) *domain.PageClassification {
	features, indicators := c.extractFeatures(rec)

	result := &domain.PageClassification{
		PageType:   domain.PageUnknown,
		Features:   features,
		Indicators: indicators,
	}

	// Fixed decision order: the first matching rule wins.
	switch {
	case features.HasProductDetails && features.HasVariantSelectors:
		result.PageType = domain.PageProduct
		result.Confidence = confProduct
	case features.HasProductGrid && features.HasNavigation:
		result.PageType = domain.PageCategory
		result.Confidence = confCategory
	case features.HasCartIndicators:
		result.PageType = domain.PageCart
		result.Confidence = confCart
	case features.HasSearchFunctionality && features.HasProductGrid:
		result.PageType = domain.PageSearch
		result.Confidence = confSearch
	case features.HasNavigation && !features.HasProductDetails:
		result.PageType = domain.PageHomepage
		result.Confidence = confHomepage
	}

	if result.PageType == domain.PageUnknown {
		if pt := classifyByURL(rec.Context.PageURL); pt != domain.PageUnknown {
			result.PageType = pt
			result.Confidence = confURLFallback
			result.Indicators = append(result.Indicators, "url:"+string(pt))
		}
	}

	return result
}

// extractFeatures computes the six boolean semantic features. Without a DOM
// snapshot the features degrade to element-text, title, and URL signals.
func (c *Classifier) extractFeatures(rec *domain.InteractionRecord) (domain.SemanticFeatures, []string) {
	var features domain.SemanticFeatures
	var indicators []string

	snapshot := strings.ToLower(rec.Context.DOMSnapshot)
	if snapshot == "" {
		// Degraded mode: whatever text the capture layer did deliver. The URL
		// stays out of the feature text so URL-only evidence lands in the
		// lower-confidence fallback instead of the DOM rules.
		snapshot = strings.ToLower(rec.Element.Text + " " + rec.Context.PageTitle)
		for _, v := range rec.Element.Attributes {
			snapshot += " " + strings.ToLower(v)
		}
	}

	check := func(keywords []string, name string) bool {
		for _, kw := range keywords {
			if strings.Contains(snapshot, kw) {
				indicators = append(indicators, name+":"+kw)
				return true
			}
		}
		return false
	}

	features.HasProductGrid = check(productGridKeywords, "grid")
	features.HasProductDetails = check(productDetailKeywords, "details")
	features.HasNavigation = check(navigationKeywords, "nav")
	features.HasCartIndicators = check(cartKeywords, "cart")
	features.HasSearchFunctionality = check(searchKeywords, "search")
	features.HasVariantSelectors = check(variantKeywords, "variant")

	return features, indicators
}

// classifyByURL applies the URL-substring fallback rules.
func classifyByURL(pageURL string) domain.PageType {
	u := strings.ToLower(pageURL)
	if u == "" {
		return domain.PageUnknown
	}

	switch {
	case strings.Contains(u, "/product"), strings.Contains(u, "/p/"):
		return domain.PageProduct
	case strings.Contains(u, "/category"), strings.Contains(u, "/browse"), strings.Contains(u, "/c/"):
		return domain.PageCategory
	case strings.Contains(u, "checkout"):
		return domain.PageCheckout
	case strings.Contains(u, "cart"), strings.Contains(u, "basket"):
		return domain.PageCart
	case strings.Contains(u, "search"), strings.Contains(u, "?q="):
		return domain.PageSearch
	case isRootURL(u):
		return domain.PageHomepage
	default:
		return domain.PageUnknown
	}
}

// isRootURL reports whether the URL points at the bare host.
func isRootURL(u string) bool {
	u = strings.TrimPrefix(u, "https://")
	u = strings.TrimPrefix(u, "http://")
	if i := strings.IndexByte(u, '?'); i >= 0 {
		u = u[:i]
	}
	u = strings.TrimSuffix(u, "/")
	return u != "" && !strings.Contains(u, "/")
}
