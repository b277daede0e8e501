package pageclass

import (
	"testing"

	"worldmodel_server/core/domain"
)

// TestClassifyFromSnapshot tests the DOM-backed decision rules.
func TestClassifyFromSnapshot(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name         string
		rec          *domain.InteractionRecord
		wantType     domain.PageType
		wantMinConf  float64
		wantFeatures func(f domain.SemanticFeatures) bool
	}{
		{
			name: "product details with variant selectors classify as product",
			rec: &domain.InteractionRecord{
				Context: domain.PageContext{
					PageURL:     "https://shop.example.com/x",
					DOMSnapshot: `<div class="product-detail"><button class="size-selector">M</button><button>Add to Cart</button></div>`,
				},
			},
			wantType:    domain.PageProduct,
			wantMinConf: 0.90,
			wantFeatures: func(f domain.SemanticFeatures) bool {
				return f.HasProductDetails && f.HasVariantSelectors
			},
		},
		{
			name: "product grid with navigation classifies as category",
			rec: &domain.InteractionRecord{
				Context: domain.PageContext{
					DOMSnapshot: `<nav class="site-nav"></nav><ul class="product-grid"><li class="product-tile"></li></ul>`,
				},
			},
			wantType:    domain.PageCategory,
			wantMinConf: 0.85,
			wantFeatures: func(f domain.SemanticFeatures) bool {
				return f.HasProductGrid && f.HasNavigation
			},
		},
		{
			name: "cart indicators classify as cart",
			rec: &domain.InteractionRecord{
				Context: domain.PageContext{
					DOMSnapshot: `<div class="cart-item">Jeans</div><div class="cart-total">$59</div>`,
				},
			},
			wantType:    domain.PageCart,
			wantMinConf: 0.80,
			wantFeatures: func(f domain.SemanticFeatures) bool {
				return f.HasCartIndicators
			},
		},
		{
			name: "search input with results grid classifies as search",
			rec: &domain.InteractionRecord{
				Context: domain.PageContext{
					DOMSnapshot: `<input type="search"><div class="results-grid"></div>`,
				},
			},
			wantType:    domain.PageSearch,
			wantMinConf: 0.80,
			wantFeatures: func(f domain.SemanticFeatures) bool {
				return f.HasSearchFunctionality && f.HasProductGrid
			},
		},
		{
			name: "navigation without product details classifies as homepage",
			rec: &domain.InteractionRecord{
				Context: domain.PageContext{
					DOMSnapshot: `<nav class="main-menu"><a href="/men">Men</a></nav>`,
				},
			},
			wantType:    domain.PageHomepage,
			wantMinConf: 0.70,
			wantFeatures: func(f domain.SemanticFeatures) bool {
				return f.HasNavigation
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.rec)
			if result.PageType != tt.wantType {
				t.Errorf("PageType = %s, want %s", result.PageType, tt.wantType)
			}
			if result.Confidence < tt.wantMinConf {
				t.Errorf("Confidence = %.2f, want >= %.2f", result.Confidence, tt.wantMinConf)
			}
			if !tt.wantFeatures(result.Features) {
				t.Errorf("Features = %+v, expected signals not set", result.Features)
			}
		})
	}
}

// TestClassifyDecisionOrder verifies product wins when both product and
// category signals are present.
func TestClassifyDecisionOrder(t *testing.T) {
	classifier := NewClassifier()

	rec := &domain.InteractionRecord{
		Context: domain.PageContext{
			DOMSnapshot: `<nav class="site-nav"></nav><div class="product-grid"></div>` +
				`<div class="product-detail"><div class="swatch"></div></div>`,
		},
	}

	result := classifier.Classify(rec)
	if result.PageType != domain.PageProduct {
		t.Errorf("PageType = %s, want %s (product rule must win)", result.PageType, domain.PageProduct)
	}
}

// TestClassifyDegradedMode tests feature extraction without a DOM snapshot.
func TestClassifyDegradedMode(t *testing.T) {
	classifier := NewClassifier()

	rec := &domain.InteractionRecord{
		Element: domain.ElementInfo{
			Text:       "Add to Cart",
			Attributes: map[string]string{"class": "size-selector primary"},
		},
		Context: domain.PageContext{
			PageURL:   "https://shop.example.com/product/slim-jeans",
			PageTitle: "Slim Jeans",
		},
	}

	result := classifier.Classify(rec)
	if result.PageType != domain.PageProduct {
		t.Errorf("PageType = %s, want %s", result.PageType, domain.PageProduct)
	}
	if !result.Features.HasProductDetails {
		t.Error("expected HasProductDetails from element text in degraded mode")
	}

	// URL evidence alone must land in the fallback, not the DOM rules.
	urlOnly := classifier.Classify(&domain.InteractionRecord{
		Element: domain.ElementInfo{Text: "Continue"},
		Context: domain.PageContext{PageURL: "https://shop.example.com/basket"},
	})
	if urlOnly.PageType != domain.PageCart {
		t.Errorf("PageType = %s, want %s", urlOnly.PageType, domain.PageCart)
	}
	if urlOnly.Confidence != 0.60 {
		t.Errorf("Confidence = %.2f, want 0.60 without DOM or text evidence", urlOnly.Confidence)
	}
}

// TestClassifyByURLFallback tests the URL-only fallback at reduced confidence.
func TestClassifyByURLFallback(t *testing.T) {
	classifier := NewClassifier()

	tests := []struct {
		name     string
		url      string
		wantType domain.PageType
	}{
		{"product path", "https://shop.example.com/product/123", domain.PageProduct},
		{"short product path", "https://shop.example.com/p/abc-123", domain.PageProduct},
		{"category path", "https://shop.example.com/category/men", domain.PageCategory},
		{"browse path", "https://shop.example.com/browse/women", domain.PageCategory},
		{"checkout path", "https://shop.example.com/checkout", domain.PageCheckout},
		{"basket path", "https://shop.example.com/basket", domain.PageCart},
		{"search query", "https://shop.example.com/find?q=jeans", domain.PageSearch},
		{"root url", "https://shop.example.com/", domain.PageHomepage},
		{"opaque path", "https://shop.example.com/about/press", domain.PageUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(&domain.InteractionRecord{
				Context: domain.PageContext{PageURL: tt.url},
			})
			if result.PageType != tt.wantType {
				t.Errorf("PageType = %s, want %s", result.PageType, tt.wantType)
			}
			if tt.wantType != domain.PageUnknown && result.Confidence != 0.60 {
				t.Errorf("Confidence = %.2f, want 0.60 for URL fallback", result.Confidence)
			}
		})
	}
}
