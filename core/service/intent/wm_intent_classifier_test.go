package intent

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"worldmodel_server/core/domain"
)

func clickOn(text, pageURL string) *domain.InteractionRecord {
	return &domain.InteractionRecord{
		Element: domain.ElementInfo{Text: text, Tag: "button"},
		Context: domain.PageContext{PageURL: pageURL},
		Interaction: domain.InteractionDetail{
			Type:      domain.InteractionClick,
			Timestamp: time.Now(),
		},
		Selectors: domain.SelectorInfo{Primary: "#el", XPath: "//button"},
	}
}

// TestClassifyCascade tests which analyzer wins for representative inputs.
func TestClassifyCascade(t *testing.T) {
	classifier := NewClassifier(zerolog.Nop())

	tests := []struct {
		name         string
		input        *Input
		wantType     domain.IntentType
		wantMinConf  float64
		wantSource   string
		wantAttrType domain.AttributeType
	}{
		{
			name: "color swatch on product page wins at the attribute step",
			input: &Input{
				Interaction: clickOn("Navy", "https://shop.example.com/product/slim-jeans"),
			},
			wantType:     domain.IntentProductAttribute,
			wantMinConf:  0.85,
			wantSource:   "attribute",
			wantAttrType: domain.AttributeColor,
		},
		{
			name: "size label on product page wins at the attribute step",
			input: &Input{
				Interaction: clickOn("M", "https://shop.example.com/product/slim-jeans"),
			},
			wantType:     domain.IntentProductAttribute,
			wantMinConf:  0.90,
			wantSource:   "attribute",
			wantAttrType: domain.AttributeSize,
		},
		{
			name: "add to cart on product page is an action attribute",
			input: &Input{
				Interaction: clickOn("Add to Cart", "https://shop.example.com/product/slim-jeans"),
			},
			wantType:     domain.IntentProductAttribute,
			wantMinConf:  0.90,
			wantSource:   "attribute",
			wantAttrType: domain.AttributeAction,
		},
		{
			name: "category URL wins at the URL step when no attribute matches",
			input: &Input{
				Interaction: clickOn("Jackets", "https://shop.example.com/women/jackets.html"),
			},
			wantType:    domain.IntentCategory,
			wantMinConf: 0.85,
			wantSource:  "urlstruct",
		},
		{
			name: "boilerplate without URL falls through to the text step",
			input: &Input{
				Interaction: clickOn("SORT BY", ""),
			},
			wantType:    domain.IntentIgnore,
			wantMinConf: 0.80,
			wantSource:  "text",
		},
		{
			name: "category-shaped text in a browsing session wins at the behavior step",
			input: &Input{
				Interaction: clickOn("New Arrivals", "https://shop.example.com/home/featured"),
				Session: &domain.SessionContext{
					BehaviorType:  domain.BehaviorBrowse,
					ShoppingStage: domain.StageAwareness,
				},
			},
			wantType:    domain.IntentCategory,
			wantMinConf: 0.65,
			wantSource:  "behavior",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(tt.input)
			if result.Type != tt.wantType {
				t.Errorf("Type = %s, want %s", result.Type, tt.wantType)
			}
			if result.Confidence < tt.wantMinConf {
				t.Errorf("Confidence = %.2f, want >= %.2f", result.Confidence, tt.wantMinConf)
			}
			if result.Source != tt.wantSource {
				t.Errorf("Source = %s, want %s", result.Source, tt.wantSource)
			}
			if tt.wantAttrType != "" {
				if result.AttributeData == nil {
					t.Fatal("AttributeData = nil, want populated")
				}
				if result.AttributeData.AttributeType != tt.wantAttrType {
					t.Errorf("AttributeType = %s, want %s", result.AttributeData.AttributeType, tt.wantAttrType)
				}
			}
		})
	}
}

// TestClassifyShortCircuit tests the prechecks before the cascade.
func TestClassifyShortCircuit(t *testing.T) {
	classifier := NewClassifier(zerolog.Nop())

	tests := []struct {
		name string
		rec  *domain.InteractionRecord
	}{
		{
			name: "scroll is ignored without running the cascade",
			rec: &domain.InteractionRecord{
				Interaction: domain.InteractionDetail{Type: domain.InteractionScroll},
				Element:     domain.ElementInfo{Text: "Navy"},
				Context:     domain.PageContext{PageURL: "https://shop.example.com/product/x"},
			},
		},
		{
			name: "click with no text and no URL is ignored",
			rec: &domain.InteractionRecord{
				Interaction: domain.InteractionDetail{Type: domain.InteractionClick},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := classifier.Classify(&Input{Interaction: tt.rec})
			if result.Type != domain.IntentIgnore {
				t.Errorf("Type = %s, want %s", result.Type, domain.IntentIgnore)
			}
			if result.Confidence != 1.0 {
				t.Errorf("Confidence = %.2f, want 1.0", result.Confidence)
			}
			if result.Source != "precheck" {
				t.Errorf("Source = %s, want precheck", result.Source)
			}
		})
	}
}

// TestNavigationLookAhead tests click attribution via the destination page.
func TestNavigationLookAhead(t *testing.T) {
	classifier := NewClassifier(zerolog.Nop())

	click := clickOn("nice one", "https://shop.example.com/home/featured")
	destination := "https://shop.example.com/p/slim-jeans/8812345"
	following := []*domain.InteractionRecord{
		{Context: domain.PageContext{PageURL: destination}},
	}

	result := classifier.Classify(&Input{Interaction: click, Following: following})

	if result.Type != domain.IntentProduct {
		t.Fatalf("Type = %s, want %s", result.Type, domain.IntentProduct)
	}
	if result.Source != "navigation" {
		t.Errorf("Source = %s, want navigation", result.Source)
	}
	if result.ExtractedData == nil {
		t.Fatal("ExtractedData = nil, want destination URL")
	}
	if result.ExtractedData.URL != destination {
		t.Errorf("ExtractedData.URL = %s, want %s", result.ExtractedData.URL, destination)
	}
	if result.ExtractedData.ProductID != "8812345" {
		t.Errorf("ProductID = %s, want 8812345", result.ExtractedData.ProductID)
	}
}

// TestNavigationQueryOnlyChange tests that a query/fragment-only change is UI.
func TestNavigationQueryOnlyChange(t *testing.T) {
	classifier := NewClassifier(zerolog.Nop())

	click := clickOn("Price: low to high", "https://shop.example.com/home/featured")
	following := []*domain.InteractionRecord{
		{Context: domain.PageContext{PageURL: "https://shop.example.com/home/featured?sort=price"}},
	}

	result := classifier.Classify(&Input{Interaction: click, Following: following})
	if result.Type != domain.IntentUI {
		t.Errorf("Type = %s, want %s", result.Type, domain.IntentUI)
	}
}

// TestCategoryPathMismatchDiagnostic tests that a text/URL path disagreement
// resolves to the URL path and emits a warning carrying both signals.
func TestCategoryPathMismatchDiagnostic(t *testing.T) {
	var buf bytes.Buffer
	classifier := NewClassifier(zerolog.New(&buf))

	result := classifier.Classify(&Input{
		Interaction: clickOn("Men's Jeans", "https://shop.example.com/women/jackets.html"),
	})

	if result.Type != domain.IntentCategory {
		t.Fatalf("Type = %s, want %s", result.Type, domain.IntentCategory)
	}
	if result.ExtractedData == nil {
		t.Fatal("ExtractedData = nil")
	}
	if result.ExtractedData.CategoryPath != "women/jackets" {
		t.Errorf("CategoryPath = %s, want women/jackets (URL wins)", result.ExtractedData.CategoryPath)
	}
	if result.ExtractedData.TextImpliedPath != "men" {
		t.Errorf("TextImpliedPath = %s, want men", result.ExtractedData.TextImpliedPath)
	}
	if result.ExtractedData.URLImpliedPath != "women/jackets" {
		t.Errorf("URLImpliedPath = %s, want women/jackets", result.ExtractedData.URLImpliedPath)
	}

	logged := buf.String()
	if !strings.Contains(logged, "category path mismatch") {
		t.Errorf("expected mismatch warning in log, got: %s", logged)
	}
	if !strings.Contains(logged, "text_path") || !strings.Contains(logged, "url_path") {
		t.Errorf("expected both path fields in log, got: %s", logged)
	}
}

// TestEnrichProductResult tests hostname and name extraction on product wins.
func TestEnrichProductResult(t *testing.T) {
	classifier := NewClassifier(zerolog.Nop())

	result := classifier.Classify(&Input{
		Interaction: clickOn("  Slim   Jeans  ", "https://www.shop.example.com/product/slim-jeans?pid=A123"),
	})

	if result.Type != domain.IntentProduct {
		t.Fatalf("Type = %s, want %s", result.Type, domain.IntentProduct)
	}
	if result.Domain != "shop.example.com" {
		t.Errorf("Domain = %s, want shop.example.com", result.Domain)
	}
	if result.ExtractedData.Name != "Slim Jeans" {
		t.Errorf("Name = %q, want normalized %q", result.ExtractedData.Name, "Slim Jeans")
	}
	if result.ExtractedData.ProductID != "A123" {
		t.Errorf("ProductID = %s, want A123", result.ExtractedData.ProductID)
	}
}
