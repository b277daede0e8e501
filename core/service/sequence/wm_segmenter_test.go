package sequence

import (
	"testing"

	"worldmodel_server/core/domain"
)

func rec(text, pageURL string, pageType domain.PageType) *domain.InteractionRecord {
	return &domain.InteractionRecord{
		Element: domain.ElementInfo{Text: text},
		Context: domain.PageContext{PageURL: pageURL, PageType: pageType},
		Interaction: domain.InteractionDetail{
			Type: domain.InteractionClick,
		},
	}
}

// TestAnalyzeSegmentation tests run-length grouping and segment purity.
func TestAnalyzeSegmentation(t *testing.T) {
	segmenter := NewSegmenter()

	interactions := []*domain.InteractionRecord{
		rec("Men", "https://shop.example.com/men.html", domain.PageCategory),
		rec("Jeans", "https://shop.example.com/men/jeans.html", domain.PageCategory),
		rec("Slim Jeans", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
		rec("Navy", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
		rec("Add to Cart", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
	}
	classifications := []*domain.ClassificationResult{
		{Type: domain.IntentCategory},
		{Type: domain.IntentCategory},
		{Type: domain.IntentProduct},
		{Type: domain.IntentProductAttribute, AttributeData: &domain.AttributeData{AttributeType: domain.AttributeColor}},
		{Type: domain.IntentProductAttribute, AttributeData: &domain.AttributeData{AttributeType: domain.AttributeAction}},
	}

	analysis := segmenter.Analyze(interactions, classifications)

	if len(analysis.Segments) != 4 {
		t.Fatalf("segments = %d, want 4 (browse, focus, configure, convert)", len(analysis.Segments))
	}

	wantTypes := []domain.BehaviorType{
		domain.BehaviorBrowse,
		domain.BehaviorFocus,
		domain.BehaviorConfigure,
		domain.BehaviorConvert,
	}
	for i, seg := range analysis.Segments {
		if seg.Type != wantTypes[i] {
			t.Errorf("segment %d type = %s, want %s", i, seg.Type, wantTypes[i])
		}
	}

	// Boundaries cover the input exactly, no gaps and no overlaps.
	next := 0
	for _, seg := range analysis.Segments {
		if seg.StartIndex != next {
			t.Errorf("segment starts at %d, want %d", seg.StartIndex, next)
		}
		if len(seg.Interactions) != seg.EndIndex-seg.StartIndex+1 {
			t.Errorf("segment holds %d interactions, indexes say %d", len(seg.Interactions), seg.EndIndex-seg.StartIndex+1)
		}
		next = seg.EndIndex + 1
	}
	if next != len(interactions) {
		t.Errorf("segments end at %d, want %d", next, len(interactions))
	}

	if !analysis.ConversionComplete {
		t.Error("ConversionComplete = false, want true (Add to Cart present)")
	}
	if analysis.OverallType != domain.SequenceBrowseToCart {
		t.Errorf("OverallType = %s, want %s", analysis.OverallType, domain.SequenceBrowseToCart)
	}
}

// TestAnalyzeAdjacentSegmentsDiffer verifies merging of same-behavior runs.
func TestAnalyzeAdjacentSegmentsDiffer(t *testing.T) {
	segmenter := NewSegmenter()

	interactions := []*domain.InteractionRecord{
		rec("Men", "", domain.PageCategory),
		rec("Women", "", domain.PageCategory),
		rec("Sale", "", domain.PageCategory),
	}
	classifications := make([]*domain.ClassificationResult, 3)

	analysis := segmenter.Analyze(interactions, classifications)
	if len(analysis.Segments) != 1 {
		t.Fatalf("segments = %d, want 1 merged browse run", len(analysis.Segments))
	}
	for i := 1; i < len(analysis.Segments); i++ {
		if analysis.Segments[i].Type == analysis.Segments[i-1].Type {
			t.Error("adjacent segments share a type, must be merged")
		}
	}
}

// TestAnalyzeOverallType tests the session shape decision.
func TestAnalyzeOverallType(t *testing.T) {
	segmenter := NewSegmenter()

	tests := []struct {
		name         string
		interactions []*domain.InteractionRecord
		wantType     domain.SequenceType
	}{
		{
			name: "search then product then conversion",
			interactions: []*domain.InteractionRecord{
				rec("jeans", "https://shop.example.com/search?q=jeans", domain.PageSearch),
				rec("Slim Jeans", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
				rec("Add to Bag", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
			},
			wantType: domain.SequenceSearchToCart,
		},
		{
			name: "browse then product then conversion",
			interactions: []*domain.InteractionRecord{
				rec("Men", "https://shop.example.com/men.html", domain.PageCategory),
				rec("Slim Jeans", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
				rec("Buy Now", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
			},
			wantType: domain.SequenceBrowseToCart,
		},
		{
			name: "configuration without conversion",
			interactions: []*domain.InteractionRecord{
				rec("Slim Jeans", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
				{
					Element: domain.ElementInfo{Text: "Navy"},
					Context: domain.PageContext{
						PageURL:  "https://shop.example.com/product/slim-jeans",
						PageType: domain.PageProduct,
					},
					Selectors: domain.SelectorInfo{Primary: ".color-swatch[data-value=navy]"},
				},
			},
			wantType: domain.SequenceProductConfiguration,
		},
		{
			name: "plain navigation",
			interactions: []*domain.InteractionRecord{
				rec("Men", "https://shop.example.com/men.html", domain.PageCategory),
				rec("Women", "https://shop.example.com/women.html", domain.PageCategory),
			},
			wantType: domain.SequenceNavigationFlow,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			classifications := make([]*domain.ClassificationResult, len(tt.interactions))
			analysis := segmenter.Analyze(tt.interactions, classifications)
			if analysis.OverallType != tt.wantType {
				t.Errorf("OverallType = %s, want %s", analysis.OverallType, tt.wantType)
			}
		})
	}
}

// TestQualityScore tests that richer sessions score higher, capped at 1.
func TestQualityScore(t *testing.T) {
	segmenter := NewSegmenter()

	thin := segmenter.Analyze([]*domain.InteractionRecord{
		rec("Men", "", domain.PageCategory),
	}, make([]*domain.ClassificationResult, 1))

	rich := segmenter.Analyze([]*domain.InteractionRecord{
		rec("Men", "https://shop.example.com/men.html", domain.PageCategory),
		rec("Jeans", "https://shop.example.com/men/jeans.html", domain.PageCategory),
		rec("Slim Jeans", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
		rec("Navy", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
		rec("Add to Cart", "https://shop.example.com/product/slim-jeans", domain.PageProduct),
	}, []*domain.ClassificationResult{
		nil, nil, nil,
		{Type: domain.IntentProductAttribute, AttributeData: &domain.AttributeData{AttributeType: domain.AttributeColor}},
		nil,
	})

	if rich.QualityScore <= thin.QualityScore {
		t.Errorf("rich score %.2f <= thin score %.2f", rich.QualityScore, thin.QualityScore)
	}
	if rich.QualityScore > 1.0 || thin.QualityScore > 1.0 {
		t.Error("quality score must be capped at 1.0")
	}
	if thin.QualityScore <= 0 {
		t.Error("non-empty session must score above zero")
	}

	// One browse segment of one interaction: structural part is
	// 0.5 + 0.2*(1/3) + 0.1 for the one behavior type present, averaged
	// with the segment confidence 0.73.
	if got := thin.QualityScore; got < 0.697 || got > 0.700 {
		t.Errorf("thin score = %.4f, want ~0.6983", got)
	}
}

// TestAnalyzeEmptySession tests the zero-input edge.
func TestAnalyzeEmptySession(t *testing.T) {
	segmenter := NewSegmenter()

	analysis := segmenter.Analyze(nil, nil)
	if len(analysis.Segments) != 0 {
		t.Errorf("segments = %d, want 0", len(analysis.Segments))
	}
	if analysis.QualityScore != 0 {
		t.Errorf("QualityScore = %.2f, want 0", analysis.QualityScore)
	}
	if analysis.ConversionComplete {
		t.Error("ConversionComplete = true for empty session")
	}
}
