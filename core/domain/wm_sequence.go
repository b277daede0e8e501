package domain

// BehaviorType is the inferred shopping-behavior phase of an interaction.
type BehaviorType string

const (
	BehaviorBrowse    BehaviorType = "browse"    // moving through listings, search, home
	BehaviorFocus     BehaviorType = "focus"     // examining one product
	BehaviorConfigure BehaviorType = "configure" // selecting variants on a product page
	BehaviorConvert   BehaviorType = "convert"   // cart/checkout actions
)

// SequenceType summarizes a whole session's shape.
type SequenceType string

const (
	SequenceSearchToCart         SequenceType = "search_to_cart"
	SequenceBrowseToCart         SequenceType = "browse_to_cart"
	SequenceProductConfiguration SequenceType = "product_configuration"
	SequenceNavigationFlow       SequenceType = "navigation_flow"
)

// SequenceSegment is a maximal run of interactions sharing one behavior type.
type SequenceSegment struct {
	Type         BehaviorType         `json:"type"`
	Interactions []*InteractionRecord `json:"-"`
	StartIndex   int                  `json:"start_index"`
	EndIndex     int                  `json:"end_index"` // inclusive
	Confidence   float64              `json:"confidence"`
	Intent       string               `json:"intent"`
}

// SequenceAnalysis is the segmenter's sequence-level output.
type SequenceAnalysis struct {
	Segments           []*SequenceSegment `json:"segments"`
	OverallType        SequenceType       `json:"overall_type"`
	QualityScore       float64            `json:"quality_score"`
	ConversionComplete bool               `json:"conversion_complete"`
	UserIntent         string             `json:"user_intent"`
}
