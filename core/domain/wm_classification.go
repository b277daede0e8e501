package domain

// PageType classifies the enclosing page of an interaction.
type PageType string

const (
	PageHomepage PageType = "homepage"
	PageCategory PageType = "category"
	PageProduct  PageType = "product"
	PageCart     PageType = "cart"
	PageCheckout PageType = "checkout"
	PageSearch   PageType = "search"
	PageUnknown  PageType = "unknown"
)

// IntentType classifies what a single interaction was about.
type IntentType string

const (
	IntentProduct          IntentType = "product"           // selecting or viewing a product
	IntentCategory         IntentType = "category"          // navigating into a category
	IntentNavigation       IntentType = "navigation"        // site-level navigation (home, back)
	IntentUI               IntentType = "ui"                // in-page control (sort, filter, toggle)
	IntentProductAttribute IntentType = "product_attribute" // variant selector on a product page
	IntentIgnore           IntentType = "ignore"            // boilerplate, noise, unclassifiable
)

// AttributeType tags which variant dimension a product_attribute result hit.
type AttributeType string

const (
	AttributeColor        AttributeType = "color"
	AttributeSize         AttributeType = "size"
	AttributeAction       AttributeType = "action"       // add-to-cart / buy-now controls
	AttributeStyle        AttributeType = "style"        // fit and cut variants
	AttributeAvailability AttributeType = "availability" // stock state labels
)

// SemanticFeatures are the six boolean page-shape signals the page classifier
// derives from the DOM snapshot and textual heuristics.
type SemanticFeatures struct {
	HasProductGrid         bool `json:"has_product_grid"`
	HasProductDetails      bool `json:"has_product_details"`
	HasNavigation          bool `json:"has_navigation"`
	HasCartIndicators      bool `json:"has_cart_indicators"`
	HasSearchFunctionality bool `json:"has_search_functionality"`
	HasVariantSelectors    bool `json:"has_variant_selectors"`
}

// PageClassification is the page classifier's output for one interaction.
type PageClassification struct {
	PageType   PageType         `json:"page_type"`
	Confidence float64          `json:"confidence"`
	Indicators []string         `json:"indicators,omitempty"`
	Features   SemanticFeatures `json:"features"`
}

// ExtractedData carries the entity fields derived from a product or category
// classification. TextImpliedPath and URLImpliedPath are both kept when they
// disagree; CategoryPath is the resolved (URL-derived) value.
type ExtractedData struct {
	Name            string `json:"name"`
	URL             string `json:"url"`
	CategoryPath    string `json:"category_path,omitempty"`
	ProductID       string `json:"product_id,omitempty"`
	TextImpliedPath string `json:"text_implied_path,omitempty"`
	URLImpliedPath  string `json:"url_implied_path,omitempty"`
}

// AttributeData carries the variant signal derived from a product_attribute
// classification, with enough structure to update a variant cluster.
type AttributeData struct {
	AttributeType AttributeType `json:"attribute_type"`
	Value         string        `json:"value"`
	Selector      string        `json:"selector,omitempty"`
	XPath         string        `json:"xpath,omitempty"`
	ElementTag    string        `json:"element_tag,omitempty"`
	Position      *BoundingBox  `json:"position,omitempty"`
	Available     bool          `json:"available"`
}

// ClassificationResult is the transient per-interaction output of the intent
// cascade. It is consumed immediately by the segmenter and the world-model
// store and is never persisted itself.
type ClassificationResult struct {
	Type       IntentType `json:"type"`
	Confidence float64    `json:"confidence"` // 0.0 - 1.0
	Reasoning  string     `json:"reasoning"`
	Source     string     `json:"source"` // analyzer that produced the result

	Domain        string         `json:"domain,omitempty"`
	ExtractedData *ExtractedData `json:"extracted_data,omitempty"`
	AttributeData *AttributeData `json:"attribute_data,omitempty"`
}
