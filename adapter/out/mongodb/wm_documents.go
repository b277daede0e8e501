package mongodb

import (
	"time"

	"worldmodel_server/core/domain"
)

// =============================================================================
// Shared Document Models
// =============================================================================

// Nested document structures shared by the domain, category, and product
// collections, with converters to and from the core entities.

type boundingBoxDoc struct {
	X      float64 `bson:"x"`
	Y      float64 `bson:"y"`
	Width  float64 `bson:"width"`
	Height float64 `bson:"height"`
}

func toBoundingBoxDoc(b *domain.BoundingBox) *boundingBoxDoc {
	if b == nil {
		return nil
	}
	return &boundingBoxDoc{X: b.X, Y: b.Y, Width: b.Width, Height: b.Height}
}

func fromBoundingBoxDoc(d *boundingBoxDoc) *domain.BoundingBox {
	if d == nil {
		return nil
	}
	return &domain.BoundingBox{X: d.X, Y: d.Y, Width: d.Width, Height: d.Height}
}

type selectorReliabilityDoc struct {
	SuccessCount  int       `bson:"success_count"`
	TotalAttempts int       `bson:"total_attempts"`
	LastUsed      time.Time `bson:"last_used,omitempty"`
}

type selectorInfoDoc struct {
	Primary      string                 `bson:"primary"`
	XPath        string                 `bson:"xpath,omitempty"`
	CSSPath      string                 `bson:"css_path,omitempty"`
	Alternatives []string               `bson:"alternatives,omitempty"`
	PageContext  string                 `bson:"page_context,omitempty"`
	Reliability  selectorReliabilityDoc `bson:"reliability"`
}

func toSelectorInfoDoc(s domain.SelectorInfo) selectorInfoDoc {
	return selectorInfoDoc{
		Primary:      s.Primary,
		XPath:        s.XPath,
		CSSPath:      s.CSSPath,
		Alternatives: s.Alternatives,
		PageContext:  s.PageContext,
		Reliability: selectorReliabilityDoc{
			SuccessCount:  s.Reliability.SuccessCount,
			TotalAttempts: s.Reliability.TotalAttempts,
			LastUsed:      s.Reliability.LastUsed,
		},
	}
}

func fromSelectorInfoDoc(d selectorInfoDoc) domain.SelectorInfo {
	return domain.SelectorInfo{
		Primary:      d.Primary,
		XPath:        d.XPath,
		CSSPath:      d.CSSPath,
		Alternatives: d.Alternatives,
		PageContext:  d.PageContext,
		Reliability: domain.SelectorReliability{
			SuccessCount:  d.Reliability.SuccessCount,
			TotalAttempts: d.Reliability.TotalAttempts,
			LastUsed:      d.Reliability.LastUsed,
		},
	}
}

func toSelectorMapDoc(m map[string]domain.SelectorInfo) map[string]selectorInfoDoc {
	if m == nil {
		return nil
	}
	out := make(map[string]selectorInfoDoc, len(m))
	for k, v := range m {
		out[k] = toSelectorInfoDoc(v)
	}
	return out
}

func fromSelectorMapDoc(m map[string]selectorInfoDoc) map[string]domain.SelectorInfo {
	if m == nil {
		return nil
	}
	out := make(map[string]domain.SelectorInfo, len(m))
	for k, v := range m {
		out[k] = fromSelectorInfoDoc(v)
	}
	return out
}

type discoveryContextDoc struct {
	Method         string          `bson:"method"`
	SourceURL      string          `bson:"source_url,omitempty"`
	CategoryPath   string          `bson:"category_path,omitempty"`
	PagePosition   *boundingBoxDoc `bson:"page_position,omitempty"`
	PositionOnPage int             `bson:"position_on_page,omitempty"`
	SiblingCount   int             `bson:"sibling_count,omitempty"`
	ContextData    map[string]any  `bson:"context_data,omitempty"`
	ObservedAt     time.Time       `bson:"observed_at"`
}

func toDiscoveryContextDoc(c domain.DiscoveryContext) discoveryContextDoc {
	return discoveryContextDoc{
		Method:         string(c.Method),
		SourceURL:      c.SourceURL,
		CategoryPath:   c.CategoryPath,
		PagePosition:   toBoundingBoxDoc(c.PagePosition),
		PositionOnPage: c.PositionOnPage,
		SiblingCount:   c.SiblingCount,
		ContextData:    c.ContextData,
		ObservedAt:     c.ObservedAt,
	}
}

func fromDiscoveryContextDoc(d discoveryContextDoc) domain.DiscoveryContext {
	return domain.DiscoveryContext{
		Method:         domain.DiscoveryMethod(d.Method),
		SourceURL:      d.SourceURL,
		CategoryPath:   d.CategoryPath,
		PagePosition:   fromBoundingBoxDoc(d.PagePosition),
		PositionOnPage: d.PositionOnPage,
		SiblingCount:   d.SiblingCount,
		ContextData:    d.ContextData,
		ObservedAt:     d.ObservedAt,
	}
}

func toDiscoveryContextDocs(contexts []domain.DiscoveryContext) []discoveryContextDoc {
	docs := make([]discoveryContextDoc, len(contexts))
	for i, c := range contexts {
		docs[i] = toDiscoveryContextDoc(c)
	}
	return docs
}

func fromDiscoveryContextDocs(docs []discoveryContextDoc) []domain.DiscoveryContext {
	contexts := make([]domain.DiscoveryContext, len(docs))
	for i, d := range docs {
		contexts[i] = fromDiscoveryContextDoc(d)
	}
	return contexts
}

// =============================================================================
// Variant Documents
// =============================================================================

type variantOptionDoc struct {
	Value           string          `bson:"value"`
	NormalizedValue string          `bson:"normalized_value"`
	Selector        string          `bson:"selector,omitempty"`
	Available       bool            `bson:"available"`
	Position        *boundingBoxDoc `bson:"position,omitempty"`
}

type variantClusterDoc struct {
	Type              string             `bson:"type"`
	ContainerSelector string             `bson:"container_selector,omitempty"`
	Layout            string             `bson:"layout,omitempty"`
	Options           []variantOptionDoc `bson:"options"`
}

type productVariantsDoc struct {
	Color variantClusterDoc `bson:"color"`
	Size  variantClusterDoc `bson:"size"`
	Style variantClusterDoc `bson:"style"`
}

func toVariantClusterDoc(c domain.VariantCluster) variantClusterDoc {
	options := make([]variantOptionDoc, len(c.Options))
	for i, o := range c.Options {
		options[i] = variantOptionDoc{
			Value:           o.Value,
			NormalizedValue: o.NormalizedValue,
			Selector:        o.Selector,
			Available:       o.Available,
			Position:        toBoundingBoxDoc(o.Position),
		}
	}
	return variantClusterDoc{
		Type:              string(c.Type),
		ContainerSelector: c.ContainerSelector,
		Layout:            c.Layout,
		Options:           options,
	}
}

func fromVariantClusterDoc(d variantClusterDoc) domain.VariantCluster {
	options := make([]domain.VariantOption, len(d.Options))
	for i, o := range d.Options {
		options[i] = domain.VariantOption{
			Value:           o.Value,
			NormalizedValue: o.NormalizedValue,
			Selector:        o.Selector,
			Available:       o.Available,
			Position:        fromBoundingBoxDoc(o.Position),
		}
	}
	return domain.VariantCluster{
		Type:              domain.VariantClusterType(d.Type),
		ContainerSelector: d.ContainerSelector,
		Layout:            d.Layout,
		Options:           options,
	}
}

func toProductVariantsDoc(v domain.ProductVariants) productVariantsDoc {
	return productVariantsDoc{
		Color: toVariantClusterDoc(v.Color),
		Size:  toVariantClusterDoc(v.Size),
		Style: toVariantClusterDoc(v.Style),
	}
}

func fromProductVariantsDoc(d productVariantsDoc) domain.ProductVariants {
	return domain.ProductVariants{
		Color: fromVariantClusterDoc(d.Color),
		Size:  fromVariantClusterDoc(d.Size),
		Style: fromVariantClusterDoc(d.Style),
	}
}

// =============================================================================
// Sibling Documents
// =============================================================================

type siblingCategoryDoc struct {
	CategoryPath     string  `bson:"category_path"`
	Name             string  `bson:"name"`
	RelativePosition string  `bson:"relative_position,omitempty"`
	DistancePx       float64 `bson:"distance_px,omitempty"`
}

func toSiblingCategoryDocs(siblings []domain.SiblingCategory) []siblingCategoryDoc {
	if siblings == nil {
		return nil
	}
	docs := make([]siblingCategoryDoc, len(siblings))
	for i, s := range siblings {
		docs[i] = siblingCategoryDoc(s)
	}
	return docs
}

func fromSiblingCategoryDocs(docs []siblingCategoryDoc) []domain.SiblingCategory {
	if docs == nil {
		return nil
	}
	siblings := make([]domain.SiblingCategory, len(docs))
	for i, d := range docs {
		siblings[i] = domain.SiblingCategory(d)
	}
	return siblings
}

type siblingProductDoc struct {
	ProductID   string `bson:"product_id,omitempty"`
	Name        string `bson:"name"`
	URL         string `bson:"url,omitempty"`
	ProductType string `bson:"product_type,omitempty"`
	Position    int    `bson:"position,omitempty"`
}

func toSiblingProductDocs(siblings []domain.SiblingProduct) []siblingProductDoc {
	if siblings == nil {
		return nil
	}
	docs := make([]siblingProductDoc, len(siblings))
	for i, s := range siblings {
		docs[i] = siblingProductDoc(s)
	}
	return docs
}

func fromSiblingProductDocs(docs []siblingProductDoc) []domain.SiblingProduct {
	if docs == nil {
		return nil
	}
	siblings := make([]domain.SiblingProduct, len(docs))
	for i, d := range docs {
		siblings[i] = domain.SiblingProduct(d)
	}
	return siblings
}
