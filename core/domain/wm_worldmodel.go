package domain

import "time"

// =============================================================================
// Selectors
// =============================================================================

// SelectorReliability tracks running success/attempt counters for one
// element-locating strategy. Counters are update-only; they are never reset
// by the core.
type SelectorReliability struct {
	SuccessCount  int       `json:"success_count"`
	TotalAttempts int       `json:"total_attempts"`
	LastUsed      time.Time `json:"last_used,omitempty"`
}

// RecordAttempt increments the counters. Counters only grow.
func (r *SelectorReliability) RecordAttempt(success bool, at time.Time) {
	r.TotalAttempts++
	if success {
		r.SuccessCount++
	}
	r.LastUsed = at
}

// SuccessRate returns the observed success ratio, 0 when never attempted.
func (r *SelectorReliability) SuccessRate() float64 {
	if r.TotalAttempts == 0 {
		return 0
	}
	return float64(r.SuccessCount) / float64(r.TotalAttempts)
}

// SelectorInfo is a primary selector plus an ordered fallback chain, tagged
// with the page context it applies to.
type SelectorInfo struct {
	Primary      string              `json:"primary"`
	XPath        string              `json:"xpath,omitempty"`
	CSSPath      string              `json:"css_path,omitempty"`
	Alternatives []string            `json:"alternatives,omitempty"`
	PageContext  string              `json:"page_context,omitempty"`
	Reliability  SelectorReliability `json:"reliability"`
}

// =============================================================================
// Discovery Provenance
// =============================================================================

// DiscoveryMethod records how an entity sighting came about.
type DiscoveryMethod string

const (
	DiscoveryPrimaryClick DiscoveryMethod = "primary_click" // user interacted with it directly
	DiscoverySibling      DiscoveryMethod = "sibling"       // seen adjacent to a primary entity
	DiscoveryParent       DiscoveryMethod = "parent"        // inferred from a child's path
	DiscoveryChild        DiscoveryMethod = "child"         // inferred from a parent listing
	DiscoveryBreadcrumb   DiscoveryMethod = "breadcrumb"    // extracted from a breadcrumb trail
)

// DiscoveryContext is one timestamped observation of an entity: where it was
// seen, from where, and under what spatial/sibling conditions. Contexts are
// append-only provenance; they never replace entity identity.
type DiscoveryContext struct {
	Method       DiscoveryMethod `json:"method"`
	SourceURL    string          `json:"source_url,omitempty"`
	CategoryPath string          `json:"category_path,omitempty"` // for products: listing it was found under
	PagePosition *BoundingBox    `json:"page_position,omitempty"`
	PositionOnPage int           `json:"position_on_page,omitempty"` // ordinal in a grid/listing
	SiblingCount int             `json:"sibling_count,omitempty"`
	ContextData  map[string]any  `json:"context_data,omitempty"`
	ObservedAt   time.Time       `json:"observed_at"`
}

// =============================================================================
// Domain
// =============================================================================

// DomainReliability aggregates selector success across a whole site.
type DomainReliability struct {
	SuccessRate      float64   `json:"success_rate"`
	InteractionCount int64     `json:"interaction_count"`
	LastSeen         time.Time `json:"last_seen,omitempty"`
}

// Domain is one site, identified by hostname. Created on first sighting,
// updated on every subsequent ingestion, never deleted.
type Domain struct {
	ID       string `json:"id"`
	Hostname string `json:"hostname"`

	// Global selectors: search bar, cart icon, primary nav.
	GlobalSelectors map[string]SelectorInfo `json:"global_selectors,omitempty"`

	// URL pattern templates per page type.
	URLPatterns map[PageType]string `json:"url_patterns,omitempty"`

	Reliability DomainReliability `json:"reliability"`

	FirstSeenAt time.Time `json:"first_seen_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// =============================================================================
// Category
// =============================================================================

// CategoryType distinguishes regular taxonomy nodes from synthetic listings.
type CategoryType string

const (
	CategoryRegular  CategoryType = "regular"
	CategorySale     CategoryType = "sale"
	CategorySearch   CategoryType = "search"
	CategoryFeatured CategoryType = "featured"
	CategoryMixed    CategoryType = "mixed"
)

// SiblingCategory is another category seen spatially adjacent on the same render.
type SiblingCategory struct {
	CategoryPath     string  `json:"category_path"`
	Name             string  `json:"name"`
	RelativePosition string  `json:"relative_position,omitempty"` // above, below, left, right
	DistancePx       float64 `json:"distance_px,omitempty"`
}

// CategorySelectors are page-level selector hints for a category listing.
type CategorySelectors struct {
	ProductGrid SelectorInfo `json:"product_grid,omitempty"`
	Filters     SelectorInfo `json:"filters,omitempty"`
	Pagination  SelectorInfo `json:"pagination,omitempty"`
}

// Category is one domain-scoped taxonomy node, identified by
// (DomainID, CategoryPath). Additional sightings append discovery contexts;
// they never replace the identity.
type Category struct {
	ID       string `json:"id"`
	DomainID string `json:"domain_id"`

	CategoryPath string       `json:"category_path"` // e.g. "men/shirts/casual"
	Name         string       `json:"name"`
	Type         CategoryType `json:"type"`

	ParentPath string   `json:"parent_path,omitempty"`
	ChildPaths []string `json:"child_paths,omitempty"`

	// Append-only provenance log.
	DiscoveryContexts []DiscoveryContext `json:"discovery_contexts"`

	// Current snapshot: overwritten on each sighting.
	Siblings  []SiblingCategory `json:"siblings,omitempty"`
	Selectors CategorySelectors `json:"selectors"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// =============================================================================
// Product
// =============================================================================

// VariantClusterType is the variant dimension a cluster groups.
type VariantClusterType string

const (
	ClusterColor VariantClusterType = "color"
	ClusterSize  VariantClusterType = "size"
	ClusterStyle VariantClusterType = "style"
)

// VariantOption is one selectable option inside a cluster. The first-seen
// selector wins; availability may be refreshed on later sightings.
type VariantOption struct {
	Value           string       `json:"value"`
	NormalizedValue string       `json:"normalized_value"`
	Selector        string       `json:"selector,omitempty"`
	Available       bool         `json:"available"`
	Position        *BoundingBox `json:"position,omitempty"`
}

// VariantCluster is the accumulated option set for one variant dimension.
// Clusters never shrink.
type VariantCluster struct {
	Type              VariantClusterType `json:"type"`
	ContainerSelector string             `json:"container_selector,omitempty"`
	Layout            string             `json:"layout,omitempty"` // swatches, dropdown, buttons
	Options           []VariantOption    `json:"options"`
}

// FindOption returns the option matching the normalized value, or nil.
func (c *VariantCluster) FindOption(normalized string) *VariantOption {
	for i := range c.Options {
		if c.Options[i].NormalizedValue == normalized {
			return &c.Options[i]
		}
	}
	return nil
}

// ProductVariants holds the three variant clusters of a product.
type ProductVariants struct {
	Color VariantCluster `json:"color"`
	Size  VariantCluster `json:"size"`
	Style VariantCluster `json:"style"`
}

// NewProductVariants returns empty, typed clusters.
func NewProductVariants() ProductVariants {
	return ProductVariants{
		Color: VariantCluster{Type: ClusterColor},
		Size:  VariantCluster{Type: ClusterSize},
		Style: VariantCluster{Type: ClusterStyle},
	}
}

// Cluster returns the cluster for the given type, or nil for non-cluster
// attribute types (action, availability).
func (v *ProductVariants) Cluster(t VariantClusterType) *VariantCluster {
	switch t {
	case ClusterColor:
		return &v.Color
	case ClusterSize:
		return &v.Size
	case ClusterStyle:
		return &v.Style
	default:
		return nil
	}
}

// ProductState is the volatile snapshot of a product: always reflects the
// most recent sighting, unlike discovery contexts which accumulate.
type ProductState struct {
	Price           float64   `json:"price"`
	Currency        string    `json:"currency,omitempty"`
	Available       bool      `json:"available"`
	LastPriceUpdate time.Time `json:"last_price_update,omitempty"`
}

// ProductReliability tracks monotonic selector counters plus the last sighting.
type ProductReliability struct {
	SuccessCount  int       `json:"success_count"`
	TotalAttempts int       `json:"total_attempts"`
	LastSeen      time.Time `json:"last_seen,omitempty"`
}

// SiblingContext summarizes the composition of a product's discovered siblings.
type SiblingContext string

const (
	SiblingsHomogeneous SiblingContext = "homogeneous" // all siblings share a product type
	SiblingsMixed       SiblingContext = "mixed"
	SiblingsUnknown     SiblingContext = "unknown" // no siblings observed
)

// SiblingProduct is another product discovered on the same page render.
type SiblingProduct struct {
	ProductID   string `json:"product_id,omitempty"`
	Name        string `json:"name"`
	URL         string `json:"url,omitempty"`
	ProductType string `json:"product_type,omitempty"`
	Position    int    `json:"position,omitempty"`
}

// Product is one domain-scoped product, identified by (Domain, ProductID)
// when the site exposes a native ID, else matched by normalized name.
type Product struct {
	ID string `json:"id"`

	Domain    string `json:"domain"` // hostname
	ProductID string `json:"product_id,omitempty"`

	Name           string `json:"name"`
	NormalizedName string `json:"normalized_name"`
	ProductType    string `json:"product_type,omitempty"`

	CanonicalURL string   `json:"canonical_url,omitempty"`
	VariantURLs  []string `json:"variant_urls,omitempty"`
	Images       []string `json:"images,omitempty"`

	CurrentState ProductState    `json:"current_state"`
	Variants     ProductVariants `json:"variants"`

	// Page selectors: title, price, add_to_cart, images, variant_container.
	Selectors map[string]SelectorInfo `json:"selectors,omitempty"`

	// Append-only provenance log.
	DiscoveryContexts []DiscoveryContext `json:"discovery_contexts"`

	// Current snapshot of the sibling picture from the latest primary sighting.
	DiscoveredSiblings []SiblingProduct `json:"discovered_siblings,omitempty"`
	SiblingContext     SiblingContext   `json:"sibling_context,omitempty"`

	Reliability ProductReliability `json:"reliability"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
