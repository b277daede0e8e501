// Package variant folds classified attribute interactions into a product's
// variant clusters.
package variant

import (
	"strings"

	"worldmodel_server/core/domain"
)

// Extractor accumulates variant options onto products. Clusters only grow;
// options are deduplicated by normalized value and keep their first-seen
// selector. Stateless and safe for concurrent use.
type Extractor struct{}

func NewExtractor() *Extractor { return &Extractor{} }

// clusterTypeFor maps an attribute type to the cluster it feeds. Action and
// availability attributes are state signals, not variant dimensions.
func clusterTypeFor(t domain.AttributeType) (domain.VariantClusterType, bool) {
	switch t {
	case domain.AttributeColor:
		return domain.ClusterColor, true
	case domain.AttributeSize:
		return domain.ClusterSize, true
	case domain.AttributeStyle:
		return domain.ClusterStyle, true
	}
	return "", false
}

// Apply folds one attribute observation into the product's clusters. Returns
// true when the product changed.
func (e *Extractor) Apply(p *domain.Product, attr *domain.AttributeData) bool {
	if p == nil || attr == nil || attr.Value == "" {
		return false
	}
	clusterType, ok := clusterTypeFor(attr.AttributeType)
	if !ok {
		return false
	}

	cluster := p.Variants.Cluster(clusterType)
	if cluster == nil {
		return false
	}

	normalized := NormalizeValue(attr.Value)
	if existing := cluster.FindOption(normalized); existing != nil {
		// First-seen selector wins; availability is volatile and may refresh.
		if existing.Available != attr.Available {
			existing.Available = attr.Available
			return true
		}
		return false
	}

	cluster.Options = append(cluster.Options, domain.VariantOption{
		Value:           strings.TrimSpace(attr.Value),
		NormalizedValue: normalized,
		Selector:        attr.Selector,
		Available:       attr.Available,
		Position:        attr.Position,
	})
	return true
}

// ApplyAll folds a batch of observations; returns how many changed the product.
func (e *Extractor) ApplyAll(p *domain.Product, attrs []*domain.AttributeData) int {
	changed := 0
	for _, attr := range attrs {
		if e.Apply(p, attr) {
			changed++
		}
	}
	return changed
}

// NormalizeValue is the cluster dedup key: lower case, trimmed, inner
// whitespace collapsed to single spaces.
func NormalizeValue(v string) string {
	return strings.Join(strings.Fields(strings.ToLower(v)), " ")
}
