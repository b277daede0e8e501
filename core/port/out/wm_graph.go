package out

import (
	"context"

	"worldmodel_server/core/domain"
)

// GraphProjector mirrors the world-model hierarchy and sibling adjacency into
// a graph store. Projection is write-behind and best-effort: a projection
// failure must never fail the ingestion that triggered it.
type GraphProjector interface {
	// ProjectCategory merges the category node, its domain edge, parent/child
	// edges, and SEEN_WITH edges to its sibling categories.
	ProjectCategory(ctx context.Context, domainHost string, c *domain.Category) error

	// ProjectProduct merges the product node, its category edges, and
	// SEEN_WITH edges to its discovered siblings.
	ProjectProduct(ctx context.Context, p *domain.Product) error
}
