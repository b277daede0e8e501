// Package out defines outbound ports implemented by adapters.
package out

import (
	"context"

	"worldmodel_server/core/domain"
)

// DomainRepository persists site-level Domain documents, keyed by hostname.
type DomainRepository interface {
	// FindByHostname returns the domain for a hostname, or nil when unknown.
	FindByHostname(ctx context.Context, hostname string) (*domain.Domain, error)

	// Save upserts the domain document by hostname.
	Save(ctx context.Context, d *domain.Domain) error
}

// CategoryRepository persists Category documents, keyed by
// (domain_id, category_path) with a uniqueness constraint on that pair.
type CategoryRepository interface {
	// FindByPath returns the category at the exact path, or nil when absent.
	FindByPath(ctx context.Context, domainID, categoryPath string) (*domain.Category, error)

	// ListByDomain returns all categories of a domain, for candidate-key matching.
	ListByDomain(ctx context.Context, domainID string) ([]*domain.Category, error)

	// Create inserts a new category. Returns apperr CodeAlreadyExists when the
	// (domain_id, category_path) constraint is violated by a concurrent insert.
	Create(ctx context.Context, c *domain.Category) error

	// Update overwrites the category's current-snapshot fields from c and
	// appends newContexts to the provenance log. It never replaces the
	// existing discovery contexts.
	Update(ctx context.Context, c *domain.Category, newContexts []domain.DiscoveryContext) error
}

// ProductRepository persists Product documents, keyed by (domain, product_id)
// with a uniqueness constraint on that pair, plus a normalized-name lookup.
type ProductRepository interface {
	// FindByProductID returns the product with the site-native ID, or nil.
	FindByProductID(ctx context.Context, domainHost, productID string) (*domain.Product, error)

	// FindByNameCandidates returns the first product in the domain whose
	// normalized name matches any of the candidate keys, or nil.
	FindByNameCandidates(ctx context.Context, domainHost string, keys []string) (*domain.Product, error)

	// ListByCategory returns products discovered under the category path.
	ListByCategory(ctx context.Context, domainHost, categoryPath string) ([]*domain.Product, error)

	// Create inserts a new product. Returns apperr CodeAlreadyExists when the
	// (domain, product_id) constraint is violated by a concurrent insert.
	Create(ctx context.Context, p *domain.Product) error

	// Update overwrites the product's current-snapshot and volatile fields
	// from p and appends newContexts to the provenance log.
	Update(ctx context.Context, p *domain.Product, newContexts []domain.DiscoveryContext) error
}
