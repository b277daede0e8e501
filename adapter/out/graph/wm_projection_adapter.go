// Package graph projects the world model into Neo4j.
package graph

import (
	"context"
	"fmt"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"worldmodel_server/core/domain"
	"worldmodel_server/core/port/out"
)

// =============================================================================
// Neo4j World-Model Projection Adapter
// =============================================================================

// NewDriver connects to Neo4j, falling back to unauthenticated access when no
// credentials are configured. Connectivity is verified before returning so a
// misconfigured graph store fails at startup, not mid-ingestion.
func NewDriver(url, username, password string) (neo4j.DriverWithContext, error) {
	auth := neo4j.NoAuth()
	if username != "" && password != "" {
		auth = neo4j.BasicAuth(username, password, "")
	}

	driver, err := neo4j.NewDriverWithContext(url, auth)
	if err != nil {
		return nil, fmt.Errorf("failed to create Neo4j driver: %w", err)
	}

	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to verify Neo4j connectivity: %w", err)
	}

	return driver, nil
}

// ProjectionAdapter implements out.GraphProjector using Neo4j. Projection is
// best-effort: calls go through a circuit breaker so a down graph store sheds
// load instead of slowing every ingestion.
type ProjectionAdapter struct {
	driver neo4j.DriverWithContext
	dbName string
	cb     *gobreaker.CircuitBreaker
	log    zerolog.Logger
}

// NewProjectionAdapter creates a new Neo4j projection adapter.
func NewProjectionAdapter(driver neo4j.DriverWithContext, dbName string, log zerolog.Logger) *ProjectionAdapter {
	logger := log.With().Str("component", "graph_projection").Logger()

	cbSettings := gobreaker.Settings{
		Name:        "neo4j-projection",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.ConsecutiveFailures > 5 ||
				(counts.Requests >= 10 && failureRatio >= 0.6)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	}

	return &ProjectionAdapter{
		driver: driver,
		dbName: dbName,
		cb:     gobreaker.NewCircuitBreaker(cbSettings),
		log:    logger,
	}
}

var _ out.GraphProjector = (*ProjectionAdapter)(nil)

// EnsureConstraints creates uniqueness constraints for the projected nodes.
func (a *ProjectionAdapter) EnsureConstraints(ctx context.Context) error {
	session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
	defer session.Close(ctx)

	queries := []string{
		`CREATE CONSTRAINT domain_hostname IF NOT EXISTS FOR (d:Domain) REQUIRE d.hostname IS UNIQUE`,
		`CREATE CONSTRAINT category_unique IF NOT EXISTS FOR (c:Category) REQUIRE (c.domain, c.path) IS UNIQUE`,
		`CREATE CONSTRAINT product_unique IF NOT EXISTS FOR (p:Product) REQUIRE p.id IS UNIQUE`,
		`CREATE INDEX product_domain_idx IF NOT EXISTS FOR (p:Product) ON (p.domain)`,
	}

	for _, query := range queries {
		if _, err := session.Run(ctx, query, nil); err != nil {
			// Ignore errors for existing constraints
			continue
		}
	}
	return nil
}

// =============================================================================
// Projection Operations
// =============================================================================

// ProjectCategory merges the category node, its domain edge, the parent edge,
// and SEEN_WITH edges to sibling categories.
func (a *ProjectionAdapter) ProjectCategory(ctx context.Context, domainHost string, c *domain.Category) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
		defer session.Close(ctx)

		query := `
			MERGE (d:Domain {hostname: $hostname})
			MERGE (c:Category {domain: $hostname, path: $path})
			SET c.name = $name,
				c.type = $type,
				c.updated_at = timestamp()
			MERGE (d)-[:HAS_CATEGORY]->(c)
		`
		params := map[string]interface{}{
			"hostname": domainHost,
			"path":     c.CategoryPath,
			"name":     c.Name,
			"type":     string(c.Type),
		}
		if _, err := session.Run(ctx, query, params); err != nil {
			return nil, fmt.Errorf("failed to project category: %w", err)
		}

		if c.ParentPath != "" {
			parentQuery := `
				MERGE (p:Category {domain: $hostname, path: $parentPath})
				MERGE (c:Category {domain: $hostname, path: $path})
				MERGE (p)-[:HAS_CHILD]->(c)
			`
			if _, err := session.Run(ctx, parentQuery, map[string]interface{}{
				"hostname":   domainHost,
				"parentPath": c.ParentPath,
				"path":       c.CategoryPath,
			}); err != nil {
				return nil, fmt.Errorf("failed to project category parent: %w", err)
			}
		}

		for _, sibling := range c.Siblings {
			siblingQuery := `
				MERGE (c:Category {domain: $hostname, path: $path})
				MERGE (s:Category {domain: $hostname, path: $siblingPath})
				SET s.name = coalesce(s.name, $siblingName)
				MERGE (c)-[r:SEEN_WITH]->(s)
				SET r.distance_px = $distance
			`
			siblingPath := sibling.CategoryPath
			if siblingPath == "" {
				siblingPath = sibling.Name
			}
			if _, err := session.Run(ctx, siblingQuery, map[string]interface{}{
				"hostname":    domainHost,
				"path":        c.CategoryPath,
				"siblingPath": siblingPath,
				"siblingName": sibling.Name,
				"distance":    sibling.DistancePx,
			}); err != nil {
				return nil, fmt.Errorf("failed to project category sibling: %w", err)
			}
		}
		return nil, nil
	})
	return err
}

// ProjectProduct merges the product node, its domain and category edges, and
// SEEN_WITH edges to its discovered siblings.
func (a *ProjectionAdapter) ProjectProduct(ctx context.Context, p *domain.Product) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		session := a.driver.NewSession(ctx, neo4j.SessionConfig{DatabaseName: a.dbName})
		defer session.Close(ctx)

		query := `
			MERGE (d:Domain {hostname: $hostname})
			MERGE (p:Product {id: $id})
			SET p.domain = $hostname,
				p.name = $name,
				p.product_id = $productID,
				p.product_type = $productType,
				p.url = $url,
				p.updated_at = timestamp()
			MERGE (d)-[:HAS_PRODUCT]->(p)
		`
		params := map[string]interface{}{
			"hostname":    p.Domain,
			"id":          p.ID,
			"name":        p.Name,
			"productID":   p.ProductID,
			"productType": p.ProductType,
			"url":         p.CanonicalURL,
		}
		if _, err := session.Run(ctx, query, params); err != nil {
			return nil, fmt.Errorf("failed to project product: %w", err)
		}

		for _, dc := range p.DiscoveryContexts {
			if dc.CategoryPath == "" {
				continue
			}
			categoryQuery := `
				MERGE (c:Category {domain: $hostname, path: $path})
				MERGE (p:Product {id: $id})
				MERGE (c)-[:LISTS]->(p)
			`
			if _, err := session.Run(ctx, categoryQuery, map[string]interface{}{
				"hostname": p.Domain,
				"path":     dc.CategoryPath,
				"id":       p.ID,
			}); err != nil {
				return nil, fmt.Errorf("failed to project product category: %w", err)
			}
		}

		for _, sibling := range p.DiscoveredSiblings {
			if sibling.Name == "" {
				continue
			}
			siblingQuery := `
				MERGE (p:Product {id: $id})
				MERGE (s:ProductSighting {domain: $hostname, name: $siblingName})
				SET s.product_type = coalesce(s.product_type, $siblingType)
				MERGE (p)-[r:SEEN_WITH]->(s)
				SET r.position = $position
			`
			if _, err := session.Run(ctx, siblingQuery, map[string]interface{}{
				"id":          p.ID,
				"hostname":    p.Domain,
				"siblingName": sibling.Name,
				"siblingType": sibling.ProductType,
				"position":    sibling.Position,
			}); err != nil {
				return nil, fmt.Errorf("failed to project product sibling: %w", err)
			}
		}
		return nil, nil
	})
	return err
}
