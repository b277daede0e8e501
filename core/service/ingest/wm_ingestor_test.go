package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"worldmodel_server/core/domain"
	"worldmodel_server/core/service/worldmodel"
	"worldmodel_server/pkg/apperr"
	"worldmodel_server/pkg/metrics"
)

// =============================================================================
// In-Memory Fakes
// =============================================================================

type memDomainRepo struct {
	byHostname map[string]*domain.Domain
}

func (r *memDomainRepo) FindByHostname(_ context.Context, hostname string) (*domain.Domain, error) {
	return r.byHostname[hostname], nil
}

func (r *memDomainRepo) Save(_ context.Context, d *domain.Domain) error {
	r.byHostname[d.Hostname] = d
	return nil
}

type memCategoryRepo struct {
	categories []*domain.Category
}

func (r *memCategoryRepo) FindByPath(_ context.Context, domainID, path string) (*domain.Category, error) {
	for _, c := range r.categories {
		if c.DomainID == domainID && c.CategoryPath == path {
			return c, nil
		}
	}
	return nil, nil
}

func (r *memCategoryRepo) ListByDomain(_ context.Context, domainID string) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range r.categories {
		if c.DomainID == domainID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *memCategoryRepo) Create(_ context.Context, c *domain.Category) error {
	if existing, _ := r.FindByPath(context.Background(), c.DomainID, c.CategoryPath); existing != nil {
		return apperr.AlreadyExists("category")
	}
	r.categories = append(r.categories, c)
	return nil
}

func (r *memCategoryRepo) Update(_ context.Context, c *domain.Category, newContexts []domain.DiscoveryContext) error {
	for i, existing := range r.categories {
		if existing.DomainID == c.DomainID && existing.CategoryPath == c.CategoryPath {
			snapshot := *c
			snapshot.DiscoveryContexts = append(existing.DiscoveryContexts, newContexts...)
			r.categories[i] = &snapshot
			return nil
		}
	}
	return apperr.NotFound("category")
}

type memProductRepo struct {
	products []*domain.Product
}

func (r *memProductRepo) FindByProductID(_ context.Context, domainHost, productID string) (*domain.Product, error) {
	for _, p := range r.products {
		if p.Domain == domainHost && p.ProductID == productID {
			return p, nil
		}
	}
	return nil, nil
}

func (r *memProductRepo) FindByNameCandidates(_ context.Context, domainHost string, keys []string) (*domain.Product, error) {
	for _, key := range keys {
		for _, p := range r.products {
			if p.Domain == domainHost && p.NormalizedName == key {
				return p, nil
			}
		}
	}
	return nil, nil
}

func (r *memProductRepo) ListByCategory(_ context.Context, domainHost, categoryPath string) ([]*domain.Product, error) {
	var out []*domain.Product
	for _, p := range r.products {
		for _, dc := range p.DiscoveryContexts {
			if p.Domain == domainHost && dc.CategoryPath == categoryPath {
				out = append(out, p)
				break
			}
		}
	}
	return out, nil
}

func (r *memProductRepo) Create(_ context.Context, p *domain.Product) error {
	r.products = append(r.products, p)
	return nil
}

func (r *memProductRepo) Update(_ context.Context, p *domain.Product, newContexts []domain.DiscoveryContext) error {
	for i, existing := range r.products {
		if existing.ID == p.ID {
			snapshot := *p
			snapshot.DiscoveryContexts = append(existing.DiscoveryContexts, newContexts...)
			r.products[i] = &snapshot
			return nil
		}
	}
	return apperr.NotFound("product")
}

type memSessionSource struct {
	sessions  []*domain.CapturedSession
	processed map[string]bool
}

func (s *memSessionSource) NextSessions(_ context.Context, limit int) ([]*domain.CapturedSession, error) {
	var out []*domain.CapturedSession
	for _, session := range s.sessions {
		if s.processed[session.ID] {
			continue
		}
		out = append(out, session)
		if len(out) >= limit {
			break
		}
	}
	return out, nil
}

func (s *memSessionSource) MarkProcessed(_ context.Context, sessionID string) error {
	s.processed[sessionID] = true
	return nil
}

// =============================================================================
// Fixtures
// =============================================================================

func click(text, pageURL string) *domain.InteractionRecord {
	return &domain.InteractionRecord{
		Element: domain.ElementInfo{Text: text, Tag: "a"},
		Context: domain.PageContext{PageURL: pageURL},
		Interaction: domain.InteractionDetail{
			Type:      domain.InteractionClick,
			Timestamp: time.Now().UTC(),
		},
		Selectors: domain.SelectorInfo{Primary: "#el"},
	}
}

func shoppingSession() *domain.CapturedSession {
	return &domain.CapturedSession{
		ID: "session-1",
		Context: domain.SessionContext{
			BehaviorType:  domain.BehaviorBrowse,
			ShoppingStage: domain.StageConsideration,
		},
		Interactions: []*domain.InteractionRecord{
			click("Men", "https://shop.example.com/men.html"),
			click("Jeans", "https://shop.example.com/men/jeans.html"),
			click("Slim Jeans", "https://shop.example.com/p/slim-jeans/8812345"),
			click("Navy", "https://shop.example.com/p/slim-jeans/8812345"),
			click("M", "https://shop.example.com/p/slim-jeans/8812345"),
			click("Add to Cart", "https://shop.example.com/p/slim-jeans/8812345"),
		},
		CapturedAt: time.Now().UTC(),
	}
}

func newTestPipeline(source *memSessionSource) (*Pipeline, *memDomainRepo, *memCategoryRepo, *memProductRepo) {
	domains := &memDomainRepo{byHostname: map[string]*domain.Domain{}}
	categories := &memCategoryRepo{}
	products := &memProductRepo{}

	store := worldmodel.NewStore(zerolog.Nop(), domains, categories, products, nil, nil)
	pipeline := NewPipeline(zerolog.Nop(), store, source, metrics.NewLatencyRegistry(100))
	return pipeline, domains, categories, products
}

// =============================================================================
// Tests
// =============================================================================

// TestProcessSessionEndToEnd runs a full browse-configure-convert session
// through classification, segmentation, and world model upserts.
func TestProcessSessionEndToEnd(t *testing.T) {
	pipeline, domains, categories, products := newTestPipeline(nil)

	report, err := pipeline.ProcessSession(context.Background(), shoppingSession())
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}

	if report.Interactions != 6 {
		t.Errorf("Interactions = %d, want 6", report.Interactions)
	}
	if report.IntentCounts[domain.IntentCategory] != 2 {
		t.Errorf("category intents = %d, want 2", report.IntentCounts[domain.IntentCategory])
	}
	if report.IntentCounts[domain.IntentProductAttribute] != 3 {
		t.Errorf("attribute intents = %d, want 3 (Navy, M, Add to Cart)", report.IntentCounts[domain.IntentProductAttribute])
	}
	if !report.ConversionComplete {
		t.Error("ConversionComplete = false, want true")
	}

	// Domain created once.
	d := domains.byHostname["shop.example.com"]
	if d == nil {
		t.Fatal("domain not upserted")
	}

	// Both category levels landed.
	if report.CategoriesUpserted != 2 {
		t.Errorf("CategoriesUpserted = %d, want 2", report.CategoriesUpserted)
	}
	paths := map[string]bool{}
	for _, c := range categories.categories {
		paths[c.CategoryPath] = true
	}
	if !paths["men"] || !paths["men/jeans"] {
		t.Errorf("category paths = %v, want men and men/jeans", paths)
	}

	// One product with its native ID and accumulated variants.
	if len(products.products) != 1 {
		t.Fatalf("products = %d, want 1", len(products.products))
	}
	p := products.products[0]
	if p.ProductID != "8812345" {
		t.Errorf("ProductID = %s, want 8812345", p.ProductID)
	}
	if len(p.Variants.Color.Options) != 1 {
		t.Errorf("color options = %d, want Navy", len(p.Variants.Color.Options))
	}
	if len(p.Variants.Size.Options) != 1 {
		t.Errorf("size options = %d, want M", len(p.Variants.Size.Options))
	}
	if p.DiscoveryContexts[0].CategoryPath != "men/jeans" {
		t.Errorf("discovery category = %s, want men/jeans", p.DiscoveryContexts[0].CategoryPath)
	}
}

// TestProcessSessionIdempotent verifies reprocessing does not duplicate
// entities, only provenance.
func TestProcessSessionIdempotent(t *testing.T) {
	pipeline, _, categories, products := newTestPipeline(nil)
	ctx := context.Background()

	if _, err := pipeline.ProcessSession(ctx, shoppingSession()); err != nil {
		t.Fatalf("first ProcessSession: %v", err)
	}
	if _, err := pipeline.ProcessSession(ctx, shoppingSession()); err != nil {
		t.Fatalf("second ProcessSession: %v", err)
	}

	if len(products.products) != 1 {
		t.Errorf("products = %d, want 1 after reprocessing", len(products.products))
	}
	if len(categories.categories) != 2 {
		t.Errorf("categories = %d, want 2 after reprocessing", len(categories.categories))
	}
	if got := len(products.products[0].DiscoveryContexts); got != 2 {
		t.Errorf("product contexts = %d, want 2 (one per processing)", got)
	}
}

// TestProcessSessionEmpty tests the zero-interaction edge.
func TestProcessSessionEmpty(t *testing.T) {
	pipeline, _, _, _ := newTestPipeline(nil)

	report, err := pipeline.ProcessSession(context.Background(), &domain.CapturedSession{ID: "empty"})
	if err != nil {
		t.Fatalf("ProcessSession: %v", err)
	}
	if report.Interactions != 0 {
		t.Errorf("Interactions = %d, want 0", report.Interactions)
	}
}

// TestRunOnce tests batch pull, processing, and the processed marker.
func TestRunOnce(t *testing.T) {
	source := &memSessionSource{
		sessions:  []*domain.CapturedSession{shoppingSession()},
		processed: map[string]bool{},
	}
	pipeline, _, _, _ := newTestPipeline(source)

	processed, err := pipeline.RunOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if processed != 1 {
		t.Errorf("processed = %d, want 1", processed)
	}
	if !source.processed["session-1"] {
		t.Error("session not marked processed")
	}

	// A second run finds nothing left.
	processed, err = pipeline.RunOnce(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if processed != 0 {
		t.Errorf("processed = %d, want 0 on drained source", processed)
	}
}
