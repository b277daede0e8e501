// Package worldmodel maintains the persistent site model: domains, deduped
// categories and products, variant clusters, and discovery provenance.
package worldmodel

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"worldmodel_server/core/domain"
	"worldmodel_server/core/port/out"
	"worldmodel_server/core/service/variant"
	"worldmodel_server/pkg/apperr"
	"worldmodel_server/pkg/cache"
)

const domainCacheTTL = 10 * time.Minute

// =============================================================================
// Observations
// =============================================================================

// CategoryObservation is one classified category sighting to fold in.
type CategoryObservation struct {
	CategoryPath string
	Name         string
	Type         domain.CategoryType
	Siblings     []domain.SiblingCategory
	Selectors    domain.CategorySelectors
	Discovery    domain.DiscoveryContext
}

// ProductObservation is one classified product sighting to fold in.
type ProductObservation struct {
	ProductID    string
	Name         string
	ProductType  string
	URL          string
	CategoryPath string
	State        *domain.ProductState
	Selectors    map[string]domain.SelectorInfo
	Attributes   []*domain.AttributeData
	Siblings     []domain.SiblingProduct
	Discovery    domain.DiscoveryContext
}

// =============================================================================
// Store
// =============================================================================

// Store is the single write path into the world model. All upserts are
// find-then-merge with compensating re-reads on uniqueness conflicts, so
// concurrent ingestion of the same entity converges on one document.
type Store struct {
	log        zerolog.Logger
	domains    out.DomainRepository
	categories out.CategoryRepository
	products   out.ProductRepository
	cache      out.Cache
	graph      out.GraphProjector // optional
	variants   *variant.Extractor
}

// NewStore wires the store. cache and graph may be nil.
func NewStore(
	log zerolog.Logger,
	domains out.DomainRepository,
	categories out.CategoryRepository,
	products out.ProductRepository,
	lookupCache out.Cache,
	graph out.GraphProjector,
) *Store {
	return &Store{
		log:        log.With().Str("component", "worldmodel_store").Logger(),
		domains:    domains,
		categories: categories,
		products:   products,
		cache:      lookupCache,
		graph:      graph,
		variants:   variant.NewExtractor(),
	}
}

// =============================================================================
// Domains
// =============================================================================

// UpsertDomain returns the Domain for a hostname, creating it on first
// sighting. Reliability counters only grow.
func (s *Store) UpsertDomain(ctx context.Context, hostname string) (*domain.Domain, error) {
	hostname = strings.ToLower(strings.TrimSpace(hostname))
	if hostname == "" {
		return nil, apperr.MissingField("hostname")
	}

	if s.cache != nil {
		var cached domain.Domain
		if hit, err := s.cache.GetJSON(ctx, cache.DomainKey(hostname), &cached); err == nil && hit {
			return &cached, nil
		}
	}

	now := time.Now().UTC()
	d, err := s.domains.FindByHostname(ctx, hostname)
	if err != nil {
		return nil, err
	}
	if d == nil {
		d = &domain.Domain{
			ID:              uuid.New().String(),
			Hostname:        hostname,
			GlobalSelectors: map[string]domain.SelectorInfo{},
			URLPatterns:     map[domain.PageType]string{},
			FirstSeenAt:     now,
		}
	}

	d.Reliability.InteractionCount++
	d.Reliability.LastSeen = now
	d.UpdatedAt = now

	if err := s.domains.Save(ctx, d); err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, cache.DomainKey(hostname), d, domainCacheTTL); err != nil {
			s.log.Debug().Err(err).Str("hostname", hostname).Msg("domain cache write failed")
		}
	}
	return d, nil
}

// RecordURLPattern remembers a URL template for a page type on the domain.
func (s *Store) RecordURLPattern(ctx context.Context, d *domain.Domain, pageType domain.PageType, pattern string) error {
	if d.URLPatterns == nil {
		d.URLPatterns = map[domain.PageType]string{}
	}
	if existing, ok := d.URLPatterns[pageType]; ok && existing == pattern {
		return nil
	}
	d.URLPatterns[pageType] = pattern
	d.UpdatedAt = time.Now().UTC()
	if s.cache != nil {
		_ = s.cache.Delete(ctx, cache.DomainKey(d.Hostname))
	}
	return s.domains.Save(ctx, d)
}

// =============================================================================
// Categories
// =============================================================================

// UpsertCategory folds one category sighting into the model. Matching is
// exact path first, then candidate-key fuzzy matching against the domain's
// known categories, so "Men's Shirts" and "mens shirt" land on one document.
func (s *Store) UpsertCategory(ctx context.Context, d *domain.Domain, obs *CategoryObservation) (*domain.Category, error) {
	if obs.CategoryPath == "" {
		return nil, apperr.MissingField("category_path")
	}
	now := time.Now().UTC()
	if obs.Discovery.ObservedAt.IsZero() {
		obs.Discovery.ObservedAt = now
	}

	c, err := s.categories.FindByPath(ctx, d.ID, obs.CategoryPath)
	if err != nil {
		return nil, err
	}
	if c == nil {
		c, err = s.findCategoryByName(ctx, d.ID, obs.Name)
		if err != nil {
			return nil, err
		}
	}

	if c != nil {
		s.mergeCategorySnapshot(c, obs, now)
		if err := s.categories.Update(ctx, c, []domain.DiscoveryContext{obs.Discovery}); err != nil {
			return nil, err
		}
		s.projectCategory(ctx, d.Hostname, c)
		return c, nil
	}

	c = newCategory(d.ID, obs, now)
	if err := s.categories.Create(ctx, c); err != nil {
		if !apperr.IsCode(err, apperr.CodeAlreadyExists) {
			return nil, err
		}
		// Lost a create race; fold into the winner instead.
		existing, ferr := s.categories.FindByPath(ctx, d.ID, obs.CategoryPath)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, err
		}
		s.mergeCategorySnapshot(existing, obs, now)
		if uerr := s.categories.Update(ctx, existing, []domain.DiscoveryContext{obs.Discovery}); uerr != nil {
			return nil, uerr
		}
		c = existing
	}

	s.projectCategory(ctx, d.Hostname, c)
	return c, nil
}

// findCategoryByName tries the fuzzy candidate keys against every known
// category of the domain. First hit wins.
func (s *Store) findCategoryByName(ctx context.Context, domainID, name string) (*domain.Category, error) {
	keys := CandidateKeys(name)
	if len(keys) == 0 {
		return nil, nil
	}
	known, err := s.categories.ListByDomain(ctx, domainID)
	if err != nil {
		return nil, err
	}
	for _, key := range keys {
		for _, c := range known {
			if NormalizeName(c.Name) == key || NormalizeName(lastPathSegment(c.CategoryPath)) == key {
				return c, nil
			}
		}
	}
	return nil, nil
}

func lastPathSegment(path string) string {
	if i := strings.LastIndex(path, "/"); i >= 0 {
		return path[i+1:]
	}
	return path
}

func newCategory(domainID string, obs *CategoryObservation, now time.Time) *domain.Category {
	catType := obs.Type
	if catType == "" {
		catType = domain.CategoryRegular
	}
	c := &domain.Category{
		ID:                uuid.New().String(),
		DomainID:          domainID,
		CategoryPath:      obs.CategoryPath,
		Name:              obs.Name,
		Type:              catType,
		ParentPath:        parentPath(obs.CategoryPath),
		DiscoveryContexts: []domain.DiscoveryContext{obs.Discovery},
		Siblings:          obs.Siblings,
		Selectors:         obs.Selectors,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	return c
}

func parentPath(categoryPath string) string {
	if i := strings.LastIndex(categoryPath, "/"); i > 0 {
		return categoryPath[:i]
	}
	return ""
}

// mergeCategorySnapshot overwrites the current-snapshot fields from a fresh
// sighting. Provenance is appended by the repository, never touched here.
func (s *Store) mergeCategorySnapshot(c *domain.Category, obs *CategoryObservation, now time.Time) {
	if obs.Name != "" {
		c.Name = obs.Name
	}
	if obs.Type != "" && obs.Type != c.Type {
		if c.Type != "" && c.Type != domain.CategoryRegular && obs.Type != c.Type {
			c.Type = domain.CategoryMixed
		} else {
			c.Type = obs.Type
		}
	}
	if len(obs.Siblings) > 0 {
		c.Siblings = obs.Siblings
	}
	if obs.Selectors.ProductGrid.Primary != "" {
		c.Selectors.ProductGrid = obs.Selectors.ProductGrid
	}
	if obs.Selectors.Filters.Primary != "" {
		c.Selectors.Filters = obs.Selectors.Filters
	}
	if obs.Selectors.Pagination.Primary != "" {
		c.Selectors.Pagination = obs.Selectors.Pagination
	}
	if obs.Discovery.Method == domain.DiscoveryChild {
		addChildPath(c, obs.Discovery.CategoryPath)
	}
	c.UpdatedAt = now
}

func addChildPath(c *domain.Category, childPath string) {
	if childPath == "" || childPath == c.CategoryPath {
		return
	}
	for _, p := range c.ChildPaths {
		if p == childPath {
			return
		}
	}
	c.ChildPaths = append(c.ChildPaths, childPath)
}

// =============================================================================
// Products
// =============================================================================

// IngestProductWithSiblings folds the primary product sighting plus its
// on-page siblings into the model. The primary carries the sibling snapshot;
// each sibling is upserted as its own product with sibling provenance. A
// sibling failure is logged and skipped, a primary failure is returned.
func (s *Store) IngestProductWithSiblings(ctx context.Context, d *domain.Domain, primary *ProductObservation) (*domain.Product, error) {
	primary.Discovery.SiblingCount = len(primary.Siblings)

	p, err := s.upsertProduct(ctx, d, primary, siblingContextOf(primary.Siblings), primary.Siblings)
	if err != nil {
		return nil, err
	}

	for i, sib := range primary.Siblings {
		obs := &ProductObservation{
			ProductID:    sib.ProductID,
			Name:         sib.Name,
			ProductType:  sib.ProductType,
			URL:          sib.URL,
			CategoryPath: primary.CategoryPath,
			Discovery: domain.DiscoveryContext{
				Method:         domain.DiscoverySibling,
				SourceURL:      primary.URL,
				CategoryPath:   primary.CategoryPath,
				PositionOnPage: sib.Position,
				SiblingCount:   len(primary.Siblings),
				ContextData:    map[string]any{"primary_product": primary.Name},
				ObservedAt:     primary.Discovery.ObservedAt,
			},
		}
		if _, serr := s.upsertProduct(ctx, d, obs, domain.SiblingsUnknown, nil); serr != nil {
			s.log.Warn().Err(serr).
				Str("sibling", sib.Name).
				Int("position", i).
				Msg("sibling upsert failed, continuing")
		}
	}

	s.projectProduct(ctx, p)
	return p, nil
}

// siblingContextOf summarizes the sibling composition of a render.
func siblingContextOf(siblings []domain.SiblingProduct) domain.SiblingContext {
	if len(siblings) == 0 {
		return domain.SiblingsUnknown
	}
	first := ""
	for _, sib := range siblings {
		if sib.ProductType == "" {
			continue
		}
		if first == "" {
			first = sib.ProductType
			continue
		}
		if sib.ProductType != first {
			return domain.SiblingsMixed
		}
	}
	if first == "" {
		return domain.SiblingsUnknown
	}
	return domain.SiblingsHomogeneous
}

// upsertProduct is the single product write path: match by site-native ID,
// then by candidate-key name, then create with conflict compensation.
func (s *Store) upsertProduct(ctx context.Context, d *domain.Domain, obs *ProductObservation, sibCtx domain.SiblingContext, siblings []domain.SiblingProduct) (*domain.Product, error) {
	if obs.Name == "" && obs.ProductID == "" {
		return nil, apperr.MissingField("product name or product_id")
	}
	now := time.Now().UTC()
	if obs.Discovery.ObservedAt.IsZero() {
		obs.Discovery.ObservedAt = now
	}

	p, err := s.findProduct(ctx, d.Hostname, obs)
	if err != nil {
		return nil, err
	}

	if p != nil {
		s.mergeProductSnapshot(p, obs, sibCtx, siblings, now)
		if err := s.products.Update(ctx, p, []domain.DiscoveryContext{obs.Discovery}); err != nil {
			return nil, err
		}
		return p, nil
	}

	p = s.newProduct(d.Hostname, obs, sibCtx, siblings, now)
	if err := s.products.Create(ctx, p); err != nil {
		if !apperr.IsCode(err, apperr.CodeAlreadyExists) {
			return nil, err
		}
		existing, ferr := s.findProduct(ctx, d.Hostname, obs)
		if ferr != nil {
			return nil, ferr
		}
		if existing == nil {
			return nil, err
		}
		s.mergeProductSnapshot(existing, obs, sibCtx, siblings, now)
		if uerr := s.products.Update(ctx, existing, []domain.DiscoveryContext{obs.Discovery}); uerr != nil {
			return nil, uerr
		}
		p = existing
	}

	if s.cache != nil && p.ProductID != "" {
		_ = s.cache.SetJSON(ctx, cache.ProductKey(p.Domain, p.ProductID), p.ID, domainCacheTTL)
	}
	return p, nil
}

func (s *Store) findProduct(ctx context.Context, domainHost string, obs *ProductObservation) (*domain.Product, error) {
	if obs.ProductID != "" {
		p, err := s.products.FindByProductID(ctx, domainHost, obs.ProductID)
		if err != nil || p != nil {
			return p, err
		}
	}
	keys := CandidateKeys(obs.Name)
	if len(keys) == 0 {
		return nil, nil
	}
	return s.products.FindByNameCandidates(ctx, domainHost, keys)
}

func (s *Store) newProduct(domainHost string, obs *ProductObservation, sibCtx domain.SiblingContext, siblings []domain.SiblingProduct, now time.Time) *domain.Product {
	p := &domain.Product{
		ID:                 uuid.New().String(),
		Domain:             domainHost,
		ProductID:          obs.ProductID,
		Name:               obs.Name,
		NormalizedName:     NormalizeName(obs.Name),
		ProductType:        obs.ProductType,
		CanonicalURL:       obs.URL,
		Variants:           domain.NewProductVariants(),
		Selectors:          obs.Selectors,
		DiscoveryContexts:  []domain.DiscoveryContext{obs.Discovery},
		DiscoveredSiblings: siblings,
		SiblingContext:     sibCtx,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if obs.State != nil {
		p.CurrentState = *obs.State
		p.CurrentState.LastPriceUpdate = now
	}
	p.Reliability.LastSeen = now
	s.variants.ApplyAll(p, obs.Attributes)
	return p
}

// mergeProductSnapshot overwrites volatile fields, grows variant clusters,
// and refreshes the sibling snapshot when the sighting is a primary one.
func (s *Store) mergeProductSnapshot(p *domain.Product, obs *ProductObservation, sibCtx domain.SiblingContext, siblings []domain.SiblingProduct, now time.Time) {
	if obs.ProductID != "" && p.ProductID == "" {
		p.ProductID = obs.ProductID
	}
	if obs.ProductType != "" {
		p.ProductType = obs.ProductType
	}
	if obs.URL != "" {
		if p.CanonicalURL == "" {
			p.CanonicalURL = obs.URL
		} else if obs.URL != p.CanonicalURL {
			addVariantURL(p, obs.URL)
		}
	}
	if obs.State != nil {
		obs.State.LastPriceUpdate = now
		p.CurrentState = *obs.State
	}
	for name, sel := range obs.Selectors {
		if p.Selectors == nil {
			p.Selectors = map[string]domain.SelectorInfo{}
		}
		if _, ok := p.Selectors[name]; !ok {
			p.Selectors[name] = sel
		}
	}
	if obs.Discovery.Method == domain.DiscoveryPrimaryClick {
		if len(siblings) > 0 {
			p.DiscoveredSiblings = siblings
		}
		if sibCtx != domain.SiblingsUnknown {
			p.SiblingContext = sibCtx
		}
	}
	s.variants.ApplyAll(p, obs.Attributes)
	p.Reliability.LastSeen = now
	p.UpdatedAt = now
}

func addVariantURL(p *domain.Product, url string) {
	for _, u := range p.VariantURLs {
		if u == url {
			return
		}
	}
	p.VariantURLs = append(p.VariantURLs, url)
}

// =============================================================================
// Reads
// =============================================================================

// GetProductsForCategory lists products discovered under a category path.
func (s *Store) GetProductsForCategory(ctx context.Context, domainHost, categoryPath string) ([]*domain.Product, error) {
	return s.products.ListByCategory(ctx, domainHost, categoryPath)
}

// GetVariantClusters returns the accumulated clusters for a product, keyed by
// site-native product ID.
func (s *Store) GetVariantClusters(ctx context.Context, domainHost, productID string) (*domain.ProductVariants, error) {
	p, err := s.products.FindByProductID(ctx, domainHost, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.NotFound("product")
	}
	return &p.Variants, nil
}

// =============================================================================
// Graph Projection (write-behind, best-effort)
// =============================================================================

func (s *Store) projectCategory(ctx context.Context, domainHost string, c *domain.Category) {
	if s.graph == nil {
		return
	}
	if err := s.graph.ProjectCategory(ctx, domainHost, c); err != nil {
		s.log.Warn().Err(err).Str("category_path", c.CategoryPath).Msg("graph projection failed")
	}
}

func (s *Store) projectProduct(ctx context.Context, p *domain.Product) {
	if s.graph == nil {
		return
	}
	if err := s.graph.ProjectProduct(ctx, p); err != nil {
		s.log.Warn().Err(err).Str("product", p.Name).Msg("graph projection failed")
	}
}
