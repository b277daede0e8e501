package mongodb

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"worldmodel_server/core/domain"
	"worldmodel_server/core/port/out"
	"worldmodel_server/pkg/apperr"
)

// =============================================================================
// MongoDB Product Adapter
// =============================================================================

const collectionProducts = "wm_products"

// ProductAdapter implements out.ProductRepository using MongoDB. The
// (domain, product_id) unique index only covers documents with a site-native
// ID; name-matched products rely on the store's candidate-key lookup.
type ProductAdapter struct {
	collection *mongo.Collection
}

// NewProductAdapter creates a new MongoDB product adapter.
func NewProductAdapter(db *mongo.Database) *ProductAdapter {
	return &ProductAdapter{collection: db.Collection(collectionProducts)}
}

var _ out.ProductRepository = (*ProductAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *ProductAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "domain", Value: 1},
				{Key: "product_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"product_id": bson.M{"$gt": ""}}),
		},
		{
			Keys: bson.D{
				{Key: "domain", Value: 1},
				{Key: "normalized_name", Value: 1},
			},
		},
		{
			Keys: bson.D{
				{Key: "domain", Value: 1},
				{Key: "discovery_contexts.category_path", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "updated_at", Value: -1}},
		},
	}

	_, err := a.collection.Indexes().CreateMany(ctx, indexes)
	return err
}

// =============================================================================
// Document Model
// =============================================================================

type productStateDoc struct {
	Price           float64   `bson:"price"`
	Currency        string    `bson:"currency,omitempty"`
	Available       bool      `bson:"available"`
	LastPriceUpdate time.Time `bson:"last_price_update,omitempty"`
}

type productReliabilityDoc struct {
	SuccessCount  int       `bson:"success_count"`
	TotalAttempts int       `bson:"total_attempts"`
	LastSeen      time.Time `bson:"last_seen,omitempty"`
}

type productDocument struct {
	ID string `bson:"id"`

	Domain    string `bson:"domain"`
	ProductID string `bson:"product_id,omitempty"`

	Name           string `bson:"name"`
	NormalizedName string `bson:"normalized_name"`
	ProductType    string `bson:"product_type,omitempty"`

	CanonicalURL string   `bson:"canonical_url,omitempty"`
	VariantURLs  []string `bson:"variant_urls,omitempty"`
	Images       []string `bson:"images,omitempty"`

	CurrentState productStateDoc    `bson:"current_state"`
	Variants     productVariantsDoc `bson:"variants"`

	Selectors map[string]selectorInfoDoc `bson:"selectors,omitempty"`

	DiscoveryContexts []discoveryContextDoc `bson:"discovery_contexts"`

	DiscoveredSiblings []siblingProductDoc `bson:"discovered_siblings,omitempty"`
	SiblingContext     string              `bson:"sibling_context,omitempty"`

	Reliability productReliabilityDoc `bson:"reliability"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toProductDocument(p *domain.Product) *productDocument {
	return &productDocument{
		ID:             p.ID,
		Domain:         p.Domain,
		ProductID:      p.ProductID,
		Name:           p.Name,
		NormalizedName: p.NormalizedName,
		ProductType:    p.ProductType,
		CanonicalURL:   p.CanonicalURL,
		VariantURLs:    p.VariantURLs,
		Images:         p.Images,
		CurrentState: productStateDoc{
			Price:           p.CurrentState.Price,
			Currency:        p.CurrentState.Currency,
			Available:       p.CurrentState.Available,
			LastPriceUpdate: p.CurrentState.LastPriceUpdate,
		},
		Variants:           toProductVariantsDoc(p.Variants),
		Selectors:          toSelectorMapDoc(p.Selectors),
		DiscoveryContexts:  toDiscoveryContextDocs(p.DiscoveryContexts),
		DiscoveredSiblings: toSiblingProductDocs(p.DiscoveredSiblings),
		SiblingContext:     string(p.SiblingContext),
		Reliability: productReliabilityDoc{
			SuccessCount:  p.Reliability.SuccessCount,
			TotalAttempts: p.Reliability.TotalAttempts,
			LastSeen:      p.Reliability.LastSeen,
		},
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toProductEntity(doc *productDocument) *domain.Product {
	return &domain.Product{
		ID:             doc.ID,
		Domain:         doc.Domain,
		ProductID:      doc.ProductID,
		Name:           doc.Name,
		NormalizedName: doc.NormalizedName,
		ProductType:    doc.ProductType,
		CanonicalURL:   doc.CanonicalURL,
		VariantURLs:    doc.VariantURLs,
		Images:         doc.Images,
		CurrentState: domain.ProductState{
			Price:           doc.CurrentState.Price,
			Currency:        doc.CurrentState.Currency,
			Available:       doc.CurrentState.Available,
			LastPriceUpdate: doc.CurrentState.LastPriceUpdate,
		},
		Variants:           fromProductVariantsDoc(doc.Variants),
		Selectors:          fromSelectorMapDoc(doc.Selectors),
		DiscoveryContexts:  fromDiscoveryContextDocs(doc.DiscoveryContexts),
		DiscoveredSiblings: fromSiblingProductDocs(doc.DiscoveredSiblings),
		SiblingContext:     domain.SiblingContext(doc.SiblingContext),
		Reliability: domain.ProductReliability{
			SuccessCount:  doc.Reliability.SuccessCount,
			TotalAttempts: doc.Reliability.TotalAttempts,
			LastSeen:      doc.Reliability.LastSeen,
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// =============================================================================
// Operations
// =============================================================================

// FindByProductID retrieves a product by site-native ID, nil when absent.
func (a *ProductAdapter) FindByProductID(ctx context.Context, domainHost, productID string) (*domain.Product, error) {
	var doc productDocument
	filter := bson.M{"domain": domainHost, "product_id": productID}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.DatabaseError("find product", err)
	}
	return toProductEntity(&doc), nil
}

// FindByNameCandidates tries the candidate keys in priority order and returns
// the first product whose normalized name matches, nil when none do.
func (a *ProductAdapter) FindByNameCandidates(ctx context.Context, domainHost string, keys []string) (*domain.Product, error) {
	for _, key := range keys {
		var doc productDocument
		filter := bson.M{"domain": domainHost, "normalized_name": key}

		err := a.collection.FindOne(ctx, filter).Decode(&doc)
		if err == mongo.ErrNoDocuments {
			continue
		}
		if err != nil {
			return nil, apperr.DatabaseError("find product by name", err)
		}
		return toProductEntity(&doc), nil
	}
	return nil, nil
}

// ListByCategory returns products with a discovery context under the path.
func (a *ProductAdapter) ListByCategory(ctx context.Context, domainHost, categoryPath string) ([]*domain.Product, error) {
	filter := bson.M{
		"domain":                           domainHost,
		"discovery_contexts.category_path": categoryPath,
	}

	cursor, err := a.collection.Find(ctx, filter)
	if err != nil {
		return nil, apperr.DatabaseError("list products", err)
	}
	defer cursor.Close(ctx)

	var products []*domain.Product
	for cursor.Next(ctx) {
		var doc productDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperr.DatabaseError("decode product", err)
		}
		products = append(products, toProductEntity(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.DatabaseError("list products", err)
	}
	return products, nil
}

// Create inserts a new product. A duplicate (domain, product_id) surfaces as
// apperr CodeAlreadyExists so the caller can re-find and merge.
func (a *ProductAdapter) Create(ctx context.Context, p *domain.Product) error {
	if _, err := a.collection.InsertOne(ctx, toProductDocument(p)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("product").WithError(err)
		}
		return apperr.DatabaseError("create product", err)
	}
	return nil
}

// Update overwrites the snapshot and volatile fields and appends the new
// discovery contexts. The existing provenance log is never replaced.
func (a *ProductAdapter) Update(ctx context.Context, p *domain.Product, newContexts []domain.DiscoveryContext) error {
	filter := bson.M{"id": p.ID}
	doc := toProductDocument(p)

	update := bson.M{
		"$set": bson.M{
			"product_id":          doc.ProductID,
			"name":                doc.Name,
			"normalized_name":     doc.NormalizedName,
			"product_type":        doc.ProductType,
			"canonical_url":       doc.CanonicalURL,
			"variant_urls":        doc.VariantURLs,
			"images":              doc.Images,
			"current_state":       doc.CurrentState,
			"variants":            doc.Variants,
			"selectors":           doc.Selectors,
			"discovered_siblings": doc.DiscoveredSiblings,
			"sibling_context":     doc.SiblingContext,
			"reliability":         doc.Reliability,
			"updated_at":          doc.UpdatedAt,
		},
	}
	if len(newContexts) > 0 {
		update["$push"] = bson.M{
			"discovery_contexts": bson.M{"$each": toDiscoveryContextDocs(newContexts)},
		}
	}

	result, err := a.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.DatabaseError("update product", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("product")
	}
	return nil
}
