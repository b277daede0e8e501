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
// MongoDB Category Adapter
// =============================================================================

const collectionCategories = "wm_categories"

// CategoryAdapter implements out.CategoryRepository using MongoDB. The
// (domain_id, category_path) unique index is the last line of defense against
// concurrent creates of the same category.
type CategoryAdapter struct {
	collection *mongo.Collection
}

// NewCategoryAdapter creates a new MongoDB category adapter.
func NewCategoryAdapter(db *mongo.Database) *CategoryAdapter {
	return &CategoryAdapter{collection: db.Collection(collectionCategories)}
}

var _ out.CategoryRepository = (*CategoryAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *CategoryAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "domain_id", Value: 1},
				{Key: "category_path", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "domain_id", Value: 1}},
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

type categorySelectorsDoc struct {
	ProductGrid selectorInfoDoc `bson:"product_grid,omitempty"`
	Filters     selectorInfoDoc `bson:"filters,omitempty"`
	Pagination  selectorInfoDoc `bson:"pagination,omitempty"`
}

type categoryDocument struct {
	ID       string `bson:"id"`
	DomainID string `bson:"domain_id"`

	CategoryPath string `bson:"category_path"`
	Name         string `bson:"name"`
	Type         string `bson:"type"`

	ParentPath string   `bson:"parent_path,omitempty"`
	ChildPaths []string `bson:"child_paths,omitempty"`

	DiscoveryContexts []discoveryContextDoc `bson:"discovery_contexts"`

	Siblings  []siblingCategoryDoc `bson:"siblings,omitempty"`
	Selectors categorySelectorsDoc `bson:"selectors"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

func toCategoryDocument(c *domain.Category) *categoryDocument {
	return &categoryDocument{
		ID:                c.ID,
		DomainID:          c.DomainID,
		CategoryPath:      c.CategoryPath,
		Name:              c.Name,
		Type:              string(c.Type),
		ParentPath:        c.ParentPath,
		ChildPaths:        c.ChildPaths,
		DiscoveryContexts: toDiscoveryContextDocs(c.DiscoveryContexts),
		Siblings:          toSiblingCategoryDocs(c.Siblings),
		Selectors: categorySelectorsDoc{
			ProductGrid: toSelectorInfoDoc(c.Selectors.ProductGrid),
			Filters:     toSelectorInfoDoc(c.Selectors.Filters),
			Pagination:  toSelectorInfoDoc(c.Selectors.Pagination),
		},
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}

func toCategoryEntity(doc *categoryDocument) *domain.Category {
	return &domain.Category{
		ID:                doc.ID,
		DomainID:          doc.DomainID,
		CategoryPath:      doc.CategoryPath,
		Name:              doc.Name,
		Type:              domain.CategoryType(doc.Type),
		ParentPath:        doc.ParentPath,
		ChildPaths:        doc.ChildPaths,
		DiscoveryContexts: fromDiscoveryContextDocs(doc.DiscoveryContexts),
		Siblings:          fromSiblingCategoryDocs(doc.Siblings),
		Selectors: domain.CategorySelectors{
			ProductGrid: fromSelectorInfoDoc(doc.Selectors.ProductGrid),
			Filters:     fromSelectorInfoDoc(doc.Selectors.Filters),
			Pagination:  fromSelectorInfoDoc(doc.Selectors.Pagination),
		},
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// =============================================================================
// Operations
// =============================================================================

// FindByPath retrieves the category at the exact path, nil when absent.
func (a *CategoryAdapter) FindByPath(ctx context.Context, domainID, categoryPath string) (*domain.Category, error) {
	var doc categoryDocument
	filter := bson.M{"domain_id": domainID, "category_path": categoryPath}

	err := a.collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.DatabaseError("find category", err)
	}
	return toCategoryEntity(&doc), nil
}

// ListByDomain returns all categories of a domain.
func (a *CategoryAdapter) ListByDomain(ctx context.Context, domainID string) ([]*domain.Category, error) {
	cursor, err := a.collection.Find(ctx, bson.M{"domain_id": domainID})
	if err != nil {
		return nil, apperr.DatabaseError("list categories", err)
	}
	defer cursor.Close(ctx)

	var categories []*domain.Category
	for cursor.Next(ctx) {
		var doc categoryDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, apperr.DatabaseError("decode category", err)
		}
		categories = append(categories, toCategoryEntity(&doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, apperr.DatabaseError("list categories", err)
	}
	return categories, nil
}

// Create inserts a new category. A duplicate (domain_id, category_path)
// surfaces as apperr CodeAlreadyExists so the caller can re-find and merge.
func (a *CategoryAdapter) Create(ctx context.Context, c *domain.Category) error {
	if _, err := a.collection.InsertOne(ctx, toCategoryDocument(c)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return apperr.AlreadyExists("category").WithError(err)
		}
		return apperr.DatabaseError("create category", err)
	}
	return nil
}

// Update overwrites the current-snapshot fields and appends the new discovery
// contexts. The existing provenance log is never replaced.
func (a *CategoryAdapter) Update(ctx context.Context, c *domain.Category, newContexts []domain.DiscoveryContext) error {
	filter := bson.M{"domain_id": c.DomainID, "category_path": c.CategoryPath}

	update := bson.M{
		"$set": bson.M{
			"name":        c.Name,
			"type":        string(c.Type),
			"parent_path": c.ParentPath,
			"child_paths": c.ChildPaths,
			"siblings":    toSiblingCategoryDocs(c.Siblings),
			"selectors": categorySelectorsDoc{
				ProductGrid: toSelectorInfoDoc(c.Selectors.ProductGrid),
				Filters:     toSelectorInfoDoc(c.Selectors.Filters),
				Pagination:  toSelectorInfoDoc(c.Selectors.Pagination),
			},
			"updated_at": c.UpdatedAt,
		},
	}
	if len(newContexts) > 0 {
		update["$push"] = bson.M{
			"discovery_contexts": bson.M{"$each": toDiscoveryContextDocs(newContexts)},
		}
	}

	result, err := a.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return apperr.DatabaseError("update category", err)
	}
	if result.MatchedCount == 0 {
		return apperr.NotFound("category")
	}
	return nil
}
