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
// MongoDB Domain Adapter
// =============================================================================

const collectionDomains = "wm_domains"

// DomainAdapter implements out.DomainRepository using MongoDB.
type DomainAdapter struct {
	collection *mongo.Collection
}

// NewDomainAdapter creates a new MongoDB domain adapter.
func NewDomainAdapter(db *mongo.Database) *DomainAdapter {
	return &DomainAdapter{collection: db.Collection(collectionDomains)}
}

var _ out.DomainRepository = (*DomainAdapter)(nil)

// EnsureIndexes creates necessary indexes for the collection.
func (a *DomainAdapter) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "hostname", Value: 1}},
			Options: options.Index().SetUnique(true),
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

type domainReliabilityDoc struct {
	SuccessRate      float64   `bson:"success_rate"`
	InteractionCount int64     `bson:"interaction_count"`
	LastSeen         time.Time `bson:"last_seen,omitempty"`
}

type domainDocument struct {
	ID       string `bson:"id"`
	Hostname string `bson:"hostname"`

	GlobalSelectors map[string]selectorInfoDoc `bson:"global_selectors,omitempty"`
	URLPatterns     map[string]string          `bson:"url_patterns,omitempty"`

	Reliability domainReliabilityDoc `bson:"reliability"`

	FirstSeenAt time.Time `bson:"first_seen_at"`
	UpdatedAt   time.Time `bson:"updated_at"`
}

func toDomainDocument(d *domain.Domain) *domainDocument {
	var patterns map[string]string
	if d.URLPatterns != nil {
		patterns = make(map[string]string, len(d.URLPatterns))
		for k, v := range d.URLPatterns {
			patterns[string(k)] = v
		}
	}
	return &domainDocument{
		ID:              d.ID,
		Hostname:        d.Hostname,
		GlobalSelectors: toSelectorMapDoc(d.GlobalSelectors),
		URLPatterns:     patterns,
		Reliability: domainReliabilityDoc{
			SuccessRate:      d.Reliability.SuccessRate,
			InteractionCount: d.Reliability.InteractionCount,
			LastSeen:         d.Reliability.LastSeen,
		},
		FirstSeenAt: d.FirstSeenAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

func toDomainEntity(doc *domainDocument) *domain.Domain {
	var patterns map[domain.PageType]string
	if doc.URLPatterns != nil {
		patterns = make(map[domain.PageType]string, len(doc.URLPatterns))
		for k, v := range doc.URLPatterns {
			patterns[domain.PageType(k)] = v
		}
	}
	return &domain.Domain{
		ID:              doc.ID,
		Hostname:        doc.Hostname,
		GlobalSelectors: fromSelectorMapDoc(doc.GlobalSelectors),
		URLPatterns:     patterns,
		Reliability: domain.DomainReliability{
			SuccessRate:      doc.Reliability.SuccessRate,
			InteractionCount: doc.Reliability.InteractionCount,
			LastSeen:         doc.Reliability.LastSeen,
		},
		FirstSeenAt: doc.FirstSeenAt,
		UpdatedAt:   doc.UpdatedAt,
	}
}

// =============================================================================
// Operations
// =============================================================================

// FindByHostname retrieves a domain by hostname, nil when unknown.
func (a *DomainAdapter) FindByHostname(ctx context.Context, hostname string) (*domain.Domain, error) {
	var doc domainDocument
	err := a.collection.FindOne(ctx, bson.M{"hostname": hostname}).Decode(&doc)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, nil
		}
		return nil, apperr.DatabaseError("find domain", err)
	}
	return toDomainEntity(&doc), nil
}

// Save upserts the domain document by hostname.
func (a *DomainAdapter) Save(ctx context.Context, d *domain.Domain) error {
	doc := toDomainDocument(d)

	opts := options.Replace().SetUpsert(true)
	filter := bson.M{"hostname": d.Hostname}

	if _, err := a.collection.ReplaceOne(ctx, filter, doc, opts); err != nil {
		return apperr.DatabaseError("save domain", err)
	}
	return nil
}
