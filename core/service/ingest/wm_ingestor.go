// Package ingest runs captured sessions through the classification cascade
// and folds the results into the world model.
package ingest

import (
	"context"
	"regexp"
	"time"

	"github.com/rs/zerolog"

	"worldmodel_server/core/domain"
	"worldmodel_server/core/port/out"
	"worldmodel_server/core/service/intent"
	"worldmodel_server/core/service/pageclass"
	"worldmodel_server/core/service/sequence"
	"worldmodel_server/core/service/worldmodel"
	"worldmodel_server/pkg/metrics"
)

// defaultLookAhead is how many following interactions the navigation analyzer
// may inspect per classified interaction.
const defaultLookAhead = 5

// Pipeline is the session ingestion path: page classification, per-interaction
// intent classification with look-ahead, sequence segmentation, then world
// model upserts.
type Pipeline struct {
	log       zerolog.Logger
	pages     *pageclass.Classifier
	intents   *intent.Classifier
	segmenter *sequence.Segmenter
	store     *worldmodel.Store
	source    out.SessionSource
	latency   *metrics.LatencyRegistry
	lookAhead int
}

// NewPipeline wires the ingestion pipeline. source may be nil when sessions
// are fed directly through ProcessSession.
func NewPipeline(
	log zerolog.Logger,
	store *worldmodel.Store,
	source out.SessionSource,
	latency *metrics.LatencyRegistry,
) *Pipeline {
	return &Pipeline{
		log:       log.With().Str("component", "ingest_pipeline").Logger(),
		pages:     pageclass.NewClassifier(),
		intents:   intent.NewClassifier(log),
		segmenter: sequence.NewSegmenter(),
		store:     store,
		source:    source,
		latency:   latency,
		lookAhead: defaultLookAhead,
	}
}

// SessionReport summarizes one processed session.
type SessionReport struct {
	SessionID          string                    `json:"session_id"`
	Interactions       int                       `json:"interactions"`
	IntentCounts       map[domain.IntentType]int `json:"intent_counts"`
	OverallType        domain.SequenceType       `json:"overall_type"`
	QualityScore       float64                   `json:"quality_score"`
	ConversionComplete bool                      `json:"conversion_complete"`
	CategoriesUpserted int                       `json:"categories_upserted"`
	ProductsUpserted   int                       `json:"products_upserted"`
}

// RunOnce pulls one batch of unprocessed sessions, processes each, and marks
// them processed. A failed session is logged and left unmarked for retry.
func (p *Pipeline) RunOnce(ctx context.Context, limit int) (int, error) {
	sessions, err := p.source.NextSessions(ctx, limit)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, session := range sessions {
		start := time.Now()
		report, err := p.ProcessSession(ctx, session)
		if err != nil {
			p.log.Error().Err(err).Str("session_id", session.ID).Msg("session processing failed")
			continue
		}
		if err := p.source.MarkProcessed(ctx, session.ID); err != nil {
			p.log.Error().Err(err).Str("session_id", session.ID).Msg("mark processed failed")
			continue
		}
		p.latency.Record(metrics.StageSession, time.Since(start))
		processed++

		p.log.Info().
			Str("session_id", report.SessionID).
			Int("interactions", report.Interactions).
			Str("overall_type", string(report.OverallType)).
			Float64("quality", report.QualityScore).
			Int("categories", report.CategoriesUpserted).
			Int("products", report.ProductsUpserted).
			Msg("session processed")
	}
	return processed, nil
}

// ProcessSession classifies and folds one session into the world model.
func (p *Pipeline) ProcessSession(ctx context.Context, session *domain.CapturedSession) (*SessionReport, error) {
	report := &SessionReport{
		SessionID:    session.ID,
		Interactions: len(session.Interactions),
		IntentCounts: map[domain.IntentType]int{},
	}
	if len(session.Interactions) == 0 {
		return report, nil
	}

	results := p.classify(session)
	for _, r := range results {
		report.IntentCounts[r.Type]++
	}

	segStart := time.Now()
	analysis := p.segmenter.Analyze(session.Interactions, results)
	p.latency.Record(metrics.StageSegment, time.Since(segStart))
	report.OverallType = analysis.OverallType
	report.QualityScore = analysis.QualityScore
	report.ConversionComplete = analysis.ConversionComplete

	upsertStart := time.Now()
	err := p.upsert(ctx, session, results, report)
	p.latency.Record(metrics.StageUpsert, time.Since(upsertStart))
	if err != nil {
		return nil, err
	}
	return report, nil
}

// classify runs page classification (filling in missing page types so the
// segmenter can use them) and the intent cascade with look-ahead.
func (p *Pipeline) classify(session *domain.CapturedSession) []*domain.ClassificationResult {
	start := time.Now()
	defer func() { p.latency.Record(metrics.StageClassify, time.Since(start)) }()

	results := make([]*domain.ClassificationResult, len(session.Interactions))
	for i, rec := range session.Interactions {
		if rec.Context.PageType == "" || rec.Context.PageType == domain.PageUnknown {
			page := p.pages.Classify(rec)
			rec.Context.PageType = page.PageType
		}

		end := i + 1 + p.lookAhead
		if end > len(session.Interactions) {
			end = len(session.Interactions)
		}
		results[i] = p.intents.Classify(&intent.Input{
			Interaction: rec,
			Session:     &session.Context,
			Following:   session.Interactions[i+1 : end],
		})
	}
	return results
}

// upsert folds classified results into the world model: the domain first,
// then categories, then products grouped per page with their attributes and
// on-page siblings.
func (p *Pipeline) upsert(ctx context.Context, session *domain.CapturedSession, results []*domain.ClassificationResult, report *SessionReport) error {
	hostname := sessionHostname(session, results)
	if hostname == "" {
		p.log.Debug().Str("session_id", session.ID).Msg("no hostname derivable, skipping upserts")
		return nil
	}

	d, err := p.store.UpsertDomain(ctx, hostname)
	if err != nil {
		return err
	}

	for i, r := range results {
		if r.Type != domain.IntentCategory || r.ExtractedData == nil || r.ExtractedData.CategoryPath == "" {
			continue
		}
		rec := session.Interactions[i]
		obs := categoryObservation(rec, r)
		if _, err := p.store.UpsertCategory(ctx, d, obs); err != nil {
			return err
		}
		report.CategoriesUpserted++
		p.recordPattern(ctx, d, domain.PageCategory, r.ExtractedData.URL)
	}

	for _, obs := range p.productObservations(session, results) {
		if _, err := p.store.IngestProductWithSiblings(ctx, d, obs); err != nil {
			return err
		}
		report.ProductsUpserted++
		p.recordPattern(ctx, d, domain.PageProduct, obs.URL)
	}
	return nil
}

// sessionHostname prefers the cascade's extracted domain, falling back to the
// first interaction with a page URL.
func sessionHostname(session *domain.CapturedSession, results []*domain.ClassificationResult) string {
	for _, r := range results {
		if r.Domain != "" {
			return r.Domain
		}
	}
	for _, rec := range session.Interactions {
		if h := intent.Hostname(rec.Context.PageURL); h != "" {
			return h
		}
	}
	return ""
}

func categoryObservation(rec *domain.InteractionRecord, r *domain.ClassificationResult) *worldmodel.CategoryObservation {
	return &worldmodel.CategoryObservation{
		CategoryPath: r.ExtractedData.CategoryPath,
		Name:         r.ExtractedData.Name,
		Type:         categoryTypeOf(r.ExtractedData),
		Siblings:     nearbyCategories(rec),
		Discovery: domain.DiscoveryContext{
			Method:       domain.DiscoveryPrimaryClick,
			SourceURL:    rec.Context.PageURL,
			CategoryPath: r.ExtractedData.CategoryPath,
			PagePosition: rec.Visual.BoundingBox,
			ContextData:  discoveryContextData(rec, r),
			ObservedAt:   rec.Interaction.Timestamp,
		},
	}
}

var salePathPattern = regexp.MustCompile(`(?i)\b(sale|clearance|outlet)\b`)

func categoryTypeOf(data *domain.ExtractedData) domain.CategoryType {
	if salePathPattern.MatchString(data.CategoryPath) || salePathPattern.MatchString(data.Name) {
		return domain.CategorySale
	}
	return domain.CategoryRegular
}

// discoveryContextData preserves both path signals when text and URL implied
// different categories.
func discoveryContextData(rec *domain.InteractionRecord, r *domain.ClassificationResult) map[string]any {
	data := map[string]any{
		"source":    r.Source,
		"page_type": string(rec.Context.PageType),
	}
	if r.ExtractedData != nil &&
		r.ExtractedData.TextImpliedPath != "" && r.ExtractedData.URLImpliedPath != "" &&
		r.ExtractedData.TextImpliedPath != r.ExtractedData.URLImpliedPath {
		data["text_implied_path"] = r.ExtractedData.TextImpliedPath
		data["url_implied_path"] = r.ExtractedData.URLImpliedPath
	}
	return data
}

func nearbyCategories(rec *domain.InteractionRecord) []domain.SiblingCategory {
	var siblings []domain.SiblingCategory
	for _, near := range rec.Element.NearbyElements {
		if near.Text == "" {
			continue
		}
		siblings = append(siblings, domain.SiblingCategory{
			Name:             near.Text,
			RelativePosition: near.Relative,
			DistancePx:       near.DistancePx,
		})
	}
	return siblings
}

// productObservations groups product and product_attribute results per entity
// URL: one observation per product page, carrying all attributes seen on it
// and the siblings visible around the primary click.
func (p *Pipeline) productObservations(session *domain.CapturedSession, results []*domain.ClassificationResult) []*worldmodel.ProductObservation {
	byURL := map[string]*worldmodel.ProductObservation{}
	var order []string

	obsFor := func(url string) *worldmodel.ProductObservation {
		if obs, ok := byURL[url]; ok {
			return obs
		}
		obs := &worldmodel.ProductObservation{
			URL:       url,
			ProductID: intent.ProductIDFromURL(url),
		}
		byURL[url] = obs
		order = append(order, url)
		return obs
	}

	for i, r := range results {
		rec := session.Interactions[i]
		switch r.Type {
		case domain.IntentProduct:
			if r.ExtractedData == nil || r.ExtractedData.URL == "" {
				continue
			}
			obs := obsFor(r.ExtractedData.URL)
			if obs.Name == "" {
				obs.Name = r.ExtractedData.Name
			}
			if r.ExtractedData.ProductID != "" {
				obs.ProductID = r.ExtractedData.ProductID
			}
			if obs.CategoryPath == "" {
				obs.CategoryPath = lastCategoryPathBefore(results, i)
			}
			if obs.Discovery.Method == "" {
				obs.Discovery = domain.DiscoveryContext{
					Method:       domain.DiscoveryPrimaryClick,
					SourceURL:    rec.Context.PageURL,
					CategoryPath: obs.CategoryPath,
					PagePosition: rec.Visual.BoundingBox,
					ContextData:  discoveryContextData(rec, r),
					ObservedAt:   rec.Interaction.Timestamp,
				}
			}
			if len(obs.Siblings) == 0 {
				obs.Siblings = nearbyProducts(rec)
			}
			if obs.Selectors == nil && rec.Selectors.Primary != "" {
				obs.Selectors = map[string]domain.SelectorInfo{"title": rec.Selectors}
			}

		case domain.IntentProductAttribute:
			if r.AttributeData == nil {
				continue
			}
			obs := obsFor(rec.Context.PageURL)
			obs.Attributes = append(obs.Attributes, r.AttributeData)
			if obs.Name == "" {
				obs.Name = rec.Context.PageTitle
			}
			if obs.Discovery.Method == "" {
				obs.Discovery = domain.DiscoveryContext{
					Method:     domain.DiscoveryPrimaryClick,
					SourceURL:  rec.Context.PageURL,
					ContextData: map[string]any{
						"source": r.Source,
					},
					ObservedAt: rec.Interaction.Timestamp,
				}
			}
		}
	}

	observations := make([]*worldmodel.ProductObservation, 0, len(order))
	for _, url := range order {
		obs := byURL[url]
		if obs.Name == "" && obs.ProductID == "" {
			continue
		}
		observations = append(observations, obs)
	}
	return observations
}

// lastCategoryPathBefore finds the most recent category classification before
// index i, the listing this product was most likely discovered under.
func lastCategoryPathBefore(results []*domain.ClassificationResult, i int) string {
	for j := i - 1; j >= 0; j-- {
		r := results[j]
		if r.Type == domain.IntentCategory && r.ExtractedData != nil && r.ExtractedData.CategoryPath != "" {
			return r.ExtractedData.CategoryPath
		}
	}
	return ""
}

func nearbyProducts(rec *domain.InteractionRecord) []domain.SiblingProduct {
	var siblings []domain.SiblingProduct
	for i, near := range rec.Element.NearbyElements {
		if near.Text == "" || near.Text == rec.Element.Text {
			continue
		}
		siblings = append(siblings, domain.SiblingProduct{
			Name:     near.Text,
			Position: i,
		})
	}
	return siblings
}

// recordPattern remembers a generalized URL template for the page type.
var digitRunPattern = regexp.MustCompile(`\d{4,}`)

func (p *Pipeline) recordPattern(ctx context.Context, d *domain.Domain, pageType domain.PageType, url string) {
	if url == "" {
		return
	}
	pattern := digitRunPattern.ReplaceAllString(url, "{id}")
	if err := p.store.RecordURLPattern(ctx, d, pageType, pattern); err != nil {
		p.log.Debug().Err(err).Str("page_type", string(pageType)).Msg("url pattern record failed")
	}
}
