// Package bootstrap wires configuration, adapters, and services.
package bootstrap

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"worldmodel_server/adapter/out/graph"
	"worldmodel_server/adapter/out/mongodb"
	"worldmodel_server/adapter/out/postgres"
	"worldmodel_server/config"
	"worldmodel_server/core/port/out"
	"worldmodel_server/core/service/ingest"
	"worldmodel_server/core/service/worldmodel"
	"worldmodel_server/pkg/cache"
	"worldmodel_server/pkg/metrics"
)

type Dependencies struct {
	Config *config.Config
	Log    zerolog.Logger

	SQLDB   *sqlx.DB
	Redis   *redis.Client
	MongoDB *mongo.Client
	Neo4j   neo4j.DriverWithContext

	// Repositories
	DomainRepo   out.DomainRepository
	CategoryRepo out.CategoryRepository
	ProductRepo  out.ProductRepository

	// Session source
	SessionSource out.SessionSource

	// Cache and graph projection
	Cache out.Cache
	Graph out.GraphProjector

	// Services
	Store    *worldmodel.Store
	Pipeline *ingest.Pipeline
	Latency  *metrics.LatencyRegistry
}

// NewDependencies wires everything from config. Redis and Neo4j are optional;
// Postgres and MongoDB are required.
func NewDependencies(cfg *config.Config, log zerolog.Logger) (*Dependencies, func(), error) {
	deps := &Dependencies{Config: cfg, Log: log}
	var cleanups []func()
	cleanup := func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}

	// Session store (sqlx over pgx)
	sqlDB, err := postgres.NewDB(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, err
	}
	deps.SQLDB = sqlDB
	cleanups = append(cleanups, func() { sqlDB.Close() })
	deps.SessionSource = postgres.NewSessionAdapter(sqlDB)

	// MongoDB (world model store)
	mongoClient, err := mongodb.NewClient(cfg.MongoDBURL)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	deps.MongoDB = mongoClient
	cleanups = append(cleanups, func() {
		mongoClient.Disconnect(context.Background())
	})

	mongoDB := mongoClient.Database(cfg.MongoDBName)
	domainAdapter := mongodb.NewDomainAdapter(mongoDB)
	categoryAdapter := mongodb.NewCategoryAdapter(mongoDB)
	productAdapter := mongodb.NewProductAdapter(mongoDB)

	ctx := context.Background()
	for _, ensure := range []func(context.Context) error{
		domainAdapter.EnsureIndexes,
		categoryAdapter.EnsureIndexes,
		productAdapter.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			log.Warn().Err(err).Msg("index creation failed")
		}
	}

	deps.DomainRepo = domainAdapter
	deps.CategoryRepo = categoryAdapter
	deps.ProductRepo = productAdapter

	// Redis (optional lookup cache)
	if cfg.RedisURL != "" {
		redisClient, err := cache.NewClient(cfg.RedisURL)
		if err != nil {
			log.Warn().Err(err).Msg("redis connection failed, running without cache")
		} else {
			deps.Redis = redisClient
			cleanups = append(cleanups, func() { redisClient.Close() })
			deps.Cache = cache.NewRedisCache(redisClient)
		}
	}

	// Neo4j (optional graph projection)
	if cfg.GraphEnabled && cfg.Neo4jURL != "" {
		neo4jDriver, err := graph.NewDriver(cfg.Neo4jURL, cfg.Neo4jUsername, cfg.Neo4jPassword)
		if err != nil {
			log.Warn().Err(err).Msg("neo4j connection failed, running without graph projection")
		} else {
			deps.Neo4j = neo4jDriver
			cleanups = append(cleanups, func() {
				neo4jDriver.Close(context.Background())
			})

			projection := graph.NewProjectionAdapter(neo4jDriver, cfg.Neo4jDatabase, log)
			if err := projection.EnsureConstraints(ctx); err != nil {
				log.Warn().Err(err).Msg("graph constraint creation failed")
			}
			deps.Graph = projection
		}
	}

	// Services
	deps.Latency = metrics.NewLatencyRegistry(cfg.LatencyWindowSize)
	deps.Store = worldmodel.NewStore(log, deps.DomainRepo, deps.CategoryRepo, deps.ProductRepo, deps.Cache, deps.Graph)
	deps.Pipeline = ingest.NewPipeline(log, deps.Store, deps.SessionSource, deps.Latency)

	return deps, cleanup, nil
}
