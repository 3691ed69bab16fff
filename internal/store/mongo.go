package store

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/wealth-query-agent/internal/filter"
	"github.com/wealth-query-agent/internal/model"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// MongoConfig locates the client profile collection
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Timeout    time.Duration
}

// MongoProfileStore reads client profiles from a MongoDB collection
type MongoProfileStore struct {
	client     *mongo.Client
	collection *mongo.Collection
	timeout    time.Duration
	logger     *zap.Logger
}

// NewMongoProfileStore connects to MongoDB and verifies the connection.
func NewMongoProfileStore(ctx context.Context, cfg MongoConfig, logger *zap.Logger) (*MongoProfileStore, error) {
	if cfg.URI == "" {
		return nil, ErrNotConnected
	}
	if cfg.Database == "" {
		cfg.Database = "wealth_management"
	}
	if cfg.Collection == "" {
		cfg.Collection = "client_profiles"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetServerSelectionTimeout(cfg.Timeout).
		SetConnectTimeout(cfg.Timeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	logger.Info("Connected to MongoDB",
		zap.String("database", cfg.Database),
		zap.String("collection", cfg.Collection))

	return &MongoProfileStore{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
		timeout:    cfg.Timeout,
		logger:     logger.Named("mongo"),
	}, nil
}

// profileFilter translates a predicate into a MongoDB query document
func profileFilter(p filter.Predicate) bson.M {
	doc := bson.M{}
	if loc := p.Location(); loc != "" {
		doc["address.city"] = loc
	}
	if risk := p.Risk(); risk != "" {
		doc["risk_appetite"] = string(risk)
	}
	if name := p.NameContains(); name != "" {
		doc["name"] = primitive.Regex{Pattern: regexp.QuoteMeta(name), Options: "i"}
	}
	return doc
}

func (s *MongoProfileStore) Find(ctx context.Context, q ProfileQuery) ([]model.ClientProfile, error) {
	if s == nil || s.collection == nil {
		return nil, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find()
	if q.SortByValueDesc {
		opts.SetSort(bson.D{{Key: "portfolio_value", Value: -1}})
	}
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := s.collection.Find(ctx, profileFilter(q.Filter), opts)
	if err != nil {
		return nil, fmt.Errorf("find profiles: %w", err)
	}
	defer cursor.Close(ctx)

	var profiles []model.ClientProfile
	if err := cursor.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("decode profiles: %w", err)
	}
	for i := range profiles {
		normalizeProfile(&profiles[i])
	}

	s.logger.Debug("Profiles read",
		zap.Stringer("filter", q.Filter),
		zap.Int("count", len(profiles)))
	return profiles, nil
}

// normalizeProfile clamps the value and maps the stored risk appetite onto the
// closed enumeration; anything outside it becomes empty.
func normalizeProfile(p *model.ClientProfile) {
	p.PortfolioValue = model.NonNegative(p.PortfolioValue)
	risk, _ := model.ParseRiskCategory(string(p.RiskAppetite))
	p.RiskAppetite = risk
}

func (s *MongoProfileStore) Count(ctx context.Context) (int64, error) {
	if s == nil || s.collection == nil {
		return 0, ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	n, err := s.collection.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("count profiles: %w", err)
	}
	return n, nil
}

// SeedIfEmpty inserts profiles only when the collection has no documents.
func (s *MongoProfileStore) SeedIfEmpty(ctx context.Context, profiles []model.ClientProfile) (int, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Info("Profiles already present, skipping seed", zap.Int64("count", n))
		return 0, nil
	}

	docs := make([]interface{}, len(profiles))
	for i := range profiles {
		docs[i] = profiles[i]
	}
	res, err := s.collection.InsertMany(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("seed profiles: %w", err)
	}

	if _, err := s.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "client_id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "portfolio_value", Value: -1}}},
	}); err != nil {
		s.logger.Warn("Failed to create profile indexes", zap.Error(err))
	}

	s.logger.Info("Seeded client profiles", zap.Int("count", len(res.InsertedIDs)))
	return len(res.InsertedIDs), nil
}

func (s *MongoProfileStore) Ping(ctx context.Context) error {
	if s == nil || s.client == nil {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, nil)
}

func (s *MongoProfileStore) Close(ctx context.Context) error {
	if s == nil || s.client == nil {
		return nil
	}
	return s.client.Disconnect(ctx)
}
