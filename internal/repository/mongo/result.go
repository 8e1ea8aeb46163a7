package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/BarkinBalci/attribution-service/internal/config"
	"github.com/BarkinBalci/attribution-service/internal/domain"
)

const resultsCollection = "attribution_results"

type resultDocument struct {
	ID               string    `bson:"_id"`
	ConversionID     string    `bson:"conversion_id"`
	Model            string    `bson:"model"`
	CustomerID       string    `bson:"customer_id"`
	ConversionValue  float64   `bson:"conversion_value"`
	TouchpointIDs    []string  `bson:"touchpoint_ids"`
	Channels         []string  `bson:"channels"`
	Weights          []float64 `bson:"weights"`
	AttributedValues []float64 `bson:"attributed_values"`
	GeneratedAt      time.Time `bson:"generated_at"`
}

// ResultRepository implements repository.ResultRepository on MongoDB. The
// document id is "<conversion>:<model>" so a replace-upsert keeps one
// document per key.
type ResultRepository struct {
	client     *mongo.Client
	collection *mongo.Collection
	log        *zap.Logger
}

// NewResultRepository connects to MongoDB and verifies the connection
func NewResultRepository(ctx context.Context, cfg *config.Mongo, log *zap.Logger) (*ResultRepository, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	log.Info("MongoDB connection established", zap.String("database", cfg.Database))

	return &ResultRepository{
		client:     client,
		collection: client.Database(cfg.Database).Collection(resultsCollection),
		log:        log,
	}, nil
}

// InitSchema creates the conversion_id lookup index
func (r *ResultRepository) InitSchema(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "conversion_id", Value: 1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create attribution_results index: %w", err)
	}
	return nil
}

func documentID(conversionID string, model domain.ModelKey) string {
	return conversionID + ":" + string(model)
}

// Upsert replaces the document for (conversion, model)
func (r *ResultRepository) Upsert(ctx context.Context, result *domain.AttributionResult) error {
	doc := resultDocument{
		ID:               documentID(result.ConversionID, result.Model),
		ConversionID:     result.ConversionID,
		Model:            string(result.Model),
		CustomerID:       result.CustomerID,
		ConversionValue:  result.ConversionValue,
		TouchpointIDs:    result.TouchpointIDs,
		Channels:         result.Channels,
		Weights:          result.Weights,
		AttributedValues: result.AttributedValues,
		GeneratedAt:      result.GeneratedAt,
	}

	_, err := r.collection.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("failed to upsert attribution result: %w", err)
	}
	return nil
}

// GetByConversion returns every stored model result for a conversion
func (r *ResultRepository) GetByConversion(ctx context.Context, conversionID string) ([]domain.AttributionResult, error) {
	cursor, err := r.collection.Find(ctx,
		bson.M{"conversion_id": conversionID},
		options.Find().SetSort(bson.D{{Key: "model", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to query attribution results: %w", err)
	}
	defer func() {
		if err := cursor.Close(ctx); err != nil {
			r.log.Error("Failed to close attribution result cursor", zap.Error(err))
		}
	}()

	var results []domain.AttributionResult
	for cursor.Next(ctx) {
		var doc resultDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode attribution result: %w", err)
		}
		results = append(results, domain.AttributionResult{
			ConversionID:     doc.ConversionID,
			CustomerID:       doc.CustomerID,
			Model:            domain.ModelKey(doc.Model),
			ConversionValue:  doc.ConversionValue,
			TouchpointIDs:    doc.TouchpointIDs,
			Channels:         doc.Channels,
			Weights:          doc.Weights,
			AttributedValues: doc.AttributedValues,
			GeneratedAt:      doc.GeneratedAt,
		})
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attribution results: %w", err)
	}
	return results, nil
}

// Ping checks if the MongoDB connection is alive
func (r *ResultRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx, nil)
}

// Close disconnects from MongoDB
func (r *ResultRepository) Close(ctx context.Context) error {
	r.log.Info("Closing MongoDB connection")
	return r.client.Disconnect(ctx)
}
