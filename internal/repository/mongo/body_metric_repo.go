package mongo

import (
	"allfit/allfit-backend/internal/domain"
	"allfit/allfit-backend/internal/repository"
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const bodyMetricCollectionName = "body_metrics"

// mongoBodyMetricRepository implements repository.BodyMetricRepository
type mongoBodyMetricRepository struct {
	collection *mongo.Collection
}

// NewMongoBodyMetricRepository creates a new BodyMetric repository.
func NewMongoBodyMetricRepository(db *mongo.Database) repository.BodyMetricRepository {
	return &mongoBodyMetricRepository{
		collection: db.Collection(bodyMetricCollectionName),
	}
}

// Create inserts a new body metric record.
func (r *mongoBodyMetricRepository) Create(ctx context.Context, metric *domain.BodyMetric) (primitive.ObjectID, error) {
	if metric.UserID == primitive.NilObjectID || metric.Weight <= 0 {
		return primitive.NilObjectID, errors.New("body metric requires userId and a positive weight")
	}
	metric.ID = primitive.NewObjectID()
	if metric.Date.IsZero() {
		metric.Date = time.Now().UTC()
	}
	metric.CreatedAt = time.Now().UTC()

	result, err := r.collection.InsertOne(ctx, metric)
	if err != nil {
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted metric ID")
	}
	return insertedID, nil
}

// GetByID retrieves a single metric record by its ID.
func (r *mongoBodyMetricRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.BodyMetric, error) {
	var metric domain.BodyMetric
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&metric)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &metric, nil
}

// GetLatestByUser retrieves the most recent metric by date. The secondary
// sort on _id makes same-date ties resolve by insertion order.
func (r *mongoBodyMetricRepository) GetLatestByUser(ctx context.Context, userID primitive.ObjectID) (*domain.BodyMetric, error) {
	var metric domain.BodyMetric
	findOptions := options.FindOne().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}})
	err := r.collection.FindOne(ctx, bson.M{"userId": userID}, findOptions).Decode(&metric)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &metric, nil
}

// GetHistoryByUser retrieves up to limit metric records, descending by date.
func (r *mongoBodyMetricRepository) GetHistoryByUser(ctx context.Context, userID primitive.ObjectID, limit int64) ([]domain.BodyMetric, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "date", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)

	cursor, err := r.collection.Find(ctx, bson.M{"userId": userID}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var metrics []domain.BodyMetric
	if err = cursor.All(ctx, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// GetByUserAscending retrieves metric records in the range, oldest first.
func (r *mongoBodyMetricRepository) GetByUserAscending(ctx context.Context, userID primitive.ObjectID, dates repository.DateRange) ([]domain.BodyMetric, error) {
	query := bson.M{"userId": userID}
	if dateQuery := dateRangeQuery(dates); dateQuery != nil {
		query["date"] = dateQuery
	}
	findOptions := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.collection.Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var metrics []domain.BodyMetric
	if err = cursor.All(ctx, &metrics); err != nil {
		return nil, err
	}
	return metrics, nil
}

// Update replaces the metric document (used when attaching progress photos).
func (r *mongoBodyMetricRepository) Update(ctx context.Context, metric *domain.BodyMetric) error {
	if metric.ID == primitive.NilObjectID {
		return errors.New("metric ID is required for update")
	}

	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": metric.ID}, metric)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// EnsureBodyMetricIndexes creates necessary indexes. Call during startup.
func EnsureBodyMetricIndexes(ctx context.Context, collection *mongo.Collection) {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "userId", Value: 1}, {Key: "date", Value: -1}},
			Options: options.Index(),
		},
	}
	_, _ = collection.Indexes().CreateMany(ctx, indexes)
}
