package mongo

import (
	"context"
	"errors"
	"time"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const subscriptionCollectionName = "subscriptions"

// mongoSubscriptionRepository implements repository.SubscriptionRepository.
type mongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository expects a connected *mongo.Database.
func NewMongoSubscriptionRepository(db *mongo.Database) repository.SubscriptionRepository {
	return &mongoSubscriptionRepository{collection: db.Collection(subscriptionCollectionName)}
}

func (r *mongoSubscriptionRepository) Create(ctx context.Context, sub *domain.Subscription) (primitive.ObjectID, error) {
	sub.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	sub.CreatedAt = now
	sub.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, sub)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return primitive.NilObjectID, repository.ErrConflict
		}
		return primitive.NilObjectID, err
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoSubscriptionRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoSubscriptionRepository) Find(ctx context.Context, channel, subscriber primitive.ObjectID) (*domain.Subscription, error) {
	var sub domain.Subscription
	filter := bson.M{"channel": channel, "subscriber": subscriber}
	err := r.collection.FindOne(ctx, filter).Decode(&sub)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &sub, nil
}

func (r *mongoSubscriptionRepository) Exists(ctx context.Context, channel, subscriber primitive.ObjectID) (bool, error) {
	_, err := r.Find(ctx, channel, subscriber)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (r *mongoSubscriptionRepository) CountByChannel(ctx context.Context, channel primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"channel": channel})
}

func (r *mongoSubscriptionRepository) CountBySubscriber(ctx context.Context, subscriber primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"subscriber": subscriber})
}

func (r *mongoSubscriptionRepository) list(ctx context.Context, filter bson.M) ([]domain.Subscription, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []domain.Subscription{}
	if err := cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *mongoSubscriptionRepository) ListByChannel(ctx context.Context, channel primitive.ObjectID) ([]domain.Subscription, error) {
	return r.list(ctx, bson.M{"channel": channel})
}

func (r *mongoSubscriptionRepository) ListBySubscriber(ctx context.Context, subscriber primitive.ObjectID) ([]domain.Subscription, error) {
	return r.list(ctx, bson.M{"subscriber": subscriber})
}

// EnsureSubscriptionIndexes enforces one row per (channel, subscriber) pair.
func EnsureSubscriptionIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "channel", Value: 1}, {Key: "subscriber", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "subscriber", Value: 1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
