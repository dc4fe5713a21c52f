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

const likeCollectionName = "likes"

// mongoLikeRepository implements repository.LikeRepository using MongoDB.
type mongoLikeRepository struct {
	collection *mongo.Collection
}

// NewMongoLikeRepository expects a connected *mongo.Database instance.
func NewMongoLikeRepository(db *mongo.Database) repository.LikeRepository {
	return &mongoLikeRepository{collection: db.Collection(likeCollectionName)}
}

func (r *mongoLikeRepository) Create(ctx context.Context, like *domain.Like) (primitive.ObjectID, error) {
	if err := like.Validate(); err != nil {
		return primitive.NilObjectID, err
	}
	like.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	like.CreatedAt = now
	like.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, like)
	if err != nil {
		// Concurrent duplicate toggles lose to the unique index here.
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

func (r *mongoLikeRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoLikeRepository) SetLiked(ctx context.Context, id primitive.ObjectID, liked bool) error {
	update := bson.M{"$set": bson.M{"liked": liked, "updatedAt": time.Now().UTC()}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoLikeRepository) FindByTarget(ctx context.Context, kind domain.LikeTargetKind, target, likedBy primitive.ObjectID) (*domain.Like, error) {
	var like domain.Like
	filter := bson.M{string(kind): target, "likedBy": likedBy}
	err := r.collection.FindOne(ctx, filter).Decode(&like)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &like, nil
}

func (r *mongoLikeRepository) ListByVideo(ctx context.Context, videoID primitive.ObjectID) ([]domain.Like, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"video": videoID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	likes := []domain.Like{}
	if err := cursor.All(ctx, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

// CountLikesForVideos counts positive likes across a set of videos.
func (r *mongoLikeRepository) CountLikesForVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, bson.M{
		"video": bson.M{"$in": videoIDs},
		"liked": true,
	})
}

func (r *mongoLikeRepository) ListVideoLikesByUser(ctx context.Context, likedBy primitive.ObjectID) ([]domain.Like, error) {
	filter := bson.M{
		"likedBy": likedBy,
		"liked":   true,
		"video":   bson.M{"$ne": nil},
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	likes := []domain.Like{}
	if err := cursor.All(ctx, &likes); err != nil {
		return nil, err
	}
	return likes, nil
}

// EnsureLikeIndexes creates one partial unique index per target kind so a
// user holds at most one like row per entity.
func EnsureLikeIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := make([]mongo.IndexModel, 0, 3)
	for _, field := range []string{"video", "comment", "tweet"} {
		indexes = append(indexes, mongo.IndexModel{
			Keys: bson.D{{Key: field, Value: 1}, {Key: "likedBy", Value: 1}},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{field: bson.M{"$exists": true}}),
		})
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
