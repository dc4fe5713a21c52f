package mongo

import (
	"context"
	"errors"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const tweetCollectionName = "tweets"

// mongoTweetRepository implements repository.TweetRepository.
type mongoTweetRepository struct {
	collection *mongo.Collection
}

func NewMongoTweetRepository(db *mongo.Database) repository.TweetRepository {
	return &mongoTweetRepository{collection: db.Collection(tweetCollectionName)}
}

func (r *mongoTweetRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Tweet, error) {
	var tweet domain.Tweet
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&tweet)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &tweet, nil
}

func (r *mongoTweetRepository) CountByOwner(ctx context.Context, owner primitive.ObjectID) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"owner": owner})
}

// EnsureTweetIndexes creates the indexes for the tweets collection.
func EnsureTweetIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
	})
	return err
}
