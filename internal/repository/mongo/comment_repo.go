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

const commentCollectionName = "comments"

// mongoCommentRepository implements repository.CommentRepository.
type mongoCommentRepository struct {
	collection *mongo.Collection
}

func NewMongoCommentRepository(db *mongo.Database) repository.CommentRepository {
	return &mongoCommentRepository{collection: db.Collection(commentCollectionName)}
}

func (r *mongoCommentRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Comment, error) {
	var comment domain.Comment
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&comment)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &comment, nil
}

func (r *mongoCommentRepository) CountForVideos(ctx context.Context, videoIDs []primitive.ObjectID) (int64, error) {
	if len(videoIDs) == 0 {
		return 0, nil
	}
	return r.collection.CountDocuments(ctx, bson.M{"video": bson.M{"$in": videoIDs}})
}

// EnsureCommentIndexes creates the indexes for the comments collection.
func EnsureCommentIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "video", Value: 1}},
	})
	return err
}
