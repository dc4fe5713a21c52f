package mongo

import (
	"context"
	"time"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

const playlistCollectionName = "playlists"

// mongoPlaylistRepository implements repository.PlaylistRepository.
type mongoPlaylistRepository struct {
	collection *mongo.Collection
}

func NewMongoPlaylistRepository(db *mongo.Database) repository.PlaylistRepository {
	return &mongoPlaylistRepository{collection: db.Collection(playlistCollectionName)}
}

func (r *mongoPlaylistRepository) ListByOwner(ctx context.Context, owner primitive.ObjectID) ([]domain.Playlist, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	playlists := []domain.Playlist{}
	if err := cursor.All(ctx, &playlists); err != nil {
		return nil, err
	}
	return playlists, nil
}

// RemoveVideoFromAll pulls a deleted video out of every playlist referencing
// it and returns how many playlists were touched.
func (r *mongoPlaylistRepository) RemoveVideoFromAll(ctx context.Context, videoID primitive.ObjectID) (int64, error) {
	update := bson.M{
		"$pull": bson.M{"videos": videoID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	result, err := r.collection.UpdateMany(ctx, bson.M{"videos": videoID}, update)
	if err != nil {
		return 0, err
	}
	return result.ModifiedCount, nil
}

// EnsurePlaylistIndexes creates the indexes for the playlists collection.
func EnsurePlaylistIndexes(ctx context.Context, collection *mongo.Collection) error {
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "owner", Value: 1}},
	})
	return err
}
