package mongo

import (
	"context"
	"errors"
	"time"

	"okenna/streamtube/internal/domain"
	"okenna/streamtube/internal/repository"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const videoCollectionName = "videos"

// mongoVideoRepository implements repository.VideoRepository using MongoDB.
type mongoVideoRepository struct {
	collection *mongo.Collection
}

// NewMongoVideoRepository expects a connected *mongo.Database instance.
func NewMongoVideoRepository(db *mongo.Database) repository.VideoRepository {
	return &mongoVideoRepository{collection: db.Collection(videoCollectionName)}
}

func (r *mongoVideoRepository) Create(ctx context.Context, video *domain.Video) (primitive.ObjectID, error) {
	video.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	video.CreatedAt = now
	video.UpdatedAt = now

	result, err := r.collection.InsertOne(ctx, video)
	if err != nil {
		return primitive.NilObjectID, pkgerrors.Wrap(err, "insert video")
	}
	insertedID, ok := result.InsertedID.(primitive.ObjectID)
	if !ok {
		return primitive.NilObjectID, errors.New("failed to convert inserted ID")
	}
	return insertedID, nil
}

func (r *mongoVideoRepository) GetByID(ctx context.Context, id primitive.ObjectID) (*domain.Video, error) {
	var video domain.Video
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &video, nil
}

// Update rewrites the mutable metadata fields. Owner and creation time never
// change after the first insert.
func (r *mongoVideoRepository) Update(ctx context.Context, video *domain.Video) error {
	update := bson.M{"$set": bson.M{
		"title":       video.Title,
		"description": video.Description,
		"thumbnail":   video.Thumbnail,
		"isPublished": video.IsPublished,
		"updatedAt":   time.Now().UTC(),
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": video.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *mongoVideoRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// IncrementViews bumps the view counter and returns the new value.
func (r *mongoVideoRepository) IncrementViews(ctx context.Context, id primitive.ObjectID) (int64, error) {
	var video domain.Video
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"_id": id},
		bson.M{"$inc": bson.M{"views": 1}},
		opts,
	).Decode(&video)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, repository.ErrNotFound
		}
		return 0, err
	}
	return video.Views, nil
}

func filterDoc(filter repository.VideoFilter) bson.M {
	doc := bson.M{}
	if filter.PublishedOnly {
		doc["isPublished"] = true
	}
	if filter.Owner != nil {
		doc["owner"] = *filter.Owner
	}
	return doc
}

// listPipeline is the shared shape of every listing: filter, default order,
// join the owner's public projection.
func listPipeline(filter repository.VideoFilter) *Pipeline {
	return NewPipeline().
		Match(filterDoc(filter)).
		Sort(bson.D{{Key: "createdAt", Value: -1}})
}

func withOwnerLookup(p *Pipeline) *Pipeline {
	return p.
		Lookup(userCollectionName, "owner", "_id", "ownerInfo").
		Project(bson.M{
			"owner":       1,
			"videoFile":   1,
			"thumbnail":   1,
			"title":       1,
			"description": 1,
			"duration":    1,
			"views":       1,
			"isPublished": 1,
			"createdAt":   1,
			"updatedAt":   1,
			"ownerInfo":   bson.M{"$first": "$ownerInfo"},
		})
}

func (r *mongoVideoRepository) runListPipeline(ctx context.Context, p *Pipeline) ([]domain.VideoWithOwner, error) {
	pipeline, err := p.Build()
	if err != nil {
		return nil, err
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []domain.VideoWithOwner{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

func (r *mongoVideoRepository) List(ctx context.Context, filter repository.VideoFilter, page repository.Page) ([]domain.VideoWithOwner, int64, error) {
	total, err := r.collection.CountDocuments(ctx, filterDoc(filter))
	if err != nil {
		return nil, 0, err
	}

	p := listPipeline(filter).Paginate(page.Number, page.Limit)
	videos, err := r.runListPipeline(ctx, withOwnerLookup(p))
	if err != nil {
		return nil, 0, err
	}
	return videos, total, nil
}

func (r *mongoVideoRepository) ListAll(ctx context.Context, filter repository.VideoFilter) ([]domain.VideoWithOwner, error) {
	return r.runListPipeline(ctx, withOwnerLookup(listPipeline(filter)))
}

func (r *mongoVideoRepository) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]domain.Video, error) {
	if len(ids) == 0 {
		return []domain.Video{}, nil
	}
	cursor, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	videos := []domain.Video{}
	if err := cursor.All(ctx, &videos); err != nil {
		return nil, err
	}
	return videos, nil
}

// StatsByOwner computes video count and view sum in a single group stage.
func (r *mongoVideoRepository) StatsByOwner(ctx context.Context, owner primitive.ObjectID) (*repository.ChannelVideoStats, error) {
	pipeline, err := NewPipeline().
		Match(bson.M{"owner": owner}).
		Group(bson.M{
			"_id":         nil,
			"totalVideos": bson.M{"$sum": 1},
			"totalViews":  bson.M{"$sum": "$views"},
		}).
		Build()
	if err != nil {
		return nil, err
	}

	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var results []repository.ChannelVideoStats
	if err := cursor.All(ctx, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		// Channel with no videos is a valid empty view.
		return &repository.ChannelVideoStats{}, nil
	}
	return &results[0], nil
}

func (r *mongoVideoRepository) IDsByOwner(ctx context.Context, owner primitive.ObjectID) ([]primitive.ObjectID, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1})
	cursor, err := r.collection.Find(ctx, bson.M{"owner": owner}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID primitive.ObjectID `bson:"_id"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(rows))
	for _, row := range rows {
		ids = append(ids, row.ID)
	}
	return ids, nil
}

// EnsureVideoIndexes creates the indexes for the videos collection.
func EnsureVideoIndexes(ctx context.Context, collection *mongo.Collection) error {
	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner", Value: 1}}},
		{Keys: bson.D{{Key: "isPublished", Value: 1}, {Key: "createdAt", Value: -1}}},
	}
	_, err := collection.Indexes().CreateMany(ctx, indexes)
	return err
}
