package mongo

import (
	"strings"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestPipelineBuild(t *testing.T) {
	t.Run("FeedShape", func(t *testing.T) {
		p := NewPipeline().
			Match(bson.M{"isPublished": true}).
			Sort(bson.D{{Key: "createdAt", Value: -1}}).
			Lookup("users", "owner", "_id", "ownerInfo").
			Project(bson.M{"ownerInfo": bson.M{"$first": "$ownerInfo"}}).
			Paginate(2, 10)

		built, err := p.Build()
		if err != nil {
			t.Fatalf("Build failed: %v", err)
		}
		if len(built) != 6 {
			t.Fatalf("expected 6 stages, got %d", len(built))
		}
		if built[0][0].Key != "$match" {
			t.Errorf("first stage = %q, want $match", built[0][0].Key)
		}
		if built[4][0].Key != "$skip" || built[4][0].Value != 10 {
			t.Errorf("skip stage = %+v, want $skip 10", built[4][0])
		}
		if built[5][0].Key != "$limit" || built[5][0].Value != 10 {
			t.Errorf("limit stage = %+v, want $limit 10", built[5][0])
		}
	})

	t.Run("StatsShape", func(t *testing.T) {
		p := NewPipeline().
			Match(bson.M{"owner": "someone"}).
			Group(bson.M{
				"_id":         nil,
				"totalVideos": bson.M{"$sum": 1},
				"totalViews":  bson.M{"$sum": "$views"},
			})
		if _, err := p.Build(); err != nil {
			t.Fatalf("Build failed: %v", err)
		}
	})
}

func TestPipelineValidate(t *testing.T) {
	cases := []struct {
		name     string
		pipeline *Pipeline
		wantErr  string
	}{
		{
			name:     "Empty",
			pipeline: NewPipeline(),
			wantErr:  "no stages",
		},
		{
			name:     "LookupNonDocumentSpec",
			pipeline: &Pipeline{stages: []stage{{kind: StageLookup, doc: "users"}}},
			wantErr:  "$lookup spec must be a document",
		},
		{
			name:     "LookupMissingField",
			pipeline: NewPipeline().Lookup("users", "", "_id", "ownerInfo"),
			wantErr:  "$lookup localField is required",
		},
		{
			name:     "GroupWithoutID",
			pipeline: NewPipeline().Group(bson.M{"total": bson.M{"$sum": 1}}),
			wantErr:  "$group requires an _id key",
		},
		{
			name:     "SortWithBadDirection",
			pipeline: NewPipeline().Sort(bson.D{{Key: "createdAt", Value: 2}}),
			wantErr:  "must map to 1 or -1",
		},
		{
			name:     "SortEmpty",
			pipeline: NewPipeline().Sort(bson.D{}),
			wantErr:  "$sort requires at least one key",
		},
		{
			name:     "ProjectEmpty",
			pipeline: NewPipeline().Project(bson.M{}),
			wantErr:  "$project spec must be a non-empty document",
		},
		{
			name:     "ZeroLimit",
			pipeline: NewPipeline().Match(bson.M{}).Paginate(1, 0),
			wantErr:  "$limit must be positive",
		},
		{
			name:     "NegativeSkip",
			pipeline: NewPipeline().Match(bson.M{}).Paginate(0, 10),
			wantErr:  "$skip must be a non-negative int",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.pipeline.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.wantErr) {
				t.Errorf("error %q does not contain %q", err, tc.wantErr)
			}
			if _, buildErr := tc.pipeline.Build(); buildErr == nil {
				t.Error("Build must refuse an invalid pipeline")
			}
		})
	}
}
