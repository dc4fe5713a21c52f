package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// StageKind is the closed set of aggregation stages the repositories are
// allowed to compose. Anything else has to be added here deliberately.
type StageKind string

const (
	StageMatch   StageKind = "$match"
	StageLookup  StageKind = "$lookup"
	StageGroup   StageKind = "$group"
	StageProject StageKind = "$project"
	StageSort    StageKind = "$sort"
	StageSkip    StageKind = "$skip"
	StageLimit   StageKind = "$limit"
)

type stage struct {
	kind StageKind
	doc  interface{}
}

// Pipeline builds a mongo aggregation pipeline from a small closed set of
// stage kinds and validates the composition before execution, instead of
// branching ad hoc on which filters are present.
type Pipeline struct {
	stages []stage
}

func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Match appends a $match stage. Empty filters are legal (match everything).
func (p *Pipeline) Match(filter bson.M) *Pipeline {
	p.stages = append(p.stages, stage{kind: StageMatch, doc: filter})
	return p
}

// Lookup appends a $lookup joining another collection into field `as`.
func (p *Pipeline) Lookup(from, localField, foreignField, as string) *Pipeline {
	p.stages = append(p.stages, stage{kind: StageLookup, doc: bson.M{
		"from":         from,
		"localField":   localField,
		"foreignField": foreignField,
		"as":           as,
	}})
	return p
}

// Group appends a $group stage; spec must contain an _id key.
func (p *Pipeline) Group(spec bson.M) *Pipeline {
	p.stages = append(p.stages, stage{kind: StageGroup, doc: spec})
	return p
}

// Project appends a $project stage.
func (p *Pipeline) Project(spec bson.M) *Pipeline {
	p.stages = append(p.stages, stage{kind: StageProject, doc: spec})
	return p
}

// Sort appends a $sort stage; keys must map to 1 or -1, in order.
func (p *Pipeline) Sort(keys bson.D) *Pipeline {
	p.stages = append(p.stages, stage{kind: StageSort, doc: keys})
	return p
}

// Paginate appends $skip and $limit for a 1-based page.
func (p *Pipeline) Paginate(page, limit int) *Pipeline {
	skip := (page - 1) * limit
	p.stages = append(p.stages, stage{kind: StageSkip, doc: skip})
	p.stages = append(p.stages, stage{kind: StageLimit, doc: limit})
	return p
}

// Validate checks every stage document against its kind's constraints.
func (p *Pipeline) Validate() error {
	if len(p.stages) == 0 {
		return fmt.Errorf("pipeline: no stages")
	}
	for i, s := range p.stages {
		switch s.kind {
		case StageMatch:
			if _, ok := s.doc.(bson.M); !ok {
				return fmt.Errorf("pipeline: stage %d: $match filter must be a document", i)
			}
		case StageLookup:
			doc, ok := s.doc.(bson.M)
			if !ok {
				return fmt.Errorf("pipeline: stage %d: $lookup spec must be a document", i)
			}
			for _, k := range []string{"from", "localField", "foreignField", "as"} {
				if v, _ := doc[k].(string); v == "" {
					return fmt.Errorf("pipeline: stage %d: $lookup %s is required", i, k)
				}
			}
		case StageGroup:
			doc, ok := s.doc.(bson.M)
			if !ok {
				return fmt.Errorf("pipeline: stage %d: $group spec must be a document", i)
			}
			if _, ok := doc["_id"]; !ok {
				return fmt.Errorf("pipeline: stage %d: $group requires an _id key", i)
			}
		case StageProject:
			doc, ok := s.doc.(bson.M)
			if !ok || len(doc) == 0 {
				return fmt.Errorf("pipeline: stage %d: $project spec must be a non-empty document", i)
			}
		case StageSort:
			keys, ok := s.doc.(bson.D)
			if !ok || len(keys) == 0 {
				return fmt.Errorf("pipeline: stage %d: $sort requires at least one key", i)
			}
			for _, e := range keys {
				if v, ok := e.Value.(int); !ok || (v != 1 && v != -1) {
					return fmt.Errorf("pipeline: stage %d: $sort key %q must map to 1 or -1", i, e.Key)
				}
			}
		case StageSkip, StageLimit:
			if v, ok := s.doc.(int); !ok || v < 0 {
				return fmt.Errorf("pipeline: stage %d: %s must be a non-negative int", i, s.kind)
			}
			if s.kind == StageLimit && s.doc.(int) == 0 {
				return fmt.Errorf("pipeline: stage %d: $limit must be positive", i)
			}
		default:
			return fmt.Errorf("pipeline: stage %d: unknown stage kind %q", i, s.kind)
		}
	}
	return nil
}

// Build validates the composition and returns the executable pipeline.
func (p *Pipeline) Build() (mongo.Pipeline, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	out := make(mongo.Pipeline, 0, len(p.stages))
	for _, s := range p.stages {
		out = append(out, bson.D{{Key: string(s.kind), Value: s.doc}})
	}
	return out, nil
}
