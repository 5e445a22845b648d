package source

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/liaphilip/women-safety-route-finder/pkg/cache"
	"github.com/liaphilip/women-safety-route-finder/pkg/errors"
	"github.com/liaphilip/women-safety-route-finder/pkg/graph"
	"github.com/liaphilip/women-safety-route-finder/pkg/safety"
)

// Collection names read by [MongoSource].
const (
	CollectionNodes     = "nodes"
	CollectionEdges     = "edges"
	CollectionOverrides = "overrides"
)

// DefaultMongoTimeout bounds connecting and each Load.
const DefaultMongoTimeout = 10 * time.Second

// MongoOptions configures [NewMongoSource].
type MongoOptions struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// MongoSource reads a dataset from three collections:
//
//	nodes      {id, name}
//	edges      {id, u, v, distance_m, nearest_police_m, modes, defaults, attributes}
//	overrides  {edge_id, all, modes}
//
// Edges are read in insertion order so synthesized ids are stable.
type MongoSource struct {
	client  *mongo.Client
	db      *mongo.Database
	name    string
	timeout time.Duration
}

// overrideDoc is one document of the overrides collection.
type overrideDoc struct {
	EdgeID              string `bson:"edge_id"`
	safety.EdgeOverride `bson:",inline"`
}

// NewMongoSource connects and pings the primary.
func NewMongoSource(ctx context.Context, opts MongoOptions) (*MongoSource, error) {
	const op = "source.NewMongoSource"
	if opts.URI == "" || opts.Database == "" {
		return nil, errors.Configuration(op, "mongo uri and database are required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultMongoTimeout
	}

	cctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()
	client, err := mongo.Connect(cctx, options.Client().ApplyURI(opts.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(cctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoSource{
		client:  client,
		db:      client.Database(opts.Database),
		name:    "mongo:" + opts.Database,
		timeout: opts.Timeout,
	}, nil
}

// Name returns "mongo:<database>".
func (s *MongoSource) Name() string { return s.name }

// Load reads all three collections. Network errors are retried with backoff.
func (s *MongoSource) Load(ctx context.Context) (*Dataset, error) {
	var ds *Dataset
	err := cache.RetryWithBackoff(ctx, func() error {
		var err error
		ds, err = s.load(ctx)
		if mongo.IsNetworkError(err) || mongo.IsTimeout(err) {
			return cache.Retryable(err)
		}
		return err
	})
	return ds, err
}

func (s *MongoSource) load(ctx context.Context) (*Dataset, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var doc graph.Document
	if err := s.findAll(ctx, CollectionNodes, bson.D{{Key: "id", Value: 1}}, &doc.Nodes); err != nil {
		return nil, err
	}
	if err := s.findAll(ctx, CollectionEdges, bson.D{{Key: "_id", Value: 1}}, &doc.Edges); err != nil {
		return nil, err
	}
	var ovs []overrideDoc
	if err := s.findAll(ctx, CollectionOverrides, bson.D{{Key: "edge_id", Value: 1}}, &ovs); err != nil {
		return nil, err
	}

	g, err := graph.ToGraph(doc)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, "source.MongoSource.Load", err, "build graph from %s", s.name)
	}
	return NewDataset(g, overridesFromDocs(ovs)), nil
}

func (s *MongoSource) findAll(ctx context.Context, coll string, sort bson.D, out any) error {
	cur, err := s.db.Collection(coll).Find(ctx, bson.D{}, options.Find().SetSort(sort))
	if err != nil {
		return fmt.Errorf("find %s: %w", coll, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", coll, err)
	}
	return nil
}

// Close disconnects the client.
func (s *MongoSource) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

// overridesFromDocs folds override documents into a layer. Later documents
// for the same edge win.
func overridesFromDocs(docs []overrideDoc) *safety.Overrides {
	ov := &safety.Overrides{Edges: make(map[string]safety.EdgeOverride, len(docs))}
	for _, d := range docs {
		if d.EdgeID == "" {
			continue
		}
		ov.Edges[d.EdgeID] = d.EdgeOverride
	}
	return ov
}

var _ Source = (*MongoSource)(nil)
