package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/matzehuels/treecanvas/pkg/canvas"
)

// Mongo defaults.
const (
	DefaultMongoDatabase   = "treecanvas"
	DefaultMongoCollection = "items"
	mongoConnectTimeout    = 10 * time.Second
)

// mongoDoc wraps an item with its workspace and insertion sequence.
type mongoDoc struct {
	Key       string      `bson:"_id"`
	Workspace string      `bson:"workspace"`
	Seq       int64       `bson:"seq"`
	Item      canvas.Item `bson:"item"`
	UpdatedAt time.Time   `bson:"updated_at"`
}

// MongoStore keeps one document per item in a MongoDB collection.
type MongoStore struct {
	client    *mongo.Client
	coll      *mongo.Collection
	workspace string
	owned     bool
}

// MongoConfig holds connection settings for [NewMongoStore].
type MongoConfig struct {
	URI        string
	Database   string
	Collection string
	Workspace  string
}

// NewMongoStore connects to MongoDB and ensures the collection's indexes.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: mongo uri is required", ErrUnavailable)
	}
	cctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(cctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("%w: connect: %v", ErrUnavailable, err)
	}
	if err := client.Ping(cctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: ping: %v", ErrUnavailable, err)
	}

	s := NewMongoStoreFromClient(client, cfg)
	s.owned = true
	if err := s.ensureIndexes(cctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: create indexes: %v", ErrUnavailable, err)
	}
	return s, nil
}

// NewMongoStoreFromClient wraps an existing client. Close does not
// disconnect a client it did not create.
func NewMongoStoreFromClient(client *mongo.Client, cfg MongoConfig) *MongoStore {
	db := cfg.Database
	if db == "" {
		db = DefaultMongoDatabase
	}
	coll := cfg.Collection
	if coll == "" {
		coll = DefaultMongoCollection
	}
	return &MongoStore{
		client:    client,
		coll:      client.Database(db).Collection(coll),
		workspace: cfg.Workspace,
	}
}

func (s *MongoStore) ensureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "workspace", Value: 1}, {Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "workspace", Value: 1}, {Key: "item.parent_id", Value: 1}}},
	})
	return err
}

func (s *MongoStore) key(id string) string { return s.workspace + "/" + id }

func (s *MongoStore) List(ctx context.Context) ([]canvas.Item, error) {
	opts := options.Find().SetSort(bson.D{{Key: "seq", Value: 1}})
	cur, err := s.coll.Find(ctx, bson.M{"workspace": s.workspace}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	var docs []mongoDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("%w: decode items: %v", ErrUnavailable, err)
	}
	items := make([]canvas.Item, len(docs))
	for i, d := range docs {
		items[i] = d.Item
	}
	return items, nil
}

func (s *MongoStore) Get(ctx context.Context, id string) (canvas.Item, error) {
	var doc mongoDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": s.key(id)}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return canvas.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	if err != nil {
		return canvas.Item{}, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return doc.Item, nil
}

// Put upserts each item. The sequence number is only set on insert so
// List keeps the original insertion order.
func (s *MongoStore) Put(ctx context.Context, items ...canvas.Item) error {
	if len(items) == 0 {
		return nil
	}
	now := time.Now().UTC()
	models := make([]mongo.WriteModel, 0, len(items))
	for i, it := range items {
		update := bson.M{
			"$set": bson.M{
				"workspace":  s.workspace,
				"item":       it,
				"updated_at": now,
			},
			"$setOnInsert": bson.M{"seq": now.UnixNano() + int64(i)},
		}
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.M{"_id": s.key(it.ID)}).
			SetUpdate(update).
			SetUpsert(true))
	}
	if _, err := s.coll.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return fmt.Errorf("%w: put: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Delete(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.key(id)
	}
	if _, err := s.coll.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": keys}}); err != nil {
		return fmt.Errorf("%w: delete: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *MongoStore) Close() error {
	if !s.owned {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), mongoConnectTimeout)
	defer cancel()
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
