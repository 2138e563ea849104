package mongostore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/fundalert/pkg/notifications"
	"github.com/dmitrymomot/fundalert/pkg/store"
	"github.com/dmitrymomot/fundalert/pkg/user"
)

// Store keeps one document per user. The version field carries the
// optimistic concurrency token and api_key has a unique index.
type Store struct {
	coll           *mongo.Collection
	defaultMinutes int
}

// Option configures New.
type Option func(*Store)

// WithDefaultExpiration sets the window given to notifications stored
// without one.
func WithDefaultExpiration(minutes int) Option {
	return func(s *Store) { s.defaultMinutes = minutes }
}

// New returns a store over coll and makes sure its indexes exist.
func New(ctx context.Context, coll *mongo.Collection, opts ...Option) (*Store, error) {
	s := &Store{coll: coll, defaultMinutes: notifications.DefaultExpirationMinutes}
	for _, opt := range opts {
		opt(s)
	}
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "api_key", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("users_api_key"),
	})
	if err != nil {
		return nil, fmt.Errorf("create api key index: %w", err)
	}
	return s, nil
}

func (s *Store) Get(ctx context.Context, id string) (*user.User, error) {
	return s.findOne(ctx, bson.D{{Key: "_id", Value: id}})
}

func (s *Store) GetByAPIKey(ctx context.Context, key string) (*user.User, error) {
	return s.findOne(ctx, bson.D{{Key: "api_key", Value: key}})
}

func (s *Store) List(ctx context.Context) ([]*user.User, error) {
	cur, err := s.coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []store.Document
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]*user.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.User(s.defaultMinutes)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (s *Store) Put(ctx context.Context, u *user.User) error {
	d, err := store.NextDocument(u)
	if err != nil {
		return err
	}

	if u.Version == 0 {
		if err := s.insert(ctx, d); err != nil {
			return err
		}
		u.Version = d.Version
		return nil
	}

	res, err := s.coll.ReplaceOne(ctx, bson.D{
		{Key: "_id", Value: u.ID},
		{Key: "version", Value: u.Version},
	}, d)
	if mongo.IsDuplicateKeyError(err) {
		return store.ErrDuplicateAPIKey
	}
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrVersionConflict
	}
	u.Version = d.Version
	return nil
}

func (s *Store) insert(ctx context.Context, d store.Document) error {
	_, err := s.coll.InsertOne(ctx, d)
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	// Either the id or the api key is taken.
	n, cerr := s.coll.CountDocuments(ctx, bson.D{{Key: "_id", Value: d.ID}})
	if cerr != nil {
		return errors.Join(err, cerr)
	}
	if n > 0 {
		return store.ErrVersionConflict
	}
	return store.ErrDuplicateAPIKey
}

func (s *Store) Delete(ctx context.Context, id string) error {
	res, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

func (s *Store) findOne(ctx context.Context, filter bson.D) (*user.User, error) {
	var d store.Document
	err := s.coll.FindOne(ctx, filter).Decode(&d)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return d.User(s.defaultMinutes)
}
