// internal/app/store/docstore/docstore.go
//
// Package docstore is the adapter between the collection services and
// MongoDB. It owns the read-cost cap, timestamp stamping, the retry-without-
// sort fallback for missing indexes, and the degrade-to-empty policy for
// permission-denied reads. Nothing above this package touches the driver
// directly.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// DefaultLimit caps queries that do not specify their own limit, bounding
// read cost for list views.
const DefaultLimit = 50

// ErrNotFound is returned by Get when no document matches.
var ErrNotFound = errors.New("document not found")

// Filter is an equality constraint on a single field.
type Filter struct {
	Field string
	Value any
}

// Order is a single-field sort specification.
type Order struct {
	Field string
	Desc  bool
}

// Query describes a filtered, optionally ordered and paginated read.
type Query struct {
	Filters []Filter
	Order   *Order
	Limit   int64

	// StartAfter resumes a paginated read strictly after this value of the
	// order field (or _id when no order is set).
	StartAfter any
}

// Store wraps a Mongo database. The clock is injectable so tests can pin
// timestamps.
type Store struct {
	db  *mongo.Database
	log *zap.Logger
	now func() time.Time
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{db: db, log: log, now: time.Now}
}

// WithClock returns a copy of the store using the given clock.
func (s *Store) WithClock(now func() time.Time) *Store {
	c := *s
	c.now = now
	return &c
}

// Database exposes the underlying handle for index setup and fixtures.
func (s *Store) Database() *mongo.Database { return s.db }

// Query runs a filtered read and returns the raw documents.
//
// Behavior the callers rely on:
//   - a limit <= 0 becomes DefaultLimit;
//   - a sort that fails for want of an index is retried once without the
//     sort, preserving filters and limit;
//   - permission-denied on either attempt yields an empty slice and a nil
//     error, so list views degrade to "no data" instead of crashing.
func (s *Store) Query(ctx context.Context, collection string, q Query) ([]bson.Raw, error) {
	filter := buildFilter(q)
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	opts := options.Find().SetLimit(limit)
	if q.Order != nil {
		dir := 1
		if q.Order.Desc {
			dir = -1
		}
		opts.SetSort(bson.D{{Key: q.Order.Field, Value: dir}})
	}

	docs, err := s.find(ctx, collection, filter, opts)
	if err != nil && q.Order != nil && isSortUnsupported(err) {
		s.log.Warn("ordered query failed, retrying without sort",
			zap.String("collection", collection),
			zap.String("order_field", q.Order.Field),
			zap.Error(err))
		docs, err = s.find(ctx, collection, filter, options.Find().SetLimit(limit))
	}
	if err != nil {
		if isPermissionDenied(err) {
			s.log.Warn("read permission denied, returning empty result",
				zap.String("collection", collection), zap.Error(err))
			return []bson.Raw{}, nil
		}
		return nil, fmt.Errorf("query %s: %w", collection, err)
	}
	return docs, nil
}

func (s *Store) find(ctx context.Context, collection string, filter bson.M, opts *options.FindOptions) ([]bson.Raw, error) {
	cur, err := s.db.Collection(collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var docs []bson.Raw
	for cur.Next(ctx) {
		raw := make(bson.Raw, len(cur.Current))
		copy(raw, cur.Current)
		docs = append(docs, raw)
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []bson.Raw{}
	}
	return docs, nil
}

// Get loads a single document by id. Extra filters let callers fail closed
// on tenant scope without a second round trip. mongo.ErrNoDocuments maps to
// ErrNotFound.
func (s *Store) Get(ctx context.Context, collection string, id any, extra []Filter, out any) error {
	filter := bson.M{"_id": id}
	for _, f := range extra {
		filter[f.Field] = f.Value
	}
	err := s.db.Collection(collection).FindOne(ctx, filter).Decode(out)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", collection, err)
	}
	return nil
}

// Create inserts a document, assigning an ObjectID when the caller did not
// set an id and stamping created_at/updated_at. It returns the id in string
// form (hex for ObjectIDs).
func (s *Store) Create(ctx context.Context, collection string, doc any) (string, error) {
	return s.CreateWith(ctx, collection, doc, nil)
}

// CreateWith inserts a document with field overrides applied after
// marshaling; the tenant layer uses this to stamp organization_id so a
// caller-supplied value can never cross tenants.
func (s *Store) CreateWith(ctx context.Context, collection string, doc any, overrides bson.M) (string, error) {
	m, err := toMap(doc)
	if err != nil {
		return "", err
	}
	for k, v := range overrides {
		m[k] = v
	}

	id, ok := m["_id"]
	if !ok || isZeroID(id) {
		oid := primitive.NewObjectID()
		m["_id"] = oid
		id = oid
	}

	now := s.now().UTC()
	m["created_at"] = now
	m["updated_at"] = now

	if _, err := s.db.Collection(collection).InsertOne(ctx, m); err != nil {
		return "", err
	}
	return idString(id), nil
}

// Update applies a partial $set merge and bumps updated_at. Extra filters
// narrow the match the same way they do for Get; a document outside the
// extra filters reports ErrNotFound, never a cross-scope write.
func (s *Store) Update(ctx context.Context, collection string, id any, set bson.M, extra ...Filter) error {
	return s.update(ctx, collection, id, set, nil, extra...)
}

// UpdateUnset applies a partial merge and removes the named fields in the
// same write.
func (s *Store) UpdateUnset(ctx context.Context, collection string, id any, set bson.M, unset []string, extra ...Filter) error {
	return s.update(ctx, collection, id, set, unset, extra...)
}

func (s *Store) update(ctx context.Context, collection string, id any, set bson.M, unset []string, extra ...Filter) error {
	merged := bson.M{}
	for k, v := range set {
		merged[k] = v
	}
	merged["updated_at"] = s.now().UTC()

	filter := bson.M{"_id": id}
	for _, f := range extra {
		filter[f.Field] = f.Value
	}

	update := bson.M{"$set": merged}
	if len(unset) > 0 {
		u := bson.M{}
		for _, field := range unset {
			u[field] = ""
		}
		update["$unset"] = u
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("update %s: %w", collection, err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a document by id, narrowed by any extra filters.
func (s *Store) Delete(ctx context.Context, collection string, id any, extra ...Filter) error {
	filter := bson.M{"_id": id}
	for _, f := range extra {
		filter[f.Field] = f.Value
	}
	res, err := s.db.Collection(collection).DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("delete %s: %w", collection, err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Count returns the number of documents matching the filters. It uses a
// server-side $count aggregation and, when the aggregate stage is not
// available, falls back to fetching the filtered ids and measuring the set.
// The count is never capped by DefaultLimit; list reads are.
func (s *Store) Count(ctx context.Context, collection string, filters []Filter) (int64, error) {
	match := bson.M{}
	for _, f := range filters {
		match[f.Field] = f.Value
	}

	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$count", Value: "n"}},
	}
	cur, err := s.db.Collection(collection).Aggregate(ctx, pipeline)
	if err == nil {
		defer cur.Close(ctx)
		var rows []struct {
			N int64 `bson:"n"`
		}
		if err := cur.All(ctx, &rows); err == nil {
			if len(rows) == 0 {
				return 0, nil
			}
			return rows[0].N, nil
		}
	}

	s.log.Warn("count aggregate unavailable, falling back to full fetch",
		zap.String("collection", collection), zap.Error(err))

	fcur, ferr := s.db.Collection(collection).Find(ctx, match,
		options.Find().SetProjection(bson.M{"_id": 1}))
	if ferr != nil {
		if isPermissionDenied(ferr) {
			s.log.Warn("count permission denied, reporting zero",
				zap.String("collection", collection), zap.Error(ferr))
			return 0, nil
		}
		return 0, fmt.Errorf("count %s: %w", collection, ferr)
	}
	defer fcur.Close(ctx)

	var n int64
	for fcur.Next(ctx) {
		n++
	}
	if err := fcur.Err(); err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return n, nil
}

// DecodeAll unmarshals raw query results into typed values.
func DecodeAll[T any](docs []bson.Raw) ([]T, error) {
	out := make([]T, 0, len(docs))
	for _, d := range docs {
		var v T
		if err := bson.Unmarshal(d, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func buildFilter(q Query) bson.M {
	filter := bson.M{}
	for _, f := range q.Filters {
		filter[f.Field] = f.Value
	}
	if q.StartAfter != nil {
		field := "_id"
		gt := true
		if q.Order != nil {
			field = q.Order.Field
			gt = !q.Order.Desc
		}
		if gt {
			filter[field] = bson.M{"$gt": q.StartAfter}
		} else {
			filter[field] = bson.M{"$lt": q.StartAfter}
		}
	}
	return filter
}

func toMap(doc any) (bson.M, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var m bson.M
	if err := bson.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return m, nil
}

func isZeroID(id any) bool {
	switch v := id.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case primitive.ObjectID:
		return v.IsZero()
	}
	return false
}

func idString(id any) string {
	switch v := id.(type) {
	case string:
		return v
	case primitive.ObjectID:
		return v.Hex()
	default:
		return fmt.Sprintf("%v", v)
	}
}
