// Package remote describes the document store the blog syncs against and
// provides a badger-backed implementation of it.
//
// Documents live in named collections, carry store-assigned ids and
// timestamps, and are patched field by field. Array fields can be changed
// with ArrayUnion and ArrayRemove, which the store applies atomically so
// concurrent writers never overwrite each other's elements.
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNoDocument is returned by point operations when the id does not exist.
var ErrNoDocument = errors.New("document not found")

// ErrCorrupt marks a stored document that cannot be decoded. Reading it
// again yields the same bytes, so it is never worth retrying.
var ErrCorrupt = errors.New("corrupt document")

// Fields holds a document's named values.
type Fields map[string]any

// Document is a stored record with its store-managed metadata.
type Document struct {
	ID         string
	Fields     Fields
	CreateTime time.Time
	UpdateTime time.Time
	Version    int64
}

// Decode copies the document's fields, plus its id under "id", into v.
func (d *Document) Decode(v any) error {
	fields := make(Fields, len(d.Fields)+1)
	for k, val := range d.Fields {
		fields[k] = val
	}
	fields["id"] = d.ID
	data, err := json.Marshal(fields)
	if err != nil {
		return fmt.Errorf("failed to marshal document %s: %w", d.ID, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode document %s: %w: %v", d.ID, ErrCorrupt, err)
	}
	return nil
}

// Store is the remote document database capability.
type Store interface {
	// Insert creates a document and returns it with its generated id and
	// server timestamps resolved.
	Insert(ctx context.Context, collection string, fields Fields, opts ...InsertOption) (*Document, error)
	// Get returns the document or ErrNoDocument.
	Get(ctx context.Context, collection, id string) (*Document, error)
	// Query scans a collection with optional equality filters and ordering.
	Query(ctx context.Context, collection string, q Query) ([]*Document, error)
	// Update applies a partial patch and returns the confirmed document.
	Update(ctx context.Context, collection, id string, patch Fields) (*Document, error)
	// Delete removes the document or returns ErrNoDocument.
	Delete(ctx context.Context, collection, id string) error
}

// InsertOptions are the resolved options of an Insert call.
type InsertOptions struct {
	IdempotencyKey string
}

// InsertOption customizes an Insert call.
type InsertOption func(*InsertOptions)

// WithIdempotencyKey makes repeated inserts with the same key return the
// document created by the first one.
func WithIdempotencyKey(key string) InsertOption {
	return func(o *InsertOptions) {
		o.IdempotencyKey = key
	}
}

// ResolveInsertOptions folds opts into an InsertOptions value.
func ResolveInsertOptions(opts []InsertOption) InsertOptions {
	var o InsertOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
