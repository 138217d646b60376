package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/golang/glog"
	"github.com/oklog/ulid/v2"
)

// DefaultConflictRetries bounds how often a transaction is replayed after
// badger reports a write conflict.
const DefaultConflictRetries = 8

// BadgerStore implements Store using BadgerDB
type BadgerStore struct {
	db              *badger.DB
	now             func() time.Time
	conflictRetries int
}

// BadgerOption customizes a BadgerStore.
type BadgerOption func(*BadgerStore)

// WithClock replaces the clock used for server timestamps.
func WithClock(now func() time.Time) BadgerOption {
	return func(s *BadgerStore) {
		s.now = now
	}
}

// WithConflictRetries sets how many times a conflicting transaction is retried.
func WithConflictRetries(n int) BadgerOption {
	return func(s *BadgerStore) {
		s.conflictRetries = n
	}
}

// OpenBadger opens the database at path. An empty path with inMemory set
// opens a throwaway in-memory database.
func OpenBadger(path string, inMemory bool, opts ...BadgerOption) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(path).
		WithLogger(nil).
		WithNumVersionsToKeep(1)
	if inMemory {
		bopts = badger.DefaultOptions("").WithInMemory(true).WithLogger(nil)
	}
	db, err := badger.Open(bopts)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger at %q: %w", path, err)
	}
	return NewBadgerStore(db, opts...), nil
}

// NewBadgerStore creates a new BadgerStore
func NewBadgerStore(db *badger.DB, opts ...BadgerOption) *BadgerStore {
	s := &BadgerStore{
		db:              db,
		now:             time.Now,
		conflictRetries: DefaultConflictRetries,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Backup writes a full dump of the database to w.
func (s *BadgerStore) Backup(w io.Writer) error {
	if _, err := s.db.Backup(w, 0); err != nil {
		return fmt.Errorf("failed to back up database: %w", err)
	}
	return nil
}

// Restore loads a dump written by Backup. Badger panics on some malformed
// input, which is reported as an error instead.
func (s *BadgerStore) Restore(r io.Reader) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("failed to restore database: %v", rec)
		}
	}()
	if err := s.db.Load(r, 4); err != nil {
		return fmt.Errorf("failed to restore database: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *BadgerStore) Close() error {
	return s.db.Close()
}

// update runs fn in a read-write transaction, replaying it on conflict.
func (s *BadgerStore) update(ctx context.Context, fn func(txn *badger.Txn) error) error {
	var err error
	for attempt := 0; attempt <= s.conflictRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
		glog.V(2).Infof("[remote] transaction conflict, retry %d", attempt+1)
	}
	return err
}

// Insert creates a new document
func (s *BadgerStore) Insert(ctx context.Context, collection string, fields Fields, opts ...InsertOption) (*Document, error) {
	o := ResolveInsertOptions(opts)
	var doc *Document

	err := s.update(ctx, func(txn *badger.Txn) error {
		if o.IdempotencyKey != "" {
			item, err := txn.Get(idempotencyKey(collection, o.IdempotencyKey))
			if err == nil {
				var id string
				if err := item.Value(func(val []byte) error {
					id = string(val)
					return nil
				}); err != nil {
					return err
				}
				existing, err := getDocument(txn, collection, id)
				if err == nil {
					doc = existing
					return nil
				}
				// The keyed document was deleted; the key is free again.
				if !errors.Is(err, ErrNoDocument) {
					return err
				}
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
		}

		now := s.now()
		doc = &Document{
			ID:         ulid.Make().String(),
			Fields:     Resolve(fields, now),
			CreateTime: now,
			UpdateTime: now,
			Version:    1,
		}
		data, err := marshalDocument(doc)
		if err != nil {
			return err
		}
		if err := txn.Set(docKey(collection, doc.ID), data); err != nil {
			return err
		}
		if o.IdempotencyKey != "" {
			return txn.Set(idempotencyKey(collection, o.IdempotencyKey), []byte(doc.ID))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("[remote] insert %s/%s", collection, doc.ID)
	return doc, nil
}

// Get retrieves a document by id
func (s *BadgerStore) Get(ctx context.Context, collection, id string) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	var doc *Document
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		doc, err = getDocument(txn, collection, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func getDocument(txn *badger.Txn, collection, id string) (*Document, error) {
	item, err := txn.Get(docKey(collection, id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, err
	}
	var doc *Document
	err = item.Value(func(val []byte) error {
		var err error
		doc, err = unmarshalDocument(val)
		return err
	})
	return doc, err
}

// Query scans every document in the collection
func (s *BadgerStore) Query(ctx context.Context, collection string, q Query) ([]*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	docs := []*Document{}
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := docPrefix(collection)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var doc *Document
			err := it.Item().Value(func(val []byte) error {
				var err error
				doc, err = unmarshalDocument(val)
				return err
			})
			if err != nil {
				return err
			}
			if q.Matches(doc.Fields) {
				docs = append(docs, doc)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	q.Sort(docs)
	return docs, nil
}

// Update applies patch to an existing document
func (s *BadgerStore) Update(ctx context.Context, collection, id string, patch Fields) (*Document, error) {
	var doc *Document
	err := s.update(ctx, func(txn *badger.Txn) error {
		current, err := getDocument(txn, collection, id)
		if err != nil {
			return err
		}
		now := s.now()
		if now.Before(current.CreateTime) {
			now = current.CreateTime
		}
		Apply(current.Fields, patch, now)
		current.UpdateTime = now
		current.Version++

		data, err := marshalDocument(current)
		if err != nil {
			return err
		}
		doc = current
		return txn.Set(docKey(collection, id), data)
	})
	if err != nil {
		return nil, err
	}
	glog.V(2).Infof("[remote] update %s/%s v%d", collection, id, doc.Version)
	return doc, nil
}

// Delete removes a document by id
func (s *BadgerStore) Delete(ctx context.Context, collection, id string) error {
	err := s.update(ctx, func(txn *badger.Txn) error {
		key := docKey(collection, id)
		if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNoDocument
		} else if err != nil {
			return err
		}
		return txn.Delete(key)
	})
	if err != nil {
		return err
	}
	glog.V(2).Infof("[remote] delete %s/%s", collection, id)
	return nil
}
