// Package mock provides an in-memory remote.Store for tests. Every call is
// counted so tests can assert that no request reached the store.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"blogsync/app/remote"
)

// Operation names used by Calls and FailOn.
const (
	OpInsert = "insert"
	OpGet    = "get"
	OpQuery  = "query"
	OpUpdate = "update"
	OpDelete = "delete"
)

type Store struct {
	mutex       sync.Mutex
	collections map[string]map[string]*remote.Document
	idempotency map[string]string
	calls       map[string]int
	failures    map[string][]error
	nextID      int
	now         time.Time
}

func NewStore() *Store {
	return &Store{
		collections: make(map[string]map[string]*remote.Document),
		idempotency: make(map[string]string),
		calls:       make(map[string]int),
		failures:    make(map[string][]error),
		now:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// Calls returns how many times op was invoked.
func (m *Store) Calls(op string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return m.calls[op]
}

// TotalCalls returns the number of invocations across all operations.
func (m *Store) TotalCalls() int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

// FailOn queues err to be returned by the next call to op. Queued errors
// are consumed in order.
func (m *Store) FailOn(op string, errs ...error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.failures[op] = append(m.failures[op], errs...)
}

// Count returns the number of documents in collection.
func (m *Store) Count(collection string) int {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	return len(m.collections[collection])
}

// begin records the call and pops a queued failure. Caller holds the mutex.
func (m *Store) begin(ctx context.Context, op string) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return err
	}
	if queued := m.failures[op]; len(queued) > 0 {
		m.failures[op] = queued[1:]
		return queued[0]
	}
	return nil
}

// tick advances the clock by one second so timestamps are strictly ordered.
func (m *Store) tick() time.Time {
	m.now = m.now.Add(time.Second)
	return m.now
}

func (m *Store) Insert(ctx context.Context, collection string, fields remote.Fields, opts ...remote.InsertOption) (*remote.Document, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.begin(ctx, OpInsert); err != nil {
		return nil, err
	}

	o := remote.ResolveInsertOptions(opts)
	idemKey := collection + ":" + o.IdempotencyKey
	if o.IdempotencyKey != "" {
		if id, ok := m.idempotency[idemKey]; ok {
			if doc, ok := m.collections[collection][id]; ok {
				return clone(doc), nil
			}
		}
	}

	m.nextID++
	now := m.tick()
	doc := &remote.Document{
		ID:         fmt.Sprintf("%s-%d", collection, m.nextID),
		Fields:     remote.Resolve(fields, now),
		CreateTime: now,
		UpdateTime: now,
		Version:    1,
	}
	if m.collections[collection] == nil {
		m.collections[collection] = make(map[string]*remote.Document)
	}
	m.collections[collection][doc.ID] = doc
	if o.IdempotencyKey != "" {
		m.idempotency[idemKey] = doc.ID
	}
	return clone(doc), nil
}

func (m *Store) Get(ctx context.Context, collection, id string) (*remote.Document, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.begin(ctx, OpGet); err != nil {
		return nil, err
	}

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, remote.ErrNoDocument
	}
	return clone(doc), nil
}

func (m *Store) Query(ctx context.Context, collection string, q remote.Query) ([]*remote.Document, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.begin(ctx, OpQuery); err != nil {
		return nil, err
	}

	docs := []*remote.Document{}
	for _, doc := range m.collections[collection] {
		if q.Matches(doc.Fields) {
			docs = append(docs, clone(doc))
		}
	}
	// Unordered results come back oldest first.
	if q.OrderBy == "" {
		sort.Slice(docs, func(i, j int) bool { return docs[i].CreateTime.Before(docs[j].CreateTime) })
	}
	q.Sort(docs)
	return docs, nil
}

func (m *Store) Update(ctx context.Context, collection, id string, patch remote.Fields) (*remote.Document, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.begin(ctx, OpUpdate); err != nil {
		return nil, err
	}

	doc, ok := m.collections[collection][id]
	if !ok {
		return nil, remote.ErrNoDocument
	}
	now := m.tick()
	remote.Apply(doc.Fields, patch, now)
	doc.UpdateTime = now
	doc.Version++
	return clone(doc), nil
}

func (m *Store) Delete(ctx context.Context, collection, id string) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	if err := m.begin(ctx, OpDelete); err != nil {
		return err
	}

	if _, ok := m.collections[collection][id]; !ok {
		return remote.ErrNoDocument
	}
	delete(m.collections[collection], id)
	return nil
}

func clone(doc *remote.Document) *remote.Document {
	out := *doc
	out.Fields = make(remote.Fields, len(doc.Fields))
	for k, v := range doc.Fields {
		if s, ok := v.([]any); ok {
			v = append([]any(nil), s...)
		}
		out.Fields[k] = v
	}
	return &out
}
