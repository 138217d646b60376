package snapshot

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned by Load when a later Load started before it finished.
var ErrSuperseded = errors.New("load superseded")

// View is a mounted screen's hold on a snapshot. It discards fetch results
// that arrive after Close or after a newer Load.
type View[T Entity] struct {
	snap *Snapshot[T]

	mutex      sync.Mutex
	generation uint64
}

func NewView[T Entity]() *View[T] {
	return &View[T]{snap: New[T]()}
}

// Snapshot returns the view's local data.
func (v *View[T]) Snapshot() *Snapshot[T] {
	return v.snap
}

// Load replaces the snapshot with the result of fetch. On error the
// previous content is kept.
func (v *View[T]) Load(ctx context.Context, fetch func(context.Context) ([]T, error)) error {
	v.mutex.Lock()
	v.generation++
	gen := v.generation
	v.mutex.Unlock()

	items, err := fetch(ctx)
	if v.snap.Closed() {
		return ErrClosed
	}
	if err != nil {
		return err
	}

	v.mutex.Lock()
	defer v.mutex.Unlock()
	if gen != v.generation {
		return ErrSuperseded
	}
	if !v.snap.Replace(items) {
		return ErrClosed
	}
	return nil
}

// Close tears the view down.
func (v *View[T]) Close() {
	v.snap.Close()
}
