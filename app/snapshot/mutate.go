package snapshot

import (
	"context"

	"github.com/golang/glog"
)

// Mutate runs op, which performs a remote write and blocks until the store
// answers, then hands the confirmed result to apply. When op fails the
// snapshot is not touched. A result arriving after the snapshot was closed
// is returned to the caller but not applied.
func Mutate[T Entity, R any](ctx context.Context, snap *Snapshot[T], name string,
	op func(context.Context) (R, error), apply func(*Snapshot[T], R)) (R, error) {
	result, err := op(ctx)
	if err != nil {
		glog.V(1).Infof("[snapshot] %s failed, local state kept: %v", name, err)
		return result, err
	}
	if snap.Closed() {
		glog.V(2).Infof("[snapshot] %s confirmed after close, discarded", name)
		return result, nil
	}
	apply(snap, result)
	glog.V(2).Infof("[snapshot] %s applied", name)
	return result, nil
}

// Upserted applies a confirmed create or update.
func Upserted[T Entity](snap *Snapshot[T], item T) {
	snap.Upsert(item)
}

// Removed returns an apply function that drops key after a confirmed delete.
func Removed[T Entity, R any](key string) func(*Snapshot[T], R) {
	return func(snap *Snapshot[T], _ R) {
		snap.Remove(key)
	}
}
