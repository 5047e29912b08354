package service

import (
	"context"
	"encoding/binary"

	"github.com/google/uuid"
)

const defaultLockStripes = 256

// itemLocks serializes writers of the same item within this process, so
// contending requests queue here instead of piling up on database row locks.
// Items hash onto a fixed set of stripes; unrelated items that share a stripe
// wait for each other, which is harmless.
type itemLocks struct {
	stripes []chan struct{}
}

func newItemLocks(n int) *itemLocks {
	if n <= 0 {
		n = defaultLockStripes
	}
	l := &itemLocks{stripes: make([]chan struct{}, n)}
	for i := range l.stripes {
		l.stripes[i] = make(chan struct{}, 1)
	}
	return l
}

// lock blocks until the item's stripe is free or ctx is done.
func (l *itemLocks) lock(ctx context.Context, id uuid.UUID) (func(), error) {
	ch := l.stripes[binary.BigEndian.Uint64(id[8:])%uint64(len(l.stripes))]
	select {
	case ch <- struct{}{}:
		return func() { <-ch }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
