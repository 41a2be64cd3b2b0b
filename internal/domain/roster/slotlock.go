package roster

import (
	"context"
	"sync"
)

// slotLocks serialises writers per key. Entries exist only while someone
// holds or waits for the key.
type slotLocks struct {
	mu    sync.Mutex
	locks map[string]*slotLock
}

type slotLock struct {
	ch   chan struct{}
	refs int
}

func newSlotLocks() *slotLocks {
	return &slotLocks{locks: make(map[string]*slotLock)}
}

// Lock waits for key and returns the release func. It gives up when ctx is
// done.
func (s *slotLocks) Lock(ctx context.Context, key string) (func(), error) {
	s.mu.Lock()
	l, ok := s.locks[key]
	if !ok {
		l = &slotLock{ch: make(chan struct{}, 1)}
		s.locks[key] = l
	}
	l.refs++
	s.mu.Unlock()

	select {
	case l.ch <- struct{}{}:
		return func() {
			<-l.ch
			s.release(key, l)
		}, nil
	case <-ctx.Done():
		s.release(key, l)
		return nil, ctx.Err()
	}
}

func (s *slotLocks) release(key string, l *slotLock) {
	s.mu.Lock()
	defer s.mu.Unlock()
	l.refs--
	if l.refs == 0 {
		delete(s.locks, key)
	}
}

func (s *slotLocks) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
