// Package keylock provides mutual exclusion per string key.
package keylock

import (
	"context"
	"sync"
)

type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	ch   chan struct{}
	refs int
}

func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock blocks until key is free or ctx is done.
func (k *KeyLock) Lock(ctx context.Context, key string) error {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		k.mu.Lock()
		k.release(key, e)
		k.mu.Unlock()
		return ctx.Err()
	}
}

func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	defer k.mu.Unlock()

	e, ok := k.locks[key]
	if !ok {
		panic("keylock: unlock of unlocked key " + key)
	}

	<-e.ch
	k.release(key, e)
}

// Len returns the number of keys currently held or waited on.
func (k *KeyLock) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyLock) release(key string, e *entry) {
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}
