// Package storetest provides backends for exercising storage failure paths.
package storetest

import (
	"context"
	"errors"
	"sync"

	"github.com/mmcdole/wizju/internal/domain"
)

// ErrInjected is returned by a Faulty backend when a failure is switched on.
var ErrInjected = errors.New("injected backend failure")

// Faulty wraps a backend and fails selected operations on demand.
type Faulty struct {
	domain.Backend

	mu         sync.Mutex
	failGet    bool
	failSet    bool
	failRemove bool
	failKeys   bool
	sets       int
}

// NewFaulty wraps b.
func NewFaulty(b domain.Backend) *Faulty {
	return &Faulty{Backend: b}
}

func (f *Faulty) FailGet(v bool)    { f.mu.Lock(); f.failGet = v; f.mu.Unlock() }
func (f *Faulty) FailSet(v bool)    { f.mu.Lock(); f.failSet = v; f.mu.Unlock() }
func (f *Faulty) FailRemove(v bool) { f.mu.Lock(); f.failRemove = v; f.mu.Unlock() }
func (f *Faulty) FailKeys(v bool)   { f.mu.Lock(); f.failKeys = v; f.mu.Unlock() }

// Sets returns how many successful Set calls went through.
func (f *Faulty) Sets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets
}

func (f *Faulty) Get(ctx context.Context, key string) ([]byte, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, false, ErrInjected
	}
	return f.Backend.Get(ctx, key)
}

func (f *Faulty) Set(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	fail := f.failSet
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	if err := f.Backend.Set(ctx, key, value); err != nil {
		return err
	}
	f.mu.Lock()
	f.sets++
	f.mu.Unlock()
	return nil
}

func (f *Faulty) Remove(ctx context.Context, keys ...string) error {
	f.mu.Lock()
	fail := f.failRemove
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Backend.Remove(ctx, keys...)
}

func (f *Faulty) Keys(ctx context.Context) ([]string, error) {
	f.mu.Lock()
	fail := f.failKeys
	f.mu.Unlock()
	if fail {
		return nil, ErrInjected
	}
	return f.Backend.Keys(ctx)
}
