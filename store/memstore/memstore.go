// Package memstore is an in-process store.Store.
package memstore

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-albis-sdk/store"
)

var (
	_ store.Store     = (*Store)(nil)
	_ store.Destroyer = (*Store)(nil)
)

type Store struct {
	values map[string]string
	lock   sync.RWMutex
}

func New() *Store {
	return &Store{
		values: make(map[string]string),
	}
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	v, ok := s.values[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values[key] = value
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	delete(s.values, key)
	return nil
}

// Destroy drops every key.
func (s *Store) Destroy(_ context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.values = make(map[string]string)
	return nil
}

// Len returns the number of stored keys.
func (s *Store) Len() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return len(s.values)
}
