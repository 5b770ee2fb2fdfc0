package vk

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// ErrUninitialized is returned when a key is requested before a loader has
// populated the store.
var ErrUninitialized = errors.New("verification key not initialized")

// A Loader produces a complete verification key. Production deployments load
// a key artifact from disk, test harnesses substitute a fixture key; the
// verifier logic never changes between the two.
type Loader interface {
	Load() (*Key, error)
}

// Store holds the verification key for one deployment. The key becomes
// visible only after a loader has supplied a complete, valid key; a key is
// never observable in a partially-assigned state.
type Store struct {
	mu  sync.RWMutex
	key *Key
}

func NewStore() *Store {
	return &Store{}
}

// Load populates the store from the given loader. The key is validated before
// it is published, so a loader that omits or corrupts any field leaves the
// store uninitialized and every subsequent verification fails with
// ErrUninitialized. Loading again replaces the key as a whole unit.
func (s *Store) Load(l Loader) error {
	key, err := l.Load()
	if err != nil {
		return fmt.Errorf("error loading verification key: %w", err)
	}
	if key == nil {
		return fmt.Errorf("loader returned no verification key")
	}
	if err := key.Validate(); err != nil {
		return fmt.Errorf("invalid verification key: %w", err)
	}
	s.mu.Lock()
	s.key = key
	s.mu.Unlock()
	return nil
}

// Get returns the loaded key, or ErrUninitialized if no loader has run.
func (s *Store) Get() (*Key, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.key == nil {
		return nil, ErrUninitialized
	}
	return s.key, nil
}

// FileLoader loads a key artifact serialized with Key.WriteTo, the production
// deployment path.
type FileLoader struct {
	Path string
}

func (l FileLoader) Load() (*Key, error) {
	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening key artifact: %v", err)
	}
	defer f.Close()
	var key Key
	if _, err := key.ReadFrom(f); err != nil {
		return nil, fmt.Errorf("error reading key artifact: %v", err)
	}
	return &key, nil
}

// StaticLoader serves an in-memory key, the fixture path used by tests.
type StaticLoader struct {
	Key *Key
}

func (l StaticLoader) Load() (*Key, error) {
	return l.Key, nil
}
