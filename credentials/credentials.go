package credentials

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"vodforge/logger"

	"github.com/cockroachdb/pebble"
)

// ErrNotFound is returned when no access info is stored under a key.
var ErrNotFound = errors.New("credentials not found")

// Store keeps storage-backend access info (bucket, region, keys...) in a
// Pebble database, one JSON map per key.
type Store struct {
	db *pebble.DB
}

// Open opens or creates the Pebble database at dbPath.
func Open(dbPath string) (*Store, error) {
	db, err := pebble.Open(dbPath, &pebble.Options{})
	if err != nil {
		logger.Errorf("Failed to open Pebble DB: %v", err)
		return nil, fmt.Errorf("open credentials db %s: %w", dbPath, err)
	}
	return &Store{db: db}, nil
}

// Close closes the DB
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the access info stored under key.
func (s *Store) Get(key string) (map[string]string, error) {
	value, closer, err := s.db.Get([]byte(key))
	if errors.Is(err, pebble.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, key)
	}
	if err != nil {
		return nil, err
	}
	defer closer.Close()

	creds := make(map[string]string)
	if err := json.Unmarshal(value, &creds); err != nil {
		return nil, fmt.Errorf("decode credentials %s: %w", key, err)
	}
	return creds, nil
}

// Put stores the credentials map under the given key, replacing any previous value.
func (s *Store) Put(key string, creds map[string]string) error {
	encoded, err := json.Marshal(creds)
	if err != nil {
		return err
	}
	return s.db.Set([]byte(key), encoded, pebble.Sync)
}

// Delete deletes the credentials for the given key
func (s *Store) Delete(key string) error {
	return s.db.Delete([]byte(key), pebble.Sync)
}

// Keys lists stored keys in order.
func (s *Store) Keys() ([]string, error) {
	iter, err := s.db.NewIter(nil)
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var keys []string
	for iter.First(); iter.Valid(); iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	sort.Strings(keys)
	return keys, iter.Error()
}

// Redacted returns a copy of creds with secret-looking values masked, for
// printing.
func Redacted(creds map[string]string) map[string]string {
	out := make(map[string]string, len(creds))
	for k, v := range creds {
		switch k {
		case "secretKey", "password", "privateKey", "credentialsJSON":
			out[k] = "****"
		default:
			out[k] = v
		}
	}
	return out
}
