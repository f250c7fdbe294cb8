// Package localstore is the durable fallback backing for the platform's
// named collections when no remote row store is configured. Each collection
// is one Redis key holding the whole serialized record list; writes are
// wholesale overwrites, never partial merges.
package localstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "mediwrap:collection:"

// ErrUnknownCollection is returned when loading a collection that has no
// registered seed and no persisted payload.
var ErrUnknownCollection = fmt.Errorf("localstore: unknown collection")

type seed struct {
	payload []byte
	maxID   int64
}

// Store persists named collections in Redis under a fixed, human-readable
// key namespace.
type Store struct {
	redis *redis.Client

	mu    sync.RWMutex
	seeds map[string]seed
}

// New creates a store on the given Redis client.
func New(client *redis.Client) *Store {
	if client == nil {
		panic("localstore: redis client required")
	}
	return &Store{
		redis: client,
		seeds: make(map[string]seed),
	}
}

func collectionKey(collection string) string {
	return keyPrefix + collection
}

func counterKey(collection string) string {
	return keyPrefix + collection + ":next_id"
}

// RegisterSeed installs the first-run bootstrap dataset for a collection.
// maxID is the highest record ID contained in the seed, so that IDs
// allocated later never collide with seeded records.
func (s *Store) RegisterSeed(collection string, records any, maxID int64) error {
	payload, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("localstore: marshal seed for %s: %w", collection, err)
	}
	s.mu.Lock()
	s.seeds[collection] = seed{payload: payload, maxID: maxID}
	s.mu.Unlock()
	return nil
}

// Load returns the persisted collection payload. An absent collection is
// seeded with its registered dataset, and the seed is persisted before it
// is returned. A payload that fails to parse is discarded and treated as
// absent.
func (s *Store) Load(ctx context.Context, collection string) ([]byte, error) {
	data, err := s.redis.Get(ctx, collectionKey(collection)).Bytes()
	if err == redis.Nil {
		return s.bootstrap(ctx, collection)
	}
	if err != nil {
		return nil, fmt.Errorf("localstore: load %s: %w", collection, err)
	}
	if !json.Valid(data) {
		return s.bootstrap(ctx, collection)
	}
	return data, nil
}

func (s *Store) bootstrap(ctx context.Context, collection string) ([]byte, error) {
	s.mu.RLock()
	sd, ok := s.seeds[collection]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCollection, collection)
	}
	if err := s.redis.Set(ctx, collectionKey(collection), sd.payload, 0).Err(); err != nil {
		return nil, fmt.Errorf("localstore: persist seed for %s: %w", collection, err)
	}
	// The counter only moves forward; re-seeding after corruption must not
	// rewind IDs that were already handed out.
	if err := s.redis.SetNX(ctx, counterKey(collection), sd.maxID, 0).Err(); err != nil {
		return nil, fmt.Errorf("localstore: init id counter for %s: %w", collection, err)
	}
	return sd.payload, nil
}

// Save overwrites the persisted collection wholesale.
func (s *Store) Save(ctx context.Context, collection string, payload []byte) error {
	if !json.Valid(payload) {
		return fmt.Errorf("localstore: refusing to save malformed payload for %s", collection)
	}
	if err := s.redis.Set(ctx, collectionKey(collection), payload, 0).Err(); err != nil {
		return fmt.Errorf("localstore: save %s: %w", collection, err)
	}
	return nil
}

// Delete removes the persisted collection record entirely.
func (s *Store) Delete(ctx context.Context, collection string) error {
	if err := s.redis.Del(ctx, collectionKey(collection)).Err(); err != nil {
		return fmt.Errorf("localstore: delete %s: %w", collection, err)
	}
	return nil
}

// NextID allocates the next record ID for a collection from a monotonic
// counter held separately from the live collection, so deleting the record
// carrying the current maximum never causes an ID to be reissued.
func (s *Store) NextID(ctx context.Context, collection string) (int64, error) {
	s.mu.RLock()
	sd, hasSeed := s.seeds[collection]
	s.mu.RUnlock()
	if hasSeed {
		if err := s.redis.SetNX(ctx, counterKey(collection), sd.maxID, 0).Err(); err != nil {
			return 0, fmt.Errorf("localstore: init id counter for %s: %w", collection, err)
		}
	}
	id, err := s.redis.Incr(ctx, counterKey(collection)).Result()
	if err != nil {
		return 0, fmt.Errorf("localstore: next id for %s: %w", collection, err)
	}
	return id, nil
}
