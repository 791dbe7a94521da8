package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kvels/authcore"
)

// The remove script deletes a session key and its reverse-index entry in
// one atomic step, so a concurrent Get can never observe the key gone but
// the index still holding it.
const removeSessionScript = `
local uid = redis.call("GET", KEYS[1])
if not uid then
  return 0
end
redis.call("DEL", KEYS[1])
redis.call("SREM", ARGV[1] .. uid, ARGV[2])
return 1
`

var removeSessionLua = redis.NewScript(removeSessionScript)

// Store is a Redis-backed session cache. The value under each session key
// is the owning user id; a per-user SET indexes the user's live keys for
// cascade invalidation.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a session [Store] backed by the given Redis client.
// prefix namespaces every key this store touches.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(sessionKey string) string {
	return s.prefix + ":k:" + sessionKey
}

func (s *Store) userKey(userID int64) string {
	return s.prefix + ":u:" + strconv.FormatInt(userID, 10)
}

// userKeyPrefix is what the Lua remove script concatenates with the stored
// user id to reach the reverse index.
func (s *Store) userKeyPrefix() string {
	return s.prefix + ":u:"
}

// Insert stores the mapping with no expiry, overwriting any prior mapping
// under the same key.
func (s *Store) Insert(ctx context.Context, userID int64, key string) error {
	return s.insert(ctx, userID, key, 0)
}

// InsertFor stores the mapping with an expiry. The reverse-index entry is
// cleaned lazily: an expired key simply stops resolving, and the stale
// index member is dropped on the next cascade.
func (s *Store) InsertFor(ctx context.Context, userID int64, key string, ttl time.Duration) error {
	if ttl <= 0 {
		return fmt.Errorf("session ttl must be positive, got %v", ttl)
	}
	return s.insert(ctx, userID, key, ttl)
}

func (s *Store) insert(ctx context.Context, userID int64, key string, ttl time.Duration) error {
	value := strconv.FormatInt(userID, 10)

	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.key(key), value, ttl)
		pipe.SAdd(ctx, s.userKey(userID), key)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}

	return nil
}

// Get returns the live mapping for key, or ok=false when the key is
// missing or expired. Absence is not an error.
func (s *Store) Get(ctx context.Context, key string) (int64, bool, error) {
	value, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, false, nil
		}
		return 0, false, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}

	userID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("%w: corrupt session value %q", authcore.ErrBackendUnavailable, value)
	}

	return userID, true, nil
}

// Remove deletes the mapping and its index entry. Removing an absent key
// is a no-op.
func (s *Store) Remove(ctx context.Context, key string) error {
	err := removeSessionLua.Run(
		ctx,
		s.redis,
		[]string{s.key(key)},
		s.userKeyPrefix(),
		key,
	).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}

	return nil
}

// RemoveAllForUser invalidates every live session of the user and drops
// the reverse index, stale members included.
func (s *Store) RemoveAllForUser(ctx context.Context, userID int64) error {
	userKey := s.userKey(userID)

	keys, err := s.redis.SMembers(ctx, userKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil
		}
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}

	_, err = s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, key := range keys {
			pipe.Del(ctx, s.key(key))
		}
		pipe.Del(ctx, userKey)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}

	return nil
}

// ActiveKeys returns the user's session keys that still resolve, filtering
// out index members whose keys have expired.
func (s *Store) ActiveKeys(ctx context.Context, userID int64) ([]string, error) {
	members, err := s.redis.SMembers(ctx, s.userKey(userID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	if len(members) == 0 {
		return []string{}, nil
	}

	pipe := s.redis.Pipeline()
	existsCmds := make([]*redis.IntCmd, len(members))
	for i, member := range members {
		existsCmds[i] = pipe.Exists(ctx, s.key(member))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}

	active := make([]string, 0, len(members))
	for i, cmd := range existsCmds {
		n, cmdErr := cmd.Result()
		if cmdErr != nil && !errors.Is(cmdErr, redis.Nil) {
			return nil, fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, cmdErr)
		}
		if n == 1 {
			active = append(active, members[i])
		}
	}

	return active, nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", authcore.ErrBackendUnavailable, err)
	}
	return time.Since(start), nil
}
