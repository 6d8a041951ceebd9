// Package redistore is the Redis-backed identity store. Each identity
// is a hash key holding a version counter and a JSON document; saves go
// through a Lua script that compares the stored version, which gives
// per-identity compare-and-swap semantics without cross-process locks.
package redistore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/krishshahi/homeaze-auth/identity"
)

// ErrUnavailable is an exported constant or variable used by the auth engine.
var ErrUnavailable = errors.New("identity store unavailable")

const defaultPrefix = "ha"

const createScript = `
if redis.call("EXISTS", KEYS[1]) == 1 or redis.call("EXISTS", KEYS[2]) == 1 then
  return 0
end
redis.call("HSET", KEYS[1], "v", 1, "data", ARGV[1])
redis.call("SET", KEYS[2], ARGV[2])
return 1
`

const saveScript = `
local v = redis.call("HGET", KEYS[1], "v")
if not v then
  return -1
end
if v ~= ARGV[1] then
  return 0
end
redis.call("HSET", KEYS[1], "v", v + 1, "data", ARGV[2])
return 1
`

var (
	createLua = redis.NewScript(createScript)
	saveLua   = redis.NewScript(saveScript)
)

// Store defines a public type used by homeaze-auth APIs.
//
// Store instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New creates a Store on the given Redis client. An empty prefix falls
// back to the default.
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{redis: client, prefix: prefix}
}

func (s *Store) idKey(id string) string {
	return s.prefix + ":id:" + id
}

func (s *Store) emailKey(email string) string {
	return s.prefix + ":email:" + strings.ToLower(strings.TrimSpace(email))
}

// Load fetches the identity document by ID.
func (s *Store) Load(ctx context.Context, id string) (*identity.Identity, error) {
	vals, err := s.redis.HMGet(ctx, s.idKey(id), "v", "data").Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return decode(vals)
}

// LoadByEmail resolves the email index and fetches the document.
func (s *Store) LoadByEmail(ctx context.Context, email string) (*identity.Identity, error) {
	id, err := s.redis.Get(ctx, s.emailKey(email)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, identity.ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return s.Load(ctx, id)
}

// Create persists a new identity and its email index entry atomically.
// It fails with identity.ErrExists when either already exists.
func (s *Store) Create(ctx context.Context, ident *identity.Identity) error {
	data, err := json.Marshal(ident)
	if err != nil {
		return err
	}

	created, err := createLua.Run(ctx, s.redis,
		[]string{s.idKey(ident.ID), s.emailKey(ident.Email)},
		data, ident.ID,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if created == 0 {
		return identity.ErrExists
	}

	ident.Version = 1
	return nil
}

// Save stores the document iff the persisted version still matches
// ident.Version, then bumps the local version to match. A mismatch
// returns identity.ErrConflict and leaves the document untouched.
func (s *Store) Save(ctx context.Context, ident *identity.Identity) error {
	data, err := json.Marshal(ident)
	if err != nil {
		return err
	}

	status, err := saveLua.Run(ctx, s.redis,
		[]string{s.idKey(ident.ID)},
		ident.Version, data,
	).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	switch status {
	case -1:
		return identity.ErrNotFound
	case 0:
		return identity.ErrConflict
	}

	ident.Version++
	return nil
}

// Delete removes the document and its email index entry. Deleting an
// absent identity is a no-op.
func (s *Store) Delete(ctx context.Context, id string) error {
	ident, err := s.Load(ctx, id)
	if err != nil {
		if errors.Is(err, identity.ErrNotFound) {
			return nil
		}
		return err
	}

	if err := s.redis.Del(ctx, s.idKey(id), s.emailKey(ident.Email)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func decode(vals []interface{}) (*identity.Identity, error) {
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, identity.ErrNotFound
	}

	vStr, ok := vals[0].(string)
	if !ok {
		return nil, fmt.Errorf("%w: malformed version field", ErrUnavailable)
	}
	data, ok := vals[1].(string)
	if !ok {
		return nil, fmt.Errorf("%w: malformed data field", ErrUnavailable)
	}

	var version uint64
	if _, err := fmt.Sscanf(vStr, "%d", &version); err != nil {
		return nil, fmt.Errorf("%w: malformed version field", ErrUnavailable)
	}

	var ident identity.Identity
	if err := json.Unmarshal([]byte(data), &ident); err != nil {
		return nil, fmt.Errorf("%w: corrupt identity document", ErrUnavailable)
	}

	ident.Version = version
	return &ident, nil
}
