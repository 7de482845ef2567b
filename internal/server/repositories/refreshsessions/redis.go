package refreshsessions

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/notesauth/internal/common"
	"github.com/dmitrijs2005/notesauth/internal/server/models"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport-level failure of the Redis store.
var ErrRedisUnavailable = errors.New("redis unavailable")

const keyPrefix = "rs:"

// minTTL keeps already-expired sessions addressable long enough for a
// rotation attempt to see and consume them.
const minTTL = time.Second

// RedisRepository stores each session as a JSON value under rs:<id> whose
// TTL matches the session's remaining lifetime.
type RedisRepository struct {
	rdb redis.UniversalClient
	now func() time.Time
}

func NewRedisRepository(rdb redis.UniversalClient) *RedisRepository {
	return &RedisRepository{rdb: rdb, now: time.Now}
}

func key(id string) string { return keyPrefix + id }

func (r *RedisRepository) Create(ctx context.Context, s *models.RefreshSession) error {
	blob, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode refresh session: %w", err)
	}

	ttl := s.ExpiresOn.Sub(r.now())
	if ttl < minTTL {
		ttl = minTTL
	}

	ok, err := r.rdb.SetNX(ctx, key(s.ID), blob, ttl).Result()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if !ok {
		return errDuplicateID
	}
	return nil
}

func (r *RedisRepository) Find(ctx context.Context, id string) (*models.RefreshSession, error) {
	blob, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	s := &models.RefreshSession{}
	if err := json.Unmarshal(blob, s); err != nil {
		return nil, fmt.Errorf("decode refresh session: %w", err)
	}
	return s, nil
}

// Delete uses the DEL reply count, which Redis computes atomically.
func (r *RedisRepository) Delete(ctx context.Context, id string) (bool, error) {
	n, err := r.rdb.Del(ctx, key(id)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}
