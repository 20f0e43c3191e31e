package external

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSessionStore implements SessionStore over go-redis, the pack's
// corroborated choice for the shared session table (annel0-mmo-game,
// TheRockettek-Sandwich-Producer both depend on it).
type RedisSessionStore struct {
	rdb *redis.Client
}

func NewRedisSessionStore(rdb *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{rdb: rdb}
}

func sessionKey(id string) string  { return "session:" + id }
func reverseKey(acct int64) string { return "session:reverse:" + strconv.FormatInt(acct, 10) }
func flushingKey(acct int64) string { return "session:flushing:" + strconv.FormatInt(acct, 10) }

func (s *RedisSessionStore) Put(ctx context.Context, sessionID string, rec SessionRecord, ttl time.Duration) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal session record: %w", err)
	}
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, sessionKey(sessionID), raw, ttl)
	pipe.Set(ctx, reverseKey(rec.AccountID), sessionID, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *RedisSessionStore) Get(ctx context.Context, sessionID string) (SessionRecord, error) {
	raw, err := s.rdb.Get(ctx, sessionKey(sessionID)).Bytes()
	if err != nil {
		return SessionRecord{}, fmt.Errorf("get session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return SessionRecord{}, fmt.Errorf("unmarshal session record: %w", err)
	}
	return rec, nil
}

func (s *RedisSessionStore) Del(ctx context.Context, sessionID string) error {
	rec, err := s.Get(ctx, sessionID)
	if err == nil {
		s.rdb.Del(ctx, reverseKey(rec.AccountID))
	}
	return s.rdb.Del(ctx, sessionKey(sessionID)).Err()
}

func (s *RedisSessionStore) ReverseAccountToSession(ctx context.Context, accountID int64) (string, bool, error) {
	id, err := s.rdb.Get(ctx, reverseKey(accountID)).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("reverse lookup: %w", err)
	}
	return id, true, nil
}

func (s *RedisSessionStore) CompareAndSetFlushing(ctx context.Context, accountID int64, want bool) (bool, error) {
	if want {
		ok, err := s.rdb.SetNX(ctx, flushingKey(accountID), "1", 5*time.Minute).Result()
		if err != nil {
			return false, fmt.Errorf("set flushing: %w", err)
		}
		return ok, nil
	}
	n, err := s.rdb.Del(ctx, flushingKey(accountID)).Result()
	if err != nil {
		return false, fmt.Errorf("clear flushing: %w", err)
	}
	return n > 0, nil
}

// RedisDurableCache implements the tier-1 DurableCache over go-redis:
// per-character hash plus a companion dirty-marker key, scanned at
// tier-2 flush time.
type RedisDurableCache struct {
	rdb *redis.Client
}

func NewRedisDurableCache(rdb *redis.Client) *RedisDurableCache {
	return &RedisDurableCache{rdb: rdb}
}

func charHashKey(id int64) string   { return "char:" + strconv.FormatInt(id, 10) }
func dirtyMarkerKey(id int64) string { return "char:dirty:" + strconv.FormatInt(id, 10) }
const dirtyMarkerPrefix = "char:dirty:"

func (c *RedisDurableCache) WriteCharacterHash(ctx context.Context, characterID int64, fields map[string]any) error {
	if err := c.rdb.HSet(ctx, charHashKey(characterID), fields).Err(); err != nil {
		return fmt.Errorf("write character hash: %w", err)
	}
	return nil
}

func (c *RedisDurableCache) MarkDirty(ctx context.Context, characterID int64) error {
	if err := c.rdb.Set(ctx, dirtyMarkerKey(characterID), "1", 0).Err(); err != nil {
		return fmt.Errorf("mark dirty: %w", err)
	}
	return nil
}

func (c *RedisDurableCache) ScanDirty(ctx context.Context) ([]int64, error) {
	var ids []int64
	var cursor uint64
	for {
		keys, next, err := c.rdb.Scan(ctx, cursor, dirtyMarkerPrefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("scan dirty markers: %w", err)
		}
		for _, k := range keys {
			idStr := k[len(dirtyMarkerPrefix):]
			id, err := strconv.ParseInt(idStr, 10, 64)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

func (c *RedisDurableCache) ReadCharacterHash(ctx context.Context, characterID int64) (map[string]string, error) {
	m, err := c.rdb.HGetAll(ctx, charHashKey(characterID)).Result()
	if err != nil {
		return nil, fmt.Errorf("read character hash: %w", err)
	}
	return m, nil
}

func (c *RedisDurableCache) ClearDirty(ctx context.Context, characterID int64) error {
	if err := c.rdb.Del(ctx, dirtyMarkerKey(characterID)).Err(); err != nil {
		return fmt.Errorf("clear dirty marker: %w", err)
	}
	return nil
}
