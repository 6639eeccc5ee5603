package match

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/park285/Cheese-Checkers/internal/checkers"
)

// ErrStaleSnapshot means a newer snapshot of the game is already stored.
var ErrStaleSnapshot = errors.New("stored snapshot is newer")

const defaultTTL = 24 * time.Hour

// Store keeps crash-recovery snapshots of live games in Redis, plus a
// per-user index of game ids.
type Store struct {
	rdb *redis.Client
	ttl time.Duration
}

type record struct {
	Version  int64             `json:"version"`
	Snapshot checkers.Snapshot `json:"snapshot"`
}

func NewStore(redisURL string, ttl time.Duration) (*Store, error) {
	if strings.TrimSpace(redisURL) == "" {
		return nil, fmt.Errorf("REDIS_URL required for snapshot store")
	}
	opts, err := parseRedisURL(redisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewStoreWithClient(rdb, ttl), nil
}

func NewStoreWithClient(rdb *redis.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Store{rdb: rdb, ttl: ttl}
}

func (s *Store) Close() error {
	if s == nil || s.rdb == nil {
		return nil
	}
	return s.rdb.Close()
}

// Save writes snap under version. Writes older than the stored version are
// refused with ErrStaleSnapshot.
func (s *Store) Save(ctx context.Context, version int64, snap checkers.Snapshot) error {
	key := gameKey(snap.ID)
	payload, err := json.Marshal(record{Version: version, Snapshot: snap})
	if err != nil {
		return err
	}
	return s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		raw, err := tx.Get(ctx, key).Bytes()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			var cur record
			if jerr := json.Unmarshal(raw, &cur); jerr == nil && cur.Version >= version {
				return ErrStaleSnapshot
			}
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, key, payload, s.ttl)
			return nil
		})
		return err
	}, key)
}

// Load returns the stored snapshot, or nil when there is none.
func (s *Store) Load(ctx context.Context, id string) (*checkers.Snapshot, int64, error) {
	raw, err := s.rdb.Get(ctx, gameKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, err
	}
	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, 0, fmt.Errorf("decode snapshot %s: %w", id, err)
	}
	return &rec.Snapshot, rec.Version, nil
}

// Index records id as a game of every given user.
func (s *Store) Index(ctx context.Context, id string, userIDs ...string) error {
	for _, u := range userIDs {
		if strings.TrimSpace(u) == "" {
			continue
		}
		key := idxUserKey(u)
		if err := s.rdb.SAdd(ctx, key, id).Err(); err != nil {
			return err
		}
		_ = s.rdb.Expire(ctx, key, s.ttl).Err()
	}
	return nil
}

func (s *Store) GamesByUser(ctx context.Context, userID string) ([]string, error) {
	return s.rdb.SMembers(ctx, idxUserKey(userID)).Result()
}

// Delete drops the snapshot and its index entries.
func (s *Store) Delete(ctx context.Context, id string, userIDs ...string) error {
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, gameKey(id))
	for _, u := range userIDs {
		if strings.TrimSpace(u) != "" {
			pipe.SRem(ctx, idxUserKey(u), id)
		}
	}
	_, err := pipe.Exec(ctx)
	return err
}

func gameKey(id string) string        { return "checkers:game:" + strings.TrimSpace(id) }
func idxUserKey(userID string) string { return "checkers:index:user:" + strings.TrimSpace(userID) }

func parseRedisURL(raw string) (*redis.Options, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	if u.Scheme != "redis" && u.Scheme != "rediss" {
		return nil, fmt.Errorf("unsupported scheme: %s", u.Scheme)
	}
	db := 0
	if p := strings.TrimPrefix(u.Path, "/"); p != "" {
		if n, err := strconv.Atoi(p); err == nil {
			db = n
		}
	}
	pass, _ := u.User.Password()
	return &redis.Options{Addr: u.Host, Password: pass, DB: db}, nil
}
