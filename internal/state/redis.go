package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix   = "storefront:"
	commitMaxRetries = 5
)

// Redis is a Repository shared by every storefront replica.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedis(rdb *redis.Client, ttl time.Duration) *Redis {
	return &Redis{rdb: rdb, ttl: ttl}
}

// DialRedis parses url, connects and pings.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

func seqKey(viewerID string, res Resource) string {
	return redisKeyPrefix + "seq:" + key(viewerID, res)
}

func entryKey(viewerID string, res Resource) string {
	return redisKeyPrefix + "state:" + key(viewerID, res)
}

func (r *Redis) Next(ctx context.Context, viewerID string, res Resource) (int64, error) {
	if viewerID == "" {
		return 0, fmt.Errorf("viewer id is required")
	}
	k := seqKey(viewerID, res)
	var incr *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		incr = p.Incr(ctx, k)
		r.touch(ctx, p, viewerID, res)
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return incr.Val(), nil
}

func (r *Redis) Commit(ctx context.Context, viewerID string, res Resource, e Entry, mode CommitMode) (bool, error) {
	if viewerID == "" {
		return false, fmt.Errorf("viewer id is required")
	}
	if e.SavedAt.IsZero() {
		e.SavedAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		return false, fmt.Errorf("marshal entry: %w", err)
	}

	k := entryKey(viewerID, res)
	if mode == Overwrite {
		_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, payload, 0)
			r.touch(ctx, p, viewerID, res)
			return nil
		})
		if err != nil {
			return false, fmt.Errorf("store entry: %w", err)
		}
		return true, nil
	}

	stored := false
	txf := func(tx *redis.Tx) error {
		current, err := loadEntry(ctx, tx, k)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}
		var prev *Entry
		if err == nil {
			prev = &current
		}
		if !accepts(mode, prev, e) {
			stored = false
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(p redis.Pipeliner) error {
			p.Set(ctx, k, payload, 0)
			r.touch(ctx, p, viewerID, res)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}

	for i := 0; i < commitMaxRetries; i++ {
		err := r.rdb.Watch(ctx, txf, k)
		if err == nil {
			return stored, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return false, fmt.Errorf("commit entry: %w", err)
	}
	return false, fmt.Errorf("commit entry: too much contention on %s", k)
}

// touch gives the sequence and the entry of one resource the same expiry so
// neither outlives the other. Event counters never expire.
func (r *Redis) touch(ctx context.Context, p redis.Pipeliner, viewerID string, res Resource) {
	if r.ttl <= 0 || res.durable() {
		return
	}
	p.Expire(ctx, seqKey(viewerID, res), r.ttl)
	p.Expire(ctx, entryKey(viewerID, res), r.ttl)
}

func (r *Redis) Reset(ctx context.Context, viewerID string, res ...Resource) error {
	if len(res) == 0 {
		return nil
	}
	keys := make([]string, 0, len(res))
	for _, rs := range res {
		keys = append(keys, entryKey(viewerID, rs))
	}
	if err := r.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("reset entries: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, viewerID string, res Resource) (Entry, error) {
	return loadEntry(ctx, r.rdb, entryKey(viewerID, res))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func loadEntry(ctx context.Context, c getter, k string) (Entry, error) {
	raw, err := c.Get(ctx, k).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, fmt.Errorf("load entry: %w", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("decode entry: %w", err)
	}
	return e, nil
}
