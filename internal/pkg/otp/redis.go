package otp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "otp:"
	redisTxRetries     = 10
	redisScanCount     = 100
)

// ErrTxConflict is returned when an optimistic transaction keeps losing to
// concurrent writers on the same key.
var ErrTxConflict = errors.New("otp: redis transaction conflict")

// RedisConfig configures RedisStore.
type RedisConfig struct {
	// Prefix is prepended to every key. Defaults to "otp:".
	Prefix string
	// Retention is how long a record stays in Redis past its validity window,
	// so an expired code is still reported as expired rather than missing.
	// Defaults to DefaultSweepInterval.
	Retention time.Duration
}

// RedisStore keeps records in Redis so several instances can share them.
// Each record is a JSON value under "<prefix><purpose>:<identity>".
type RedisStore struct {
	client    redis.UniversalClient
	prefix    string
	retention time.Duration
}

// NewRedisStore returns a RedisStore backed by client.
func NewRedisStore(client redis.UniversalClient, cfg RedisConfig) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisPrefix
	}
	if cfg.Retention <= 0 {
		cfg.Retention = DefaultSweepInterval
	}

	return &RedisStore{
		client:    client,
		prefix:    cfg.Prefix,
		retention: cfg.Retention,
	}
}

func (*RedisStore) selfExpiring() {}

func (s *RedisStore) key(k Key) string {
	return s.prefix + k.String()
}

// Save creates or replaces the record. The Redis TTL covers the record's
// validity window plus the configured retention.
func (s *RedisStore) Save(ctx context.Context, rec Record) error {
	body, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	ttl := rec.ExpiresAt.Sub(rec.IssuedAt) + s.retention
	if ttl < time.Second {
		ttl = time.Second
	}

	return s.client.Set(ctx, s.key(rec.Key()), body, ttl).Err()
}

// Get returns the record for key.
func (s *RedisStore) Get(ctx context.Context, key Key) (Record, bool, error) {
	raw, err := s.client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}

	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Record{}, false, fmt.Errorf("otp: decode record %q: %w", key.String(), err)
	}

	return rec, true, nil
}

// Delete removes the record for key.
func (s *RedisStore) Delete(ctx context.Context, key Key) error {
	return s.client.Del(ctx, s.key(key)).Err()
}

// Update runs fn inside a WATCH/MULTI transaction on the record key and
// retries when another client modified the key in between.
func (s *RedisStore) Update(ctx context.Context, key Key, fn func(rec *Record) Action) (bool, error) {
	rk := s.key(key)
	var found bool

	txf := func(tx *redis.Tx) error {
		found = false

		raw, err := tx.Get(ctx, rk).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var rec Record
		if err := json.Unmarshal(raw, &rec); err != nil {
			return fmt.Errorf("otp: decode record %q: %w", key.String(), err)
		}
		found = true

		switch fn(&rec) {
		case ActionSave:
			body, err := json.Marshal(rec)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, rk, body, redis.KeepTTL)
				return nil
			})
			return err
		case ActionDelete:
			_, err := tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Del(ctx, rk)
				return nil
			})
			return err
		default:
			return nil
		}
	}

	for range redisTxRetries {
		err := s.client.Watch(ctx, txf, rk)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return false, err
		}
		return found, nil
	}

	return false, ErrTxConflict
}

// List scans every record under the prefix.
func (s *RedisStore) List(ctx context.Context) ([]Record, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, nil
	}

	values, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, err
	}

	out := make([]Record, 0, len(values))
	for i, v := range values {
		str, ok := v.(string)
		if !ok {
			// deleted between SCAN and MGET
			continue
		}
		var rec Record
		if err := json.Unmarshal([]byte(str), &rec); err != nil {
			return nil, fmt.Errorf("otp: decode record %q: %w", keys[i], err)
		}
		out = append(out, rec)
	}

	return out, nil
}

// DeleteExpired removes records expired at now. Each candidate is re-checked
// inside a transaction so a code reissued meanwhile is left alone.
func (s *RedisStore) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	recs, err := s.List(ctx)
	if err != nil {
		return 0, err
	}

	n := 0
	for _, rec := range recs {
		if !rec.Expired(now) {
			continue
		}

		deleted := false
		if _, err := s.Update(ctx, rec.Key(), func(cur *Record) Action {
			deleted = cur.Expired(now)
			if deleted {
				return ActionDelete
			}
			return ActionKeep
		}); err != nil {
			return n, err
		}
		if deleted {
			n++
		}
	}

	return n, nil
}
