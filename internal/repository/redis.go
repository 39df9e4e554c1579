package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sethvargo/go-retry"

	"shortly/internal/entities"
)

const (
	DefaultRedisKey = "urlMappings"

	redisMaxRetries   = 10
	redisRetryBackoff = 10 * time.Millisecond
)

// getter is satisfied by both *redis.Client and *redis.Tx
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

// RedisRepository stores the table as one JSON string under a single key.
// Update uses WATCH/MULTI so a concurrent writer aborts the transaction,
// which is then retried on a fresh copy of the table.
type RedisRepository struct {
	client *redis.Client
	key    string
}

// NewRedisRepository connects to Redis and verifies the connection
func NewRedisRepository(redisURL, key string) (*RedisRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		// If URL parsing fails, try as simple host:port
		opt = &redis.Options{
			Addr: redisURL,
			DB:   0,
		}
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisRepositoryFromClient(client, key), nil
}

// NewRedisRepositoryFromClient wraps an existing client
func NewRedisRepositoryFromClient(client *redis.Client, key string) *RedisRepository {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisRepository{client: client, key: key}
}

// Load reads the table. A missing key is an empty table.
func (r *RedisRepository) Load(ctx context.Context) (entities.Table, error) {
	return r.get(ctx, r.client)
}

// Save overwrites the table.
func (r *RedisRepository) Save(ctx context.Context, table entities.Table) error {
	data, err := encodeTable(table)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save url mappings: %w", err)
	}
	return nil
}

// Update runs an optimistic transaction on the table key, retrying with
// exponential backoff when another writer touched the key in between.
func (r *RedisRepository) Update(ctx context.Context, fn func(entities.Table) error) error {
	backoff := retry.WithMaxRetries(redisMaxRetries, retry.NewExponential(redisRetryBackoff))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.client.Watch(ctx, func(tx *redis.Tx) error {
			table, err := r.get(ctx, tx)
			if err != nil {
				return err
			}

			if err := fn(table); err != nil {
				return err
			}

			data, err := encodeTable(table)
			if err != nil {
				return err
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, r.key, data, 0)
				return nil
			})
			return err
		}, r.key)

		if errors.Is(err, redis.TxFailedErr) {
			return retry.RetryableError(err)
		}
		return err
	})
}

// Close closes the client.
func (r *RedisRepository) Close() error {
	return r.client.Close()
}

func (r *RedisRepository) get(ctx context.Context, c getter) (entities.Table, error) {
	data, err := c.Get(ctx, r.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return make(entities.Table), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load url mappings: %w", err)
	}
	return decodeTable(data)
}
