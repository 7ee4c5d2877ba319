package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Domenick1991/fitbooking/config"
	"github.com/Domenick1991/fitbooking/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	classesKey    = "cache:classes"
	generationKey = "cache:classes:gen"
)

var errStaleGeneration = errors.New("classes generation changed")

type RedisCache struct {
	client     redis.UniversalClient
	classesTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, classesTTL time.Duration) *RedisCache {
	return NewWithClient(redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}), classesTTL)
}

func NewWithClient(client redis.UniversalClient, classesTTL time.Duration) *RedisCache {
	return &RedisCache{client: client, classesTTL: classesTTL}
}

// GetClasses returns the cached listing and the current generation. The
// listing is nil on a cache miss; pass the generation back to SetClasses.
func (c *RedisCache) GetClasses(ctx context.Context) ([]domain.ClassAvailability, int64, error) {
	vals, err := c.client.MGet(ctx, classesKey, generationKey).Result()
	if err != nil {
		return nil, 0, err
	}
	gen, err := parseGeneration(vals[1])
	if err != nil {
		return nil, 0, err
	}
	if vals[0] == nil {
		return nil, gen, nil
	}
	data, ok := vals[0].(string)
	if !ok {
		return nil, 0, fmt.Errorf("unexpected classes payload %T", vals[0])
	}

	classes := make([]domain.ClassAvailability, 0)
	if err := json.Unmarshal([]byte(data), &classes); err != nil {
		return nil, 0, err
	}
	return classes, gen, nil
}

// SetClasses stores classes only while the generation still equals gen.
// A write that lost the race with InvalidateClasses is dropped.
func (c *RedisCache) SetClasses(ctx context.Context, classes []domain.ClassAvailability, gen int64) error {
	if c.classesTTL <= 0 {
		return nil
	}
	payload, err := json.Marshal(classes)
	if err != nil {
		return err
	}

	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, generationKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return errStaleGeneration
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, classesKey, payload, c.classesTTL)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, errStaleGeneration) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	return err
}

// InvalidateClasses drops the listing and bumps the generation.
func (c *RedisCache) InvalidateClasses(ctx context.Context) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, classesKey)
		return nil
	})
	return err
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func parseGeneration(v any) (int64, error) {
	if v == nil {
		return 0, nil
	}
	s, ok := v.(string)
	if !ok {
		return 0, fmt.Errorf("unexpected generation %T", v)
	}
	return strconv.ParseInt(s, 10, 64)
}
