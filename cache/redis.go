package cache

import (
	"context"
	"encoding/json"
	"latency-collector/models"
	"time"

	"github.com/go-redis/redis/v8"
)

const summaryKey = "latency:summary"

type RedisClient struct {
	client *redis.Client
	ctx    context.Context
}

func NewRedisClient(addr string) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     "",
		DB:           0,
		PoolSize:     50,
		MinIdleConns: 10,
		MaxRetries:   3,
	})

	ctx := context.Background()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	return &RedisClient{
		client: rdb,
		ctx:    ctx,
	}, nil
}

func (rc *RedisClient) Close() error {
	return rc.client.Close()
}

// SaveSummary caches the latest computed window statistics so dashboards can
// read them without hitting the collector.
func (rc *RedisClient) SaveSummary(summary models.StatsSummary) error {
	data, err := json.Marshal(summary)
	if err != nil {
		return err
	}

	return rc.client.Set(rc.ctx, summaryKey, data, 5*time.Minute).Err()
}

func (rc *RedisClient) GetSummary() (*models.StatsSummary, error) {
	val, err := rc.client.Get(rc.ctx, summaryKey).Result()
	if err == redis.Nil {
		return nil, nil // нет сохранённой сводки
	}
	if err != nil {
		return nil, err
	}

	var summary models.StatsSummary
	if err := json.Unmarshal([]byte(val), &summary); err != nil {
		return nil, err
	}

	return &summary, nil
}
