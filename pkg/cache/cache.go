package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TTL 상수 정의
const (
	TTLAdminStats = 1 * time.Minute  // 관리자 통계 (처리 시 무효화)
	TTLAutomation = 15 * time.Second // 자동화 상태
	TTLDefault    = 5 * time.Minute
)

// 캐시 키
const (
	KeyAdminStats       = "admin:stats"
	KeyAutomationStatus = "automation:status"
)

// ErrMiss is returned by Get when the key is absent or Redis is unavailable
var ErrMiss = errors.New("cache miss")

// Service Redis 캐시 서비스 인터페이스
type Service interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// 대시보드 캐시
	GetAdminStats(ctx context.Context, dest interface{}) error
	SetAdminStats(ctx context.Context, value interface{}) error
	InvalidateDashboards(ctx context.Context) error

	IsAvailable() bool
	Ping(ctx context.Context) error
}

// redisCache Redis 기반 캐시 구현
type redisCache struct {
	client *redis.Client
}

// NewService 새로운 캐시 서비스 생성. nil client는 항상 miss인 캐시가 된다.
func NewService(client *redis.Client) Service {
	return &redisCache{client: client}
}

func (c *redisCache) IsAvailable() bool {
	return c.client != nil
}

func (c *redisCache) Ping(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("redis client is nil")
	}
	return c.client.Ping(ctx).Err()
}

// Get 캐시에서 값 조회
func (c *redisCache) Get(ctx context.Context, key string, dest interface{}) error {
	if c.client == nil {
		return ErrMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dest)
}

// Set 캐시에 값 저장
func (c *redisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if c.client == nil {
		return nil // Redis 없으면 무시
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

// Delete 캐시 삭제
func (c *redisCache) Delete(ctx context.Context, keys ...string) error {
	if c.client == nil || len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func (c *redisCache) GetAdminStats(ctx context.Context, dest interface{}) error {
	return c.Get(ctx, KeyAdminStats, dest)
}

func (c *redisCache) SetAdminStats(ctx context.Context, value interface{}) error {
	return c.Set(ctx, KeyAdminStats, value, TTLAdminStats)
}

// InvalidateDashboards drops every cached aggregate after a write
func (c *redisCache) InvalidateDashboards(ctx context.Context) error {
	return c.Delete(ctx, KeyAdminStats, KeyAutomationStatus)
}
