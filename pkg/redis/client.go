package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// DeterrentChannel carries deterrent commands to field controllers
const DeterrentChannel = "deterrent:commands"

// NewClient Redis 클라이언트 생성
func NewClient(host string, port int, password string, db int, poolSize int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", host, port),
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})

	// 연결 테스트
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return client, nil
}

// Publisher publishes JSON messages on a Pub/Sub channel
type Publisher struct {
	client  *redis.Client
	channel string
}

// NewPublisher creates a publisher; a nil client makes Publish a no-op
func NewPublisher(client *redis.Client, channel string) *Publisher {
	return &Publisher{client: client, channel: channel}
}

// Publish encodes msg as JSON and returns the number of receiving subscribers
func (p *Publisher) Publish(ctx context.Context, msg interface{}) (int64, error) {
	if p == nil || p.client == nil {
		return 0, nil
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return 0, fmt.Errorf("encode %s message: %w", p.channel, err)
	}
	return p.client.Publish(ctx, p.channel, data).Result()
}
