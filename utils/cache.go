package utils

import (
	"context"
	"log"
	"time"

	"github.com/xiao99xiao/bookme-sub003/config"

	"github.com/go-redis/redis/v8"
)

var (
	// CacheClient is the generic cache client (booking detail cache).
	CacheClient *redis.Client
	// PubSubClient is the dedicated client for chat message fan-out.
	PubSubClient *redis.Client
)

// InitRedis initializes both Redis clients and verifies connectivity.
func InitRedis() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	PubSubClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisPubSubDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
	if _, err := PubSubClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (PubSub): %v", err)
	}
}

// GetCacheClient returns the generic cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitRedis()
	}
	return CacheClient
}

// GetPubSubClient returns the Redis client used for chat fan-out.
func GetPubSubClient() *redis.Client {
	if PubSubClient == nil {
		InitRedis()
	}
	return PubSubClient
}
