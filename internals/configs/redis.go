package configs

import (
	"context"
	"strings"
	"time"

	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"
)

var (
	rdb    *redis.Client
	locker *redislock.Client
)

// ConnectRedis is optional: without REDIS_ADDRESS the OTP store and submission
// lock fall back to in-process implementations.
func ConnectRedis() {
	addr := strings.TrimSpace(GetEnv("REDIS_ADDRESS"))
	if addr == "" {
		GetLogger().Info("REDIS_ADDRESS not set, redis disabled")
		return
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: GetEnv("REDIS_PASSWORD"),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		LogError(GetLogger(), "configs", "ConnectRedis", "ping", addr, err)
		_ = client.Close()
		return
	}

	rdb = client
	locker = redislock.New(rdb)
	GetLogger().WithField("addr", addr).Info("✅ redis connected")
}

func GetRedisDB() *redis.Client {
	return rdb
}

func GetRedisLock() *redislock.Client {
	return locker
}

func CloseRedis() {
	if rdb != nil {
		_ = rdb.Close()
	}
}
