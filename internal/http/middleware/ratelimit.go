package middleware

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"order_of_ash/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

var rateLimitRDB *redis.Client

// InitRedisRateLimiter настраивает redis-клиент для лимитера.
// Пустые аргументы означают значения из окружения
func InitRedisRateLimiter(addr, password string, db int) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr == "" {
		addr = "localhost:6379"
	}
	if password == "" {
		password = os.Getenv("REDIS_PASSWORD")
	}

	rateLimitRDB = redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

// InitRateLimiterWithClient подставляет готовый клиент (используется в main и тестах)
func InitRateLimiterWithClient(rdb *redis.Client) {
	rateLimitRDB = rdb
}

// RateLimit — фиксированное окно на ключ IP+путь через INCR+EXPIRE.
// Если redis недоступен, пропускаем запрос: лимитер не должен ронять API
func RateLimit(limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rateLimitRDB == nil {
			c.Next()
			return
		}

		key := fmt.Sprintf("ratelimit:%s:%s", c.ClientIP(), c.FullPath())
		ctx := c.Request.Context()

		count, err := rateLimitRDB.Incr(ctx, key).Result()
		if err != nil {
			logger.Get().Warn("rate limiter: redis недоступен", "error", err)
			c.Next()
			return
		}
		if count == 1 {
			rateLimitRDB.Expire(ctx, key, window)
		}

		if count > int64(limit) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "too many requests"})
			return
		}

		c.Next()
	}
}
