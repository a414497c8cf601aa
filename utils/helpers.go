// Package utils holds the small shared constructors for timerd's storage
// and cache connections.
package utils

import (
	"github.com/go-redis/redis/v7"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// Database opens (and lazily creates) the sqlite database at path.
func Database(path string) (*gorm.DB, error) {
	return gorm.Open(sqlite.Open(path), &gorm.Config{})
}

// GetRedis returns a *redis.Client instance
func GetRedis(addr string) *redis.Client {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
	return client
}

// SaveRedisList pushes value onto key, trimming the list to the newest
// limit entries when limit is positive.
func SaveRedisList(r *redis.Client, key string, value interface{}, limit int64) error {
	if _, err := r.LPush(key, value).Result(); err != nil {
		return err
	}
	if limit > 0 {
		return r.LTrim(key, 0, limit-1).Err()
	}
	return nil
}

// GetOrDefault reads key out of keys, falling back to def.
func GetOrDefault(keys map[string]interface{}, key, def string) (string, bool) {
	value, ok := keys[key]
	if !ok {
		return def, ok
	}
	return value.(string), ok
}
