// Package gateway implements the auth and instrumentation logic shared
// across timerd services
package gateway

import (
	"crypto/rand"
	"fmt"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v7"
	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
)

// AuthMiddleware is a JWT authorization middleware. It pulls the token off
// the Authorization header and exposes the username and user id to the
// handlers downstream.
func (a *JWTAuth) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// just handle the simplest case, authorization is not provided.
		h := c.GetHeader("Authorization")
		if h == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "empty header was sent",
				"code": "unauthorized"})
			return
		}

		claims, err := a.VerifyJWT(h)
		if e, ok := err.(*jwt.ValidationError); ok {
			if e.Errors&jwt.ValidationErrorExpired != 0 {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Token has expired", "code": "jwt_expired"})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Malformed token", "code": "jwt_malformed"})
			return
		} else if err == nil {
			c.Set("username", claims.Username)
			c.Set("user_id", claims.UserID)
			c.Next()
		} else {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid token", "code": "unauthorized"})
		}
	}
}

// GenerateSecretKey generates secret key for jwt signing
func GenerateSecretKey(n int) ([]byte, error) {
	key := make([]byte, n)
	if _, err := rand.Read(key); err != nil {
		return nil, err
	}
	return key, nil
}

// KeyFromEnv either retrieves the jwt signing key from the environment or
// redis, or generates and saves a new one.
func KeyFromEnv(redisClient *redis.Client) []byte {
	if key := os.Getenv("timerd_jwt"); key != "" {
		return []byte(key)
	}

	if redisClient != nil {
		if key, err := redisClient.Get("jwt").Result(); err == nil && key != "" {
			return []byte(key)
		}
	}
	key, _ := GenerateSecretKey(50)
	if redisClient != nil {
		if err := redisClient.Set("jwt", key, 0).Err(); err != nil {
			log.Printf("unable to persist jwt key to redis: %v", err)
		}
	}
	return key
}

// OptionsMiddleware for cors headers
func OptionsMiddleware(c *gin.Context) {
	if c.Request.Method != "OPTIONS" {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Next()
	} else {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Header("Access-Control-Allow-Headers", "authorization, origin, content-type, accept, X-CSRF-TOKEN")
		c.Header("Allow", "HEAD,GET,POST,PUT,PATCH,DELETE,OPTIONS")
		c.Header("Content-Type", "application/json")
		c.AbortWithStatus(http.StatusOK)
	}
}

// GenerateAPIKey mints a random api key for clients of the service.
func GenerateAPIKey() (string, error) {
	apiKey := make([]byte, 16)
	_, err := rand.Read(apiKey)
	a := fmt.Sprintf("%x", apiKey)
	return a, err
}

// APIKeyMiddleware authenticates clients using the X-API-Key header against
// the keys stored through the generate_api_key endpoint.
func APIKeyMiddleware(r *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("X-API-Key")
		if key == "" || r == nil || !isMember("apikeys", key, r) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "invalid api key", "code": "unauthorized"})
			return
		}
		c.Next()
	}
}

func isMember(key, val string, r *redis.Client) bool {
	b, _ := r.SIsMember(key, val).Result()
	return b
}
