package middleware

import (
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/time/rate"

	"github.com/yesworId/BuyOrderBot/internal/market"
	"github.com/yesworId/BuyOrderBot/pkg/response"
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var (
	visitors = make(map[string]*visitor)
	mu       sync.Mutex

	// The marketplace serializes and throttles buy-order creation per
	// account; the mock enforces one create per second with a small burst.
	orderLimit = rate.Limit(1)
	orderBurst = 3
)

func init() {
	go cleanupVisitors()
}

func getLimiter(key string) *rate.Limiter {
	mu.Lock()
	defer mu.Unlock()

	v, exists := visitors[key]
	if !exists {
		v = &visitor{limiter: rate.NewLimiter(orderLimit, orderBurst)}
		visitors[key] = v
	}
	v.lastSeen = time.Now()
	return v.limiter
}

func cleanupVisitors() {
	for {
		time.Sleep(time.Minute)

		mu.Lock()
		for key, v := range visitors {
			if time.Since(v.lastSeen) > 3*time.Minute {
				delete(visitors, key)
			}
		}
		mu.Unlock()
	}
}

// RateLimit throttles order creation per authenticated account.
func RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("username")
		if key == "" {
			key = c.ClientIP()
		}

		if !getLimiter(key).Allow() {
			response.TooManyRequests(c, market.CodeRateLimited, "too many order requests")
			c.Abort()
			return
		}

		c.Next()
	}
}

// SessionAuth validates the bearer session token issued at login and puts
// the username into the request context.
func SessionAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearerToken := strings.Split(c.GetHeader("Authorization"), " ")
		if len(bearerToken) != 2 || !strings.EqualFold(bearerToken[0], "bearer") {
			response.Unauthorized(c, market.CodeInvalidCredentials, "invalid authorization header")
			c.Abort()
			return
		}

		token, err := jwt.Parse(bearerToken[1], func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		})
		if err != nil || !token.Valid {
			response.Unauthorized(c, market.CodeInvalidCredentials, "invalid session token")
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			response.Unauthorized(c, market.CodeInvalidCredentials, "invalid session claims")
			c.Abort()
			return
		}
		if username, ok := claims["username"].(string); ok {
			c.Set("username", username)
		}

		c.Next()
	}
}
