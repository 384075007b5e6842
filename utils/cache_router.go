package utils

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	CacheNoStore time.Duration = 0
	CacheCustom  time.Duration = -1 // the handler sets cache-control itself
)

type cacheRule struct {
	prefix string
	maxAge time.Duration
}

// CacheRouter sets cache-control by path prefix. The longest matching prefix wins,
// other paths get Default.
type CacheRouter struct {
	Default time.Duration
	rules   []cacheRule
}

func (cr *CacheRouter) Cache(prefix string, maxAge time.Duration) *CacheRouter {
	cr.rules = append(cr.rules, cacheRule{prefix: prefix, maxAge: maxAge})
	return cr
}

func (cr *CacheRouter) maxAge(path string) time.Duration {
	maxAge, matched := cr.Default, -1
	for _, r := range cr.rules {
		if len(r.prefix) > matched && strings.HasPrefix(path, r.prefix) {
			maxAge, matched = r.maxAge, len(r.prefix)
		}
	}
	return maxAge
}

func (cr *CacheRouter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		switch maxAge := cr.maxAge(c.Request.URL.Path); {
		case maxAge == CacheNoStore:
			c.Header("cache-control", "no-store")
		case maxAge > 0:
			c.Header("cache-control", "private, max-age="+strconv.Itoa(int(maxAge/time.Second)))
		}
		c.Next()
	}
}
