package response

import (
	"time"

	"github.com/gin-gonic/gin"
)

const (
	metaContextKey  = "response.meta"
	startContextKey = "response.start"
)

// WithMeta attaches a metadata map to the request context so that handlers
// can annotate the response envelope, and records the request start time for
// the processing_time_ms figure.
func WithMeta() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(startContextKey, time.Now())
		c.Set(metaContextKey, map[string]interface{}{})
		c.Next()
	}
}

// SetCacheHit flags whether the response payload was served from cache.
func SetCacheHit(c *gin.Context, hit bool) {
	metaMap(c)["cache_hit"] = hit
}

func metaMap(c *gin.Context) map[string]interface{} {
	if c == nil {
		return map[string]interface{}{}
	}
	if v, ok := c.Get(metaContextKey); ok {
		if m, ok := v.(map[string]interface{}); ok {
			return m
		}
	}
	m := map[string]interface{}{}
	c.Set(metaContextKey, m)
	return m
}

// contextMeta is consulted when the envelope is rendered. Elapsed time is
// computed here rather than in the middleware, which only regains control
// after the body has already been written.
func contextMeta(c *gin.Context) map[string]interface{} {
	if c == nil {
		return nil
	}
	v, ok := c.Get(metaContextKey)
	if !ok {
		return nil
	}
	m, _ := v.(map[string]interface{})
	if m == nil {
		return nil
	}
	if started, ok := c.Get(startContextKey); ok {
		if t, ok := started.(time.Time); ok {
			m["processing_time_ms"] = time.Since(t).Milliseconds()
		}
	}
	if len(m) == 0 {
		return nil
	}
	return m
}
