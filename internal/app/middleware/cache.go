package middleware

import (
	"bytes"
	"crypto/md5"
	"encoding/hex"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type cacheEntry struct {
	Content     []byte
	ContentType string
	Expiration  time.Time
}

// ResponseCache keeps GET responses in memory. Keys are prefixed by a group
// so writes can purge the group they change.
type ResponseCache struct {
	mu    sync.RWMutex
	items map[string]cacheEntry
}

// NewResponseCache returns an empty cache
func NewResponseCache() *ResponseCache {
	return &ResponseCache{items: make(map[string]cacheEntry)}
}

// requestKey builds group:md5(path?sorted query)
func requestKey(group string, c *gin.Context) string {
	queryParams := c.Request.URL.Query()
	queryKeys := make([]string, 0, len(queryParams))
	for key := range queryParams {
		queryKeys = append(queryKeys, key)
	}
	sort.Strings(queryKeys)

	var b strings.Builder
	b.WriteString(c.Request.URL.Path)
	b.WriteByte('?')
	for _, key := range queryKeys {
		values := queryParams[key]
		sort.Strings(values)
		for _, value := range values {
			b.WriteString(key + "=" + value + "&")
		}
	}

	sum := md5.Sum([]byte(b.String()))
	return group + ":" + hex.EncodeToString(sum[:])
}

// Cache serves GET requests of group from the cache for expiration
func (rc *ResponseCache) Cache(group string, expiration time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method != http.MethodGet {
			c.Next()
			return
		}

		key := requestKey(group, c)

		rc.mu.RLock()
		entry, found := rc.items[key]
		rc.mu.RUnlock()

		if found && entry.Expiration.After(time.Now()) {
			c.Header("X-Cache", "HIT")
			c.Data(http.StatusOK, entry.ContentType, entry.Content)
			c.Abort()
			return
		}

		writer := &responseWriter{
			ResponseWriter: c.Writer,
			body:           &bytes.Buffer{},
		}
		c.Writer = writer
		c.Header("X-Cache", "MISS")

		c.Next()

		if c.Writer.Status() == http.StatusOK {
			rc.mu.Lock()
			rc.items[key] = cacheEntry{
				Content:     writer.body.Bytes(),
				ContentType: c.Writer.Header().Get("Content-Type"),
				Expiration:  time.Now().Add(expiration),
			}
			rc.mu.Unlock()
		}
	}
}

// PurgeOnWrite drops group after every successful non-GET request
func (rc *ResponseCache) PurgeOnWrite(group string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Request.Method != http.MethodGet && c.Writer.Status() < http.StatusBadRequest {
			rc.Purge(group)
		}
	}
}

// Purge drops every entry of group
func (rc *ResponseCache) Purge(group string) {
	rc.mu.Lock()
	defer rc.mu.Unlock()

	prefix := group + ":"
	now := time.Now()
	for key, entry := range rc.items {
		if strings.HasPrefix(key, prefix) || entry.Expiration.Before(now) {
			delete(rc.items, key)
		}
	}
}

// Len returns the number of cached responses
func (rc *ResponseCache) Len() int {
	rc.mu.RLock()
	defer rc.mu.RUnlock()
	return len(rc.items)
}

// responseWriter copies the body into a buffer while writing it
type responseWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

func (w *responseWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
