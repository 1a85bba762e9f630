// Package middleware provides the gin middleware chain of the HTTP server.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"

	mwopts "github.com/kart-io/sentinel-report/pkg/options/middleware"
	"github.com/kart-io/sentinel-report/pkg/utils/response"
)

type requestIDKey struct{}

// GetRequestID returns the request ID stored in ctx, or "".
func GetRequestID(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// RequestID returns a middleware that reuses the incoming request ID header or
// generates one. The ID is echoed in the response header and stored in both the
// gin context and the request context.
func RequestID(opts mwopts.RequestIDOptions) gin.HandlerFunc {
	header := opts.Header
	if header == "" {
		header = "X-Request-ID"
	}
	generate := generatorFor(opts.GeneratorType)

	return func(c *gin.Context) {
		id := c.GetHeader(header)
		if id == "" {
			id = generate()
		}

		c.Header(header, id)
		c.Set(response.RequestIDKey, id)
		c.Request = c.Request.WithContext(WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func generatorFor(kind string) func() string {
	if kind == mwopts.GeneratorRandom {
		return randomID
	}
	return func() string { return ulid.Make().String() }
}

var fallbackCounter uint64

// randomID returns 32 hex characters, falling back to time+counter when the
// system random source fails.
func randomID() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("%x-%x", time.Now().Unix(), atomic.AddUint64(&fallbackCounter, 1))
	}
	return hex.EncodeToString(b)
}
