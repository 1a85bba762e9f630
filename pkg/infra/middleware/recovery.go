package middleware

import (
	"fmt"
	"os"
	"runtime/debug"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	mwopts "github.com/kart-io/sentinel-report/pkg/options/middleware"
	"github.com/kart-io/sentinel-report/pkg/utils/errors"
	"github.com/kart-io/sentinel-report/pkg/utils/response"
)

// Recovery returns a middleware that turns panics into a 500 error response.
// The panic value is never echoed to clients in production (APP_ENV=production).
func Recovery(opts mwopts.RecoveryOptions) gin.HandlerFunc {
	exposeDetail := !isProductionEnvironment()

	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}

			fields := []interface{}{
				"panic", r,
				"path", c.Request.URL.Path,
				"method", c.Request.Method,
				"request_id", c.GetString(response.RequestIDKey),
			}
			if opts.EnableStackTrace {
				fields = append(fields, "stack_trace", string(debug.Stack()))
			}
			logger.Errorw("panic recovered", fields...)

			err := errors.ErrPanic
			if exposeDetail {
				err = err.WithMessage(fmt.Sprintf("panic: %v", r))
			}
			response.Fail(c, err)
		}()
		c.Next()
	}
}

func isProductionEnvironment() bool {
	env := os.Getenv("APP_ENV")
	if env == "" {
		env = os.Getenv("GO_ENV")
	}
	switch strings.ToLower(env) {
	case "production", "prod":
		return true
	default:
		return false
	}
}
