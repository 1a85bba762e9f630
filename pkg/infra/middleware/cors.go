package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	mwopts "github.com/kart-io/sentinel-report/pkg/options/middleware"
)

// CORS returns a CORS middleware built on gin-contrib/cors.
func CORS(opts mwopts.CORSOptions) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:     opts.AllowMethods,
		AllowHeaders:     opts.AllowHeaders,
		ExposeHeaders:    opts.ExposeHeaders,
		AllowCredentials: opts.AllowCredentials,
		MaxAge:           opts.MaxAgeDuration(),
	}

	for _, origin := range opts.AllowOrigins {
		if origin == "*" {
			cfg.AllowAllOrigins = true
			break
		}
	}
	if !cfg.AllowAllOrigins {
		cfg.AllowOrigins = opts.AllowOrigins
	}

	return cors.New(cfg)
}
