package middleware

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	appcontext "github.com/stroytech/docvault/internal/app_context"
	ratelimiter "github.com/stroytech/docvault/internal/rate_limiter"
	"github.com/stroytech/docvault/internal/util"
)

type Middleware struct {
	rateLimiter *ratelimiter.FixedWindowRateLimiter
	app         *appcontext.Application
}

func NewMiddleware(app *appcontext.Application,
	rateLimiter *ratelimiter.FixedWindowRateLimiter,
) *Middleware {
	return &Middleware{app: app, rateLimiter: rateLimiter}
}

func (m *Middleware) RateLimiterMiddleware(ctx *gin.Context) {
	allowed, retryAfter := m.rateLimiter.Allow(ctx.ClientIP())
	if !allowed {
		ctx.Header("Retry-After", fmt.Sprintf("%.0f", retryAfter.Seconds()))
		util.ResponseFailed(ctx, http.StatusTooManyRequests, "Rate limit exceeded", nil, nil)
		return
	}
	ctx.Next()
}
