package server

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/fieldforge/fieldforge/pkg/tenantctx"
)

const (
	HeaderTenant = "X-Tenant-ID"
	HeaderCaller = "X-Caller-ID"
)

// CallerContext reads the caller identity headers and stores them on the
// request context. Identity arrives fresh on every request; nothing about
// the caller is cached between requests.
func CallerContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := tenantctx.Caller{
			TenantID: strings.TrimSpace(c.GetHeader(HeaderTenant)),
			UserID:   strings.TrimSpace(c.GetHeader(HeaderCaller)),
		}
		if caller.TenantID != "" || caller.UserID != "" {
			ctx := tenantctx.WithCaller(c.Request.Context(), caller)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}

// RequireCaller rejects requests that carry no identity headers at all.
func RequireCaller() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := tenantctx.CallerFromContext(c.Request.Context())
		if !ok || caller.TenantID == "" || caller.UserID == "" {
			AbortWithError(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}
