package tenantctx

import (
	"context"
	"strings"
)

// Caller identifies the authenticated principal for one request. Identity
// tokens are parsed upstream; by the time a request reaches the domain
// services only the opaque tenant and user identifiers remain.
type Caller struct {
	TenantID string
	UserID   string
}

type callerKey struct{}

// WithCaller stores the caller identity in the context.
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext returns the caller identity, if set.
func CallerFromContext(ctx context.Context) (Caller, bool) {
	if ctx == nil {
		return Caller{}, false
	}
	caller, ok := ctx.Value(callerKey{}).(Caller)
	if !ok {
		return Caller{}, false
	}
	if strings.TrimSpace(caller.TenantID) == "" {
		return Caller{}, false
	}
	return caller, true
}

// TenantID returns the caller's tenant id, or "" when no caller is set.
func TenantID(ctx context.Context) string {
	caller, ok := CallerFromContext(ctx)
	if !ok {
		return ""
	}
	return caller.TenantID
}
