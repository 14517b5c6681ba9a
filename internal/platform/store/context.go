package store

import (
	"context"

	"payeerules/internal/platform/logger"
)

type tenantKey struct{}

// WithTenant scopes ctx to a tenant, the id also lands on ctx-derived loggers
func WithTenant(ctx context.Context, tenantID string) context.Context {
	ctx = logger.WithRequest(ctx, "", tenantID)
	return context.WithValue(ctx, tenantKey{}, tenantID)
}

// TenantID returns the tenant ctx is scoped to
func TenantID(ctx context.Context) (string, bool) {
	s, _ := ctx.Value(tenantKey{}).(string)
	return s, s != ""
}
