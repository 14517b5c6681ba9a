// Package net carries request scoped ids between transports and handlers
package net

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
)

type ctxKey string

const keyTenantID ctxKey = "tenant_id"

// WithRequest stores the request id where chi looks for it plus the tenant id
func WithRequest(ctx context.Context, reqID, tenantID string) context.Context {
	if reqID != "" {
		ctx = context.WithValue(ctx, chimw.RequestIDKey, reqID)
	}
	if tenantID != "" {
		ctx = context.WithValue(ctx, keyTenantID, tenantID)
	}
	return ctx
}

// RequestID returns the chi request id, "" when absent
func RequestID(ctx context.Context) string { return chimw.GetReqID(ctx) }

// TenantID returns the authenticated tenant, "" when absent
func TenantID(ctx context.Context) string {
	v, _ := ctx.Value(keyTenantID).(string)
	return v
}
