package common

import (
	"context"

	"github.com/google/uuid"
)

type contextKey string

const (
	RequestIDContextKey contextKey = "request_id"
	TenantContextKey    contextKey = "tenant_id"
)

// WithRequestID stores id on ctx for log correlation.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDContextKey, id)
}

// RequestID returns the request ID on ctx, or a new random one.
func RequestID(ctx context.Context) string {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok && id != "" {
		return id
	}
	return uuid.NewString()
}

// EnsureRequestID returns ctx carrying a request ID, generating one if
// needed, along with that ID.
func EnsureRequestID(ctx context.Context) (context.Context, string) {
	if id, ok := ctx.Value(RequestIDContextKey).(string); ok && id != "" {
		return ctx, id
	}
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}

func WithTenant(ctx context.Context, tenant string) context.Context {
	return context.WithValue(ctx, TenantContextKey, tenant)
}

func Tenant(ctx context.Context) string {
	tenant, _ := ctx.Value(TenantContextKey).(string)
	return tenant
}
