package common

const (
	RequestIDHeader = "X-Request-Id"
	TenantHeader    = "X-Tenant-Id"
)
