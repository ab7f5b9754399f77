package utils

import (
	"time"
)

// Token time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// AccessTokenTTLSeconds is the time-to-live for access tokens in seconds
	AccessTokenTTLSeconds = 86400

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Campaign dispatch constants
const (
	// DefaultSendBatchSize is the provider-imposed maximum recipients per batch call
	DefaultSendBatchSize = 500

	// DefaultMaxConcurrentBatches caps how many batch calls may be in flight at once
	DefaultMaxConcurrentBatches = 5

	// PreviewSampleSize is how many donors the recipient preview returns
	PreviewSampleSize = 5

	// SendTaskStatusTTL is how long a finished dispatch task status stays readable
	SendTaskStatusTTL = 24 * time.Hour

	// SendLockTTL bounds how long the per-campaign send guard may be held
	SendLockTTL = 10 * time.Minute
)

// Redis key suffixes
const (
	SendLockKeyPrefix       = "campaign:send:lock:"
	SendTaskStatusKeyPrefix = "campaign:send:task:"
)

// Default currency for donations
const (
	DefaultCurrency = "USD"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Request-scoped context keys for observability
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
