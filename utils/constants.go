package utils

import (
	"time"
)

// Token and session time constants
const (
	// AccessTokenTTL is the time-to-live for access tokens (24 hours)
	AccessTokenTTL = 24 * time.Hour

	// RefreshTokenTTL is the time-to-live for refresh tokens (7 days)
	RefreshTokenTTL = 7 * 24 * time.Hour

	// SessionTimeout is the default session timeout (24 hours)
	SessionTimeout = 24 * time.Hour
)

// CORS and security constants
const (
	// CORSMaxAge is the maximum age for CORS preflight requests (24 hours)
	CORSMaxAge = 86400
)

// Lead domain constants
const (
	// DefaultMaxActiveLeadsPerCounselor caps open assignments when a routing rule omits its own limit
	DefaultMaxActiveLeadsPerCounselor = 30

	// ReferenceDigitsMin and ReferenceDigitsMax bound the numeric suffix of a lead reference number
	ReferenceDigitsMin = 8
	ReferenceDigitsMax = 10

	// ReferenceGenerationRetries is how many times a colliding reference number is regenerated
	ReferenceGenerationRetries = 3

	// DefaultLeadStatus is assigned when a lead arrives without an explicit status
	DefaultLeadStatus = "New"
)

// ContextKey is the type for request-scoped context values
type ContextKey string

// Context keys propagated from HTTP handlers into business flows
const (
	RequestIDKey  ContextKey = "request_id"
	UserAgentKey  ContextKey = "user_agent"
	IPAddressKey  ContextKey = "ip_address"
	EndpointKey   ContextKey = "endpoint"
	TimeoutKey    ContextKey = "timeout"
	CancelFuncKey ContextKey = "cancel_func"
)
