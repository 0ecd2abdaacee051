// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package constants provides centralized, immutable values for the entire platform.

It defines default timeouts, rate limits, and cross-cutting keys that are shared
between different layers of the system.

Categories:

  - Server Timing: Read/Write/Idle timeouts for the HTTP server.
  - Rate Limiting: Burst capacities and IP tracking TTLs.
  - Security: JWT issuers, token lifetimes, and business-hours defaults.
  - Tenancy: schema naming and cache key taxonomy.

Using this package ensures Magic Strings and Magic Numbers are eliminated
from the business logic.
*/
package constants

import "time"

// # Metadata

const (
	AppName    = "tessera-api"
	AppVersion = "0.1.0-dev"
)

// # Server Timing

const (
	// DefaultReadTimeout is the maximum duration for reading the entire request.
	DefaultReadTimeout = 5 * time.Second

	// DefaultWriteTimeout is the maximum duration before timing out writes of the response.
	DefaultWriteTimeout = 10 * time.Second

	// DefaultIdleTimeout is the maximum amount of time to wait for the next request.
	DefaultIdleTimeout = 120 * time.Second

	// DefaultReadHeaderTimeout is the amount of time allowed to read request headers.
	DefaultReadHeaderTimeout = 2 * time.Second

	// GlobalRequestTimeout is the deadline for the entire request lifecycle.
	GlobalRequestTimeout = 30 * time.Second

	// ShutdownTimeout is how long we wait for in-flight requests to complete during shutdown.
	ShutdownTimeout = 30 * time.Second
)

// # Rate Limiting

const (
	// DefaultRateLimitRPS is the requests per second allowed per IP.
	DefaultRateLimitRPS = 100.0

	// DefaultRateLimitBurst is the maximum burst allowed for the rate limiter.
	DefaultRateLimitBurst = 150

	// AuthRateLimitRPS throttles credential-guessing on the login endpoints.
	AuthRateLimitRPS = 1.0

	// AuthRateLimitBurst is the burst allowance for the auth endpoints.
	AuthRateLimitBurst = 5

	// RateLimitCleanupInterval is how often old IP entries are removed from memory.
	RateLimitCleanupInterval = 1 * time.Minute

	// RateLimitClientTTL is how long a client must be idle before its entry is deleted.
	RateLimitClientTTL = 3 * time.Minute
)

// # Authentication

const (
	// AuthIssuer is the standard 'iss' claim in JWTs when not overridden by config.
	AuthIssuer = "tessera.app"

	// TokenTypeAccess discriminates short-lived bearer tokens.
	TokenTypeAccess = "access"

	// TokenTypeRefresh discriminates long-lived renewal tokens.
	TokenTypeRefresh = "refresh"

	// PrincipalKindUser marks tenant-scoped user principals.
	PrincipalKindUser = "user"

	// PrincipalKindAdmin marks global administrator principals.
	PrincipalKindAdmin = "admin"

	// TokenTypeBearer is the OAuth-style token_type reported to clients.
	TokenTypeBearer = "Bearer"
)

// # JWT Claim Names

const (
	ClaimSubject     = "sub"
	ClaimIssuer      = "iss"
	ClaimAudience    = "aud"
	ClaimExpiry      = "exp"
	ClaimIssuedAt    = "iat"
	ClaimNotBefore   = "nbf"
	ClaimTokenID     = "jti"
	ClaimEmail       = "email"
	ClaimTenantID    = "tenant_id"
	ClaimUserType    = "user_type"
	ClaimRoles       = "roles"
	ClaimPermissions = "permissions"
	ClaimScope       = "scope"
	ClaimTokenType   = "token_type"
	ClaimUserVersion = "user_version"
)

// # Conditional Access

const (
	// BusinessHourStart is the first wall-clock hour (inclusive) in which
	// time-gated actions are allowed.
	BusinessHourStart = 9

	// BusinessHourEnd is the last wall-clock hour (inclusive) in which
	// time-gated actions are allowed.
	BusinessHourEnd = 17
)

// # Tenancy & Caching

const (
	// SchemaShared is the name of the shared (non-tenant) partition holding
	// tenants, global admins, global roles, and licenses.
	SchemaShared = "shared"

	// TenantSchemaPrefix prefixes every physical tenant schema name.
	TenantSchemaPrefix = "tenant_"

	// DefaultTenantCacheSize bounds the tenant-schema lookup cache.
	DefaultTenantCacheSize = 1000

	// DefaultTenantCacheTTL is how long a subdomain->schema mapping is cached.
	DefaultTenantCacheTTL = 1 * time.Hour

	// DefaultUserCacheSize bounds the authenticated-principal cache.
	DefaultUserCacheSize = 500

	// DefaultUserCacheTTL keeps principal lookups short-lived so role and
	// status changes propagate quickly.
	DefaultUserCacheTTL = 5 * time.Minute
)

// # JSON Field Identifiers

const (
	FieldData    = "data"
	FieldMeta    = "meta"
	FieldError   = "error"
	FieldCode    = "code"
	FieldDetails = "details"
	FieldItems   = "items"
	FieldTotal   = "total"
	FieldMessage = "message"
	FieldStatus  = "status"
	FieldApp     = "app"
	FieldVersion = "version"
	FieldChecks  = "checks"
)

// # HTTP Headers

const (
	HeaderXRequestID    = "X-Request-ID"
	HeaderXRealIP       = "X-Real-IP"
	HeaderXForwardedFor = "X-Forwarded-For"
	HeaderOrigin        = "Origin"
	HeaderAuthorization = "Authorization"
	HeaderIfMatch       = "If-Match"
	HeaderETag          = "ETag"

	// HeaderXTenantSubdomain lets internal tooling override the subdomain
	// normally derived from the Host header.
	HeaderXTenantSubdomain = "X-Tenant-Subdomain"
)

// # Redis Prefixes (Cache Taxonomy)

const (
	// RedisPrefixWatermark stores the per-principal revocation watermark so
	// token validation avoids a database roundtrip on the hot path.
	RedisPrefixWatermark = "auth:tokens_valid_after:"
)
