// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package middleware

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	"github.com/taibuivan/tessera/internal/platform/respond"
	"github.com/taibuivan/tessera/internal/platform/sec"
	"github.com/taibuivan/tessera/internal/tenancy/tenant"
)

// # Tenant Resolution

// ResolveTenant derives the tenant subdomain from the request and attaches the
// resolved [ctxutil.TenantContext] to the context.
//
// # Subdomain Sources
//
//  1. The X-Tenant-Subdomain header, for internal tooling and tests.
//  2. The Host header, when it is a subdomain of the configured base domain.
//
// Requests without a subdomain proceed without tenant context; they target the
// shared (admin) surface. Requests naming an unknown subdomain are rejected
// with 404 so probing cannot distinguish "no such tenant" from "no such route".
func ResolveTenant(resolver *tenant.Resolver, baseDomain string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {

			// ── 1. Subdomain Extraction ───────────────────────────────────────

			subdomain := request.Header.Get(constants.HeaderXTenantSubdomain)
			if subdomain == "" {
				subdomain = subdomainFromHost(request.Host, baseDomain)
			}
			if subdomain == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Schema Resolution ──────────────────────────────────────────

			record, err := resolver.ResolveTenant(request.Context(), subdomain)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 3. Context Injection ──────────────────────────────────────────

			ctx := ctxutil.WithTenant(request.Context(), &ctxutil.TenantContext{
				TenantID:  record.ID,
				Subdomain: record.Subdomain,
				Schema:    record.SchemaName,
			})
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// subdomainFromHost extracts the leftmost label when host is a strict
// subdomain of baseDomain. "acme.tessera.app" with base "tessera.app"
// yields "acme"; the bare base domain yields "".
func subdomainFromHost(host, baseDomain string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	prefix, found := strings.CutSuffix(strings.ToLower(host), "."+baseDomain)
	if !found || prefix == "" || strings.Contains(prefix, ".") {
		return ""
	}
	return prefix
}

// # Authentication

// AccessTokenValidator verifies an access token against the request's tenant.
//
// Defining the interface here decouples the middleware from the auth service
// implementation, allowing mocks during unit testing.
type AccessTokenValidator interface {
	ValidateAccessToken(ctx context.Context, tokenString, requestSubdomain string) (*sec.AuthenticatedPrincipal, error)
}

// Authenticate extracts and verifies the JWT from the Authorization header.
//
// # Flow
//
//  1. Check for 'Authorization: Bearer <token>' header.
//  2. If absent, the request proceeds as anonymous.
//  3. If present, validate the token against the request's tenant (set by
//     [ResolveTenant], which must run earlier in the chain).
//  4. Inject the [*sec.AuthenticatedPrincipal] into the request context.
//
// A present-but-invalid token is always an error; silently downgrading it to
// anonymous would let expired sessions read public-looking endpoints forever.
func Authenticate(validator AccessTokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			header := request.Header.Get(constants.HeaderAuthorization)

			// ── 1. Anonymous Access ───────────────────────────────────────────

			if header == "" {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 2. Format Validation ──────────────────────────────────────────

			tokenString := bearerToken(header)
			if tokenString == "" {
				respond.Error(writer, request, apperr.TokenInvalid("Invalid authorization format"))
				return
			}

			// ── 3. Token Verification ─────────────────────────────────────────

			subdomain := ""
			if tenantContext := ctxutil.GetTenant(request.Context()); tenantContext != nil {
				subdomain = tenantContext.Subdomain
			}

			principal, err := validator.ValidateAccessToken(request.Context(), tokenString, subdomain)
			if err != nil {
				respond.Error(writer, request, err)
				return
			}

			// ── 4. Context Injection ──────────────────────────────────────────

			ctx := ctxutil.WithPrincipal(request.Context(), principal)
			next.ServeHTTP(writer, request.WithContext(ctx))
		})
	}
}

// bearerToken returns the credentials portion of a Bearer authorization
// header value, or "" when the scheme is not Bearer.
func bearerToken(header string) string {
	scheme, credentials, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, constants.TokenTypeBearer) {
		return ""
	}
	return strings.TrimSpace(credentials)
}

// # Access Guards

// RequireAuth blocks requests that are not authenticated.
//
// Must be registered in the router AFTER [Authenticate].
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if ctxutil.GetPrincipal(request.Context()) == nil {
			respond.Error(writer, request, apperr.TokenMissing())
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// RequireAdmin blocks requests whose principal is not a global administrator.
// It implies [RequireAuth].
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		principal := ctxutil.GetPrincipal(request.Context())
		if principal == nil {
			respond.Error(writer, request, apperr.TokenMissing())
			return
		}
		if !principal.IsAdmin() {
			respond.Error(writer, request, apperr.AuthorizationFailed("Administrator access required"))
			return
		}
		next.ServeHTTP(writer, request)
	})
}

// PermissionChecker decides whether a principal may perform an action.
type PermissionChecker interface {
	RequirePermission(ctx context.Context, schema, principalID, resource, action string) error
}

// PermissionGuard adapts [RequirePermission] for handlers that guard their
// routes per resource.action pair.
func PermissionGuard(checker PermissionChecker) func(resource, action string) func(http.Handler) http.Handler {
	return func(resource, action string) func(http.Handler) http.Handler {
		return RequirePermission(checker, resource, action)
	}
}

// RequirePermission blocks requests whose principal lacks the given
// resource.action permission in the request's tenant. It implies
// [RequireAuth].
//
// Global administrators pass without a policy lookup; their "*" grant would
// satisfy any check.
func RequirePermission(checker PermissionChecker, resource, action string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			principal := ctxutil.GetPrincipal(request.Context())

			// ── 1. Authentication Check ───────────────────────────────────────

			if principal == nil {
				respond.Error(writer, request, apperr.TokenMissing())
				return
			}

			// ── 2. Admin Fast Path ────────────────────────────────────────────

			if principal.IsAdmin() {
				next.ServeHTTP(writer, request)
				return
			}

			// ── 3. Policy Evaluation ──────────────────────────────────────────

			schema := ""
			if tenantContext := ctxutil.GetTenant(request.Context()); tenantContext != nil {
				schema = tenantContext.Schema
			}

			if err := checker.RequirePermission(request.Context(), schema, principal.ID, resource, action); err != nil {
				respond.Error(writer, request, err)
				return
			}

			next.ServeHTTP(writer, request)
		})
	}
}
