// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package ctxutil provides helpers for interacting with values stored in [context.Context].
package ctxutil

import (
	"context"
	"log/slog"

	"github.com/taibuivan/tessera/internal/platform/ctxkey"
	"github.com/taibuivan/tessera/internal/platform/sec"
)

// # Request Tracing

// WithRequestID returns a new context with the provided request ID attached.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxkey.KeyRequestID, id)
}

// GetRequestID retrieves the request ID from the context.
// Returns an empty string if not found.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(ctxkey.KeyRequestID).(string)
	return id
}

// # Structured Logging

// WithLogger returns a new context with the provided logger attached.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, ctxkey.KeyLogger, logger)
}

// GetLogger retrieves the logger from the context.
// If no logger is found, it returns the global default logger.
func GetLogger(ctx context.Context) *slog.Logger {
	logger, ok := ctx.Value(ctxkey.KeyLogger).(*slog.Logger)
	if !ok {
		return slog.Default()
	}
	return logger
}

// # Identity & Access

// WithPrincipal returns a new context with the authenticated principal attached.
func WithPrincipal(ctx context.Context, principal *sec.AuthenticatedPrincipal) context.Context {
	return context.WithValue(ctx, ctxkey.KeyPrincipal, principal)
}

// GetPrincipal retrieves the [*sec.AuthenticatedPrincipal] from the [context.Context].
// Returns nil for anonymous requests.
func GetPrincipal(ctx context.Context) *sec.AuthenticatedPrincipal {
	principal, ok := ctx.Value(ctxkey.KeyPrincipal).(*sec.AuthenticatedPrincipal)
	if !ok {
		return nil
	}
	return principal
}

// # Tenant Execution Context

// TenantContext carries the resolved physical partition for the current
// request. It is threaded explicitly through data-access calls so the
// storage layer never infers the schema from ambient state.
type TenantContext struct {
	// TenantID is the tenant's stable identifier.
	TenantID string

	// Subdomain is the request-facing tenant identifier (from the Host header).
	Subdomain string

	// Schema is the physical PostgreSQL schema name for this tenant.
	Schema string
}

// WithTenant returns a new context with the tenant execution context attached.
func WithTenant(ctx context.Context, tenant *TenantContext) context.Context {
	return context.WithValue(ctx, ctxkey.KeyTenant, tenant)
}

// GetTenant retrieves the [*TenantContext] from the context.
// Returns nil when the request targets the shared (non-tenant) surface.
func GetTenant(ctx context.Context) *TenantContext {
	tenant, ok := ctx.Value(ctxkey.KeyTenant).(*TenantContext)
	if !ok {
		return nil
	}
	return tenant
}
