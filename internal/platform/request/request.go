// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away the underlying router's parameter extraction and common
body decoding patterns, ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	"github.com/taibuivan/tessera/internal/platform/sec"
	"github.com/taibuivan/tessera/internal/platform/validate"
)

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - request: *http.Request
  - target: interface{} (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(request *http.Request, target interface{}) error {
	if err := json.NewDecoder(request.Body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
ID retrieves a named URL parameter (UUID/Slug) from the request.
*/
func ID(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Param retrieves a named URL parameter from the request.
*/
func Param(request *http.Request, name string) string {
	return chi.URLParam(request, name)
}

/*
Principal extracts the authenticated principal from the request context.

Returns nil if the request is not authenticated.
*/
func Principal(request *http.Request) *sec.AuthenticatedPrincipal {
	return ctxutil.GetPrincipal(request.Context())
}

/*
RequiredPrincipal ensures the request is authenticated and returns the principal.

Returns:
  - *sec.AuthenticatedPrincipal: The authenticated principal
  - error: apperr.TokenMissing if the request is not authenticated
*/
func RequiredPrincipal(request *http.Request) (*sec.AuthenticatedPrincipal, error) {

	// Get the principal from context
	principal := ctxutil.GetPrincipal(request.Context())

	// If the request is not authenticated, return an error
	if principal == nil {
		return nil, apperr.TokenMissing()
	}

	return principal, nil
}

/*
RequiredPrincipalID returns the ID of the currently authenticated principal.

Returns:
  - string: Principal UUID
  - error: apperr.TokenMissing if not authenticated
*/
func RequiredPrincipalID(request *http.Request) (string, error) {

	// Get the principal from context
	principal, err := RequiredPrincipal(request)

	// If the request is not authenticated, return an error
	if err != nil {
		return "", err
	}

	return principal.ID, nil
}

/*
Tenant extracts the resolved tenant execution context from the request.

Returns nil when the request targets the shared (non-tenant) surface.
*/
func Tenant(request *http.Request) *ctxutil.TenantContext {
	return ctxutil.GetTenant(request.Context())
}
