// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tessera/internal/platform/constants"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/tessera/internal/platform/request"
	"github.com/taibuivan/tessera/internal/platform/respond"
	"github.com/taibuivan/tessera/internal/platform/validate"
)

// Handler exposes the authentication HTTP surface.
type Handler struct {
	service *Service
}

// NewHandler creates an authentication HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the authentication endpoints. The login and refresh
// routes are left open; logout, logout-all, and me sit behind the
// authentication middleware applied by the server.
func (handler *Handler) RegisterRoutes(public chi.Router, protected chi.Router) {
	public.Post("/login", handler.login)
	public.Post("/admin/login", handler.adminLogin)
	public.Post("/refresh", handler.refresh)

	protected.Post("/logout", handler.logout)
	protected.Post("/logout-all", handler.logoutAllDevices)
	protected.Get("/me", handler.me)
}

type loginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Subdomain string `json:"subdomain,omitempty"`
}

func (handler *Handler) login(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	// Prefer the subdomain the request actually arrived on; the body field
	// only serves tooling that calls the API directly.
	subdomain := input.Subdomain
	if tenantContext := ctxutil.GetTenant(request.Context()); tenantContext != nil {
		subdomain = tenantContext.Subdomain
	}

	validator := &validate.Validator{}
	if err := validator.
		Required("email", input.Email).
		Email("email", input.Email).
		Required("password", input.Password).
		Required("subdomain", subdomain).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.service.LoginTenantUser(request.Context(), subdomain, input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair.Response())
}

func (handler *Handler) adminLogin(writer http.ResponseWriter, request *http.Request) {
	var input loginRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.
		Required("email", input.Email).
		Email("email", input.Email).
		Required("password", input.Password).
		Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.service.LoginAdmin(request.Context(), input.Email, input.Password)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair.Response())
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

func (handler *Handler) refresh(writer http.ResponseWriter, request *http.Request) {
	var input refreshRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	if err := validator.Required("refresh_token", input.RefreshToken).Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	pair, err := handler.service.Refresh(request.Context(), input.RefreshToken)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, pair.Response())
}

func (handler *Handler) logout(writer http.ResponseWriter, request *http.Request) {
	// Logout always answers 204, even when the token is garbage. The client
	// is discarding its tokens regardless of what the server manages to do.
	handler.service.Logout(request.Context(), BearerToken(request))
	respond.NoContent(writer)
}

func (handler *Handler) logoutAllDevices(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.LogoutAllDevices(request.Context(), principal); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) me(writer http.ResponseWriter, request *http.Request) {
	principal, err := requestutil.RequiredPrincipal(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, map[string]any{
		"id":          principal.ID,
		"email":       principal.Email,
		"user_type":   principal.Kind,
		"tenant_id":   principal.TenantID,
		"roles":       principal.Roles,
		"permissions": principal.Permissions,
	})
}

// BearerToken extracts the compact JWT from the Authorization header, or ""
// when the header is absent or not a Bearer credential.
func BearerToken(request *http.Request) string {
	header := request.Header.Get(constants.HeaderAuthorization)
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
