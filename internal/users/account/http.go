// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package account

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/ctxutil"
	requestutil "github.com/taibuivan/tessera/internal/platform/request"
	"github.com/taibuivan/tessera/internal/platform/respond"
	"github.com/taibuivan/tessera/pkg/pagination"
)

// Handler exposes the tenant user administration surface.
type Handler struct {
	service *Service
}

// NewHandler creates a user administration HTTP handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Guard builds a route middleware enforcing one resource.action permission.
type Guard func(resource, action string) func(http.Handler) http.Handler

// RegisterRoutes mounts the user endpoints. The server wraps this router with
// authentication and tenant resolution; each route carries its own user.*
// permission guard.
func (handler *Handler) RegisterRoutes(router chi.Router, guard Guard) {
	router.With(guard("user", "read")).Get("/", handler.listUsers)
	router.With(guard("user", "create")).Post("/", handler.provisionUser)
	router.With(guard("user", "read")).Get("/{id}", handler.getUser)
	router.With(guard("user", "update")).Post("/{id}/deactivate", handler.deactivateUser)
	router.With(guard("user", "update")).Post("/{id}/reactivate", handler.reactivateUser)
}

// requireTenant pulls the resolved tenant from the request context.
func requireTenant(request *http.Request) (*ctxutil.TenantContext, error) {
	tenantContext := requestutil.Tenant(request)
	if tenantContext == nil {
		return nil, apperr.ValidationError("A tenant context is required for user management")
	}
	return tenantContext, nil
}

func (handler *Handler) listUsers(writer http.ResponseWriter, request *http.Request) {
	tenantContext, err := requireTenant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	params := pagination.FromRequest(request)
	users, total, err := handler.service.ListUsers(request.Context(), tenantContext.Schema, params.Limit, params.Offset())
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Paginated(writer, users, pagination.NewMeta(params.Page, params.Limit, total))
}

func (handler *Handler) provisionUser(writer http.ResponseWriter, request *http.Request) {
	tenantContext, err := requireTenant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input ProvisionInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.ProvisionUser(request.Context(), tenantContext, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, user)
}

func (handler *Handler) getUser(writer http.ResponseWriter, request *http.Request) {
	tenantContext, err := requireTenant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	user, err := handler.service.GetUser(request.Context(), tenantContext.Schema, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, user)
}

func (handler *Handler) deactivateUser(writer http.ResponseWriter, request *http.Request) {
	tenantContext, err := requireTenant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.DeactivateUser(request.Context(), tenantContext.Schema, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) reactivateUser(writer http.ResponseWriter, request *http.Request) {
	tenantContext, err := requireTenant(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.service.ReactivateUser(request.Context(), tenantContext, requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
