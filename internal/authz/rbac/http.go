// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package rbac

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	"github.com/taibuivan/tessera/internal/platform/constants"
	requestutil "github.com/taibuivan/tessera/internal/platform/request"
	"github.com/taibuivan/tessera/internal/platform/respond"
)

// Handler exposes the tenant role administration surface.
type Handler struct {
	manager *Manager
}

// NewHandler creates a role HTTP handler.
func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

// Guard builds a route middleware enforcing one resource.action permission.
type Guard func(resource, action string) func(http.Handler) http.Handler

// RegisterRoutes mounts the role endpoints. The server wraps this router with
// authentication and tenant resolution; each route carries its own role.*
// permission guard. Assignment changes count as role updates.
func (handler *Handler) RegisterRoutes(router chi.Router, guard Guard) {
	router.With(guard("role", "read")).Get("/", handler.listRoles)
	router.With(guard("role", "create")).Post("/", handler.createRole)
	router.With(guard("role", "read")).Get("/{id}", handler.getRole)
	router.With(guard("role", "update")).Put("/{id}", handler.updateRole)
	router.With(guard("role", "delete")).Delete("/{id}", handler.deleteRole)
	router.With(guard("role", "update")).Post("/{id}/assignments", handler.assignRole)
	router.With(guard("role", "update")).Delete("/{id}/assignments/{principalID}", handler.unassignRole)
}

// tenantSchema pulls the resolved tenant schema from the request context.
func tenantSchema(request *http.Request) (string, error) {
	tenantContext := requestutil.Tenant(request)
	if tenantContext == nil {
		return "", apperr.ValidationError("A tenant context is required for role management")
	}
	return tenantContext.Schema, nil
}

func (handler *Handler) listRoles(writer http.ResponseWriter, request *http.Request) {
	schema, err := tenantSchema(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	roles, err := handler.manager.ListRoles(request.Context(), schema)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, roles)
}

func (handler *Handler) getRole(writer http.ResponseWriter, request *http.Request) {
	schema, err := tenantSchema(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.manager.GetRole(request.Context(), schema, requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set(constants.HeaderETag, role.ETag)
	respond.OK(writer, role)
}

func (handler *Handler) createRole(writer http.ResponseWriter, request *http.Request) {
	schema, err := tenantSchema(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input RoleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.manager.CreateCustomRole(request.Context(), schema, input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set(constants.HeaderETag, role.ETag)
	respond.Created(writer, role)
}

func (handler *Handler) updateRole(writer http.ResponseWriter, request *http.Request) {
	schema, err := tenantSchema(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input RoleInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	role, err := handler.manager.UpdateRole(
		request.Context(),
		schema,
		requestutil.Param(request, "id"),
		request.Header.Get(constants.HeaderIfMatch),
		input,
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	writer.Header().Set(constants.HeaderETag, role.ETag)
	respond.OK(writer, role)
}

func (handler *Handler) deleteRole(writer http.ResponseWriter, request *http.Request) {
	schema, err := tenantSchema(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.manager.DeleteRole(
		request.Context(),
		schema,
		requestutil.Param(request, "id"),
		request.Header.Get(constants.HeaderIfMatch),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

type assignRequest struct {
	PrincipalID string `json:"principal_id"`
}

func (handler *Handler) assignRole(writer http.ResponseWriter, request *http.Request) {
	schema, err := tenantSchema(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	var input assignRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	assignment, err := handler.manager.AssignRole(
		request.Context(), schema, input.PrincipalID, requestutil.Param(request, "id"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, assignment)
}

func (handler *Handler) unassignRole(writer http.ResponseWriter, request *http.Request) {
	schema, err := tenantSchema(request)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	err = handler.manager.UnassignRole(
		request.Context(),
		schema,
		requestutil.Param(request, "principalID"),
		requestutil.Param(request, "id"),
	)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}
