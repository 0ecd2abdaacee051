// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package license

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	requestutil "github.com/taibuivan/tessera/internal/platform/request"
	"github.com/taibuivan/tessera/internal/platform/respond"
)

// Handler exposes the license administration surface.
type Handler struct {
	service  *Service
	licenses Repository
}

// NewHandler creates a license HTTP handler.
func NewHandler(service *Service, licenses Repository) *Handler {
	return &Handler{service: service, licenses: licenses}
}

// RegisterRoutes mounts the license endpoints. Everything except the seat
// usage endpoint is platform-admin territory; the server applies the guards.
func (handler *Handler) RegisterRoutes(admin chi.Router, tenantFacing chi.Router) {
	admin.Post("/", handler.createLicense)
	admin.Get("/tenant/{tenantID}", handler.listTenantLicenses)
	admin.Post("/{id}/activate", handler.activateLicense)
	admin.Post("/{id}/suspend", handler.suspendLicense)

	tenantFacing.Get("/usage", handler.seatUsage)
}

func (handler *Handler) createLicense(writer http.ResponseWriter, request *http.Request) {
	var input CreateInput
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.service.Create(request.Context(), input)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

func (handler *Handler) listTenantLicenses(writer http.ResponseWriter, request *http.Request) {
	licenses, err := handler.licenses.ListByTenant(request.Context(), requestutil.Param(request, "tenantID"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, licenses)
}

func (handler *Handler) activateLicense(writer http.ResponseWriter, request *http.Request) {
	activated, err := handler.service.Activate(request.Context(), requestutil.Param(request, "id"))
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, activated)
}

func (handler *Handler) suspendLicense(writer http.ResponseWriter, request *http.Request) {
	if err := handler.service.Suspend(request.Context(), requestutil.Param(request, "id")); err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.NoContent(writer)
}

func (handler *Handler) seatUsage(writer http.ResponseWriter, request *http.Request) {
	tenantContext := requestutil.Tenant(request)
	if tenantContext == nil {
		respond.Error(writer, request, apperr.ValidationError("A tenant context is required"))
		return
	}

	usage, err := handler.service.SeatUsage(request.Context(), tenantContext.TenantID, tenantContext.Schema)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, usage)
}
