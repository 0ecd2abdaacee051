// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package tenant

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/taibuivan/tessera/internal/platform/apperr"
	requestutil "github.com/taibuivan/tessera/internal/platform/request"
	"github.com/taibuivan/tessera/internal/platform/respond"
	"github.com/taibuivan/tessera/internal/platform/validate"
)

// Handler exposes the administrative tenant surface.
type Handler struct {
	provisioner *Provisioner
	repository  Repository
	resolver    *Resolver
}

// NewHandler creates a tenant HTTP handler.
func NewHandler(provisioner *Provisioner, repository Repository, resolver *Resolver) *Handler {
	return &Handler{provisioner: provisioner, repository: repository, resolver: resolver}
}

// RegisterRoutes mounts the tenant admin endpoints.
// The caller wraps the router with authentication and a permission guard.
func (handler *Handler) RegisterRoutes(router chi.Router) {
	router.Post("/", handler.createTenant)
	router.Get("/{subdomain}", handler.getTenant)
	router.Post("/{subdomain}/activate", handler.activateTenant)
	router.Post("/{subdomain}/suspend", handler.suspendTenant)
	router.Get("/cache/stats", handler.cacheStats)
	router.Delete("/cache/{subdomain}", handler.invalidateCache)
}

type createTenantRequest struct {
	Name              string `json:"name"`
	Subdomain         string `json:"subdomain"`
	BusinessHourStart *int   `json:"business_hour_start"`
	BusinessHourEnd   *int   `json:"business_hour_end"`
}

func (handler *Handler) createTenant(writer http.ResponseWriter, request *http.Request) {
	var input createTenantRequest
	if err := requestutil.DecodeJSON(request, &input); err != nil {
		respond.Error(writer, request, err)
		return
	}

	validator := &validate.Validator{}
	validator.
		Required("name", input.Name).
		Required("subdomain", input.Subdomain).
		Slug("subdomain", input.Subdomain).
		MaxLen("subdomain", input.Subdomain, 63).
		Custom("business_hour_start",
			(input.BusinessHourStart == nil) != (input.BusinessHourEnd == nil),
			"must be set together with business_hour_end")
	if input.BusinessHourStart != nil {
		validator.Range("business_hour_start", *input.BusinessHourStart, 0, 23)
	}
	if input.BusinessHourEnd != nil {
		validator.Range("business_hour_end", *input.BusinessHourEnd, 0, 23)
	}
	if err := validator.Err(); err != nil {
		respond.Error(writer, request, err)
		return
	}

	created, err := handler.provisioner.Provision(request.Context(), ProvisionInput{
		Name:              input.Name,
		Subdomain:         input.Subdomain,
		BusinessHourStart: input.BusinessHourStart,
		BusinessHourEnd:   input.BusinessHourEnd,
	})
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.Created(writer, created)
}

func (handler *Handler) activateTenant(writer http.ResponseWriter, request *http.Request) {
	handler.setStatus(writer, request, StatusActive)
}

func (handler *Handler) suspendTenant(writer http.ResponseWriter, request *http.Request) {
	handler.setStatus(writer, request, StatusSuspended)
}

// setStatus transitions a tenant's lifecycle state and drops its cached
// schema routing so the change applies immediately.
func (handler *Handler) setStatus(writer http.ResponseWriter, request *http.Request, status Status) {
	subdomain := requestutil.Param(request, "subdomain")

	found, err := handler.repository.FindBySubdomain(request.Context(), subdomain)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	if err := handler.repository.UpdateStatus(request.Context(), found.ID, status); err != nil {
		respond.Error(writer, request, err)
		return
	}

	handler.resolver.Invalidate(subdomain)
	respond.NoContent(writer)
}

func (handler *Handler) getTenant(writer http.ResponseWriter, request *http.Request) {
	subdomain := requestutil.Param(request, "subdomain")
	if subdomain == "" {
		respond.Error(writer, request, apperr.ValidationError("subdomain is required"))
		return
	}

	found, err := handler.repository.FindBySubdomain(request.Context(), subdomain)
	if err != nil {
		respond.Error(writer, request, err)
		return
	}

	respond.OK(writer, found)
}

func (handler *Handler) cacheStats(writer http.ResponseWriter, request *http.Request) {
	respond.OK(writer, handler.resolver.CacheStats())
}

func (handler *Handler) invalidateCache(writer http.ResponseWriter, request *http.Request) {
	subdomain := requestutil.Param(request, "subdomain")
	handler.resolver.Invalidate(subdomain)
	respond.NoContent(writer)
}
