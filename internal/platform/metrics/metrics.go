// Copyright (c) 2026 Tessera. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package metrics exposes Prometheus collectors for the auth/tenancy core.
//
// # Architecture
//
// A single [Registry] value is constructed at startup and injected into the
// services that record signals. No default/global registry is used, so tests
// can construct isolated instances.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry bundles the process-wide collectors.
type Registry struct {
	registry *prometheus.Registry

	// CacheLookups counts cache gets partitioned by cache name and outcome
	// ("hit" | "miss").
	CacheLookups *prometheus.CounterVec

	// AuthDecisions counts authentication outcomes partitioned by operation
	// ("login" | "refresh" | "validate") and result ("ok" | "failed").
	AuthDecisions *prometheus.CounterVec

	// AuthzDecisions counts permission checks by result ("allow" | "deny").
	AuthzDecisions *prometheus.CounterVec

	// TokensIssued counts issued token pairs by principal kind.
	TokensIssued *prometheus.CounterVec

	// RevocationsTotal counts watermark bumps by reason.
	RevocationsTotal *prometheus.CounterVec
}

// New constructs a registry with all core collectors registered.
func New() *Registry {
	registry := prometheus.NewRegistry()

	metrics := &Registry{
		registry: registry,
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tessera",
			Name:      "cache_lookups_total",
			Help:      "Cache lookups by cache name and outcome.",
		}, []string{"cache", "outcome"}),
		AuthDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tessera",
			Name:      "auth_decisions_total",
			Help:      "Authentication operations by outcome.",
		}, []string{"operation", "result"}),
		AuthzDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tessera",
			Name:      "authz_decisions_total",
			Help:      "Permission checks by result.",
		}, []string{"result"}),
		TokensIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tessera",
			Name:      "tokens_issued_total",
			Help:      "Token pairs issued by principal kind.",
		}, []string{"kind"}),
		RevocationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tessera",
			Name:      "revocations_total",
			Help:      "Revocation watermark updates by reason.",
		}, []string{"reason"}),
	}

	registry.MustRegister(
		metrics.CacheLookups,
		metrics.AuthDecisions,
		metrics.AuthzDecisions,
		metrics.TokensIssued,
		metrics.RevocationsTotal,
	)

	return metrics
}

// Handler returns the HTTP handler serving the /metrics scrape endpoint.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveCacheLookup records one cache get outcome.
func (m *Registry) ObserveCacheLookup(cacheName string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookups.WithLabelValues(cacheName, outcome).Inc()
}
