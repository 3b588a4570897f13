// Package metrics defines all custom Prometheus metrics of the learning
// portal. It is the single source of truth for metric names, labels, and
// help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation through promauto.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "portal"

// ── Auth metrics ──────────────────────────────────────────────────────────────

// AuthAttemptsTotal counts coordinator operations by outcome.
// Labels:
//   - method: "password", "signup", "federated", "redirect", "signout"
//   - result: "ok", "error", "redirect", "cancelled"
var AuthAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_attempts_total",
		Help:      "Total number of authentication operations, by method and result.",
	},
	[]string{"method", "result"},
)

// AuthRateLimitedTotal counts auth requests rejected by the per-IP limiter.
var AuthRateLimitedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "auth_rate_limited_total",
		Help:      "Total number of auth requests rejected by the rate limiter.",
	},
)

// ActiveSessions tracks the number of coordinators held in memory.
var ActiveSessions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_sessions",
		Help:      "Current number of browser sessions with a live coordinator.",
	},
)

// ── Gate metrics ──────────────────────────────────────────────────────────────

// GateDecisionsTotal counts route gate outcomes.
// Labels:
//   - section: "student", "instructor", "public", "fallback"
//   - decision: "render", "redirect", "loading", "dashboard"
var GateDecisionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "gate_decisions_total",
		Help:      "Total number of route gate decisions, by section and decision.",
	},
	[]string{"section", "decision"},
)

// ── Dashboard metrics ─────────────────────────────────────────────────────────

// DashboardLoadDuration measures how long a dashboard takes to load.
// Labels:
//   - role: "student" or "instructor"
//   - status: "ready" or "error"
var DashboardLoadDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "dashboard_load_duration_seconds",
		Help:      "Duration of dashboard data loads.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"role", "status"},
)

// ── Audit metrics ─────────────────────────────────────────────────────────────

// AuditQueueDepth tracks the number of audit events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var AuditQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "audit_queue_depth",
		Help:      "Current number of audit events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// AuditEventsTotal counts audit events by outcome.
// Label:
//   - result: "stored", "failed", "dropped"
var AuditEventsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "audit_events_total",
		Help:      "Total number of audit events, by outcome.",
	},
	[]string{"result"},
)
