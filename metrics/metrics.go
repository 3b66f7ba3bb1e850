// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "servicoja"

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	httpInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		},
	)

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method", "route"},
	)

	registrations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "registrations_total",
			Help:      "Accounts created, by role.",
		},
		[]string{"role"},
	)

	logins = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "auth",
			Name:      "logins_total",
			Help:      "Login attempts, by outcome.",
		},
		[]string{"outcome"},
	)

	messagesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "chat",
			Name:      "messages_sent_total",
			Help:      "Chat messages stored.",
		},
	)

	reviewsCreated = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reviews",
			Name:      "created_total",
			Help:      "Reviews created, by rating.",
		},
		[]string{"rating"},
	)

	orderTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "orders",
			Name:      "transitions_total",
			Help:      "Orders entering a status, including creation as pending.",
		},
		[]string{"status"},
	)

	rateLimited = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		},
	)
)

func init() {
	Registry.MustRegister(
		httpInFlight,
		httpRequests,
		httpDuration,
		registrations,
		logins,
		messagesSent,
		reviewsCreated,
		orderTransitions,
		rateLimited,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// Instrument wraps the provided handler with HTTP metrics collection.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/metrics" {
			next.ServeHTTP(w, r)
			return
		}

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		httpInFlight.Inc()
		defer httpInFlight.Dec()

		next.ServeHTTP(rec, r)

		route := CanonicalRoute(r.URL.Path)
		method := CanonicalMethod(r.Method)

		httpRequests.WithLabelValues(method, route, strconv.Itoa(rec.status)).Inc()
		httpDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	})
}

func RecordRegistration(role string) {
	registrations.WithLabelValues(role).Inc()
}

// RecordLogin counts a login attempt. outcome is "success" or "failure".
func RecordLogin(success bool) {
	outcome := "failure"
	if success {
		outcome = "success"
	}
	logins.WithLabelValues(outcome).Inc()
}

func RecordMessage() {
	messagesSent.Inc()
}

func RecordReview(rating int) {
	reviewsCreated.WithLabelValues(strconv.Itoa(rating)).Inc()
}

func RecordOrderStatus(status string) {
	orderTransitions.WithLabelValues(status).Inc()
}

// RecordRateLimited matches the RateLimiter.OnLimited hook.
func RecordRateLimited(string) {
	rateLimited.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Path segments that are part of a route rather than an identifier.
var staticSegments = map[string]bool{
	"auth": true, "register": true, "login": true, "me": true,
	"forgot-password": true, "reset-password": true,
	"users": true, "categories": true, "providers": true, "verify": true,
	"services": true, "reviews": true, "conversations": true, "messages": true,
	"read": true, "favorites": true, "check": true, "orders": true, "status": true,
}

// API route shapes served by the router. Anything else is labeled /other.
var knownRoutes = map[string]bool{
	"/api/auth/register":                   true,
	"/api/auth/login":                      true,
	"/api/auth/me":                         true,
	"/api/auth/forgot-password":            true,
	"/api/auth/reset-password":             true,
	"/api/users/:id":                       true,
	"/api/categories":                      true,
	"/api/providers":                       true,
	"/api/providers/:id":                   true,
	"/api/providers/:id/verify":            true,
	"/api/providers/:id/categories":        true,
	"/api/providers/:id/categories/:id":    true,
	"/api/providers/:id/services":          true,
	"/api/providers/:id/reviews":           true,
	"/api/services":                        true,
	"/api/services/:id":                    true,
	"/api/reviews":                         true,
	"/api/conversations":                   true,
	"/api/conversations/:id/messages":      true,
	"/api/conversations/:id/read":          true,
	"/api/messages":                        true,
	"/api/favorites":                       true,
	"/api/favorites/check":                 true,
	"/api/orders":                          true,
	"/api/orders/:id":                      true,
	"/api/orders/:id/status":               true,
}

var knownMethods = map[string]bool{
	http.MethodGet: true, http.MethodHead: true, http.MethodPost: true,
	http.MethodPut: true, http.MethodPatch: true, http.MethodDelete: true,
	http.MethodOptions: true,
}

// CanonicalMethod returns the method label. Unknown methods share "OTHER".
func CanonicalMethod(method string) string {
	method = strings.ToUpper(method)
	if knownMethods[method] {
		return method
	}
	return "OTHER"
}

// CanonicalRoute collapses identifiers in an API path so label cardinality
// stays bounded: /api/providers/7f3c.../services becomes
// /api/providers/:id/services. Paths that match no route become /other.
func CanonicalRoute(path string) string {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return "/"
	}
	parts := strings.Split(trimmed, "/")
	if parts[0] != "api" {
		if len(parts) == 1 && (parts[0] == "health" || parts[0] == "ready") {
			return "/" + parts[0]
		}
		return "/other"
	}
	for i := 1; i < len(parts); i++ {
		if !staticSegments[parts[i]] {
			parts[i] = ":id"
		}
	}
	route := "/" + strings.Join(parts, "/")
	if !knownRoutes[route] {
		return "/other"
	}
	return route
}
