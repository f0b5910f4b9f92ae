// Package metrics expose les métriques Prometheus du social-service.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// API
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status_code"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "social_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// Graphe
	FollowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_follows_total",
			Help: "Follow calls by outcome (created, existing)",
		},
		[]string{"outcome"},
	)

	UnfollowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_unfollows_total",
			Help: "Unfollow calls by outcome (removed, missing)",
		},
		[]string{"outcome"},
	)

	// Contenu
	LikeTogglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_like_toggles_total",
			Help: "Like toggles by resulting state (liked, unliked)",
		},
		[]string{"state"},
	)

	// Notifications
	NotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_notifications_total",
			Help: "Notification dispatch decisions by verb and outcome (emitted, suppressed, failed)",
		},
		[]string{"verb", "outcome"},
	)

	// Events
	EventsPublishedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "social_events_published_total",
			Help: "Outbound events by subject and outcome (success, failure, rejected)",
		},
		[]string{"subject", "outcome"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "social_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// RecordHTTPRequest enregistre une requête terminée.
func RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func RecordFollow(created bool) {
	if created {
		FollowsTotal.WithLabelValues("created").Inc()
		return
	}
	FollowsTotal.WithLabelValues("existing").Inc()
}

func RecordUnfollow(removed bool) {
	if removed {
		UnfollowsTotal.WithLabelValues("removed").Inc()
		return
	}
	UnfollowsTotal.WithLabelValues("missing").Inc()
}

func RecordLikeToggle(liked bool) {
	if liked {
		LikeTogglesTotal.WithLabelValues("liked").Inc()
		return
	}
	LikeTogglesTotal.WithLabelValues("unliked").Inc()
}

func RecordNotification(verb, outcome string) {
	NotificationsTotal.WithLabelValues(verb, outcome).Inc()
}

func RecordEventPublished(subject, outcome string) {
	EventsPublishedTotal.WithLabelValues(subject, outcome).Inc()
}
