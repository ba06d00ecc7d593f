// Package metrics holds the agent's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PollCycles counts completed notification poll cycles.
	PollCycles = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_poll_cycles_total",
		Help: "Completed notification poll cycles.",
	})

	// PollFailures counts poll cycles that could not fetch the feed.
	PollFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "notify_poll_failures_total",
		Help: "Notification poll cycles that failed.",
	})

	// UnreadNotifications is the unread count as of the last poll.
	UnreadNotifications = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_unread_notifications",
		Help: "Unread notifications as of the last poll.",
	})

	// Activations counts push activation attempts by outcome.
	Activations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_push_activations_total",
		Help: "Push activation attempts by outcome.",
	}, []string{"outcome"})

	// MarkReads counts successful mark-as-read mutations, single and bulk.
	MarkReads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "notify_mark_read_total",
		Help: "Successful mark-as-read mutations.",
	}, []string{"kind"})
)
