package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP Metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHTTPRequestsTotal,
			Help: HelpTextHTTPRequestsTotal,
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNameHTTPRequestDuration,
			Help:    HelpTextHTTPRequestDuration,
			Buckets: HTTPLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameHTTPRequestsInFlight,
			Help: HelpTextHTTPRequestsInFlight,
		},
	)
)

// Event Metrics
var (
	EventsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventsPublished,
			Help: HelpTextEventsPublished,
		},
		[]string{LabelType},
	)

	EventHandlerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameEventHandlerErrors,
			Help: HelpTextEventHandlerErrors,
		},
		[]string{LabelType},
	)
)

// Linking Metrics
var (
	LinkingOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameLinkingOutcomes,
			Help: HelpTextLinkingOutcomes,
		},
		[]string{LabelPartner, LabelOutcome},
	)

	ClassifiedErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameClassifiedErrors,
			Help: HelpTextClassifiedErrors,
		},
		[]string{LabelKind},
	)

	PollsStarted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePollsStarted,
			Help: HelpTextPollsStarted,
		},
		[]string{LabelStage},
	)

	PollOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNamePollOutcomes,
			Help: HelpTextPollOutcomes,
		},
		[]string{LabelStage, LabelOutcome},
	)

	PollFetches = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    MetricNamePollFetches,
			Help:    HelpTextPollFetches,
			Buckets: PollFetchBuckets,
		},
		[]string{LabelStage},
	)

	HandoffResults = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameHandoffResults,
			Help: HelpTextHandoffResults,
		},
		[]string{LabelResult},
	)

	ActiveSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: MetricNameActiveSessions,
			Help: HelpTextActiveSessions,
		},
	)

	SubmissionFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: MetricNameSubmissionFailure,
			Help: HelpTextSubmissionFailure,
		},
		[]string{LabelPartner},
	)
)
