package metrics

// ============================================================================
// Metric Names
// ============================================================================

// HTTP metric names
const (
	MetricNameHTTPRequestsTotal    = "http_requests_total"
	MetricNameHTTPRequestDuration  = "http_request_duration_seconds"
	MetricNameHTTPRequestsInFlight = "http_requests_in_flight"
)

// Event metric names
const (
	MetricNameEventsPublished    = "events_published_total"
	MetricNameEventHandlerErrors = "event_handler_errors_total"
)

// Linking metric names
const (
	MetricNameLinkingOutcomes   = "banklink_outcomes_total"
	MetricNameClassifiedErrors  = "banklink_classified_errors_total"
	MetricNamePollsStarted      = "banklink_polls_started_total"
	MetricNamePollOutcomes      = "banklink_poll_outcomes_total"
	MetricNamePollFetches       = "banklink_poll_fetches"
	MetricNameHandoffResults    = "banklink_handoff_results_total"
	MetricNameActiveSessions    = "banklink_active_sessions"
	MetricNameSubmissionFailure = "banklink_submission_failures_total"
)

// ============================================================================
// Metric Help Text
// ============================================================================

// HTTP metric help text
const (
	HelpTextHTTPRequestsTotal    = "Total number of HTTP requests"
	HelpTextHTTPRequestDuration  = "HTTP request latency in seconds"
	HelpTextHTTPRequestsInFlight = "Current number of HTTP requests being served"
)

// Event metric help text
const (
	HelpTextEventsPublished    = "Total number of events published"
	HelpTextEventHandlerErrors = "Total number of event handler errors"
)

// Linking metric help text
const (
	HelpTextLinkingOutcomes   = "Linking attempts that finished, by partner and outcome"
	HelpTextClassifiedErrors  = "Linking errors surfaced to the user, by kind"
	HelpTextPollsStarted      = "Polling runs started, by stage"
	HelpTextPollOutcomes      = "Polling runs finished, by stage and outcome"
	HelpTextPollFetches       = "Number of fetches a polling run made before finishing"
	HelpTextHandoffResults    = "External hand-off results, by result"
	HelpTextActiveSessions    = "Linking sessions currently held in memory"
	HelpTextSubmissionFailure = "Account selection submissions that failed, by partner"
)

// ============================================================================
// Metric Label Names
// ============================================================================

// Common label names used across metrics
const (
	LabelMethod  = "method"
	LabelPath    = "path"
	LabelStatus  = "status"
	LabelType    = "type"
	LabelPartner = "partner"
	LabelOutcome = "outcome"
	LabelKind    = "kind"
	LabelStage   = "stage"
	LabelResult  = "result"
)

// ============================================================================
// Histogram Buckets
// ============================================================================

// HTTPLatencyBuckets ranges from 1ms to 10s
var HTTPLatencyBuckets = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10}

// PollFetchBuckets covers the default attempt budgets
var PollFetchBuckets = []float64{1, 2, 3, 4, 6, 8, 12, 20}

// unmatchedRoute labels requests chi could not route
const unmatchedRoute = "unmatched"

// ============================================================================
// Log Messages
// ============================================================================

const (
	LogMsgUnexpectedPayload = "Event payload has unexpected shape"
	LogMsgMetricsRecorded   = "Metrics recorded for event"
)
