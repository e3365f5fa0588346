package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	namespace = "clientregistry"

	metricLabelOperation = "operation"
	metricLabelStatus    = "status"
	metricLabelRoute     = "route"
	metricLabelKey       = "key"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

var (
	// StoreOperationCounter counts store operations by outcome
	StoreOperationCounter = newCounterVec(
		"store_operation_count",
		"Count of store operations",
		metricLabelOperation, metricLabelStatus,
	)
	// StoreOperationDuration observes the read-modify-write time per operation
	StoreOperationDuration = newSummaryVec(
		"store_operation_duration_seconds",
		"Seconds spent reading, mutating and persisting the client collection",
		metricLabelOperation, metricLabelStatus,
	)
	// MalformedStateCounter counts collections that could not be parsed and were treated as empty
	MalformedStateCounter = newCounterVec(
		"malformed_state_count",
		"Number of unparseable stored collections recovered as empty",
		metricLabelKey,
	)
	// HistoryPersistFailedCounter counts failed attempts to write a collection backup
	HistoryPersistFailedCounter = newCounterVec(
		"history_persist_failed_count",
		"Number of failures to store a collection backup",
	)
	// ClientsGauge tracks the size of the last persisted collection
	ClientsGauge = newGaugeVec(
		"clients_total",
		"Number of clients in the last read or written collection",
		metricLabelKey,
	)
	// ServiceRequestCounter counts http requests per route
	ServiceRequestCounter = newCounterVec(
		"service_request_count",
		"Count of requests for each route",
		metricLabelRoute, metricLabelStatus,
	)
	// ServiceRequestDuration observes the duration of http requests per route
	ServiceRequestDuration = newSummaryVec(
		"service_request_duration_seconds",
		"Seconds to decode a request, execute a store operation and encode its reply",
		metricLabelRoute, metricLabelStatus,
	)
)

// Status maps an error onto the status label value.
func Status(err error) string {
	if err != nil {
		return StatusError
	}
	return StatusSuccess
}

func newSummaryVec(name, help string, labels ...string) *prometheus.SummaryVec {
	vec := prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newCounterVec(name, help string, labels ...string) *prometheus.CounterVec {
	vec := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}

func newGaugeVec(name, help string, labels ...string) *prometheus.GaugeVec {
	vec := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, labels)
	prometheus.MustRegister(vec)
	return vec
}
