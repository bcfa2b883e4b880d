package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics набор prometheus-коллекторов сервиса
type Metrics struct {
	// HTTP
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Database
	DBQueryDuration      *prometheus.HistogramVec
	DBOpenConnections    *prometheus.GaugeVec
	DBInUseConnections   *prometheus.GaugeVec
	DBIdleConnections    *prometheus.GaugeVec
	DBWaitCount          *prometheus.GaugeVec
	DBSerializationRetry *prometheus.CounterVec

	// Domain
	ContractTransitions    *prometheus.CounterVec
	ReconciliationRuns     *prometheus.CounterVec
	ReconciliationItems    *prometheus.CounterVec
	ReconciliationDuration *prometheus.HistogramVec
	OutboxEvents           *prometheus.CounterVec
}

// New создает и регистрирует метрики в prometheus.DefaultRegisterer
func New(serviceName string) *Metrics {
	return NewWithRegisterer(serviceName, prometheus.DefaultRegisterer)
}

// NewWithRegisterer создает метрики и регистрирует их в переданном registerer
// (в тестах используется prometheus.NewRegistry(), чтобы избежать дублирующей регистрации)
func NewWithRegisterer(serviceName string, reg prometheus.Registerer) *Metrics {
	constLabels := prometheus.Labels{"service": serviceName}

	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "http_requests_total",
			Help:        "Total number of HTTP requests",
			ConstLabels: constLabels,
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "http_request_duration_seconds",
			Help:        "HTTP request duration in seconds",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"method", "route"}),

		DBQueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "db_query_duration_seconds",
			Help:        "Database query duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation", "status"}),
		DBOpenConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_open_connections",
			Help:        "Number of established connections to the database",
			ConstLabels: constLabels,
		}, []string{}),
		DBInUseConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_in_use_connections",
			Help:        "Number of connections currently in use",
			ConstLabels: constLabels,
		}, []string{}),
		DBIdleConnections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_idle_connections",
			Help:        "Number of idle connections",
			ConstLabels: constLabels,
		}, []string{}),
		DBWaitCount: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name:        "db_wait_count",
			Help:        "Total number of connections waited for",
			ConstLabels: constLabels,
		}, []string{}),
		DBSerializationRetry: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "db_serialization_retries_total",
			Help:        "Serializable transactions retried after a serialization failure",
			ConstLabels: constLabels,
		}, []string{}),

		ContractTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "contract_status_transitions_total",
			Help:        "Applied contract status transitions",
			ConstLabels: constLabels,
		}, []string{"from", "to"}),
		ReconciliationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reconciliation_runs_total",
			Help:        "Reconciliation runs by result",
			ConstLabels: constLabels,
		}, []string{"result"}),
		ReconciliationItems: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "reconciliation_items_total",
			Help:        "Contracts processed by reconciliation passes",
			ConstLabels: constLabels,
		}, []string{"pass", "result"}),
		ReconciliationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "reconciliation_duration_seconds",
			Help:        "Reconciliation run duration in seconds",
			ConstLabels: constLabels,
			Buckets:     []float64{.05, .1, .5, 1, 5, 15, 30, 60, 120},
		}, []string{}),
		OutboxEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:        "outbox_events_total",
			Help:        "Outbox events handled by the dispatcher",
			ConstLabels: constLabels,
		}, []string{"type", "result"}),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.DBQueryDuration,
		m.DBOpenConnections,
		m.DBInUseConnections,
		m.DBIdleConnections,
		m.DBWaitCount,
		m.DBSerializationRetry,
		m.ContractTransitions,
		m.ReconciliationRuns,
		m.ReconciliationItems,
		m.ReconciliationDuration,
		m.OutboxEvents,
	)

	return m
}

// ObserveTransition фиксирует применённый переход статуса контракта
// Безопасно вызывать на nil-указателе (метрики выключены)
func (m *Metrics) ObserveTransition(from, to string) {
	if m == nil {
		return
	}
	m.ContractTransitions.WithLabelValues(from, to).Inc()
}

// ObserveReconciliationItem фиксирует обработку одного контракта проходом планировщика
func (m *Metrics) ObserveReconciliationItem(pass, result string) {
	if m == nil {
		return
	}
	m.ReconciliationItems.WithLabelValues(pass, result).Inc()
}

// ObserveReconciliationRun фиксирует завершение запуска сверки
func (m *Metrics) ObserveReconciliationRun(result string, seconds float64) {
	if m == nil {
		return
	}
	m.ReconciliationRuns.WithLabelValues(result).Inc()
	m.ReconciliationDuration.WithLabelValues().Observe(seconds)
}

// ObserveOutboxEvent фиксирует обработку события outbox
func (m *Metrics) ObserveOutboxEvent(eventType, result string) {
	if m == nil {
		return
	}
	m.OutboxEvents.WithLabelValues(eventType, result).Inc()
}
