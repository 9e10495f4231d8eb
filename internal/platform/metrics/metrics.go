package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "digital_bank"

// Metrics groups the engine's collectors. A nil *Metrics is a valid no-op.
type Metrics struct {
	postingsTotal        *prometheus.CounterVec
	integrityFaultsTotal prometheus.Counter
	postingRetriesTotal  prometheus.Counter
	transfersTotal       *prometheus.CounterVec
	idempotentReplays    *prometheus.CounterVec
	holdsSweptTotal      prometheus.Counter
}

// New registers the collectors on reg. Tests pass a fresh registry each time.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		postingsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "postings_total",
				Help:      "Ledger postings partitioned by kind and result.",
			},
			[]string{"kind", "result"},
		),
		integrityFaultsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "integrity_faults_total",
				Help:      "Postings rejected because they would break ledger integrity.",
			},
		),
		postingRetriesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ledger",
				Name:      "posting_retries_total",
				Help:      "Postings retried after a concurrent balance modification.",
			},
		),
		transfersTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transfer",
				Name:      "terminal_total",
				Help:      "Transfers reaching a terminal status, by type, status and reason.",
			},
			[]string{"type", "status", "reason"},
		),
		idempotentReplays: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "idempotency",
				Name:      "replays_total",
				Help:      "Requests answered from a stored result, by operation.",
			},
			[]string{"operation"},
		),
		holdsSweptTotal: f.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "holds",
				Name:      "swept_total",
				Help:      "Expired holds marked released by sweeps.",
			},
		),
	}
}

func (m *Metrics) ObservePosting(kind string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.postingsTotal.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) ObserveIntegrityFault() {
	if m == nil {
		return
	}
	m.integrityFaultsTotal.Inc()
}

func (m *Metrics) ObservePostingRetry() {
	if m == nil {
		return
	}
	m.postingRetriesTotal.Inc()
}

func (m *Metrics) ObserveTransferTerminal(transferType, status, reason string) {
	if m == nil {
		return
	}
	m.transfersTotal.WithLabelValues(transferType, status, reason).Inc()
}

func (m *Metrics) ObserveReplay(operation string) {
	if m == nil {
		return
	}
	m.idempotentReplays.WithLabelValues(operation).Inc()
}

func (m *Metrics) ObserveHoldsSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.holdsSweptTotal.Add(float64(n))
}
