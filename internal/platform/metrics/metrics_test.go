package metrics_test

import (
	"errors"
	"testing"

	"github.com/SscSPs/digital_bank_ledger/internal/platform/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Observe(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.ObservePosting("TRANSFER", nil)
	m.ObservePosting("TRANSFER", errors.New("boom"))
	m.ObserveIntegrityFault()
	m.ObserveHoldsSwept(3)

	families, err := reg.Gather()
	require.NoError(t, err)
	byName := map[string]float64{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			byName[f.GetName()] += metric.GetCounter().GetValue()
		}
	}
	assert.Equal(t, 2.0, byName["digital_bank_ledger_postings_total"])
	assert.Equal(t, 1.0, byName["digital_bank_ledger_integrity_faults_total"])
	assert.Equal(t, 3.0, byName["digital_bank_holds_swept_total"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *metrics.Metrics
	assert.NotPanics(t, func() {
		m.ObservePosting("TRANSFER", nil)
		m.ObserveIntegrityFault()
		m.ObserveTransferTerminal("WIRE", "FAILED", "LIMIT_EXCEEDED")
	})
}
