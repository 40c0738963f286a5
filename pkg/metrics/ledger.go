package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LedgerMetrics counts sale outcomes so dashboards can watch rejection rates.
type LedgerMetrics struct {
	recorded *prometheus.CounterVec
	rejected *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger metrics on the provided registerer.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	if reg == nil {
		return &LedgerMetrics{}
	}
	recorded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sales_recorded_total",
		Help: "Sales committed to the transaction ledger.",
	}, []string{"mode"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ledger_sales_rejected_total",
		Help: "Sales rejected before commit, by reason.",
	}, []string{"reason"})
	reg.MustRegister(recorded, rejected)
	return &LedgerMetrics{
		recorded: recorded,
		rejected: rejected,
	}
}

// IncRecorded increments the commit counter for the given mode (single or bulk).
func (l *LedgerMetrics) IncRecorded(mode string) {
	if l == nil || l.recorded == nil {
		return
	}
	l.recorded.WithLabelValues(normalizeLabel(mode)).Inc()
}

// IncRejected increments the rejection counter for the given reason.
func (l *LedgerMetrics) IncRejected(reason string) {
	if l == nil || l.rejected == nil {
		return
	}
	l.rejected.WithLabelValues(normalizeLabel(reason)).Inc()
}
