package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "billing"

// Billing holds the counters exported by the invoice engine.
// A nil *Billing is valid and records nothing.
type Billing struct {
	generated        prometheus.Counter
	rejected         *prometheus.CounterVec
	statusUpdates    *prometheus.CounterVec
	reconcileRuns    *prometheus.CounterVec
	reconcileOutcome *prometheus.CounterVec
}

// NewBilling creates the counters and registers them on registerer
// (prometheus.DefaultRegisterer when nil).
func NewBilling(registerer prometheus.Registerer) *Billing {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	m := &Billing{
		generated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoices_generated_total",
			Help:      "Invoices created.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_generation_rejected_total",
			Help:      "Invoice generation requests rejected, by reason.",
		}, []string{"reason"}),
		statusUpdates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invoice_status_updates_total",
			Help:      "Invoice status writes, by target status.",
		}, []string{"status"}),
		reconcileRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_runs_total",
			Help:      "Reconciliation sweeps, by result.",
		}, []string{"result"}),
		reconcileOutcome: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconciliation_invoices_total",
			Help:      "Invoices classified by reconciliation sweeps, by outcome.",
		}, []string{"outcome"}),
	}

	registerer.MustRegister(m.generated, m.rejected, m.statusUpdates, m.reconcileRuns, m.reconcileOutcome)
	return m
}

func (m *Billing) InvoiceGenerated() {
	if m == nil {
		return
	}
	m.generated.Inc()
}

// GenerationRejected counts a refused generation: not_found, already_exists or invalid_input.
func (m *Billing) GenerationRejected(reason string) {
	if m == nil {
		return
	}
	m.rejected.WithLabelValues(reason).Inc()
}

func (m *Billing) StatusUpdated(status string) {
	if m == nil {
		return
	}
	m.statusUpdates.WithLabelValues(status).Inc()
}

// ReconciliationRun records one sweep and how its invoices were classified.
func (m *Billing) ReconciliationRun(err error, orphaned, incomplete, valid int) {
	if m == nil {
		return
	}
	if err != nil {
		m.reconcileRuns.WithLabelValues("error").Inc()
		return
	}
	m.reconcileRuns.WithLabelValues("ok").Inc()
	m.reconcileOutcome.WithLabelValues("orphaned").Add(float64(orphaned))
	m.reconcileOutcome.WithLabelValues("incomplete").Add(float64(incomplete))
	m.reconcileOutcome.WithLabelValues("valid").Add(float64(valid))
}
