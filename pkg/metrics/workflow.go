package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// WorkflowMetrics tracks service order lifecycle activity.
type WorkflowMetrics struct {
	transitions *prometheus.CounterVec
	blocked     *prometheus.CounterVec
	minted      *prometheus.CounterVec
}

// NewWorkflowMetrics registers the service order workflow collectors.
func NewWorkflowMetrics(reg prometheus.Registerer) *WorkflowMetrics {
	if reg == nil {
		return &WorkflowMetrics{}
	}
	transitions := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldservice_service_order_transitions_total",
		Help: "Service order status transitions applied.",
	}, []string{"from", "to", "origin"}))
	blocked := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldservice_service_order_transitions_blocked_total",
		Help: "Status transitions rejected by a workflow gate.",
	}, []string{"to", "reason"}))
	minted := register(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fieldservice_service_order_codes_minted_total",
		Help: "Service order codes minted per strategy.",
	}, []string{"strategy"}))
	return &WorkflowMetrics{
		transitions: transitions,
		blocked:     blocked,
		minted:      minted,
	}
}

func (w *WorkflowMetrics) IncTransition(from, to, origin string) {
	if w == nil || w.transitions == nil {
		return
	}
	w.transitions.WithLabelValues(from, to, normalizeLabel(origin)).Inc()
}

func (w *WorkflowMetrics) IncBlocked(to, reason string) {
	if w == nil || w.blocked == nil {
		return
	}
	w.blocked.WithLabelValues(to, normalizeLabel(reason)).Inc()
}

func (w *WorkflowMetrics) IncCodeMinted(strategy string) {
	if w == nil || w.minted == nil {
		return
	}
	w.minted.WithLabelValues(normalizeLabel(strategy)).Inc()
}
