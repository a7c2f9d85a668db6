package metrics

import "github.com/prometheus/client_golang/prometheus"

// SettlementMetrics tracks booking settlement outcomes.
type SettlementMetrics struct {
	settled           *prometheus.CounterVec
	capacityConflicts prometheus.Counter
	insufficientFunds prometheus.Counter
	gatewayDeclines   prometheus.Counter
	payoutsCompleted  prometheus.Counter
}

// NewSettlementMetrics registers the settlement counters on the provided registerer.
func NewSettlementMetrics(reg prometheus.Registerer) *SettlementMetrics {
	if reg == nil {
		return &SettlementMetrics{}
	}
	settled := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bookings_settled_total",
		Help: "Bookings settled, labelled by payment method.",
	}, []string{"payment_method"})
	capacityConflicts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_capacity_conflicts_total",
		Help: "Settlements aborted because the dates or slot were taken.",
	})
	insufficientFunds := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_insufficient_funds_total",
		Help: "Wallet settlements aborted for insufficient balance.",
	})
	gatewayDeclines := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_gateway_declines_total",
		Help: "Gateway captures declined before settlement.",
	})
	payoutsCompleted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "bookings_payouts_completed_total",
		Help: "Host payouts committed by the reconciliation job.",
	})
	reg.MustRegister(settled, capacityConflicts, insufficientFunds, gatewayDeclines, payoutsCompleted)
	return &SettlementMetrics{
		settled:           settled,
		capacityConflicts: capacityConflicts,
		insufficientFunds: insufficientFunds,
		gatewayDeclines:   gatewayDeclines,
		payoutsCompleted:  payoutsCompleted,
	}
}

// IncSettled increments the settled counter for a payment method.
func (s *SettlementMetrics) IncSettled(paymentMethod string) {
	if s == nil || s.settled == nil {
		return
	}
	s.settled.WithLabelValues(normalizeLabel(paymentMethod)).Inc()
}

// IncCapacityConflict counts an aborted settlement due to a capacity clash.
func (s *SettlementMetrics) IncCapacityConflict() {
	if s == nil || s.capacityConflicts == nil {
		return
	}
	s.capacityConflicts.Inc()
}

// IncInsufficientFunds counts a wallet settlement rejected for balance.
func (s *SettlementMetrics) IncInsufficientFunds() {
	if s == nil || s.insufficientFunds == nil {
		return
	}
	s.insufficientFunds.Inc()
}

// IncGatewayDeclined counts a declined card capture.
func (s *SettlementMetrics) IncGatewayDeclined() {
	if s == nil || s.gatewayDeclines == nil {
		return
	}
	s.gatewayDeclines.Inc()
}

// IncPayoutCompleted counts a committed host payout.
func (s *SettlementMetrics) IncPayoutCompleted() {
	if s == nil || s.payoutsCompleted == nil {
		return
	}
	s.payoutsCompleted.Inc()
}
