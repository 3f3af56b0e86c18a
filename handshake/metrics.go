package handshake

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds a monotonic count of handshakes attempted and a gauge
// for the live size of the pending table. Modeled on the Counter/
// GaugeFunc pair registered in the neo-go consensus package's
// prometheus.go.
type Metrics struct {
	handshakesTotal prometheus.Counter
	pendingGauge    prometheus.GaugeFunc
}

// NewMetrics builds a Metrics bound to table's live length. Nothing is
// registered with a Registerer yet; call Register for that.
func NewMetrics(table *PendingTable) *Metrics {
	handshakesTotal := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "transport",
		Subsystem: "handshake",
		Name:      "num_handshakes_total",
		Help:      "Total number of handshakes initiated, regardless of outcome.",
	})
	pendingGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "transport",
		Subsystem: "handshake",
		Name:      "num_pending_handshakes",
		Help:      "Current number of handshakes awaiting a terminal event.",
	}, func() float64 { return float64(table.Len()) })

	return &Metrics{handshakesTotal: handshakesTotal, pendingGauge: pendingGauge}
}

// Register registers both collectors with reg.
func (m *Metrics) Register(reg prometheus.Registerer) {
	reg.MustRegister(m.handshakesTotal, m.pendingGauge)
}

func (m *Metrics) incHandshakes() { m.handshakesTotal.Inc() }
