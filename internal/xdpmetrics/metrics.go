// Package xdpmetrics exposes Prometheus instrumentation for ring
// occupancy, wakeup counts, and kernel-reported socket statistics,
// grounded on the teacher's internal/metrics/prometheus.go registry
// pattern and narrowed to the AF_XDP domain.
package xdpmetrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/penguintech/afxdp/internal/xdpabi"
)

// Metrics holds the collectors a ring set reports through. One Metrics is
// typically shared across every ring set registered against a single
// prometheus.Registerer.
type Metrics struct {
	ringFilled *prometheus.GaugeVec
	ringFree   *prometheus.GaugeVec
	wakeups    *prometheus.CounterVec
	rxDropped  *prometheus.GaugeVec
	rxInvalid  *prometheus.GaugeVec
	txInvalid  *prometheus.GaugeVec
	rxRingFull *prometheus.GaugeVec
}

// New registers the afxdp collectors against reg and returns a Metrics
// ready to record observations. reg is typically a
// *prometheus.Registry dedicated to the process, or prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Metrics {
	labels := []string{"interface", "queue_id", "ring"}

	m := &Metrics{
		ringFilled: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "afxdp",
			Name:      "ring_filled_entries",
			Help:      "Number of occupied entries in a ring, as of the last observation.",
		}, labels),
		ringFree: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "afxdp",
			Name:      "ring_free_entries",
			Help:      "Number of free entries in a ring, as of the last observation.",
		}, labels),
		wakeups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "afxdp",
			Name:      "ring_wakeups_total",
			Help:      "Pokes (recvfrom/sendto) issued because the kernel set NEED_WAKEUP.",
		}, labels),
		rxDropped: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "afxdp",
			Name:      "rx_dropped",
			Help:      "xdp_statistics.rx_dropped, last observed value.",
		}, labels[:2]),
		rxInvalid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "afxdp",
			Name:      "rx_invalid_descs",
			Help:      "xdp_statistics.rx_invalid_descs, last observed value.",
		}, labels[:2]),
		txInvalid: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "afxdp",
			Name:      "tx_invalid_descs",
			Help:      "xdp_statistics.tx_invalid_descs, last observed value.",
		}, labels[:2]),
		rxRingFull: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "afxdp",
			Name:      "rx_ring_full",
			Help:      "xdp_statistics.rx_ring_full, last observed value.",
		}, labels[:2]),
	}

	reg.MustRegister(m.ringFilled, m.ringFree, m.wakeups, m.rxDropped, m.rxInvalid, m.txInvalid, m.rxRingFull)
	return m
}

// ObserveRing records a ring's current filled/free depth.
func (m *Metrics) ObserveRing(iface string, queueID uint32, ring string, filled, free uint32) {
	labels := prometheus.Labels{"interface": iface, "queue_id": queueIDLabel(queueID), "ring": ring}
	m.ringFilled.With(labels).Set(float64(filled))
	m.ringFree.With(labels).Set(float64(free))
}

// RecordWakeup increments the poke counter for a ring that observed
// NEED_WAKEUP.
func (m *Metrics) RecordWakeup(iface string, queueID uint32, ring string) {
	m.wakeups.With(prometheus.Labels{"interface": iface, "queue_id": queueIDLabel(queueID), "ring": ring}).Inc()
}

// ObserveStatistics records a socket's kernel-reported statistics.
func (m *Metrics) ObserveStatistics(iface string, queueID uint32, st xdpabi.Statistics) {
	labels := prometheus.Labels{"interface": iface, "queue_id": queueIDLabel(queueID)}
	m.rxDropped.With(labels).Set(float64(st.RxDropped))
	m.rxInvalid.With(labels).Set(float64(st.RxInvalidDescs))
	m.txInvalid.With(labels).Set(float64(st.TxInvalidDescs))
	m.rxRingFull.With(labels).Set(float64(st.RxRingFull))
}

func queueIDLabel(queueID uint32) string {
	return strconv.FormatUint(uint64(queueID), 10)
}
