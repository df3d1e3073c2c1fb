package xdpmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"

	"github.com/penguintech/afxdp/internal/xdpabi"
)

func gaugeValue(t *testing.T, g *prometheus.GaugeVec, labels prometheus.Labels) float64 {
	t.Helper()
	m, err := g.GetMetricWith(labels)
	if err != nil {
		t.Fatalf("GetMetricWith: %v", err)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return out.GetGauge().GetValue()
}

func counterValue(t *testing.T, c *prometheus.CounterVec, labels prometheus.Labels) float64 {
	t.Helper()
	m, err := c.GetMetricWith(labels)
	if err != nil {
		t.Fatalf("GetMetricWith: %v", err)
	}
	var out dto.Metric
	if err := m.Write(&out); err != nil {
		t.Fatalf("Write: %v", err)
	}
	return out.GetCounter().GetValue()
}

func TestObserveRingRecordsFilledAndFree(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.ObserveRing("eth0", 2, "rx", 10, 54)

	labels := prometheus.Labels{"interface": "eth0", "queue_id": "2", "ring": "rx"}
	if got := gaugeValue(t, m.ringFilled, labels); got != 10 {
		t.Fatalf("ring_filled_entries = %v, want 10", got)
	}
	if got := gaugeValue(t, m.ringFree, labels); got != 54 {
		t.Fatalf("ring_free_entries = %v, want 54", got)
	}
}

func TestRecordWakeupIncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	labels := prometheus.Labels{"interface": "eth0", "queue_id": "0", "ring": "fill"}

	m.RecordWakeup("eth0", 0, "fill")
	m.RecordWakeup("eth0", 0, "fill")

	if got := counterValue(t, m.wakeups, labels); got != 2 {
		t.Fatalf("ring_wakeups_total = %v, want 2", got)
	}
}

func TestObserveStatisticsRecordsAllFields(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	st := xdpabi.Statistics{
		RxDropped:      3,
		RxInvalidDescs: 4,
		TxInvalidDescs: 5,
		RxRingFull:     6,
	}
	m.ObserveStatistics("eth1", 1, st)

	labels := prometheus.Labels{"interface": "eth1", "queue_id": "1"}
	if got := gaugeValue(t, m.rxDropped, labels); got != 3 {
		t.Fatalf("rx_dropped = %v, want 3", got)
	}
	if got := gaugeValue(t, m.rxInvalid, labels); got != 4 {
		t.Fatalf("rx_invalid_descs = %v, want 4", got)
	}
	if got := gaugeValue(t, m.txInvalid, labels); got != 5 {
		t.Fatalf("tx_invalid_descs = %v, want 5", got)
	}
	if got := gaugeValue(t, m.rxRingFull, labels); got != 6 {
		t.Fatalf("rx_ring_full = %v, want 6", got)
	}
}

func TestNewRegistersCollectorsExactlyOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	defer func() {
		if r := recover(); r == nil {
			t.Fatalf("expected MustRegister to panic on duplicate registration")
		}
	}()
	New(reg)
}
