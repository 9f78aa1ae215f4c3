package metric

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yndnr/respkv-go/internal/storage/memory"
	"github.com/yndnr/respkv-go/internal/storage/wal"
)

// StoreSource exposes store counters.
type StoreSource interface {
	Stats() memory.Stats
}

// WALSource exposes write-ahead log counters.
type WALSource interface {
	Stats() wal.WriterStats
}

// Collector reads store and WAL counters at scrape time.
type Collector struct {
	store StoreSource
	wal   WALSource

	keys       *prometheus.Desc
	expired    *prometheus.Desc
	walAppends *prometheus.Desc
	walBytes   *prometheus.Desc
}

// NewCollector creates a collector. wal may be nil when persistence is
// disabled.
func NewCollector(store StoreSource, w WALSource) *Collector {
	return &Collector{
		store: store,
		wal:   w,
		keys: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "keys"),
			"Keys held by the store, including expired keys not yet removed",
			nil, nil,
		),
		expired: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "expired_keys_total"),
			"Keys removed by expiry, by mode",
			[]string{"mode"}, nil,
		),
		walAppends: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "wal", "appends_total"),
			"Records appended to the write-ahead log",
			nil, nil,
		),
		walBytes: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "wal", "bytes_total"),
			"Bytes appended to the write-ahead log",
			nil, nil,
		),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.keys
	ch <- c.expired
	if c.wal != nil {
		ch <- c.walAppends
		ch <- c.walBytes
	}
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	st := c.store.Stats()
	ch <- prometheus.MustNewConstMetric(c.keys, prometheus.GaugeValue, float64(st.Keys))
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(st.LazyExpired), "lazy")
	ch <- prometheus.MustNewConstMetric(c.expired, prometheus.CounterValue, float64(st.ActiveExpired), "active")

	if c.wal != nil {
		ws := c.wal.Stats()
		ch <- prometheus.MustNewConstMetric(c.walAppends, prometheus.CounterValue, float64(ws.Appends))
		ch <- prometheus.MustNewConstMetric(c.walBytes, prometheus.CounterValue, float64(ws.Bytes))
	}
}
