package metrics

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// AcquisitionStats provides the metrics collector access to live
// acquisition engine state.
type AcquisitionStats interface {
	ConnectedSubscriberCount() int
	RunningSubscriberCount() int
}

// Collector implements prometheus.Collector to read live gauges at scrape time.
type Collector struct {
	pool  *pgxpool.Pool
	stats AcquisitionStats

	connectedSubscribers *prometheus.Desc
	runningSubscribers   *prometheus.Desc
	dbTotalConns         *prometheus.Desc
	dbAcquiredConns      *prometheus.Desc
	dbIdleConns          *prometheus.Desc
}

// NewCollector creates a collector that reads live state at scrape time.
// pool may be nil (metrics will report 0). stats may be nil if no engine is running.
func NewCollector(pool *pgxpool.Pool, stats AcquisitionStats) *Collector {
	return &Collector{
		pool:  pool,
		stats: stats,
		connectedSubscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "subscribers_connected"),
			"Current number of connected subscribers.",
			nil, nil,
		),
		runningSubscribers: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "subscribers_running"),
			"Current number of subscribers the engine is managing.",
			nil, nil,
		),
		dbTotalConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "total_conns"),
			"Total database pool connections.",
			nil, nil,
		),
		dbAcquiredConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "acquired_conns"),
			"Database pool connections currently in use.",
			nil, nil,
		),
		dbIdleConns: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "db_pool", "idle_conns"),
			"Database pool idle connections.",
			nil, nil,
		),
	}
}

func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.connectedSubscribers
	ch <- c.runningSubscribers
	ch <- c.dbTotalConns
	ch <- c.dbAcquiredConns
	ch <- c.dbIdleConns
}

func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	if c.stats != nil {
		ch <- prometheus.MustNewConstMetric(c.connectedSubscribers, prometheus.GaugeValue, float64(c.stats.ConnectedSubscriberCount()))
		ch <- prometheus.MustNewConstMetric(c.runningSubscribers, prometheus.GaugeValue, float64(c.stats.RunningSubscriberCount()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.connectedSubscribers, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.runningSubscribers, prometheus.GaugeValue, 0)
	}

	if c.pool != nil {
		stat := c.pool.Stat()
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, float64(stat.TotalConns()))
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, float64(stat.AcquiredConns()))
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, float64(stat.IdleConns()))
	} else {
		ch <- prometheus.MustNewConstMetric(c.dbTotalConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbAcquiredConns, prometheus.GaugeValue, 0)
		ch <- prometheus.MustNewConstMetric(c.dbIdleConns, prometheus.GaugeValue, 0)
	}
}
