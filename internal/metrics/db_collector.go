package metrics

import "github.com/prometheus/client_golang/prometheus"

// PoolStats is a snapshot of a storage connection pool.
type PoolStats struct {
	Total    int32
	Idle     int32
	Acquired int32
}

// PoolStatFunc reports pool statistics without importing a driver.
type PoolStatFunc func() PoolStats

// poolCollector exposes the pool of one storage driver as gauges labelled by
// driver name.
type poolCollector struct {
	driver string
	stats  PoolStatFunc

	totalDesc    *prometheus.Desc
	idleDesc     *prometheus.Desc
	acquiredDesc *prometheus.Desc
}

func newPoolCollector(driver string, stats PoolStatFunc) prometheus.Collector {
	labels := prometheus.Labels{"driver": driver}
	return &poolCollector{
		driver: driver,
		stats:  stats,
		totalDesc: prometheus.NewDesc(
			"taskhub_db_pool_total_conns",
			"Total number of connections in the storage pool.",
			nil, labels,
		),
		idleDesc: prometheus.NewDesc(
			"taskhub_db_pool_idle_conns",
			"Number of idle connections in the storage pool.",
			nil, labels,
		),
		acquiredDesc: prometheus.NewDesc(
			"taskhub_db_pool_acquired_conns",
			"Number of connections currently checked out of the storage pool.",
			nil, labels,
		),
	}
}

func (c *poolCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.totalDesc
	ch <- c.idleDesc
	ch <- c.acquiredDesc
}

func (c *poolCollector) Collect(ch chan<- prometheus.Metric) {
	s := c.stats()
	ch <- prometheus.MustNewConstMetric(c.totalDesc, prometheus.GaugeValue, float64(s.Total))
	ch <- prometheus.MustNewConstMetric(c.idleDesc, prometheus.GaugeValue, float64(s.Idle))
	ch <- prometheus.MustNewConstMetric(c.acquiredDesc, prometheus.GaugeValue, float64(s.Acquired))
}
