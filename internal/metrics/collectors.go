package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"advisor/internal/rag/vectorstore"
	"advisor/pkg/logger"
)

// IndexCollector exposes the size of each knowledge domain index. Counts
// are read on scrape with a short timeout so a stuck store cannot stall
// the metrics endpoint.
type IndexCollector struct {
	log    *logger.Logger
	stores map[string]vectorstore.Store

	indexSize *prometheus.Desc
}

// NewIndexCollector creates a collector over the named domain stores.
func NewIndexCollector(stores map[string]vectorstore.Store) *IndexCollector {
	return &IndexCollector{
		log:    logger.Get().With("component", "index_collector"),
		stores: stores,

		indexSize: prometheus.NewDesc(
			"advisor_index_chunks",
			"Number of chunks in a knowledge domain index",
			[]string{"domain"}, nil,
		),
	}
}

// RegisterIndexCollector registers an IndexCollector over the named
// domain stores with the default registry.
func RegisterIndexCollector(stores map[string]vectorstore.Store) {
	prometheus.MustRegister(NewIndexCollector(stores))
}

// Describe implements prometheus.Collector.
func (c *IndexCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.indexSize
}

// Collect implements prometheus.Collector.
func (c *IndexCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for domain, store := range c.stores {
		count, err := store.Count(ctx)
		if err != nil {
			c.log.Warnf("Count failed for domain %s: %v", domain, err)
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.indexSize, prometheus.GaugeValue, float64(count), domain)
	}
}
