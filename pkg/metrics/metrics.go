// Package metrics instruments bookstore operations with Prometheus
// counters, adapted from the teacher's HTTP-middleware instrumentation
// (pkg/api/metrics.go) to direct counter increments: there is no HTTP
// listener here (network service is a Non-goal), so the CLI's stats
// command dumps the registry as Prometheus text exposition instead of
// serving it over /metrics.
package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the counters a Store increments as collaborators call
// into it.
type Metrics struct {
	registry *prometheus.Registry

	BooksAdded      prometheus.Counter
	BooksRemoved    prometheus.Counter
	Lookups         prometheus.Counter
	Splits          prometheus.Counter
	Merges          prometheus.Counter
	Redistributions prometheus.Counter
	FreeListReuses  prometheus.Counter
}

// New builds a Metrics instance bound to its own registry, so multiple
// Store instances in the same process (as in tests) never collide on the
// default global registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		BooksAdded: factory.NewCounter(prometheus.CounterOpts{
			Name: "libris_books_added_total",
			Help: "Total number of books added to the store.",
		}),
		BooksRemoved: factory.NewCounter(prometheus.CounterOpts{
			Name: "libris_books_removed_total",
			Help: "Total number of books removed from the store.",
		}),
		Lookups: factory.NewCounter(prometheus.CounterOpts{
			Name: "libris_lookups_total",
			Help: "Total number of successful code lookups.",
		}),
		Splits: factory.NewCounter(prometheus.CounterOpts{
			Name: "libris_tree_splits_total",
			Help: "Total number of 2-3 tree node splits.",
		}),
		Merges: factory.NewCounter(prometheus.CounterOpts{
			Name: "libris_tree_merges_total",
			Help: "Total number of 2-3 tree node merges.",
		}),
		Redistributions: factory.NewCounter(prometheus.CounterOpts{
			Name: "libris_tree_redistributions_total",
			Help: "Total number of 2-3 tree key redistributions.",
		}),
		FreeListReuses: factory.NewCounter(prometheus.CounterOpts{
			Name: "libris_free_list_reuses_total",
			Help: "Total number of slots served from a free list instead of file growth.",
		}),
	}
}

// WriteText dumps the registry as Prometheus text exposition format,
// the way the CLI's stats command presents counters without a listener.
func (m *Metrics) WriteText(w io.Writer) error {
	families, err := m.registry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
