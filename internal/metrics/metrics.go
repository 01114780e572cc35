// Package metrics holds the Prometheus collectors shared by the stores, the
// image pipeline and the API server.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the application's collectors. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	storeMutations  *prometheus.CounterVec
	imagesProcessed *prometheus.CounterVec
	thumbnailCache  *prometheus.CounterVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		storeMutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppuss_store_mutations_total",
			Help: "Optimistic store mutations by store and final state.",
		}, []string{"store", "state"}),
		imagesProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppuss_images_processed_total",
			Help: "Images handled by the image pipeline by result.",
		}, []string{"result"}),
		thumbnailCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "oppuss_thumbnail_cache_total",
			Help: "Thumbnail cache lookups by result.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{m.storeMutations, m.imagesProcessed, m.thumbnailCache} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// StoreMutation counts a mutation reaching state in store.
func (m *Metrics) StoreMutation(store, state string) {
	if m == nil {
		return
	}
	m.storeMutations.WithLabelValues(store, state).Inc()
}

// ImageProcessed counts one image outcome, e.g. "resized", "passthrough",
// "fallback", "skipped" or "failed".
func (m *Metrics) ImageProcessed(result string) {
	if m == nil {
		return
	}
	m.imagesProcessed.WithLabelValues(result).Inc()
}

// ThumbnailCache counts a cache "hit" or "miss".
func (m *Metrics) ThumbnailCache(result string) {
	if m == nil {
		return
	}
	m.thumbnailCache.WithLabelValues(result).Inc()
}
