package observability

import (
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the Prometheus counters, gauges, and histograms for the
// analysis pipeline. Each run registers against its own registry so the
// final counts can be exported as a textfile.
type Metrics struct {
	registry *prometheus.Registry

	TilesLoaded   prometheus.Counter
	Advisories    prometheus.Counter
	StageDuration *prometheus.HistogramVec // label: stage

	// Mask metrics.
	BlackoutCells prometheus.Gauge
	MaskPolygons  *prometheus.GaugeVec // labels: stage={vectorized,kept,removed}

	// Join metrics.
	Buildings *prometheus.GaugeVec // labels: affected={true,false}
	Tracts    *prometheus.GaugeVec // labels: affected={true,false}
}

// NewMetrics creates and registers all pipeline metrics on a fresh registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		TilesLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blackout",
			Name:      "tiles_loaded_total",
			Help:      "Raster tiles read from disk.",
		}),
		Advisories: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "blackout",
			Name:      "advisories_total",
			Help:      "Advisory (non-fatal) validation warnings emitted.",
		}),
		StageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blackout",
			Name:      "stage_duration_seconds",
			Help:      "Wall time per pipeline stage.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 60},
		}, []string{"stage"}),
		BlackoutCells: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "blackout",
			Name:      "mask_cells",
			Help:      "Raster cells surviving the difference threshold.",
		}),
		MaskPolygons: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "blackout",
			Name:      "mask_polygons",
			Help:      "Blackout mask polygons by stage.",
		}, []string{"stage"}),
		Buildings: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "blackout",
			Name:      "buildings",
			Help:      "Residential buildings by affectedness.",
		}, []string{"affected"}),
		Tracts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "blackout",
			Name:      "census_tracts",
			Help:      "Census tracts by affectedness.",
		}, []string{"affected"}),
	}

	m.registry.MustRegister(
		m.TilesLoaded,
		m.Advisories,
		m.StageDuration,
		m.BlackoutCells,
		m.MaskPolygons,
		m.Buildings,
		m.Tracts,
	)
	return m
}

// WriteTextfile exports all registered metrics in Prometheus text exposition
// format, suitable for the node_exporter textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("write metrics %s: %w", path, err)
	}
	defer f.Close()

	enc := expfmt.NewEncoder(f, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, fam := range families {
		if err := enc.Encode(fam); err != nil {
			return fmt.Errorf("encode metrics %s: %w", path, err)
		}
	}
	return nil
}
