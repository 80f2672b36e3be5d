// Package metrics holds the Prometheus metrics of the sbk tool. A command
// runs too briefly to be scraped, so metrics are written to a node exporter
// textfile.
package metrics

import (
	"errors"

	"github.com/etnz/stockbook"
	"github.com/etnz/stockbook/storage"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics of the application.
type Metrics struct {
	reg *prometheus.Registry

	Trades               *prometheus.CounterVec
	GatewayFailures      prometheus.Counter
	StorageWriteFailures *prometheus.CounterVec
	Recoveries           *prometheus.CounterVec
	RefreshDuration      prometheus.Histogram

	Cash        prometheus.Gauge
	TotalAssets prometheus.Gauge
	Positions   prometheus.Gauge
}

// New creates the metrics in their own registry.
func New(namespace string) *Metrics {
	if namespace == "" {
		namespace = "stockbook"
	}
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Trades: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_total",
			Help:      "Total number of trades, by side",
		}, []string{"side"}),
		GatewayFailures: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gateway_failures_total",
			Help:      "Total number of failed price lookups",
		}),
		StorageWriteFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_write_failures_total",
			Help:      "Total number of failed snapshot writes, by location",
		}, []string{"location"}),
		Recoveries: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recoveries_total",
			Help:      "Total number of ledger loads, by kind of recovery",
		}, []string{"kind"}),
		RefreshDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "refresh_duration_seconds",
			Help:      "Duration of price refreshes",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}),
		Cash: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cash",
			Help:      "Cash balance",
		}),
		TotalAssets: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "total_assets",
			Help:      "Cash plus market value of the positions",
		}),
		Positions: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "positions",
			Help:      "Number of open positions",
		}),
	}
}

// Registry returns the registry holding the metrics.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// ObserveLedger sets the ledger gauges.
func (m *Metrics) ObserveLedger(l *stockbook.Ledger) {
	t := l.Totals()
	m.Cash.Set(t.Cash.Decimal().InexactFloat64())
	m.TotalAssets.Set(t.Assets.Decimal().InexactFloat64())
	m.Positions.Set(float64(t.Count))
}

// ObserveTrade counts a trade.
func (m *Metrics) ObserveTrade(side stockbook.Side) {
	m.Trades.WithLabelValues(side.String()).Inc()
}

// ObserveRefresh counts the failed lookups of a refresh.
func (m *Metrics) ObserveRefresh(r stockbook.Refresh) {
	m.GatewayFailures.Add(float64(r.Failed()))
	m.ObserveSave(r.SaveErr)
}

// ObserveSave counts the failed locations of a save error.
func (m *Metrics) ObserveSave(err error) {
	var se *storage.SaveError
	if !errors.As(err, &se) {
		return
	}
	for _, f := range se.Failures {
		m.StorageWriteFailures.WithLabelValues(f.Location).Inc()
	}
}

// ObserveRecovery counts a ledger load.
func (m *Metrics) ObserveRecovery(r storage.Recovery) {
	m.Recoveries.WithLabelValues(r.Kind()).Inc()
}

// WriteToTextfile writes the metrics atomically for the node exporter
// textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.reg)
}
