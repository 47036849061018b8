// Package metrics exports node counters and ledger gauges to Prometheus.
package metrics

import (
	"log"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeJamon/goPropLedger/internal/core/ledger/view"
	"github.com/LeJamon/goPropLedger/internal/core/tx"
	"github.com/LeJamon/goPropLedger/internal/core/tx/asset"
	"github.com/LeJamon/goPropLedger/internal/core/tx/market"
	"github.com/LeJamon/goPropLedger/internal/core/tx/token"
)

// Namespace prefixes every metric name.
const Namespace = "propledger"

// Metrics holds the node's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	transactions *prometheus.CounterVec
	events       *prometheus.CounterVec
	grpcCalls    *prometheus.CounterVec
	grpcLatency  *prometheus.HistogramVec
}

// New creates the collectors and registers them together with the Go
// runtime and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		transactions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "transactions_total",
			Help:      "Transactions processed, by type and result code.",
		}, []string{"type", "result"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "events_total",
			Help:      "Committed events, by stream and type.",
		}, []string{"stream", "type"}),
		grpcCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "grpc",
			Name:      "requests_total",
			Help:      "gRPC calls, by method and status code.",
		}, []string{"method", "code"}),
		grpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "grpc",
			Name:      "request_duration_seconds",
			Help:      "gRPC call latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}, []string{"method"}),
	}
	m.registry.MustRegister(
		m.transactions,
		m.events,
		m.grpcCalls,
		m.grpcLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveResult implements tx.ResultObserver.
func (m *Metrics) ObserveResult(t tx.Type, r tx.Result) {
	m.transactions.WithLabelValues(t.String(), r.String()).Inc()
}

// Publish implements tx.EventSink.
func (m *Metrics) Publish(events []tx.Event) {
	for _, ev := range events {
		m.events.WithLabelValues(ev.Stream, ev.Type).Inc()
	}
}

// ObserveCall records one gRPC call.
func (m *Metrics) ObserveCall(method, code string, elapsed time.Duration) {
	m.grpcCalls.WithLabelValues(method, code).Inc()
	m.grpcLatency.WithLabelValues(method).Observe(elapsed.Seconds())
}

// GaugeFunc registers a gauge sampled from fn on every scrape.
func (m *Metrics) GaugeFunc(name, help string, fn func() float64) error {
	return m.registry.Register(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      name,
		Help:      help,
	}, fn))
}

// LedgerReader exposes committed state.
type LedgerReader interface {
	View() view.Reader
}

// RegisterLedgerGauges adds gauges that read the committed ledger at scrape
// time: escrow held, token supply, active listings and minted assets.
func (m *Metrics) RegisterLedgerGauges(ledger LedgerReader) error {
	gauges := []struct {
		name, help string
		read       func(view.Reader) (float64, error)
	}{
		{"escrow_held_units", "Offer funds held in custody, in base units.", func(r view.Reader) (float64, error) {
			total, err := market.TotalEscrow(r)
			return float64(total.Units()), err
		}},
		{"token_supply_units", "Total token supply, in base units.", func(r view.Reader) (float64, error) {
			supply, err := token.TotalSupply(r)
			return float64(supply.Units()), err
		}},
		{"active_listings", "Assets currently listed for sale.", func(r view.Reader) (float64, error) {
			listings, err := market.ActiveListings(r)
			return float64(len(listings)), err
		}},
		{"assets_total", "Assets minted so far.", func(r view.Reader) (float64, error) {
			n, err := asset.Registry{}.TotalAssets(r)
			return float64(n), err
		}},
	}
	for _, g := range gauges {
		g := g
		err := m.GaugeFunc(g.name, g.help, func() float64 {
			v, err := g.read(ledger.View())
			if err != nil {
				log.Printf("metrics: read %s: %v", g.name, err)
				return 0
			}
			return v
		})
		if err != nil {
			return err
		}
	}
	return nil
}
