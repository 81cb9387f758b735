// Registers:
//
//	#niftypulse_ticks_total
//	#niftypulse_quote_sync_total
//	#go_* and process_* system metrics
//
// Exposes them on the configured address using the Prometheus HTTP handler.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	once       sync.Once
	ticksTotal prometheus.Counter
	quoteSyncs *prometheus.CounterVec
)

func Init(addr string) {
	once.Do(func() {
		ticksTotal = prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "niftypulse_ticks_total",
				Help: "Number of simulation ticks applied",
			},
		)

		quoteSyncs = prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "niftypulse_quote_sync_total",
				Help: "Number of live price sync runs by outcome",
			},
			[]string{"outcome"},
		)

		_ = prometheus.Register(ticksTotal)
		_ = prometheus.Register(quoteSyncs)
		_ = prometheus.Register(collectors.NewGoCollector())
		_ = prometheus.Register(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		if addr == "" {
			addr = "0.0.0.0:2112"
		}
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			if err := http.ListenAndServe(addr, mux); err != nil {
				panic("metrics server failed: " + err.Error())
			}
		}()
	})
}

// IncrementTicks increases the applied-tick counter.
func IncrementTicks() {
	if ticksTotal != nil {
		ticksTotal.Inc()
	}
}

// IncrementQuoteSync increases the sync counter for a given outcome.
func IncrementQuoteSync(outcome string) {
	if quoteSyncs != nil {
		quoteSyncs.WithLabelValues(outcome).Inc()
	}
}
