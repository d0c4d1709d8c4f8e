// Package monitoring exposes Prometheus metrics for the backtest service.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gin-gonic/gin"
)

var (
	RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "backtest_runs_total", Help: "Backtest runs by outcome"},
		[]string{"status"},
	)
	RunDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "backtest_run_duration_seconds",
		Help:    "Wall time of a single-symbol run",
		Buckets: prometheus.DefBuckets,
	})
	JobsInFlight = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "backtest_jobs_in_flight",
		Help: "Jobs currently queued or running",
	})
	BarsProcessed = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backtest_bars_processed_total",
		Help: "Bars fed through the simulation pipeline",
	})
	TradesSimulated = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "backtest_trades_simulated_total",
		Help: "Closed trades produced by simulations",
	})
)

func init() {
	prometheus.MustRegister(RunsTotal, RunDuration, JobsInFlight, BarsProcessed, TradesSimulated)
}

// ObserveRun records one finished run.
func ObserveRun(start time.Time, bars, trades int, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(time.Since(start).Seconds())
	if err == nil {
		BarsProcessed.Add(float64(bars))
		TradesSimulated.Add(float64(trades))
	}
}

// Handler adapts the Prometheus exposition endpoint to a gin route.
func Handler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
