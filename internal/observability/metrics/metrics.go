package metrics

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/ubi-economy/staking-tasks-service/internal/config"
)

type Outcome string

const (
	Success Outcome = "success"
	Error   Outcome = "error"
)

func (O Outcome) String() string {
	return string(O)
}

var defaultHistogramBucketsSeconds = []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300}

var (
	once          sync.Once
	metricsRouter *chi.Mux

	httpRequestDurationHistogram = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Histogram of http request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"endpoint", "status"},
	)
	taskRunCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "task_runs_total",
			Help: "Number of task runs by task and result.",
		},
		[]string{"task", "result"},
	)
	taskRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "task_run_duration_seconds",
			Help:    "Histogram of task run durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"task", "result"},
	)
	bridgeWaitDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_wait_duration_seconds",
			Help:    "Time spent waiting for a bridged transfer to appear on the destination chain.",
			Buckets: []float64{5, 15, 30, 60, 120, 300, 600},
		},
		[]string{"status"},
	)
	chunkSubmissionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fish_chunk_submissions_total",
			Help: "Number of fishMulti submissions by status.",
		},
		[]string{"status"},
	)
	fishedAccountsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fished_accounts_total",
			Help: "Number of inactive accounts reclaimed.",
		},
	)
	rpcRateLimitWaits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rpc_rate_limit_waits_total",
			Help: "Number of rpc requests delayed by the client side rate limiter.",
		},
		[]string{"chain"},
	)
	rpcRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "rpc_request_duration_seconds",
			Help:    "Histogram of chain rpc request durations in seconds.",
			Buckets: defaultHistogramBucketsSeconds,
		},
		[]string{"chain", "method", "status"},
	)
)

// Init registers the collectors and serves them on cfg.Address().
func Init(cfg config.MetricsConfig) {
	once.Do(func() {
		initMetricsRouter(cfg)
		registerMetrics()
	})
}

func initMetricsRouter(cfg config.MetricsConfig) {
	metricsRouter = chi.NewRouter()
	metricsRouter.Get(cfg.Path, func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	go func() {
		addr := cfg.Address()
		if err := http.ListenAndServe(addr, metricsRouter); err != nil {
			log.Fatal().Err(err).Msgf("error starting metrics server on %s", addr)
		}
	}()
}

// registerMetrics registers the Prometheus metrics.
func registerMetrics() {
	prometheus.MustRegister(
		httpRequestDurationHistogram,
		taskRunCounter,
		taskRunDuration,
		bridgeWaitDuration,
		chunkSubmissionCounter,
		fishedAccountsCounter,
		rpcRateLimitWaits,
		rpcRequestDuration,
	)
}

// StartHttpRequestDurationTimer starts a timer to measure http request handling duration.
func StartHttpRequestDurationTimer(endpoint string) func(statusCode int) {
	startTime := time.Now()
	return func(statusCode int) {
		duration := time.Since(startTime).Seconds()
		httpRequestDurationHistogram.WithLabelValues(endpoint, fmt.Sprintf("%d", statusCode)).Observe(duration)
	}
}

// StartTaskRunTimer starts a timer for one task run. The returned func
// records the run under its final result.
func StartTaskRunTimer(task string) func(result string) {
	startTime := time.Now()
	return func(result string) {
		duration := time.Since(startTime).Seconds()
		taskRunDuration.WithLabelValues(task, result).Observe(duration)
		taskRunCounter.WithLabelValues(task, result).Inc()
	}
}

func ObserveBridgeWait(duration time.Duration, outcome Outcome) {
	bridgeWaitDuration.WithLabelValues(outcome.String()).Observe(duration.Seconds())
}

func RecordChunkSubmission(outcome Outcome) {
	chunkSubmissionCounter.WithLabelValues(outcome.String()).Inc()
}

func RecordFishedAccounts(count int) {
	if count > 0 {
		fishedAccountsCounter.Add(float64(count))
	}
}

// StartRpcRequestTimer measures a single chain rpc request. The returned
// func takes the classified request status.
func StartRpcRequestTimer(chain, method string) func(status string) {
	startTime := time.Now()
	return func(status string) {
		rpcRequestDuration.WithLabelValues(chain, method, status).Observe(time.Since(startTime).Seconds())
	}
}

func RecordRpcRateLimitWait(chain string) {
	rpcRateLimitWaits.WithLabelValues(chain).Inc()
}
