package dispatch

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/crmarques/mgmtbridge/faults"
	"github.com/crmarques/mgmtbridge/operation"
)

const (
	resultSuccess = "success"
	resultFailed  = "failed"
	resultError   = "error"
)

// Metrics holds the dispatch collectors.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	InFlight   prometheus.Gauge
	Errors     *prometheus.CounterVec
}

// NewMetrics registers the dispatch collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Operations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mgmtbridge",
				Subsystem: "dispatch",
				Name:      "operations_total",
				Help:      "Management operations executed, by operation name and result",
			},
			[]string{"operation", "result"},
		),
		Duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "mgmtbridge",
				Subsystem: "dispatch",
				Name:      "operation_duration_seconds",
				Help:      "Management operation duration in seconds",
				Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"operation"},
		),
		InFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: "mgmtbridge",
				Subsystem: "dispatch",
				Name:      "operations_in_flight",
				Help:      "Management operations currently awaiting a response",
			},
		),
		Errors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "mgmtbridge",
				Subsystem: "dispatch",
				Name:      "errors_total",
				Help:      "Exchanges that produced no response, by error category",
			},
			[]string{"category"},
		),
	}
}

// Instrument records counts, latency and in-flight operations.
func Instrument(metrics *Metrics) Middleware {
	return func(next Dispatcher) Dispatcher {
		return DispatcherFunc(func(ctx context.Context, op operation.Operation) (Response, error) {
			metrics.InFlight.Inc()
			defer metrics.InFlight.Dec()

			started := time.Now()
			response, err := next.Execute(ctx, op)
			metrics.Duration.WithLabelValues(op.Name()).Observe(time.Since(started).Seconds())

			if err != nil {
				metrics.Errors.WithLabelValues(string(errorCategory(err))).Inc()
			}
			metrics.Operations.WithLabelValues(op.Name(), resultOf(response, err)).Inc()
			return response, err
		})
	}
}

func resultOf(response Response, err error) string {
	switch {
	case err != nil:
		return resultError
	case !Interpret(response).Success:
		return resultFailed
	default:
		return resultSuccess
	}
}

func errorCategory(err error) faults.ErrorCategory {
	if category := faults.CategoryOf(err); category != "" {
		return category
	}
	return faults.InternalError
}
