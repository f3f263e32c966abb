package fit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("lensfish.fit")

var (
	// fitTotal counts fits by dataset kind and result.
	fitTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lensfish_fit_total",
		Help: "Total fits by dataset and result",
	}, []string{"dataset", "result"})

	// fitDuration tracks how long a full likelihood evaluation takes.
	fitDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "lensfish_fit_duration_seconds",
		Help:    "Fit duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16), // 0.1ms to ~3s
	}, []string{"dataset"})

	// fitLinearParameters tracks the size of each linear inversion.
	fitLinearParameters = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "lensfish_fit_linear_parameters",
		Help:    "Number of linear light profiles solved for per fit",
		Buckets: []float64{0, 1, 2, 4, 8, 16, 32},
	})
)

const (
	datasetImaging        = "imaging"
	datasetInterferometer = "interferometer"
)
