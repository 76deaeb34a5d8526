package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry держит метрики сервиса. Все методы безопасны для nil-получателя,
// поэтому компоненты можно создавать без метрик в тестах.
type Registry struct {
	reg *prometheus.Registry

	Uploads         *prometheus.CounterVec
	StorageOps      *prometheus.CounterVec
	Autosaves       *prometheus.CounterVec
	OrdersFinalized prometheus.Counter

	TryOnSubmitted    prometheus.Counter
	TryOnOutcomes     *prometheus.CounterVec
	TryOnFallbacks    prometheus.Counter
	TryOnPollAttempts prometheus.Histogram
	WorkerDuration    prometheus.Histogram
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()

	uploads := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_uploads_total",
		Help: "Загрузки фото по результату.",
	}, []string{"scope", "result"})
	storageOps := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_storage_operations_total",
	}, []string{"op", "result"})
	autosaves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_autosaves_total",
	}, []string{"result"})
	finalized := prometheus.NewCounter(prometheus.CounterOpts{Name: "atelier_orders_finalized_total"})

	submitted := prometheus.NewCounter(prometheus.CounterOpts{Name: "atelier_tryon_submitted_total"})
	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atelier_tryon_outcomes_total",
	}, []string{"outcome"})
	fallbacks := prometheus.NewCounter(prometheus.CounterOpts{Name: "atelier_tryon_fallbacks_total"})
	pollAttempts := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "atelier_tryon_poll_attempts",
		Buckets: []float64{1, 2, 5, 10, 15, 20, 30},
	})
	workerDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "atelier_tryon_worker_seconds",
		Buckets: []float64{1, 5, 10, 20, 40, 60, 120},
	})

	r.MustRegister(uploads, storageOps, autosaves, finalized, submitted, outcomes, fallbacks, pollAttempts, workerDuration)

	return &Registry{
		reg:               r,
		Uploads:           uploads,
		StorageOps:        storageOps,
		Autosaves:         autosaves,
		OrdersFinalized:   finalized,
		TryOnSubmitted:    submitted,
		TryOnOutcomes:     outcomes,
		TryOnFallbacks:    fallbacks,
		TryOnPollAttempts: pollAttempts,
		WorkerDuration:    workerDuration,
	}
}

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }

func (r *Registry) ObserveUpload(scope, result string) {
	if r == nil {
		return
	}
	r.Uploads.WithLabelValues(scope, result).Inc()
}

func (r *Registry) ObserveStorage(op string, err error) {
	if r == nil {
		return
	}
	r.StorageOps.WithLabelValues(op, resultLabel(err)).Inc()
}

func (r *Registry) ObserveAutosave(result string) {
	if r == nil {
		return
	}
	r.Autosaves.WithLabelValues(result).Inc()
}

func (r *Registry) ObserveFinalized() {
	if r == nil {
		return
	}
	r.OrdersFinalized.Inc()
}

func (r *Registry) ObserveSubmitted() {
	if r == nil {
		return
	}
	r.TryOnSubmitted.Inc()
}

func (r *Registry) ObserveOutcome(outcome string, attempts int) {
	if r == nil {
		return
	}
	r.TryOnOutcomes.WithLabelValues(outcome).Inc()
	if attempts > 0 {
		r.TryOnPollAttempts.Observe(float64(attempts))
	}
}

func (r *Registry) ObserveFallback() {
	if r == nil {
		return
	}
	r.TryOnFallbacks.Inc()
}

func (r *Registry) ObserveWorker(started time.Time) {
	if r == nil {
		return
	}
	r.WorkerDuration.Observe(time.Since(started).Seconds())
}

func resultLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
