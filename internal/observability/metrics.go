package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jobmetrics "github.com/godown-ops/godown/internal/jobs"
)

// Metrics mengumpulkan metrik Prometheus untuk aplikasi.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	tripsCreated    prometheus.Counter
	tripsVerified   prometheus.Counter
	unitsSold       prometheus.Counter
	billsGenerated  prometheus.Counter
	rejections      *prometheus.CounterVec
	jobs            *jobmetrics.Metrics
}

// NewMetrics menginisialisasi registry, metrik HTTP, metrik domain dan metrik job.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "godown_http_requests_total",
		Help: "Jumlah permintaan HTTP berdasarkan route dan status.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "godown_http_request_duration_seconds",
		Help:    "Durasi permintaan HTTP per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	created := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "godown_trips_created_total",
		Help: "Jumlah trip yang berhasil dimuat.",
	})
	verified := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "godown_trips_verified_total",
		Help: "Jumlah trip yang sudah diverifikasi.",
	})
	sold := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "godown_units_sold_total",
		Help: "Unit terjual (dimuat dikurangi retur) dari trip terverifikasi.",
	})
	bills := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "godown_bills_generated_total",
		Help: "Jumlah tagihan yang dibuat.",
	})
	rejections := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "godown_domain_rejections_total",
		Help: "Operasi yang ditolak karena aturan domain, per kode error.",
	}, []string{"operation", "code"})
	registry.MustRegister(requests, duration, created, verified, sold, bills, rejections)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		tripsCreated:    created,
		tripsVerified:   verified,
		unitsSold:       sold,
		billsGenerated:  bills,
		rejections:      rejections,
		jobs:            jobmetrics.NewMetrics(registry),
	}
}

// Handler mengembalikan http.Handler untuk endpoint /metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware mencatat metrik untuk setiap permintaan HTTP.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// Jobs mengembalikan metrik job yang terdaftar di registry yang sama.
func (m *Metrics) Jobs() *jobmetrics.Metrics {
	if m == nil {
		return nil
	}
	return m.jobs
}

// TripCreated mencatat trip baru.
func (m *Metrics) TripCreated() {
	if m == nil {
		return
	}
	m.tripsCreated.Inc()
}

// TripVerified mencatat verifikasi trip beserta unit yang terjual.
func (m *Metrics) TripVerified(sold int64) {
	if m == nil {
		return
	}
	m.tripsVerified.Inc()
	if sold > 0 {
		m.unitsSold.Add(float64(sold))
	}
}

// BillGenerated mencatat tagihan baru.
func (m *Metrics) BillGenerated() {
	if m == nil {
		return
	}
	m.billsGenerated.Inc()
}

// Rejected mencatat penolakan domain seperti stok kurang atau kendaraan sibuk.
func (m *Metrics) Rejected(operation, code string) {
	if m == nil || code == "" {
		return
	}
	m.rejections.WithLabelValues(operation, code).Inc()
}

// Registerer mengekspos registry untuk pendaftaran metrik khusus.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
