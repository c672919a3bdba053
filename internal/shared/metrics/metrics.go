package metrics

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	registry = prometheus.NewRegistry()

	uploadsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_uploads_total",
		Help: "Files uploaded",
	})
	uploadsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_uploads_failed_total",
		Help: "Uploads that failed",
	})
	deletesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_deletes_total",
		Help: "Files deleted",
	})
	deletesFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_deletes_failed_total",
		Help: "Deletes that failed",
	})
	processStartedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_process_started_total",
		Help: "Processing requests sent",
	})
	processFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_process_failed_total",
		Help: "Processing requests that failed",
	})
	signInsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_signins_total",
		Help: "Successful sign-ins",
	})
	signInsFailedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "portal_signins_failed_total",
		Help: "Rejected sign-ins",
	})

	processDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "portal_process_duration_seconds",
		Help:    "Processing round-trip in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
	})
)

func init() {
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		uploadsTotal,
		uploadsFailedTotal,
		deletesTotal,
		deletesFailedTotal,
		processStartedTotal,
		processFailedTotal,
		signInsTotal,
		signInsFailedTotal,
		processDuration,
	)
}

// IncUpload records a completed upload.
func IncUpload() { uploadsTotal.Inc() }

// IncUploadFailed records a failed upload.
func IncUploadFailed() { uploadsFailedTotal.Inc() }

// IncDelete records a confirmed delete that succeeded.
func IncDelete() { deletesTotal.Inc() }

// IncDeleteFailed records a confirmed delete that failed.
func IncDeleteFailed() { deletesFailedTotal.Inc() }

// IncProcessStarted records a processing request sent to the backend.
func IncProcessStarted() { processStartedTotal.Inc() }

// IncProcessFailed records a processing request that did not succeed.
func IncProcessFailed() { processFailedTotal.Inc() }

// IncSignIn records a session transition into SignedIn.
func IncSignIn() { signInsTotal.Inc() }

// IncSignInFailed records a rejected sign-in or sign-up.
func IncSignInFailed() { signInsFailedTotal.Inc() }

// ObserveProcessDuration records a processing round-trip.
func ObserveProcessDuration(d time.Duration) {
	if d < 0 {
		d = 0
	}
	processDuration.Observe(d.Seconds())
}

// Handler exposes the portal registry in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
}
