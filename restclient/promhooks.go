package restclient

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// MetricsHook returns an around hook recording Prometheus metrics for
// every dispatched request: a total counter labeled by method and status
// code (or "error" for transport failures) and a duration histogram
// labeled by method.
//
// Example:
//
//	hook, err := restclient.MetricsHook(prometheus.DefaultRegisterer)
//	if err != nil {
//	    return err
//	}
//	client, err := restclient.New("api.example.com",
//	    restclient.WithAroundHook(hook),
//	)
func MetricsHook(reg prometheus.Registerer) (AroundHook, error) {
	requests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "restclient_requests_total",
			Help: "Total number of dispatched client requests.",
		},
		[]string{"method", "code"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "restclient_request_duration_seconds",
			Help:    "Duration of client requests in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)

	if err := reg.Register(requests); err != nil {
		return nil, err
	}
	if err := reg.Register(duration); err != nil {
		return nil, err
	}

	return func(req *http.Request, next Next) (*Response, error) {
		start := time.Now()
		resp, err := next()
		duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

		code := "error"
		if err == nil && resp != nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		requests.WithLabelValues(req.Method, code).Inc()

		return resp, err
	}, nil
}
