package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/okian/outwit/pkg/metrics"
)

// MetricsMiddleware records request count, latency and error class for one
// route. endpoint is the route pattern, so ids never become label values.
func MetricsMiddleware(next http.HandlerFunc, endpoint string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		metrics.RecordHTTPRequest(endpoint, r.Method, strconv.Itoa(sw.status), time.Since(start))
		if sw.status >= http.StatusBadRequest {
			metrics.RecordErrorByComponent("http", errorClass(sw.status))
		}
	}
}

// errorClass buckets a failed status the same way writeServiceError does.
func errorClass(status int) string {
	switch {
	case status == http.StatusServiceUnavailable:
		return codeStorageUnavailable
	case status >= http.StatusInternalServerError:
		return "server_error"
	case status == http.StatusTooManyRequests:
		return codeBackpressure
	case status == http.StatusNotFound:
		return codeNotFound
	default:
		return "client_error"
	}
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
