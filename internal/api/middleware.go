package api

import (
    "net/http"
    "strconv"
    "time"

    "github.com/go-chi/chi/v5"
    "github.com/go-chi/chi/v5/middleware"
    "github.com/rs/zerolog/log"

    "github.com/hyperifyio/policyscan/internal/metrics"
)

// RequestLogger logs one line per request with zerolog.
func RequestLogger(next http.Handler) http.Handler {
    return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        start := time.Now()
        ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
        next.ServeHTTP(ww, r)
        log.Info().
            Str("method", r.Method).
            Str("path", r.URL.Path).
            Int("status", status(ww)).
            Int("bytes", ww.BytesWritten()).
            Str("request_id", middleware.GetReqID(r.Context())).
            Dur("took", time.Since(start)).
            Msg("request")
    })
}

// Instrument records request counts and durations labelled by route
// pattern, keeping label cardinality bounded.
func Instrument(m *metrics.Metrics) func(http.Handler) http.Handler {
    return func(next http.Handler) http.Handler {
        return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
            start := time.Now()
            ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
            next.ServeHTTP(ww, r)
            path := "unmatched"
            if rc := chi.RouteContext(r.Context()); rc != nil {
                if p := rc.RoutePattern(); p != "" {
                    path = p
                }
            }
            code := strconv.Itoa(status(ww))
            m.HTTPRequestsTotal.WithLabelValues(r.Method, path, code).Inc()
            m.HTTPRequestDuration.WithLabelValues(r.Method, path, code).Observe(time.Since(start).Seconds())
        })
    }
}

func status(ww middleware.WrapResponseWriter) int {
    if s := ww.Status(); s != 0 {
        return s
    }
    return http.StatusOK
}
