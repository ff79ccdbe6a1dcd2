package handlers

import "net/http"

// NewRouter assembles the public HTTP surface. metricsHandler and limiter are
// optional.
func NewRouter(rates *HTTPRatesHandler, metricsHandler http.Handler, limiter *RateLimiter) http.Handler {
	mux := http.NewServeMux()
	rates.Register(mux)
	if metricsHandler != nil {
		mux.Handle("GET /metrics", metricsHandler)
	}

	var h http.Handler = mux
	if limiter != nil {
		h = limiter.Handler(h)
	}
	return WithCORS(h)
}
