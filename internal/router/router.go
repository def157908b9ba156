package router

import (
	"net/http"
	"time"

	"github.com/cyberelites/formmailer/internal/handler"
	"github.com/cyberelites/formmailer/internal/middleware"
)

// RateLimit configures the submission rate limit
type RateLimit struct {
	Limit  int
	Window time.Duration
}

// New creates and configures the HTTP router
func New(h *handler.Handler, mw *middleware.Middleware, submissionLimit RateLimit) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoints
	mux.HandleFunc("GET /health", h.Health)
	mux.HandleFunc("GET /ready", h.Ready)

	// API v1 routes
	mux.HandleFunc("GET /api/v1/{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"message":"formmailer API v1","version":"0.1.0"}`))
	})

	// Form submissions (rate limited per client IP)
	submitRateLimit := mw.RateLimit(middleware.RateLimitConfig{
		Limit:  submissionLimit.Limit,
		Window: submissionLimit.Window,
		KeyFn:  middleware.IPKey,
	})
	mux.Handle("POST /api/v1/sources/{source}/submissions", submitRateLimit(http.HandlerFunc(h.SubmitForm)))

	// Trigger management
	mux.HandleFunc("GET /api/v1/triggers", h.ListTriggers)
	mux.HandleFunc("POST /api/v1/triggers", h.RegisterTrigger)

	// Apply middleware stack
	var handler http.Handler = mux

	// Request logging
	handler = mw.Logger(handler)

	// Timing
	handler = mw.Timing(handler)

	// Client address, before anything keys on it
	handler = mw.ClientIP(handler)

	// Request ID
	handler = mw.RequestID(handler)

	// Panic recovery (outermost)
	handler = mw.Recover(handler)

	return handler
}
