package handler

import (
	"context"

	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/service"
)

// Dispatcher handles one form submission
type Dispatcher interface {
	Handle(ctx context.Context, sub model.FormSubmission) (service.Result, error)
}

// TriggerRegistrar manages form-submit triggers
type TriggerRegistrar interface {
	HandlerName() string
	EnsureRegistered(ctx context.Context, source string) (bool, error)
	IsBound(ctx context.Context, source string) (bool, error)
	List(ctx context.Context) ([]model.Trigger, error)
}

// HealthChecker is a dependency reported by /health and /ready
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Handler holds all HTTP handlers
type Handler struct {
	dispatcher Dispatcher
	triggers   TriggerRegistrar
	checks     map[string]HealthChecker
	log        *logger.Logger
}

// New creates a new Handler instance. checks maps a dependency name to its
// health check.
func New(dispatcher Dispatcher, triggers TriggerRegistrar, checks map[string]HealthChecker, log *logger.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		triggers:   triggers,
		checks:     checks,
		log:        log.WithComponent("handler"),
	}
}
