// Package trigger binds form-submit event sources to the dispatcher entry point.
package trigger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/model"
)

var (
	// ErrSourceRequired is returned when a registration names no event source
	ErrSourceRequired = errors.New("trigger source is required")
	// ErrRegistrationPending is returned while another caller holds the claim
	// for a source that has no trigger yet.
	ErrRegistrationPending = errors.New("trigger registration in progress")
)

// DefaultClaimTTL bounds how long an unfinished claim blocks other callers.
const DefaultClaimTTL = 30 * time.Second

// Registry is the host-managed list of triggers.
type Registry interface {
	ListTriggers(ctx context.Context) ([]model.Trigger, error)
	CreateFormSubmitTrigger(ctx context.Context, handlerName, source string) (model.Trigger, error)
}

// FlagStore persists registration flags.
//
// A claim expires after ttl unless Settle is called, so a caller that dies
// between claim and create cannot leave the flag behind.
type FlagStore interface {
	// Claim sets the flag with a TTL and reports whether this call set it.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
	// Settle makes a claimed flag permanent.
	Settle(ctx context.Context, key string) error
	Clear(ctx context.Context, key string) error
}

// Registrar performs idempotent trigger registration for one handler.
type Registrar struct {
	registry    Registry
	flags       FlagStore
	handlerName string
	claimTTL    time.Duration
	log         *logger.Logger
}

// NewRegistrar creates a Registrar for handlerName
func NewRegistrar(registry Registry, flags FlagStore, handlerName string, log *logger.Logger) *Registrar {
	return &Registrar{
		registry:    registry,
		flags:       flags,
		handlerName: handlerName,
		claimTTL:    DefaultClaimTTL,
		log:         log.WithComponent("trigger"),
	}
}

// HandlerName returns the entry point triggers are bound to
func (r *Registrar) HandlerName() string {
	return r.handlerName
}

// EnsureRegistered makes sure exactly one form-submit trigger binds source to
// the handler. It reports whether a trigger was created by this call.
//
// The flag is claimed before anything else, so only one caller can reach the
// create step. The claim becomes permanent once the trigger exists. A caller
// that finds the flag already set still confirms the binding, and gets
// ErrRegistrationPending while the claim holder has not finished.
func (r *Registrar) EnsureRegistered(ctx context.Context, source string) (bool, error) {
	if source == "" {
		return false, ErrSourceRequired
	}

	key := r.flagKey(source)
	claimed, err := r.flags.Claim(ctx, key, r.claimTTL)
	if err != nil {
		return false, fmt.Errorf("failed to claim trigger flag: %w", err)
	}

	bound, err := r.IsBound(ctx, source)
	if err != nil {
		if claimed {
			r.release(ctx, key)
		}
		return false, err
	}

	if !claimed {
		if !bound {
			r.log.Warn().Str("source", source).Msg("trigger flag set but no trigger bound")
			return false, ErrRegistrationPending
		}
		r.log.Debug().Str("source", source).Msg("trigger already registered")
		return false, nil
	}

	// Triggers created before the flag existed
	if bound {
		r.settle(ctx, key)
		r.log.Info().Str("source", source).Msg("trigger already exists")
		return false, nil
	}

	t, err := r.registry.CreateFormSubmitTrigger(ctx, r.handlerName, source)
	if err != nil {
		r.release(ctx, key)
		return false, fmt.Errorf("failed to create trigger: %w", err)
	}
	r.settle(ctx, key)

	r.log.Info().
		Str("trigger_id", t.ID).
		Str("handler", t.HandlerName).
		Str("source", source).
		Msg("form submit trigger created")
	return true, nil
}

// IsBound reports whether a trigger binds source to the handler
func (r *Registrar) IsBound(ctx context.Context, source string) (bool, error) {
	triggers, err := r.registry.ListTriggers(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to list triggers: %w", err)
	}
	for _, t := range triggers {
		if t.Matches(r.handlerName, source) {
			return true, nil
		}
	}
	return false, nil
}

// List returns every registered trigger
func (r *Registrar) List(ctx context.Context) ([]model.Trigger, error) {
	triggers, err := r.registry.ListTriggers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list triggers: %w", err)
	}
	return triggers, nil
}

// release and settle outlive the caller's context; a cancelled request must
// not strand the flag.
func (r *Registrar) release(ctx context.Context, key string) {
	if err := r.flags.Clear(context.WithoutCancel(ctx), key); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("failed to release trigger flag")
	}
}

// A failed settle leaves the claim to expire; the next call re-checks the
// registry and settles again.
func (r *Registrar) settle(ctx context.Context, key string) {
	if err := r.flags.Settle(context.WithoutCancel(ctx), key); err != nil {
		r.log.Warn().Err(err).Str("key", key).Msg("failed to settle trigger flag")
	}
}

func (r *Registrar) flagKey(source string) string {
	return fmt.Sprintf("%s:%s", r.handlerName, source)
}
