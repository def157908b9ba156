package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyberelites/formmailer/internal/email"
	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/submission"
	"github.com/cyberelites/formmailer/internal/validation"
)

// ErrInvalidEmail is the cause of an InvalidEmail failure
var ErrInvalidEmail = errors.New("Invalid email format.")

// FailureKind classifies why a submission was not confirmed
type FailureKind string

const (
	FailureInvalidEmail        FailureKind = "invalid_email"
	FailureDeliveryFailed      FailureKind = "delivery_failed"
	FailureMalformedSubmission FailureKind = "malformed_submission"
	FailureUnexpected          FailureKind = "unexpected"
)

// DispatchFailure describes a submission that was logged instead of confirmed.
// Its message is what lands in the error log.
type DispatchFailure struct {
	Kind  FailureKind
	Cause error
}

func (f *DispatchFailure) Error() string {
	if f.Cause == nil {
		return string(f.Kind)
	}
	return f.Cause.Error()
}

func (f *DispatchFailure) Unwrap() error {
	return f.Cause
}

// Result is the outcome of one dispatch: either Sent or a Failure, never both.
type Result struct {
	Sent    bool
	Failure *DispatchFailure
}

// ErrorLogger records failed dispatch attempts
type ErrorLogger interface {
	LogError(ctx context.Context, cause error, timestamp time.Time, formData []string) error
}

// DispatchConfig holds the fixed message settings
type DispatchConfig struct {
	Subject     string
	IncludeText bool
}

// DispatchService turns form submissions into confirmation emails.
type DispatchService struct {
	sender   email.Sender
	renderer *email.Renderer
	errorLog ErrorLogger
	cfg      DispatchConfig
	now      func() time.Time
	log      *logger.Logger
}

// NewDispatchService creates a new DispatchService
func NewDispatchService(sender email.Sender, renderer *email.Renderer, errorLog ErrorLogger, cfg DispatchConfig, log *logger.Logger) *DispatchService {
	if cfg.Subject == "" {
		cfg.Subject = email.ConfirmationSubject
	}
	return &DispatchService{
		sender:   sender,
		renderer: renderer,
		errorLog: errorLog,
		cfg:      cfg,
		now:      time.Now,
		log:      log.WithComponent("dispatcher"),
	}
}

// Handle sends the confirmation for sub, or records exactly one error log
// entry when that is not possible. The returned error is non-nil only when the
// error log itself could not be written.
func (s *DispatchService) Handle(ctx context.Context, sub model.FormSubmission) (Result, error) {
	recipient, res := s.dispatch(ctx, sub)
	if res.Sent {
		s.log.WithSource(sub.Source).DispatchOutcome(recipient, true, "")
		return res, nil
	}

	if err := s.errorLog.LogError(ctx, res.Failure, s.now(), sub.Values); err != nil {
		s.log.Error().Err(err).
			Str("source", sub.Source).
			Str("failure", res.Failure.Error()).
			Msg("failed to record dispatch failure")
		return res, fmt.Errorf("failed to record dispatch failure: %w", err)
	}

	s.log.WithSource(sub.Source).DispatchOutcome(recipient, false, res.Failure.Error())
	return res, nil
}

func (s *DispatchService) dispatch(ctx context.Context, sub model.FormSubmission) (recipient string, res Result) {
	defer func() {
		if p := recover(); p != nil {
			res = failed(FailureUnexpected, fmt.Errorf("panic during dispatch: %v", p))
		}
	}()

	fields, err := submission.Extract(sub)
	if err != nil {
		return "", failed(FailureMalformedSubmission, err)
	}
	recipient = fields.Email

	if !validation.IsValidEmail(fields.Email) {
		return recipient, failed(FailureInvalidEmail, ErrInvalidEmail)
	}

	msg := email.Message{
		To:       fields.Email,
		Subject:  s.cfg.Subject,
		HTMLBody: s.renderer.Render(fields.GreetingName(), fields.Email),
	}
	if s.cfg.IncludeText {
		msg.TextBody = s.renderer.RenderText(fields.GreetingName(), fields.Email)
	}

	if err := s.sender.Send(ctx, msg); err != nil {
		return recipient, failed(FailureDeliveryFailed, err)
	}
	return recipient, Result{Sent: true}
}

func failed(kind FailureKind, cause error) Result {
	return Result{Failure: &DispatchFailure{Kind: kind, Cause: cause}}
}
