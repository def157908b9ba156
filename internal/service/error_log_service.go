package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/sheets"
)

// ErrorLogService appends failed dispatch attempts to the error log sheet,
// creating the sheet and its header on first use.
type ErrorLogService struct {
	store     sheets.Store
	sheetName string
	log       *logger.Logger
}

// NewErrorLogService creates a new ErrorLogService
func NewErrorLogService(store sheets.Store, sheetName string, log *logger.Logger) *ErrorLogService {
	return &ErrorLogService{
		store:     store,
		sheetName: sheetName,
		log:       log.WithComponent("error_log"),
	}
}

// LogError appends one row describing cause. Errors from the store are returned
// to the caller unhandled.
func (s *ErrorLogService) LogError(ctx context.Context, cause error, timestamp time.Time, formData []string) error {
	sheet, err := s.ensureSheet(ctx)
	if err != nil {
		return err
	}

	message := ""
	if cause != nil {
		message = cause.Error()
	}
	entry := model.ErrorLogEntry{
		Timestamp: timestamp,
		Message:   message,
		FormData:  model.FormSubmission{Values: formData}.RawJSON(),
	}

	if err := s.store.AppendRow(ctx, sheet, entry.Row()); err != nil {
		return fmt.Errorf("failed to append error log entry: %w", err)
	}
	return nil
}

// ensureSheet returns the log sheet. The header is created together with the
// sheet, so it is always the first row and appears exactly once.
func (s *ErrorLogService) ensureSheet(ctx context.Context) (*model.Sheet, error) {
	sheet, err := s.store.FindSheet(ctx, s.sheetName)
	if err == nil {
		return sheet, nil
	}
	if !errors.Is(err, sheets.ErrSheetNotFound) {
		return nil, fmt.Errorf("failed to look up error log sheet: %w", err)
	}

	sheet, err = s.store.CreateSheet(ctx, s.sheetName, model.ErrorLogHeader)
	switch {
	case err == nil:
		s.log.Info().Str("sheet", s.sheetName).Msg("error log sheet created")
		return sheet, nil
	case errors.Is(err, sheets.ErrSheetExists):
		sheet, err = s.store.FindSheet(ctx, s.sheetName)
		if err != nil {
			return nil, fmt.Errorf("failed to look up error log sheet: %w", err)
		}
		return sheet, nil
	default:
		return nil, fmt.Errorf("failed to create error log sheet: %w", err)
	}
}
