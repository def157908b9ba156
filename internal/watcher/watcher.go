// Package watcher polls the responses sheet and dispatches rows appended since
// the last poll, in order.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/service"
	"github.com/cyberelites/formmailer/internal/sheets"
)

// Dispatcher handles one submission
type Dispatcher interface {
	Handle(ctx context.Context, sub model.FormSubmission) (service.Result, error)
}

// BindingChecker reports whether a trigger is registered for a source
type BindingChecker interface {
	IsBound(ctx context.Context, source string) (bool, error)
}

// CursorStore persists how many rows of a sheet have been processed
type CursorStore interface {
	Load(ctx context.Context, key string) (int, error)
	Save(ctx context.Context, key string, position int) error
}

// Config holds the watcher settings
type Config struct {
	Source         string
	ResponsesSheet string
	// HeaderRows is the number of leading rows that are never dispatched
	HeaderRows int
	Interval   time.Duration
}

// Watcher is the row-append event source for one spreadsheet.
type Watcher struct {
	store      sheets.ReadableStore
	dispatcher Dispatcher
	bindings   BindingChecker
	cursors    CursorStore
	cfg        Config
	now        func() time.Time
	log        *logger.Logger
}

// New creates a new Watcher
func New(store sheets.ReadableStore, dispatcher Dispatcher, bindings BindingChecker, cursors CursorStore, cfg Config, log *logger.Logger) *Watcher {
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}
	if cfg.HeaderRows < 0 {
		cfg.HeaderRows = 0
	}
	return &Watcher{
		store:      store,
		dispatcher: dispatcher,
		bindings:   bindings,
		cursors:    cursors,
		cfg:        cfg,
		now:        time.Now,
		log:        log.WithComponent("watcher").WithSource(cfg.Source),
	}
}

// Run polls until ctx is cancelled
func (w *Watcher) Run(ctx context.Context) error {
	w.log.Info().
		Str("sheet", w.cfg.ResponsesSheet).
		Dur("interval", w.cfg.Interval).
		Msg("watching responses sheet")

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	for {
		if n, err := w.PollOnce(ctx); err != nil {
			w.log.Error().Err(err).Int("dispatched", n).Msg("poll failed")
		} else if n > 0 {
			w.log.Info().Int("dispatched", n).Msg("poll complete")
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("watcher stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// PollOnce dispatches every row appended since the stored cursor and returns
// how many rows were dispatched.
func (w *Watcher) PollOnce(ctx context.Context) (int, error) {
	bound, err := w.bindings.IsBound(ctx, w.cfg.Source)
	if err != nil {
		return 0, err
	}
	if !bound {
		w.log.Debug().Msg("no trigger registered for source, skipping poll")
		return 0, nil
	}

	sheet, err := w.store.FindSheet(ctx, w.cfg.ResponsesSheet)
	if errors.Is(err, sheets.ErrSheetNotFound) {
		w.log.Warn().Str("sheet", w.cfg.ResponsesSheet).Msg("responses sheet not found")
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	key := w.cursorKey()
	cursor, err := w.cursors.Load(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("failed to load cursor: %w", err)
	}
	if cursor < w.cfg.HeaderRows {
		cursor = w.cfg.HeaderRows
	}

	rows, err := w.store.ReadRows(ctx, sheet, cursor)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 && cursor > w.cfg.HeaderRows {
		w.checkCursor(ctx, sheet, cursor)
	}

	dispatched := 0
	for _, row := range rows {
		if ctx.Err() != nil {
			return dispatched, nil
		}

		sub := model.FormSubmission{
			Source:     w.cfg.Source,
			Values:     row,
			ReceivedAt: w.now(),
		}
		if _, err := w.dispatcher.Handle(ctx, sub); err != nil {
			return dispatched, fmt.Errorf("row %d: %w", cursor+1, err)
		}

		cursor++
		dispatched++
		if err := w.cursors.Save(ctx, key, cursor); err != nil {
			return dispatched, fmt.Errorf("failed to save cursor: %w", err)
		}
	}
	return dispatched, nil
}

// checkCursor warns when rows were deleted from the sheet: the cursor then
// points past the last row and new responses go unseen until it catches up.
func (w *Watcher) checkCursor(ctx context.Context, sheet *model.Sheet, cursor int) {
	all, err := w.store.ReadRows(ctx, sheet, 0)
	if err != nil {
		w.log.Debug().Err(err).Msg("failed to count responses rows")
		return
	}
	if len(all) < cursor {
		w.log.Warn().
			Int("cursor", cursor).
			Int("rows", len(all)).
			Str("cursor_key", cursorKeyPrefix+w.cursorKey()).
			Msg("cursor is past the end of the responses sheet, rows were deleted; new rows are skipped until the cursor is reset")
	}
}

func (w *Watcher) cursorKey() string {
	return fmt.Sprintf("%s:%s", w.cfg.Source, w.cfg.ResponsesSheet)
}
