package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/sheets"
)

const logSheet = "Error Log Sheet"

var fixedTime = time.Date(2026, 10, 18, 14, 5, 0, 0, time.UTC)

func TestErrorLogService_CreatesSheetWithHeaderOnce(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	svc := NewErrorLogService(store, logSheet, logger.Nop())

	require.NoError(t, svc.LogError(ctx, errors.New("Invalid email format."), fixedTime, []string{"ts", "not-an-email"}))

	assert.Equal(t, 1, store.creates)
	rows := store.rows[logSheet]
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Timestamp", "Error Message", "Form Data"}, rows[0])
	assert.Equal(t, []string{"2026-10-18T14:05:00Z", "Invalid email format.", `["ts","not-an-email"]`}, rows[1])

	require.NoError(t, svc.LogError(ctx, errors.New("quota exceeded"), fixedTime, []string{"ts", "a@b.com"}))

	assert.Equal(t, 1, store.creates)
	rows = store.rows[logSheet]
	require.Len(t, rows, 3)
	assert.Equal(t, "quota exceeded", rows[2][1])
}

func TestErrorLogService_LostCreateRaceWritesNoHeader(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	_, err := store.CreateSheet(ctx, logSheet, model.ErrorLogHeader)
	require.NoError(t, err)
	store.hideNext = true

	svc := NewErrorLogService(store, logSheet, logger.Nop())
	require.NoError(t, svc.LogError(ctx, errors.New("boom"), fixedTime, nil))

	rows := store.rows[logSheet]
	require.Len(t, rows, 2)
	assert.Equal(t, model.ErrorLogHeader, rows[0])
	assert.Equal(t, []string{"2026-10-18T14:05:00Z", "boom", "[]"}, rows[1])
}

func TestErrorLogService_FailedFirstWriteKeepsHeader(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	store.appendErr = errors.New("quota exceeded")
	svc := NewErrorLogService(store, logSheet, logger.Nop())

	require.Error(t, svc.LogError(ctx, errors.New("first"), fixedTime, nil))

	store.appendErr = nil
	require.NoError(t, svc.LogError(ctx, errors.New("second"), fixedTime, nil))

	assert.Equal(t, 1, store.creates)
	rows := store.rows[logSheet]
	require.Len(t, rows, 2)
	assert.Equal(t, model.ErrorLogHeader, rows[0])
	assert.Equal(t, "second", rows[1][1])
}

func TestErrorLogService_ConcurrentWriterLandsAfterHeader(t *testing.T) {
	ctx := context.Background()
	store := newMemoryStore()
	winner := NewErrorLogService(store, logSheet, logger.Nop())
	loser := NewErrorLogService(store, logSheet, logger.Nop())

	// The loser finds the sheet missing, then the winner creates it before
	// the loser's create runs.
	store.onCreate = func() {
		require.NoError(t, winner.LogError(ctx, errors.New("winner"), fixedTime, nil))
	}
	require.NoError(t, loser.LogError(ctx, errors.New("loser"), fixedTime, nil))

	assert.Equal(t, 1, store.creates)
	rows := store.rows[logSheet]
	require.Len(t, rows, 3)
	assert.Equal(t, model.ErrorLogHeader, rows[0])
	assert.Equal(t, "winner", rows[1][1])
	assert.Equal(t, "loser", rows[2][1])
}

func TestErrorLogService_StoreFailuresPropagate(t *testing.T) {
	ctx := context.Background()

	store := newMemoryStore()
	store.findErr = errors.New("permission denied")
	svc := NewErrorLogService(store, logSheet, logger.Nop())
	assert.Error(t, svc.LogError(ctx, errors.New("x"), fixedTime, nil))

	store = newMemoryStore()
	store.appendErr = errors.New("quota")
	svc = NewErrorLogService(store, logSheet, logger.Nop())
	assert.Error(t, svc.LogError(ctx, errors.New("x"), fixedTime, nil))

	store = newMemoryStore()
	store.createErr = errors.New("permission denied")
	svc = NewErrorLogService(store, logSheet, logger.Nop())
	assert.Error(t, svc.LogError(ctx, errors.New("x"), fixedTime, nil))
	assert.Empty(t, store.rows[logSheet])
}

func TestErrorLogService_XLSXStore(t *testing.T) {
	ctx := context.Background()
	store, err := sheets.NewXLSXStore(filepath.Join(t.TempDir(), "responses.xlsx"))
	require.NoError(t, err)
	defer store.Close()

	svc := NewErrorLogService(store, logSheet, logger.Nop())
	require.NoError(t, svc.LogError(ctx, ErrInvalidEmail, fixedTime, []string{"ts", "not-an-email", "Jane"}))
	require.NoError(t, svc.LogError(ctx, ErrInvalidEmail, fixedTime, []string{"ts", "nope", "Joe"}))

	sheet, err := store.FindSheet(ctx, logSheet)
	require.NoError(t, err)
	rows, err := store.ReadRows(ctx, sheet, 0)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, model.ErrorLogHeader, rows[0])
	assert.Equal(t, `["ts","not-an-email","Jane"]`, rows[1][2])
	assert.Equal(t, `["ts","nope","Joe"]`, rows[2][2])
}
