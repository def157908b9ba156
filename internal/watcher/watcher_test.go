package watcher

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberelites/formmailer/internal/logger"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/service"
	"github.com/cyberelites/formmailer/internal/sheets"
)

type mockDispatcher struct {
	mu      sync.Mutex
	handled []model.FormSubmission
	failAt  int
}

func (m *mockDispatcher) Handle(_ context.Context, sub model.FormSubmission) (service.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAt > 0 && len(m.handled)+1 == m.failAt {
		return service.Result{}, errors.New("error log unavailable")
	}
	m.handled = append(m.handled, sub)
	return service.Result{Sent: true}, nil
}

func (m *mockDispatcher) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.handled)
}

type staticBindings bool

func (b staticBindings) IsBound(context.Context, string) (bool, error) {
	return bool(b), nil
}

type fakeRedis map[string]string

func (f fakeRedis) GetString(_ context.Context, key string) (string, error) {
	v, ok := f[key]
	if !ok {
		return "", redis.Nil
	}
	return v, nil
}

func (f fakeRedis) SetString(_ context.Context, key, value string) error {
	f[key] = value
	return nil
}

func newResponsesStore(t *testing.T, rows ...[]string) (*sheets.XLSXStore, *model.Sheet) {
	t.Helper()
	ctx := context.Background()
	store, err := sheets.NewXLSXStore(filepath.Join(t.TempDir(), "responses.xlsx"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	sheet, err := store.CreateSheet(ctx, "Form Responses 1", []string{"Timestamp", "Email Address", "Full Name"})
	require.NoError(t, err)
	for _, r := range rows {
		require.NoError(t, store.AppendRow(ctx, sheet, r))
	}
	return store, sheet
}

func testConfig() Config {
	return Config{Source: "sheet-1", ResponsesSheet: "Form Responses 1", HeaderRows: 1, Interval: time.Millisecond}
}

func TestPollOnce_DispatchesNewRowsInOrder(t *testing.T) {
	ctx := context.Background()
	store, sheet := newResponsesStore(t,
		[]string{"ts1", "a@b.com", "Jane Doe"},
		[]string{"ts2", "c@d.org", "John Roe"},
	)
	disp := &mockDispatcher{}
	w := New(store, disp, staticBindings(true), NewRedisCursorStore(fakeRedis{}), testConfig(), logger.Nop())

	n, err := w.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, disp.handled, 2)
	assert.Equal(t, "a@b.com", disp.handled[0].Values[1])
	assert.Equal(t, "c@d.org", disp.handled[1].Values[1])
	assert.Equal(t, "sheet-1", disp.handled[0].Source)

	// Nothing new
	n, err = w.PollOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// One more row appended
	require.NoError(t, store.AppendRow(ctx, sheet, []string{"ts3", "e@f.net", "Ann"}))
	n, err = w.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "e@f.net", disp.handled[2].Values[1])
}

func TestPollOnce_UnboundSourceIsSkipped(t *testing.T) {
	store, _ := newResponsesStore(t, []string{"ts1", "a@b.com"})
	disp := &mockDispatcher{}
	w := New(store, disp, staticBindings(false), NewRedisCursorStore(fakeRedis{}), testConfig(), logger.Nop())

	n, err := w.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, disp.handled)
}

func TestPollOnce_MissingSheet(t *testing.T) {
	store, err := sheets.NewXLSXStore(filepath.Join(t.TempDir(), "empty.xlsx"))
	require.NoError(t, err)
	defer store.Close()

	w := New(store, &mockDispatcher{}, staticBindings(true), NewRedisCursorStore(fakeRedis{}), testConfig(), logger.Nop())

	n, err := w.PollOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestPollOnce_StopsAtFailureAndRetriesRow(t *testing.T) {
	ctx := context.Background()
	store, _ := newResponsesStore(t,
		[]string{"ts1", "a@b.com"},
		[]string{"ts2", "c@d.org"},
	)
	disp := &mockDispatcher{failAt: 2}
	cursors := fakeRedis{}
	w := New(store, disp, staticBindings(true), NewRedisCursorStore(cursors), testConfig(), logger.Nop())

	n, err := w.PollOnce(ctx)
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "2", cursors[cursorKeyPrefix+"sheet-1:Form Responses 1"])

	disp.failAt = 0
	n, err = w.PollOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, "c@d.org", disp.handled[1].Values[1])
}

func TestPollOnce_WarnsWhenCursorPastEnd(t *testing.T) {
	ctx := context.Background()
	store, _ := newResponsesStore(t, []string{"ts1", "a@b.com"})
	cursors := fakeRedis{cursorKeyPrefix + "sheet-1:Form Responses 1": "5"}

	var buf bytes.Buffer
	w := New(store, &mockDispatcher{}, staticBindings(true), NewRedisCursorStore(cursors), testConfig(), logger.NewWithWriter(&buf, "info", "json"))

	n, err := w.PollOnce(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Contains(t, buf.String(), "cursor is past the end of the responses sheet")
	assert.Contains(t, buf.String(), `"cursor":5`)
	assert.Contains(t, buf.String(), `"rows":2`)
}

func TestPollOnce_CaughtUpCursorIsQuiet(t *testing.T) {
	ctx := context.Background()
	store, _ := newResponsesStore(t, []string{"ts1", "a@b.com"})

	var buf bytes.Buffer
	w := New(store, &mockDispatcher{}, staticBindings(true), NewRedisCursorStore(fakeRedis{}), testConfig(), logger.NewWithWriter(&buf, "info", "json"))

	_, err := w.PollOnce(ctx)
	require.NoError(t, err)
	_, err = w.PollOnce(ctx)
	require.NoError(t, err)
	assert.NotContains(t, buf.String(), "cursor is past the end")
}

func TestRun_StopsOnCancel(t *testing.T) {
	store, _ := newResponsesStore(t, []string{"ts1", "a@b.com"})
	disp := &mockDispatcher{}
	w := New(store, disp, staticBindings(true), NewRedisCursorStore(fakeRedis{}), testConfig(), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	require.Eventually(t, func() bool { return disp.count() == 1 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestRedisCursorStore(t *testing.T) {
	ctx := context.Background()
	rdb := fakeRedis{}
	cursors := NewRedisCursorStore(rdb)

	pos, err := cursors.Load(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, pos)

	require.NoError(t, cursors.Save(ctx, "k", 7))
	pos, err = cursors.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 7, pos)

	rdb[cursorKeyPrefix+"bad"] = "seven"
	_, err = cursors.Load(ctx, "bad")
	assert.Error(t, err)
}
