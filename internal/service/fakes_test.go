package service

import (
	"context"
	"sync"
	"time"

	"github.com/cyberelites/formmailer/internal/email"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/sheets"
)

// mockSender records every message it is asked to send
type mockSender struct {
	sent    []email.Message
	sendErr error
	panics  bool
}

func (m *mockSender) Send(_ context.Context, msg email.Message) error {
	if m.panics {
		panic("transport exploded")
	}
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

// loggedError is one LogError call
type loggedError struct {
	cause     error
	timestamp time.Time
	formData  []string
}

// mockErrorLogger records LogError calls
type mockErrorLogger struct {
	calls []loggedError
	err   error
}

func (m *mockErrorLogger) LogError(_ context.Context, cause error, timestamp time.Time, formData []string) error {
	m.calls = append(m.calls, loggedError{cause: cause, timestamp: timestamp, formData: formData})
	return m.err
}

// memoryStore is an in-memory sheets.Store
type memoryStore struct {
	mu        sync.Mutex
	sheets    map[string]*model.Sheet
	rows      map[string][][]string
	creates   int
	findErr   error
	createErr error
	appendErr error
	// hideNext makes the next FindSheet report the sheet missing, simulating a
	// concurrent creator winning between lookup and create.
	hideNext bool
	// onCreate runs before CreateSheet takes effect, without the lock held.
	onCreate func()
}

func newMemoryStore() *memoryStore {
	return &memoryStore{sheets: map[string]*model.Sheet{}, rows: map[string][][]string{}}
}

func (m *memoryStore) FindSheet(_ context.Context, name string) (*model.Sheet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	if m.hideNext {
		m.hideNext = false
		return nil, sheets.ErrSheetNotFound
	}
	sh, ok := m.sheets[name]
	if !ok {
		return nil, sheets.ErrSheetNotFound
	}
	return sh, nil
}

func (m *memoryStore) CreateSheet(_ context.Context, name string, header []string) (*model.Sheet, error) {
	if m.onCreate != nil {
		hook := m.onCreate
		m.onCreate = nil
		hook()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	if _, ok := m.sheets[name]; ok {
		return nil, sheets.ErrSheetExists
	}
	m.creates++
	sh := &model.Sheet{ID: int64(len(m.sheets) + 1), Name: name}
	m.sheets[name] = sh
	if len(header) > 0 {
		m.rows[name] = [][]string{append([]string(nil), header...)}
	}
	return sh, nil
}

func (m *memoryStore) AppendRow(_ context.Context, sheet *model.Sheet, values []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.rows[sheet.Name] = append(m.rows[sheet.Name], append([]string(nil), values...))
	return nil
}

func (m *memoryStore) ReadRows(_ context.Context, sheet *model.Sheet, offset int) ([][]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows := m.rows[sheet.Name]
	if offset >= len(rows) {
		return nil, nil
	}
	return rows[offset:], nil
}
