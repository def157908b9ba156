package sheets

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/xuri/excelize/v2"

	"github.com/cyberelites/formmailer/internal/model"
)

// XLSXStore implements ReadableStore on a local workbook file. Every mutation
// is written back to disk before it returns.
type XLSXStore struct {
	mu   sync.Mutex
	path string
	file *excelize.File
}

// NewXLSXStore opens the workbook at path, creating it when missing.
func NewXLSXStore(path string) (*XLSXStore, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("xlsx: failed to open %s: %w", path, err)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("xlsx: failed to create directory: %w", err)
		}
		f = excelize.NewFile()
		if err := f.SaveAs(path); err != nil {
			return nil, fmt.Errorf("xlsx: failed to create %s: %w", path, err)
		}
	}
	return &XLSXStore{path: path, file: f}, nil
}

// FindSheet looks the sheet up by name.
func (s *XLSXStore) FindSheet(_ context.Context, name string) (*model.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.find(name)
}

func (s *XLSXStore) find(name string) (*model.Sheet, error) {
	idx, err := s.file.GetSheetIndex(name)
	if err != nil {
		return nil, fmt.Errorf("xlsx: failed to look up sheet %q: %w", name, err)
	}
	if idx < 0 {
		return nil, ErrSheetNotFound
	}
	return &model.Sheet{ID: int64(idx), Name: name}, nil
}

// CreateSheet adds a worksheet with its header row; the store mutex makes
// check, create and header a single step.
func (s *XLSXStore) CreateSheet(_ context.Context, name string, header []string) (*model.Sheet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.find(name); err == nil {
		return nil, ErrSheetExists
	} else if !errors.Is(err, ErrSheetNotFound) {
		return nil, err
	}

	idx, err := s.file.NewSheet(name)
	if err != nil {
		return nil, fmt.Errorf("xlsx: failed to add sheet %q: %w", name, err)
	}
	if len(header) > 0 {
		if err := s.file.SetSheetRow(name, "A1", &header); err != nil {
			_ = s.file.DeleteSheet(name)
			return nil, fmt.Errorf("xlsx: failed to write header of %q: %w", name, err)
		}
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return nil, fmt.Errorf("xlsx: failed to save: %w", err)
	}
	return &model.Sheet{ID: int64(idx), Name: name}, nil
}

// AppendRow writes values into the first row after the last non-empty one.
func (s *XLSXStore) AppendRow(_ context.Context, sheet *model.Sheet, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(sheet.Name)
	if err != nil {
		return fmt.Errorf("xlsx: failed to read %q: %w", sheet.Name, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("xlsx: %w", err)
	}

	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}
	if err := s.file.SetSheetRow(sheet.Name, cell, &row); err != nil {
		return fmt.Errorf("xlsx: failed to write row to %q: %w", sheet.Name, err)
	}
	if err := s.file.SaveAs(s.path); err != nil {
		return fmt.Errorf("xlsx: failed to save: %w", err)
	}
	return nil
}

// ReadRows returns the rows of the sheet from offset on.
func (s *XLSXStore) ReadRows(_ context.Context, sheet *model.Sheet, offset int) ([][]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.file.GetRows(sheet.Name)
	if err != nil {
		return nil, fmt.Errorf("xlsx: failed to read %q: %w", sheet.Name, err)
	}
	return tail(rows, offset), nil
}

// Close releases the workbook.
func (s *XLSXStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
