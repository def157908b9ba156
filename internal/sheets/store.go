// Package sheets provides the tabular stores that hold form responses and the error log.
package sheets

import (
	"context"
	"errors"

	"github.com/cyberelites/formmailer/internal/model"
)

// Store errors
var (
	ErrSheetNotFound = errors.New("sheet not found")
	ErrSheetExists   = errors.New("sheet already exists")
)

// Store is a spreadsheet-like collection of named, append-only tables.
type Store interface {
	// FindSheet returns the named sheet or ErrSheetNotFound.
	FindSheet(ctx context.Context, name string) (*model.Sheet, error)
	// CreateSheet creates the named sheet with header as its first row, in one
	// step: no reader ever sees the sheet without its header. When the sheet
	// already exists, or another caller created it first, it returns
	// ErrSheetExists. An empty header creates an empty sheet.
	CreateSheet(ctx context.Context, name string, header []string) (*model.Sheet, error)
	// AppendRow appends one row after the last row of the sheet.
	AppendRow(ctx context.Context, sheet *model.Sheet, values []string) error
}

// RowReader reads rows back from a sheet.
type RowReader interface {
	// ReadRows returns the rows of sheet starting at the zero-based offset.
	ReadRows(ctx context.Context, sheet *model.Sheet, offset int) ([][]string, error)
}

// ReadableStore is a Store whose rows can be read back.
type ReadableStore interface {
	Store
	RowReader
}

func tail(rows [][]string, offset int) [][]string {
	if offset < 0 {
		offset = 0
	}
	if offset >= len(rows) {
		return nil
	}
	return rows[offset:]
}
