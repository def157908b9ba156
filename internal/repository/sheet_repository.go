package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cyberelites/formmailer/internal/database"
	"github.com/cyberelites/formmailer/internal/model"
	"github.com/cyberelites/formmailer/internal/sheets"
)

// SheetRepository stores sheets and their rows in PostgreSQL. It satisfies
// sheets.ReadableStore.
type SheetRepository struct {
	db *database.Postgres
}

// NewSheetRepository creates a new SheetRepository
func NewSheetRepository(db *database.Postgres) *SheetRepository {
	return &SheetRepository{db: db}
}

// FindSheet retrieves a sheet by name
func (r *SheetRepository) FindSheet(ctx context.Context, name string) (*model.Sheet, error) {
	query := `SELECT id, name FROM sheets WHERE name = $1`

	var sheet model.Sheet
	err := r.db.QueryRowContext(ctx, query, name).Scan(&sheet.ID, &sheet.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sheets.ErrSheetNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get sheet: %w", err)
	}
	return &sheet, nil
}

// CreateSheet inserts a sheet and its header row in one transaction; the
// unique name constraint decides the winner when several callers race.
func (r *SheetRepository) CreateSheet(ctx context.Context, name string, header []string) (*model.Sheet, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO sheets (name, created_at)
		VALUES ($1, NOW())
		ON CONFLICT (name) DO NOTHING
		RETURNING id
	`
	sheet := model.Sheet{Name: name}
	err = tx.QueryRowContext(ctx, query, name).Scan(&sheet.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sheets.ErrSheetExists
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create sheet: %w", err)
	}

	if len(header) > 0 {
		if err := insertRow(ctx, tx, sheet.ID, header); err != nil {
			return nil, fmt.Errorf("failed to write sheet header: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit sheet: %w", err)
	}
	return &sheet, nil
}

// AppendRow inserts a row at the end of the sheet
func (r *SheetRepository) AppendRow(ctx context.Context, sheet *model.Sheet, values []string) error {
	if err := insertRow(ctx, r.db, sheet.ID, values); err != nil {
		return fmt.Errorf("failed to append row: %w", err)
	}
	return nil
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertRow(ctx context.Context, db execer, sheetID int64, values []string) error {
	if values == nil {
		values = []string{}
	}
	valuesJSON, err := json.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode row: %w", err)
	}

	query := `
		INSERT INTO sheet_rows (sheet_id, row_values, created_at)
		VALUES ($1, $2, NOW())
	`
	_, err = db.ExecContext(ctx, query, sheetID, valuesJSON)
	return err
}

// ReadRows returns the rows of a sheet in insertion order from offset on
func (r *SheetRepository) ReadRows(ctx context.Context, sheet *model.Sheet, offset int) ([][]string, error) {
	if offset < 0 {
		offset = 0
	}
	query := `
		SELECT row_values
		FROM sheet_rows
		WHERE sheet_id = $1
		ORDER BY id
		OFFSET $2
	`
	rows, err := r.db.QueryContext(ctx, query, sheet.ID, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	defer rows.Close()

	var result [][]string
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		var values []string
		if err := json.Unmarshal(raw, &values); err != nil {
			return nil, fmt.Errorf("failed to decode row: %w", err)
		}
		result = append(result, values)
	}
	return result, rows.Err()
}
