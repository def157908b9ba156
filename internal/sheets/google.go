package sheets

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"

	"golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	gsheets "google.golang.org/api/sheets/v4"

	"github.com/cyberelites/formmailer/internal/model"
)

// DefaultGoogleRequestsPerSecond keeps one store under the Sheets API per-user
// quota of 60 requests per minute.
const DefaultGoogleRequestsPerSecond = 1.0

// GoogleConfig configures a GoogleStore
type GoogleConfig struct {
	SpreadsheetID string
	// CredentialsJSON is service account JSON; empty uses application default credentials.
	CredentialsJSON string
	// RequestsPerSecond paces API calls; <= 0 uses DefaultGoogleRequestsPerSecond.
	RequestsPerSecond float64
}

// GoogleStore implements ReadableStore on top of one Google spreadsheet.
type GoogleStore struct {
	service       *gsheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
}

// NewGoogleStore creates a GoogleStore.
func NewGoogleStore(ctx context.Context, cfg GoogleConfig) (*GoogleStore, error) {
	if cfg.SpreadsheetID == "" {
		return nil, fmt.Errorf("sheets: spreadsheet ID is required")
	}

	var client *http.Client
	if cfg.CredentialsJSON != "" {
		jwtConfig, err := google.JWTConfigFromJSON([]byte(cfg.CredentialsJSON), gsheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("sheets: failed to parse credentials: %w", err)
		}
		client = jwtConfig.Client(ctx)
	} else {
		var err error
		client, err = google.DefaultClient(ctx, gsheets.SpreadsheetsScope)
		if err != nil {
			return nil, fmt.Errorf("sheets: failed to load default credentials: %w", err)
		}
	}

	svc, err := gsheets.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to create service: %w", err)
	}

	return &GoogleStore{
		service:       svc,
		spreadsheetID: cfg.SpreadsheetID,
		limiter:       newLimiter(cfg.RequestsPerSecond),
	}, nil
}

func newLimiter(rps float64) *rate.Limiter {
	if rps <= 0 {
		rps = DefaultGoogleRequestsPerSecond
	}
	burst := int(rps)
	if burst < 5 {
		burst = 5
	}
	return rate.NewLimiter(rate.Limit(rps), burst)
}

// wait blocks until the next API call is allowed
func (s *GoogleStore) wait(ctx context.Context) error {
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("sheets: rate limit wait: %w", err)
	}
	return nil
}

// FindSheet looks the sheet up by title.
func (s *GoogleStore) FindSheet(ctx context.Context, name string) (*model.Sheet, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	ss, err := s.service.Spreadsheets.Get(s.spreadsheetID).
		Fields("sheets.properties").
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to get spreadsheet: %w", err)
	}

	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == name {
			return &model.Sheet{ID: sh.Properties.SheetId, Name: name}, nil
		}
	}
	return nil, ErrSheetNotFound
}

// CreateSheet adds a sheet and its header in a single batch update. The API
// rejects duplicate titles, which makes the call itself the compare-and-create
// step, and applies the batch all or nothing.
func (s *GoogleStore) CreateSheet(ctx context.Context, name string, header []string) (*model.Sheet, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	sheetID := rand.Int64N(math.MaxInt32-1) + 1
	req := addSheetRequest(name, header, sheetID)

	resp, err := s.service.Spreadsheets.BatchUpdate(s.spreadsheetID, req).Context(ctx).Do()
	if err != nil {
		if isDuplicateSheet(err) {
			return nil, ErrSheetExists
		}
		return nil, fmt.Errorf("sheets: failed to add sheet %q: %w", name, err)
	}

	sheet := &model.Sheet{ID: sheetID, Name: name}
	if len(resp.Replies) > 0 && resp.Replies[0].AddSheet != nil && resp.Replies[0].AddSheet.Properties != nil {
		sheet.ID = resp.Replies[0].AddSheet.Properties.SheetId
	}
	return sheet, nil
}

// addSheetRequest builds the batch for CreateSheet. The sheet ID is chosen
// up front so the header request can address the sheet being added.
func addSheetRequest(name string, header []string, sheetID int64) *gsheets.BatchUpdateSpreadsheetRequest {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{SheetId: sheetID, Title: name},
			},
		}},
	}
	if len(header) == 0 {
		return req
	}

	cells := make([]*gsheets.CellData, len(header))
	for i, v := range header {
		cells[i] = &gsheets.CellData{UserEnteredValue: &gsheets.ExtendedValue{StringValue: &v}}
	}
	req.Requests = append(req.Requests, &gsheets.Request{
		AppendCells: &gsheets.AppendCellsRequest{
			SheetId: sheetID,
			Rows:    []*gsheets.RowData{{Values: cells}},
			Fields:  "userEnteredValue",
		},
	})
	return req
}

// AppendRow appends values as a new row, stored as entered (no formula parsing).
func (s *GoogleStore) AppendRow(ctx context.Context, sheet *model.Sheet, values []string) error {
	if err := s.wait(ctx); err != nil {
		return err
	}
	row := make([]interface{}, len(values))
	for i, v := range values {
		row[i] = v
	}

	_, err := s.service.Spreadsheets.Values.Append(s.spreadsheetID, a1Range(sheet.Name), &gsheets.ValueRange{
		Values: [][]interface{}{row},
	}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("sheets: failed to append row to %q: %w", sheet.Name, err)
	}
	return nil
}

// ReadRows returns the formatted cell values of the sheet from offset on.
func (s *GoogleStore) ReadRows(ctx context.Context, sheet *model.Sheet, offset int) ([][]string, error) {
	if err := s.wait(ctx); err != nil {
		return nil, err
	}
	resp, err := s.service.Spreadsheets.Values.Get(s.spreadsheetID, a1Range(sheet.Name)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, fmt.Errorf("sheets: failed to read %q: %w", sheet.Name, err)
	}

	rows := make([][]string, len(resp.Values))
	for i, r := range resp.Values {
		rows[i] = make([]string, len(r))
		for j, cell := range r {
			rows[i][j] = fmt.Sprint(cell)
		}
	}
	return tail(rows, offset), nil
}

// a1Range quotes a sheet title for use as a whole-sheet A1 range.
func a1Range(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func isDuplicateSheet(err error) bool {
	var apiErr *googleapi.Error
	if !errors.As(err, &apiErr) {
		return false
	}
	msg := strings.ToLower(apiErr.Message)
	return apiErr.Code == http.StatusBadRequest && strings.Contains(msg, "already exists") && strings.Contains(msg, "name")
}
