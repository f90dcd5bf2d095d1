package ledger

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/iliyamo/room-booking/internal/model"
)

// sheetsAPI is the slice of the Sheets service the mirror needs.
type sheetsAPI interface {
	AppendRow(ctx context.Context, rng string, row []interface{}) error
	Rows(ctx context.Context, rng string) ([][]interface{}, error)
	SheetID(ctx context.Context, title string) (int64, bool, error)
	DeleteRow(ctx context.Context, sheetID, index int64) error
}

// SheetsMirror keeps one Google Sheets tab per room.
type SheetsMirror struct {
	api   sheetsAPI
	rooms map[string]struct{}

	// serialises find-then-delete so two deletes never race on indices
	mu sync.Mutex
}

// SheetsOptions configures NewSheetsMirror.  Exactly one of
// CredentialsJSON and CredentialsFile is expected.
type SheetsOptions struct {
	SpreadsheetID   string
	CredentialsJSON string
	CredentialsFile string
	// Rooms that own a tab named after them; others go to DefaultSheet.
	Rooms []string
}

// NewSheetsMirror authenticates with a service account and returns a
// Mirror backed by the spreadsheet.
func NewSheetsMirror(ctx context.Context, opts SheetsOptions) (*SheetsMirror, error) {
	if opts.SpreadsheetID == "" {
		return nil, fmt.Errorf("ledger: spreadsheet id required")
	}
	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	switch {
	case opts.CredentialsJSON != "":
		clientOpts = append(clientOpts, option.WithCredentialsJSON([]byte(opts.CredentialsJSON)))
	case opts.CredentialsFile != "":
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	default:
		return nil, fmt.Errorf("ledger: google credentials required")
	}
	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("ledger: sheets client: %w", err)
	}
	return newSheetsMirror(&sheetsService{svc: svc, id: opts.SpreadsheetID}, opts.Rooms), nil
}

func newSheetsMirror(api sheetsAPI, rooms []string) *SheetsMirror {
	m := &SheetsMirror{api: api, rooms: make(map[string]struct{}, len(rooms))}
	for _, r := range rooms {
		m.rooms[r] = struct{}{}
	}
	return m
}

func (m *SheetsMirror) sheetFor(room string) string {
	if _, ok := m.rooms[room]; ok {
		return room
	}
	return DefaultSheet
}

func sheetRange(sheet string) string { return fmt.Sprintf("'%s'!A:F", sheet) }

func (m *SheetsMirror) Append(ctx context.Context, b model.Booking) error {
	sheet := m.sheetFor(b.Room)
	if err := m.api.AppendRow(ctx, sheetRange(sheet), Row(b)); err != nil {
		return fmt.Errorf("ledger: append to %q: %w", sheet, err)
	}
	logrus.WithFields(logrus.Fields{"booking_id": b.ID, "sheet": sheet}).Info("ledger: row appended")
	return nil
}

func (m *SheetsMirror) Delete(ctx context.Context, b model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	sheet := m.sheetFor(b.Room)
	log := logrus.WithFields(logrus.Fields{"booking_id": b.ID, "sheet": sheet})

	rows, err := m.api.Rows(ctx, sheetRange(sheet))
	if err != nil {
		return fmt.Errorf("ledger: read %q: %w", sheet, err)
	}
	idx := FindRow(rows, b)
	if idx < 0 {
		log.Warn("ledger: row not found, nothing to delete")
		return nil
	}
	sheetID, ok, err := m.api.SheetID(ctx, sheet)
	if err != nil {
		return fmt.Errorf("ledger: lookup %q: %w", sheet, err)
	}
	if !ok {
		log.Error("ledger: sheet missing from spreadsheet")
		return nil
	}
	if err := m.api.DeleteRow(ctx, sheetID, int64(idx)); err != nil {
		return fmt.Errorf("ledger: delete row %d of %q: %w", idx, sheet, err)
	}
	log.WithField("row", idx).Info("ledger: row deleted")
	return nil
}

// sheetsService adapts *sheets.Service to sheetsAPI.
type sheetsService struct {
	svc *sheets.Service
	id  string
}

func (s *sheetsService) AppendRow(ctx context.Context, rng string, row []interface{}) error {
	_, err := s.svc.Spreadsheets.Values.Append(s.id, rng, &sheets.ValueRange{Values: [][]interface{}{row}}).
		ValueInputOption("USER_ENTERED").
		Context(ctx).
		Do()
	return err
}

func (s *sheetsService) Rows(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := s.svc.Spreadsheets.Values.Get(s.id, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

func (s *sheetsService) SheetID(ctx context.Context, title string) (int64, bool, error) {
	ss, err := s.svc.Spreadsheets.Get(s.id).Fields("sheets.properties").Context(ctx).Do()
	if err != nil {
		return 0, false, err
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil && sh.Properties.Title == title {
			return sh.Properties.SheetId, true, nil
		}
	}
	return 0, false, nil
}

func (s *sheetsService) DeleteRow(ctx context.Context, sheetID, index int64) error {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			DeleteDimension: &sheets.DeleteDimensionRequest{
				Range: &sheets.DimensionRange{
					SheetId:    sheetID,
					Dimension:  "ROWS",
					StartIndex: index,
					EndIndex:   index + 1,
					// zero ids and indices are meaningful here
					ForceSendFields: []string{"SheetId", "StartIndex"},
				},
			},
		}},
	}
	_, err := s.svc.Spreadsheets.BatchUpdate(s.id, req).Context(ctx).Do()
	return err
}
