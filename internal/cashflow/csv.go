package cashflow

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/sirupsen/logrus"

	"github.com/juancg00ginversiones/ingecapital-data-api/internal/model"
)

// dateLayouts are the payment_date formats accepted from spreadsheet exports
var dateLayouts = []string{
	model.DateLayout,
	"2006-01-02 15:04:05",
	"02/01/2006",
	time.RFC3339,
}

// RecordDTO is one row of the cash-flow CSV export
type RecordDTO struct {
	Ticker      string `csv:"ticker"`
	Type        string `csv:"type"`
	PaymentDate string `csv:"payment_date"`
	CashFlow    string `csv:"cash_flow"`
}

// ToModel parses the textual row
func (d RecordDTO) ToModel() (model.CashFlowRecord, error) {
	date, err := ParseDate(d.PaymentDate)
	if err != nil {
		return model.CashFlowRecord{}, err
	}

	amount, err := strconv.ParseFloat(strings.TrimSpace(d.CashFlow), 64)
	if err != nil {
		return model.CashFlowRecord{}, fmt.Errorf("invalid cash_flow %q: %w", d.CashFlow, err)
	}

	return model.CashFlowRecord{
		Ticker: strings.TrimSpace(d.Ticker),
		Type:   strings.TrimSpace(d.Type),
		Date:   date,
		Amount: amount,
	}, nil
}

// ParseDate accepts the calendar-date layouts produced by spreadsheet exports
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return model.Day(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid payment_date %q", s)
}

// ReadCSV decodes cash-flow records from r. Rows that fail to parse are
// skipped and logged; a malformed header is an error.
func ReadCSV(r io.Reader) ([]model.CashFlowRecord, error) {
	var rows []RecordDTO
	if err := gocsv.Unmarshal(r, &rows); err != nil {
		return nil, fmt.Errorf("error decoding cash flows: %w", err)
	}

	records := make([]model.CashFlowRecord, 0, len(rows))
	for i, row := range rows {
		rec, err := row.ToModel()
		if err != nil {
			logrus.WithFields(logrus.Fields{
				"row":    i + 2,
				"ticker": row.Ticker,
			}).Warnf("Skipping cash flow row: %v", err)
			continue
		}
		records = append(records, rec)
	}

	return records, nil
}

// FileSource serves cash flows from a CSV file on disk. The file is re-read
// on every call so edits are picked up on the next refresh.
type FileSource struct {
	Path string
}

// NewFileSource creates a source backed by the CSV file at path
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path}
}

// CashFlows reads all records from the file
func (s *FileSource) CashFlows(ctx context.Context) ([]model.CashFlowRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("error opening cash flow file: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, err
	}

	logrus.Debugf("Loaded %d cash flow records from %s", len(records), s.Path)
	return records, nil
}
