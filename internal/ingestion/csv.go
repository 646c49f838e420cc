package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"pairs-trade-lab/internal/domain"
)

// CSV validation errors
var (
	ErrEmptyFile        = errors.New("csv file has no data rows")
	ErrBadHeader        = errors.New("csv header must be date,close")
	ErrBadDate          = errors.New("invalid trade date")
	ErrNonPositiveClose = errors.New("close must be positive")
	ErrNonChronological = errors.New("trade dates must be strictly increasing")
)

// dateLayout is the CSV trade date format, one calendar day per row.
const dateLayout = "2006-01-02"

// ParseBars reads a date,close CSV into bars for one symbol. The header row
// is required. Rows must be chronological with strictly increasing dates and
// positive closes; the first offending row fails the whole file.
func ParseBars(symbol string, r io.Reader) ([]*domain.Bar, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = 2

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	if !strings.EqualFold(strings.TrimSpace(header[0]), "date") ||
		!strings.EqualFold(strings.TrimSpace(header[1]), "close") {
		return nil, fmt.Errorf("%w: got %q,%q", ErrBadHeader, header[0], header[1])
	}

	var bars []*domain.Bar
	var prev time.Time
	row := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row %d: %w", row+1, err)
		}
		row++

		date, err := time.ParseInLocation(dateLayout, strings.TrimSpace(record[0]), time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: row %d has %q", ErrBadDate, row, record[0])
		}
		if len(bars) > 0 && !date.After(prev) {
			return nil, fmt.Errorf("%w: row %d has %s after %s",
				ErrNonChronological, row, domain.DateKey(date), domain.DateKey(prev))
		}

		close, err := strconv.ParseFloat(strings.TrimSpace(record[1]), 64)
		if err != nil {
			return nil, fmt.Errorf("parse close at row %d: %w", row, err)
		}
		if close <= 0 {
			return nil, fmt.Errorf("%w: row %d has %v", ErrNonPositiveClose, row, close)
		}

		bars = append(bars, &domain.Bar{Symbol: symbol, TradeDate: date, Close: close})
		prev = date
	}

	if len(bars) == 0 {
		return nil, ErrEmptyFile
	}
	return bars, nil
}
