package hours

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"
)

// CSVReader reads rows of external_subscription_id,hour_start,resource_count.
// A header row naming those columns is skipped.
type CSVReader struct {
	r    *csv.Reader
	line int
	err  error
}

// NewCSVReader returns a CSVReader over r.
func NewCSVReader(r io.Reader) *CSVReader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 3
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true
	return &CSVReader{r: cr}
}

// Rows returns a single-pass sequence of rows, read on demand. It ends at the
// first malformed record; check Err afterwards.
func (c *CSVReader) Rows() iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for {
			rec, err := c.r.Read()
			if errors.Is(err, io.EOF) {
				return
			}
			c.line++
			if err != nil {
				c.err = fmt.Errorf("record %d: %w", c.line, err)
				return
			}
			if c.line == 1 && isHeader(rec) {
				continue
			}
			row, err := parseRecord(rec)
			if err != nil {
				c.err = fmt.Errorf("record %d: %w", c.line, err)
				return
			}
			if !yield(row) {
				return
			}
		}
	}
}

// Err returns the first read or parse error, if any.
func (c *CSVReader) Err() error {
	return c.err
}

func isHeader(rec []string) bool {
	return strings.EqualFold(rec[0], "external_subscription_id") &&
		strings.EqualFold(rec[1], "hour_start") &&
		strings.EqualFold(rec[2], "resource_count")
}

func parseRecord(rec []string) (Row, error) {
	if rec[0] == "" {
		return Row{}, errors.New("empty external_subscription_id")
	}
	hour, err := ParseHour(rec[1])
	if err != nil {
		return Row{}, err
	}
	count, err := strconv.ParseInt(rec[2], 10, 64)
	if err != nil {
		return Row{}, fmt.Errorf("parse resource_count %q: %w", rec[2], err)
	}
	if count < 0 {
		return Row{}, fmt.Errorf("negative resource_count %d", count)
	}
	return Row{
		ExternalSubscriptionID: rec[0],
		HourStart:              hour,
		ResourceCount:          count,
	}, nil
}
