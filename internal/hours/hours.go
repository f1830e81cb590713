// Package hours turns per-subscription resource-hour counts into Lago usage
// events and uploads them one hour at a time.
package hours

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/bft-labs/lagoship/pkg/lago"
	"github.com/bft-labs/lagoship/pkg/log"
)

const (
	// MetricCode is the billable metric the events are aggregated under.
	MetricCode = "resource-hours"

	// PropertyKey holds the resource count inside event properties.
	PropertyKey = "resource_hours"

	// HourLayout is the timestamp format of source rows, always UTC.
	HourLayout = "2006-01-02 15:04:05"
)

// Row is the number of resources a subscription had during one hour.
type Row struct {
	ExternalSubscriptionID string
	HourStart              time.Time
	ResourceCount          int64
}

// Uploader submits events; *lago.Client satisfies it.
type Uploader interface {
	UploadEvents(ctx context.Context, events iter.Seq[lago.Event]) (lago.UploadResult, error)
}

// Summary totals a Ship run.
type Summary struct {
	Hours       int
	NewEvents   int
	TotalEvents int
}

// ParseHour parses a HourLayout timestamp as UTC and rejects anything not
// exactly on the hour.
func ParseHour(s string) (time.Time, error) {
	t, err := time.ParseInLocation(HourLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse hour %q: %w", s, err)
	}
	if !t.Equal(t.Truncate(time.Hour)) {
		return time.Time{}, fmt.Errorf("hour %q is not on the hour", s)
	}
	return t, nil
}

// FormatEvent builds the event for a row. The transaction ID is derived from
// the subscription and hour, so re-uploading a row is recognized as a duplicate.
func FormatEvent(row Row) (lago.Event, error) {
	hour := row.HourStart.UTC()
	if !hour.Equal(hour.Truncate(time.Hour)) {
		return lago.Event{}, fmt.Errorf("subscription %s: %s is not on the hour", row.ExternalSubscriptionID, hour.Format(time.RFC3339Nano))
	}
	return lago.Event{
		TransactionID:          fmt.Sprintf("%s-%s", row.ExternalSubscriptionID, hour.Format("2006-01-02-15")),
		ExternalSubscriptionID: row.ExternalSubscriptionID,
		Timestamp:              float64(hour.Unix()),
		Code:                   MetricCode,
		Properties:             map[string]int64{PropertyKey: row.ResourceCount},
	}, nil
}

// Ship uploads rows grouped by consecutive HourStart, one UploadEvents call
// per hour. Rows must arrive ordered by hour (either direction). Rows are
// pulled lazily; the first formatting or upload error stops the run.
func Ship(ctx context.Context, up Uploader, rows iter.Seq[Row], logger log.Logger) (Summary, error) {
	if logger == nil {
		logger = log.NewNoopLogger()
	}

	next, stop := iter.Pull(rows)
	defer stop()

	var sum Summary
	cur, ok := next()
	for ok {
		hour := cur.HourStart
		var formatErr error

		group := func(yield func(lago.Event) bool) {
			for ok && cur.HourStart.Equal(hour) {
				ev, err := FormatEvent(cur)
				if err != nil {
					formatErr = err
					return
				}
				if !yield(ev) {
					return
				}
				cur, ok = next()
			}
		}

		logger.Debug("uploading events for hour", log.String("hour", hour.UTC().Format(HourLayout)))
		res, err := up.UploadEvents(ctx, group)
		if err != nil {
			return sum, fmt.Errorf("upload hour %s: %w", hour.UTC().Format(HourLayout), err)
		}
		if formatErr != nil {
			return sum, formatErr
		}
		if ok && cur.HourStart.Equal(hour) {
			return sum, fmt.Errorf("upload hour %s: uploader stopped before the last event", hour.UTC().Format(HourLayout))
		}

		sum.Hours++
		sum.NewEvents += res.NewEvents
		sum.TotalEvents += res.TotalEvents
		logger.Info(fmt.Sprintf("Uploaded %d / %d for hour %s", res.NewEvents, res.TotalEvents, hour.UTC().Format(HourLayout)),
			log.Int("new_events", res.NewEvents),
			log.Int("total_events", res.TotalEvents),
		)
	}
	if sum.Hours == 0 {
		logger.Warn("No resource-hour rows to upload")
	}
	return sum, nil
}
