package lago

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"

	"github.com/bft-labs/lagoship/pkg/batch"
	"github.com/bft-labs/lagoship/pkg/log"
)

const eventsBatchPath = "/api/v1/events/batch"

// Event is one usage record submitted for billing aggregation.
type Event struct {
	// TransactionID is the client-generated idempotency key. Lago rejects
	// an event whose TransactionID it has already ingested.
	TransactionID          string           `json:"transaction_id"`
	ExternalSubscriptionID string           `json:"external_subscription_id"`
	Timestamp              float64          `json:"timestamp"`
	Code                   string           `json:"code"`
	Properties             map[string]int64 `json:"properties"`
}

// UploadResult counts the outcome of an UploadEvents call.
// TotalEvents-NewEvents is the number of events Lago already had.
type UploadResult struct {
	NewEvents   int `json:"new_events"`
	TotalEvents int `json:"total_events"`
}

type eventsBatchRequest struct {
	Events []Event `json:"events"`
}

// UploadEvents submits events in batches, pulling them from the sequence
// only as each batch is built.
//
// When Lago rejects a batch because some of its events already exist, the
// remaining events of that batch are resubmitted once. Any other error,
// including a failure of that resubmission, stops the upload and is returned
// without pulling further events. The result returned with an error counts
// only the batches accepted before the failure.
//
// A 422 that is not made only of duplicate transaction IDs is returned as is.
// This includes a validation_errors response with empty error_details: the
// batch is not resubmitted, since Lago would reject it the same way again.
func (c *Client) UploadEvents(ctx context.Context, events iter.Seq[Event]) (UploadResult, error) {
	var res UploadResult
	for chunk := range batch.Chunk(events, c.batchSize) {
		accepted, err := c.uploadBatch(ctx, chunk)
		if err != nil {
			return res, err
		}
		res.TotalEvents += len(chunk)
		res.NewEvents += accepted
	}
	return res, nil
}

// uploadBatch submits one batch and returns how many of its events were new.
func (c *Client) uploadBatch(ctx context.Context, events []Event) (int, error) {
	err := c.postEvents(ctx, events)
	if err == nil {
		c.logger.Debug("uploaded event batch", log.Int("events", len(events)))
		return len(events), nil
	}

	duplicates, ok := duplicateIndices(err, len(events))
	if !ok {
		return 0, err
	}

	ids := make([]string, 0, len(duplicates))
	for _, i := range sortedKeys(duplicates) {
		ids = append(ids, events[i].TransactionID)
	}
	c.logger.Debug("events already existed", log.Strings("transaction_ids", ids))

	retry := make([]Event, 0, len(events)-len(duplicates))
	for i, ev := range events {
		if _, dup := duplicates[i]; !dup {
			retry = append(retry, ev)
		}
	}
	if len(retry) == 0 {
		return 0, nil
	}

	c.logger.Warn(fmt.Sprintf("%d / %d events already existed, reuploading remaining %d events",
		len(duplicates), len(events), len(retry)))

	if err := c.postEvents(ctx, retry); err != nil {
		return 0, err
	}
	return len(retry), nil
}

func (c *Client) postEvents(ctx context.Context, events []Event) error {
	return c.Post(ctx, eventsBatchPath, eventsBatchRequest{Events: events}, nil)
}

// duplicateIndices reports the batch positions rejected solely as duplicate
// transaction IDs. ok is false if err is anything other than such a rejection,
// including empty details and any index outside the batch.
func duplicateIndices(err error, size int) (map[int]struct{}, bool) {
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		return nil, false
	}
	details, ok := httpErr.ValidationErrors()
	if !ok || len(details) == 0 {
		return nil, false
	}

	dups := make(map[int]struct{}, len(details))
	for idx, fields := range details {
		if idx >= size || !fields.IsDuplicateTransaction() {
			return nil, false
		}
		dups[idx] = struct{}{}
	}
	return dups, true
}

func sortedKeys(m map[int]struct{}) []int {
	keys := make([]int, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Ints(keys)
	return keys
}
