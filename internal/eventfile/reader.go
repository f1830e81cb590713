// Package eventfile streams usage events from newline-delimited JSON.
package eventfile

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"iter"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/bft-labs/lagoship/pkg/lago"
)

const maxLineBytes = 1 << 20

// txNamespace scopes derived transaction IDs so they never collide with
// UUIDv5 values from other generators.
var txNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/bft-labs/lagoship/transaction-id"))

// Reader decodes one lago.Event per line. Blank lines are skipped.
type Reader struct {
	r    io.Reader
	line int
	err  error
}

// NewReader returns a Reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{r: r}
}

// Events returns a single-pass sequence of the decoded events. Lines are read
// only as the sequence is consumed. The sequence ends early on the first
// malformed line; check Err afterwards.
func (r *Reader) Events() iter.Seq[lago.Event] {
	return func(yield func(lago.Event) bool) {
		sc := bufio.NewScanner(r.r)
		sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
		for sc.Scan() {
			r.line++
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			ev, err := decodeEvent(line)
			if err != nil {
				r.err = fmt.Errorf("line %d: %w", r.line, err)
				return
			}
			if !yield(ev) {
				return
			}
		}
		if err := sc.Err(); err != nil {
			r.err = fmt.Errorf("line %d: %w", r.line+1, err)
		}
	}
}

// Err returns the first decode or read error, if any.
func (r *Reader) Err() error {
	return r.err
}

// Lines returns how many lines have been read so far.
func (r *Reader) Lines() int {
	return r.line
}

func decodeEvent(line []byte) (lago.Event, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()

	var ev lago.Event
	if err := dec.Decode(&ev); err != nil {
		return lago.Event{}, fmt.Errorf("decode event: %w", err)
	}
	if ev.ExternalSubscriptionID == "" {
		return lago.Event{}, errors.New("external_subscription_id is required")
	}
	if ev.Code == "" {
		return lago.Event{}, errors.New("code is required")
	}
	if ev.TransactionID == "" {
		ev.TransactionID = DeriveTransactionID(ev)
	}
	return ev, nil
}

// DeriveTransactionID returns a stable idempotency key for an event that was
// produced without one. Identical events always map to the same key.
func DeriveTransactionID(ev lago.Event) string {
	keys := make([]string, 0, len(ev.Properties))
	for k := range ev.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(ev.ExternalSubscriptionID)
	b.WriteByte(0)
	b.WriteString(ev.Code)
	b.WriteByte(0)
	b.WriteString(strconv.FormatFloat(ev.Timestamp, 'f', -1, 64))
	for _, k := range keys {
		b.WriteByte(0)
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(strconv.FormatInt(ev.Properties[k], 10))
	}
	return uuid.NewSHA1(txNamespace, []byte(b.String())).String()
}
