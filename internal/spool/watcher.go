// Package spool uploads NDJSON event files dropped into a directory.
//
// The Watcher uploads every pending file at startup, then watches the
// directory and uploads files again after they stop changing. Uploaded files
// are recorded in a state.Repository so restarts skip them.
package spool

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"net/http"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/lagoship/internal/eventfile"
	"github.com/bft-labs/lagoship/pkg/lago"
	"github.com/bft-labs/lagoship/pkg/log"
	"github.com/bft-labs/lagoship/pkg/state"
)

// Ext is the suffix of spool files.
const Ext = ".ndjson"

// Uploader submits events; *lago.Client satisfies it.
type Uploader interface {
	UploadEvents(ctx context.Context, events iter.Seq[lago.Event]) (lago.UploadResult, error)
}

// Config holds configuration for a Watcher.
type Config struct {
	// Dir is the spool directory.
	Dir string

	// DebounceDelay is how long a file must stay unchanged before upload.
	// Default: 500 milliseconds
	DebounceDelay time.Duration

	// RetryInitial and RetryMax bound the backoff between failed attempts.
	// Default: 1 second and 1 minute
	RetryInitial time.Duration
	RetryMax     time.Duration

	// MaxAttempts caps upload attempts per file and change. A file that
	// still fails stays out of the ledger and is retried on its next change
	// or restart.
	// Default: 5
	MaxAttempts int

	// Once uploads pending files and returns instead of watching.
	Once bool
}

// Watcher uploads spool files.
type Watcher struct {
	cfg     Config
	up      Uploader
	repo    state.Repository
	logger  log.Logger
	state   state.State
	backoff *Backoff
}

// NewWatcher creates a Watcher.
func NewWatcher(cfg Config, up Uploader, repo state.Repository, logger log.Logger) *Watcher {
	if cfg.DebounceDelay <= 0 {
		cfg.DebounceDelay = 500 * time.Millisecond
	}
	if cfg.RetryInitial <= 0 {
		cfg.RetryInitial = time.Second
	}
	if cfg.RetryMax < cfg.RetryInitial {
		cfg.RetryMax = max(time.Minute, cfg.RetryInitial)
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Watcher{
		cfg:     cfg,
		up:      up,
		repo:    repo,
		logger:  logger,
		backoff: NewBackoff(cfg.RetryInitial, cfg.RetryMax),
	}
}

// Run uploads pending files, then watches the directory until ctx is done.
// With Config.Once it returns after the pending files, reporting the first
// file that could not be uploaded.
func (w *Watcher) Run(ctx context.Context) error {
	st, err := w.repo.Load(ctx)
	if err != nil {
		return fmt.Errorf("load state: %w", err)
	}
	w.state = st

	if w.cfg.Once {
		return w.scan(ctx)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watch %s: %w", w.cfg.Dir, err)
	}
	w.logger.Info("Watching spool directory", log.String("dir", w.cfg.Dir))

	if err := w.scan(ctx); err != nil && ctx.Err() == nil {
		w.logger.Error("Initial spool scan incomplete", log.Err(err))
	}

	debounce := time.NewTimer(w.cfg.DebounceDelay)
	debounce.Stop()
	dirty := make(map[string]struct{})

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			name, ok := w.spoolName(event.Name)
			if !ok {
				continue
			}
			dirty[name] = struct{}{}
			debounce.Reset(w.cfg.DebounceDelay)

		case <-debounce.C:
			names := make([]string, 0, len(dirty))
			for name := range dirty {
				names = append(names, name)
			}
			clear(dirty)
			slices.Sort(names)
			for _, name := range names {
				if err := w.process(ctx, name); err != nil && ctx.Err() == nil {
					w.logger.Error("Spool file skipped", log.String("file", name), log.Err(err))
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("Spool watcher error", log.Err(err))
		}
	}
}

// scan processes every spool file in name order.
func (w *Watcher) scan(ctx context.Context) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("read spool dir: %w", err)
	}

	present := make(map[string]bool, len(entries))
	var firstErr error
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), Ext) {
			continue
		}
		present[e.Name()] = true
		if err := w.process(ctx, e.Name()); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			w.logger.Error("Spool file skipped", log.String("file", e.Name()), log.Err(err))
			if firstErr == nil {
				firstErr = fmt.Errorf("%s: %w", e.Name(), err)
			}
		}
	}

	if n := w.state.Forget(func(name string) bool { return present[name] }); n > 0 {
		if err := w.repo.Save(ctx, w.state); err != nil {
			return fmt.Errorf("save state: %w", err)
		}
	}
	return firstErr
}

// process uploads name unless the ledger already has this version of it,
// retrying transient failures with backoff up to Config.MaxAttempts times.
// The backoff is shared across files and reset by any success.
func (w *Watcher) process(ctx context.Context, name string) error {
	path := filepath.Join(w.cfg.Dir, name)
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return err
	}
	if w.state.Uploaded(name, info) {
		w.logger.Debug("Spool file already uploaded", log.String("file", name))
		return nil
	}

	for attempt := 1; ; attempt++ {
		res, err := w.upload(ctx, path)
		if err == nil {
			w.backoff.Reset()
			w.logger.Info(fmt.Sprintf("Uploaded %s: %d / %d new events", name, res.NewEvents, res.TotalEvents),
				log.String("file", name),
				log.Int("new_events", res.NewEvents),
				log.Int("total_events", res.TotalEvents),
				log.Int("attempts", attempt),
			)
			w.state.MarkUploaded(name, info, res)
			if err := w.repo.Save(ctx, w.state); err != nil {
				return fmt.Errorf("save state: %w", err)
			}
			return nil
		}
		if !retryable(err) {
			return err
		}
		if attempt >= w.cfg.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		w.logger.Warn("Spool upload failed, retrying",
			log.String("file", name),
			log.Int("attempt", attempt),
			log.Duration("backoff", w.backoff.Current()),
			log.Err(err),
		)
		if err := w.backoff.Sleep(ctx); err != nil {
			return err
		}
	}
}

func (w *Watcher) upload(ctx context.Context, path string) (lago.UploadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return lago.UploadResult{}, err
	}
	defer f.Close()

	r := eventfile.NewReader(f)
	res, err := w.up.UploadEvents(ctx, r.Events())
	if err != nil {
		return res, err
	}
	if err := r.Err(); err != nil {
		return res, &decodeError{err: err}
	}
	return res, nil
}

func (w *Watcher) spoolName(path string) (string, bool) {
	if filepath.Dir(filepath.Clean(path)) != filepath.Clean(w.cfg.Dir) {
		return "", false
	}
	name := filepath.Base(path)
	return name, strings.HasSuffix(name, Ext)
}

type decodeError struct {
	err error
}

func (e *decodeError) Error() string { return "decode: " + e.err.Error() }
func (e *decodeError) Unwrap() error { return e.err }

// retryable reports whether err may succeed on a later attempt. Unreadable or
// malformed files and client errors other than rate limiting are not retried; the file
// is picked up again when it next changes.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var de *decodeError
	if errors.As(err, &de) {
		return false
	}
	var pe *fs.PathError
	if errors.As(err, &pe) {
		return false
	}
	var he *lago.HTTPError
	if errors.As(err, &he) {
		return he.StatusCode == http.StatusTooManyRequests || he.StatusCode >= 500
	}
	return true
}
