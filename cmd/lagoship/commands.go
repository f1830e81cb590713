package main

import (
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"os"

	"github.com/spf13/cobra"

	"github.com/bft-labs/lagoship/internal/cliconfig"
	"github.com/bft-labs/lagoship/internal/eventfile"
	"github.com/bft-labs/lagoship/internal/hours"
	"github.com/bft-labs/lagoship/internal/spool"
	"github.com/bft-labs/lagoship/pkg/lago"
	"github.com/bft-labs/lagoship/pkg/log"
	"github.com/bft-labs/lagoship/pkg/state"
)

// openInput opens the named file, or stdin for "" and "-".
func openInput(cmd *cobra.Command, args []string) (io.ReadCloser, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(args[0])
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (a *app) uploadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload [file|-]",
		Short: "Upload NDJSON events, skipping ones Lago already has",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			r := eventfile.NewReader(in)
			res, err := a.client.UploadEvents(cmd.Context(), r.Events())
			if err != nil {
				return fmt.Errorf("upload after %d events: %w", res.TotalEvents, err)
			}
			if err := r.Err(); err != nil {
				return fmt.Errorf("read events: %w", err)
			}

			a.logger.Info(fmt.Sprintf("Uploaded %d / %d new events", res.NewEvents, res.TotalEvents),
				log.Int("lines", r.Lines()),
			)
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func (a *app) uploadHoursCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "upload-hours [file|-]",
		Short: "Upload hourly resource counts from CSV as resource-hours events",
		Long: `Reads CSV rows of external_subscription_id,hour_start,resource_count
ordered by hour_start and uploads one batch of events per hour.
hour_start is UTC in the form "2006-01-02 15:04:05".`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			in, err := openInput(cmd, args)
			if err != nil {
				return err
			}
			defer in.Close()

			r := hours.NewCSVReader(in)
			sum, err := hours.Ship(cmd.Context(), a.client, r.Rows(), a.logger)
			if err != nil {
				return err
			}
			if err := r.Err(); err != nil {
				return fmt.Errorf("read hours: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), sum)
		},
	}
}

func (a *app) watchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Upload NDJSON files from a spool directory as they appear",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, (*cliconfig.Config).ValidateSpool); err != nil {
				return err
			}
			w := spool.NewWatcher(spool.Config{
				Dir:           a.cfg.SpoolDir,
				DebounceDelay: a.cfg.DebounceDelay,
				RetryInitial:  a.cfg.RetryInitial,
				RetryMax:      a.cfg.RetryMax,
				MaxAttempts:   a.cfg.MaxAttempts,
				Once:          a.cfg.Once,
			}, a.client, state.NewFileRepository(a.cfg.StateDir), a.logger)

			if err := w.Run(cmd.Context()); err != nil {
				return err
			}
			a.logger.Info("Spool watcher stopped")
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&a.cfg.SpoolDir, "spool-dir", a.cfg.SpoolDir, "directory to watch for *.ndjson files")
	f.StringVar(&a.cfg.StateDir, "state-dir", a.cfg.StateDir, "directory for spool.json (defaults to spool-dir)")
	f.DurationVar(&a.cfg.DebounceDelay, "debounce", a.cfg.DebounceDelay, "quiet period before a changed file is uploaded")
	f.DurationVar(&a.cfg.RetryInitial, "retry-initial", a.cfg.RetryInitial, "first retry delay after a failed upload")
	f.DurationVar(&a.cfg.RetryMax, "retry-max", a.cfg.RetryMax, "maximum retry delay")
	f.IntVar(&a.cfg.MaxAttempts, "max-attempts", a.cfg.MaxAttempts, "upload attempts per file before moving on")
	f.BoolVar(&a.cfg.Once, "once", a.cfg.Once, "upload pending files and exit")
	return cmd
}

// listFlags are shared by the query commands.
type listFlags struct {
	opts lago.ListOptions
	all  bool
}

func (l *listFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.IntVar(&l.opts.Page, "page", 0, "page to fetch")
	f.IntVar(&l.opts.PerPage, "per-page", 0, "items per page")
	f.StringToStringVar(&l.opts.Filters, "filter", nil, "query filter as key=value (repeatable)")
	f.BoolVar(&l.all, "all", false, "follow pagination and print one JSON object per line")
}

// listCmd builds a query command printing either one page or, with --all,
// every item as NDJSON.
func listCmd[R, T any](
	a *app,
	use, short string,
	page func(*lago.Client, *cobra.Command, lago.ListOptions) (R, error),
	each func(*lago.Client, *cobra.Command, lago.ListOptions) iter.Seq2[T, error],
) *cobra.Command {
	var lf listFlags
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(cmd, nil); err != nil {
				return err
			}
			if !lf.all {
				res, err := page(a.client, cmd, lf.opts)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), res)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			for item, err := range each(a.client, cmd, lf.opts) {
				if err != nil {
					return err
				}
				if err := enc.Encode(item); err != nil {
					return err
				}
			}
			return nil
		},
	}
	lf.register(cmd)
	return cmd
}

func (a *app) invoicesCmd() *cobra.Command {
	return listCmd(a, "invoices", "List invoices",
		func(c *lago.Client, cmd *cobra.Command, o lago.ListOptions) (*lago.InvoicesResponse, error) {
			return c.ListInvoices(cmd.Context(), o)
		},
		func(c *lago.Client, cmd *cobra.Command, o lago.ListOptions) iter.Seq2[lago.Invoice, error] {
			return c.Invoices(cmd.Context(), o)
		},
	)
}

func (a *app) plansCmd() *cobra.Command {
	return listCmd(a, "plans", "List plans",
		func(c *lago.Client, cmd *cobra.Command, o lago.ListOptions) (*lago.PlansResponse, error) {
			return c.ListPlans(cmd.Context(), o)
		},
		func(c *lago.Client, cmd *cobra.Command, o lago.ListOptions) iter.Seq2[lago.Plan, error] {
			return c.Plans(cmd.Context(), o)
		},
	)
}

func (a *app) subscriptionsCmd() *cobra.Command {
	return listCmd(a, "subscriptions", "List subscriptions",
		func(c *lago.Client, cmd *cobra.Command, o lago.ListOptions) (*lago.SubscriptionsResponse, error) {
			return c.ListSubscriptions(cmd.Context(), o)
		},
		func(c *lago.Client, cmd *cobra.Command, o lago.ListOptions) iter.Seq2[lago.Subscription, error] {
			return c.Subscriptions(cmd.Context(), o)
		},
	)
}
