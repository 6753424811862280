package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/haukened/rr-listsync/internal/lists/common/clock"
	"github.com/haukened/rr-listsync/internal/lists/common/log"
	"github.com/haukened/rr-listsync/internal/lists/common/utils"
	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/repos/boltstore"
	"github.com/haukened/rr-listsync/internal/lists/repos/index"
	"github.com/haukened/rr-listsync/internal/lists/repos/index/bloom"
	"github.com/haukened/rr-listsync/internal/lists/repos/index/lru"
)

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func (c *cli) runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Process every open request once",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApplication(c.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			err = app.coordinator.Run(ctx)
			if path := c.cfg.Metrics.Textfile; path != "" {
				if werr := app.metrics.WriteTextfile(path, app.clock.Now().Unix()); werr != nil {
					log.Error(map[string]any{"path": path, "error": werr}, "metrics_write_failed")
					err = multierr.Append(err, werr)
				}
			}
			return err
		},
	}
}

func (c *cli) pruneCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "prune",
		Short: "Drop dated blocks older than the retention window from both lists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			app, err := buildApplication(c.cfg)
			if err != nil {
				return err
			}
			defer func() { _ = app.Close() }()

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			results, err := app.coordinator.Prune(ctx)
			out := cmd.OutOrStdout()
			for _, r := range results {
				state := "unchanged"
				if r.Written {
					state = "written"
				}
				fmt.Fprintf(out, "%s: %d expired, %s\n", r.List, len(r.Expired), state)
			}
			return err
		},
	}
}

func (c *cli) checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check NAME...",
		Short: "Report whether names are block- or allow-listed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeStore, err := buildStore(c.cfg, clock.RealClock{}, log.GetLogger())
			if err != nil {
				return err
			}
			defer func() { _ = closeStore() }()

			cache, err := lru.New(c.cfg.Index.CacheSize)
			if err != nil {
				return fmt.Errorf("failed to create decision cache: %w", err)
			}
			idx := index.New(cache, bloom.NewFactory(), c.cfg.Index.FPRate)
			err = idx.Load(cmd.Context(), store,
				index.ListRef{Name: c.cfg.Lists.Block, Kind: domain.ListBlock},
				index.ListRef{Name: c.cfg.Lists.Allow, Kind: domain.ListAllow},
			)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			for _, arg := range args {
				d, err := normalizeName(arg)
				if err != nil {
					fmt.Fprintf(out, "%s\tinvalid\t%v\n", arg, err)
					continue
				}
				printDecision(out, idx.Lookup(d.Name))
			}

			st := idx.Stats()
			log.Info(map[string]any{
				"entries":   st.Entries,
				"hits":      st.Hits,
				"misses":    st.Misses,
				"evictions": st.Evictions,
			}, "index_stats")
			return nil
		},
	}
}

func (c *cli) historyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history LIST",
		Short: "Print the recorded changes of a list (bolt backend only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Store.Backend != "bolt" {
				return fmt.Errorf("history requires the bolt store backend, not %q", c.cfg.Store.Backend)
			}
			st, err := boltstore.New(c.cfg.Store.BoltPath, clock.RealClock{})
			if err != nil {
				return fmt.Errorf("failed to open bolt store %s: %w", c.cfg.Store.BoltPath, err)
			}
			defer func() { _ = st.Close() }()

			changes, err := st.History(args[0])
			if err != nil {
				return fmt.Errorf("failed to read history of %s: %w", args[0], err)
			}
			out := cmd.OutOrStdout()
			for _, ch := range changes {
				fmt.Fprintf(out, "%s\t%s\t%s\n", ch.Version, ch.At.UTC().Format(time.RFC3339), ch.Message)
			}
			stats := st.Stats()
			fmt.Fprintf(out, "lists=%d changes=%d\n", stats.Lists, stats.Changes)
			return nil
		},
	}
}

// normalizeName turns operator input into a validated lookup name.
func normalizeName(raw string) (domain.Domain, error) {
	name, err := utils.NormalizeInput(raw)
	if err != nil {
		return domain.Domain{}, err
	}
	return domain.NewDomain(name)
}

// printDecision writes one tab-separated line: name, status, matches.
func printDecision(w io.Writer, d domain.Decision) {
	var parts []string
	if d.Allow != nil {
		parts = append(parts, describeMatch(d.Allow))
	}
	if d.Block != nil {
		parts = append(parts, describeMatch(d.Block))
	}
	line := fmt.Sprintf("%s\t%s", d.Name, d.Status())
	if len(parts) > 0 {
		line += "\t" + strings.Join(parts, "; ")
	}
	if apex := utils.ApexDomain(d.Name); apex != d.Name {
		line += "\tapex=" + apex
	}
	fmt.Fprintln(w, line)
}

func describeMatch(m *domain.Match) string {
	s := m.List + ": " + m.Entry
	if !m.Added.IsZero() {
		s += " (added " + m.Added.Format(domain.DateLayout) + ")"
	}
	return s
}
