// Package coordinator drives one request at a time through validation,
// list mutation, block-list sync and reporting.
package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"go.uber.org/multierr"

	"github.com/haukened/rr-listsync/internal/lists/common/clock"
	"github.com/haukened/rr-listsync/internal/lists/common/log"
	"github.com/haukened/rr-listsync/internal/lists/common/metrics"
	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/services/merge"
	"github.com/haukened/rr-listsync/internal/lists/services/retention"
)

const defaultSeenSize = 4096

// Lists names the two list files. Both names are stable identifiers and every
// read and write addresses a list through them.
type Lists struct {
	Block string
	Allow string
}

// Validate checks that both lists are named and distinct.
func (l Lists) Validate() error {
	if strings.TrimSpace(l.Block) == "" || strings.TrimSpace(l.Allow) == "" {
		return fmt.Errorf("block and allow list names must not be empty")
	}
	if l.Block == l.Allow {
		return fmt.Errorf("block and allow lists must be different files, both are %q", l.Block)
	}
	return nil
}

// Options configures a Coordinator.
type Options struct {
	Reader     RequestReader
	Store      ListStore
	Policy     Authorizer
	Clock      clock.Clock
	Logger     log.Logger
	Metrics    metrics.Recorder
	Lists      Lists
	MaxAgeDays int // retention window; <= 0 uses retention.DefaultMaxAgeDays
	SeenSize   int // processed-request memo capacity; <= 0 uses a default
}

// Coordinator processes requests sequentially. It holds no list state
// between requests; only the ids of requests it already closed.
type Coordinator struct {
	reader     RequestReader
	store      ListStore
	policy     Authorizer
	clock      clock.Clock
	logger     log.Logger
	metrics    metrics.Recorder
	lists      Lists
	maxAgeDays int
	seen       *lru.Cache[int, struct{}]
}

// New validates opts and builds a Coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Reader == nil || opts.Store == nil || opts.Policy == nil {
		return nil, fmt.Errorf("reader, store and policy are required")
	}
	if err := opts.Lists.Validate(); err != nil {
		return nil, err
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewNoop()
	}
	if opts.MaxAgeDays <= 0 {
		opts.MaxAgeDays = retention.DefaultMaxAgeDays
	}
	if opts.SeenSize <= 0 {
		opts.SeenSize = defaultSeenSize
	}
	seen, err := lru.New[int, struct{}](opts.SeenSize)
	if err != nil {
		return nil, fmt.Errorf("failed to create request memo: %w", err)
	}
	return &Coordinator{
		reader:     opts.Reader,
		store:      opts.Store,
		policy:     opts.Policy,
		clock:      opts.Clock,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		lists:      opts.Lists,
		maxAgeDays: opts.MaxAgeDays,
		seen:       seen,
	}, nil
}

// Run processes every open request once. A failing request never stops the
// loop; store unavailability and reader failures are collected and returned.
func (c *Coordinator) Run(ctx context.Context) error {
	requests, err := c.reader.ListOpen(ctx)
	if err != nil {
		return fmt.Errorf("failed to list open requests: %w", err)
	}
	c.logger.Info(map[string]any{"open": len(requests)}, "run_start")

	var errs error
	for _, req := range requests {
		if err := ctx.Err(); err != nil {
			return multierr.Append(errs, err)
		}
		if c.seen.Contains(req.ID) {
			c.logger.Debug(map[string]any{"request": req.ID}, "skip_already_closed")
			continue
		}
		rep := c.Process(ctx, req)
		errs = multierr.Append(errs, c.finish(ctx, rep))
	}

	c.logger.Info(map[string]any{"open": len(requests), "failures": len(multierr.Errors(errs))}, "run_done")
	return errs
}

// Process runs one request through Validating, Mutating and, for allow
// requests, Syncing. It performs no reporting; see Run.
func (c *Coordinator) Process(ctx context.Context, req domain.Request) Report {
	rep := Report{Request: req, State: StateValidating}

	verdict := c.policy.EvaluateRequest(req)
	if !verdict.Accepted() {
		rep.Err = verdict.Rejection
		rep.State = StateReporting
		c.logger.Info(map[string]any{"request": req.ID, "user": req.Requester, "reason": string(verdict.Rejection.Reason)}, "request_rejected")
		return rep
	}
	rep.Action = verdict.Action

	rep.State = StateMutating
	target := c.targetFor(verdict.Action)
	if verdict.Action == domain.ActionBlock {
		allowed, err := c.allowedKeys(ctx)
		if err != nil {
			rep.Err = err
			return rep
		}
		target.Allowed = allowed
	}
	outcomes, err := c.mutate(ctx, req, target, verdict.Domains)
	rep.Outcomes = append(rep.Outcomes, outcomes...)
	if err != nil {
		rep.Err = err
		return rep
	}

	if verdict.Action == domain.ActionAllow {
		rep.State = StateSyncing
		removed, err := c.syncBlockList(ctx, req, verdict.Domains)
		rep.Outcomes = append(rep.Outcomes, removed...)
		if err != nil {
			rep.Err = err
			return rep
		}
	}

	rep.State = StateReporting
	return rep
}

func (c *Coordinator) targetFor(a domain.Action) merge.Target {
	if a == domain.ActionAllow {
		return merge.Target{Name: c.lists.Allow, Kind: domain.ListAllow}
	}
	return merge.Target{Name: c.lists.Block, Kind: domain.ListBlock}
}

// allowedKeys reads the allow list so that block requests never list an
// allow-listed domain.
func (c *Coordinator) allowedKeys(ctx context.Context) (map[string]struct{}, error) {
	allow, _, err := c.read(ctx, c.lists.Allow)
	if err != nil {
		return nil, err
	}
	return allow.Keys(), nil
}

// mutate prunes and merges the target list, writing it back only when changed.
func (c *Coordinator) mutate(ctx context.Context, req domain.Request, target merge.Target, domains []domain.Domain) ([]domain.Outcome, error) {
	current, version, err := c.read(ctx, target.Name)
	if err != nil {
		return nil, err
	}

	today := c.clock.Now()
	pruned := retention.Prune(current, today, c.maxAgeDays)
	next, outcomes := merge.Merge(pruned, domains, target, c.policy.CanWildcard(req.Requester), today)

	if next.Equal(current) {
		c.logger.Debug(map[string]any{"request": req.ID, "list": target.Name}, "list_unchanged")
		return outcomes, nil
	}
	if err := c.write(ctx, target.Name, next, version, addMessage(req, outcomes, c.maxAgeDays)); err != nil {
		return nil, err
	}
	return outcomes, nil
}

// syncBlockList removes every allow-listed domain of req from the block list.
func (c *Coordinator) syncBlockList(ctx context.Context, req domain.Request, domains []domain.Domain) ([]domain.Outcome, error) {
	target := merge.Target{Name: c.lists.Block, Kind: domain.ListBlock}
	current, version, err := c.read(ctx, target.Name)
	if err != nil {
		return nil, err
	}

	next, removed := merge.Remove(current, domains, target)
	if len(removed) == 0 {
		return nil, nil
	}
	msg := fmt.Sprintf("Remove %s (allowed by request #%d)", strings.Join(outcomeNames(removed), ", "), req.ID)
	if err := c.write(ctx, target.Name, next, version, msg); err != nil {
		return nil, err
	}
	return removed, nil
}

func (c *Coordinator) read(ctx context.Context, path string) (domain.ListFile, domain.Version, error) {
	lines, version, err := c.store.Read(ctx, path)
	if err != nil {
		return domain.ListFile{}, "", classify("read", path, err)
	}
	return domain.ParseListFile(lines), version, nil
}

func (c *Coordinator) write(ctx context.Context, path string, f domain.ListFile, expected domain.Version, msg string) error {
	v, err := c.store.Write(ctx, path, f.Raw(), expected, msg)
	if err != nil {
		err = classify("write", path, err)
		if errors.Is(err, domain.ErrWriteConflict) {
			c.metrics.WriteConflict(path)
		}
		return err
	}
	c.logger.Info(map[string]any{"list": path, "version": string(v), "message": msg}, "list_written")
	return nil
}

// classify keeps typed store errors and treats anything else as unavailability.
func classify(op, path string, err error) error {
	if errors.Is(err, domain.ErrWriteConflict) || errors.Is(err, domain.ErrStoreUnavailable) {
		return err
	}
	return &domain.StoreUnavailableError{Op: op, Path: path, Err: err}
}

func addMessage(req domain.Request, outcomes []domain.Outcome, maxAgeDays int) string {
	var added []string
	for _, o := range outcomes {
		if o.Kind == domain.OutcomeAdded {
			added = append(added, o.Domain.Name)
		}
	}
	if len(added) == 0 {
		return fmt.Sprintf("Prune entries older than %d days", maxAgeDays)
	}
	return fmt.Sprintf("Add %s from request #%d", strings.Join(added, ", "), req.ID)
}

func outcomeNames(os []domain.Outcome) []string {
	out := make([]string, 0, len(os))
	for _, o := range os {
		out = append(out, o.Domain.Name)
	}
	return out
}
