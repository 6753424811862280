package coordinator

import (
	"context"
	"fmt"

	"go.uber.org/multierr"

	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/services/retention"
)

// PruneResult reports what retention removed from one list.
type PruneResult struct {
	List    string
	Expired []string // entry keys dropped
	Written bool
}

// Prune applies retention to both lists outside of any request. Lists with
// nothing expired are not written. A failure on one list does not stop the other.
func (c *Coordinator) Prune(ctx context.Context) ([]PruneResult, error) {
	var (
		results []PruneResult
		errs    error
	)
	for _, name := range []string{c.lists.Block, c.lists.Allow} {
		res, err := c.pruneList(ctx, name)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		results = append(results, res)
	}
	return results, errs
}

func (c *Coordinator) pruneList(ctx context.Context, name string) (PruneResult, error) {
	res := PruneResult{List: name}
	current, version, err := c.read(ctx, name)
	if err != nil {
		return res, err
	}

	today := c.clock.Now()
	res.Expired = retention.Expired(current, today, c.maxAgeDays)
	next := retention.Prune(current, today, c.maxAgeDays)
	if next.Equal(current) {
		c.logger.Debug(map[string]any{"list": name}, "prune_nothing_expired")
		return res, nil
	}

	msg := fmt.Sprintf("Prune entries older than %d days", c.maxAgeDays)
	if err := c.write(ctx, name, next, version, msg); err != nil {
		return res, err
	}
	res.Written = true
	for range res.Expired {
		c.metrics.DomainOutcome(name, "expired")
	}
	c.logger.Info(map[string]any{"list": name, "expired": len(res.Expired), "cutoff": retention.Cutoff(today, c.maxAgeDays).Format(domain.DateLayout)}, "list_pruned")
	return res, nil
}
