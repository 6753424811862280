package coordinator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/haukened/rr-listsync/internal/lists/domain"
)

// State is a step of the per-request state machine.
type State uint8

const (
	StateValidating State = iota
	StateMutating
	StateSyncing
	StateReporting
	StateClosed
)

// String returns a stable string representation of the state.
func (s State) String() string {
	switch s {
	case StateValidating:
		return "validating"
	case StateMutating:
		return "mutating"
	case StateSyncing:
		return "syncing"
	case StateReporting:
		return "reporting"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Result is the terminal classification of a processed request.
type Result string

const (
	ResultApplied     Result = "applied"     // lists updated (or already up to date), request closed
	ResultRejected    Result = "rejected"    // validation failure, request closed
	ResultConflict    Result = "conflict"    // write conflict, request left open
	ResultUnavailable Result = "unavailable" // store failure, request left open
)

// Report is what Process learned about one request. State is the step the
// request reached; on failure it is the step that failed.
type Report struct {
	Request  domain.Request
	Action   domain.Action
	Outcomes []domain.Outcome
	State    State
	Err      error
}

// Result classifies the report.
func (r Report) Result() Result {
	switch {
	case r.Err == nil:
		return ResultApplied
	case errors.Is(r.Err, domain.ErrValidation):
		return ResultRejected
	case errors.Is(r.Err, domain.ErrWriteConflict):
		return ResultConflict
	default:
		return ResultUnavailable
	}
}

// ShouldClose reports whether the request is resolved: validation failure
// or confirmed mutation. Ambiguous states keep it open.
func (r Report) ShouldClose() bool {
	res := r.Result()
	return res == ResultApplied || res == ResultRejected
}

// Summary renders the single comment posted for this request, or "" when no
// comment is due.
func (r Report) Summary() string {
	switch r.Result() {
	case ResultApplied:
		var b strings.Builder
		fmt.Fprintf(&b, "Request #%d processed (%s):\n", r.Request.ID, r.Action)
		for _, o := range r.Outcomes {
			fmt.Fprintf(&b, "- %s\n", o.Message())
		}
		return strings.TrimSuffix(b.String(), "\n")
	case ResultRejected:
		var verr *domain.ValidationError
		if errors.As(r.Err, &verr) && verr.Detail != "" {
			return fmt.Sprintf("Request format invalid: %s", verr.Detail)
		}
		return fmt.Sprintf("Request format invalid: %v", r.Err)
	case ResultConflict:
		return "A list file changed while this request was being applied. Nothing was closed; it will be retried on the next run."
	default:
		return ""
	}
}

// finish posts the summary, closes resolved requests and records metrics.
// It returns the errors that should fail the run.
func (c *Coordinator) finish(ctx context.Context, rep Report) error {
	res := rep.Result()
	fields := map[string]any{"request": rep.Request.ID, "result": string(res), "state": rep.State.String()}
	if rep.Err != nil {
		fields["error"] = rep.Err
	}

	c.metrics.RequestProcessed(string(res))
	for _, o := range rep.Outcomes {
		c.metrics.DomainOutcome(o.List, o.Kind.String())
	}

	var errs error
	if res == ResultUnavailable {
		c.logger.Error(fields, "request_failed")
		errs = multierr.Append(errs, fmt.Errorf("request #%d: %w", rep.Request.ID, rep.Err))
	} else if res == ResultConflict {
		c.logger.Warn(fields, "write_conflict")
	}

	if text := rep.Summary(); text != "" {
		if err := c.reader.Comment(ctx, rep.Request.ID, text); err != nil {
			c.logger.Error(map[string]any{"request": rep.Request.ID, "error": err}, "comment_failed")
			return multierr.Append(errs, fmt.Errorf("comment on request #%d: %w", rep.Request.ID, err))
		}
	}

	if !rep.ShouldClose() {
		return errs
	}
	if err := c.reader.Close(ctx, rep.Request.ID); err != nil {
		c.logger.Error(map[string]any{"request": rep.Request.ID, "error": err}, "close_failed")
		return multierr.Append(errs, fmt.Errorf("close request #%d: %w", rep.Request.ID, err))
	}
	c.seen.Add(rep.Request.ID, struct{}{})
	fields["state"] = StateClosed.String()
	c.logger.Info(fields, "request_closed")
	return errs
}
