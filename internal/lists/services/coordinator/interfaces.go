package coordinator

import (
	"context"

	"github.com/haukened/rr-listsync/internal/lists/domain"
)

// RequestReader is the source of change requests and the sink for replies.
// Listing order is not significant.
type RequestReader interface {
	ListOpen(ctx context.Context) ([]domain.Request, error)
	Comment(ctx context.Context, id int, text string) error
	Close(ctx context.Context, id int) error
}

// ListStore reads and writes whole list files under optimistic versioning.
//
// Read returns the file's lines and its current version; a missing file is
// empty with the empty Version. Write must fail with *domain.WriteConflictError
// when the stored version differs from expected, and with
// *domain.StoreUnavailableError on transport failures. Timeouts are the
// store's responsibility.
type ListStore interface {
	Read(ctx context.Context, path string) ([]string, domain.Version, error)
	Write(ctx context.Context, path string, lines []string, expected domain.Version, message string) (domain.Version, error)
}

// Authorizer decides whether a request may change the lists.
type Authorizer interface {
	EvaluateRequest(r domain.Request) domain.Verdict
	CanWildcard(requester string) bool
}
