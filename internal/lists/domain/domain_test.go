package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/haukened/rr-listsync/internal/lists/common/utils"
)

func TestNewDomain(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantErr  bool
		wildcard bool
		key      string
	}{
		{name: "exact", input: "Example.COM", key: "example.com"},
		{name: "wildcard", input: "*.Evil.example", wildcard: true, key: "*.evil.example"},
		{name: "trailing dot", input: "example.com.", key: "example.com"},
		{name: "empty", input: "  ", wantErr: true},
		{name: "single label", input: "localhost", wantErr: true},
		{name: "wildcard single label", input: "*.com", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := NewDomain(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if d.IsWildcard() != tt.wildcard {
				t.Errorf("IsWildcard = %v, want %v", d.IsWildcard(), tt.wildcard)
			}
			if d.Key() != tt.key {
				t.Errorf("Key = %q, want %q", d.Key(), tt.key)
			}
		})
	}
}

func TestActionFromTitle(t *testing.T) {
	tests := []struct {
		title string
		want  Action
		ok    bool
	}{
		{"[abuse]", ActionBlock, true},
		{"  [ABUSE] ", ActionBlock, true},
		{"[Recovery]", ActionAllow, true},
		{"[allow]", ActionNone, false},
		{"abuse", ActionNone, false},
		{"", ActionNone, false},
	}
	for _, tt := range tests {
		got, ok := ActionFromTitle(tt.title)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ActionFromTitle(%q) = %v, %v; want %v, %v", tt.title, got, ok, tt.want, tt.ok)
		}
	}
}

func TestRequest_Validate(t *testing.T) {
	if err := (Request{ID: 1, Requester: "alice"}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (Request{ID: 0, Requester: "alice"}).Validate(); err == nil {
		t.Fatalf("expected error for zero id")
	}
	if err := (Request{ID: 3}).Validate(); err == nil {
		t.Fatalf("expected error for missing requester")
	}
}

func TestErrorClassification(t *testing.T) {
	verr := NewValidationError(ReasonBadTitle, "title %q", "[allow]")
	if !errors.Is(verr, ErrValidation) {
		t.Fatalf("validation error must match ErrValidation")
	}
	if IsTransient(verr) {
		t.Fatalf("validation error must not be transient")
	}

	conflict := fmt.Errorf("write allow list: %w", &WriteConflictError{Path: "whitelist.txt", Expected: "a", Actual: "b"})
	if !errors.Is(conflict, ErrWriteConflict) || !IsTransient(conflict) {
		t.Fatalf("wrapped conflict must be transient: %v", conflict)
	}
	var wce *WriteConflictError
	if !errors.As(conflict, &wce) || wce.Path != "whitelist.txt" {
		t.Fatalf("errors.As failed for %v", conflict)
	}

	io := errors.New("disk on fire")
	unavail := &StoreUnavailableError{Op: "read", Path: "nyan.rpz", Err: io}
	if !errors.Is(unavail, ErrStoreUnavailable) || !errors.Is(unavail, io) {
		t.Fatalf("store unavailable must match sentinel and cause")
	}
}

func TestOutcome_Message(t *testing.T) {
	d := Domain{Name: "foo.bar.com"}
	tests := []struct {
		kind OutcomeKind
		want string
	}{
		{OutcomeAdded, "`foo.bar.com` added to `nyan.rpz`."},
		{OutcomeDuplicateSkipped, "`foo.bar.com` is already present in `nyan.rpz`, skipped."},
		{OutcomeRemoved, "`foo.bar.com` removed from `nyan.rpz`."},
		{OutcomeAllowListedSkipped, "`foo.bar.com` is allow-listed, not added to `nyan.rpz`."},
	}
	for _, tt := range tests {
		got := Outcome{Domain: d, Kind: tt.kind, List: "nyan.rpz"}.Message()
		if got != tt.want {
			t.Errorf("Message(%v) = %q, want %q", tt.kind, got, tt.want)
		}
	}
	if s := OutcomeKind(42).String(); s != "OutcomeKind(42)" {
		t.Errorf("unexpected string for unknown kind: %q", s)
	}
}

func TestVerdict(t *testing.T) {
	v := Accept(ActionBlock, []Domain{{Name: "a.example"}})
	if !v.Accepted() {
		t.Fatalf("expected accepted verdict")
	}
	r := Reject(NewValidationError(ReasonBanned, "user %s", "mallory"))
	if r.Accepted() || r.Rejection.Reason != ReasonBanned {
		t.Fatalf("unexpected rejected verdict: %+v", r)
	}
}

func TestDomainKey_MatchesCanonicalName(t *testing.T) {
	for _, raw := range []string{"Good.Example.", "*.Ads.Example..", "  x.example "} {
		if got, want := (Domain{Name: raw}).Key(), utils.CanonicalName(raw); got != want {
			t.Errorf("Key(%q) = %q, want %q", raw, got, want)
		}
	}
	f := ParseListFile([]string{"Good.Example. CNAME ."})
	if got := f.Lines[0].Key; got != "good.example" {
		t.Errorf("entry key = %q, want good.example", got)
	}
}
