package domain

import (
	"testing"
	"time"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantKind LineKind
		wantKey  string
		wantDate string
	}{
		{name: "blank", raw: "   ", wantKind: LineBlank},
		{name: "comment", raw: "# managed by rr-listsync", wantKind: LineComment},
		{name: "header", raw: "# added: 2025-08-14", wantKind: LineHeader, wantDate: "2025-08-14"},
		{name: "header without space", raw: "#added:2025-08-14", wantKind: LineHeader, wantDate: "2025-08-14"},
		{name: "bad header date is a comment", raw: "# added: 2025-13-40", wantKind: LineComment},
		{name: "rpz entry", raw: "Example.COM CNAME .", wantKind: LineEntry, wantKey: "example.com"},
		{name: "legacy rpz entry with trailing dot", raw: "evil.example. IN CNAME .", wantKind: LineEntry, wantKey: "evil.example"},
		{name: "bare entry", raw: "good.example", wantKind: LineEntry, wantKey: "good.example"},
		{name: "wildcard entry", raw: "*.Evil.example CNAME .", wantKind: LineEntry, wantKey: "*.evil.example"},
		{name: "bom", raw: "\uFEFFfoo.example", wantKind: LineEntry, wantKey: "foo.example"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseLine(tt.raw)
			if got.Raw != tt.raw {
				t.Errorf("Raw = %q, want %q", got.Raw, tt.raw)
			}
			if got.Kind != tt.wantKind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.wantKind)
			}
			if got.Key != tt.wantKey {
				t.Errorf("Key = %q, want %q", got.Key, tt.wantKey)
			}
			if tt.wantDate != "" && got.Date.Format(DateLayout) != tt.wantDate {
				t.Errorf("Date = %v, want %s", got.Date, tt.wantDate)
			}
		})
	}
}

func TestListFile_Blocks(t *testing.T) {
	f := ParseListFile([]string{
		"legacy.example CNAME .",
		"# added: 2025-07-01",
		"a.example CNAME .",
		"# a note",
		"# added: 2025-08-01",
		"b.example CNAME .",
		"c.example CNAME .",
	})
	blocks := f.Blocks()
	if len(blocks) != 3 {
		t.Fatalf("expected 3 blocks, got %d", len(blocks))
	}
	if blocks[0].Dated || len(blocks[0].Lines) != 1 {
		t.Fatalf("undated block unexpected: %+v", blocks[0])
	}
	if !blocks[1].Dated || blocks[1].Date.Format(DateLayout) != "2025-07-01" || len(blocks[1].Lines) != 3 {
		t.Fatalf("block[1] unexpected: %+v", blocks[1])
	}
	if len(blocks[2].Lines) != 3 || blocks[2].Lines[0].Kind != LineHeader {
		t.Fatalf("block[2] unexpected: %+v", blocks[2])
	}

	last, ok := f.LastHeaderDate()
	if !ok || last.Format(DateLayout) != "2025-08-01" {
		t.Fatalf("LastHeaderDate = %v, %v", last, ok)
	}
}

func TestListFile_EmptyHasUndatedBlock(t *testing.T) {
	blocks := ListFile{}.Blocks()
	if len(blocks) != 1 || blocks[0].Dated || len(blocks[0].Lines) != 0 {
		t.Fatalf("unexpected blocks for empty file: %+v", blocks)
	}
	if _, ok := (ListFile{}).LastHeaderDate(); ok {
		t.Fatalf("empty file must not report a header date")
	}
}

func TestListFile_RawRoundTripAndEqual(t *testing.T) {
	raw := []string{"# added: 2025-08-01", "x.example", "", "y.example"}
	f := ParseListFile(raw)
	got := f.Raw()
	for i := range raw {
		if got[i] != raw[i] {
			t.Fatalf("line %d = %q, want %q", i, got[i], raw[i])
		}
	}
	if !f.Equal(ParseListFile(raw)) {
		t.Fatalf("expected equal files")
	}
	if f.Equal(ParseListFile(raw[:3])) {
		t.Fatalf("expected files of different length to differ")
	}
	keys := f.Keys()
	if len(keys) != 2 {
		t.Fatalf("expected 2 keys, got %v", keys)
	}
}

func TestHeaderAndEntryLines(t *testing.T) {
	day := time.Date(2025, 8, 14, 23, 59, 0, 0, time.UTC)
	h := HeaderLine(day)
	if h.Raw != "# added: 2025-08-14" || h.Kind != LineHeader {
		t.Fatalf("unexpected header: %+v", h)
	}
	d := Domain{Name: "Foo.Example"}
	if got := EntryLine(ListBlock, d); got.Raw != "Foo.Example CNAME ." || got.Key != "foo.example" {
		t.Fatalf("unexpected block entry: %+v", got)
	}
	if got := EntryLine(ListAllow, d); got.Raw != "Foo.Example" {
		t.Fatalf("unexpected allow entry: %+v", got)
	}
}
