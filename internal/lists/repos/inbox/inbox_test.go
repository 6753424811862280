package inbox

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/haukened/rr-listsync/internal/lists/common/clock"
	"github.com/haukened/rr-listsync/internal/lists/domain"
)

const abuseYAML = `
id: 12
title: "[abuse]"
user: carol
body: |
  Please block this one.
  domain: foo.bar.com
`

const recoveryJSON = `{
  "id": 7,
  "title": "[recovery]",
  "user": "alice",
  "body": "domain: good.example"
}
`

const abuseTOML = `id = 30
title = "[ABUSE]"
user = "dave"
body = "domain: evil.example"
`

const pullRequestYAML = `
id: 40
kind: pull_request
title: "[abuse] add entries"
user: carol
body: "domain: x.example"
`

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func newInbox(t *testing.T) (*Inbox, string) {
	t.Helper()
	dir := t.TempDir()
	in, err := New(Options{Dir: dir, Clock: clock.NewMockClock(time.Date(2025, 8, 14, 12, 0, 0, 0, time.UTC))})
	require.NoError(t, err)
	return in, dir
}

func TestListOpen_AllFormatsSortedByID(t *testing.T) {
	in, dir := newInbox(t)
	write(t, dir, "a.yaml", abuseYAML)
	write(t, dir, "b.json", recoveryJSON)
	write(t, dir, "c.toml", abuseTOML)

	reqs, err := in.ListOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 3)

	assert.Equal(t, domain.Request{ID: 7, Title: "[recovery]", Body: "domain: good.example", Requester: "alice"}, reqs[0])
	assert.Equal(t, 12, reqs[1].ID)
	assert.Equal(t, "carol", reqs[1].Requester)
	assert.Contains(t, reqs[1].Body, "domain: foo.bar.com")
	assert.Equal(t, 30, reqs[2].ID)
	assert.Equal(t, "[ABUSE]", reqs[2].Title)
}

func TestListOpen_Skips(t *testing.T) {
	in, dir := newInbox(t)
	write(t, dir, "pr.yaml", pullRequestYAML)
	write(t, dir, "notes.txt", "not a request")
	write(t, dir, "broken.json", "{ not json")
	write(t, dir, "noid.yml", "title: \"[abuse]\"\nuser: carol\n")
	write(t, dir, "dup-1.yaml", abuseYAML)
	write(t, dir, "dup-2.yaml", abuseYAML)
	write(t, filepath.Join(dir, closedDir), "old.json", recoveryJSON)

	reqs, err := in.ListOpen(context.Background())
	require.NoError(t, err)
	require.Len(t, reqs, 1)
	assert.Equal(t, 12, reqs[0].ID)
}

func TestListOpen_Empty(t *testing.T) {
	in, _ := newInbox(t)
	reqs, err := in.ListOpen(context.Background())
	require.NoError(t, err)
	assert.Empty(t, reqs)
}

func TestCommentAndClose(t *testing.T) {
	in, dir := newInbox(t)
	p := write(t, dir, "a.yaml", abuseYAML)
	ctx := context.Background()

	_, err := in.ListOpen(ctx)
	require.NoError(t, err)

	require.NoError(t, in.Comment(ctx, 12, "Request #12 processed (block):\n- `foo.bar.com` added to `nyan.rpz`."))
	require.NoError(t, in.Comment(ctx, 12, "second"))

	raw, err := os.ReadFile(p + commentSuffix)
	require.NoError(t, err)
	assert.Equal(t,
		"--- 2025-08-14T12:00:00Z\nRequest #12 processed (block):\n- `foo.bar.com` added to `nyan.rpz`.\n"+
			"--- 2025-08-14T12:00:00Z\nsecond\n",
		string(raw))

	require.NoError(t, in.Close(ctx, 12))
	assert.NoFileExists(t, p)
	assert.NoFileExists(t, p+commentSuffix)
	assert.FileExists(t, filepath.Join(dir, closedDir, "a.yaml"))
	assert.FileExists(t, filepath.Join(dir, closedDir, "a.yaml"+commentSuffix))

	// closed requests are not listed again
	reqs, err := in.ListOpen(ctx)
	require.NoError(t, err)
	assert.Empty(t, reqs)

	assert.Error(t, in.Close(ctx, 12))
}

func TestCloseWithoutComments(t *testing.T) {
	in, dir := newInbox(t)
	write(t, dir, "b.json", recoveryJSON)
	ctx := context.Background()
	_, err := in.ListOpen(ctx)
	require.NoError(t, err)

	require.NoError(t, in.Close(ctx, 7))
	assert.FileExists(t, filepath.Join(dir, closedDir, "b.json"))
}

func TestUnknownRequest(t *testing.T) {
	in, _ := newInbox(t)
	ctx := context.Background()
	assert.Error(t, in.Comment(ctx, 99, "x"))
	assert.Error(t, in.Close(ctx, 99))
}

func TestCanceledContext(t *testing.T) {
	in, dir := newInbox(t)
	write(t, dir, "a.yaml", abuseYAML)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := in.ListOpen(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, in.Comment(ctx, 12, "x"), context.Canceled)
}

func TestNew_EmptyDir(t *testing.T) {
	_, err := New(Options{})
	assert.Error(t, err)
}

func TestLoadRequestFile_Unsupported(t *testing.T) {
	_, _, ok, err := loadRequestFile("/nonexistent/file.ini")
	assert.NoError(t, err)
	assert.False(t, ok)
}
