// Package inbox reads requests from a directory of YAML, JSON or TOML files,
// one request per file. Comments are appended to a sidecar file and closed
// requests are moved into a closed/ subdirectory.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"

	"github.com/haukened/rr-listsync/internal/lists/common/clock"
	"github.com/haukened/rr-listsync/internal/lists/common/log"
	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/services/coordinator"
)

const (
	closedDir     = "closed"
	commentSuffix = ".comments"

	// kindPullRequest marks files mirrored from pull requests; they are not requests.
	kindPullRequest = "pull_request"
)

// Options configures an Inbox.
type Options struct {
	Dir    string
	Logger log.Logger
	Clock  clock.Clock
}

// Inbox implements coordinator.RequestReader over a directory.
type Inbox struct {
	dir    string
	logger log.Logger
	clock  clock.Clock

	mu    sync.Mutex
	files map[int]string // request id -> file path, from the last ListOpen
}

// New returns an Inbox for opts.Dir, creating it and its closed/ directory.
func New(opts Options) (*Inbox, error) {
	if opts.Dir == "" {
		return nil, fmt.Errorf("inbox directory must not be empty")
	}
	if err := os.MkdirAll(filepath.Join(opts.Dir, closedDir), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create inbox %s: %w", opts.Dir, err)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewNoopLogger()
	}
	if opts.Clock == nil {
		opts.Clock = clock.RealClock{}
	}
	return &Inbox{dir: opts.Dir, logger: opts.Logger, clock: opts.Clock, files: map[int]string{}}, nil
}

// ListOpen loads every request file directly inside the inbox, ordered by id.
// Files that fail to parse or carry no usable id are logged and skipped.
func (in *Inbox) ListOpen(ctx context.Context) ([]domain.Request, error) {
	files := map[int]string{}
	var requests []domain.Request

	err := filepath.WalkDir(in.dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != in.dir {
				return filepath.SkipDir
			}
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		req, kind, ok, err := loadRequestFile(path)
		switch {
		case err != nil:
			in.logger.Warn(map[string]any{"file": path, "error": err}, "request_file_invalid")
			return nil
		case !ok:
			return nil
		case kind == kindPullRequest:
			in.logger.Debug(map[string]any{"file": path}, "skip_pull_request")
			return nil
		case req.ID <= 0:
			in.logger.Warn(map[string]any{"file": path}, "request_file_missing_id")
			return nil
		}
		if prev, dup := files[req.ID]; dup {
			in.logger.Warn(map[string]any{"file": path, "request": req.ID, "kept": prev}, "request_id_duplicate")
			return nil
		}
		files[req.ID] = path
		requests = append(requests, req)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read inbox %s: %w", in.dir, err)
	}

	sort.Slice(requests, func(i, j int) bool { return requests[i].ID < requests[j].ID })

	in.mu.Lock()
	in.files = files
	in.mu.Unlock()
	return requests, nil
}

// Comment appends text to the request's comment file.
func (in *Inbox) Comment(ctx context.Context, id int, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := in.lookup(id)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path+commentSuffix, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open comments for request #%d: %w", id, err)
	}
	entry := fmt.Sprintf("--- %s\n%s\n", in.clock.Now().Format(time.RFC3339), text)
	if _, err := f.WriteString(entry); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write comment for request #%d: %w", id, err)
	}
	return f.Close()
}

// Close moves the request file, and its comment file when present, into closed/.
func (in *Inbox) Close(ctx context.Context, id int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path, err := in.lookup(id)
	if err != nil {
		return err
	}
	dest := filepath.Join(in.dir, closedDir, filepath.Base(path))
	if err := os.Rename(path, dest); err != nil {
		return fmt.Errorf("failed to close request #%d: %w", id, err)
	}
	if _, err := os.Stat(path + commentSuffix); err == nil {
		if err := os.Rename(path+commentSuffix, dest+commentSuffix); err != nil {
			return fmt.Errorf("failed to move comments of request #%d: %w", id, err)
		}
	}

	in.mu.Lock()
	delete(in.files, id)
	in.mu.Unlock()
	in.logger.Debug(map[string]any{"request": id, "file": dest}, "request_file_closed")
	return nil
}

func (in *Inbox) lookup(id int) (string, error) {
	in.mu.Lock()
	defer in.mu.Unlock()
	path, ok := in.files[id]
	if !ok {
		return "", fmt.Errorf("request #%d is not open in the inbox", id)
	}
	return path, nil
}

// loadRequestFile parses one request file, picking the parser from the file
// extension. ok is false for unsupported file types.
func loadRequestFile(path string) (req domain.Request, kind string, ok bool, err error) {
	var parser koanf.Parser
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	case ".toml":
		parser = toml.Parser()
	default:
		return domain.Request{}, "", false, nil
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), parser); err != nil {
		return domain.Request{}, "", true, fmt.Errorf("failed to load request file %s: %w", path, err)
	}

	req = domain.Request{
		ID:        k.Int("id"),
		Title:     k.String("title"),
		Body:      k.String("body"),
		Requester: k.String("user"),
	}
	return req, strings.ToLower(k.String("kind")), true, nil
}

var _ coordinator.RequestReader = (*Inbox)(nil)
