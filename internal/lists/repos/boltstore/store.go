package boltstore

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/haukened/rr-listsync/internal/lists/common/clock"
	"github.com/haukened/rr-listsync/internal/lists/domain"
	"github.com/haukened/rr-listsync/internal/lists/services/coordinator"
)

var (
	bucketLists    = []byte("lists")
	bucketVersions = []byte("versions")
	bucketHistory  = []byte("history")
)

// Change is one recorded write of a list.
type Change struct {
	Version domain.Version
	Message string
	At      time.Time
}

// Stats captures counts for the persistent store.
type Stats struct {
	Lists   int
	Changes int
}

// boltStore implements coordinator.ListStore using bbolt. Each list has a
// content entry, a big-endian uint64 version counter and a history sub-bucket
// keyed by that counter.
type boltStore struct {
	db    *bbolt.DB
	clock clock.Clock
}

// Store is the bbolt-backed list store.
type Store interface {
	coordinator.ListStore
	History(name string) ([]Change, error)
	Stats() Stats
	Close() error
}

// New opens (or creates) a Bolt database at path and ensures buckets exist.
func New(path string, clk clock.Clock) (Store, error) {
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	if err := db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketLists, bucketVersions, bucketHistory} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	}); err != nil {
		_ = db.Close()
		return nil, err
	}
	if clk == nil {
		clk = clock.RealClock{}
	}
	return &boltStore{db: db, clock: clk}, nil
}

func (s *boltStore) Close() error { return s.db.Close() }

// Read returns the lines and version of name. A list never written reads as
// empty with the empty version.
func (s *boltStore) Read(ctx context.Context, name string) ([]string, domain.Version, error) {
	if err := ctx.Err(); err != nil {
		return nil, "", &domain.StoreUnavailableError{Op: "read", Path: name, Err: err}
	}
	var (
		lines   []string
		version domain.Version
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		version = token(counter(tx, name))
		if v := tx.Bucket(bucketLists).Get([]byte(name)); len(v) > 0 {
			// v is only valid inside the transaction; the string copies it.
			lines = strings.Split(string(v), "\n")
		}
		return nil
	})
	if err != nil {
		return nil, "", &domain.StoreUnavailableError{Op: "read", Path: name, Err: err}
	}
	return lines, version, nil
}

// Write stores lines as the new content of name when the stored version
// equals expected, and records message in the history.
func (s *boltStore) Write(ctx context.Context, name string, lines []string, expected domain.Version, message string) (domain.Version, error) {
	if err := ctx.Err(); err != nil {
		return "", &domain.StoreUnavailableError{Op: "write", Path: name, Err: err}
	}
	if name == "" {
		return "", fmt.Errorf("list name must not be empty")
	}

	var next uint64
	var conflict *domain.WriteConflictError
	err := s.db.Update(func(tx *bbolt.Tx) error {
		cur := counter(tx, name)
		if token(cur) != expected {
			conflict = &domain.WriteConflictError{Path: name, Expected: expected, Actual: token(cur)}
			return nil
		}
		next = cur + 1
		key := []byte(name)
		if err := tx.Bucket(bucketLists).Put(key, []byte(strings.Join(lines, "\n"))); err != nil {
			return err
		}
		if err := tx.Bucket(bucketVersions).Put(key, encode(next)); err != nil {
			return err
		}
		hist, err := tx.Bucket(bucketHistory).CreateBucketIfNotExists(key)
		if err != nil {
			return err
		}
		return hist.Put(encode(next), encodeChange(s.clock.Now(), message))
	})
	if err != nil {
		return "", &domain.StoreUnavailableError{Op: "write", Path: name, Err: err}
	}
	if conflict != nil {
		return "", conflict
	}
	return token(next), nil
}

// History returns the recorded changes of name, oldest first.
func (s *boltStore) History(name string) ([]Change, error) {
	var out []Change
	err := s.db.View(func(tx *bbolt.Tx) error {
		hist := tx.Bucket(bucketHistory).Bucket([]byte(name))
		if hist == nil {
			return nil
		}
		return hist.ForEach(func(k, v []byte) error {
			at, msg := decodeChange(v)
			out = append(out, Change{Version: token(binary.BigEndian.Uint64(k)), Message: msg, At: at})
			return nil
		})
	})
	return out, err
}

func (s *boltStore) Stats() Stats {
	st := Stats{}
	_ = s.db.View(func(tx *bbolt.Tx) error {
		st.Lists = tx.Bucket(bucketLists).Stats().KeyN
		return tx.Bucket(bucketHistory).ForEachBucket(func(k []byte) error {
			st.Changes += tx.Bucket(bucketHistory).Bucket(k).Stats().KeyN
			return nil
		})
	})
	return st
}

func counter(tx *bbolt.Tx, name string) uint64 {
	if v := tx.Bucket(bucketVersions).Get([]byte(name)); len(v) == 8 {
		return binary.BigEndian.Uint64(v)
	}
	return 0
}

// token renders a counter as a version; zero means never written.
func token(n uint64) domain.Version {
	if n == 0 {
		return ""
	}
	return domain.Version(strconv.FormatUint(n, 10))
}

func encode(n uint64) []byte {
	buf := make([]byte, 8)
	binary.BigEndian.PutUint64(buf, n)
	return buf
}

// encodeChange packs the unix time followed by the message.
func encodeChange(at time.Time, message string) []byte {
	buf := make([]byte, 8, 8+len(message))
	binary.BigEndian.PutUint64(buf, uint64(at.Unix()))
	return append(buf, message...)
}

func decodeChange(v []byte) (time.Time, string) {
	if len(v) < 8 {
		return time.Time{}, string(v)
	}
	return time.Unix(int64(binary.BigEndian.Uint64(v[:8])), 0).UTC(), string(v[8:])
}

var _ coordinator.ListStore = (*boltStore)(nil)
