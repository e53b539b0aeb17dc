// Package sharedstate provides a process-wide handle bound to the
// simulation's shared directory, through which agents
// publish and discover each other's identities and facts. A per-agent
// fact file has one writer (the agent named in its filename), while an
// append-log such as transactions.json is extended by many agents
// through AppendList; any number of readers is allowed. Writes are atomic
// (write-temp-then-rename) and lock-protected so readers never observe
// a half-written file.
package sharedstate

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	"github.com/monerosim/monerosim/logger"
	"github.com/pkg/errors"
)

var log, _ = logger.Get(logger.SubsystemTags.SSTO)

// LockTimeout bounds how long a Store waits to acquire an advisory
// lock before giving up: "readers never block writers
// indefinitely".
const LockTimeout = 10 * time.Second

const lockPollInterval = 25 * time.Millisecond

// Store is a handle bound to one shared directory.
type Store struct {
	dir string
}

// New returns a Store rooted at dir. dir must already exist.
func New(dir string) *Store {
	return &Store{dir: dir}
}

// Dir returns the shared directory path.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) path(filename string) string {
	return filepath.Join(s.dir, filename)
}

func (s *Store) lockPath(filename string) string {
	return filepath.Join(s.dir, "."+filename+".lock")
}

func (s *Store) acquire(ctx context.Context, filename string, exclusive bool) (*flock.Flock, error) {
	fl := flock.New(s.lockPath(filename))

	deadline := time.Now().Add(LockTimeout)
	for {
		var ok bool
		var err error
		if exclusive {
			ok, err = fl.TryLock()
		} else {
			ok, err = fl.TryRLock()
		}
		if err != nil {
			return nil, errors.Wrapf(err, "sharedstate: lock %s", filename)
		}
		if ok {
			return fl, nil
		}
		if time.Now().After(deadline) {
			return nil, errors.Errorf("sharedstate: timed out acquiring lock on %s", filename)
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

// Write serializes value as JSON and atomically replaces filename
// under an exclusive lock: write to a temp file in the same
// directory, flush, rename over the target. Per 
func (s *Store) Write(ctx context.Context, filename string, value interface{}) error {
	fl, err := s.acquire(ctx, filename, true)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	return s.writeLocked(filename, value)
}

// writeLocked performs the temp-then-rename write assuming the caller
// already holds the exclusive lock on filename.
func (s *Store) writeLocked(filename string, value interface{}) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return errors.Wrapf(err, "sharedstate: marshal %s", filename)
	}

	target := s.path(filename)
	tmp, err := os.CreateTemp(s.dir, "."+filename+".tmp-*")
	if err != nil {
		return errors.Wrapf(err, "sharedstate: create temp for %s", filename)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "sharedstate: write temp for %s", filename)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return errors.Wrapf(err, "sharedstate: sync temp for %s", filename)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "sharedstate: close temp for %s", filename)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return errors.Wrapf(err, "sharedstate: rename temp for %s", filename)
	}
	return nil
}

// Read opens filename under a shared lock and parses it into out. A
// missing or empty file, or one that fails to parse, is treated as
// "not yet available": Read returns false (and logs at warn for the
// malformed case) without an error, since this is a normal transient
// state early in a run rather than a caller-visible fault.
func (s *Store) Read(ctx context.Context, filename string, out interface{}) (present bool, err error) {
	fl, err := s.acquire(ctx, filename, false)
	if err != nil {
		return false, err
	}
	defer fl.Unlock()

	data, err := os.ReadFile(s.path(filename))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, errors.Wrapf(err, "sharedstate: read %s", filename)
	}
	if len(data) == 0 {
		return false, nil
	}

	if err := json.Unmarshal(data, out); err != nil {
		log.Warnf("sharedstate: %s is present but malformed, treating as absent: %s", filename, err)
		return false, nil
	}
	return true, nil
}

// AppendList loads filename as a JSON array (tolerating an
// empty/missing file as "[]"), appends element, and writes the result
// back — all under one held exclusive lock, so concurrent appenders
// (such as transactions.json writers) never interleave their
// load-modify-write cycles.
func (s *Store) AppendList(ctx context.Context, filename string, element interface{}) error {
	fl, err := s.acquire(ctx, filename, true)
	if err != nil {
		return err
	}
	defer fl.Unlock()

	var list []json.RawMessage
	data, err := os.ReadFile(s.path(filename))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrapf(err, "sharedstate: read %s", filename)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &list); err != nil {
			log.Warnf("sharedstate: %s is malformed, starting a fresh list: %s", filename, err)
			list = nil
		}
	}

	encoded, err := json.Marshal(element)
	if err != nil {
		return errors.Wrapf(err, "sharedstate: marshal element for %s", filename)
	}
	list = append(list, encoded)

	return s.writeLocked(filename, list)
}
