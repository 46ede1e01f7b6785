package zest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/natefinch/atomic"
	"github.com/vmihailenco/msgpack/v5"
)

// IndexFile is the name of the fingerprint index inside an engine's
// CacheDir.
const IndexFile = "templates.idx"

// fingerprintIndex remembers the fingerprint of every template the engine
// parsed, and persists it to a cache directory so later runs can tell
// which templates changed.
type fingerprintIndex struct {
	dir string

	mu           sync.Mutex
	fingerprints map[string]uint64
}

func loadFingerprintIndex(ctx context.Context, dir string) (*fingerprintIndex, error) {
	index := &fingerprintIndex{
		dir:          dir,
		fingerprints: map[string]uint64{},
	}
	if dir == "" {
		return index, nil
	}
	contents, err := os.ReadFile(filepath.Join(dir, IndexFile))
	if errors.Is(err, fs.ErrNotExist) {
		return index, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading template index: %w", err)
	}
	if err := msgpack.Unmarshal(contents, &index.fingerprints); err != nil {
		// a corrupt index only costs us change detection
		logger(ctx).WarnContext(ctx, "ignoring unreadable template index", "dir", dir, "error", err)
		index.fingerprints = map[string]uint64{}
	}
	return index, nil
}

func (i *fingerprintIndex) entries() map[string]uint64 {
	i.mu.Lock()
	defer i.mu.Unlock()
	return maps.Clone(i.fingerprints)
}

// record stores the fingerprint for id and, if the index has a directory,
// writes it out. Write errors are logged, not returned.
func (i *fingerprintIndex) record(ctx context.Context, id string, fingerprint uint64) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if prev, ok := i.fingerprints[id]; ok && prev == fingerprint {
		return
	}
	i.fingerprints[id] = fingerprint
	if i.dir == "" {
		return
	}
	if err := i.save(); err != nil {
		logger(ctx).ErrorContext(ctx, "error writing template index", "dir", i.dir, "error", err)
	}
}

func (i *fingerprintIndex) save() error {
	contents, err := msgpack.Marshal(i.fingerprints)
	if err != nil {
		return fmt.Errorf("error encoding template index: %w", err)
	}
	if err := os.MkdirAll(i.dir, 0o755); err != nil {
		return fmt.Errorf("error creating cache directory: %w", err)
	}
	return atomic.WriteFile(filepath.Join(i.dir, IndexFile), bytes.NewReader(contents))
}
