// Package cache decides whether a rendition already on disk can be served or
// must be rendered again, and writes new renditions into place.
package cache

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/ds124wfegd/image-transform/internal/pkg/command"
	"github.com/ds124wfegd/image-transform/internal/pkg/storage"
	"github.com/sirupsen/logrus"
)

const defaultTenant = "default"

type State int

const (
	// Miss: no file at the cache path.
	Miss State = iota
	// Stale: the file is older than the master.
	Stale
	// Fresh: the file may be served as is.
	Fresh
)

func (s State) String() string {
	switch s {
	case Miss:
		return "miss"
	case Stale:
		return "stale"
	case Fresh:
		return "fresh"
	}
	return "State(" + strconv.Itoa(int(s)) + ")"
}

// Key identifies one rendition of one master within a tenant.
type Key struct {
	Tenant    string
	ObjectID  int64
	Chain     *command.Chain
	Extension string
}

// RenderFunc produces the rendition bytes on a miss.
type RenderFunc func() ([]byte, error)

type Result struct {
	// Path is the absolute file path of the rendition.
	Path        string
	State       State
	Regenerated bool
}

type Gate struct {
	storage storage.FileStorage
	locker  Locker
	now     func() time.Time
}

func NewGate(st storage.FileStorage, locker Locker) *Gate {
	if locker == nil {
		locker = NewKeyedMutex()
	}
	return &Gate{storage: st, locker: locker, now: time.Now}
}

// Path returns the storage-relative path of a rendition:
// <tenant>/<object id>/<sanitized commands>.<ext>. The chain is serialized
// canonically, so equivalent chains share a path.
func (g *Gate) Path(key Key) string {
	tenant := secureName(key.Tenant)
	if tenant == "" {
		tenant = defaultTenant
	}
	name := fileName(key.Chain.String()) + "." + secureName(key.Extension)
	return filepath.Join(tenant, strconv.FormatInt(key.ObjectID, 10), name)
}

// State classifies the file at path against the master's last write. A master
// without a recorded write time never validates an existing file.
func (g *Gate) State(path string, masterUpdatedAt time.Time) (State, error) {
	info, err := g.storage.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Miss, nil
		}
		return Miss, fmt.Errorf("stat %s: %w", path, err)
	}
	if masterUpdatedAt.IsZero() || info.ModTime().Before(masterUpdatedAt) {
		return Stale, nil
	}
	return Fresh, nil
}

// Resolve returns the rendition path, rendering and writing it first unless
// the cached file is fresh. Regeneration of one path is serialized through
// the Locker; whoever waits re-checks the state before rendering.
func (g *Gate) Resolve(ctx context.Context, key Key, masterUpdatedAt time.Time, render RenderFunc) (*Result, error) {
	path := g.Path(key)
	if err := g.storage.EnsureDir(filepath.Dir(path)); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}

	state, err := g.State(path, masterUpdatedAt)
	if err != nil {
		return nil, err
	}
	if state == Fresh {
		return &Result{Path: g.storage.FullPath(path), State: Fresh}, nil
	}

	unlock, err := g.locker.Lock(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("locking %s: %w", path, err)
	}
	defer unlock()

	// another worker may have written it while we waited
	if recheck, err := g.State(path, masterUpdatedAt); err != nil {
		return nil, err
	} else if recheck == Fresh {
		return &Result{Path: g.storage.FullPath(path), State: Fresh}, nil
	}

	// the file is stamped with the time the render started, so a master
	// written while it runs makes the result stale
	started := g.now()
	data, err := render()
	if err != nil {
		return nil, err
	}

	if err := g.storage.WriteAtomic(path, data); err != nil {
		return nil, err
	}

	if err := g.storage.Chtimes(path, started); err != nil {
		return nil, fmt.Errorf("setting mtime of %s: %w", path, err)
	}

	logrus.WithFields(logrus.Fields{
		"path":  path,
		"state": state.String(),
		"bytes": len(data),
	}).Debug("Rendition written")

	return &Result{Path: g.storage.FullPath(path), State: state, Regenerated: true}, nil
}
