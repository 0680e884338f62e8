package archive

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/leeineian/logbot/sys"
)

var (
	ErrNotFound       = errors.New("log folder not found")
	ErrForbidden      = errors.New("admin logs cannot be erased")
	ErrInvalidChannel = errors.New("invalid channel reference")
	ErrInvalidDate    = errors.New("invalid date")
)

// Reporter receives write failures that the caller may otherwise swallow.
type Reporter interface {
	ReportWriteFailure(folder Folder, err error)
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(folder Folder, err error)

func (f ReporterFunc) ReportWriteFailure(folder Folder, err error) {
	f(folder, err)
}

// Archive owns the log tree under one root directory.
type Archive struct {
	root     string
	clock    Clock
	reporter Reporter

	// one mutex per folder path
	locks sync.Map
}

type Option func(*Archive)

func WithClock(c Clock) Option {
	return func(a *Archive) { a.clock = c }
}

func WithReporter(r Reporter) Option {
	return func(a *Archive) { a.reporter = r }
}

// New creates the log root if needed and returns an Archive rooted there.
func New(root string, opts ...Option) (*Archive, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		sys.LogArchiveError(sys.MsgArchiveRootFail, abs, err)
		return nil, fmt.Errorf("create log root: %w", err)
	}

	a := &Archive{root: abs}
	for _, opt := range opts {
		opt(a)
	}
	sys.LogArchive(sys.MsgArchiveRootReady, abs)
	return a, nil
}

func (a *Archive) Root() string {
	return a.root
}

func (a *Archive) lock(path string) func() {
	v, _ := a.locks.LoadOrStore(filepath.Clean(path), &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
