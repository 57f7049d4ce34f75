// Package preflight refuses to start a harness run on a dirty work tree, so
// every reported diff can be attributed to hook execution alone.
package preflight

import (
	"context"
	"fmt"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fulmenhq/hookkit/internal/gitctx"
	"github.com/fulmenhq/hookkit/internal/stageerr"
	"github.com/fulmenhq/hookkit/pkg/logger"
)

// StatusSource reports non-clean paths of the invocation tree.
type StatusSource interface {
	Status(ctx context.Context) ([]gitctx.FileStatus, error)
}

// Guard checks work tree cleanliness.
type Guard struct {
	Source StatusSource
	// CopyPatterns are the globs the workspace builder copies. Untracked
	// files matching them would leak into the workspace and make it dirty.
	CopyPatterns []string
}

// CheckClean returns nil for a clean tree, *stageerr.DirtyTreeError when
// changes are pending, or a wrapped error when status cannot be read.
func (g *Guard) CheckClean(ctx context.Context) error {
	st, err := g.Source.Status(ctx)
	if err != nil {
		return fmt.Errorf("read work tree status: %w", err)
	}

	var dirty []string
	for _, s := range st {
		if s.Untracked && !g.collides(s.Path) {
			logger.Trace("preflight: ignoring untracked file", logger.String("path", s.Path))
			continue
		}
		dirty = append(dirty, s.Path)
	}
	if len(dirty) > 0 {
		return &stageerr.DirtyTreeError{Paths: dirty}
	}
	logger.Debug("preflight: work tree clean", logger.Int("entries", len(st)))
	return nil
}

func (g *Guard) collides(path string) bool {
	for _, pattern := range g.CopyPatterns {
		if ok, _ := doublestar.Match(pattern, path); ok {
			return true
		}
	}
	return false
}
