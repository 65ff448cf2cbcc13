package scanner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghiro/autoupload/internal/core"
	"github.com/ghiro/autoupload/pkg/fsx"
	"github.com/ghiro/autoupload/pkg/logx"
)

type scanner struct {
	id        string
	root      string
	batchSize int
	ignore    *fsx.Patterns
}

// Info returns a unique identifier for the scanner instance.
func (s *scanner) Info() string {
	return s.id
}

// Root returns the absolute directory walked by the scanner.
func (s *scanner) Root() string {
	return s.root
}

// Scan walks the root directory and streams every regular file through the returned channel.
//
// Parameters:
//   - ctx: The context used to manage cancellation of the walk.
//   - ech: A channel to which errors encountered during the walk are sent.
//
// Returns:
//   - A channel of ScannerResult with absolute paths, closed when the walk is done.
//
// Behavior:
//   - Non-regular files and files matching the ignore patterns are skipped.
//   - Files removed during the walk are ignored, as is a missing root.
//   - Unreadable files and directories below the root are skipped with a warning; only a
//     failure on the root itself is sent to ech.
//   - The channel is unbuffered: the walk advances only as fast as results are consumed.
func (s *scanner) Scan(ctx context.Context, ech chan<- error) <-chan core.ScannerResult {
	items := make(chan core.ScannerResult)
	go func() {
		defer close(items)
		walker := fsx.NewWalker(s.batchSize)
		err := walker.Start(s.root, func(path string, info os.FileInfo, err error) error {
			if ctx.Err() != nil {
				return filepath.SkipAll
			}

			if err != nil {
				if os.IsNotExist(err) {
					logx.As().Warn().
						Str("path", path).
						Str("scanner", s.Info()).
						Msg("Path seems to have been deleted during scan, ignoring error...")
					return nil
				}

				if path == s.root {
					return err
				}

				// an unreadable entry must not hide the rest of the tree
				logx.As().Warn().Err(err).
					Str("path", path).
					Str("scanner", s.Info()).
					Msg("Cannot read path, skipping it")
				if info != nil && info.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}

			if !info.Mode().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(s.root, path)
			if err == nil && s.ignore.Match(rel) {
				logx.As().Trace().
					Str("path", path).
					Str("scanner", s.Info()).
					Msg("File matches ignore patterns, skipping")
				return nil
			}

			select {
			case items <- core.ScannerResult{Path: path, Info: info}:
			case <-ctx.Done():
				return filepath.SkipAll
			}

			return nil
		})

		if err != nil {
			logx.As().Error().Err(err).
				Str("path", s.root).
				Str("scanner", s.Info()).
				Msg("Error in scanner")
			select {
			case ech <- err:
			case <-ctx.Done():
			}
		}
	}()

	return items
}

func newScanner(id string, root string, batchSize int, ignorePatterns []string) (*scanner, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve scanner root %s: %w", root, err)
	}

	ignore, err := fsx.CompilePatterns(ignorePatterns)
	if err != nil {
		return nil, err
	}

	return &scanner{id: id, root: filepath.Clean(abs), batchSize: batchSize, ignore: ignore}, nil
}

// NewScanner creates a scanner walking root.
//
// Parameters:
//   - id: A unique identifier for the scanner instance.
//   - root: The directory to walk; it is made absolute.
//   - batchSize: The number of directory entries read at once, fsx.DefaultBatchSize if not positive.
//   - ignorePatterns: Glob patterns of files to skip, matched against the path relative to root and the file name.
func NewScanner(id string, root string, batchSize int, ignorePatterns []string) (core.Scanner, error) {
	return newScanner(id, root, batchSize, ignorePatterns)
}
