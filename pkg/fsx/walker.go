package fsx

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// DefaultBatchSize is the number of directory entries read per Readdirnames call when
// no batch size is given.
const DefaultBatchSize = 256

// Walker traverses a file tree reading at most batchSize directory entries at a time, so
// a directory holding a very large number of uploads never has to be listed in one go.
// Each directory handle is released as soon as that directory is done.
type Walker struct {
	batchSize int
}

// NewWalker returns a Walker reading batchSize entries per call. Non positive values
// select DefaultBatchSize.
func NewWalker(batchSize int) *Walker {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &Walker{batchSize: batchSize}
}

// Start calls fn for root and every file and directory below it. A root that is a symbolic
// link is followed; links below it are not.
//
// The callback contract follows filepath.Walk: fn receives the error of a failed Lstat or
// directory read, returning filepath.SkipDir from a directory skips its contents and
// filepath.SkipAll ends the walk without error. Entries are visited in lexical order
// within a batch.
func (w *Walker) Start(root string, fn filepath.WalkFunc) error {
	info, err := os.Stat(root)
	if err != nil {
		err = fn(root, nil, err)
	} else {
		err = w.walk(root, info, fn)
	}

	if errors.Is(err, filepath.SkipDir) || errors.Is(err, filepath.SkipAll) {
		return nil
	}

	return err
}

func (w *Walker) walk(path string, info fs.FileInfo, fn filepath.WalkFunc) error {
	if err := fn(path, info, nil); err != nil || !info.IsDir() {
		return err
	}

	dir, err := os.Open(path)
	if err != nil {
		return fn(path, info, err)
	}
	defer CloseFile(dir)

	for {
		names, err := dir.Readdirnames(w.batchSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return fn(path, info, err)
		}

		if len(names) == 0 {
			return nil
		}

		slices.Sort(names)
		for _, name := range names {
			child := filepath.Join(path, name)
			childInfo, err := os.Lstat(child)
			if err != nil {
				if err := fn(child, nil, err); err != nil && !errors.Is(err, filepath.SkipDir) {
					return err
				}
				continue
			}

			if err := w.walk(child, childInfo, fn); err != nil {
				if !childInfo.IsDir() || !errors.Is(err, filepath.SkipDir) {
					return err
				}
			}
		}
	}
}
