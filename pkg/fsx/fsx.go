package fsx

import (
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/ghiro/autoupload/pkg/logx"
)

// PathExists reports whether filePath exists. Errors other than not-exist (e.g. permission
// denied) are treated as existing so that callers never forget a path they cannot stat.
func PathExists(filePath string) (os.FileInfo, bool) {
	s, err := os.Stat(filePath)
	if err != nil && errors.Is(err, os.ErrNotExist) {
		return s, false
	}

	return s, true
}

// DirExists reports whether path exists and is a directory.
func DirExists(path string) bool {
	s, err := os.Stat(path)
	return err == nil && s.IsDir()
}

// Copy copies src to dst with the given permissions. The content is written to a
// temporary file next to dst and renamed into place, so readers never see a partial copy.
func Copy(src string, dst string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open source file: %w", err)
	}
	defer CloseFile(in)

	tmp, err := os.CreateTemp(filepath.Dir(dst), "."+filepath.Base(dst)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer func() {
		CloseFile(tmp)
		_ = os.Remove(tmp.Name()) // no-op once renamed
	}()

	if _, err = io.Copy(tmp, in); err != nil {
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to flush %s: %w", tmp.Name(), err)
	}
	if err = tmp.Chmod(perm); err != nil {
		return fmt.Errorf("failed to set mode of %s: %w", tmp.Name(), err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", tmp.Name(), err)
	}

	if err = os.Rename(tmp.Name(), dst); err != nil {
		return fmt.Errorf("failed to move copy into %s: %w", dst, err)
	}

	return nil
}

// CloseFile closes file, ignoring files that are already closed.
func CloseFile(file *os.File) {
	if file == nil {
		return
	}

	if err := file.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		logx.As().Warn().Err(err).Str("path", file.Name()).Msg("Failed to close file")
	}
}

// FileMD5 returns the hex encoded MD5 digest of the file content, the ETag S3 computes for
// single part uploads.
func FileMD5(filePath string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer CloseFile(f)

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", filePath, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}
