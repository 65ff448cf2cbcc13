package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/internal/core"
	"github.com/ghiro/autoupload/pkg/fsx"
	"github.com/ghiro/autoupload/pkg/logx"
)

const defaultDirMode os.FileMode = 0755

type localDirectoryHandler struct {
	*handler
	dirConfig config.LocalDirConfig
}

// ensureDirExists checks if the local directory exists. If it doesn't, it creates the directory.
func (d *localDirectoryHandler) ensureDirExists(ctx context.Context) error {
	if fsx.DirExists(d.dirConfig.Path) {
		return nil
	}

	logx.As().Info().
		Str("storage_type", d.Type()).
		Str("path", d.dirConfig.Path).
		Msg("Directory does not exist, creating it")

	if err := os.MkdirAll(d.dirConfig.Path, d.dirConfig.Mode); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	return nil
}

// syncWithDir copies a file into the local directory. It skips copying if the destination
// already exists with the same checksum.
func (d *localDirectoryHandler) syncWithDir(ctx context.Context, src string, dest string) (*core.UploadInfo, error) {
	info, err := os.Stat(src)
	if err != nil {
		return nil, fmt.Errorf("source file does not exist: %w", err)
	}

	localChecksum, err := fsx.FileMD5(src)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate local checksum: %w", err)
	}

	destPath := filepath.Join(d.dirConfig.Path, filepath.FromSlash(dest))
	if _, exists := fsx.PathExists(destPath); exists {
		remoteChecksum, err := fsx.FileMD5(destPath)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate destination checksum: %w", err)
		}

		if localChecksum == remoteChecksum {
			logx.As().Info().
				Str("src", src).
				Str("dest", destPath).
				Str("md5", remoteChecksum).
				Str("storage_type", d.Type()).
				Msg("File already exists in the local directory, skipping copy")
			return d.prepareUploadInfo(src, destPath, remoteChecksum, info), nil
		}
	}

	if err := os.MkdirAll(filepath.Dir(destPath), d.dirConfig.Mode); err != nil {
		return nil, fmt.Errorf("failed to create destination directory: %w", err)
	}

	if err = fsx.Copy(src, destPath, d.dirConfig.Mode&0666); err != nil {
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}

	logx.As().Debug().
		Str("src", src).
		Str("dest", destPath).
		Str("checksum", localChecksum).
		Str("storage_type", d.Type()).
		Msg("File copied to the local directory")

	return d.prepareUploadInfo(src, destPath, localChecksum, info), nil
}

func (d *localDirectoryHandler) prepareUploadInfo(src string, dest string, checksum string, info os.FileInfo) *core.UploadInfo {
	return &core.UploadInfo{
		Src:          src,
		Dest:         dest,
		ChecksumType: "md5",
		Checksum:     checksum,
		Size:         info.Size(),
		LastModified: info.ModTime(),
	}
}

func newLocalDir(id string, dirConfig config.LocalDirConfig) *localDirectoryHandler {
	if dirConfig.Mode == 0 {
		dirConfig.Mode = defaultDirMode
	}

	l := &localDirectoryHandler{
		handler: &handler{
			id:          id,
			storageType: TypeLocalDir,
		},
		dirConfig: dirConfig,
	}

	l.handler.preSync = l.ensureDirExists
	l.handler.syncFile = l.syncWithDir

	return l
}

// NewLocalDir creates a new local directory storage handler.
func NewLocalDir(id string, dirConfig config.LocalDirConfig) (Storage, error) {
	if dirConfig.Path == "" {
		return nil, fmt.Errorf("local directory path is empty")
	}

	l := newLocalDir(id, dirConfig)

	logx.As().Debug().
		Str("id", l.Info()).
		Str("storage_type", TypeLocalDir).
		Str("path", dirConfig.Path).
		Msg("Local directory storage handler created successfully")

	return l, nil
}
