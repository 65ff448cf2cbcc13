package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"

	"github.com/ghiro/autoupload/internal/core"
	"github.com/ghiro/autoupload/pkg/fsx"
	"github.com/ghiro/autoupload/pkg/logx"
)

const (
	TypeLocalDir = "local_dir"
	TypeS3       = "s3"
	TypeGCS      = "gcs"
)

// Storage persists submitted images on behalf of the host platform.
//
// Methods:
//   - Info: Returns a unique identifier of the storage handler.
//   - Type: Returns the type of storage (e.g., "s3", "local_dir").
//   - Put: Stores the file at src under the slash separated name dest.
type Storage interface {
	Info() string
	Type() string
	Put(ctx context.Context, src string, dest string) (*core.UploadInfo, error)
}

// handler is a base struct for managing file storage operations.
//
// Fields:
//   - id: A unique identifier for the handler.
//   - storageType: The type of storage (e.g., "s3", "local_dir").
//   - pathPrefix: The prefix for the destination path.
//   - preSync: A function to validate or prepare the destination before syncing.
//   - syncFile: A function to handle the actual file synchronization.
type handler struct {
	id          string
	storageType string
	pathPrefix  string
	preSync     func(ctx context.Context) error
	syncFile    func(ctx context.Context, src string, dest string) (*core.UploadInfo, error)
}

// Info returns the unique identifier of the handler.
func (h *handler) Info() string {
	return h.id
}

// Type returns the storage type of the handler.
func (h *handler) Type() string {
	return h.storageType
}

// Put stores a single file.
//
// Parameters:
//   - ctx: The context for managing request deadlines and cancellations.
//   - src: The local file to store.
//   - dest: The destination name, relative to the handler prefix.
//
// Returns:
//   - The UploadInfo of the stored file, or an error if the file is missing or could not be stored.
func (h *handler) Put(ctx context.Context, src string, dest string) (*core.UploadInfo, error) {
	log := logx.As().With().
		Str("src", src).
		Str("storage_type", h.Type()).
		Str("handler", h.Info()).
		Logger()

	if src == "" || dest == "" {
		return nil, errors.New("invalid source or destination")
	}

	if _, exists := fsx.PathExists(src); !exists {
		return nil, fmt.Errorf("source file does not exist: %s", src)
	}

	if h.preSync != nil {
		if err := h.preSync(ctx); err != nil {
			return nil, fmt.Errorf("pre-sync validation failed: %w", err)
		}
	}

	log.Debug().Str("dest", dest).Msg("Storing file")

	info, err := h.syncFile(ctx, src, h.destinationPath(dest))
	if err != nil {
		log.Error().Stack().Err(err).Msg(fmt.Sprintf("%s failed to store file", h.Type()))
		return nil, fmt.Errorf("failed to store file %s in %s: %w", src, h.Type(), err)
	}

	log.Info().Str("dest", info.Dest).Str("checksum", info.Checksum).Msg(fmt.Sprintf("%s successfully stored the file", h.Type()))
	return info, nil
}

// destinationPath joins the handler prefix and dest using '/' regardless of the platform.
func (h *handler) destinationPath(dest string) string {
	return path.Clean(path.Join(h.pathPrefix, filepath.ToSlash(dest)))
}
