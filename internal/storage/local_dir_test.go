package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/pkg/fsx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalDirectoryHandler_EnsureDirExists(t *testing.T) {
	tempDir := t.TempDir()

	h := newLocalDir("test", config.LocalDirConfig{Path: tempDir, Mode: 0755})

	// Test when directory already exists
	err := h.ensureDirExists(context.Background())
	assert.NoError(t, err)

	// Test when directory does not exist
	nonExistentDir := filepath.Join(tempDir, "newDir")
	h.dirConfig.Path = nonExistentDir
	err = h.ensureDirExists(context.Background())
	assert.NoError(t, err)
	assert.True(t, fsx.DirExists(nonExistentDir))
}

func TestLocalDirectoryHandler_Put(t *testing.T) {
	tempDir := t.TempDir()
	destDir := filepath.Join(tempDir, "images")
	srcFile := filepath.Join(tempDir, "report.img")
	require.NoError(t, os.WriteFile(srcFile, []byte("test content"), 0644))

	s, err := NewLocalDir("test", config.LocalDirConfig{Path: destDir})
	require.NoError(t, err)
	assert.Equal(t, TypeLocalDir, s.Type())

	uploadInfo, err := s.Put(context.Background(), srcFile, "Case_id_1/abc/report.img")
	require.NoError(t, err)

	destPath := filepath.Join(destDir, "Case_id_1", "abc", "report.img")
	assert.Equal(t, destPath, uploadInfo.Dest)
	assert.Equal(t, "9473fdd0d880a43c21b7778d34872157", uploadInfo.Checksum)
	assert.Equal(t, int64(12), uploadInfo.Size)

	content, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, "test content", string(content))

	// Test skipping copy if file already exists with the same checksum
	uploadInfo, err = s.Put(context.Background(), srcFile, "Case_id_1/abc/report.img")
	require.NoError(t, err)
	assert.Equal(t, srcFile, uploadInfo.Src)
	assert.Equal(t, destPath, uploadInfo.Dest)

	// source is never removed by the storage
	_, exists := fsx.PathExists(srcFile)
	assert.True(t, exists)
}

func TestNewLocalDir_EmptyPath(t *testing.T) {
	_, err := NewLocalDir("test", config.LocalDirConfig{})
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	tempDir := t.TempDir()

	s, err := New(config.StorageConfig{
		S3:       &config.BucketConfig{},
		LocalDir: &config.LocalDirConfig{Enabled: true, Path: tempDir},
	}, config.RetryConfig{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, TypeLocalDir, s.Type())

	_, err = New(config.StorageConfig{}, config.RetryConfig{})
	assert.Error(t, err)

	// incomplete bucket configuration is rejected before a client is created
	_, err = New(config.StorageConfig{S3: &config.BucketConfig{Enabled: true}}, config.RetryConfig{})
	assert.Error(t, err)

	// every enabled backend is validated, not only the one selected
	validS3 := &config.BucketConfig{
		Enabled:   true,
		Bucket:    "images",
		Region:    "us-east-1",
		Endpoint:  "localhost:9000",
		AccessKey: "access",
		SecretKey: "secret",
	}
	s, err = New(config.StorageConfig{S3: validS3}, config.RetryConfig{Limit: 1})
	require.NoError(t, err)
	assert.Equal(t, TypeS3, s.Type())

	_, err = New(config.StorageConfig{
		S3:  validS3,
		GCS: &config.BucketConfig{Enabled: true, Bucket: "images"},
	}, config.RetryConfig{Limit: 1})
	assert.ErrorContains(t, err, "missing AccessKey in configuration")

	_, err = New(config.StorageConfig{
		S3:       validS3,
		LocalDir: &config.LocalDirConfig{Enabled: true},
	}, config.RetryConfig{Limit: 1})
	assert.ErrorContains(t, err, "missing LocalDir Path in configuration")
}
