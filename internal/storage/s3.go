package storage

import (
	"context"
	"fmt"
	"os"

	"github.com/ghiro/autoupload/internal/config"
	"github.com/ghiro/autoupload/internal/core"
	"github.com/ghiro/autoupload/pkg/fsx"
	"github.com/ghiro/autoupload/pkg/logx"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type s3Handler struct {
	*handler
	client       s3Client
	bucketConfig config.BucketConfig
	bucketReady  bool
}

// s3Client is an interface that defines the methods for interacting with S3-compatible storage.
// It is used to abstract the MinIO client to expose limited functionalities, which also allows for mocking in tests.
type s3Client interface {
	BucketExists(ctx context.Context, bucketName string) (bool, error)

	MakeBucket(ctx context.Context, bucketName string, opts minio.MakeBucketOptions) error

	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)

	FPutObject(ctx context.Context, bucketName, objectName, filePath string, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// ensureBucketExists creates the bucket on first use. The result is cached for the
// lifetime of the handler.
func (s *s3Handler) ensureBucketExists(ctx context.Context) error {
	if s.bucketReady {
		return nil
	}

	exists, err := s.client.BucketExists(ctx, s.bucketConfig.Bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}

	if !exists {
		logx.As().Info().
			Str("storage_type", s.Type()).
			Str("bucket", s.bucketConfig.Bucket).
			Msg("Bucket does not exist, creating it")
		if err := s.client.MakeBucket(ctx, s.bucketConfig.Bucket, minio.MakeBucketOptions{Region: s.bucketConfig.Region}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
	}

	s.bucketReady = true
	return nil
}

// syncWithBucket uploads a file to the bucket. It skips the upload if the object already
// exists with the same checksum.
func (s *s3Handler) syncWithBucket(ctx context.Context, src, objectName string) (*core.UploadInfo, error) {
	localChecksum, err := fsx.FileMD5(src)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate local checksum: %w", err)
	}

	attr, err := s.client.StatObject(ctx, s.bucketConfig.Bucket, objectName, minio.StatObjectOptions{})
	if err == nil && localChecksum == attr.ETag {
		logx.As().Info().
			Str("id", s.Info()).
			Str("src", src).
			Str("object", objectName).
			Str("md5", attr.ETag).
			Str("bucket", s.bucketConfig.Bucket).
			Msg("File already exists in bucket, skipping upload")
		return &core.UploadInfo{
			Src:          src,
			Dest:         attr.Key,
			ChecksumType: "md5",
			Checksum:     attr.ETag,
			Size:         attr.Size,
			LastModified: attr.LastModified,
		}, nil
	}

	info, err := s.client.FPutObject(ctx, s.bucketConfig.Bucket, objectName, src, minio.PutObjectOptions{
		SendContentMd5: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to upload file to %s: %w", s.Type(), err)
	}

	if info.ETag != localChecksum {
		// the file may still have been written to while uploading
		latestChecksum, err := fsx.FileMD5(src)
		if err != nil {
			return nil, fmt.Errorf("failed to calculate local checksum: %w", err)
		}

		if info.ETag != latestChecksum {
			localInfo, err := os.Stat(src)
			if err != nil {
				return nil, fmt.Errorf("failed to get local file info: %w", err)
			}
			return nil, fmt.Errorf("checksum mismatch after upload: expected %s, got %s "+
				"(file_size_in_bucket = %d, file_size_local = %d)", latestChecksum, info.ETag, info.Size, localInfo.Size())
		}
	}

	return &core.UploadInfo{
		Src:          src,
		Dest:         info.Key,
		ChecksumType: "md5",
		Checksum:     info.ETag,
		Size:         info.Size,
		LastModified: info.LastModified,
	}, nil
}

func newS3Handler(id string, storageType string, bucketConfig config.BucketConfig, client s3Client) *s3Handler {
	s3 := &s3Handler{
		handler: &handler{
			id:          id,
			storageType: storageType,
			pathPrefix:  bucketConfig.Prefix,
		},
		client:       client,
		bucketConfig: bucketConfig,
	}

	s3.handler.preSync = s3.ensureBucketExists
	s3.handler.syncFile = s3.syncWithBucket

	return s3
}

func newMinioHandler(id string, storageType string, bucketConfig config.BucketConfig, retryConfig config.RetryConfig) (Storage, error) {
	if err := config.ValidateBucketConfig(bucketConfig); err != nil {
		return nil, err
	}

	client, err := minio.New(bucketConfig.Endpoint, &minio.Options{
		Creds:      credentials.NewStaticV4(bucketConfig.AccessKey, bucketConfig.SecretKey, ""),
		Secure:     bucketConfig.UseSSL,
		Region:     bucketConfig.Region,
		MaxRetries: retryConfig.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	logx.As().Debug().
		Str("id", id).
		Str("storage_type", storageType).
		Str("endpoint", bucketConfig.Endpoint).
		Str("bucket", bucketConfig.Bucket).
		Msg("MinIO client created successfully")

	return newS3Handler(id, storageType, bucketConfig, client), nil
}

// NewS3 creates a new S3 storage handler.
func NewS3(id string, bucketConfig config.BucketConfig, retryConfig config.RetryConfig) (Storage, error) {
	return newMinioHandler(id, TypeS3, bucketConfig, retryConfig)
}

// NewGCSWithS3 creates a new GCS storage handler using the S3-compatible API.
func NewGCSWithS3(id string, bucketConfig config.BucketConfig, retryConfig config.RetryConfig) (Storage, error) {
	return newMinioHandler(id, TypeGCS, bucketConfig, retryConfig)
}

// New returns the first enabled backend of sc in the order S3, GCS, LocalDir.
func New(sc config.StorageConfig, retryConfig config.RetryConfig) (Storage, error) {
	if err := config.ValidateStorageConfig(sc); err != nil {
		return nil, err
	}

	switch {
	case sc.S3 != nil && sc.S3.Enabled:
		return NewS3("s3", *sc.S3, retryConfig)
	case sc.GCS != nil && sc.GCS.Enabled:
		return NewGCSWithS3("gcs", *sc.GCS, retryConfig)
	case sc.LocalDir != nil && sc.LocalDir.Enabled:
		return NewLocalDir("local-dir", *sc.LocalDir)
	default:
		return nil, fmt.Errorf("no storage backend enabled")
	}
}
