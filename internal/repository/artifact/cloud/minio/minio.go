package minio

import (
	"context"
	"fmt"
	"io"

	"resize-orchestrator/internal/config"
	"resize-orchestrator/internal/domain"
	"resize-orchestrator/internal/repository/artifact"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/zlog"
)

type objectGetter interface {
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (*minio.Object, error)
}

// FileRepository reads artifacts that the resize service announced by
// object name instead of by URL.
type FileRepository struct {
	client objectGetter
	bucket string
	logger *zlog.Zerolog
}

func NewMinIORepository(cfg *config.Config, logger *zlog.Zerolog) (*FileRepository, error) {
	client, err := minio.New(cfg.Storage.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.Storage.AccessKey, cfg.Storage.SecretKey, ""),
		Secure: cfg.Storage.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	logger.Info().
		Str("endpoint", cfg.Storage.Endpoint).
		Str("bucket", cfg.Storage.Bucket).
		Msg("Object storage configured")

	return &FileRepository{
		client: client,
		bucket: cfg.Storage.Bucket,
		logger: logger,
	}, nil
}

func (r *FileRepository) Fetch(ctx context.Context, location string) ([]byte, error) {
	name, ok := domain.ParseObjectRef(location)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not an object reference", artifact.ErrInvalidReference, location)
	}

	obj, err := r.client.GetObject(ctx, r.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, r.mapError(err)
	}
	defer obj.Close()

	data, err := io.ReadAll(io.LimitReader(obj, artifact.MaxArtifactSize+1))
	if err != nil {
		return nil, r.mapError(err)
	}
	if len(data) > artifact.MaxArtifactSize {
		return nil, artifact.ErrArtifactTooLarge
	}

	r.logger.Debug().
		Str("bucket", r.bucket).
		Str("object", name).
		Int("size", len(data)).
		Msg("Artifact read from object storage")
	return data, nil
}

func (r *FileRepository) mapError(err error) error {
	switch minio.ToErrorResponse(err).Code {
	case "NoSuchKey", "NoSuchBucket":
		return artifact.ErrArtifactNotFound
	default:
		return fmt.Errorf("%w: %v", artifact.ErrStorageError, err)
	}
}
