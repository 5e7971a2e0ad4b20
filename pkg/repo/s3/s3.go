// Package s3 implements the repository contract over Amazon S3 or any
// S3-compatible object store.
//
// Identifiers map directly to object keys (with an optional prefix), so the
// bucket mirrors the conventional repository layout: "manifests/...",
// "pkgs/...", and so on. That keeps the bucket human-readable and lets a
// file-backed repository be migrated with a plain sync.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/depotfs/depotfs/pkg/repo"
)

// Config configures an S3Repo.
type Config struct {
	// Client is the configured S3 client.
	Client *s3.Client

	// Bucket is the bucket holding the repository. It must already
	// exist; Connect verifies access but never creates it.
	Bucket string

	// KeyPrefix is an optional prefix for all object keys, e.g.
	// "repo/" resulting in keys like "repo/manifests/site_default".
	KeyPrefix string
}

// S3Repo accesses a deployment repository stored in an object storage
// bucket. There is nothing to mount; Connect just verifies the bucket is
// reachable.
type S3Repo struct {
	client    *s3.Client
	bucket    string
	keyPrefix string
	connected bool
}

// New validates the configuration and prepares a repository. No network
// I/O happens until Connect.
func New(cfg Config) (*S3Repo, error) {
	if cfg.Client == nil {
		return nil, fmt.Errorf("S3 client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	return &S3Repo{
		client:    cfg.Client,
		bucket:    cfg.Bucket,
		keyPrefix: cfg.KeyPrefix,
	}, nil
}

// Connect verifies bucket access. Idempotent: after the first success it
// returns immediately.
func (r *S3Repo) Connect(ctx context.Context) error {
	if r.connected {
		return nil
	}

	if err := ctx.Err(); err != nil {
		return err
	}

	_, err := r.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(r.bucket),
	})
	if err != nil {
		return fmt.Errorf("bucket %q is not accessible: %v: %w", r.bucket, err, repo.ErrRootUnavailable)
	}

	r.connected = true
	return nil
}

// objectKey validates the identifier and prepends the key prefix.
// Identifiers always use forward slashes regardless of platform.
func (r *S3Repo) objectKey(identifier string) (string, error) {
	if err := repo.ValidateIdentifier(identifier); err != nil {
		return "", err
	}
	return r.keyPrefix + identifier, nil
}

// List returns the keys of every object under the kind, relative to it.
// A kind with no objects yields an empty list.
func (r *S3Repo) List(ctx context.Context, kind string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	prefix, err := r.objectKey(kind)
	if err != nil {
		return nil, err
	}
	prefix += "/"

	items := []string{}
	paginator := s3.NewListObjectsV2Paginator(r.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(r.bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", kind, err)
		}

		for _, obj := range page.Contents {
			if obj.Key == nil {
				continue
			}
			key := strings.TrimPrefix(*obj.Key, prefix)
			if key == "" || strings.HasSuffix(key, "/") {
				continue
			}
			items = append(items, key)
		}
	}

	return items, nil
}

// Get downloads and returns the full object. Avoid for very large items
// such as packages; prefer GetToFile.
func (r *S3Repo) Get(ctx context.Context, identifier string) ([]byte, error) {
	body, err := r.open(ctx, identifier)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("failed to read item %s: %w", identifier, err)
	}

	return data, nil
}

// GetToFile streams the object to localPath, overwriting any existing
// file.
func (r *S3Repo) GetToFile(ctx context.Context, identifier, localPath string) error {
	body, err := r.open(ctx, identifier)
	if err != nil {
		return err
	}
	defer body.Close()

	dst, err := os.OpenFile(localPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", localPath, err)
	}

	if _, err := io.Copy(dst, body); err != nil {
		dst.Close()
		return fmt.Errorf("failed to copy item %s: %w", identifier, err)
	}

	return dst.Close()
}

// Put uploads content under the identifier, overwriting any existing
// object. Object stores have no directories, so the parent-creation part
// of the contract is a no-op.
func (r *S3Repo) Put(ctx context.Context, identifier string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := r.objectKey(identifier)
	if err != nil {
		return err
	}

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(content),
	})
	if err != nil {
		return fmt.Errorf("failed to write item %s: %w", identifier, err)
	}

	return nil
}

// PutFromFile streams the file at localPath into the repository under the
// identifier.
func (r *S3Repo) PutFromFile(ctx context.Context, identifier, localPath string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := r.objectKey(identifier)
	if err != nil {
		return err
	}

	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open local file %s: %w", localPath, err)
	}
	defer src.Close()

	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
		Body:   src,
	})
	if err != nil {
		return fmt.Errorf("failed to write item %s: %w", identifier, err)
	}

	return nil
}

// Delete removes the object. S3 deletes are idempotent, so existence is
// checked first to preserve the contract that deleting a missing item
// fails with ErrItemNotFound.
func (r *S3Repo) Delete(ctx context.Context, identifier string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	key, err := r.objectKey(identifier)
	if err != nil {
		return err
	}

	_, err = r.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return fmt.Errorf("item %s: %w", identifier, repo.ErrItemNotFound)
		}
		return fmt.Errorf("failed to check item %s: %w", identifier, err)
	}

	_, err = r.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete item %s: %w", identifier, err)
	}

	return nil
}

// open fetches the object body, mapping missing keys to ErrItemNotFound.
func (r *S3Repo) open(ctx context.Context, identifier string) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	key, err := r.objectKey(identifier)
	if err != nil {
		return nil, err
	}

	result, err := r.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(r.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("item %s: %w", identifier, repo.ErrItemNotFound)
		}
		return nil, fmt.Errorf("failed to get item %s: %w", identifier, err)
	}

	return result.Body, nil
}

// isNotFound matches the two shapes the SDK uses for a missing object:
// GetObject returns NoSuchKey, HeadObject a bare NotFound.
func isNotFound(err error) bool {
	var noSuchKey *types.NoSuchKey
	var notFound *types.NotFound
	return errors.As(err, &noSuchKey) || errors.As(err, &notFound)
}

// Compile-time interface check.
var _ repo.Repo = (*S3Repo)(nil)
