//go:build integration
// +build integration

package s3

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/depotfs/depotfs/pkg/repo"
	repotesting "github.com/depotfs/depotfs/pkg/repo/testing"
	"github.com/stretchr/testify/require"
)

// TestS3Repo_Integration runs the Repo contract suite against a real
// S3-compatible service.
//
// Prerequisites:
//   - Localstack (or MinIO) running on localhost:4566
//   - Run with: go test -tags=integration ./pkg/repo/s3/...
//
// To start Localstack:
//
//	docker run --rm -p 4566:4566 localstack/localstack
func TestS3Repo_Integration(t *testing.T) {
	ctx := context.Background()

	endpoint := os.Getenv("LOCALSTACK_ENDPOINT")
	if endpoint == "" {
		endpoint = "http://localhost:4566"
	}

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion("us-east-1"),
		awsConfig.WithEndpointResolverWithOptions(aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				return aws.Endpoint{
					URL:               endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)),
		awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			"test", "test", "",
		)),
	)
	require.NoError(t, err)

	client := awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.UsePathStyle = true
	})

	suite := &repotesting.RepoTestSuite{
		NewRepo: func(t *testing.T) repo.Repo {
			bucket := fmt.Sprintf("depotfs-test-%d", time.Now().UnixNano())
			_, err := client.CreateBucket(ctx, &awss3.CreateBucketInput{
				Bucket: aws.String(bucket),
			})
			require.NoError(t, err)

			r, err := New(Config{Client: client, Bucket: bucket})
			require.NoError(t, err)
			require.NoError(t, r.Connect(ctx))
			return r
		},
	}

	suite.Run(t)
}
