package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/mitchellh/mapstructure"

	"github.com/depotfs/depotfs/internal/logger"
	"github.com/depotfs/depotfs/pkg/mount"
	"github.com/depotfs/depotfs/pkg/repo"
	repoFile "github.com/depotfs/depotfs/pkg/repo/file"
	repoS3 "github.com/depotfs/depotfs/pkg/repo/s3"
)

// CreateRepo creates a repository backend based on configuration.
//
// This factory function uses the Plugin field to determine which backend
// implementation to create, then decodes the backend-specific configuration
// from the corresponding map and passes it to the backend's constructor.
//
// Supported plugins:
//   - "file": Uses pkg/repo/file (local directory or mounted network share)
//   - "s3": Uses pkg/repo/s3 (Amazon S3 or compatible storage)
//
// Parameters:
//   - ctx: Context for initialization operations
//   - cfg: Repository configuration
//
// Returns:
//   - repo.Repo: Initialized repository backend (Connect not yet called)
//   - error: Configuration or initialization error
func CreateRepo(ctx context.Context, cfg *RepoConfig) (repo.Repo, error) {
	switch cfg.Plugin {
	case "file":
		return createFileRepo(ctx, cfg.URL, cfg.File)
	case "s3":
		return createS3Repo(ctx, cfg.S3)
	default:
		return nil, fmt.Errorf("unknown repo plugin: %q (supported: file, s3)", cfg.Plugin)
	}
}

// createFileRepo creates a file-backed repository, wiring the mount manager
// used for network share URLs.
func createFileRepo(ctx context.Context, baseURL string, options map[string]any) (repo.Repo, error) {
	// Check context before creating the backend
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Define the configuration struct for the file backend
	type FileRepoOptions struct {
		VolumesDir     string  `mapstructure:"volumes_dir"`
		AFPTool        string  `mapstructure:"afp_tool"`
		SMBTool        string  `mapstructure:"smb_tool"`
		NFSTool        string  `mapstructure:"nfs_tool"`
		AuthErrorCodes []int32 `mapstructure:"auth_error_codes"`
	}

	// Decode the options into the config struct
	var repoOpts FileRepoOptions
	if err := mapstructure.Decode(options, &repoOpts); err != nil {
		return nil, fmt.Errorf("failed to decode file repo config: %w", err)
	}

	manager := mount.NewManager(mount.Options{
		AuthErrorCodes: repoOpts.AuthErrorCodes,
		AFPTool:        repoOpts.AFPTool,
		SMBTool:        repoOpts.SMBTool,
		NFSTool:        repoOpts.NFSTool,
		Prompter:       mount.NewTerminalPrompter(),
	})

	r, err := repoFile.New(repoFile.Config{
		BaseURL:    baseURL,
		VolumesDir: repoOpts.VolumesDir,
		Mounter:    manager,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create file repo: %w", err)
	}

	return r, nil
}

// createS3Repo creates an S3-backed repository.
func createS3Repo(ctx context.Context, options map[string]any) (repo.Repo, error) {
	// Define the configuration struct for the S3 backend
	type S3RepoOptions struct {
		Region          string `mapstructure:"region"`
		Bucket          string `mapstructure:"bucket"`
		KeyPrefix       string `mapstructure:"key_prefix"`
		Endpoint        string `mapstructure:"endpoint"`
		AccessKeyID     string `mapstructure:"access_key_id"`
		SecretAccessKey string `mapstructure:"secret_access_key"`
		MaxRetries      int    `mapstructure:"max_retries"`
	}

	// Decode the options into the config struct
	var repoOpts S3RepoOptions
	if err := mapstructure.Decode(options, &repoOpts); err != nil {
		return nil, fmt.Errorf("failed to decode S3 repo config: %w", err)
	}

	// Validate required fields
	if repoOpts.Bucket == "" {
		return nil, fmt.Errorf("S3 repo: bucket is required")
	}

	if repoOpts.Region == "" {
		return nil, fmt.Errorf("S3 repo: region is required")
	}

	var configOptions []func(*awsConfig.LoadOptions) error

	// Set region
	configOptions = append(configOptions, awsConfig.WithRegion(repoOpts.Region))

	// Set custom endpoint if provided (for MinIO, Localstack, etc.)
	if repoOpts.Endpoint != "" {
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		customResolver := aws.EndpointResolverWithOptionsFunc(
			func(service, region string, options ...interface{}) (aws.Endpoint, error) {
				//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
				return aws.Endpoint{
					URL:               repoOpts.Endpoint,
					HostnameImmutable: true,
					Source:            aws.EndpointSourceCustom,
				}, nil
			},
		)
		//nolint:staticcheck // TODO: migrate to BaseEndpoint when AWS SDK v2 stabilizes the new API
		configOptions = append(configOptions, awsConfig.WithEndpointResolverWithOptions(customResolver))
	}

	// Set credentials if provided, otherwise use default credential chain
	if repoOpts.AccessKeyID != "" && repoOpts.SecretAccessKey != "" {
		credProvider := credentials.NewStaticCredentialsProvider(
			repoOpts.AccessKeyID,
			repoOpts.SecretAccessKey,
			"", // session token (empty for static credentials)
		)
		configOptions = append(configOptions, awsConfig.WithCredentialsProvider(credProvider))
	}

	// Configure retries for better resilience against temporary S3 failures
	maxRetries := repoOpts.MaxRetries
	if maxRetries == 0 {
		maxRetries = 10
	}
	configOptions = append(configOptions, awsConfig.WithRetryer(func() aws.Retryer {
		return retry.NewStandard(func(o *retry.StandardOptions) {
			o.MaxAttempts = maxRetries // Retry for transient errors (502, 503, timeouts, etc.)
		})
	}))

	// Load AWS config
	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, configOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		// Force path-style addressing for compatibility with MinIO/Localstack
		if repoOpts.Endpoint != "" {
			o.UsePathStyle = true
		}
	})

	r, err := repoS3.New(repoS3.Config{
		Client:    client,
		Bucket:    repoOpts.Bucket,
		KeyPrefix: repoOpts.KeyPrefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create S3 repo: %w", err)
	}

	logger.Info("S3 repo initialized: bucket=%s, region=%s, prefix=%s",
		repoOpts.Bucket, repoOpts.Region, repoOpts.KeyPrefix)

	return r, nil
}
