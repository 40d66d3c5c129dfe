package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/minio/minio-go/v7"
	miniocreds "github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"

	"github.com/s3up-go/s3up/internal/provider"
)

// Config is a config-scoped, read-only storage client: constructed once per
// UploadConfig by s3up.Builder.Build, then safely shared across concurrent
// requests (spec §5, "Storage instances are read-only after construction").
type Config struct {
	signing provider.SigningConfig

	// Exactly one of these is populated, selected at construction time by
	// signing.UseMinioClient. AWS/R2/Spaces/GCS go through aws-sdk-go-v2,
	// the way the teacher's s3.go/r2.go do it, for head/list/delete;
	// MinIO/S3-Compatible go through minio-go, the way
	// muhammad-junaid-iftikhar-app-minio-api does, for the same plus
	// presigning. Presigned URLs for the AWS-family branch are computed by
	// internal/signer directly against raw SigV4, never through awsClient,
	// so no s3.PresignClient is constructed here.
	awsClient *s3.Client
	minio     *minio.Client
}

// Signing exposes the normalized provider config the client was built from,
// e.g. so the signer package can compute presigned URLs without a second
// round of credential/endpoint plumbing.
func (c *Config) Signing() provider.SigningConfig { return c.signing }

// NewConfig builds the storage client for one normalized provider config.
// It does not perform network I/O beyond what the SDK constructors require
// locally (none, for both aws-sdk-go-v2 and minio-go).
func NewConfig(sc provider.SigningConfig) (*Config, error) {
	if sc.UseMinioClient {
		return newMinioConfig(sc)
	}
	return newAWSConfig(sc)
}

func newAWSConfig(sc provider.SigningConfig) (*Config, error) {
	endpoint := sc.Endpoint
	resolver := aws.EndpointResolverWithOptionsFunc(func(service, region string, options ...interface{}) (aws.Endpoint, error) {
		return aws.Endpoint{
			URL:               endpoint,
			HostnameImmutable: true,
			SigningRegion:     sc.Region,
		}, nil
	})

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(sc.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			sc.AccessKeyID, sc.SecretAccessKey, "",
		)),
		awsconfig.WithEndpointResolverWithOptions(resolver),
	)
	if err != nil {
		return nil, fmt.Errorf("storage: loading aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = sc.ForcePathStyle
	})

	return &Config{signing: sc, awsClient: client}, nil
}

func newMinioConfig(sc provider.SigningConfig) (*Config, error) {
	host, secure := stripScheme(sc.Endpoint)
	client, err := minio.New(host, &minio.Options{
		Creds:  miniocreds.NewStaticV4(sc.AccessKeyID, sc.SecretAccessKey, ""),
		Secure: secure,
		Region: sc.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: creating minio client: %w", err)
	}
	return &Config{signing: sc, minio: client}, nil
}

// ProbeHealth runs a best-effort BucketExists check against MinIO-class
// backends, matching the probe muhammad-junaid-iftikhar-app-minio-api's
// minio_service.go runs at startup. It never blocks or fails the caller: a
// network problem here is logged as a warning and otherwise ignored, since
// Build() must stay usable against a bucket that only becomes reachable
// later (spec'd as never doing I/O that can hang the caller). It is a no-op
// for aws-sdk-go-v2-backed configs, which never probe at construction time.
func (c *Config) ProbeHealth() {
	if c.minio == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	exists, err := c.minio.BucketExists(ctx, c.signing.Bucket)
	if err != nil {
		log.Warn().Err(err).Str("bucket", c.signing.Bucket).Msg("storage: bucket reachability probe failed")
		return
	}
	if !exists {
		log.Warn().Str("bucket", c.signing.Bucket).Msg("storage: configured bucket does not exist")
	}
}

func stripScheme(endpoint string) (host string, secure bool) {
	switch {
	case len(endpoint) >= 8 && endpoint[:8] == "https://":
		return endpoint[8:], true
	case len(endpoint) >= 7 && endpoint[:7] == "http://":
		return endpoint[7:], false
	default:
		return endpoint, true
	}
}
