// Package provider normalizes the handful of S3-compatible backends this
// library understands into one uniform signing/addressing shape. It mirrors
// the endpoint-derivation logic the teacher repo hand-rolled once per
// backend (NewS3Storage for AWS/MinIO, NewR2Storage for Cloudflare R2) but
// collapses it into a single table-driven function so every provider kind
// goes through the same normalization path.
package provider

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported S3-compatible backends.
type Kind string

const (
	AWS        Kind = "aws"
	R2         Kind = "r2"
	Spaces     Kind = "spaces"
	MinIO      Kind = "minio"
	GCS        Kind = "gcs"
	Compatible Kind = "s3-compatible"
)

// Input is the provider configuration supplied by the caller, expressed in
// provider-agnostic terms. It is a plain data holder: package s3up converts
// its own public ProviderConfig into this shape so that this package never
// needs to import s3up (which would create an import cycle).
type Input struct {
	Kind            Kind
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string // required for MinIO/Compatible, optional override elsewhere
	AccountID       string // required for R2
	ForcePathStyle  *bool  // nil means "use the provider's default"
	UseSSL          bool   // MinIO and s3-compatible only; ignored elsewhere
	CustomDomain    string
}

// SigningConfig is the normalized shape the signer and storage client
// operate on. Deriving it is pure and does no I/O.
type SigningConfig struct {
	Kind            Kind
	Endpoint        string // scheme://host, no trailing slash
	Bucket          string
	Region          string
	ForcePathStyle  bool
	CustomDomain    string // trailing slash already stripped
	AccessKeyID     string
	SecretAccessKey string
	UseSSL          bool
	// UseMinioClient selects the minio-go code path in the storage client
	// instead of aws-sdk-go-v2; set for the providers whose endpoints are
	// commonly self-hosted/path-style (MinIO, generic S3-compatible).
	UseMinioClient bool
}

// Normalize validates an Input and derives its SigningConfig. It never
// performs I/O; failures are caller configuration mistakes, not network
// errors.
func Normalize(in Input) (SigningConfig, error) {
	if in.AccessKeyID == "" || in.SecretAccessKey == "" {
		return SigningConfig{}, fmt.Errorf("provider: accessKeyId and secretAccessKey are required")
	}
	if in.Bucket == "" {
		return SigningConfig{}, fmt.Errorf("provider: bucket is required")
	}

	switch in.Kind {
	case AWS:
		return normalizeAWS(in)
	case R2:
		return normalizeR2(in)
	case Spaces:
		return normalizeSpaces(in)
	case MinIO:
		return normalizeMinIO(in)
	case GCS:
		return normalizeGCS(in)
	case Compatible:
		return normalizeCompatible(in)
	default:
		return SigningConfig{}, fmt.Errorf("provider: unknown kind %q", in.Kind)
	}
}

func normalizeAWS(in Input) (SigningConfig, error) {
	region := in.Region
	if region == "" {
		return SigningConfig{}, fmt.Errorf("provider: aws requires region")
	}
	endpoint := in.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", region)
	}
	return SigningConfig{
		Kind:            AWS,
		Endpoint:        endpoint,
		Bucket:          in.Bucket,
		Region:          region,
		ForcePathStyle:  boolOr(in.ForcePathStyle, false),
		CustomDomain:    trimTrailingSlash(in.CustomDomain),
		AccessKeyID:     in.AccessKeyID,
		SecretAccessKey: in.SecretAccessKey,
		UseMinioClient:  false,
	}, nil
}

func normalizeR2(in Input) (SigningConfig, error) {
	if in.AccountID == "" {
		return SigningConfig{}, fmt.Errorf("provider: r2 requires accountId")
	}
	endpoint := in.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.r2.cloudflarestorage.com", in.AccountID)
	}
	return SigningConfig{
		Kind:            R2,
		Endpoint:        endpoint,
		Bucket:          in.Bucket,
		Region:          "auto", // R2 is always region "auto", per spec §3
		ForcePathStyle:  boolOr(in.ForcePathStyle, false),
		CustomDomain:    trimTrailingSlash(in.CustomDomain),
		AccessKeyID:     in.AccessKeyID,
		SecretAccessKey: in.SecretAccessKey,
		UseMinioClient:  false,
	}, nil
}

func normalizeSpaces(in Input) (SigningConfig, error) {
	region := in.Region
	if region == "" {
		return SigningConfig{}, fmt.Errorf("provider: spaces requires region")
	}
	endpoint := in.Endpoint
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.digitaloceanspaces.com", region)
	}
	return SigningConfig{
		Kind:            Spaces,
		Endpoint:        endpoint,
		Bucket:          in.Bucket,
		Region:          region,
		ForcePathStyle:  boolOr(in.ForcePathStyle, false),
		CustomDomain:    trimTrailingSlash(in.CustomDomain),
		AccessKeyID:     in.AccessKeyID,
		SecretAccessKey: in.SecretAccessKey,
		UseMinioClient:  false,
	}, nil
}

func normalizeMinIO(in Input) (SigningConfig, error) {
	if in.Endpoint == "" {
		return SigningConfig{}, fmt.Errorf("provider: minio requires an explicit endpoint")
	}
	region := in.Region
	if region == "" {
		region = "us-east-1"
	}
	return SigningConfig{
		Kind:            MinIO,
		Endpoint:        withScheme(in.Endpoint, in.UseSSL),
		Bucket:          in.Bucket,
		Region:          region,
		ForcePathStyle:  boolOr(in.ForcePathStyle, true),
		CustomDomain:    trimTrailingSlash(in.CustomDomain),
		AccessKeyID:     in.AccessKeyID,
		SecretAccessKey: in.SecretAccessKey,
		UseSSL:          in.UseSSL,
		UseMinioClient:  true,
	}, nil
}

func normalizeGCS(in Input) (SigningConfig, error) {
	endpoint := in.Endpoint
	if endpoint == "" {
		endpoint = "https://storage.googleapis.com"
	}
	region := in.Region
	if region == "" {
		region = "auto"
	}
	return SigningConfig{
		Kind:            GCS,
		Endpoint:        endpoint,
		Bucket:          in.Bucket,
		Region:          region,
		ForcePathStyle:  boolOr(in.ForcePathStyle, true),
		CustomDomain:    trimTrailingSlash(in.CustomDomain),
		AccessKeyID:     in.AccessKeyID,
		SecretAccessKey: in.SecretAccessKey,
		UseMinioClient:  false,
	}, nil
}

func normalizeCompatible(in Input) (SigningConfig, error) {
	if in.Endpoint == "" {
		return SigningConfig{}, fmt.Errorf("provider: s3-compatible requires an explicit endpoint")
	}
	region := in.Region
	if region == "" {
		region = "us-east-1"
	}
	return SigningConfig{
		Kind:            Compatible,
		Endpoint:        withScheme(in.Endpoint, in.UseSSL),
		Bucket:          in.Bucket,
		Region:          region,
		ForcePathStyle:  boolOr(in.ForcePathStyle, true),
		CustomDomain:    trimTrailingSlash(in.CustomDomain),
		AccessKeyID:     in.AccessKeyID,
		SecretAccessKey: in.SecretAccessKey,
		UseSSL:          in.UseSSL,
		UseMinioClient:  true,
	}, nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

func trimTrailingSlash(s string) string {
	return strings.TrimSuffix(s, "/")
}

func withScheme(endpoint string, useSSL bool) string {
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}
