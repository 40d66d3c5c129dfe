// Package signer performs the local SigV4 math behind presigned URLs. It is
// the direct generalization of the teacher's NewS3Storage/NewR2Storage
// endpoint+credential wiring (internal/pkg/storage/s3.go, r2.go), except
// that signing a presigned URL here never touches the network — the
// signature is pure computation over the normalized provider.SigningConfig,
// matching spec §5's "presign has no network, signing is local math".
package signer

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	awsv4 "github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"

	"github.com/s3up-go/s3up/internal/provider"
)

// unsignedPayload is the sentinel SigV4 uses for presigned requests, where
// the body isn't available to hash up front (the client streams it later).
const unsignedPayload = "UNSIGNED-PAYLOAD"

const defaultExpiry = 1 * time.Hour

// PresignPut builds a presigned PUT URL for key, signing the given
// contentType so the backend rejects uploads whose header doesn't match
// (spec §4.A contract).
func PresignPut(cfg provider.SigningConfig, key, contentType string, expires time.Duration) (string, time.Time, error) {
	return presign(cfg, http.MethodPut, key, contentType, expires)
}

// PresignGet builds a presigned GET URL for key.
func PresignGet(cfg provider.SigningConfig, key string, expires time.Duration) (string, time.Time, error) {
	return presign(cfg, http.MethodGet, key, "", expires)
}

func presign(cfg provider.SigningConfig, method, key, contentType string, expires time.Duration) (string, time.Time, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return "", time.Time{}, fmt.Errorf("signer: missing credentials")
	}
	if expires <= 0 {
		expires = defaultExpiry
	}

	rawURL := ObjectURL(cfg, key)
	req, err := http.NewRequest(method, rawURL, nil)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signer: building request: %w", err)
	}

	q := req.URL.Query()
	q.Set("X-Amz-Expires", strconv.Itoa(int(expires.Seconds())))
	req.URL.RawQuery = q.Encode()

	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}

	creds := awsv4.Credentials{
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
	}

	signingTime := now()
	signedURI, _, err := v4.NewSigner().PresignHTTP(
		context.Background(),
		creds,
		req,
		unsignedPayload,
		"s3",
		region(cfg),
		signingTime,
	)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signer: presigning request: %w", err)
	}

	return signedURI, signingTime.Add(expires), nil
}

// now is a seam for tests; production always uses wall-clock time.
var now = time.Now

// region returns the SigV4 signing region, forcing "auto" for R2 per
// provider normalization (already applied by provider.Normalize, kept here
// defensively so a hand-built SigningConfig can't desync the two).
func region(cfg provider.SigningConfig) string {
	if cfg.Kind == provider.R2 {
		return "auto"
	}
	return cfg.Region
}

// ObjectURL returns the unsigned S3-API URL for key: path-style or
// virtual-hosted depending on cfg.ForcePathStyle. It never uses
// cfg.CustomDomain — that's a storage-facing concern (spec §4.C), not a
// signing concern.
func ObjectURL(cfg provider.SigningConfig, key string) string {
	u, err := url.Parse(cfg.Endpoint)
	if err != nil || u.Host == "" {
		// Endpoint is validated at Normalize() time; this is unreachable
		// for configs built through this module, kept defensive for
		// hand-rolled SigningConfig values in tests.
		return cfg.Endpoint + "/" + cfg.Bucket + "/" + key
	}

	// u.Path holds the unescaped key; u.String() escapes it exactly once.
	objectPath := strings.TrimPrefix(key, "/")

	if cfg.ForcePathStyle {
		u.Path = "/" + cfg.Bucket + "/" + objectPath
		return u.String()
	}

	u.Host = cfg.Bucket + "." + u.Host
	u.Path = "/" + objectPath
	return u.String()
}
