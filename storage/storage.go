package storage

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	smithy "github.com/aws/smithy-go"
	"github.com/minio/minio-go/v7"

	"github.com/s3up-go/s3up/internal/signer"
)

const defaultPresignExpiry = 1 * time.Hour

// GeneratePresignedUploadURL issues a presigned PUT URL for one key. The
// caller is expected to PUT the file body directly from the browser; this
// library never proxies the bytes (spec §2).
func GeneratePresignedUploadURL(cfg *Config, p PresignUploadParams) (PresignedUpload, error) {
	expires := p.ExpiresIn
	if expires <= 0 {
		expires = defaultPresignExpiry
	}

	if cfg.signing.UseMinioClient {
		u, err := cfg.minio.PresignedPutObject(context.Background(), cfg.signing.Bucket, p.Key, expires)
		if err != nil {
			return PresignedUpload{}, fmt.Errorf("storage: presigning upload: %w", err)
		}
		return PresignedUpload{URL: u.String(), Key: p.Key, ExpiresAt: time.Now().Add(expires)}, nil
	}

	url, expiresAt, err := signer.PresignPut(cfg.signing, p.Key, p.ContentType, expires)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("storage: presigning upload: %w", err)
	}
	return PresignedUpload{URL: url, Key: p.Key, ExpiresAt: expiresAt}, nil
}

// GeneratePresignedDownloadURL issues a presigned GET URL for one key, used
// when a bucket is private and getFileUrl alone wouldn't be fetchable.
func GeneratePresignedDownloadURL(cfg *Config, key string, expires time.Duration) (PresignedUpload, error) {
	if expires <= 0 {
		expires = defaultPresignExpiry
	}

	if cfg.signing.UseMinioClient {
		u, err := cfg.minio.PresignedGetObject(context.Background(), cfg.signing.Bucket, key, expires, url.Values{})
		if err != nil {
			return PresignedUpload{}, fmt.Errorf("storage: presigning download: %w", err)
		}
		return PresignedUpload{URL: u.String(), Key: key, ExpiresAt: time.Now().Add(expires)}, nil
	}

	url, expiresAt, err := signer.PresignGet(cfg.signing, key, expires)
	if err != nil {
		return PresignedUpload{}, fmt.Errorf("storage: presigning download: %w", err)
	}
	return PresignedUpload{URL: url, Key: key, ExpiresAt: expiresAt}, nil
}

// GetFileURL returns a permanent, unsigned URL for key: the customDomain
// front if one was configured, otherwise the backend's own object URL. A
// customDomain is a CDN, never the S3 API, so it is never used for presigned
// URLs (spec §4.C invariant).
func GetFileURL(cfg *Config, key string) string {
	if cfg.signing.CustomDomain != "" {
		return strings.TrimSuffix(cfg.signing.CustomDomain, "/") + "/" + strings.TrimPrefix(key, "/")
	}
	return signer.ObjectURL(cfg.signing, key)
}

// CheckFileExists performs a lightweight HEAD against the backend.
func CheckFileExists(cfg *Config, key string) (bool, error) {
	if cfg.signing.UseMinioClient {
		_, err := cfg.minio.StatObject(context.Background(), cfg.signing.Bucket, key, minio.StatObjectOptions{})
		if err != nil {
			if isMinioNotFound(err) {
				return false, nil
			}
			return false, fmt.Errorf("storage: head object: %w", err)
		}
		return true, nil
	}

	_, err := cfg.awsClient.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(cfg.signing.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isAWSNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("storage: head object: %w", err)
	}
	return true, nil
}

// GetFileInfo returns metadata for an existing object, or NotFound-shaped
// errors the router maps onto the ErrNotFound taxonomy entry.
func GetFileInfo(cfg *Config, key string) (FileInfo, error) {
	if cfg.signing.UseMinioClient {
		info, err := cfg.minio.StatObject(context.Background(), cfg.signing.Bucket, key, minio.StatObjectOptions{})
		if err != nil {
			return FileInfo{}, fmt.Errorf("storage: stat object: %w", err)
		}
		return FileInfo{
			Key:          key,
			URL:          GetFileURL(cfg, key),
			Size:         info.Size,
			ContentType:  info.ContentType,
			LastModified: info.LastModified,
			ETag:         strings.Trim(info.ETag, `"`),
			Metadata:     info.UserMetadata,
		}, nil
	}

	out, err := cfg.awsClient.HeadObject(context.Background(), &s3.HeadObjectInput{
		Bucket: aws.String(cfg.signing.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return FileInfo{}, fmt.Errorf("storage: head object: %w", err)
	}
	return FileInfo{
		Key:          key,
		URL:          GetFileURL(cfg, key),
		Size:         aws.ToInt64(out.ContentLength),
		ContentType:  aws.ToString(out.ContentType),
		LastModified: aws.ToTime(out.LastModified),
		ETag:         strings.Trim(aws.ToString(out.ETag), `"`),
		Metadata:     out.Metadata,
	}, nil
}

// DeleteFile removes a single object.
func DeleteFile(cfg *Config, key string) error {
	if cfg.signing.UseMinioClient {
		if err := cfg.minio.RemoveObject(context.Background(), cfg.signing.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
			return fmt.Errorf("storage: delete object: %w", err)
		}
		return nil
	}
	_, err := cfg.awsClient.DeleteObject(context.Background(), &s3.DeleteObjectInput{
		Bucket: aws.String(cfg.signing.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: delete object: %w", err)
	}
	return nil
}

// DeleteFiles removes a batch of objects, reporting per-key failures instead
// of aborting the whole batch (spec §6, "per-file failures are non-fatal").
func DeleteFiles(cfg *Config, keys []string) DeleteFilesResult {
	result := DeleteFilesResult{Deleted: []string{}, Errors: []DeleteError{}}

	if cfg.signing.UseMinioClient {
		for _, key := range keys {
			if err := cfg.minio.RemoveObject(context.Background(), cfg.signing.Bucket, key, minio.RemoveObjectOptions{}); err != nil {
				result.Errors = append(result.Errors, DeleteError{Key: key, Message: err.Error()})
				continue
			}
			result.Deleted = append(result.Deleted, key)
		}
		result.Success = len(result.Errors) == 0
		return result
	}

	for _, key := range keys {
		if err := DeleteFile(cfg, key); err != nil {
			result.Errors = append(result.Errors, DeleteError{Key: key, Message: err.Error()})
			continue
		}
		result.Deleted = append(result.Deleted, key)
	}
	result.Success = len(result.Errors) == 0
	return result
}

// ListParams/ListResult is a single page; ListIterator walks every page.
func ListFiles(cfg *Config, p ListParams) (ListResult, error) {
	maxKeys := p.MaxKeys
	if maxKeys <= 0 {
		maxKeys = 1000
	}

	if cfg.signing.UseMinioClient {
		return listFilesMinio(cfg, p, maxKeys)
	}
	return listFilesAWS(cfg, p, maxKeys)
}

func listFilesAWS(cfg *Config, p ListParams, maxKeys int) (ListResult, error) {
	in := &s3.ListObjectsV2Input{
		Bucket:  aws.String(cfg.signing.Bucket),
		Prefix:  aws.String(p.Prefix),
		MaxKeys: aws.Int32(int32(maxKeys)),
	}
	if p.ContinuationToken != "" {
		in.ContinuationToken = aws.String(p.ContinuationToken)
	}

	out, err := cfg.awsClient.ListObjectsV2(context.Background(), in)
	if err != nil {
		return ListResult{}, fmt.Errorf("storage: list objects: %w", err)
	}

	files := make([]FileInfo, 0, len(out.Contents))
	for _, obj := range out.Contents {
		key := aws.ToString(obj.Key)
		info := FileInfo{
			Key:          key,
			URL:          GetFileURL(cfg, key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
			ETag:         strings.Trim(aws.ToString(obj.ETag), `"`),
		}
		if p.IncludeMetadata {
			if meta, err := GetFileInfo(cfg, key); err == nil {
				info.ContentType = meta.ContentType
				info.Metadata = meta.Metadata
			}
		}
		files = append(files, info)
	}

	return ListResult{
		Files:                 files,
		IsTruncated:           aws.ToBool(out.IsTruncated),
		NextContinuationToken: aws.ToString(out.NextContinuationToken),
	}, nil
}

func listFilesMinio(cfg *Config, p ListParams, maxKeys int) (ListResult, error) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	objectCh := cfg.minio.ListObjects(ctx, cfg.signing.Bucket, minio.ListObjectsOptions{
		Prefix:     p.Prefix,
		Recursive:  true,
		MaxKeys:    maxKeys,
		StartAfter: p.ContinuationToken,
	})

	files := make([]FileInfo, 0, maxKeys)
	for obj := range objectCh {
		if obj.Err != nil {
			return ListResult{}, fmt.Errorf("storage: list objects: %w", obj.Err)
		}
		info := FileInfo{
			Key:          obj.Key,
			URL:          GetFileURL(cfg, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
			ETag:         strings.Trim(obj.ETag, `"`),
		}
		if p.IncludeMetadata {
			if meta, err := GetFileInfo(cfg, obj.Key); err == nil {
				info.ContentType = meta.ContentType
				info.Metadata = meta.Metadata
			}
		}
		files = append(files, info)
		if len(files) >= maxKeys {
			break
		}
	}

	truncated := len(files) == maxKeys
	var next string
	if truncated {
		next = files[len(files)-1].Key
	}
	return ListResult{Files: files, IsTruncated: truncated, NextContinuationToken: next}, nil
}

// ByExtension filters a page's results to keys whose extension matches one
// of ext (case-insensitive, leading dot optional).
func ByExtension(files []FileInfo, ext ...string) []FileInfo {
	want := make(map[string]bool, len(ext))
	for _, e := range ext {
		want[normalizeExt(e)] = true
	}
	out := make([]FileInfo, 0, len(files))
	for _, f := range files {
		if want[normalizeExt(path.Ext(f.Key))] {
			out = append(out, f)
		}
	}
	return out
}

func normalizeExt(e string) string {
	return strings.ToLower(strings.TrimPrefix(e, "."))
}

// BySize filters to files within [min, max]; max <= 0 means no upper bound.
func BySize(files []FileInfo, min, max int64) []FileInfo {
	out := make([]FileInfo, 0, len(files))
	for _, f := range files {
		if f.Size < min {
			continue
		}
		if max > 0 && f.Size > max {
			continue
		}
		out = append(out, f)
	}
	return out
}

// ByDate filters to files last modified within [after, before]; a zero
// time.Time on either bound leaves that side unconstrained.
func ByDate(files []FileInfo, after, before time.Time) []FileInfo {
	out := make([]FileInfo, 0, len(files))
	for _, f := range files {
		if !after.IsZero() && f.LastModified.Before(after) {
			continue
		}
		if !before.IsZero() && f.LastModified.After(before) {
			continue
		}
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModified.Before(out[j].LastModified) })
	return out
}

// ListIterator walks every page of a prefix, hiding continuation tokens from
// the caller.
type ListIterator struct {
	cfg    *Config
	params ListParams
	done   bool
	err    error
}

// NewListIterator starts an iterator at the first page.
func NewListIterator(cfg *Config, params ListParams) *ListIterator {
	return &ListIterator{cfg: cfg, params: params}
}

// Next returns the next page, or ok=false once every page has been consumed
// or an error occurred (retrievable via Err).
func (it *ListIterator) Next() (page ListResult, ok bool) {
	if it.done || it.err != nil {
		return ListResult{}, false
	}
	page, err := ListFiles(it.cfg, it.params)
	if err != nil {
		it.err = err
		return ListResult{}, false
	}
	if !page.IsTruncated {
		it.done = true
	} else {
		it.params.ContinuationToken = page.NextContinuationToken
	}
	return page, true
}

// Err returns the error that stopped iteration, if any.
func (it *ListIterator) Err() error { return it.err }

// ValidateFile checks an already-known file's metadata against rules,
// mirroring the subset of schema validation that can be enforced purely
// from storage-side FileInfo (size, content type, extension) after a file
// has already landed in the bucket.
func ValidateFile(info FileInfo, rules ValidateRules) ValidateResult {
	result := ValidateResult{Valid: true, Errors: []string{}, Warnings: []string{}, Info: &info}

	if rules.MaxSize > 0 && info.Size > rules.MaxSize {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("file exceeds maximum size of %d bytes", rules.MaxSize))
	}

	if len(rules.AllowedTypes) > 0 && !matchesAny(info.ContentType, rules.AllowedTypes) {
		result.Valid = false
		result.Errors = append(result.Errors, fmt.Sprintf("content type %q is not allowed", info.ContentType))
	}

	if len(rules.RequiredExtensions) > 0 {
		ext := normalizeExt(path.Ext(info.Key))
		allowed := false
		for _, e := range rules.RequiredExtensions {
			if normalizeExt(e) == ext {
				allowed = true
				break
			}
		}
		if !allowed {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf("extension %q is not allowed", ext))
		}
	}

	return result
}

func matchesAny(contentType string, patterns []string) bool {
	for _, p := range patterns {
		if p == contentType {
			return true
		}
		if strings.HasSuffix(p, "/*") && strings.HasPrefix(contentType, strings.TrimSuffix(p, "*")) {
			return true
		}
	}
	return false
}

func isMinioNotFound(err error) bool {
	resp := minio.ToErrorResponse(err)
	return resp.Code == "NoSuchKey" || resp.Code == "NotFound"
}

func isAWSNotFound(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "NotFound" || apiErr.ErrorCode() == "NoSuchKey"
	}
	return false
}
