// Package storage implements the storage client component: presigned URL
// generation plus list/head/delete management operations against any of the
// S3-compatible backends this library normalizes. Every function takes an
// explicit *Config — there is no package-level client, mirroring the
// teacher's storage.Config-parameter style (internal/pkg/storage/s3.go)
// generalized across providers.
package storage

import "time"

// FileInfo describes an object already present in the backend.
type FileInfo struct {
	Key          string
	URL          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
	Metadata     map[string]string
}

// PresignedUpload is the result of generating a presigned PUT URL.
type PresignedUpload struct {
	URL       string
	Key       string
	ExpiresAt time.Time
}

// PresignUploadParams configures GeneratePresignedUploadURL.
type PresignUploadParams struct {
	Key         string
	ContentType string
	ExpiresIn   time.Duration // 0 means the 3600s default from spec §4.A
	Metadata    map[string]string
}

// ListParams configures ListFiles.
type ListParams struct {
	Prefix             string
	MaxKeys            int
	ContinuationToken  string
	IncludeMetadata    bool
}

// ListResult is one page of ListFiles.
type ListResult struct {
	Files                 []FileInfo
	IsTruncated           bool
	NextContinuationToken string
}

// DeleteError reports one key's failure inside a batch delete.
type DeleteError struct {
	Key     string
	Message string
}

// DeleteFilesResult is the outcome of a batch delete.
type DeleteFilesResult struct {
	Success bool
	Deleted []string
	Errors  []DeleteError
}

// ValidateRules configures ValidateFile.
type ValidateRules struct {
	MaxSize            int64
	AllowedTypes       []string
	RequiredExtensions []string
}

// ValidateResult is the outcome of ValidateFile.
type ValidateResult struct {
	Valid    bool
	Errors   []string
	Warnings []string
	Info     *FileInfo
}
