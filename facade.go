package s3up

import (
	"time"

	"github.com/s3up-go/s3up/storage"
)

// Facade is the config-scoped storage object from spec §4.E: every method
// pre-binds the storage package's pure functions to one UploadConfig's
// storage.Config, so callers never pass a config explicitly.
type Facade struct {
	cfg    *UploadConfig
	client *storage.Config
}

func newFacade(cfg *UploadConfig, client *storage.Config) *Facade {
	return &Facade{cfg: cfg, client: client}
}

// GeneratePresignedUploadURL issues a presigned PUT URL for key.
func (f *Facade) GeneratePresignedUploadURL(key, contentType string, expiresIn time.Duration, metadata map[string]string) (storage.PresignedUpload, error) {
	return storage.GeneratePresignedUploadURL(f.client, storage.PresignUploadParams{
		Key: key, ContentType: contentType, ExpiresIn: expiresIn, Metadata: metadata,
	})
}

// GeneratePresignedDownloadURL issues a presigned GET URL for key.
func (f *Facade) GeneratePresignedDownloadURL(key string, expiresIn time.Duration) (storage.PresignedUpload, error) {
	return storage.GeneratePresignedDownloadURL(f.client, key, expiresIn)
}

// GetFileURL returns the permanent public URL for key.
func (f *Facade) GetFileURL(key string) string {
	return storage.GetFileURL(f.client, key)
}

// CheckFileExists performs a HEAD against the backend.
func (f *Facade) CheckFileExists(key string) (bool, error) {
	return storage.CheckFileExists(f.client, key)
}

// GetFileInfo returns metadata for an existing object.
func (f *Facade) GetFileInfo(key string) (storage.FileInfo, error) {
	return storage.GetFileInfo(f.client, key)
}

// DeleteFile removes a single object.
func (f *Facade) DeleteFile(key string) error {
	return storage.DeleteFile(f.client, key)
}

// DeleteFiles removes a batch of objects, reporting per-key failures.
func (f *Facade) DeleteFiles(keys []string) storage.DeleteFilesResult {
	return storage.DeleteFiles(f.client, keys)
}

// ListFiles returns one page of objects under params.Prefix.
func (f *Facade) ListFiles(params storage.ListParams) (storage.ListResult, error) {
	return storage.ListFiles(f.client, params)
}

// ListIterator returns a paginated iterator over every page.
func (f *Facade) ListIterator(params storage.ListParams) *storage.ListIterator {
	return storage.NewListIterator(f.client, params)
}

// ValidateFile checks an already-known file's metadata against rules.
func (f *Facade) ValidateFile(info storage.FileInfo, rules storage.ValidateRules) storage.ValidateResult {
	return storage.ValidateFile(info, rules)
}
