package storage

import (
	"testing"
	"time"

	"github.com/s3up-go/s3up/internal/provider"
)

func testConfig(t *testing.T, customDomain string) *Config {
	t.Helper()
	sc, err := provider.Normalize(provider.Input{
		Kind: provider.MinIO, AccessKeyID: "k", SecretAccessKey: "s", Bucket: "b",
		Endpoint: "localhost:9000", CustomDomain: customDomain,
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := NewConfig(sc)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	return cfg
}

func TestGetFileURLUsesCustomDomainWhenSet(t *testing.T) {
	cfg := testConfig(t, "https://cdn.example.com")
	got := GetFileURL(cfg, "a/b.png")
	want := "https://cdn.example.com/a/b.png"
	if got != want {
		t.Errorf("GetFileURL = %q, want %q", got, want)
	}
}

func TestGetFileURLFallsBackToObjectURL(t *testing.T) {
	cfg := testConfig(t, "")
	got := GetFileURL(cfg, "a/b.png")
	want := "http://localhost:9000/b/a/b.png"
	if got != want {
		t.Errorf("GetFileURL = %q, want %q", got, want)
	}
}

func TestGeneratePresignedUploadURLDefaultsExpiry(t *testing.T) {
	cfg := testConfig(t, "")
	upload, err := GeneratePresignedUploadURL(cfg, PresignUploadParams{Key: "a.png"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if upload.Key != "a.png" || upload.URL == "" {
		t.Errorf("upload = %+v", upload)
	}
	if upload.ExpiresAt.Before(time.Now()) {
		t.Error("expected ExpiresAt to be in the future")
	}
}

func TestByExtension(t *testing.T) {
	files := []FileInfo{{Key: "a.PNG"}, {Key: "b.jpg"}, {Key: "c.txt"}}
	got := ByExtension(files, "png", ".jpg")
	if len(got) != 2 {
		t.Fatalf("expected 2 matches, got %d (%+v)", len(got), got)
	}
}

func TestBySize(t *testing.T) {
	files := []FileInfo{{Size: 10}, {Size: 100}, {Size: 1000}}
	got := BySize(files, 50, 500)
	if len(got) != 1 || got[0].Size != 100 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestBySizeNoUpperBound(t *testing.T) {
	files := []FileInfo{{Size: 10}, {Size: 10000}}
	got := BySize(files, 5, 0)
	if len(got) != 2 {
		t.Fatalf("expected both files, got %+v", got)
	}
}

func TestByDateFiltersAndSorts(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	files := []FileInfo{
		{Key: "late", LastModified: base.Add(48 * time.Hour)},
		{Key: "early", LastModified: base.Add(1 * time.Hour)},
		{Key: "excluded", LastModified: base.Add(96 * time.Hour)},
	}
	got := ByDate(files, base, base.Add(72*time.Hour))
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %+v", got)
	}
	if got[0].Key != "early" || got[1].Key != "late" {
		t.Errorf("expected sorted by LastModified ascending, got %+v", got)
	}
}

func TestValidateFile(t *testing.T) {
	info := FileInfo{Key: "a.png", Size: 2000, ContentType: "image/png"}

	ok := ValidateFile(info, ValidateRules{MaxSize: 5000, AllowedTypes: []string{"image/*"}})
	if !ok.Valid {
		t.Errorf("expected valid, got errors: %v", ok.Errors)
	}

	tooLarge := ValidateFile(info, ValidateRules{MaxSize: 100})
	if tooLarge.Valid || len(tooLarge.Errors) == 0 {
		t.Error("expected a size validation failure")
	}

	wrongType := ValidateFile(info, ValidateRules{AllowedTypes: []string{"application/pdf"}})
	if wrongType.Valid {
		t.Error("expected a content-type validation failure")
	}

	wrongExt := ValidateFile(info, ValidateRules{RequiredExtensions: []string{"jpg"}})
	if wrongExt.Valid {
		t.Error("expected an extension validation failure")
	}
}

func TestListIteratorNextReturnsFalseOnceDone(t *testing.T) {
	it := &ListIterator{done: true}
	_, ok := it.Next()
	if ok {
		t.Error("expected Next to report no more pages once done")
	}
}
