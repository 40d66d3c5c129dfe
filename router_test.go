package s3up

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testRouter(t *testing.T, routes map[string]Schema) *Router {
	t.Helper()
	built, err := New().
		Provider(testProviderConfig("router-test")).
		Security(SecurityConfig{}).
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	return built.S3.CreateRouter(routes)
}

func testReqCtx() *RequestContext {
	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	return &RequestContext{Context: context.Background(), Request: req}
}

func TestPresignUnknownRoute(t *testing.T) {
	r := testRouter(t, map[string]Schema{"images": Image()})
	_, err := r.Presign(testReqCtx(), "missing", nil)
	if err == nil || err.Code != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPresignSuccess(t *testing.T) {
	r := testRouter(t, map[string]Schema{"images": Image().Max("5MB")})
	results, err := r.Presign(testReqCtx(), "images", []FileDescriptor{
		{Name: "a.png", Size: 1024, Type: "image/png"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected a successful result, got %+v", results)
	}
	if results[0].PresignedURL == "" || results[0].Key == "" {
		t.Error("expected a presigned URL and key")
	}
}

func TestPresignPerFileValidationFailureIsNonFatal(t *testing.T) {
	r := testRouter(t, map[string]Schema{"images": Image().Max("1B")})
	results, err := r.Presign(testReqCtx(), "images", []FileDescriptor{
		{Name: "a.png", Size: 9999, Type: "image/png"},
		{Name: "b.png", Size: 1, Type: "image/png"},
	})
	if err != nil {
		t.Fatalf("per-file failures must not be request-fatal: %v", err)
	}
	if results[0].Success {
		t.Error("expected first file to fail size validation")
	}
	if !results[1].Success {
		t.Error("expected second file to succeed")
	}
}

func TestPresignArrayTooLongMarksEveryResultFailed(t *testing.T) {
	r := testRouter(t, map[string]Schema{"gallery": Image().Max("5MB").MaxFiles(2)})
	files := []FileDescriptor{
		{Name: "a.png", Size: 10, Type: "image/png"},
		{Name: "b.png", Size: 10, Type: "image/png"},
		{Name: "c.png", Size: 10, Type: "image/png"},
	}
	results, err := r.Presign(testReqCtx(), "gallery", files)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	for _, res := range results {
		if res.Success {
			t.Error("expected every result to fail when the batch exceeds MaxFiles")
		}
		if res.Error == nil || res.Error.Code != "ARRAY_TOO_LONG" {
			t.Errorf("expected ARRAY_TOO_LONG, got %+v", res.Error)
		}
	}
}

func TestPresignMiddlewareRejectionIsAuthError(t *testing.T) {
	schema := Image().Middleware(func(ctx *RequestContext) (map[string]string, error) {
		return nil, errors.New("no bearer token")
	})
	r := testRouter(t, map[string]Schema{"images": schema})
	_, err := r.Presign(testReqCtx(), "images", []FileDescriptor{{Name: "a.png", Type: "image/png"}})
	if err == nil || err.Code != ErrAuthError {
		t.Fatalf("expected ErrAuthError, got %v", err)
	}
}

func TestPresignDefaultsSeedMetadataBeforeMiddleware(t *testing.T) {
	var seenMeta map[string]string
	schema := Image().
		Middleware(func(ctx *RequestContext) (map[string]string, error) {
			return map[string]string{"userId": "u42"}, nil
		}).
		OnUploadStart(func(ctx *RequestContext) error {
			seenMeta = ctx.Metadata
			return nil
		})

	built, err := New().
		Provider(testProviderConfig("defaults-test")).
		Defaults(Defaults{Metadata: map[string]string{"source": "s3up"}}).
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	r := built.S3.CreateRouter(map[string]Schema{"images": schema})

	_, presignErr := r.Presign(testReqCtx(), "images", []FileDescriptor{{Name: "a.png", Size: 10, Type: "image/png"}})
	if presignErr != nil {
		t.Fatalf("unexpected error: %v", presignErr)
	}
	if seenMeta["source"] != "s3up" {
		t.Errorf("expected config-wide default metadata to seed the request, got %v", seenMeta)
	}
	if seenMeta["userId"] != "u42" {
		t.Errorf("expected middleware-contributed metadata to still be present, got %v", seenMeta)
	}
}

func TestPresignRequireAuthRejectsMissingAuthorizationHeader(t *testing.T) {
	built, err := New().
		Provider(testProviderConfig("require-auth-test")).
		Security(SecurityConfig{RequireAuth: true}).
		Build()
	if err != nil {
		t.Fatalf("unexpected build error: %v", err)
	}
	r := built.S3.CreateRouter(map[string]Schema{"images": Image()})

	_, presignErr := r.Presign(testReqCtx(), "images", []FileDescriptor{{Name: "a.png", Type: "image/png"}})
	if presignErr == nil || presignErr.Code != ErrAuthError {
		t.Fatalf("expected ErrAuthError when Authorization header is missing, got %v", presignErr)
	}

	req := httptest.NewRequest(http.MethodPost, "/upload", nil)
	req.RemoteAddr = "10.0.0.1:1234"
	req.Header.Set("Authorization", "Bearer anything")
	authedCtx := &RequestContext{Context: context.Background(), Request: req}
	if _, presignErr := r.Presign(authedCtx, "images", []FileDescriptor{{Name: "a.png", Type: "image/png"}}); presignErr != nil {
		t.Fatalf("expected success once Authorization header is present: %v", presignErr)
	}
}

func TestPresignMiddlewareMetadataFlowsToHooks(t *testing.T) {
	var seenUserID string
	schema := Image().
		Middleware(func(ctx *RequestContext) (map[string]string, error) {
			return map[string]string{"userId": "u42"}, nil
		}).
		OnUploadStart(func(ctx *RequestContext) error {
			seenUserID = ctx.Metadata["userId"]
			return nil
		})
	r := testRouter(t, map[string]Schema{"images": schema})
	_, err := r.Presign(testReqCtx(), "images", []FileDescriptor{{Name: "a.png", Size: 10, Type: "image/png"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if seenUserID != "u42" {
		t.Errorf("seenUserID = %q, want u42", seenUserID)
	}
}

func TestPresignOnUploadStartFiresInInputOrder(t *testing.T) {
	var order []string
	schema := Image().OnUploadStart(func(ctx *RequestContext) error {
		order = append(order, ctx.File.Name)
		return nil
	})
	r := testRouter(t, map[string]Schema{"images": schema})
	_, err := r.Presign(testReqCtx(), "images", []FileDescriptor{
		{Name: "1.png", Size: 1, Type: "image/png"},
		{Name: "2.png", Size: 1, Type: "image/png"},
		{Name: "3.png", Size: 1, Type: "image/png"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"1.png", "2.png", "3.png"}
	for i, name := range want {
		if order[i] != name {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}

func TestPresignRateLimited(t *testing.T) {
	built, err := New().
		Provider(testProviderConfig("rl-test")).
		Security(SecurityConfig{RateLimiting: &RateLimiting{MaxUploads: 1, Window: time.Minute}}).
		Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router := built.S3.CreateRouter(map[string]Schema{"images": Image()})
	ctx := testReqCtx()

	if _, err := router.Presign(ctx, "images", []FileDescriptor{{Name: "a.png", Type: "image/png"}}); err != nil {
		t.Fatalf("first request should be allowed: %v", err)
	}
	_, err = router.Presign(ctx, "images", []FileDescriptor{{Name: "b.png", Type: "image/png"}})
	if err == nil || err.Code != ErrRateLimited {
		t.Fatalf("expected ErrRateLimited on second request, got %v", err)
	}
}

func TestCompleteUnknownRoute(t *testing.T) {
	r := testRouter(t, map[string]Schema{"images": Image()})
	_, err := r.Complete(testReqCtx(), "missing", nil)
	if err == nil || err.Code != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteSuccess(t *testing.T) {
	r := testRouter(t, map[string]Schema{"images": Image()})
	results, err := r.Complete(testReqCtx(), "images", []CompletionRequest{
		{Key: "u1/123/abc123/a.png", File: FileDescriptor{Name: "a.png", Type: "image/png"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 || !results[0].Success {
		t.Fatalf("expected success, got %+v", results)
	}
	if results[0].URL == "" || results[0].PresignedURL == "" {
		t.Error("expected both a permanent URL and a presigned download URL")
	}
}

func TestCompleteHookFailureConvertsToOnUploadError(t *testing.T) {
	var errorFired bool
	schema := Image().
		OnUploadComplete(func(ctx *RequestContext) error { return errors.New("db write failed") }).
		OnUploadError(func(ctx *RequestContext) error {
			errorFired = true
			return nil
		})
	r := testRouter(t, map[string]Schema{"images": schema})
	results, err := r.Complete(testReqCtx(), "images", []CompletionRequest{
		{Key: "a.png", File: FileDescriptor{Name: "a.png"}},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].Success {
		t.Error("expected completion to fail when onUploadComplete errors")
	}
	if results[0].Error == nil || results[0].Error.Code != ErrHookError {
		t.Errorf("expected ErrHookError, got %+v", results[0].Error)
	}
	if !errorFired {
		t.Error("expected onUploadError to fire after onUploadComplete failed")
	}
}

func TestIntrospectReturnsSortedRoutes(t *testing.T) {
	r := testRouter(t, map[string]Schema{"b": Image(), "a": File()})
	descs := r.Introspect()
	if len(descs) != 2 || descs[0].Name != "a" || descs[1].Name != "b" {
		t.Fatalf("unexpected introspection order: %+v", descs)
	}
}
