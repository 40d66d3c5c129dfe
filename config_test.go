package s3up

import "testing"

func testProviderConfig(bucket string) ProviderConfig {
	return ProviderConfig{
		Kind:            ProviderMinIO,
		AccessKeyID:     "minioadmin",
		SecretAccessKey: "minioadmin",
		Bucket:          bucket,
		Endpoint:        "localhost:9000",
		// Keeps tests hermetic: Build() would otherwise fire a background
		// BucketExists probe against a MinIO instance that isn't running.
		SkipHealthCheck: true,
	}
}

func TestBuildRequiresProvider(t *testing.T) {
	_, err := New().Build()
	if err == nil {
		t.Fatal("expected error when no provider is configured")
	}
	if s3upErr, ok := err.(*Error); !ok || s3upErr.Code != ErrConfigError {
		t.Fatalf("expected ErrConfigError, got %v", err)
	}
}

func TestBuildRejectsInvalidProvider(t *testing.T) {
	_, err := New().Provider(ProviderConfig{Kind: ProviderAWS}).Build()
	if err == nil {
		t.Fatal("expected error for incomplete aws provider config")
	}
}

func TestBuildSucceeds(t *testing.T) {
	built, err := New().Provider(testProviderConfig("bucket-a")).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if built.Config == nil || built.S3 == nil || built.Storage == nil {
		t.Fatal("expected a fully populated Built value")
	}
}

func TestBuildProducesIndependentConfigs(t *testing.T) {
	const n = 50
	builts := make([]*Built, n)
	for i := 0; i < n; i++ {
		built, err := New().
			Provider(testProviderConfig("bucket")).
			Paths(PathsConfig{Prefix: "uploads"}).
			Build()
		if err != nil {
			t.Fatalf("build %d: unexpected error: %v", i, err)
		}
		builts[i] = built
	}

	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if builts[i].Config == builts[j].Config {
				t.Fatalf("configs %d and %d share the same pointer", i, j)
			}
			if builts[i].S3 == builts[j].S3 {
				t.Fatalf("schema factories %d and %d share the same pointer", i, j)
			}
			if builts[i].Storage == builts[j].Storage {
				t.Fatalf("facades %d and %d share the same pointer", i, j)
			}
		}
	}

	// A router built from one config must never see another config's routes.
	routerA := builts[0].S3.CreateRouter(map[string]Schema{"a": File()})
	routerB := builts[1].S3.CreateRouter(map[string]Schema{"b": File()})
	if _, ok := routerA.GetRoute("b"); ok {
		t.Error("routerA should not see routerB's routes")
	}
	if _, ok := routerB.GetRoute("a"); ok {
		t.Error("routerB should not see routerA's routes")
	}
}

func TestCreateRouterSortsRouteNames(t *testing.T) {
	built, err := New().Provider(testProviderConfig("b")).Build()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	router := built.S3.CreateRouter(map[string]Schema{
		"zebra": File(), "apple": File(), "mango": File(),
	})
	names := router.GetRouteNames()
	want := []string{"apple", "mango", "zebra"}
	for i, n := range want {
		if names[i] != n {
			t.Fatalf("names = %v, want %v", names, want)
		}
	}
}
