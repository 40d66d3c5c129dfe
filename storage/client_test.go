package storage

import (
	"testing"

	"github.com/s3up-go/s3up/internal/provider"
)

func TestStripScheme(t *testing.T) {
	cases := []struct {
		in         string
		wantHost   string
		wantSecure bool
	}{
		{"https://s3.example.com", "s3.example.com", true},
		{"http://localhost:9000", "localhost:9000", false},
		{"localhost:9000", "localhost:9000", true},
	}
	for _, tc := range cases {
		host, secure := stripScheme(tc.in)
		if host != tc.wantHost || secure != tc.wantSecure {
			t.Errorf("stripScheme(%q) = (%q, %v), want (%q, %v)", tc.in, host, secure, tc.wantHost, tc.wantSecure)
		}
	}
}

func TestNewConfigDispatchesToMinioClient(t *testing.T) {
	sc, err := provider.Normalize(provider.Input{
		Kind: provider.MinIO, AccessKeyID: "k", SecretAccessKey: "s", Bucket: "b", Endpoint: "localhost:9000",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := NewConfig(sc)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.minio == nil {
		t.Error("expected a minio client to be constructed")
	}
	if cfg.awsClient != nil {
		t.Error("expected no aws client for a minio-backed config")
	}
}

func TestNewConfigDispatchesToAWSClient(t *testing.T) {
	sc, err := provider.Normalize(provider.Input{
		Kind: provider.AWS, AccessKeyID: "k", SecretAccessKey: "s", Bucket: "b", Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := NewConfig(sc)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.awsClient == nil {
		t.Error("expected an aws client to be constructed")
	}
	if cfg.minio != nil {
		t.Error("expected no minio client for an aws-backed config")
	}
}

func TestProbeHealthNoopForAWSBackedConfig(t *testing.T) {
	sc, err := provider.Normalize(provider.Input{
		Kind: provider.AWS, AccessKeyID: "k", SecretAccessKey: "s", Bucket: "b", Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := NewConfig(sc)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	// Must return immediately without touching the network: aws-sdk-go-v2
	// backed configs never probe at construction time.
	cfg.ProbeHealth()
}

func TestSigningExposesNormalizedConfig(t *testing.T) {
	sc, err := provider.Normalize(provider.Input{
		Kind: provider.AWS, AccessKeyID: "k", SecretAccessKey: "s", Bucket: "b", Region: "us-east-1",
	})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	cfg, err := NewConfig(sc)
	if err != nil {
		t.Fatalf("NewConfig: %v", err)
	}
	if cfg.Signing().Bucket != "b" {
		t.Errorf("Signing().Bucket = %q, want b", cfg.Signing().Bucket)
	}
}
