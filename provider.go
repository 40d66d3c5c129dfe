package s3up

import "github.com/s3up-go/s3up/internal/provider"

// ProviderKind is the public name for one of the backends this library can
// target, re-exported from the internal provider package so callers never
// import internal/provider directly.
type ProviderKind string

const (
	ProviderAWS        ProviderKind = ProviderKind(provider.AWS)
	ProviderR2         ProviderKind = ProviderKind(provider.R2)
	ProviderSpaces     ProviderKind = ProviderKind(provider.Spaces)
	ProviderMinIO      ProviderKind = ProviderKind(provider.MinIO)
	ProviderGCS        ProviderKind = ProviderKind(provider.GCS)
	ProviderCompatible ProviderKind = ProviderKind(provider.Compatible)
)

// ProviderConfig is the public, provider-agnostic shape passed to
// Builder.Provider. Fields not meaningful for a given Kind are ignored
// (e.g. AccountID outside of R2).
type ProviderConfig struct {
	Kind            ProviderKind
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	Bucket          string
	Endpoint        string
	AccountID       string
	ForcePathStyle  *bool
	UseSSL          bool
	CustomDomain    string

	// SkipHealthCheck disables the best-effort bucket-reachability probe
	// Build() otherwise runs for MinIO/S3-Compatible providers. AWS-family
	// providers never probe, since LoadDefaultConfig already does no I/O.
	SkipHealthCheck bool
}

func (p ProviderConfig) toInternal() provider.Input {
	return provider.Input{
		Kind:            provider.Kind(p.Kind),
		AccessKeyID:     p.AccessKeyID,
		SecretAccessKey: p.SecretAccessKey,
		Region:          p.Region,
		Bucket:          p.Bucket,
		Endpoint:        p.Endpoint,
		AccountID:       p.AccountID,
		ForcePathStyle:  p.ForcePathStyle,
		UseSSL:          p.UseSSL,
		CustomDomain:    p.CustomDomain,
	}
}
