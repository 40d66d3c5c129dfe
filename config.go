package s3up

import (
	"time"

	"github.com/s3up-go/s3up/internal/provider"
	"github.com/s3up-go/s3up/storage"
)

// Defaults holds route-level fallbacks applied when a schema node doesn't
// set its own constraint (spec §3, UploadConfig.defaults). MaxFileSize and
// AllowedFileTypes are consulted by FileSchema.validateFile when a node
// leaves its own constraint unset (schema.go); Metadata seeds every
// request's accumulated metadata before route middleware runs
// (router.go's runMiddleware). There is no ACL field: no provider branch
// in the storage package threads an ACL into a presigned PUT (MinIO has
// no per-object ACL concept, and the AWS-family branch signs PUT requests
// directly via internal/signer rather than s3.PresignClient.PresignPutObject,
// so there is nowhere to attach one — see DESIGN.md).
type Defaults struct {
	MaxFileSize      int64
	AllowedFileTypes []string
	Metadata         map[string]string
}

// RateLimiting configures the best-effort, in-process-only limiter (spec
// §5, "explicitly not cluster-wide").
type RateLimiting struct {
	MaxUploads int
	Window     time.Duration
}

// SecurityConfig holds auth/origin/rate-limit policy (spec §3).
type SecurityConfig struct {
	RequireAuth    bool
	AllowedOrigins []string
	RateLimiting   *RateLimiting
}

// HooksConfig holds config-wide lifecycle hooks, run in addition to any
// route-level hooks a schema carries.
type HooksConfig struct {
	OnUploadStart    []HookFunc
	OnUploadComplete []HookFunc
	OnUploadError    []HookFunc
}

// UploadConfig is the frozen, immutable result of Builder.Build (spec §3).
// It is never mutated after construction and carries no reference back to
// the builder that produced it.
type UploadConfig struct {
	Provider ProviderConfig
	Defaults Defaults
	Paths    PathsConfig
	Security SecurityConfig
	Hooks    HooksConfig

	signing provider.SigningConfig
}

// Built is what Builder.Build returns: the frozen config plus config-scoped
// factories that close over it (spec §4.E).
type Built struct {
	Config  *UploadConfig
	S3      *SchemaFactory
	Storage *Facade
}

// Builder accumulates provider/defaults/paths/security/hooks before
// Build() freezes them into an UploadConfig. Each setter is an idempotent
// replacement, matching spec §4.E.
type Builder struct {
	provider *ProviderConfig
	defaults Defaults
	paths    PathsConfig
	security SecurityConfig
	hooks    HooksConfig
}

// New starts a config builder. Mirrors spec §4.E's createUploadConfig().
func New() *Builder {
	return &Builder{}
}

// Provider sets the backend this config targets. Required before Build.
func (b *Builder) Provider(cfg ProviderConfig) *Builder {
	p := cfg
	b.provider = &p
	return b
}

// Defaults sets route-level fallback constraints.
func (b *Builder) Defaults(d Defaults) *Builder {
	b.defaults = d
	return b
}

// Paths sets the global path engine policy.
func (b *Builder) Paths(p PathsConfig) *Builder {
	b.paths = p
	return b
}

// Security sets auth/origin/rate-limit policy.
func (b *Builder) Security(s SecurityConfig) *Builder {
	b.security = s
	return b
}

// Hooks sets config-wide lifecycle hooks.
func (b *Builder) Hooks(h HooksConfig) *Builder {
	b.hooks = h
	return b
}

// Build validates the accumulated provider config, freezes it into an
// UploadConfig, and returns config-scoped S3 and Storage factories. Every
// call to Build produces entirely independent values: no module-level
// cache, no shared mutable state between builds (spec §4.E invariant,
// tested by the 50-config smoke test in spec §8 property 7).
func (b *Builder) Build() (*Built, error) {
	if b.provider == nil {
		return nil, newError(ErrConfigError, "provider is required")
	}

	signing, err := provider.Normalize(b.provider.toInternal())
	if err != nil {
		return nil, wrapError(ErrConfigError, "invalid provider configuration", err)
	}

	storageClient, err := storage.NewConfig(signing)
	if err != nil {
		return nil, wrapError(ErrConfigError, "invalid provider configuration", err)
	}

	if !b.provider.SkipHealthCheck {
		go storageClient.ProbeHealth()
	}

	cfg := &UploadConfig{
		Provider: *b.provider,
		Defaults: b.defaults,
		Paths:    b.paths,
		Security: b.security,
		Hooks:    b.hooks,
		signing:  signing,
	}

	return &Built{
		Config:  cfg,
		S3:      newSchemaFactory(cfg, storageClient),
		Storage: newFacade(cfg, storageClient),
	}, nil
}

// SchemaFactory is the config-scoped s3 object from spec §4.E: its closure
// captures one UploadConfig, and CreateRouter binds routes to it.
type SchemaFactory struct {
	cfg           *UploadConfig
	storageClient *storage.Config
}

func newSchemaFactory(cfg *UploadConfig, storageClient *storage.Config) *SchemaFactory {
	return &SchemaFactory{cfg: cfg, storageClient: storageClient}
}

// CreateRouter builds a Router bound to this factory's config.
func (f *SchemaFactory) CreateRouter(routes map[string]Schema) *Router {
	return newRouter(f.cfg, f.storageClient, routes)
}
