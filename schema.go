package s3up

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// Schema is the common interface every node of the DSL satisfies. It is
// deliberately small: validation and introspection, nothing else. Every
// modifier method on a concrete type returns a new value rather than
// mutating the receiver (spec §4.D, "builder is non-mutating").
type Schema interface {
	// validateFile checks one FileDescriptor against the schema's rules
	// (for ArraySchema, against its element schema; the batch length is
	// checked by the router). defaults fills in any constraint the
	// schema node itself left unset (config §"defaults" fallback).
	validateFile(f FileDescriptor, defaults Defaults) *ValidationError
	// descriptor renders the redacted shape returned by GET introspection.
	descriptor() SchemaDescriptor
	meta() nodeMeta
}

// SchemaDescriptor is the introspection-safe shape of a schema node.
type SchemaDescriptor struct {
	Kind         string                      `json:"kind"`
	MaxSize      int64                       `json:"maxSize,omitempty"`
	AllowedTypes []string                     `json:"allowedTypes,omitempty"`
	Formats      []string                     `json:"formats,omitempty"`
	MaxCount     int                         `json:"maxCount,omitempty"`
	Fields       map[string]SchemaDescriptor `json:"fields,omitempty"`
}

// MiddlewareFunc runs before validation, accumulating metadata. Returning an
// error converts to AuthError → HTTP 401 per spec §4.D convention.
type MiddlewareFunc func(ctx *RequestContext) (map[string]string, error)

// HookFunc runs a lifecycle hook. Errors from onUploadStart are logged and
// swallowed; errors from onUploadComplete are converted to onUploadError.
type HookFunc func(ctx *RequestContext) error

// nodeMeta is the shared, embeddable state every concrete schema carries:
// middleware, hooks, and an optional per-route path override. It exists so
// FileSchema/ObjectSchema/ArraySchema can each implement the non-mutating
// clone-on-modify pattern without inheritance.
type nodeMeta struct {
	middleware    []MiddlewareFunc
	onStart       []HookFunc
	onComplete    []HookFunc
	onError       []HookFunc
	pathOverride  *RoutePaths
}

func (m nodeMeta) clone() nodeMeta {
	cp := nodeMeta{pathOverride: m.pathOverride}
	cp.middleware = append([]MiddlewareFunc(nil), m.middleware...)
	cp.onStart = append([]HookFunc(nil), m.onStart...)
	cp.onComplete = append([]HookFunc(nil), m.onComplete...)
	cp.onError = append([]HookFunc(nil), m.onError...)
	return cp
}

// ByteSize parses "5MB", "1GB", or a plain byte count into bytes.
func ByteSize(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("s3up: empty byte size")
	}
	units := []struct {
		suffix string
		mult   int64
	}{
		{"GB", 1 << 30},
		{"MB", 1 << 20},
		{"KB", 1 << 10},
		{"B", 1},
	}
	upper := strings.ToUpper(s)
	for _, u := range units {
		if strings.HasSuffix(upper, u.suffix) {
			numPart := strings.TrimSpace(s[:len(s)-len(u.suffix)])
			n, err := strconv.ParseFloat(numPart, 64)
			if err != nil {
				return 0, fmt.Errorf("s3up: invalid byte size %q: %w", s, err)
			}
			return int64(n * float64(u.mult)), nil
		}
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("s3up: invalid byte size %q", s)
	}
	return n, nil
}

// FileSchema is the leaf schema node: one file, constrained by size, MIME
// type, and (for images) format.
type FileSchema struct {
	nodeMeta
	maxSize      int64
	allowedTypes []string
	formats      []string
	isImage      bool
}

// File starts a new, unconstrained file schema.
func File() FileSchema { return FileSchema{} }

// Image starts a file schema pre-filtered to image/* content types, the
// alias spec §4.D describes for s3.image().
func Image() FileSchema {
	return FileSchema{allowedTypes: []string{"image/*"}, isImage: true}
}

func (f FileSchema) clone() FileSchema {
	cp := f
	cp.nodeMeta = f.nodeMeta.clone()
	cp.allowedTypes = append([]string(nil), f.allowedTypes...)
	cp.formats = append([]string(nil), f.formats...)
	return cp
}

// MaxFileSize sets the maximum accepted size, parsed via ByteSize. Panics on
// an unparseable literal, matching the DSL's fail-fast construction-time
// contract (schema trees are built once, not per-request).
func (f FileSchema) MaxFileSize(size string) FileSchema {
	n, err := ByteSize(size)
	if err != nil {
		panic(err)
	}
	cp := f.clone()
	cp.maxSize = n
	return cp
}

// Max is the spec's shorthand alias for MaxFileSize.
func (f FileSchema) Max(size string) FileSchema { return f.MaxFileSize(size) }

// Types sets the MIME whitelist; entries may use a "image/*"-style wildcard.
func (f FileSchema) Types(types ...string) FileSchema {
	cp := f.clone()
	cp.allowedTypes = append([]string(nil), types...)
	return cp
}

// Formats restricts an image schema to specific subtypes ("jpeg", "png",
// "webp"), equivalent to Types("image/jpeg", …).
func (f FileSchema) Formats(formats ...string) FileSchema {
	cp := f.clone()
	cp.formats = append([]string(nil), formats...)
	types := make([]string, len(formats))
	for i, fm := range formats {
		types[i] = "image/" + fm
	}
	cp.allowedTypes = types
	return cp
}

// MaxFiles promotes this leaf to an ArraySchema whose element is the
// receiver, per spec §4.D ("Arrays are promotions from leaves").
func (f FileSchema) MaxFiles(n int) ArraySchema {
	return ArraySchema{element: f, maxCount: n}
}

// Middleware appends an async metadata-accumulating step.
func (f FileSchema) Middleware(mw MiddlewareFunc) FileSchema {
	cp := f.clone()
	cp.middleware = append(cp.middleware, mw)
	return cp
}

// OnUploadStart appends a lifecycle hook fired after a successful presign.
func (f FileSchema) OnUploadStart(h HookFunc) FileSchema {
	cp := f.clone()
	cp.onStart = append(cp.onStart, h)
	return cp
}

// OnUploadComplete appends a lifecycle hook fired on successful completion.
func (f FileSchema) OnUploadComplete(h HookFunc) FileSchema {
	cp := f.clone()
	cp.onComplete = append(cp.onComplete, h)
	return cp
}

// OnUploadError appends a lifecycle hook fired when completion fails.
func (f FileSchema) OnUploadError(h HookFunc) FileSchema {
	cp := f.clone()
	cp.onError = append(cp.onError, h)
	return cp
}

// Paths overrides the global path engine config for this route.
func (f FileSchema) Paths(p RoutePaths) FileSchema {
	cp := f.clone()
	cp.pathOverride = &p
	return cp
}

func (f FileSchema) meta() nodeMeta { return f.nodeMeta }

func (f FileSchema) descriptor() SchemaDescriptor {
	kind := "file"
	if f.isImage {
		kind = "image"
	}
	return SchemaDescriptor{Kind: kind, MaxSize: f.maxSize, AllowedTypes: f.allowedTypes, Formats: f.formats}
}

// validateFile falls back to defaults.MaxFileSize/AllowedFileTypes when this
// node didn't set its own constraint, per config §"defaults" ("route-level
// fallbacks applied when a schema node doesn't set its own constraint").
func (f FileSchema) validateFile(file FileDescriptor, defaults Defaults) *ValidationError {
	maxSize := f.maxSize
	if maxSize == 0 {
		maxSize = defaults.MaxFileSize
	}
	if maxSize > 0 && file.Size > maxSize {
		return &ValidationError{Code: "FILE_TOO_LARGE", Message: fmt.Sprintf("file exceeds maximum size of %d bytes", maxSize)}
	}

	allowedTypes := f.allowedTypes
	if len(allowedTypes) == 0 {
		allowedTypes = defaults.AllowedFileTypes
	}
	if len(allowedTypes) > 0 && !typeMatches(file.Type, allowedTypes) {
		return &ValidationError{Code: "INVALID_TYPE", Message: fmt.Sprintf("type %q is not allowed", file.Type), Field: "type"}
	}
	return nil
}

func typeMatches(actual string, allowed []string) bool {
	for _, pattern := range allowed {
		if pattern == actual {
			return true
		}
		if strings.HasSuffix(pattern, "/*") && strings.HasPrefix(actual, strings.TrimSuffix(pattern, "*")) {
			return true
		}
	}
	return false
}

// ObjectSchema groups named field schemas, validated as a record (spec
// §4.D, s3.object({field: Schema, …})).
type ObjectSchema struct {
	nodeMeta
	fields map[string]Schema
}

// Object builds a schema whose wire shape is a record of named sub-schemas.
func Object(fields map[string]Schema) ObjectSchema {
	cp := make(map[string]Schema, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return ObjectSchema{fields: cp}
}

func (o ObjectSchema) clone() ObjectSchema {
	cp := o
	cp.nodeMeta = o.nodeMeta.clone()
	cp.fields = make(map[string]Schema, len(o.fields))
	for k, v := range o.fields {
		cp.fields[k] = v
	}
	return cp
}

func (o ObjectSchema) Middleware(mw MiddlewareFunc) ObjectSchema {
	cp := o.clone()
	cp.middleware = append(cp.middleware, mw)
	return cp
}

func (o ObjectSchema) OnUploadStart(h HookFunc) ObjectSchema {
	cp := o.clone()
	cp.onStart = append(cp.onStart, h)
	return cp
}

func (o ObjectSchema) OnUploadComplete(h HookFunc) ObjectSchema {
	cp := o.clone()
	cp.onComplete = append(cp.onComplete, h)
	return cp
}

func (o ObjectSchema) OnUploadError(h HookFunc) ObjectSchema {
	cp := o.clone()
	cp.onError = append(cp.onError, h)
	return cp
}

func (o ObjectSchema) Paths(p RoutePaths) ObjectSchema {
	cp := o.clone()
	cp.pathOverride = &p
	return cp
}

func (o ObjectSchema) meta() nodeMeta { return o.nodeMeta }

func (o ObjectSchema) descriptor() SchemaDescriptor {
	fields := make(map[string]SchemaDescriptor, len(o.fields))
	for k, v := range o.fields {
		fields[k] = v.descriptor()
	}
	return SchemaDescriptor{Kind: "object", Fields: fields}
}

// validateFile validates against the field named by file.Field; a wire
// descriptor with no Field set, or one naming an unknown field, fails with
// a missing-field error (spec §4.D, "missing required field → error").
func (o ObjectSchema) validateFile(file FileDescriptor, defaults Defaults) *ValidationError {
	if file.Field == "" {
		return &ValidationError{Code: "MISSING_FIELD", Message: "object route requires a \"field\" on each file descriptor"}
	}
	schema, ok := o.fields[file.Field]
	if !ok {
		return &ValidationError{Code: "MISSING_FIELD", Message: fmt.Sprintf("unknown field %q", file.Field), Field: file.Field}
	}
	return schema.validateFile(file, defaults)
}

// ArraySchema wraps an element schema with a maximum count (spec §4.D,
// produced only via FileSchema.MaxFiles).
type ArraySchema struct {
	nodeMeta
	element  Schema
	maxCount int
}

func (a ArraySchema) clone() ArraySchema {
	cp := a
	cp.nodeMeta = a.nodeMeta.clone()
	return cp
}

func (a ArraySchema) Middleware(mw MiddlewareFunc) ArraySchema {
	cp := a.clone()
	cp.middleware = append(cp.middleware, mw)
	return cp
}

func (a ArraySchema) OnUploadStart(h HookFunc) ArraySchema {
	cp := a.clone()
	cp.onStart = append(cp.onStart, h)
	return cp
}

func (a ArraySchema) OnUploadComplete(h HookFunc) ArraySchema {
	cp := a.clone()
	cp.onComplete = append(cp.onComplete, h)
	return cp
}

func (a ArraySchema) OnUploadError(h HookFunc) ArraySchema {
	cp := a.clone()
	cp.onError = append(cp.onError, h)
	return cp
}

func (a ArraySchema) Paths(p RoutePaths) ArraySchema {
	cp := a.clone()
	cp.pathOverride = &p
	return cp
}

func (a ArraySchema) meta() nodeMeta { return a.nodeMeta }

func (a ArraySchema) descriptor() SchemaDescriptor {
	d := a.element.descriptor()
	d.MaxCount = a.maxCount
	return SchemaDescriptor{Kind: "array", MaxCount: a.maxCount, Fields: map[string]SchemaDescriptor{"element": d}}
}

// validateFile validates one element against the element schema. Overall
// length checking (ARRAY_TOO_LONG) happens in the router, which sees the
// whole batch; ArraySchema itself only knows about a single descriptor at a
// time through this interface method.
func (a ArraySchema) validateFile(file FileDescriptor, defaults Defaults) *ValidationError {
	return a.element.validateFile(file, defaults)
}

// ValidationError is the per-file error shape returned by schema validation
// (spec §4.D, "{success, error:{code,message,field?}}").
type ValidationError struct {
	Code    string
	Message string
	Field   string
}

// RequestContext is what middleware and hooks receive: the inbound request,
// the file (or files) under consideration, and metadata accumulated so far.
type RequestContext struct {
	Context  context.Context
	Request  *http.Request
	File     *FileDescriptor
	Files    []FileDescriptor
	Metadata map[string]string
}
