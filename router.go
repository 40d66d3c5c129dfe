package s3up

import (
	"fmt"
	"sort"
	"sync"

	"github.com/s3up-go/s3up/internal/pkg/logger"
	"github.com/s3up-go/s3up/internal/ratelimit"
	"github.com/s3up-go/s3up/storage"
)

// Route is one named schema inside a Router (spec §3). Route names are
// unique per Router and exposed verbatim in the wire protocol.
type Route struct {
	Name   string
	Schema Schema
}

// Router is a named map of routes bound to one UploadConfig (spec §3,
// §4.F). It is created once and safely reused across concurrent requests;
// it never consults a global.
type Router struct {
	cfg           *UploadConfig
	storageClient *storage.Config
	routes        map[string]Route
	names         []string
	limiter       *ratelimit.Limiter
}

func newRouter(cfg *UploadConfig, storageClient *storage.Config, routes map[string]Schema) *Router {
	r := &Router{
		cfg:           cfg,
		storageClient: storageClient,
		routes:        make(map[string]Route, len(routes)),
		names:         make([]string, 0, len(routes)),
	}
	for name, schema := range routes {
		r.routes[name] = Route{Name: name, Schema: schema}
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)

	if rl := cfg.Security.RateLimiting; rl != nil && rl.MaxUploads > 0 {
		r.limiter = ratelimit.New(rl.MaxUploads, rl.Window)
	}
	return r
}

// GetRouteNames returns every route name, sorted for deterministic
// introspection output.
func (r *Router) GetRouteNames() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// GetRoute looks up a route by name.
func (r *Router) GetRoute(name string) (Route, bool) {
	route, ok := r.routes[name]
	return route, ok
}

// Introspect builds the GET response body (spec §4.F).
func (r *Router) Introspect() []RouteDescriptor {
	out := make([]RouteDescriptor, 0, len(r.names))
	for _, name := range r.names {
		out = append(out, RouteDescriptor{Name: name, Schema: r.routes[name].Schema.descriptor()})
	}
	return out
}

// Presign runs the presign algorithm from spec §4.F steps 1-8 for one
// route. Per-file failures are returned inside results, never as err; err
// is reserved for request-fatal conditions (unknown route, middleware
// rejection).
func (r *Router) Presign(reqCtx *RequestContext, routeName string, files []FileDescriptor) ([]PresignResult, *Error) {
	route, ok := r.GetRoute(routeName)
	if !ok {
		return nil, newError(ErrNotFound, "route not found")
	}

	if r.limiter != nil && !r.limiter.Allow(rateLimitKey(reqCtx)) {
		return nil, newError(ErrRateLimited, "too many uploads, try again later")
	}

	if r.cfg.Security.RequireAuth && !hasAuthorizationHeader(reqCtx) {
		return nil, newError(ErrAuthError, "authorization required")
	}

	metadata, authErr := r.runMiddleware(reqCtx, route, files)
	if authErr != nil {
		return nil, authErr
	}

	// ArraySchema enforces its count limit across the whole batch, which
	// only the router can see (each schema.validateFile call only sees one
	// file at a time); check it before doing any per-file work so an
	// oversized batch never issues presigned URLs (spec §4.D/§8 property 5,
	// scenario S3).
	if arr, ok := route.Schema.(ArraySchema); ok && len(files) > arr.maxCount {
		tooLong := &ErrorInfo{Code: "ARRAY_TOO_LONG", Message: fmt.Sprintf("at most %d files are allowed", arr.maxCount)}
		results := make([]PresignResult, len(files))
		for i, file := range files {
			results[i] = PresignResult{Success: false, File: file, Error: tooLong}
		}
		return results, nil
	}

	results := make([]PresignResult, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		i, file := i, file
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = r.presignOne(route, file, metadata)
		}()
	}
	wg.Wait()

	// onUploadStart fires in input order for deterministic observable
	// ordering, even though validation/presign above ran in parallel
	// (spec §5, "hooks... are awaited in input order").
	for i, file := range files {
		if !results[i].Success {
			continue
		}
		r.fireStart(route, reqCtx, file, results[i].Key, metadata)
	}

	return results, nil
}

func (r *Router) presignOne(route Route, file FileDescriptor, metadata map[string]string) PresignResult {
	if verr := route.Schema.validateFile(file, r.cfg.Defaults); verr != nil {
		return PresignResult{Success: false, File: file, Error: &ErrorInfo{Code: Code(verr.Code), Message: verr.Message, Details: fieldDetails(verr.Field)}}
	}

	key, keyErr := composeKey(r.cfg.Paths, routePathOverride(route.Schema), PathContext{
		File: file, Metadata: metadata, RouteName: route.Name,
	})
	if keyErr != nil {
		return PresignResult{Success: false, File: file, Error: &ErrorInfo{Code: keyErr.Code, Message: keyErr.Message}}
	}

	upload, err := storage.GeneratePresignedUploadURL(r.storageClient, storage.PresignUploadParams{
		Key:         key,
		ContentType: file.Type,
		Metadata:    metadata,
	})
	if err != nil {
		e := asError(err)
		return PresignResult{Success: false, File: file, Error: &ErrorInfo{Code: e.Code, Message: e.Message}}
	}

	return PresignResult{
		Success:      true,
		File:         file,
		PresignedURL: upload.URL,
		Key:          key,
		Metadata:     metadata,
		URL:          storage.GetFileURL(r.storageClient, key),
	}
}

// Complete runs the complete algorithm from spec §4.F.
func (r *Router) Complete(reqCtx *RequestContext, routeName string, completions []CompletionRequest) ([]CompletionResult, *Error) {
	route, ok := r.GetRoute(routeName)
	if !ok {
		return nil, newError(ErrNotFound, "route not found")
	}

	results := make([]CompletionResult, len(completions))
	for i, c := range completions {
		results[i] = r.completeOne(route, reqCtx, c)
	}
	return results, nil
}

func (r *Router) completeOne(route Route, reqCtx *RequestContext, c CompletionRequest) CompletionResult {
	if err := r.fireComplete(route, reqCtx, c); err != nil {
		logger.FromContext(reqCtx.Context).Error().Err(err).
			Str("route", route.Name).Str("action", "complete").Str("key", c.Key).
			Msg("s3up: onUploadComplete hook failed, converting to onUploadError")
		r.fireError(route, reqCtx, c, err)
		return CompletionResult{Success: false, File: c.File, Key: c.Key, Metadata: c.Metadata, Error: &ErrorInfo{Code: ErrHookError, Message: err.Error()}}
	}

	download, err := storage.GeneratePresignedDownloadURL(r.storageClient, c.Key, 0)
	if err != nil {
		e := asError(err)
		return CompletionResult{Success: false, File: c.File, Key: c.Key, Metadata: c.Metadata, Error: &ErrorInfo{Code: e.Code, Message: e.Message}}
	}

	return CompletionResult{
		Success:      true,
		File:         c.File,
		Key:          c.Key,
		URL:          storage.GetFileURL(r.storageClient, c.Key),
		PresignedURL: download.URL,
		Metadata:     c.Metadata,
	}
}

func (r *Router) runMiddleware(reqCtx *RequestContext, route Route, files []FileDescriptor) (map[string]string, *Error) {
	metadata := make(map[string]string, len(r.cfg.Defaults.Metadata))
	for k, v := range r.cfg.Defaults.Metadata {
		metadata[k] = v
	}
	reqCtx.Files = files
	reqCtx.Metadata = metadata

	for _, mw := range route.Schema.meta().middleware {
		extra, err := mw(reqCtx)
		if err != nil {
			return nil, wrapError(ErrAuthError, err.Error(), err)
		}
		for k, v := range extra {
			metadata[k] = v
		}
		reqCtx.Metadata = metadata
	}
	return metadata, nil
}

// fireStart runs onUploadStart hooks. Their errors never fail the request
// (spec §4.F step 6 / §7 HookError policy) but are logged exactly once each,
// carrying route/action/key fields, the way errorhandler.HandleError tags
// request_id/error_code.
func (r *Router) fireStart(route Route, reqCtx *RequestContext, file FileDescriptor, key string, metadata map[string]string) {
	ctx := cloneReqCtx(reqCtx, &file, metadata)
	log := logger.FromContext(reqCtx.Context)
	for _, h := range r.cfg.Hooks.OnUploadStart {
		if err := h(ctx); err != nil {
			log.Error().Err(err).Str("route", route.Name).Str("action", "start").Str("key", key).Msg("s3up: onUploadStart hook failed")
		}
	}
	for _, h := range route.Schema.meta().onStart {
		if err := h(ctx); err != nil {
			log.Error().Err(err).Str("route", route.Name).Str("action", "start").Str("key", key).Msg("s3up: onUploadStart hook failed")
		}
	}
}

func (r *Router) fireComplete(route Route, reqCtx *RequestContext, c CompletionRequest) error {
	ctx := cloneReqCtx(reqCtx, &c.File, c.Metadata)
	for _, h := range r.cfg.Hooks.OnUploadComplete {
		if err := h(ctx); err != nil {
			return err
		}
	}
	for _, h := range route.Schema.meta().onComplete {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}

// fireError notifies onUploadError hooks of an already-surfaced completion
// failure (cause, already logged by the caller). A hook's own error is
// best-effort notification failing further, so it's logged but never
// propagated.
func (r *Router) fireError(route Route, reqCtx *RequestContext, c CompletionRequest, cause error) {
	ctx := cloneReqCtx(reqCtx, &c.File, c.Metadata)
	log := logger.FromContext(reqCtx.Context)
	for _, h := range r.cfg.Hooks.OnUploadError {
		if err := h(ctx); err != nil {
			log.Error().Err(err).Str("route", route.Name).Str("action", "error").Str("key", c.Key).Msg("s3up: onUploadError hook failed")
		}
	}
	for _, h := range route.Schema.meta().onError {
		if err := h(ctx); err != nil {
			log.Error().Err(err).Str("route", route.Name).Str("action", "error").Str("key", c.Key).Msg("s3up: onUploadError hook failed")
		}
	}
}

func cloneReqCtx(base *RequestContext, file *FileDescriptor, metadata map[string]string) *RequestContext {
	return &RequestContext{Context: base.Context, Request: base.Request, File: file, Metadata: metadata}
}

func routePathOverride(s Schema) *RoutePaths {
	return s.meta().pathOverride
}

// rateLimitKey keys the limiter by the request's remote address, falling
// back to "unknown" when no *http.Request is available (e.g. direct Go
// callers bypassing the HTTP handlers).
func rateLimitKey(ctx *RequestContext) string {
	if ctx.Request == nil {
		return "unknown"
	}
	return ctx.Request.RemoteAddr
}

// hasAuthorizationHeader implements security.requireAuth: a config-wide gate
// that a request carry some Authorization header, independent of (and
// checked before) any route-level auth middleware.
func hasAuthorizationHeader(ctx *RequestContext) bool {
	return ctx.Request != nil && ctx.Request.Header.Get("Authorization") != ""
}

func fieldDetails(field string) map[string]string {
	if field == "" {
		return nil
	}
	return map[string]string{"field": field}
}
