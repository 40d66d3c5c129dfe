package s3up

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime/debug"

	"github.com/s3up-go/s3up/internal/middleware"
	"github.com/s3up-go/s3up/internal/pkg/logger"
)

// Handlers is the {GET, POST} dispatcher from spec §4.G, built by
// Router.Handlers and capturing the router by reference. It never reads
// any package-level state.
type Handlers struct {
	router *Router
	get    http.HandlerFunc
	post   http.HandlerFunc
}

// Handlers returns the Universal Handlers pair bound to this router. Both
// are wrapped in a CORS policy built from security.allowedOrigins (spec
// §4.G, "sets Content-Type: application/json and (optionally) CORS headers
// if security.allowedOrigins matches Origin").
func (r *Router) Handlers() Handlers {
	h := Handlers{router: r}
	cors := middleware.CORSHandler(r.cfg.Security.AllowedOrigins)
	h.get = cors(http.HandlerFunc(h.rawGET)).ServeHTTP
	h.post = cors(http.HandlerFunc(h.rawPOST)).ServeHTTP
	return h
}

// GET handles introspection requests: GET /<mount> (spec §4.F, §4.G).
func (h Handlers) GET(w http.ResponseWriter, req *http.Request) { h.get(w, req) }

// POST handles both ?action=presign and ?action=complete, dispatching on
// the query params per spec §4.G ("Reads URL(request.url) to extract route
// and action query params").
func (h Handlers) POST(w http.ResponseWriter, req *http.Request) { h.post(w, req) }

func (h Handlers) rawGET(w http.ResponseWriter, req *http.Request) {
	defer recoverPanic(w, req)
	writeJSON(req.Context(), w, http.StatusOK, Response{Success: true, Data: map[string]any{"routes": h.router.Introspect()}})
}

func (h Handlers) rawPOST(w http.ResponseWriter, req *http.Request) {
	defer recoverPanic(w, req)

	routeName := req.URL.Query().Get("route")
	action := req.URL.Query().Get("action")

	if ct := req.Header.Get("Content-Type"); ct != "" && !isJSONContentType(ct) {
		writeError(req.Context(), w, http.StatusBadRequest, newError(ErrValidationError, "request body must be application/json"))
		return
	}

	switch action {
	case "presign":
		h.handlePresign(w, req, routeName)
	case "complete":
		h.handleComplete(w, req, routeName)
	default:
		writeError(req.Context(), w, http.StatusBadRequest, newError(ErrValidationError, "unknown or missing action"))
	}
}

func (h Handlers) handlePresign(w http.ResponseWriter, req *http.Request, routeName string) {
	var body PresignRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(req.Context(), w, http.StatusBadRequest, wrapError(ErrValidationError, "malformed JSON body", err))
		return
	}

	reqCtx := &RequestContext{Context: req.Context(), Request: req}
	results, err := h.router.Presign(reqCtx, routeName, body.Files)
	if err != nil {
		writeError(req.Context(), w, err.Status(), err)
		return
	}

	writeJSON(req.Context(), w, http.StatusOK, Response{Success: true, Data: map[string]any{"results": results}})
}

func (h Handlers) handleComplete(w http.ResponseWriter, req *http.Request, routeName string) {
	var body CompleteRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(req.Context(), w, http.StatusBadRequest, wrapError(ErrValidationError, "malformed JSON body", err))
		return
	}

	reqCtx := &RequestContext{Context: req.Context(), Request: req}
	results, err := h.router.Complete(reqCtx, routeName, body.Completions)
	if err != nil {
		writeError(req.Context(), w, err.Status(), err)
		return
	}

	writeJSON(req.Context(), w, http.StatusOK, Response{Success: true, Data: map[string]any{"results": results}})
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.FromContext(ctx).Error().Err(err).Msg("s3up: failed to encode response")
	}
}

func writeError(ctx context.Context, w http.ResponseWriter, status int, err *Error) {
	info := err.Info()
	writeJSON(ctx, w, status, Response{Success: false, Error: &info})
}

func isJSONContentType(ct string) bool {
	for i, c := range ct {
		if c == ';' {
			ct = ct[:i]
			break
		}
	}
	return ct == "application/json"
}

// recoverPanic mirrors the teacher's middleware.Recover, inlined here since
// Handlers.GET/POST are plain functions rather than an http.Handler chain.
func recoverPanic(w http.ResponseWriter, req *http.Request) {
	if rec := recover(); rec != nil {
		logger.FromContext(req.Context()).Error().
			Interface("error", rec).
			Str("stack", string(debug.Stack())).
			Str("method", req.Method).
			Str("path", req.URL.Path).
			Msg("s3up: panic recovered")
		writeError(req.Context(), w, http.StatusInternalServerError, newError(ErrProviderError, "internal error"))
	}
}
