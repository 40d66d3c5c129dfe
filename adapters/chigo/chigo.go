// Package chigo is the chi Framework Adapter (spec §4.H): it mounts an
// s3up Router's Universal Handlers onto a chi.Router at one path,
// dispatching by HTTP method the way chi already does natively — no
// Request/Response translation is needed since s3up.Handlers already
// speaks net/http.
package chigo

import (
	"github.com/go-chi/chi/v5"

	"github.com/s3up-go/s3up"
)

// Mount attaches an s3up router's GET/POST handlers to r at path.
func Mount(r chi.Router, path string, handlers s3up.Handlers) {
	r.Get(path, handlers.GET)
	r.Post(path, handlers.POST)
}
