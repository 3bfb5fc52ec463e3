package handler

import (
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
)

type RouterOptions struct {
	// Static is served for GET and HEAD requests no API route claims.
	Static      fs.FS
	CORSOrigins []string
	TrustProxy  bool
	Limiter     *RateLimiter
}

// NewRouter assembles the API routes, the frontend and the middleware chain.
func NewRouter(h *HTTPHandler, opts RouterOptions) http.Handler {
	// Match on the escaped path so encoded slashes stay inside one variable.
	r := mux.NewRouter().UseEncodedPath()
	h.RegisterRoutes(r)

	fallback := http.HandlerFunc(NotFound)
	if opts.Static != nil {
		fallback = staticOrNotFound(opts.Static)
	}
	r.NotFoundHandler = fallback
	// Unsupported methods on known paths are reported as unknown routes.
	r.MethodNotAllowedHandler = http.HandlerFunc(NotFound)

	var next http.Handler = r
	if opts.Limiter != nil {
		next = opts.Limiter.Middleware(next)
	}
	if opts.TrustProxy {
		next = handlers.ProxyHeaders(next)
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	next = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions}),
		handlers.AllowedHeaders([]string{"Content-Type", "Accept", headerRequestID}),
		handlers.ExposedHeaders([]string{headerRequestID, "RateLimit-Limit", "RateLimit-Remaining", "RateLimit-Reset"}),
	)(next)
	next = WithAccessLog(next)
	next = WithRequestID(next)
	return handlers.RecoveryHandler(handlers.RecoveryLogger(recoveryLogger{}))(next)
}

func staticOrNotFound(static fs.FS) http.HandlerFunc {
	files := http.FileServer(http.FS(static))
	return func(w http.ResponseWriter, r *http.Request) {
		if (r.Method == http.MethodGet || r.Method == http.MethodHead) && hasFile(static, r.URL.Path) {
			files.ServeHTTP(w, r)
			return
		}
		NotFound(w, r)
	}
}

func hasFile(static fs.FS, urlPath string) bool {
	name := strings.TrimPrefix(path.Clean("/"+urlPath), "/")
	if name == "" {
		name = "index.html"
	}
	info, err := fs.Stat(static, name)
	if err != nil {
		return false
	}
	if info.IsDir() {
		_, err = fs.Stat(static, path.Join(name, "index.html"))
		return err == nil
	}
	return true
}
