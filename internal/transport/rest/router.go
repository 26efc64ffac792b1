package rest

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/frahmantamala/expense-client/internal/transport/middleware"
	"github.com/go-chi/chi"
)

// IndexFile is the bundle's entry document, served for every client-side route.
const IndexFile = "index.html"

// Bundle is a prebuilt single-page application on disk.
type Bundle struct {
	Dir string
}

// OpenBundle fails unless dir is a directory holding an entry document.
func OpenBundle(dir string) (*Bundle, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve asset dir %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("asset dir %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("asset dir %q is not a directory", dir)
	}
	if err := checkIndex(abs); err != nil {
		return nil, err
	}
	return &Bundle{Dir: abs}, nil
}

func checkIndex(dir string) error {
	info, err := os.Stat(filepath.Join(dir, IndexFile))
	if err != nil {
		return fmt.Errorf("asset dir %q has no %s: %w", dir, IndexFile, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s in %q is a directory", IndexFile, dir)
	}
	return nil
}

// ServeHTTP serves the file at the request path, or the entry document when
// the path names no regular file.
func (b *Bundle) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	clean := path.Clean("/" + r.URL.Path)
	name := filepath.Join(b.Dir, filepath.FromSlash(strings.TrimPrefix(clean, "/")))

	if info, err := os.Stat(name); err == nil && !info.IsDir() {
		http.ServeFile(w, r, name)
		return
	}

	w.Header().Set("Cache-Control", "no-cache")
	http.ServeFile(w, r, filepath.Join(b.Dir, IndexFile))
}

// NewStaticRouter builds the static host: health endpoint, request logging,
// and the bundle with client-side route fallback.
func NewStaticRouter(bundle *Bundle, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.LoggingMiddleware(logger))
	router.Use(middleware.RecoveryMiddleware(logger))

	health := NewHealthHandler(bundle)
	router.Get("/healthz", health.healthCheckHandler)
	router.Get("/ping", health.pingHandler)

	router.Method(http.MethodGet, "/*", bundle)
	router.Method(http.MethodHead, "/*", bundle)

	return router
}
