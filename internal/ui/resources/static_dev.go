//go:build dev

package resources

import (
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
)

// getStaticDir derives the absolute path to the static directory
// relative to this source file, regardless of where the binary is run from.
func getStaticDir() string {
	// runtime.Caller(0) returns the path to this specific file (static_dev.go)
	_, filename, _, ok := runtime.Caller(0)
	if !ok {
		// Fallback if something goes wrong (rare)
		return StaticDirectoryPath
	}
	// static_dev.go is in internal/ui/resources/, static/ is a sibling directory
	return filepath.Join(filepath.Dir(filename), "static")
}

// Handler returns an HTTP handler for serving static files.
// Built with -tags dev, edits to viewer.js show up without a rebuild.
func Handler() http.Handler {
	staticDir := getStaticDir()
	slog.Debug("viewer assets served from filesystem", "path", staticDir)

	fileServer := http.FileServer(http.FS(os.DirFS(staticDir)))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-cache")
		http.StripPrefix("/static/", fileServer).ServeHTTP(w, r)
	})
}
