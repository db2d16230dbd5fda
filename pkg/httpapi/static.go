package httpapi

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// contentTypeByExt mirrors set_content_type_from_file_ext's extension
// table; anything not listed falls back to text/plain.
var contentTypeByExt = map[string]string{
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".ico":  "image/x-icon",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".csv":  "text/csv",
}

// handleStatic serves files out of webRoot, grounded on
// frontend_get_handler but reading whole files in byte mode (os.ReadFile)
// instead of line-oriented text-mode reads, so binary assets like PNGs
// survive the round trip.
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	reqPath := r.URL.Path
	if strings.HasSuffix(reqPath, "/") {
		reqPath += "index.html"
	}

	// filepath.Clean collapses ".." before joining, so the served file can
	// never escape webRoot.
	cleaned := filepath.Clean("/" + reqPath)
	fullPath := filepath.Join(s.webRoot, cleaned)

	data, err := os.ReadFile(fullPath)
	if err != nil {
		http.Error(w, "Not found", http.StatusNotFound)
		return
	}

	contentType, ok := contentTypeByExt[strings.ToLower(filepath.Ext(fullPath))]
	if !ok {
		contentType = "text/plain"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
