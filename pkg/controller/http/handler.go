package http

import (
	"embed"
	"html/template"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"

	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
	"github.com/m-mizutani/imgharvest/pkg/domain/model"
	"github.com/m-mizutani/imgharvest/pkg/domain/types"
	"github.com/m-mizutani/imgharvest/pkg/utils/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	defaultFormCount = 5
	historyOnIndex   = 10
	// maxUploadSize bounds the batch table accepted from the web form and the API
	maxUploadSize = 10 << 20
)

type handler struct {
	uc        interfaces.DownloadUseCase
	storage   interfaces.ImageStorage
	maxImages int
	jobs      *JobStore
	pages     map[string]*template.Template
}

// pageData is shared by every HTML page
type pageData struct {
	Version   string
	Refresh   bool
	Status    string
	Query     string
	Count     int
	MaxImages int
	Report    *model.Report
	History   []*model.RunRecord
	Job       *BatchJob
}

func parseTemplates() (map[string]*template.Template, error) {
	funcs := template.FuncMap{"imageURL": imageURL}

	pages := make(map[string]*template.Template)
	for _, name := range []string{"index.html", "batch.html"} {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to parse template", goerr.V("name", name))
		}
		pages[name] = tmpl
	}
	return pages, nil
}

// imageURL maps a storage key to its /images/ URL
func imageURL(key string) string {
	segments := strings.Split(key, "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}
	return "/images/" + strings.Join(segments, "/")
}

func (h *handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data *pageData) {
	data.Version = types.Version
	if data.MaxImages == 0 {
		data.MaxImages = h.maxImages
	}
	if data.Count == 0 {
		data.Count = min(defaultFormCount, h.maxImages)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := h.pages[name].ExecuteTemplate(w, name, data); err != nil {
		logging.From(r.Context()).Error("Failed to render page", "page", name, "error", err)
	}
}

// recentHistory never fails the page; history is informational
func (h *handler) recentHistory(r *http.Request) []*model.RunRecord {
	records, err := h.uc.History(r.Context(), historyOnIndex)
	if err != nil {
		logging.From(r.Context()).Warn("Failed to load run history", "error", err)
		return nil
	}
	return records
}

// imageContentTypes lists the raster formats served inline. Anything else,
// including SVG, is sent as an opaque download.
var imageContentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".bmp":  "image/bmp",
	".avif": "image/avif",
	".ico":  "image/x-icon",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
}

func imageContentType(key string) string {
	if ct, ok := imageContentTypes[strings.ToLower(path.Ext(key))]; ok {
		return ct
	}
	return "application/octet-stream"
}

func (h *handler) handleImage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.storage == nil {
		http.NotFound(w, r)
		return
	}

	key := strings.TrimPrefix(r.URL.Path, "/images/")
	if key == "" || strings.Contains(key, "..") {
		http.Error(w, "invalid image path", http.StatusBadRequest)
		return
	}

	rc, err := h.storage.Open(ctx, key)
	if err != nil {
		logging.From(ctx).Debug("Image not found", "key", key, "error", err)
		http.NotFound(w, r)
		return
	}
	defer rc.Close()

	w.Header().Set("Content-Type", imageContentType(key))
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	w.Header().Set("Cache-Control", "no-cache")
	if _, err := io.Copy(w, rc); err != nil {
		logging.From(ctx).Warn("Failed to send image", "key", key, "error", err)
	}
}
