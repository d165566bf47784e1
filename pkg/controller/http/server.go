package http

import (
	"context"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/goerr/v2"
	"github.com/m-mizutani/imgharvest/pkg/domain/interfaces"
)

// DefaultFormMaxImages is the upper bound of the count slider on the web form
const DefaultFormMaxImages = 20

// config holds internal HTTP server configuration
type config struct {
	addr      string
	storage   interfaces.ImageStorage
	maxImages int
	jobs      *JobStore
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithStorage enables serving stored images under /images/
func WithStorage(storage interfaces.ImageStorage) Option {
	return func(c *config) {
		c.storage = storage
	}
}

// WithMaxImages sets the maximum count offered by the web form
func WithMaxImages(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxImages = n
		}
	}
}

// WithJobStore replaces the in-memory batch job store
func WithJobStore(jobs *JobStore) Option {
	return func(c *config) {
		c.jobs = jobs
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	uc interfaces.DownloadUseCase,
	opts ...Option,
) (*Server, error) {
	// Default configuration
	cfg := &config{
		addr:      "localhost:8080",
		maxImages: DefaultFormMaxImages,
	}

	// Apply options
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.jobs == nil {
		cfg.jobs = NewJobStore(DefaultJobCapacity)
	}

	pages, err := parseTemplates()
	if err != nil {
		return nil, goerr.Wrap(err, "failed to load page templates")
	}

	h := &handler{
		uc:        uc,
		storage:   cfg.storage,
		maxImages: cfg.maxImages,
		jobs:      cfg.jobs,
		pages:     pages,
	}

	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(LoggingMiddleware(ctx))
	if sentry.CurrentHub().Client() != nil {
		router.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	router.Use(middleware.Recoverer)

	// Health check
	router.Get("/health", handleHealth)

	// Web form
	router.Get("/", h.handleIndex)
	router.Post("/download", h.handleDownload)
	router.Post("/batch", h.handleBatchUpload)
	router.Get("/batch/{id}", h.handleBatchStatus)
	router.Post("/clear", h.handleClear)
	router.Get("/images/*", h.handleImage)

	// JSON API
	router.Route("/api", func(r chi.Router) {
		r.Post("/download", h.apiDownload)
		r.Post("/batch", h.apiBatch)
		r.Get("/batch/{id}", h.apiBatchStatus)
		r.Post("/clear", h.apiClear)
		r.Get("/history", h.apiHistory)
	})

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
	}

	return server, nil
}
