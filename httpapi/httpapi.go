// Package httpapi exposes the dataset directory over HTTP.
package httpapi

import (
	"context"
	"errors"
	"io"
	"slices"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/compress"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	"github.com/meikuraledutech/datasets"
	"github.com/meikuraledutech/datasets/auth"
	"github.com/meikuraledutech/datasets/objstore"
	"github.com/sirupsen/logrus"
)

// ObjectStore is the subset of objstore.Store used by the handlers.
type ObjectStore interface {
	Put(ctx context.Context, key string, content []byte, contentType string) error
	PresignedURL(ctx context.Context, key string) (string, error)
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Ready(ctx context.Context) error
}

type Options struct {
	Store datasets.Store
	// Objects may be nil, in which case manifests are not kept and
	// download URLs are unavailable.
	Objects          ObjectStore
	Validator        *auth.Validator
	AdminRole        string
	DefaultNetwork   string
	MaxManifestBytes int
	StrictManifests  bool
	// CORSOrigins defaults to allowing any origin without credentials.
	CORSOrigins []string
	// RateLimitMax requests per RateLimitWindow per client IP; 0 disables the limiter.
	RateLimitMax    int
	RateLimitWindow time.Duration
	Logger          logrus.FieldLogger
}

type handler struct {
	Options
	log logrus.FieldLogger
}

// New builds the fiber app with every route registered.
func New(opts Options) *fiber.App {
	if opts.DefaultNetwork == "" {
		opts.DefaultNetwork = "mainnet"
	}
	if opts.MaxManifestBytes <= 0 {
		opts.MaxManifestBytes = 10 << 20
	}
	if opts.RateLimitWindow <= 0 {
		opts.RateLimitWindow = 15 * time.Minute
	}
	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	h := &handler{Options: opts, log: log}

	app := fiber.New(fiber.Config{
		// multipart framing on top of the manifest itself
		BodyLimit:    opts.MaxManifestBytes + 64<<10,
		ErrorHandler: h.errorHandler,
	})
	app.Use(helmet.New())
	app.Use(corsMiddleware(opts.CORSOrigins))
	if opts.RateLimitMax > 0 {
		app.Use(limiter.New(limiter.Config{
			Max:        opts.RateLimitMax,
			Expiration: opts.RateLimitWindow,
			LimitReached: func(c fiber.Ctx) error {
				return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "too many requests"})
			},
		}))
	}
	app.Use(h.accessLog)
	app.Use(compress.New())

	app.Get("/health", h.health)
	app.Get("/api/auth/me", auth.Optional(opts.Validator), h.me)

	// ── Public ────────────────────────────────────────────────────────
	public := app.Group("/api/datasets")
	public.Get("/", h.listPublic)
	public.Get("/:id", h.getPublic)
	public.Get("/:id/files", h.fileURL)
	public.Get("/:id/manifest", h.manifestURL)

	// ── Admin ─────────────────────────────────────────────────────────
	admin := app.Group("/api/admin", auth.RequireRole(opts.Validator, opts.AdminRole))
	admin.Post("/manifests", h.uploadManifest)
	admin.Get("/datasets", h.listAdmin)
	admin.Get("/datasets/:id", h.getAdmin)
	admin.Put("/datasets/:id", h.updateDataset)
	admin.Post("/datasets/:id/approve", h.setStatus(datasets.StatusApproved))
	admin.Post("/datasets/:id/reject", h.setStatus(datasets.StatusRejected))
	admin.Delete("/datasets/:id", h.deleteDataset)

	return app
}

func corsMiddleware(origins []string) fiber.Handler {
	if len(origins) == 0 || slices.Contains(origins, "*") {
		return cors.New()
	}
	return cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowCredentials: true,
	})
}

func (h *handler) accessLog(c fiber.Ctx) error {
	start := time.Now()
	err := c.Next()

	status := c.Response().StatusCode()
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	} else if err != nil {
		status = fiber.StatusInternalServerError
	}

	h.log.WithFields(logrus.Fields{
		"method":  c.Method(),
		"path":    c.Path(),
		"status":  status,
		"latency": time.Since(start).String(),
	}).Info("request")
	return err
}

func (h *handler) errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		code = fe.Code
	}
	if code >= fiber.StatusInternalServerError {
		h.log.WithError(err).Error("unhandled error")
	}
	return c.Status(code).JSON(fiber.Map{"error": err.Error()})
}

// fail maps a store or pipeline error onto an HTTP response.
func (h *handler) fail(c fiber.Ctx, err error) error {
	var ve *datasets.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error(), "details": ve.Problems})
	case datasets.IsClientError(err), errors.Is(err, datasets.ErrInvalidStatus):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, datasets.ErrDatasetNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "dataset not found"})
	case errors.Is(err, datasets.ErrDuplicateDataset):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "dataset already exists"})
	case errors.Is(err, objstore.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "stored object not found"})
	}
	h.log.WithError(err).WithField("path", c.Path()).Error("request failed")
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
}

func ok(c fiber.Ctx, status int, data any) error {
	return c.Status(status).JSON(fiber.Map{"success": true, "data": data})
}

// me returns the caller's identity, or 401 for anonymous requests.
func (h *handler) me(c fiber.Ctx) error {
	p := auth.PrincipalFrom(c)
	if p == nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "not authenticated"})
	}
	return ok(c, fiber.StatusOK, fiber.Map{"user": p})
}

func (h *handler) health(c fiber.Ctx) error {
	services := fiber.Map{"database": "connected", "storage": "disabled"}
	status := "healthy"

	if _, err := h.Store.ListDatasets(c.Context(), datasets.ListQuery{Limit: 1}); err != nil {
		h.log.WithError(err).Warn("database health check failed")
		services["database"] = "unavailable"
		status = "degraded"
	}
	if h.Objects != nil {
		services["storage"] = "connected"
		if err := h.Objects.Ready(c.Context()); err != nil {
			h.log.WithError(err).Warn("storage health check failed")
			services["storage"] = "unavailable"
			status = "degraded"
		}
	}

	code := fiber.StatusOK
	if status != "healthy" {
		code = fiber.StatusServiceUnavailable
	}
	return c.Status(code).JSON(fiber.Map{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"services":  services,
	})
}
