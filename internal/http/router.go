// Package httpapi wires the HTTP transport (Gin) to application services,
// middleware, and route handlers. It centralizes cross-cutting concerns such
// as tracing, correlation IDs, logging/redaction, panic recovery, metrics,
// CORS, security headers, idempotency, and rate limiting.
//
// Design goals:
//   - Put observability first (OTel + Prometheus)
//   - Safe-by-default middleware ordering (RequestID → logging → recovery)
//   - All outbound clients injectable so tests can point them at fakes
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"gorm.io/gorm"

	"github.com/tbourn/go-excursion-backend/internal/config"
	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/gateway/yookassa"
	"github.com/tbourn/go-excursion-backend/internal/http/handlers"
	"github.com/tbourn/go-excursion-backend/internal/http/middleware"
	"github.com/tbourn/go-excursion-backend/internal/notify/telegram"
	"github.com/tbourn/go-excursion-backend/internal/repo"
	"github.com/tbourn/go-excursion-backend/internal/services"
	"github.com/tbourn/go-excursion-backend/internal/storage"
)

// maxJSONBody caps non-upload request bodies.
const maxJSONBody = 1 << 20

// catalogRepoShim adapts the repository free functions to the
// services.ExcursionRepo and services.CategoryRepo interfaces.
type catalogRepoShim struct{}

func (catalogRepoShim) ListExcursionsPage(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.Excursion, error) {
	return repo.ListExcursionsPage(ctx, db, offset, limit)
}

func (catalogRepoShim) CountExcursions(ctx context.Context, db *gorm.DB) (int64, error) {
	return repo.CountExcursions(ctx, db)
}

func (catalogRepoShim) GetExcursion(ctx context.Context, db *gorm.DB, id uint) (*domain.Excursion, error) {
	return repo.GetExcursion(ctx, db, id)
}

func (catalogRepoShim) CreateExcursion(ctx context.Context, db *gorm.DB, e *domain.Excursion) error {
	return repo.CreateExcursion(ctx, db, e)
}

func (catalogRepoShim) UpdateExcursion(ctx context.Context, db *gorm.DB, id uint, fields map[string]any, events []domain.ExcursionEvent, replace bool) error {
	return repo.UpdateExcursion(ctx, db, id, fields, events, replace)
}

func (catalogRepoShim) DeleteExcursion(ctx context.Context, db *gorm.DB, id uint) (*domain.Excursion, error) {
	return repo.DeleteExcursion(ctx, db, id)
}

func (catalogRepoShim) ExcursionsStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.ExcursionsStats(ctx, db)
}

func (catalogRepoShim) ListCategories(ctx context.Context, db *gorm.DB) ([]domain.Category, error) {
	return repo.ListCategories(ctx, db)
}

func (catalogRepoShim) GetCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	return repo.GetCategory(ctx, db, id)
}

func (catalogRepoShim) CreateCategory(ctx context.Context, db *gorm.DB, c *domain.Category) error {
	return repo.CreateCategory(ctx, db, c)
}

func (catalogRepoShim) UpdateCategory(ctx context.Context, db *gorm.DB, id uint, fields map[string]any) error {
	return repo.UpdateCategory(ctx, db, id, fields)
}

func (catalogRepoShim) DeleteCategory(ctx context.Context, db *gorm.DB, id uint) (*domain.Category, error) {
	return repo.DeleteCategory(ctx, db, id)
}

func (catalogRepoShim) CategoriesStats(ctx context.Context, db *gorm.DB) (int64, *time.Time, error) {
	return repo.CategoriesStats(ctx, db)
}

// userRepoShim adapts repo user functions to services.UserRepo.
type userRepoShim struct{}

func (userRepoShim) CreateUser(ctx context.Context, db *gorm.DB, login, hash string) (*domain.User, error) {
	return repo.CreateUser(ctx, db, login, hash)
}

func (userRepoShim) GetUserByLogin(ctx context.Context, db *gorm.DB, login string) (*domain.User, error) {
	return repo.GetUserByLogin(ctx, db, login)
}

// feedbackRepoShim adapts repo feedback functions to services.FeedbackRepo.
type feedbackRepoShim struct{}

func (feedbackRepoShim) CreateFeedback(ctx context.Context, db *gorm.DB, name, phone, comment string) (*domain.Feedback, error) {
	return repo.CreateFeedback(ctx, db, name, phone, comment)
}

func (feedbackRepoShim) MarkFeedbackDelivered(ctx context.Context, db *gorm.DB, id string) error {
	return repo.MarkFeedbackDelivered(ctx, db, id)
}

// idempotencyStore binds the idempotency repo to db. A missing record is
// reported as (nil, nil).
type idempotencyStore struct{ db *gorm.DB }

func (s idempotencyStore) Get(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error) {
	rec, err := repo.GetIdempotency(ctx, s.db, scope, key, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, nil
	}
	return rec, err
}

func (s idempotencyStore) Create(ctx context.Context, scope, key, fp, url string, status int, ttl time.Duration) (*domain.Idempotency, error) {
	return repo.CreateIdempotency(ctx, s.db, scope, key, fp, url, status, ttl)
}

// Clients are the outbound integrations. Nil fields are built from cfg.
type Clients struct {
	Gateway  services.PaymentGateway
	Notifier services.Notifier
	Images   storage.Storage
}

func (cl Clients) withDefaults(cfg config.Config) Clients {
	if cl.Gateway == nil {
		cl.Gateway = yookassa.New(yookassa.Config{
			ShopID:    cfg.Payment.ShopID,
			SecretKey: cfg.Payment.SecretKey,
			BaseURL:   cfg.Payment.APIURL,
			Timeout:   cfg.Payment.Timeout,
		})
	}
	if cl.Notifier == nil {
		cl.Notifier = telegram.New(telegram.Config{
			BotToken: cfg.Telegram.BotToken,
			ChatID:   cfg.Telegram.ChatID,
			APIURL:   cfg.Telegram.APIURL,
			Timeout:  cfg.Telegram.Timeout,
		})
	}
	if cl.Images == nil {
		cl.Images = storage.NewLocal(cfg.Uploads.Dir, cfg.Uploads.URLPrefix, cfg.Uploads.MaxBytes)
	}
	return cl
}

// RegisterRoutes attaches all middleware and HTTP endpoints to the given Gin
// engine and mounts the public API under cfg.APIBasePath.
//
// Middleware order matters:
//  1. OpenTelemetry: trace everything
//  2. RequestID: generate/propagate correlation id
//  3. Access logger (redacting unless LOG_REDACT=false)
//  4. Recovery: capture panics after logger
//  5. Body size limiter (JSON vs multipart)
//  6. Metrics
//  7. Idempotency validator (before rate limiter to allow bypass on replay)
//  8. Global rate limiter (per staff user/IP, bypass on replay)
//  9. CORS, security headers, gzip
//
// The strict per-route limiter, staff auth and no-store headers are attached
// to individual routes.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg config.Config, cl Clients) {
	r.HandleMethodNotAllowed = true
	cl = cl.withDefaults(cfg)

	// 1) Trace all HTTP requests
	r.Use(otelgin.Middleware(cfg.OTEL.ServiceName))

	// 2) Correlate requests and logs
	r.Use(middleware.RequestID())

	// 3) Structured access logs
	if cfg.LogRedact {
		r.Use(middleware.RedactingLogger(middleware.RedactOptions{
			MaskHeaders: []string{middleware.HeaderIdempotencyKey},
		}))
	} else {
		r.Use(middleware.Logger())
	}

	// 4) Panic recovery to JSON 500 (with request id)
	r.Use(middleware.Recovery())

	// 5) Body size limit; uploads get the configured image size plus form overhead
	r.Use(limitBody(maxJSONBody, cfg.Uploads.MaxBytes+maxJSONBody))

	// 6) Prometheus metrics and /metrics endpoint
	r.Use(middleware.Metrics())
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// 7) Idempotency validation (before rate limiting)
	idem := idempotencyStore{db: db}
	r.Use(middleware.IdempotencyValidator(
		middleware.IdempotencyOptions{MaxLen: 200},
		func(ctx context.Context, scope, key string, now time.Time) (bool, error) {
			rec, err := idem.Get(ctx, scope, key, now)
			return rec != nil, err
		},
	))

	// 8) Token-bucket rate limiter per user/IP
	rl := middleware.NewRateLimiter(cfg.RateRPS, cfg.RateBurst, middleware.KeyByUserOrIP())
	r.Use(rl.Handler())

	// 9) CORS, security headers, compression
	r.Use(corsMiddleware(cfg.CORS)...)
	r.Use(middleware.SecurityHeaders(middleware.SecurityOptions{
		EnableHSTS:   cfg.Security.EnableHSTS,
		HSTSMaxAge:   cfg.Security.HSTSMaxAge,
		EnablePolicy: true,
	}))
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	// Fallbacks
	r.NoRoute(func(c *gin.Context) {
		handlers.Fail(c, http.StatusNotFound, handlers.ErrCodeNotFound, "route not found", "Маршрут не найден")
	})
	r.NoMethod(func(c *gin.Context) {
		handlers.Fail(c, http.StatusMethodNotAllowed, handlers.ErrCodeMethodNotAllowed, "method not allowed", "Метод не поддерживается")
	})

	// Liveness/health
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })

	if cfg.SwaggerEnabled {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Uploaded images, embeddable by the storefront on another origin
	if prefix := cfg.Uploads.URLPrefix; prefix != "" && cfg.Uploads.Dir != "" {
		uploads := r.Group("", middleware.SecurityHeaders(middleware.SecurityOptions{ResourcePolicy: "cross-origin"}))
		uploads.Static(prefix, cfg.Uploads.Dir)
	}

	// Dependency injection: services ← repo/db/clients
	catalog := catalogRepoShim{}
	authSvc := services.NewAuthService(db, userRepoShim{}, cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	h := handlers.New(handlers.Deps{
		Excursions:  services.NewExcursionService(db, catalog, cl.Images),
		Keys:        services.NewKeyService(db, repo.Catalog{}, cfg.KeyGen.MaxAttempts),
		Categories:  services.NewCategoryService(db, catalog, cl.Images),
		Payments:    services.NewPaymentService(db, repo.Catalog{}, cl.Gateway, cfg.Payment, cfg.AppEnv),
		Auth:        authSvc,
		Feedback:    services.NewFeedbackService(db, feedbackRepoShim{}, cl.Notifier),
		Images:      cl.Images,
		Idempotency: idem,
	}, handlers.Options{
		CookieName:     cfg.Auth.CookieName,
		CookieSecure:   cfg.Auth.CookieSecure,
		TokenTTL:       cfg.Auth.TokenTTL,
		IdempotencyTTL: cfg.IdempotencyTTL,
		MaxUploadBytes: cfg.Uploads.MaxBytes,
	})

	staff := middleware.RequireStaff(authSvc, cfg.Auth.CookieName)
	strict := middleware.NewRateLimiter(cfg.RateStrictRPS, cfg.RateStrictBurst, middleware.KeyByRouteAndIP())
	strict.Name = "strict"
	limited := strict.Handler()
	noStore := middleware.SecurityHeaders(middleware.SecurityOptions{NoStore: true})

	api := groupWithPrefix(r, cfg.APIBasePath)
	{
		// Excursions
		api.GET("/excursions", h.ListExcursions)
		api.GET("/excursion/:id", h.GetExcursion)
		api.POST("/excursion", staff, h.CreateExcursion)
		api.PATCH("/excursion/:id", staff, h.UpdateExcursion)
		api.DELETE("/excursion/:id", staff, h.DeleteExcursion)
		api.PATCH("/excursion/:id/key", staff, noStore, h.GenerateKey)

		// Categories
		api.GET("/categories", h.ListCategories)
		api.POST("/categories", h.SearchCategories)
		api.GET("/category/:id", h.GetCategory)
		api.POST("/category", staff, h.CreateCategory)
		api.PATCH("/category/:id", staff, h.UpdateCategory)
		api.DELETE("/category/:id", staff, h.DeleteCategory)

		// Staff auth
		api.POST("/sign_in", limited, noStore, h.SignIn)
		api.POST("/sign_out", noStore, h.SignOut)
		api.GET("/check_auth", noStore, staff, h.CheckAuth)
		api.POST("/sign_up", noStore, staff, h.SignUp)

		// Customers
		api.POST("/feedback", limited, h.SendFeedback)
		api.POST("/payment", limited, noStore, h.CreatePayment)
		api.GET("/payment/:paymentId", noStore, h.GetPaymentStatus)
	}
}

// corsMiddleware returns the CORS posture. Without an allowlist every origin
// is accepted and credentials are never allowed; with one, the request Origin
// is echoed when listed and the staff cookie may be sent if configured.
func corsMiddleware(cc config.CORSConfig) []gin.HandlerFunc {
	methods := []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"}
	headers := []string{"Origin", "Content-Type", "Accept", "X-Request-ID", middleware.HeaderIdempotencyKey}
	expose := []string{"X-Request-ID", "Content-Length", "ETag", "Retry-After", handlers.HeaderIdempotencyReplayed}

	if len(cc.AllowedOrigins) == 0 {
		return []gin.HandlerFunc{
			// Force ACAO: * even for requests without an Origin header.
			func(c *gin.Context) {
				c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
				c.Next()
			},
			cors.New(cors.Config{
				AllowAllOrigins:  true,
				AllowMethods:     methods,
				AllowHeaders:     headers,
				ExposeHeaders:    expose,
				AllowCredentials: false, // must remain false with AllowAllOrigins
				MaxAge:           12 * time.Hour,
			}),
		}
	}

	allowed := make(map[string]struct{}, len(cc.AllowedOrigins))
	for _, o := range cc.AllowedOrigins {
		allowed[o] = struct{}{}
	}
	return []gin.HandlerFunc{
		func(c *gin.Context) {
			if origin := c.GetHeader("Origin"); origin != "" {
				if _, ok := allowed[origin]; ok {
					h := c.Writer.Header()
					h.Set("Access-Control-Allow-Origin", origin)
					h.Add("Vary", "Origin")
				}
			}
			c.Next()
		},
		cors.New(cors.Config{
			AllowOrigins:     cc.AllowedOrigins,
			AllowMethods:     methods,
			AllowHeaders:     headers,
			ExposeHeaders:    expose,
			AllowCredentials: cc.AllowCredentials,
			MaxAge:           12 * time.Hour,
		}),
	}
}

// limitBody caps the request body with http.MaxBytesReader: multipart
// uploads get maxMultipart, everything else maxJSON.
func limitBody(maxJSON, maxMultipart int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit := maxJSON
		if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
			limit = maxMultipart
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, limit)
		c.Next()
	}
}

// groupWithPrefix mounts a group at prefix, treating "/" (or empty) as root.
func groupWithPrefix(r *gin.Engine, prefix string) *gin.RouterGroup {
	if prefix == "" || prefix == "/" {
		return r.Group("")
	}
	return r.Group(prefix)
}
