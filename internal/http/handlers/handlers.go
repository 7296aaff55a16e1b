// Package handlers exposes the REST endpoints of the excursion backend.
//
// Handlers are transport-thin: they parse and bind input, call application
// services through the interfaces below, and translate results and errors
// into HTTP responses (see mapError).
package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/gateway/yookassa"
	"github.com/tbourn/go-excursion-backend/internal/services"
	"github.com/tbourn/go-excursion-backend/internal/storage"
	"github.com/tbourn/go-excursion-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// ExcursionService manages catalog excursions.
type ExcursionService interface {
	ListPage(ctx context.Context, page, pageSize int) ([]domain.Excursion, int64, error)
	Stats(ctx context.Context) (int64, *time.Time, error)
	Get(ctx context.Context, id uint) (*domain.Excursion, error)
	Create(ctx context.Context, in services.ExcursionInput) (*domain.Excursion, error)
	Update(ctx context.Context, id uint, in services.ExcursionInput) (*domain.Excursion, error)
	Delete(ctx context.Context, id uint) error
}

// KeyService issues excursion keys.
type KeyService interface {
	GenerateKey(ctx context.Context, id uint) (string, error)
}

// CategoryService manages catalog categories.
type CategoryService interface {
	List(ctx context.Context) ([]domain.Category, error)
	Stats(ctx context.Context) (int64, *time.Time, error)
	Search(ctx context.Context, query string) ([]domain.Category, error)
	Get(ctx context.Context, id uint) (*domain.Category, error)
	Create(ctx context.Context, in services.CategoryInput) (*domain.Category, error)
	Update(ctx context.Context, id uint, in services.CategoryInput) (*domain.Category, error)
	Delete(ctx context.Context, id uint) error
}

// PaymentService creates and inspects gateway payments.
type PaymentService interface {
	CreatePayment(ctx context.Context, in services.PaymentInput) (string, error)
	PaymentStatus(ctx context.Context, paymentID string) (yookassa.Status, error)
}

// AuthService signs staff in and out.
type AuthService interface {
	SignIn(ctx context.Context, login, password string) (string, error)
	SignUp(ctx context.Context, login, password string) (*domain.User, error)
	Verify(token string) (*services.Claims, error)
}

// FeedbackService relays customer messages.
type FeedbackService interface {
	Send(ctx context.Context, in services.FeedbackInput) (*domain.Feedback, error)
}

// ImageStore keeps uploaded catalog images.
type ImageStore interface {
	Put(ctx context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error)
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore persists completed payment requests for client retries.
type IdempotencyStore interface {
	Get(ctx context.Context, scope, key string, now time.Time) (*domain.Idempotency, error)
	Create(ctx context.Context, scope, key, fingerprint, confirmationURL string, status int, ttl time.Duration) (*domain.Idempotency, error)
}

//
// Handler wiring
//

// Deps are the services behind the handlers. Images and Idempotency may be
// nil: uploads are then rejected and Idempotency-Key headers ignored.
type Deps struct {
	Excursions  ExcursionService
	Keys        KeyService
	Categories  CategoryService
	Payments    PaymentService
	Auth        AuthService
	Feedback    FeedbackService
	Images      ImageStore
	Idempotency IdempotencyStore
}

// Options tune transport details.
type Options struct {
	CookieName     string        // session cookie, default "authToken"
	CookieSecure   bool          // Secure flag; SameSite=None requires it in browsers
	TokenTTL       time.Duration // cookie Max-Age
	IdempotencyTTL time.Duration // replay window for POST /payment
	MaxUploadBytes int64         // multipart memory cap
}

// Handlers groups the HTTP endpoints.
type Handlers struct {
	Deps
	opt Options
	now func() time.Time
}

// New constructs Handlers bound to the given services.
func New(d Deps, o Options) *Handlers {
	if o.CookieName == "" {
		o.CookieName = "authToken"
	}
	if o.TokenTTL <= 0 {
		o.TokenTTL = 7 * 24 * time.Hour
	}
	if o.IdempotencyTTL <= 0 {
		o.IdempotencyTTL = 24 * time.Hour
	}
	if o.MaxUploadBytes <= 0 {
		o.MaxUploadBytes = 10 << 20
	}
	return &Handlers{Deps: d, opt: o, now: time.Now}
}

//
// Shared DTOs and helpers
//

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

func newPagination(page, pageSize int, total int64) Pagination {
	pages := utils.TotalPages(total, pageSize)
	return Pagination{Page: page, PageSize: pageSize, Total: total, TotalPages: pages, HasNext: page < pages}
}

// clampPagination parses and bounds page and page_size query params to sane
// defaults and limits, returning (page, pageSize).
func clampPagination(c *gin.Context) (page, pageSize int) {
	const (
		defaultPage     = 1
		defaultPageSize = 20
		maxPageSize     = 100
	)
	page = utils.AtoiDefault(c.Query("page"), defaultPage)
	if page < 1 {
		page = 1
	}
	pageSize = utils.AtoiDefault(c.Query("page_size"), defaultPageSize)
	if pageSize < 1 {
		pageSize = 1
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return
}

// pathID reads the :id parameter, answering 400 when it is not a positive
// integer.
func pathID(c *gin.Context, what, whatRu string) (uint, bool) {
	id, ok := utils.ParseID(c.Param("id"))
	if !ok {
		badRequest(c, "invalid "+what+" id", "Неверный идентификатор: "+whatRu)
		return 0, false
	}
	return id, true
}

// notModified sets a weak ETag derived from table stats and reports whether
// the client's If-None-Match already matches it. Stats failures only disable
// the check.
func notModified(c *gin.Context, stats func(context.Context) (int64, *time.Time, error), tag string) bool {
	count, maxTS, err := stats(c.Request.Context())
	if err != nil {
		return false
	}
	var ts int64
	if maxTS != nil {
		ts = maxTS.UnixNano()
	}
	etag := fmt.Sprintf(`W/"%s:%d:%d"`, tag, count, ts)
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	return false
}
