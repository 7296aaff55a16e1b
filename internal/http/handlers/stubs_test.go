package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/gateway/yookassa"
	"github.com/tbourn/go-excursion-backend/internal/services"
	"github.com/tbourn/go-excursion-backend/internal/storage"
)

// ---- stub services with function fields ----

type stubExcursions struct {
	listPage func(ctx context.Context, page, pageSize int) ([]domain.Excursion, int64, error)
	stats    func(ctx context.Context) (int64, *time.Time, error)
	get      func(ctx context.Context, id uint) (*domain.Excursion, error)
	create   func(ctx context.Context, in services.ExcursionInput) (*domain.Excursion, error)
	update   func(ctx context.Context, id uint, in services.ExcursionInput) (*domain.Excursion, error)
	del      func(ctx context.Context, id uint) error
}

func (s stubExcursions) ListPage(ctx context.Context, page, pageSize int) ([]domain.Excursion, int64, error) {
	return s.listPage(ctx, page, pageSize)
}

func (s stubExcursions) Stats(ctx context.Context) (int64, *time.Time, error) {
	if s.stats == nil {
		return 0, nil, nil
	}
	return s.stats(ctx)
}

func (s stubExcursions) Get(ctx context.Context, id uint) (*domain.Excursion, error) {
	return s.get(ctx, id)
}

func (s stubExcursions) Create(ctx context.Context, in services.ExcursionInput) (*domain.Excursion, error) {
	return s.create(ctx, in)
}

func (s stubExcursions) Update(ctx context.Context, id uint, in services.ExcursionInput) (*domain.Excursion, error) {
	return s.update(ctx, id, in)
}

func (s stubExcursions) Delete(ctx context.Context, id uint) error { return s.del(ctx, id) }

type stubKeys struct {
	fn func(ctx context.Context, id uint) (string, error)
}

func (s stubKeys) GenerateKey(ctx context.Context, id uint) (string, error) { return s.fn(ctx, id) }

type stubCategories struct {
	list   func(ctx context.Context) ([]domain.Category, error)
	stats  func(ctx context.Context) (int64, *time.Time, error)
	search func(ctx context.Context, q string) ([]domain.Category, error)
	get    func(ctx context.Context, id uint) (*domain.Category, error)
	create func(ctx context.Context, in services.CategoryInput) (*domain.Category, error)
	update func(ctx context.Context, id uint, in services.CategoryInput) (*domain.Category, error)
	del    func(ctx context.Context, id uint) error
}

func (s stubCategories) List(ctx context.Context) ([]domain.Category, error) { return s.list(ctx) }

func (s stubCategories) Stats(ctx context.Context) (int64, *time.Time, error) {
	if s.stats == nil {
		return 0, nil, nil
	}
	return s.stats(ctx)
}

func (s stubCategories) Search(ctx context.Context, q string) ([]domain.Category, error) {
	return s.search(ctx, q)
}

func (s stubCategories) Get(ctx context.Context, id uint) (*domain.Category, error) {
	return s.get(ctx, id)
}

func (s stubCategories) Create(ctx context.Context, in services.CategoryInput) (*domain.Category, error) {
	return s.create(ctx, in)
}

func (s stubCategories) Update(ctx context.Context, id uint, in services.CategoryInput) (*domain.Category, error) {
	return s.update(ctx, id, in)
}

func (s stubCategories) Delete(ctx context.Context, id uint) error { return s.del(ctx, id) }

type stubPayments struct {
	create func(ctx context.Context, in services.PaymentInput) (string, error)
	status func(ctx context.Context, id string) (yookassa.Status, error)
}

func (s stubPayments) CreatePayment(ctx context.Context, in services.PaymentInput) (string, error) {
	return s.create(ctx, in)
}

func (s stubPayments) PaymentStatus(ctx context.Context, id string) (yookassa.Status, error) {
	return s.status(ctx, id)
}

type stubAuth struct {
	signIn func(ctx context.Context, login, password string) (string, error)
	signUp func(ctx context.Context, login, password string) (*domain.User, error)
	verify func(token string) (*services.Claims, error)
}

func (s stubAuth) SignIn(ctx context.Context, login, password string) (string, error) {
	return s.signIn(ctx, login, password)
}

func (s stubAuth) SignUp(ctx context.Context, login, password string) (*domain.User, error) {
	return s.signUp(ctx, login, password)
}

func (s stubAuth) Verify(token string) (*services.Claims, error) { return s.verify(token) }

type stubFeedback struct {
	fn func(ctx context.Context, in services.FeedbackInput) (*domain.Feedback, error)
}

func (s stubFeedback) Send(ctx context.Context, in services.FeedbackInput) (*domain.Feedback, error) {
	return s.fn(ctx, in)
}

type stubImages struct {
	put     func(ctx context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error)
	deleted []string
}

func (s *stubImages) Put(ctx context.Context, r io.Reader, in storage.PutInput) (storage.PutResult, error) {
	return s.put(ctx, r, in)
}

func (s *stubImages) Delete(_ context.Context, key string) error {
	s.deleted = append(s.deleted, key)
	return nil
}

// ---- helpers ----

func doJSON(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var er ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &er); err != nil {
		t.Fatalf("json: %v; body=%s", err, w.Body.String())
	}
	return er
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}
