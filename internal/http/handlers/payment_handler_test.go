package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/tbourn/go-excursion-backend/internal/domain"
	"github.com/tbourn/go-excursion-backend/internal/gateway/yookassa"
	"github.com/tbourn/go-excursion-backend/internal/http/middleware"
	"github.com/tbourn/go-excursion-backend/internal/services"
)

// memIdem is an in-memory IdempotencyStore.
type memIdem struct {
	recs map[string]*domain.Idempotency
}

func (m *memIdem) Get(_ context.Context, scope, key string, _ time.Time) (*domain.Idempotency, error) {
	return m.recs[scope+"|"+key], nil
}

func (m *memIdem) Create(_ context.Context, scope, key, fp, url string, status int, _ time.Duration) (*domain.Idempotency, error) {
	rec := &domain.Idempotency{Scope: scope, Key: key, Fingerprint: fp, ConfirmationURL: url, Status: status}
	m.recs[scope+"|"+key] = rec
	return rec, nil
}

func paymentRouter(h *Handlers) *gin.Engine {
	r := newTestRouter()
	r.Use(middleware.IdempotencyValidator(middleware.IdempotencyOptions{}, nil))
	r.POST("/payment", h.CreatePayment)
	r.GET("/payment/:paymentId", h.GetPaymentStatus)
	return r
}

func TestCreatePayment_OK(t *testing.T) {
	var got services.PaymentInput
	h := New(Deps{Payments: stubPayments{create: func(_ context.Context, in services.PaymentInput) (string, error) {
		got = in
		return "https://pay.example/confirm", nil
	}}}, Options{})
	r := paymentRouter(h)

	w := doJSON(t, r, http.MethodPost, "/payment",
		`{"amount":"1500.50","phone":"89161234567","excursionId":12,"excursionKey":"0123456789"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", w.Code, w.Body.String())
	}
	var resp PaymentResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.ConfirmationURL != "https://pay.example/confirm" {
		t.Fatalf("body=%s", w.Body.String())
	}
	if !got.Amount.Equal(decimal.RequireFromString("1500.5")) || got.ExcursionID != 12 || got.ExcursionKey != "0123456789" {
		t.Fatalf("input=%+v", got)
	}
}

func TestCreatePayment_ErrorMapping(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{services.ErrMissingFields, http.StatusBadRequest, ErrCodeMissingFields},
		{services.ErrInvalidPhoneFormat, http.StatusBadRequest, ErrCodeInvalidPhone},
		{services.ErrCatalogItemNotFound, http.StatusNotFound, ErrCodeNotFound},
		{services.ErrInvalidKey, http.StatusBadRequest, ErrCodeInvalidKey},
		{&services.GatewayError{Kind: services.GatewayRejected, StatusCode: 403, Description: "forbidden"}, http.StatusForbidden, ErrCodeGatewayRejected},
		{&services.GatewayError{Kind: services.GatewayUnreachable}, http.StatusBadGateway, ErrCodeGatewayUnreachable},
	}
	for _, tc := range cases {
		h := New(Deps{Payments: stubPayments{create: func(context.Context, services.PaymentInput) (string, error) {
			return "", tc.err
		}}}, Options{})
		w := doJSON(t, paymentRouter(h), http.MethodPost, "/payment", `{"amount":1,"phone":"1","excursionId":1,"excursionKey":"1"}`)
		if w.Code != tc.status {
			t.Fatalf("%v: status=%d want %d", tc.err, w.Code, tc.status)
		}
		er := decodeError(t, w)
		if er.Code != tc.code || er.Error == "" || er.ErrorRu == "" {
			t.Fatalf("%v: body=%+v", tc.err, er)
		}
	}
}

func TestCreatePayment_BadJSON(t *testing.T) {
	h := New(Deps{Payments: stubPayments{}}, Options{})
	w := doJSON(t, paymentRouter(h), http.MethodPost, "/payment", `{"amount":"abc"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
}

func TestCreatePayment_IdempotentReplay(t *testing.T) {
	calls := 0
	store := &memIdem{recs: map[string]*domain.Idempotency{}}
	h := New(Deps{
		Payments: stubPayments{create: func(context.Context, services.PaymentInput) (string, error) {
			calls++
			return "https://pay.example/1", nil
		}},
		Idempotency: store,
	}, Options{})
	r := paymentRouter(h)

	send := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/payment", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set(middleware.HeaderIdempotencyKey, "order-1")
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		return w
	}

	first := send(`{"amount":1500,"phone":"89161234567","excursionId":1,"excursionKey":"0123456789"}`)
	if first.Code != http.StatusOK || first.Header().Get(HeaderIdempotencyReplayed) != "" {
		t.Fatalf("first: status=%d replayed=%q", first.Code, first.Header().Get(HeaderIdempotencyReplayed))
	}

	// Same payload, amount written differently.
	second := send(`{"amount":"1500.00","phone":"89161234567","excursionId":1,"excursionKey":"0123456789"}`)
	if second.Code != http.StatusOK || second.Header().Get(HeaderIdempotencyReplayed) != "true" {
		t.Fatalf("replay: status=%d replayed=%q", second.Code, second.Header().Get(HeaderIdempotencyReplayed))
	}
	if calls != 1 {
		t.Fatalf("gateway calls=%d; want 1", calls)
	}

	third := send(`{"amount":10,"phone":"89161234567","excursionId":1,"excursionKey":"0123456789"}`)
	if third.Code != http.StatusConflict || decodeError(t, third).Code != ErrCodeIdempotencyReuse {
		t.Fatalf("conflict: status=%d body=%s", third.Code, third.Body.String())
	}
	if calls != 1 {
		t.Fatalf("gateway calls=%d after conflict", calls)
	}
}

func TestCreatePayment_FailureIsNotStored(t *testing.T) {
	store := &memIdem{recs: map[string]*domain.Idempotency{}}
	h := New(Deps{
		Payments: stubPayments{create: func(context.Context, services.PaymentInput) (string, error) {
			return "", services.ErrInvalidKey
		}},
		Idempotency: store,
	}, Options{})

	req := httptest.NewRequest(http.MethodPost, "/payment", strings.NewReader(`{"amount":1,"phone":"1","excursionId":1,"excursionKey":"1"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.HeaderIdempotencyKey, "k1")
	w := httptest.NewRecorder()
	paymentRouter(h).ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest || len(store.recs) != 0 {
		t.Fatalf("status=%d stored=%d", w.Code, len(store.recs))
	}
}

func TestGetPaymentStatus(t *testing.T) {
	h := New(Deps{Payments: stubPayments{status: func(_ context.Context, id string) (yookassa.Status, error) {
		if id == "p-1" {
			return yookassa.StatusPaid, nil
		}
		return "", &services.GatewayError{Kind: services.GatewayRejected, StatusCode: 404, Description: "not found"}
	}}}, Options{})
	r := paymentRouter(h)

	w := doJSON(t, r, http.MethodGet, "/payment/p-1", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	var resp PaymentStatusResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil || resp.Status != yookassa.StatusPaid || !resp.Paid {
		t.Fatalf("body=%s", w.Body.String())
	}
	if w := doJSON(t, r, http.MethodGet, "/payment/nope", ""); w.Code != http.StatusNotFound {
		t.Fatalf("unknown: status=%d", w.Code)
	}
}

func TestPaymentFingerprint(t *testing.T) {
	a := PaymentRequest{Amount: decimal.RequireFromString("100"), Phone: " 8916 ", ExcursionID: 1, ExcursionKey: "k"}
	b := PaymentRequest{Amount: decimal.RequireFromString("100.00"), Phone: "8916", ExcursionID: 1, ExcursionKey: "k"}
	c := PaymentRequest{Amount: decimal.RequireFromString("100.01"), Phone: "8916", ExcursionID: 1, ExcursionKey: "k"}
	if paymentFingerprint(a) != paymentFingerprint(b) {
		t.Fatalf("equal requests must share a fingerprint")
	}
	if paymentFingerprint(a) == paymentFingerprint(c) {
		t.Fatalf("different amounts must not share a fingerprint")
	}
}
