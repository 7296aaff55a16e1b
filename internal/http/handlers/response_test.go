package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/go-excursion-backend/internal/http/middleware"
	"github.com/tbourn/go-excursion-backend/internal/services"
)

// envelopeRouter runs RequestID and Logger in front of h with the global
// logger writing to the returned buffer.
func envelopeRouter(t *testing.T, h gin.HandlerFunc) (*gin.Engine, *bytes.Buffer) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)

	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger())
	r.GET("/x", h)
	return r, &buf
}

func serveEnvelope(t *testing.T, r *gin.Engine) (int, ErrorResponse) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req.Header.Set("X-Request-ID", "rid-env")
	r.ServeHTTP(w, req)
	var body ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("body %q: %v", w.Body.String(), err)
	}
	return w.Code, body
}

func TestFail_ClientErrorNotLoggedAsAPIError(t *testing.T) {
	r, buf := envelopeRouter(t, func(c *gin.Context) {
		Fail(c, http.StatusNotFound, ErrCodeNotFound, "excursion not found", "Экскурсия не найдена")
	})
	status, body := serveEnvelope(t, r)

	want := ErrorResponse{RequestID: "rid-env", Code: "not_found", Error: "excursion not found", ErrorRu: "Экскурсия не найдена"}
	if status != http.StatusNotFound || body != want {
		t.Fatalf("got %d %+v", status, body)
	}
	if strings.Contains(buf.String(), `"level":"error"`) {
		t.Fatalf("4xx logged as error: %s", buf.String())
	}
}

func TestFailErr_HidesCauseFromClient(t *testing.T) {
	cause := fmt.Errorf("insert payment: %w", errors.New("disk full"))
	r, buf := envelopeRouter(t, func(c *gin.Context) { failErr(c, cause) })
	status, body := serveEnvelope(t, r)

	if status != http.StatusInternalServerError || body.Code != ErrCodeInternal || body.RequestID != "rid-env" {
		t.Fatalf("got %d %+v", status, body)
	}
	if strings.Contains(body.Error, "disk full") {
		t.Fatalf("cause leaked to client: %q", body.Error)
	}
	logs := buf.String()
	if !strings.Contains(logs, "disk full") || !strings.Contains(logs, `"request_id":"rid-env"`) {
		t.Fatalf("cause not logged with request id: %s", logs)
	}
}

func TestFailErr_LocalizedServiceError(t *testing.T) {
	r, _ := envelopeRouter(t, func(c *gin.Context) { failErr(c, services.ErrInvalidKey) })
	status, body := serveEnvelope(t, r)

	loc := services.ErrInvalidKey.(services.Localized)
	if status != http.StatusBadRequest || body.Code != ErrCodeInvalidKey || body.ErrorRu != loc.MessageRu() {
		t.Fatalf("got %d %+v", status, body)
	}
}

func TestOK_WritesJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { ok(c, http.StatusCreated, MessageResponse{Message: "done"}) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	if w.Code != http.StatusCreated || strings.TrimSpace(w.Body.String()) != `{"message":"done"}` {
		t.Fatalf("got %d %s", w.Code, w.Body.String())
	}
}
