package middleware

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// captureLogger points the global logger at a buffer for the test.
func captureLogger(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := log.Logger
	t.Cleanup(func() { log.Logger = prev })
	log.Logger = zerolog.New(&buf)
	return &buf
}

// logLines decodes the JSON lines written to buf.
func logLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	sc := bufio.NewScanner(bytes.NewReader(buf.Bytes()))
	sc.Buffer(make([]byte, 0, 64<<10), 1<<20)
	for sc.Scan() {
		var m map[string]any
		if err := json.Unmarshal(sc.Bytes(), &m); err != nil {
			t.Fatalf("bad log line %q: %v", sc.Text(), err)
		}
		out = append(out, m)
	}
	return out
}

func linesWithMessage(lines []map[string]any, msg string) []map[string]any {
	var out []map[string]any
	for _, l := range lines {
		if l["message"] == msg {
			out = append(out, l)
		}
	}
	return out
}

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/rid", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(requestIDKey)) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/rid", nil))
	gen := w.Header().Get(requestIDHeader)
	if len(gen) != 36 || w.Body.String() != gen {
		t.Fatalf("generated id %q, context %q", gen, w.Body.String())
	}

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/rid", nil)
	req.Header.Set("x-request-id", "trace-42")
	r.ServeHTTP(w, req)
	if w.Header().Get(requestIDHeader) != "trace-42" || w.Body.String() != "trace-42" {
		t.Fatalf("inbound id not reused: %q", w.Header().Get(requestIDHeader))
	}
}

func TestLogger_LevelsByOutcome(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/api/excursion/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.POST("/api/payment", func(c *gin.Context) {
		_ = c.Error(errGateway)
		c.Status(http.StatusBadGateway)
	})
	r.GET("/api/key", func(c *gin.Context) {
		c.Set(userIDKey, "3")
		c.Status(http.StatusForbidden)
	})

	for _, rq := range []struct{ method, target string }{
		{http.MethodGet, "/api/excursion/5?full=1"},
		{http.MethodGet, "/nowhere"},
		{http.MethodPost, "/api/payment"},
		{http.MethodGet, "/api/key"},
	} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(rq.method, rq.target, nil))
	}

	lines := linesWithMessage(logLines(t, buf), "request")
	if len(lines) != 4 {
		t.Fatalf("lines = %d; want 4", len(lines))
	}
	want := []struct {
		level, path string
		status      float64
	}{
		{"info", "/api/excursion/:id", 200},
		{"warn", "/nowhere", 404},
		{"error", "/api/payment", 502},
		{"warn", "/api/key", 403},
	}
	for i, w := range want {
		l := lines[i]
		if l["level"] != w.level || l["path"] != w.path || l["status"] != w.status {
			t.Fatalf("line %d = %v; want %+v", i, l, w)
		}
		if l["request_id"] == "" || l["latency"] == nil {
			t.Fatalf("line %d lacks correlation fields: %v", i, l)
		}
	}
	if lines[0]["query"] != "full=1" {
		t.Fatalf("query = %v", lines[0]["query"])
	}
	if lines[2]["errors"] == nil {
		t.Fatalf("gateway error not logged: %v", lines[2])
	}
	if _, ok := lines[0]["user_id"]; ok {
		t.Fatalf("anonymous line carries user_id")
	}
	if lines[3]["user_id"] != "3" {
		t.Fatalf("staff line user_id = %v", lines[3]["user_id"])
	}
}

type gatewayErr struct{}

func (gatewayErr) Error() string { return "gateway unavailable" }

var errGateway = gatewayErr{}

func TestLogger_ScopedLoggerReachesRequestContext(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger())
	r.GET("/svc", func(c *gin.Context) {
		zerolog.Ctx(c.Request.Context()).Info().Msg("from service")
		LoggerFrom(c).Info().Msg("from handler")
		c.Status(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/svc", nil)
	req.Header.Set(requestIDHeader, "rid-svc")
	r.ServeHTTP(httptest.NewRecorder(), req)

	lines := logLines(t, buf)
	for _, msg := range []string{"from service", "from handler"} {
		got := linesWithMessage(lines, msg)
		if len(got) != 1 || got[0]["request_id"] != "rid-svc" {
			t.Fatalf("%s: %v", msg, got)
		}
	}
}

func TestLoggerFrom_FallbackCarriesRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Set(requestIDKey, "rid-fallback")
	c.Set(loggerKey, "not a logger")

	LoggerFrom(c).Warn().Msg("hello")
	if !strings.Contains(buf.String(), `"request_id":"rid-fallback"`) {
		t.Fatalf("fallback logger output %q", buf.String())
	}
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	buf := captureLogger(t)

	r := gin.New()
	r.Use(RequestID(), Logger(), Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })
	r.GET("/late", func(c *gin.Context) {
		c.String(http.StatusOK, "partial")
		panic("after write")
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(requestIDHeader, "rid-boom")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatal(err)
	}
	if body["code"] != "internal_error" || body["request_id"] != "rid-boom" || body["errorRu"] == "" {
		t.Fatalf("body = %v", body)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/late", nil))
	if w.Body.String() != "partial" {
		t.Fatalf("late panic rewrote body: %q", w.Body.String())
	}

	panics := linesWithMessage(logLines(t, buf), "panic recovered")
	if len(panics) != 2 || panics[0]["panic"] != "kaboom" || panics[0]["stack"] == nil {
		t.Fatalf("panic lines = %v", panics)
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"abcdef", 3, "abc…"},
		{"abc", 3, "abc"},
		{"abc", 0, "abc"},
		{"", 5, ""},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.max); got != tc.want {
			t.Fatalf("truncate(%q, %d) = %q; want %q", tc.in, tc.max, got, tc.want)
		}
	}
}
