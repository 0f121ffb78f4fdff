package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
)

func TestMetricsMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	// The default Prometheus registry is process-global, so the instruments
	// are created once for the whole test binary.
	metrics := NewMetrics("watchtower_test")

	r := gin.New()
	r.Use(metrics.Middleware())
	r.GET("/ping/:id", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/metrics", gin.WrapH(MetricsHandler()))

	for _, path := range []string{"/ping/1", "/ping/2"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", w.Code)
		}
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 from /metrics, got %d", w.Code)
	}

	body := w.Body.String()
	if !strings.Contains(body, "watchtower_test_http_requests_total") {
		t.Error("request counter missing from exposition")
	}
	// Path parameters must be collapsed to the route template.
	if !strings.Contains(body, `path="/ping/:id"`) {
		t.Error("expected the route template as the path label")
	}
	if strings.Contains(body, `path="/ping/1"`) {
		t.Error("raw paths must not leak into labels")
	}
}
