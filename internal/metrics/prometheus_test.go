package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestPrometheusMiddleware_CountsByRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/api/status", func(c *gin.Context) { c.Status(http.StatusOK) })

	counter := RequestsTotal.WithLabelValues(http.MethodGet, "/api/status", "200")
	before := testutil.ToFloat64(counter)

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	}

	assert.Equal(t, before+3, testutil.ToFloat64(counter))
}
