package logging

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	l := New("debug", "text")
	assert.Equal(t, log.DebugLevel, l.GetLevel())
	assert.IsType(t, &log.TextFormatter{}, l.Formatter)

	l = New("nonsense", "")
	assert.Equal(t, log.InfoLevel, l.GetLevel())
	assert.IsType(t, &log.JSONFormatter{}, l.Formatter)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()

	r := gin.New()
	r.Use(Middleware(logger))
	r.GET("/api/status", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/boom", func(c *gin.Context) {
		_ = c.Error(assert.AnError)
		c.Status(http.StatusInternalServerError)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/status", nil))
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, log.InfoLevel, entry.Level)
	assert.Equal(t, "/api/status", entry.Data["path"])
	assert.Equal(t, http.StatusOK, entry.Data["status"])

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, log.ErrorLevel, hook.LastEntry().Level)
	assert.Len(t, hook.AllEntries(), 2)
}
