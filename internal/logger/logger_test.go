package logger

import (
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"yamdb/internal/config"
)

func TestNew_WritesToFile(t *testing.T) {
	out := filepath.Join(t.TempDir(), "app.log")
	l, err := New(config.LogConfig{Level: "debug", Format: "json", Output: out})
	require.NoError(t, err)
	l.Debug("hello")
	require.NoError(t, l.Sync())
}

func TestLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, level("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, level("warning"))
	assert.Equal(t, zapcore.ErrorLevel, level("error"))
	assert.Equal(t, zapcore.InfoLevel, level("nonsense"))
}

func newRouter(l *zap.Logger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware(l), Recovery(l))
	return r
}

func TestGinMiddleware_LogsAndSetsRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	r := newRouter(zap.New(core))

	var seen string
	r.GET("/ok", func(c *gin.Context) {
		seen = RequestID(c)
		FromGin(c).Info("inside")
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ok", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, w.Header().Get(RequestIDHeader))

	entries := recorded.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, seen, entries[0].ContextMap()["request_id"])
	assert.Equal(t, 1, recorded.FilterMessage("inside").Len())
}

func TestGinMiddleware_KeepsIncomingRequestID(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	r := newRouter(zap.New(core))
	r.GET("/missing", func(c *gin.Context) { c.Status(http.StatusNotFound) })

	req := httptest.NewRequest(http.MethodGet, "/missing", nil)
	req.Header.Set(RequestIDHeader, "req-42")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, "req-42", w.Header().Get(RequestIDHeader))
	entries := recorded.FilterMessage("request").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
}

func TestRecovery(t *testing.T) {
	core, recorded := observer.New(zapcore.InfoLevel)
	r := newRouter(zap.New(core))
	r.GET("/boom", func(c *gin.Context) { panic("boom") })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, w.Body.String())
	assert.Equal(t, 1, recorded.FilterMessage("panic recovered").Len())
}

func TestFromGin_NoLogger(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	assert.NotNil(t, FromGin(c))
}
