package tracing

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	obscontext "github.com/smallbiznis/salescommission/internal/observability/context"
	"github.com/stretchr/testify/assert"
	"go.opentelemetry.io/otel/attribute"
)

func attrMap(attrs []attribute.KeyValue) map[string]string {
	out := make(map[string]string, len(attrs))
	for _, attr := range attrs {
		out[string(attr.Key)] = attr.Value.Emit()
	}
	return out
}

func TestRequestAttributesIncludeActorAndExport(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	req := httptest.NewRequest(http.MethodGet, "/api/commission/report/xlsx", nil)
	c.Request = req.WithContext(obscontext.WithActor(req.Context(), "user", "42"))
	c.Set("export_format", "xlsx")

	got := attrMap(requestAttributes(c, "/api/commission/report/xlsx", http.StatusOK, 15*time.Millisecond))

	assert.Equal(t, "GET", got["http.method"])
	assert.Equal(t, "200", got["http.status_code"])
	assert.Equal(t, "15", got["http.server_duration_ms"])
	assert.Equal(t, "user", got["actor.type"])
	assert.Equal(t, "42", got["actor.id"])
	assert.Equal(t, "xlsx", got["commission.export_format"])
}

func TestGinMiddlewareSeesActorSetDownstream(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(GinMiddleware())

	var seen string
	r.GET("/health", func(c *gin.Context) {
		c.Request = c.Request.WithContext(obscontext.WithActor(c.Request.Context(), "user", "7"))
		c.Next()
	}, func(c *gin.Context) {
		_, seen = obscontext.ActorFromContext(c.Request.Context())
		c.Status(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "7", seen)
}
