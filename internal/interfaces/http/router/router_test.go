package router

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type pingRegistrar struct{}

func (pingRegistrar) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/things", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
}

func get(engine *gin.Engine, path string) int {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	recorder := httptest.NewRecorder()
	engine.ServeHTTP(recorder, req)
	return recorder.Code
}

func TestRouterMountsUnderAPI(t *testing.T) {
	engine := gin.New()
	NewRouter(engine).Register(pingRegistrar{}).Setup()

	assert.Equal(t, http.StatusOK, get(engine, "/api/things"))
	assert.Equal(t, http.StatusNotFound, get(engine, "/things"))
}

func TestRouterVersionPrefix(t *testing.T) {
	engine := gin.New()
	NewRouter(engine, WithAPIVersion("v2")).Register(pingRegistrar{}).Setup()

	assert.Equal(t, http.StatusOK, get(engine, "/api/v2/things"))
	assert.Equal(t, http.StatusNotFound, get(engine, "/api/things"))
}
