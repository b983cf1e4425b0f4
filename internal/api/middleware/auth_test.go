package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newAuthRouter(cfg AuthConfig) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(APIKeyAuth(cfg, nil))
	r.GET("/x", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	return r
}

func TestAPIKeyAuth(t *testing.T) {
	cfg := AuthConfig{Enabled: true, APIKeys: []string{"sk_test_123456789"}}

	cases := []struct {
		name   string
		setup  func(r *http.Request)
		target string
		want   int
	}{
		{"缺少Key", func(*http.Request) {}, "/x", http.StatusUnauthorized},
		{"无效Key", func(r *http.Request) { r.Header.Set("X-API-Key", "nope") }, "/x", http.StatusForbidden},
		{"X-API-Key", func(r *http.Request) { r.Header.Set("X-API-Key", "sk_test_123456789") }, "/x", http.StatusOK},
		{"Bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer sk_test_123456789") }, "/x", http.StatusOK},
		{"Query参数", func(*http.Request) {}, "/x?api_key=sk_test_123456789", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := newAuthRouter(cfg)
			req := httptest.NewRequest(http.MethodGet, tc.target, nil)
			tc.setup(req)
			rr := httptest.NewRecorder()
			r.ServeHTTP(rr, req)
			assert.Equal(t, tc.want, rr.Code)
		})
	}

	t.Run("未启用直接放行", func(t *testing.T) {
		r := newAuthRouter(AuthConfig{Enabled: false})
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/x", nil))
		assert.Equal(t, http.StatusOK, rr.Code)
	})
}

func TestMaskAPIKey(t *testing.T) {
	assert.Equal(t, "****", maskAPIKey("short"))
	assert.Equal(t, "sk_t****6789", maskAPIKey("sk_test_123456789"))
}

func TestCORS_Preflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.POST("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodOptions, "/x", nil))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}
