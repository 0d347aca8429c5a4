package middlewares

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/retail_ledger/utils"
	"github.com/stretchr/testify/assert"
)

func newAuthRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CorrelationMiddleware(), AuthMiddleware())
	r.GET("/whoami", func(c *gin.Context) {
		name, _ := utils.GetClerkNameFromContext(c.Request.Context())
		corr, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"clerk": name, "correlation": corr})
	})
	return r
}

func TestAuthMiddleware(t *testing.T) {
	token, err := utils.JwtGenerate(7, "Ma Hla", "cashier")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}

	cases := []struct {
		name        string
		requireAuth string
		header      string
		wantStatus  int
		wantClerk   string
	}{
		{"anonymous allowed", "", "", http.StatusOK, ""},
		{"anonymous rejected", "true", "", http.StatusUnauthorized, ""},
		{"valid token", "true", "Bearer " + token, http.StatusOK, "Ma Hla"},
		{"missing bearer prefix", "", token, http.StatusUnauthorized, ""},
		{"garbage token", "", "Bearer abc.def.ghi", http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		t.Setenv("REQUIRE_AUTH", tc.requireAuth)
		r := newAuthRouter()

		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		if tc.header != "" {
			req.Header.Set("Authorization", tc.header)
		}
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)

		if w.Code != tc.wantStatus {
			t.Fatalf("%s: status %d want %d (%s)", tc.name, w.Code, tc.wantStatus, w.Body.String())
		}
		if tc.wantClerk != "" {
			assert.Contains(t, w.Body.String(), tc.wantClerk, tc.name)
		}
	}
}

func TestCorrelationMiddlewareEchoesHeader(t *testing.T) {
	r := newAuthRouter()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(CorrelationHeader, "abc-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get(CorrelationHeader))
	assert.Contains(t, w.Body.String(), "abc-123")

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.NotEmpty(t, w.Header().Get(CorrelationHeader))
}
