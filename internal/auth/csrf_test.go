package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func newCSRFRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CSRFMiddleware([]byte("0123456789abcdef0123456789abcdef"), false))
	router.GET("/api/books", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"success": true})
	})
	router.POST("/api/books", func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"success": true})
	})
	return router
}

func TestCSRFMiddleware_SafeMethodIssuesToken(t *testing.T) {
	router := newCSRFRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get(CSRFTokenHeader))
}

func TestCSRFMiddleware_RejectsPostWithoutToken(t *testing.T) {
	router := newCSRFRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/books", nil))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "CSRF token invalid or missing")
	assert.NotContains(t, w.Body.String(), `"success":true`)
}

func TestCSRFMiddleware_AcceptsEchoedToken(t *testing.T) {
	router := newCSRFRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/books", nil))
	token := w.Header().Get(CSRFTokenHeader)

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req.Header.Set(CSRFTokenHeader, token)
	for _, c := range w.Result().Cookies() {
		req.AddCookie(c)
	}

	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusCreated, w.Code)
}
