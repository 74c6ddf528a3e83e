package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/lineaetica/etica-backend/internal/common"
	"github.com/lineaetica/etica-backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator map[string]*domain.SessionUser

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (*domain.SessionUser, error) {
	if user, ok := s[token]; ok {
		return user, nil
	}
	return nil, common.ErrUnauthorized
}

func sessionRouter(mw gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw)
	r.GET("/test", func(c *gin.Context) {
		user := GetSessionUser(c)
		if user == nil {
			c.JSON(http.StatusOK, gin.H{"user": nil})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user.Email})
	})
	return r
}

func doWithCookie(r *gin.Engine, cookie string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "etica_session", Value: cookie})
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRequireSession(t *testing.T) {
	auth := stubAuthenticator{"good": {ID: 1, Email: "admin@example.com", Role: domain.RoleAdmin}}
	r := sessionRouter(RequireSession(auth, "etica_session"))

	w := doWithCookie(r, "good")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "admin@example.com")

	for _, cookie := range []string{"", "bad"} {
		w = doWithCookie(r, cookie)
		require.Equal(t, http.StatusUnauthorized, w.Code)

		var body common.APIResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		assert.False(t, body.Success)
		assert.Equal(t, UnauthorizedMessage, body.Message)
	}
}

func TestOptionalSession(t *testing.T) {
	auth := stubAuthenticator{"good": {ID: 1, Email: "admin@example.com"}}
	r := sessionRouter(OptionalSession(auth, "etica_session"))

	w := doWithCookie(r, "bad")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"user":null}`, w.Body.String())

	w = doWithCookie(r, "good")
	assert.JSONEq(t, `{"user":"admin@example.com"}`, w.Body.String())
}
