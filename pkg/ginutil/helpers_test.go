package ginutil

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func contextFor(target string) *gin.Context {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", target, nil)
	return c
}

func TestQueryInt(t *testing.T) {
	c := contextFor("/?page=3&limit=abc")
	assert.Equal(t, 3, QueryInt(c, "page", 1))
	assert.Equal(t, 20, QueryInt(c, "limit", 20))
	assert.Equal(t, 7, QueryInt(c, "missing", 7))
}

func TestQueryFirst(t *testing.T) {
	c := contextFor("/?empresa=Fintotal&company=%20")
	assert.Equal(t, "Fintotal", QueryFirst(c, "company", "empresa"))
	assert.Equal(t, "", QueryFirst(c, "nothing"))

	c = contextFor("/?empresa=Fintotal&company=Centromotos")
	assert.Equal(t, "Centromotos", QueryFirst(c, "company", "empresa"))
}
