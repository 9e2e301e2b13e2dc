package server

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeBase(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/", ""},
		{"api", "/api"},
		{"/api", "/api"},
		{"/api/", "/api"},
		{" api ", "/api"},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, sanitizeBase(c.in), c.in)
	}
}

func TestIsSafeName(t *testing.T) {
	for _, s := range []string{"a", "A1._-", "weather-v2"} {
		assert.True(t, isSafeName(s), s)
	}
	for _, s := range []string{"", "..", "a..b", "a/b", `a\b`, "hello*", "unicode한글"} {
		assert.False(t, isSafeName(s), s)
	}
}

func TestParseCount(t *testing.T) {
	n, ok := parseCount("", 100, 500)
	assert.True(t, ok)
	assert.Equal(t, 100, n)

	n, ok = parseCount(" 25 ", 100, 500)
	assert.True(t, ok)
	assert.Equal(t, 25, n)

	n, ok = parseCount("9999", 100, 500)
	assert.True(t, ok)
	assert.Equal(t, 500, n)

	for _, s := range []string{"0", "-1", "1.5", "ten"} {
		_, ok = parseCount(s, 100, 500)
		assert.False(t, ok, s)
	}
}

func TestWriteJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/x", func(c *gin.Context) { writeJSON(c, 201, map[string]any{"a": 1}) })
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest("GET", "/x", nil))
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"a":1}`, rec.Body.String())
}
