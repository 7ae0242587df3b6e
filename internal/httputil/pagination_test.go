package httputil_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/allisson/cardledger/internal/httputil"
)

func TestParsePage(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name         string
		url          string
		expectedPage int
		expectedSize int
		errorMsg     string
	}{
		{name: "default values", url: "/", expectedPage: 0, expectedSize: 10},
		{name: "custom values", url: "/?page=3&size=25", expectedPage: 3, expectedSize: 25},
		{name: "max size", url: "/?size=50", expectedPage: 0, expectedSize: 50},
		{
			name:     "negative page",
			url:      "/?page=-1",
			errorMsg: "invalid page parameter: must be a non-negative integer",
		},
		{
			name:     "page not an integer",
			url:      "/?page=abc",
			errorMsg: "invalid page parameter: must be a non-negative integer",
		},
		{name: "size zero", url: "/?size=0", errorMsg: "invalid size parameter: must be between 1 and 50"},
		{name: "size above max", url: "/?size=51", errorMsg: "invalid size parameter: must be between 1 and 50"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest(http.MethodGet, tt.url, nil)

			page, size, err := httputil.ParsePage(c, 50)

			if tt.errorMsg != "" {
				assert.EqualError(t, err, tt.errorMsg)
				assert.Zero(t, page)
				assert.Zero(t, size)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedPage, page)
			assert.Equal(t, tt.expectedSize, size)
		})
	}
}

func TestParsePage_DefaultSizeCappedByMax(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

	_, size, err := httputil.ParsePage(c, 5)
	assert.NoError(t, err)
	assert.Equal(t, 5, size)
}

func TestParseID(t *testing.T) {
	for _, tt := range []struct {
		value string
		want  int64
		ok    bool
	}{
		{"42", 42, true},
		{"0", 0, false},
		{"-3", 0, false},
		{"abc", 0, false},
	} {
		t.Run(tt.value, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Params = gin.Params{{Key: "id", Value: tt.value}}

			id, err := httputil.ParseID(c, "id")
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, tt.want, id)
			} else {
				assert.EqualError(t, err, "invalid id parameter: must be a positive integer")
			}
		})
	}
}
