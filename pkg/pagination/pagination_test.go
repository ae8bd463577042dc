package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestParse(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=3&limit=10", Params{Page: 3, Limit: 10, Offset: 20}},
		{"?page=0&limit=0", Params{Page: 1, Limit: 20, Offset: 0}},
		{"?page=-2&limit=500", Params{Page: 1, Limit: 100, Offset: 0}},
		{"?page=abc&limit=xyz", Params{Page: 1, Limit: 20, Offset: 0}},
	}
	for _, tc := range cases {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest("GET", "/items"+tc.query, nil)
		assert.Equal(t, tc.want, Parse(c), tc.query)
	}
}

func TestNewClampsAndOffsets(t *testing.T) {
	assert.Equal(t, Params{Page: 4, Limit: 25, Offset: 75}, New(4, 25))
	assert.Equal(t, Params{Page: 1, Limit: MaxLimit, Offset: 0}, New(0, MaxLimit+1))
	assert.Equal(t, Params{Page: 2, Limit: DefaultLimit, Offset: DefaultLimit}, New(2, -1))
}
