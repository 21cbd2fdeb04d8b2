package helper

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolvePaging(t *testing.T) {
	cases := []struct {
		query string
		want  Paging
	}{
		{"", Paging{Page: 1, PerPage: 20, Offset: 0, Limit: 20}},
		{"?page=3&per_page=10", Paging{Page: 3, PerPage: 10, Offset: 20, Limit: 10}},
		{"?page=2&limit=5", Paging{Page: 2, PerPage: 5, Offset: 5, Limit: 5}},
		{"?page=-1&per_page=1000", Paging{Page: 1, PerPage: 100, Offset: 0, Limit: 100}},
		{"?page=abc&per_page=0", Paging{Page: 1, PerPage: 20, Offset: 0, Limit: 20}},
	}

	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			var got Paging
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got = ResolvePaging(c, 20, 100)
				return c.SendStatus(fiber.StatusNoContent)
			})
			_, err := app.Test(httptest.NewRequest("GET", "/"+tc.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestBuildPaginationFromOffset(t *testing.T) {
	p := BuildPaginationFromOffset(45, 20, 20)
	assert.Equal(t, 2, p.Page)
	assert.Equal(t, 3, p.TotalPages)
	assert.True(t, p.HasNext)
	assert.True(t, p.HasPrev)

	empty := BuildPaginationFromOffset(0, 0, 0)
	assert.Equal(t, 1, empty.TotalPages)
	assert.Equal(t, 20, empty.PerPage)
	assert.False(t, empty.HasNext)
}
