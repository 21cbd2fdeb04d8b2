package helper

import (
	"reflect"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

const fallbackPerPage = 20

// Pagination is the "pagination" block of list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
	HasPrev    bool  `json:"has_prev"`
	Count      int   `json:"count"`
}

// Paging is the resolved window of one list request.
type Paging struct {
	Page    int
	PerPage int
	Offset  int
	Limit   int
}

func queryInt(c *fiber.Ctx, keys ...string) int {
	for _, k := range keys {
		if n, err := strconv.Atoi(c.Query(k)); err == nil {
			return n
		}
	}
	return 0
}

// ResolvePaging reads ?page= and ?per_page= (alias ?limit=). maxPerPage 0 means unbounded.
func ResolvePaging(c *fiber.Ctx, defaultPerPage, maxPerPage int) Paging {
	if defaultPerPage <= 0 {
		defaultPerPage = fallbackPerPage
	}
	page := max(queryInt(c, "page"), 1)

	perPage := queryInt(c, "per_page", "limit")
	if perPage <= 0 {
		perPage = defaultPerPage
	}
	if maxPerPage > 0 {
		perPage = min(perPage, maxPerPage)
	}
	return Paging{Page: page, PerPage: perPage, Offset: (page - 1) * perPage, Limit: perPage}
}

// Apply limits q to the window.
func (p Paging) Apply(q *gorm.DB) *gorm.DB {
	return q.Offset(p.Offset).Limit(p.Limit)
}

func BuildPaginationFromOffset(total int64, offset, limit int) *Pagination {
	if limit <= 0 {
		limit = fallbackPerPage
	}
	pages := int((total + int64(limit) - 1) / int64(limit))
	if pages == 0 {
		pages = 1
	}
	page := offset/limit + 1
	return &Pagination{
		Page:       page,
		PerPage:    limit,
		Total:      total,
		TotalPages: pages,
		HasNext:    page < pages,
		HasPrev:    page > 1,
	}
}

func lenOf(v any) int {
	if v == nil {
		return 0
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	}
	return 0
}
