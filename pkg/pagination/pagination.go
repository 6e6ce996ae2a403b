package pagination

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
	MinLimit     = 1
)

// Params is a clamped page/limit pair read from the query string.
type Params struct {
	Page   int
	Limit  int
	Offset int
}

// Parse reads ?page= and ?limit=. Garbage falls back to the defaults and
// limit is capped at MaxLimit.
func Parse(c *gin.Context) Params {
	page, _ := strconv.Atoi(c.DefaultQuery("page", strconv.Itoa(DefaultPage)))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(DefaultLimit)))

	if page < 1 {
		page = DefaultPage
	}
	if limit < MinLimit {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return Params{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

// Pages is the number of pages needed for total rows.
func (p Params) Pages(total int64) int64 {
	if total <= 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}

// Listing builds the list payload: items under key plus the paging counters.
func (p Params) Listing(key string, items interface{}, total int64) map[string]interface{} {
	return map[string]interface{}{
		key:     items,
		"total": total,
		"page":  p.Page,
		"limit": p.Limit,
		"pages": p.Pages(total),
	}
}
