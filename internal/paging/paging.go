package paging

// Meta is the pagination block returned next to every paged list.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"totalCount"`
	TotalPages int64 `json:"totalPages"`
}

func NewMeta(page, limit int, total int64) Meta {
	pages := int64(0)
	if limit > 0 {
		pages = (total + int64(limit) - 1) / int64(limit)
	}
	return Meta{Page: page, Limit: limit, TotalCount: total, TotalPages: pages}
}

// Normalize fills in page 1 and the default limit for missing values.
func Normalize(page, limit, defLimit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defLimit
	}
	return page, limit
}

func Offset(page, limit int) int {
	return (page - 1) * limit
}
