package utils

// PaginationParams is a resolved page request
type PaginationParams struct {
	Page  int `form:"page"`
	Limit int `form:"limit"`
}

// PaginationMeta describes the page returned alongside list results
type PaginationMeta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalCount int64 `json:"total_count"`
	TotalPages int   `json:"total_pages"`
	HasNext    bool  `json:"has_next"`
}

// MaxLimit caps the page size of list endpoints
const MaxLimit = 100

// NewPaginationParams clamps a page request. A non-positive limit takes
// defaultLimit; anything above MaxLimit is capped. A zero limit after
// clamping means the whole result set.
func NewPaginationParams(page, limit, defaultLimit int) PaginationParams {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultLimit
	}
	if limit < 0 {
		limit = 0
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return PaginationParams{Page: page, Limit: limit}
}

// Offset is the number of rows to skip for this page
func (p PaginationParams) Offset() int {
	if p.Page < 1 || p.Limit < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// CalculateMeta describes page p of a result set of totalCount rows
func CalculateMeta(totalCount int64, p PaginationParams) PaginationMeta {
	if p.Limit < 1 {
		return PaginationMeta{Page: 1, Limit: int(totalCount), TotalCount: totalCount, TotalPages: 1}
	}

	limit := int64(p.Limit)
	totalPages := int((totalCount + limit - 1) / limit)
	return PaginationMeta{
		Page:       p.Page,
		Limit:      p.Limit,
		TotalCount: totalCount,
		TotalPages: totalPages,
		HasNext:    p.Page < totalPages,
	}
}
