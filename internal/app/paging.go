package app

// Paging defaults shared by the list operations.
const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// clampPage normalizes raw limit/offset values to the shared paging bounds.
func clampPage(limit, offset int) (int, int) {
	if limit <= 0 || limit > maxPageSize {
		limit = defaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
