package application

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// normalizePage は一覧取得の limit/offset を補正する
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
