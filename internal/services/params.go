package services

// ListParams are the common list-endpoint query parameters. Zero values are
// replaced by the caller-supplied defaults in normalize; the sort column is
// whitelisted by each service against its own allowed set.
type ListParams struct {
	Search  string
	Page    int
	Limit   int
	SortBy  string
	SortDir string
}

func (p *ListParams) normalize(defaultSort, defaultDir string) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 || p.Limit > 200 {
		p.Limit = 10
	}
	if p.SortBy == "" {
		p.SortBy = defaultSort
	}
	if p.SortDir != "asc" && p.SortDir != "desc" {
		p.SortDir = defaultDir
	}
}

func (p *ListParams) offset() int { return (p.Page - 1) * p.Limit }

// Paged is a page of results plus the meta the API envelope reports.
type Paged[T any] struct {
	Data       []T
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

func newPaged[T any](data []T, total int64, p ListParams) Paged[T] {
	pages := int(total) / p.Limit
	if int(total)%p.Limit != 0 {
		pages++
	}
	return Paged[T]{Data: data, Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// sortColumn maps a requested sort key through a whitelist, returning the
// fallback column when the key is unknown. Keeps user input out of ORDER BY.
func sortColumn(allowed map[string]string, requested, fallback string) string {
	if col, ok := allowed[requested]; ok {
		return col
	}
	return allowed[fallback]
}

func sortDirection(dir string) string {
	if dir == "asc" {
		return "ASC"
	}
	return "DESC"
}
