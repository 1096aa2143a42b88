package shared

const (
	DefaultPage  = 1
	DefaultLimit = 20
	MaxLimit     = 100
)

// Filter represents query filter options shared by every list operation
type Filter struct {
	Page     int
	Limit    int
	OrderBy  string
	OrderDir string
}

// DefaultFilter returns a filter with default values
func DefaultFilter() Filter {
	return Filter{
		Page:     DefaultPage,
		Limit:    DefaultLimit,
		OrderBy:  "created_at",
		OrderDir: "desc",
	}
}

// Normalize clamps page and limit into their valid ranges
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = DefaultPage
	}
	if f.Limit < 1 {
		f.Limit = DefaultLimit
	}
	if f.Limit > MaxLimit {
		f.Limit = MaxLimit
	}
	if f.OrderDir != "asc" {
		f.OrderDir = "desc"
	}
	return f
}

// Offset returns the row offset of the filter's page
func (f Filter) Offset() int {
	f = f.Normalize()
	return (f.Page - 1) * f.Limit
}

// Paginated is the list envelope returned by every list operation
type Paginated[T any] struct {
	Results      []T   `json:"results"`
	Page         int   `json:"page"`
	Limit        int   `json:"limit"`
	TotalPages   int   `json:"totalPages"`
	TotalResults int64 `json:"totalResults"`
}

// NewPaginated creates a new paginated result
func NewPaginated[T any](results []T, total int64, page, limit int) Paginated[T] {
	if limit < 1 {
		limit = DefaultLimit
	}
	totalPages := int(total) / limit
	if int(total)%limit > 0 {
		totalPages++
	}
	if results == nil {
		results = []T{}
	}
	return Paginated[T]{
		Results:      results,
		Page:         page,
		Limit:        limit,
		TotalPages:   totalPages,
		TotalResults: total,
	}
}

// MapPaginated converts the results of p with fn, keeping the page metadata
func MapPaginated[T, R any](p Paginated[T], fn func(T) R) Paginated[R] {
	out := make([]R, len(p.Results))
	for i, item := range p.Results {
		out[i] = fn(item)
	}
	return Paginated[R]{
		Results:      out,
		Page:         p.Page,
		Limit:        p.Limit,
		TotalPages:   p.TotalPages,
		TotalResults: p.TotalResults,
	}
}
