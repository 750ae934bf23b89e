package sqlpager

import (
	"encoding/json"
)

// LengthAwarePaginator is a page of items backed by a known total.
type LengthAwarePaginator[T any] struct {
	base[T]
	currentPage int
	total       int
	lastPage    int
}

// NewLengthAwarePaginator creates a LengthAwarePaginator. items hold exactly the
// current page.
func NewLengthAwarePaginator[T any](items []T, total int, perPage int, currentPage any, opts Options) *LengthAwarePaginator[T] {
	p := &LengthAwarePaginator[T]{
		base:        newBase(items, perPage, opts),
		currentPage: NormalizePage(currentPage),
		total:       max(total, 0),
	}
	p.lastPage = max((p.total+p.perPage-1)/p.perPage, 1)

	return p
}

func (p *LengthAwarePaginator[T]) CurrentPage() int {
	return p.currentPage
}

func (p *LengthAwarePaginator[T]) Total() int {
	return p.total
}

func (p *LengthAwarePaginator[T]) LastPage() int {
	return p.lastPage
}

func (p *LengthAwarePaginator[T]) URL(page int) string {
	return pageURL(p.opts, page)
}

func (p *LengthAwarePaginator[T]) PreviousPageURL() string {
	if p.currentPage <= 1 {
		return ""
	}

	return p.URL(p.currentPage - 1)
}

func (p *LengthAwarePaginator[T]) NextPageURL() string {
	if !p.HasMorePages() {
		return ""
	}

	return p.URL(p.currentPage + 1)
}

func (p *LengthAwarePaginator[T]) LastPageURL() string {
	return p.URL(p.lastPage)
}

// Appends adds a query parameter to all generated URLs.
func (p *LengthAwarePaginator[T]) Appends(key, value string) *LengthAwarePaginator[T] {
	p.appends(key, value)
	return p
}

func (p *LengthAwarePaginator[T]) AppendQuery(query map[string]string) *LengthAwarePaginator[T] {
	for k, v := range query {
		p.appends(k, v)
	}

	return p
}

func (p *LengthAwarePaginator[T]) WithFragment(fragment string) *LengthAwarePaginator[T] {
	p.opts.Fragment = fragment
	return p
}

func (p *LengthAwarePaginator[T]) WithPath(path string) *LengthAwarePaginator[T] {
	p.opts.Path = path
	return p
}

func (p *LengthAwarePaginator[T]) FirstItem() *int {
	return firstItem(p.currentPage, p.perPage, len(p.items))
}

func (p *LengthAwarePaginator[T]) LastItem() *int {
	return lastItem(p.currentPage, p.perPage, len(p.items))
}

func (p *LengthAwarePaginator[T]) HasPages() bool {
	return p.lastPage > 1
}

func (p *LengthAwarePaginator[T]) HasMorePages() bool {
	return p.currentPage < p.lastPage
}

func (p *LengthAwarePaginator[T]) OnFirstPage() bool {
	return p.currentPage <= 1
}

func (p *LengthAwarePaginator[T]) OnLastPage() bool {
	return !p.HasMorePages()
}

// LengthAwarePageObject is the serialized form of a LengthAwarePaginator.
type LengthAwarePageObject[T any] struct {
	PageObject[T]
	LastPage    int    `json:"last_page"`
	LastPageURL string `json:"last_page_url"`
	Total       int    `json:"total"`
}

func (p *LengthAwarePaginator[T]) ToObject() LengthAwarePageObject[T] {
	return LengthAwarePageObject[T]{
		PageObject: PageObject[T]{
			CurrentPage:  p.currentPage,
			Data:         p.items,
			FirstPageURL: p.URL(1),
			From:         p.FirstItem(),
			PrevPageURL:  nullable(p.PreviousPageURL()),
			Path:         p.opts.Path,
			PerPage:      p.perPage,
			To:           p.LastItem(),
			NextPageURL:  nullable(p.NextPageURL()),
		},
		LastPage:    p.lastPage,
		LastPageURL: p.LastPageURL(),
		Total:       p.total,
	}
}

func (p *LengthAwarePaginator[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToObject())
}

func (p *LengthAwarePaginator[T]) String() string {
	return jsonString(p)
}
