package sqlpager

import (
	"encoding/json"
	"maps"
	"strconv"
)

// Options configures URL generation of a paginator.
type Options struct {
	// Path is the base URL. It may carry its own query string.
	Path string
	// Query holds extra parameters appended to every generated URL.
	Query map[string]string
	// Fragment is appended as #fragment to every generated URL.
	Fragment string
	// PageName is the query parameter holding the page number. Defaults to "page".
	PageName string
	// CursorName is the query parameter holding the cursor token. Defaults to "cursor".
	CursorName string
	// Parameters are the order columns a CursorPaginator reads from items.
	Parameters []string
}

const (
	DefaultPageName   = "page"
	DefaultCursorName = "cursor"
)

func (o Options) withDefaults() Options {
	if o.Path == "" {
		o.Path = "/"
	}
	if o.PageName == "" {
		o.PageName = DefaultPageName
	}
	if o.CursorName == "" {
		o.CursorName = DefaultCursorName
	}
	o.Query = maps.Clone(o.Query)
	if o.Query == nil {
		o.Query = make(map[string]string)
	}

	return o
}

// base holds the state shared by all paginators.
type base[T any] struct {
	items   []T
	perPage int
	opts    Options
}

func newBase[T any](items []T, perPage int, opts Options) base[T] {
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	if items == nil {
		items = []T{}
	}

	return base[T]{items: items, perPage: perPage, opts: opts.withDefaults()}
}

func (b *base[T]) Items() []T {
	return b.items
}

func (b *base[T]) PerPage() int {
	return b.perPage
}

func (b *base[T]) Count() int {
	return len(b.items)
}

func (b *base[T]) IsEmpty() bool {
	return len(b.items) == 0
}

func (b *base[T]) Path() string {
	return b.opts.Path
}

func (b *base[T]) Fragment() string {
	return b.opts.Fragment
}

func (b *base[T]) appends(key, value string) {
	if key == b.opts.PageName || key == b.opts.CursorName {
		return
	}
	b.opts.Query[key] = value
}

// Paginator is a simple page of items that knows only whether a next page exists.
// items may hold one extra element fetched to detect it; that element is trimmed.
type Paginator[T any] struct {
	base[T]
	currentPage int
	hasMore     bool
}

// NewPaginator creates a Paginator. currentPage is normalized with NormalizePage.
func NewPaginator[T any](items []T, perPage int, currentPage any, opts Options) *Paginator[T] {
	p := &Paginator[T]{
		base:        newBase(items, perPage, opts),
		currentPage: NormalizePage(currentPage),
	}

	p.hasMore = len(p.items) > p.perPage
	if p.hasMore {
		p.items = p.items[:p.perPage]
	}

	return p
}

func (p *Paginator[T]) CurrentPage() int {
	return p.currentPage
}

// URL returns the URL of page. Pages below 1 are treated as 1.
func (p *Paginator[T]) URL(page int) string {
	return pageURL(p.opts, page)
}

// PreviousPageURL returns "" on the first page.
func (p *Paginator[T]) PreviousPageURL() string {
	if p.currentPage <= 1 {
		return ""
	}

	return p.URL(p.currentPage - 1)
}

// NextPageURL returns "" when there are no more pages.
func (p *Paginator[T]) NextPageURL() string {
	if !p.HasMorePages() {
		return ""
	}

	return p.URL(p.currentPage + 1)
}

// Appends adds a query parameter to all generated URLs. The page parameter itself
// cannot be overridden.
func (p *Paginator[T]) Appends(key, value string) *Paginator[T] {
	p.appends(key, value)
	return p
}

// AppendQuery adds all of query to the generated URLs.
func (p *Paginator[T]) AppendQuery(query map[string]string) *Paginator[T] {
	for k, v := range query {
		p.appends(k, v)
	}

	return p
}

func (p *Paginator[T]) WithFragment(fragment string) *Paginator[T] {
	p.opts.Fragment = fragment
	return p
}

func (p *Paginator[T]) WithPath(path string) *Paginator[T] {
	p.opts.Path = path
	return p
}

// FirstItem returns the 1-based position of the first item, nil for an empty page.
func (p *Paginator[T]) FirstItem() *int {
	return firstItem(p.currentPage, p.perPage, len(p.items))
}

// LastItem returns the 1-based position of the last item, nil for an empty page.
func (p *Paginator[T]) LastItem() *int {
	return lastItem(p.currentPage, p.perPage, len(p.items))
}

func (p *Paginator[T]) HasPages() bool {
	return p.currentPage != 1 || p.HasMorePages()
}

func (p *Paginator[T]) HasMorePages() bool {
	return p.hasMore
}

func (p *Paginator[T]) OnFirstPage() bool {
	return p.currentPage <= 1
}

func (p *Paginator[T]) OnLastPage() bool {
	return !p.HasMorePages()
}

// PageObject is the serialized form of a Paginator.
type PageObject[T any] struct {
	CurrentPage  int     `json:"current_page"`
	Data         []T     `json:"data"`
	FirstPageURL string  `json:"first_page_url"`
	From         *int    `json:"from"`
	PrevPageURL  *string `json:"prev_page_url"`
	Path         string  `json:"path"`
	PerPage      int     `json:"per_page"`
	To           *int    `json:"to"`
	NextPageURL  *string `json:"next_page_url"`
}

func (p *Paginator[T]) ToObject() PageObject[T] {
	return PageObject[T]{
		CurrentPage:  p.currentPage,
		Data:         p.items,
		FirstPageURL: p.URL(1),
		From:         p.FirstItem(),
		PrevPageURL:  nullable(p.PreviousPageURL()),
		Path:         p.opts.Path,
		PerPage:      p.perPage,
		To:           p.LastItem(),
		NextPageURL:  nullable(p.NextPageURL()),
	}
}

func (p *Paginator[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToObject())
}

// String returns the JSON form.
func (p *Paginator[T]) String() string {
	return jsonString(p)
}

func pageURL(opts Options, page int) string {
	page = max(page, 1)
	return buildURL(opts.Path, opts.Query, opts.PageName, strconv.Itoa(page), opts.Fragment)
}

func firstItem(currentPage, perPage, count int) *int {
	if count == 0 {
		return nil
	}

	ret := (currentPage-1)*perPage + 1
	return &ret
}

func lastItem(currentPage, perPage, count int) *int {
	first := firstItem(currentPage, perPage, count)
	if first == nil {
		return nil
	}

	ret := *first + count - 1
	return &ret
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}

	return &s
}

func jsonString(v json.Marshaler) string {
	data, err := v.MarshalJSON()
	if err != nil {
		return ""
	}

	return string(data)
}
