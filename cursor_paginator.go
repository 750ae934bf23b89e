package sqlpager

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/samber/lo"
)

// ErrUnsupportedItem is returned when a cursor cannot be read from an item.
var ErrUnsupportedItem = errors.New("cursor paginator items must be map[string]any or implement Mapper")

// Mapper is implemented by items that expose their column values to a
// CursorPaginator.
type Mapper interface {
	ToMap() map[string]any
}

// CursorPaginator is a page of items fetched by keyset. items may hold one extra
// element fetched to detect more pages; that element is trimmed. When cursor points
// to previous items the rows arrive in reverse order and are restored.
type CursorPaginator[T any] struct {
	base[T]
	cursor  *Cursor
	hasMore bool
}

// NewCursorPaginator creates a CursorPaginator. opts.Parameters names the order
// columns stored in the generated cursors.
func NewCursorPaginator[T any](items []T, perPage int, cursor *Cursor, opts Options) (*CursorPaginator[T], error) {
	p := &CursorPaginator[T]{
		base:   newBase(items, perPage, opts),
		cursor: cursor,
	}

	p.hasMore = len(p.items) > p.perPage
	if p.hasMore {
		p.items = p.items[:p.perPage]
	}
	if cursor.PointsToPreviousItems() {
		p.items = slices.Clone(p.items)
		slices.Reverse(p.items)
	}

	if len(p.items) > 0 {
		boundaries := lo.Uniq([]int{0, len(p.items) - 1})
		for _, idx := range boundaries {
			if _, err := itemValues(p.items[idx]); err != nil {
				return nil, err
			}
		}
	}

	return p, nil
}

func (p *CursorPaginator[T]) Cursor() *Cursor {
	return p.cursor
}

// URL returns the URL for cursor. A nil cursor yields the bare path with appended
// parameters.
func (p *CursorPaginator[T]) URL(cursor *Cursor) string {
	if cursor == nil {
		return buildURL(p.opts.Path, p.opts.Query, "", "", p.opts.Fragment)
	}

	return buildURL(p.opts.Path, p.opts.Query, p.opts.CursorName, cursor.Encode(), p.opts.Fragment)
}

func (p *CursorPaginator[T]) PreviousPageURL() string {
	prev := p.PreviousCursor()
	if prev == nil {
		return ""
	}

	return p.URL(prev)
}

func (p *CursorPaginator[T]) NextPageURL() string {
	next := p.NextCursor()
	if next == nil {
		return ""
	}

	return p.URL(next)
}

// PreviousCursor returns the cursor pointing before the first item, nil on the
// first page.
func (p *CursorPaginator[T]) PreviousCursor() *Cursor {
	if p.cursor == nil || (p.cursor.PointsToPreviousItems() && !p.hasMore) {
		return nil
	}
	if len(p.items) == 0 {
		return nil
	}

	return p.mustCursorForItem(p.items[0], false)
}

// NextCursor returns the cursor pointing after the last item, nil on the last page.
func (p *CursorPaginator[T]) NextCursor() *Cursor {
	if (p.cursor == nil && !p.hasMore) || (p.cursor.PointsToNextItems() && !p.hasMore) {
		return nil
	}
	if len(p.items) == 0 {
		return nil
	}

	return p.mustCursorForItem(p.items[len(p.items)-1], true)
}

// GetCursorForItem builds a cursor from the configured parameters of item.
func (p *CursorPaginator[T]) GetCursorForItem(item T, isNext bool) (*Cursor, error) {
	values, err := itemValues(item)
	if err != nil {
		return nil, err
	}

	parameters := make(map[string]any, len(p.opts.Parameters))
	for _, name := range p.opts.Parameters {
		v, ok := values[name]
		if !ok {
			v = values[name[strings.LastIndex(name, ".")+1:]]
		}
		parameters[name] = cursorValue(v)
	}

	return NewCursor(parameters, isNext), nil
}

// mustCursorForItem is used for boundary items, which are validated on construction.
func (p *CursorPaginator[T]) mustCursorForItem(item T, isNext bool) *Cursor {
	ret, err := p.GetCursorForItem(item, isNext)
	if err != nil {
		panic(fmt.Errorf("cannot build cursor: %w", err))
	}

	return ret
}

func (p *CursorPaginator[T]) Appends(key, value string) *CursorPaginator[T] {
	p.appends(key, value)
	return p
}

func (p *CursorPaginator[T]) AppendQuery(query map[string]string) *CursorPaginator[T] {
	for k, v := range query {
		p.appends(k, v)
	}

	return p
}

func (p *CursorPaginator[T]) WithFragment(fragment string) *CursorPaginator[T] {
	p.opts.Fragment = fragment
	return p
}

func (p *CursorPaginator[T]) WithPath(path string) *CursorPaginator[T] {
	p.opts.Path = path
	return p
}

func (p *CursorPaginator[T]) HasPages() bool {
	return !p.OnFirstPage() || p.HasMorePages()
}

func (p *CursorPaginator[T]) HasMorePages() bool {
	return (p.cursor == nil && p.hasMore) ||
		(p.cursor.PointsToNextItems() && p.hasMore) ||
		p.cursor.PointsToPreviousItems()
}

func (p *CursorPaginator[T]) OnFirstPage() bool {
	return p.cursor == nil || (p.cursor.PointsToPreviousItems() && !p.hasMore)
}

func (p *CursorPaginator[T]) OnLastPage() bool {
	return !p.HasMorePages()
}

// CursorPageObject is the serialized form of a CursorPaginator.
type CursorPageObject[T any] struct {
	Data        []T     `json:"data"`
	Path        string  `json:"path"`
	PerPage     int     `json:"per_page"`
	NextCursor  *string `json:"next_cursor"`
	NextPageURL *string `json:"next_page_url"`
	PrevCursor  *string `json:"prev_cursor"`
	PrevPageURL *string `json:"prev_page_url"`
}

func (p *CursorPaginator[T]) ToObject() CursorPageObject[T] {
	return CursorPageObject[T]{
		Data:        p.items,
		Path:        p.opts.Path,
		PerPage:     p.perPage,
		NextCursor:  nullable(p.NextCursor().Encode()),
		NextPageURL: nullable(p.NextPageURL()),
		PrevCursor:  nullable(p.PreviousCursor().Encode()),
		PrevPageURL: nullable(p.PreviousPageURL()),
	}
}

func (p *CursorPaginator[T]) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.ToObject())
}

func (p *CursorPaginator[T]) String() string {
	return jsonString(p)
}

func itemValues(item any) (map[string]any, error) {
	switch v := item.(type) {
	case map[string]any:
		return v, nil
	case Mapper:
		return v.ToMap(), nil
	default:
		return nil, fmt.Errorf("%w: got %T", ErrUnsupportedItem, item)
	}
}

// cursorValue renders a column value the way it is stored in a cursor.
func cursorValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	case time.Time:
		return val.Format("2006-01-02 15:04:05.999999")
	case *time.Time:
		if val == nil {
			return ""
		}
		return val.Format("2006-01-02 15:04:05.999999")
	default:
		return fmt.Sprint(v)
	}
}
