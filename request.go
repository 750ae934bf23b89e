package sqlpager

// Request is intended for API payloads. For proper code generation, inline it:
//
//	type MyFilter struct {
//	    Paging Request `json:",inline"`
//	}
type Request struct {
	// PerPage - maximum number of records to return in the response.
	PerPage int `json:"per_page" query:"per_page"`
	// Page - 1-based page number for offset pagination.
	Page int `json:"page" query:"page"`
	// Cursor - token obtained via Cursor.Encode(). Empty means the first page.
	Cursor string `json:"cursor" query:"cursor"`
}

// Decode normalizes the request against MaxPerPage. A malformed cursor decodes to
// nil, which starts from the first page.
func (r Request) Decode() (cursor *Cursor, page int, perPage int) {
	return r.DecodeMax(MaxPerPage)
}

// DecodeMax is Decode with an explicit per-page ceiling.
func (r Request) DecodeMax(maxPerPage int) (cursor *Cursor, page int, perPage int) {
	return DecodeCursor(r.Cursor), NormalizePage(r.Page), NormalizePerPage(r.PerPage, maxPerPage)
}

// Resolvers returns resolvers answering from the request fields.
func (r Request) Resolvers(path string) Resolvers {
	cursor, page, _ := r.Decode()

	return Resolvers{
		CurrentPage:   func(string) int { return page },
		CurrentPath:   func() string { return path },
		CurrentCursor: func(string) *Cursor { return cursor },
	}.WithDefaults()
}
