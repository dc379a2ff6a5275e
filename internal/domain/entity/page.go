package entity

type PageContent struct {
	URL   string
	Title string
	HTML  string
}

// ExtractedPage is the readable part of a page. Both fields are empty when
// nothing could be classified as main content.
type ExtractedPage struct {
	Title       string
	TextContent string
}

func (p ExtractedPage) Empty() bool {
	return p.Title == "" && p.TextContent == ""
}

type SearchResult struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type Screenshot struct {
	Data   []byte
	Format string
	Width  int
	Height int
}
