package catalog

// Placeholders used when the catalog omits a field
const (
	UnknownTitle  = "Unknown Title"
	UnknownAuthor = "Unknown Author"
)

// Book is a normalized catalog entry. ID is the identity key: two books with
// the same ID are the same book regardless of any other field.
type Book struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Description   string   `json:"description,omitempty"`
	CoverImageURL string   `json:"cover_image_url,omitempty"`
	Rating        *float64 `json:"rating,omitempty"` // 0-5 as supplied by the catalog
	ISBN          string   `json:"isbn,omitempty"`
	PublishedDate string   `json:"published_date,omitempty"` // passed through unparsed
	PageCount     *int     `json:"page_count,omitempty"`
}
