package catalog

import (
	"errors"
	"log/slog"
	"strings"

	books "google.golang.org/api/books/v1"
)

const (
	identifierISBN13 = "ISBN_13"
	identifierISBN10 = "ISBN_10"
)

// ErrMissingID is returned for catalog items that carry no volume id.
var ErrMissingID = errors.New("volume has no id")

// parseVolume maps a decoded catalog volume onto a Book, applying the
// placeholder and preference rules for absent fields.
func parseVolume(v *books.Volume) (Book, error) {
	if v == nil || strings.TrimSpace(v.Id) == "" {
		return Book{}, ErrMissingID
	}

	info := v.VolumeInfo
	if info == nil {
		info = &books.VolumeVolumeInfo{}
	}

	book := Book{
		ID:            v.Id,
		Title:         info.Title,
		Description:   info.Description,
		CoverImageURL: coverURL(info.ImageLinks),
		ISBN:          preferredISBN(info.IndustryIdentifiers),
		PublishedDate: info.PublishedDate,
	}
	if book.Title == "" {
		book.Title = UnknownTitle
	}
	if len(info.Authors) == 0 {
		book.Authors = []string{UnknownAuthor}
	} else {
		book.Authors = append([]string(nil), info.Authors...)
	}

	// The catalog omits these fields when unknown and never reports a zero
	// average rating, so zero means absent.
	if info.AverageRating > 0 {
		rating := info.AverageRating
		book.Rating = &rating
	}
	if info.PageCount > 0 {
		pages := int(info.PageCount)
		book.PageCount = &pages
	}

	return book, nil
}

// parseVolumes parses every item, dropping those that fail validation while
// keeping catalog order.
func parseVolumes(items []*books.Volume) []Book {
	parsed := make([]Book, 0, len(items))
	for i, item := range items {
		book, err := parseVolume(item)
		if err != nil {
			slog.Debug("Dropping invalid catalog item", "index", i, "error", err)
			continue
		}
		parsed = append(parsed, book)
	}
	return parsed
}

func coverURL(links *books.VolumeVolumeInfoImageLinks) string {
	if links == nil {
		return ""
	}
	if links.Thumbnail != "" {
		return links.Thumbnail
	}
	return links.SmallThumbnail
}

func preferredISBN(ids []*books.VolumeVolumeInfoIndustryIdentifiers) string {
	var isbn10 string
	for _, id := range ids {
		if id == nil {
			continue
		}
		switch id.Type {
		case identifierISBN13:
			return id.Identifier
		case identifierISBN10:
			if isbn10 == "" {
				isbn10 = id.Identifier
			}
		}
	}
	return isbn10
}
