package umd

import (
	"strconv"
	"time"
)

// Category identifies the kind of content a UMD container holds.
type Category uint8

const (
	// CategoryNovel is textual content, the only category this package
	// decodes fully.
	CategoryNovel Category = 1

	// CategoryComic is image-based content. The format reserves the value
	// but specifies no record layouts for it; containers declaring it
	// decode with a warning (see [Book.Warnings]).
	CategoryComic Category = 2
)

// String returns the category name ("Novel", "Comic", or "Unknown").
func (c Category) String() string {
	switch c {
	case CategoryNovel:
		return "Novel"
	case CategoryComic:
		return "Comic"
	default:
		return "Unknown"
	}
}

// Metadata holds the header fields of a UMD container.
type Metadata struct {
	// Category is the declared content category.
	Category Category

	// Title is the book title.
	Title string

	// Author is the book author.
	Author string

	// Year, Month and Date are the publication date components, stored as
	// text in the container. Use PublishDate to combine them.
	Year  string
	Month string
	Date  string

	// BookType is the free-form genre/type field.
	BookType string

	// Publisher is the publisher name.
	Publisher string

	// Retailer is the retailer or distributor name.
	Retailer string

	// FullLength is the declared character count of the whole body text.
	FullLength int

	// ChapterOffsets are character offsets into the body text where each
	// chapter begins. Always the same length as ChapterTitles.
	ChapterOffsets []int

	// ChapterTitles are the chapter display titles in reading order.
	ChapterTitles []string

	// BodyOffset is the byte position where the compressed body content
	// begins, immediately after the last header block.
	BodyOffset int64
}

// PublishDate combines the Year, Month and Date fields into a single time
// value. ok is false when the fields are empty or do not form a valid date.
func (m Metadata) PublishDate() (t time.Time, ok bool) {
	year, err := strconv.Atoi(m.Year)
	if err != nil || year <= 0 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(m.Month)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(m.Date)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	t = time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != time.Month(month) {
		// time.Date normalises e.g. Feb 30 to Mar 2; reject such input.
		return time.Time{}, false
	}
	return t, true
}

// Chapter is one chapter of the decoded document.
type Chapter struct {
	// Title is the chapter display title from the metadata header.
	Title string

	// Content is the chapter text, sliced out of the reassembled body.
	Content string
}
