package model

// ChapterNode is one entry in the final flat chapter list. StartPage and
// EndPage are inclusive, 0-based, and assigned only after the chapter merge;
// before assignment both hold zero and must not be treated as a valid range.
// Once assigned, EndPage >= StartPage.
type ChapterNode struct {
	// ID is a generated chapter identifier.
	ID string

	// Title is the non-empty display title.
	Title string

	// Level is the 1-based nesting depth.
	Level int

	// Href is the optional source document path.
	Href string

	// Anchor is the optional fragment within Href.
	Anchor string

	// StartPage is the inclusive first page of the chapter.
	StartPage int

	// EndPage is the inclusive last page of the chapter.
	EndPage int

	// Children are optional nested sub-chapters.
	Children []*ChapterNode

	// File is an optional back-reference to the chapter's content file.
	File *ContentFile
}

// HasPageRange reports whether a page range has been assigned.
func (c *ChapterNode) HasPageRange() bool {
	return c.EndPage > 0 || c.StartPage > 0
}
