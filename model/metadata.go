package model

import "strings"

// DefaultTitle is the placeholder used when a package document declares no
// title under any recognized element.
const DefaultTitle = "Unknown Title"

// PackageMetadata holds the Dublin Core metadata extracted from the package
// document. Title is always set, falling back to DefaultTitle; every other
// field is optional and left empty when absent.
type PackageMetadata struct {
	Title        string
	Author       string
	Language     string
	Publisher    string
	Description  string
	Identifier   string
	Rights       string
	Subject      string
	Contributors []string
}

// Merge fills absent fields of the receiver from other and returns the
// result. Fields already set are never overwritten.
func (m PackageMetadata) Merge(other PackageMetadata) PackageMetadata {
	if m.Title == "" || m.Title == DefaultTitle {
		if other.Title != "" {
			m.Title = other.Title
		}
	}
	if m.Author == "" {
		m.Author = other.Author
	}
	if m.Language == "" {
		m.Language = other.Language
	}
	if m.Publisher == "" {
		m.Publisher = other.Publisher
	}
	if m.Description == "" {
		m.Description = other.Description
	}
	if m.Identifier == "" {
		m.Identifier = other.Identifier
	}
	if m.Rights == "" {
		m.Rights = other.Rights
	}
	if m.Subject == "" {
		m.Subject = other.Subject
	}
	if len(m.Contributors) == 0 {
		m.Contributors = other.Contributors
	}
	return m
}

// ManifestItem represents one file declared in the package manifest.
type ManifestItem struct {
	// ID is unique within the manifest.
	ID string

	// Href is the entry path resolved relative to the package document's
	// directory.
	Href string

	// MediaType is the declared media type string.
	MediaType string

	// IsNav marks the EPUB 3 navigation document ("nav" property).
	IsNav bool

	// IsCoverImage marks the cover image item ("cover-image" property).
	IsCoverImage bool

	// Linear mirrors the spine linear flag for items that appear there.
	Linear bool
}

// Manifest is the flat, ordered list of manifest items keyed by ID.
type Manifest struct {
	Items []ManifestItem
}

// Add appends an item to the manifest.
func (m *Manifest) Add(item ManifestItem) {
	m.Items = append(m.Items, item)
}

// Len returns the number of manifest items.
func (m *Manifest) Len() int {
	return len(m.Items)
}

// ByID looks up a manifest item by its ID.
func (m *Manifest) ByID(id string) (ManifestItem, bool) {
	for _, item := range m.Items {
		if item.ID == id {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// ByMediaType returns all manifest items with the given media type,
// preserving manifest order. Matching is case-insensitive.
func (m *Manifest) ByMediaType(mediaType string) []ManifestItem {
	var out []ManifestItem
	for _, item := range m.Items {
		if strings.EqualFold(item.MediaType, mediaType) {
			out = append(out, item)
		}
	}
	return out
}

// Nav returns the manifest item flagged as the navigation document, if any.
func (m *Manifest) Nav() (ManifestItem, bool) {
	for _, item := range m.Items {
		if item.IsNav {
			return item, true
		}
	}
	return ManifestItem{}, false
}

// SpineItem references a manifest item in reading order. Spine order is the
// document reading order; non-linear items are retained but flagged.
type SpineItem struct {
	IDRef  string
	Linear bool
}
