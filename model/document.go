package model

import "time"

// ParsingMetadata records how a BookDocument was produced.
type ParsingMetadata struct {
	// ParseID is a unique identifier for this parse run, usable for
	// correlating diagnostics across systems.
	ParseID string

	// Duration is the total wall-clock processing time.
	Duration time.Duration

	// Strategies lists the names of the strategies actually attempted, in
	// order, across all stages.
	Strategies []string

	// Diagnostics holds every diagnostic raised by every stage and strategy,
	// in emission order.
	Diagnostics []Diagnostic

	// EstimatedPages is the total page count produced by pagination.
	EstimatedPages int

	// ParserVersion identifies the parser that produced the document.
	ParserVersion string

	// Details carries free-form diagnostic values (detected charset,
	// pagination quality, heuristic notes).
	Details map[string]string
}

// BookDocument is the final normalized book produced by a parse. It is
// immutable once constructed; a parse either produces a complete document or
// fails fatally before one exists.
type BookDocument struct {
	// Metadata is the package metadata.
	Metadata PackageMetadata

	// FileSize is the source archive size in bytes.
	FileSize int64

	// Version is the detected format version ("2.0" or "3.0+"). The value is
	// a heuristic, not a declared version; see ParsingMetadata.Details.
	Version string

	// Chapters is the final flat chapter list.
	Chapters []*ChapterNode

	// Files are the content files in archive reading order.
	Files []*ContentFile

	// Navigation is the parsed navigation tree, nil when absent.
	Navigation *NavigationTree

	// Manifest is the package manifest.
	Manifest Manifest

	// Spine is the ordered spine.
	Spine []SpineItem

	// Parsing records how the document was produced.
	Parsing ParsingMetadata
}

// PageCount returns the total number of pages across all content files.
func (b *BookDocument) PageCount() int {
	n := 0
	for _, f := range b.Files {
		n += f.PageCount()
	}
	return n
}

// ChapterCount returns the number of top-level chapters.
func (b *BookDocument) ChapterCount() int {
	return len(b.Chapters)
}

// Degraded reports whether any content file carries a degraded source tag,
// meaning fallback strategies masked a partial failure.
func (b *BookDocument) Degraded() bool {
	for _, f := range b.Files {
		if f.Info.Source == QualityDegraded {
			return true
		}
	}
	return false
}
