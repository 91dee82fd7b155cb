package model

// SourceQuality distinguishes genuinely parsed content from
// fallback-produced placeholders or degraded reprocessing output.
type SourceQuality int

const (
	// QualityNormal indicates content produced by a regular strategy.
	QualityNormal SourceQuality = iota
	// QualityDegraded indicates fallback or salvage output. Callers can use
	// this to distinguish a real parse from a fallback-masked failure.
	QualityDegraded
)

// String returns a human-readable representation of the source quality.
func (q SourceQuality) String() string {
	switch q {
	case QualityNormal:
		return "normal"
	case QualityDegraded:
		return "degraded"
	default:
		return "unknown"
	}
}

// ProcessingInfo records how a content file was extracted and cleaned.
type ProcessingInfo struct {
	// Strategy is the name of the extraction strategy that produced the file.
	Strategy string

	// OriginalLength is the raw text length before cleaning.
	OriginalLength int

	// CleanedLength is the text length after the filter chain.
	CleanedLength int

	// Filters lists the names of the filters actually applied, in order.
	Filters []string

	// Quality is the content quality score in [0.0, 1.0].
	Quality float64

	// Source tags the file as normal or degraded output.
	Source SourceQuality
}

// ContentFile is one content document from the archive. It is created by the
// content extractor with raw text only; the HTML processor adds cleaned text
// and the pagination engine adds pages.
type ContentFile struct {
	// ID is the manifest ID, or a synthetic ID for scanned/fallback files.
	ID string

	// Href is the archive path of the file.
	Href string

	// MediaType is the declared or inferred media type.
	MediaType string

	// Raw is the unprocessed decoded text.
	Raw string

	// Cleaned is the plain text produced by the HTML processor.
	Cleaned string

	// Length is the cleaned content length (raw length before processing).
	Length int

	// Pages holds the paginated text chunks, in order. Populated only after
	// pagination.
	Pages []string

	// Info records extraction and processing details.
	Info ProcessingInfo
}

// PageCount returns the number of pages, zero before pagination.
func (f *ContentFile) PageCount() int {
	return len(f.Pages)
}
