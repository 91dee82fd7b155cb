// Package folio parses EPUB archives into a normalized in-memory book
// document: metadata, manifest, spine, navigation tree, cleaned content,
// inferred chapters, and paginated text.
//
// Basic usage:
//
//	result, err := folio.Open("book.epub").Parse()
//	if err != nil {
//	    // fatal failure; result still carries diagnostics
//	}
//	fmt.Println(result.Book.Metadata.Title)
//	if len(result.Diagnostics) > 0 {
//	    log.Println(model.FormatDiagnostics(result.Diagnostics))
//	}
//
// With options:
//
//	result, err := folio.Open("book.epub").
//	    PageSize(1000, 600, 1500).
//	    AggressiveCleanup().
//	    Parse()
//
// The pipeline runs strictly ordered stages (validation, structure parsing,
// content extraction, HTML processing, chapter analysis, pagination,
// assembly) and accumulates every stage's diagnostics in the result. Fallback strategies guarantee a minimally viewable book whenever
// validation and structural parsing succeed.
package folio

import (
	"context"
	"errors"
	"time"

	"github.com/tsawler/folio/model"
)

// Version is the parser version recorded in ParsingMetadata.
const Version = "1.0.0"

// Fatal parse errors. The wrapped diagnostic detail is available through
// Result.Diagnostics.
var (
	// ErrValidation indicates the archive failed validation before any
	// structural parsing was attempted.
	ErrValidation = errors.New("folio: archive failed validation")

	// ErrStructure indicates the package structure could not be parsed.
	ErrStructure = errors.New("folio: package structure could not be parsed")

	// ErrNoContent indicates no content documents could be extracted and
	// the placeholder fallback was disabled.
	ErrNoContent = errors.New("folio: no content documents could be extracted")
)

// Parser is a configured parse operation. Zero or more chained option
// calls are followed by a terminal Parse call. A Parser is single-use.
type Parser struct {
	path string
	name string
	data []byte
	cfg  Config
}

// Open prepares a parse of the archive at path.
//
// Example:
//
//	result, err := folio.Open("book.epub").Parse()
func Open(path string) *Parser {
	return &Parser{path: path, name: path, cfg: DefaultConfig()}
}

// FromBytes prepares a parse of in-memory archive data. name is used for
// extension checks and diagnostics only.
func FromBytes(name string, data []byte) *Parser {
	return &Parser{name: name, data: data, cfg: DefaultConfig()}
}

// WithConfig replaces the parser configuration wholesale.
func (p *Parser) WithConfig(cfg Config) *Parser {
	p.cfg = cfg
	return p
}

// MaxArchiveSize sets the advisory archive size bound in bytes.
func (p *Parser) MaxArchiveSize(n int64) *Parser {
	p.cfg.MaxArchiveSize = n
	return p
}

// PageSize sets the target, minimum, and maximum characters per page.
func (p *Parser) PageSize(target, min, max int) *Parser {
	p.cfg.TargetPageChars = target
	p.cfg.MinPageChars = min
	p.cfg.MaxPageChars = max
	return p
}

// MinQuality sets the minimum acceptable HTML processing quality score.
func (p *Parser) MinQuality(q float64) *Parser {
	p.cfg.MinQuality = q
	return p
}

// DisableFallbacks turns off the placeholder content fallback, so archives
// with no discoverable content fail instead of degrading.
func (p *Parser) DisableFallbacks() *Parser {
	p.cfg.EnableFallbacks = false
	return p
}

// AggressiveCleanup enables aggressive HTML cleanup (drops numeric
// reference markers like [12]).
func (p *Parser) AggressiveCleanup() *Parser {
	p.cfg.AggressiveCleanup = true
	return p
}

// ReconcileChapterPages replaces estimated chapter page ranges with the
// real page spans produced by pagination.
func (p *Parser) ReconcileChapterPages() *Parser {
	p.cfg.ReconcileChapterPages = true
	return p
}

// Result is the outcome of a parse. On fatal failure Book is nil and the
// accompanying error is non-nil; diagnostics, strategies, and elapsed time
// are populated either way. There is no partial-success variant: a Book,
// however degraded by fallback strategies, is either produced or not.
type Result struct {
	// Book is the normalized book document, nil on fatal failure.
	Book *model.BookDocument

	// Diagnostics are all diagnostics from all attempted stages and
	// strategies, in emission order.
	Diagnostics []model.Diagnostic

	// StrategiesUsed lists the strategy names attempted, in order.
	StrategiesUsed []string

	// Elapsed is the total processing time.
	Elapsed time.Duration
}

// Parse runs the pipeline to completion.
func (p *Parser) Parse() (*Result, error) {
	return p.ParseContext(context.Background())
}

// ParseContext runs the pipeline, honoring ctx cancellation at stage
// boundaries only. A stage that starts always finishes, preserving the
// completeness of its diagnostics.
func (p *Parser) ParseContext(ctx context.Context) (*Result, error) {
	return p.parse(ctx)
}

// Must is a helper that wraps a call returning (*Result, error) and panics
// on error. Intended for scripts and tests.
//
// Example:
//
//	book := folio.Must(folio.Open("book.epub").Parse()).Book
func Must(r *Result, err error) *Result {
	if err != nil {
		panic(err)
	}
	return r
}
