// Package extract discovers and decodes the content documents of a parsed
// archive. It walks a fixed chain of strategies ordered by reliability:
// spine order, manifest listing, directory scan, and a placeholder fallback.
// The first strategy yielding at least one content file wins, but the
// diagnostics of every attempted strategy are retained.
package extract

import (
	"fmt"
	"path"
	"strings"

	"github.com/tsawler/folio/archive"
	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/structure"
)

const stage = "content-extractor"

// Strategy identifies a content extraction strategy. The set is closed:
// strategies run in priority order and each seeds a different confidence
// score on the files it produces.
type Strategy int

const (
	// StrategySpine extracts files in spine order (reading order).
	StrategySpine Strategy = iota
	// StrategyManifest extracts every HTML-family manifest item, with no
	// reading-order guarantee.
	StrategyManifest
	// StrategyDirectory scans the archive for HTML-family entries, ignoring
	// manifest and spine entirely.
	StrategyDirectory
	// StrategyFallback synthesizes a single placeholder file. It always
	// succeeds, trading correctness for graceful degradation.
	StrategyFallback
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategySpine:
		return "spine"
	case StrategyManifest:
		return "manifest"
	case StrategyDirectory:
		return "directory-scan"
	case StrategyFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Priority returns the chain position, lower first.
func (s Strategy) Priority() int {
	return int(s) + 1
}

// seedQuality returns the initial quality score for files the strategy
// produces.
func (s Strategy) seedQuality() float64 {
	switch s {
	case StrategySpine:
		return 1.0
	case StrategyManifest:
		return 0.8
	case StrategyDirectory:
		return 0.6
	case StrategyFallback:
		return 0.1
	default:
		return 0
	}
}

// htmlMediaTypes are the media types treated as HTML-family content.
var htmlMediaTypes = map[string]bool{
	"application/xhtml+xml": true,
	"text/html":             true,
	"application/html":      true,
	"text/x-oeb1-document":  true,
}

// htmlExtensions are the filename extensions treated as HTML-family content
// by the directory scan.
var htmlExtensions = []string{".xhtml", ".html", ".htm", ".xht"}

func isHTMLMediaType(mt string) bool {
	return htmlMediaTypes[strings.ToLower(strings.TrimSpace(mt))]
}

func isHTMLPath(name string) bool {
	lower := strings.ToLower(name)
	for _, ext := range htmlExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// Run walks the strategy chain and returns the extracted content files, the
// merged diagnostics of every attempted strategy, and the names of the
// strategies attempted in order. When enableFallback is false the
// placeholder strategy is skipped and the result may be empty.
func Run(a *archive.Archive, doc *structure.Document, enableFallback bool) ([]*model.ContentFile, []model.Diagnostic, []string) {
	var (
		diags     []model.Diagnostic
		attempted []string
	)

	chain := []Strategy{StrategySpine, StrategyManifest, StrategyDirectory, StrategyFallback}
	for _, s := range chain {
		if s == StrategyFallback && !enableFallback {
			break
		}

		attempted = append(attempted, s.String())
		files, d := run(s, a, doc)
		diags = append(diags, d...)

		if len(files) > 0 {
			return files, diags, attempted
		}
		diags = append(diags, model.NewError(stage,
			fmt.Sprintf("%s strategy produced no content files", s)))
	}

	return nil, diags, attempted
}

// run dispatches a single strategy.
func run(s Strategy, a *archive.Archive, doc *structure.Document) ([]*model.ContentFile, []model.Diagnostic) {
	switch s {
	case StrategySpine:
		return runSpine(a, doc)
	case StrategyManifest:
		return runManifest(a, doc)
	case StrategyDirectory:
		return runDirectory(a)
	case StrategyFallback:
		return runFallback(doc)
	default:
		return nil, nil
	}
}

// runSpine extracts content in spine order. Missing manifest linkage or
// missing archive entries are warnings, not failures: remaining spine items
// still extract.
func runSpine(a *archive.Archive, doc *structure.Document) ([]*model.ContentFile, []model.Diagnostic) {
	var (
		files []*model.ContentFile
		diags []model.Diagnostic
	)

	for _, si := range doc.Spine {
		item, ok := doc.Manifest.ByID(si.IDRef)
		if !ok {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("spine references unknown manifest id %q", si.IDRef)))
			continue
		}
		if !isHTMLMediaType(item.MediaType) {
			continue
		}

		href := doc.ResolveHref(item.Href)
		text, err := a.ReadText(href)
		if err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("spine item %q not found in archive", href)).
				WithLocation(href))
			continue
		}

		files = append(files, newContentFile(item.ID, href, item.MediaType, text, StrategySpine))
	}

	return files, diags
}

// runManifest extracts every HTML-family manifest item regardless of spine
// membership. Confidence is lower than spine order because the manifest
// carries no reading-order guarantee.
func runManifest(a *archive.Archive, doc *structure.Document) ([]*model.ContentFile, []model.Diagnostic) {
	var (
		files []*model.ContentFile
		diags []model.Diagnostic
	)

	for _, item := range doc.Manifest.Items {
		if !isHTMLMediaType(item.MediaType) {
			continue
		}

		href := doc.ResolveHref(item.Href)
		text, err := a.ReadText(href)
		if err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("manifest item %q not found in archive", href)).
				WithLocation(href))
			continue
		}

		files = append(files, newContentFile(item.ID, href, item.MediaType, text, StrategyManifest))
	}

	return files, diags
}

// runDirectory scans every archive entry outside META-INF/ whose name ends
// in an HTML-family extension.
func runDirectory(a *archive.Archive) ([]*model.ContentFile, []model.Diagnostic) {
	var (
		files []*model.ContentFile
		diags []model.Diagnostic
	)

	n := 0
	for _, name := range a.Entries() {
		if strings.HasPrefix(name, "META-INF/") || !isHTMLPath(name) {
			continue
		}

		text, err := a.ReadText(name)
		if err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("entry %q could not be read", name)).
				WithLocation(name))
			continue
		}

		n++
		id := fmt.Sprintf("scan-%d", n)
		base := strings.TrimSuffix(path.Base(name), path.Ext(name))
		if base != "" {
			id = fmt.Sprintf("scan-%s", base)
		}

		files = append(files, newContentFile(id, name, "text/html", text, StrategyDirectory))
	}

	return files, diags
}

// runFallback synthesizes a single human-readable placeholder file so the
// pipeline never fails outright on an unparseable archive.
func runFallback(doc *structure.Document) ([]*model.ContentFile, []model.Diagnostic) {
	var b strings.Builder
	b.WriteString("This book could not be fully parsed.\n\n")
	b.WriteString("Title: " + doc.Metadata.Title + "\n")
	if doc.Metadata.Author != "" {
		b.WriteString("Author: " + doc.Metadata.Author + "\n")
	}
	b.WriteString("\nNo readable content documents were found in the archive. ")
	b.WriteString("The file may be damaged, encrypted, or use an unsupported layout.")

	f := newContentFile("fallback-content", "", "text/plain", b.String(), StrategyFallback)
	f.Info.Source = model.QualityDegraded

	diags := []model.Diagnostic{
		model.NewWarning(stage, "no content strategy succeeded; substituting placeholder content").
			WithSuggestion("inspect the archive manually to recover the original text"),
	}
	return []*model.ContentFile{f}, diags
}

// newContentFile builds a ContentFile with raw text and the strategy's seed
// quality. Cleaned text and pages are added by later stages.
func newContentFile(id, href, mediaType, raw string, s Strategy) *model.ContentFile {
	return &model.ContentFile{
		ID:        id,
		Href:      href,
		MediaType: mediaType,
		Raw:       raw,
		Length:    len(raw),
		Info: model.ProcessingInfo{
			Strategy:       s.String(),
			OriginalLength: len(raw),
			Quality:        s.seedQuality(),
			Source:         model.QualityNormal,
		},
	}
}
