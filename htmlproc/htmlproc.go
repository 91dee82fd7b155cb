// Package htmlproc converts raw HTML content into cleaned plain text by
// running each content file through an ordered chain of text filters, then
// scores the result. Files scoring below the configured minimum are
// reprocessed through an unconditional strip-all salvage path and tagged
// degraded.
package htmlproc

import (
	"fmt"
	"html"
	"regexp"
	"strings"

	"github.com/tsawler/folio/model"
)

const stage = "html-processor"

// Filter identifies one step of the fixed filter chain. Filters always run
// in declaration order; a failing filter is skipped, not fatal.
type Filter int

const (
	// FilterEntities decodes HTML entities in a single pass.
	FilterEntities Filter = iota
	// FilterScripts strips script and style elements, comments, and the
	// document head.
	FilterScripts
	// FilterStructure converts structural tags to whitespace and strips the
	// rest.
	FilterStructure
	// FilterNormalize canonicalizes quotes, dashes, and ellipses.
	FilterNormalize
	// FilterWhitespace collapses runs of whitespace.
	FilterWhitespace
	// FilterQuality validates the result and computes the quality score.
	FilterQuality
)

// String returns the filter name.
func (f Filter) String() string {
	switch f {
	case FilterEntities:
		return "entity-decode"
	case FilterScripts:
		return "strip-scripts"
	case FilterStructure:
		return "structure-to-text"
	case FilterNormalize:
		return "normalize-text"
	case FilterWhitespace:
		return "collapse-whitespace"
	case FilterQuality:
		return "quality-check"
	default:
		return "unknown"
	}
}

// chain is the fixed filter order.
var chain = []Filter{
	FilterEntities,
	FilterScripts,
	FilterStructure,
	FilterNormalize,
	FilterWhitespace,
	FilterQuality,
}

// Options configures HTML processing.
type Options struct {
	// MinQuality is the minimum acceptable quality score. Files scoring
	// below it are reprocessed through the strip-all salvage path.
	MinQuality float64

	// Aggressive additionally drops bracketed reference markers.
	Aggressive bool
}

// DefaultOptions returns the default processing options.
func DefaultOptions() Options {
	return Options{MinQuality: 0.3}
}

// Process cleans every content file in place, populating Cleaned, Length,
// and Info. It returns the diagnostics raised along the way.
func Process(files []*model.ContentFile, opts Options) []model.Diagnostic {
	var diags []model.Diagnostic
	for _, f := range files {
		diags = append(diags, processFile(f, opts)...)
	}
	return diags
}

// processFile runs one file through the chain.
func processFile(f *model.ContentFile, opts Options) []model.Diagnostic {
	var diags []model.Diagnostic

	text := f.Raw
	applied := make([]string, 0, len(chain))
	quality := f.Info.Quality

	for _, filt := range chain {
		if filt == FilterQuality {
			quality = scoreQuality(f.Raw, text)
			applied = append(applied, filt.String())
			continue
		}

		out, err := runFilter(filt, text, opts)
		if err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("filter %s failed on %s: %v; skipping", filt, f.Href, err)).
				WithLocation(f.Href))
			continue
		}
		text = out
		applied = append(applied, filt.String())
	}

	// Salvage path: strip everything and keep the original score rather
	// than rescoring the degraded output.
	if quality < opts.MinQuality {
		diags = append(diags, model.NewWarning(stage,
			fmt.Sprintf("content quality %.2f below minimum %.2f for %s; using strip-all salvage",
				quality, opts.MinQuality, f.Href)).
			WithLocation(f.Href))
		text = stripAll(f.Raw)
		applied = append(applied, "strip-all")
		f.Info.Source = model.QualityDegraded
	}

	f.Cleaned = text
	f.Length = len(text)
	f.Info.CleanedLength = len(text)
	f.Info.Filters = applied
	f.Info.Quality = clamp01(quality)

	return diags
}

// runFilter applies a single filter, converting panics into errors so one
// bad filter never aborts the file.
func runFilter(f Filter, text string, opts Options) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch f {
	case FilterEntities:
		return decodeEntities(text), nil
	case FilterScripts:
		return stripScripts(text, opts.Aggressive), nil
	case FilterStructure:
		return structureToText(text), nil
	case FilterNormalize:
		return normalizeText(text), nil
	case FilterWhitespace:
		return collapseWhitespace(text), nil
	default:
		return text, nil
	}
}

// decodeEntities decodes named and numeric HTML entities exactly once:
// "&amp;amp;" becomes "&amp;", never "&".
func decodeEntities(s string) string {
	return html.UnescapeString(s)
}

var (
	scriptPattern  = regexp.MustCompile(`(?is)<script[^>]*>.*?</script>`)
	stylePattern   = regexp.MustCompile(`(?is)<style[^>]*>.*?</style>`)
	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)
	headPattern    = regexp.MustCompile(`(?is)<head[^>]*>.*?</head>`)
	titlePattern   = regexp.MustCompile(`(?is)<title[^>]*>.*?</title>`)
	bracketRefs    = regexp.MustCompile(`\[\d{1,3}\]`)
)

// stripScripts removes script/style elements, comments, and the document
// head. Head content (title, meta, links) is document metadata, not book
// text. Aggressive mode also drops numeric reference markers.
func stripScripts(s string, aggressive bool) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = stylePattern.ReplaceAllString(s, "")
	s = commentPattern.ReplaceAllString(s, "")
	s = headPattern.ReplaceAllString(s, "")
	s = titlePattern.ReplaceAllString(s, "")
	if aggressive {
		s = bracketRefs.ReplaceAllString(s, "")
	}
	return s
}

var (
	headingPattern   = regexp.MustCompile(`(?i)</?h[1-6][^>]*>`)
	breakPattern     = regexp.MustCompile(`(?i)<br[^>]*/?>`)
	blockPattern     = regexp.MustCompile(`(?i)</?(?:p|div|blockquote|section|article)[^>]*>`)
	listOpenPattern  = regexp.MustCompile(`(?i)<li[^>]*>`)
	listClosePattern = regexp.MustCompile(`(?i)</li>`)
	cellClosePattern = regexp.MustCompile(`(?i)</t[dh]>`)
	rowClosePattern  = regexp.MustCompile(`(?i)</tr>`)
	anyTagPattern    = regexp.MustCompile(`<[^>]*>`)
)

// structureToText converts structural tags to whitespace: paragraph-level
// tags and line breaks become newlines, headings double newlines, list
// items bulleted lines, table cells tab separators. All remaining tags are
// stripped.
func structureToText(s string) string {
	s = headingPattern.ReplaceAllString(s, "\n\n")
	s = breakPattern.ReplaceAllString(s, "\n")
	s = blockPattern.ReplaceAllString(s, "\n")
	s = listOpenPattern.ReplaceAllString(s, "\n• ")
	s = listClosePattern.ReplaceAllString(s, "\n")
	s = cellClosePattern.ReplaceAllString(s, "\t")
	s = rowClosePattern.ReplaceAllString(s, "\n")
	s = anyTagPattern.ReplaceAllString(s, "")
	return s
}

// textNormalizer canonicalizes typographic characters to their plain
// equivalents.
var textNormalizer = strings.NewReplacer(
	"“", `"`, "”", `"`, "„", `"`,
	"‘", "'", "’", "'",
	"—", " - ", "–", "-",
	"…", "...",
	" ", " ",
)

// normalizeText canonicalizes quotes, dashes, ellipses, and non-breaking
// spaces.
func normalizeText(s string) string {
	return textNormalizer.Replace(s)
}

var (
	tabRuns     = regexp.MustCompile(`[ \t]*\t[ \t]*`)
	spaceRuns   = regexp.MustCompile(` +`)
	blankRuns   = regexp.MustCompile(`\n{3,}`)
	lineLeading = regexp.MustCompile(`(?m)^[ \t]+|[ \t]+$`)
)

// collapseWhitespace collapses runs of spaces and blank lines while
// preserving paragraph breaks. Runs containing a tab collapse to a single
// tab so table-cell separators survive.
func collapseWhitespace(s string) string {
	s = tabRuns.ReplaceAllString(s, "\t")
	s = spaceRuns.ReplaceAllString(s, " ")
	s = lineLeading.ReplaceAllString(s, "")
	s = blankRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// stripAll is the unconditional salvage path: drop every tag, decode
// entities, collapse whitespace.
func stripAll(s string) string {
	s = scriptPattern.ReplaceAllString(s, "")
	s = stylePattern.ReplaceAllString(s, "")
	s = commentPattern.ReplaceAllString(s, "")
	s = anyTagPattern.ReplaceAllString(s, " ")
	s = decodeEntities(s)
	return collapseWhitespace(s)
}

// scoreQuality computes the weighted quality score of cleaned output:
// length ratio (0.3), tag-stripped retention (0.5), and a binary structural
// integrity signal (0.2). Always within [0, 1].
func scoreQuality(raw, cleaned string) float64 {
	if len(raw) == 0 {
		return 0
	}

	lengthRatio := clamp01(float64(len(cleaned)) / float64(len(raw)))

	stripped := strings.TrimSpace(anyTagPattern.ReplaceAllString(raw, " "))
	retention := 1.0
	if len(stripped) > 0 {
		retention = clamp01(float64(len(cleaned)) / float64(len(stripped)))
	} else if len(cleaned) == 0 {
		retention = 0
	}

	structural := 0.0
	if strings.Contains(cleaned, "\n\n") ||
		strings.ContainsAny(cleaned, ".!?") ||
		len(cleaned) > 200 {
		structural = 1.0
	}

	return clamp01(0.3*lengthRatio + 0.5*retention + 0.2*structural)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
