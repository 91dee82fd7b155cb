// Package paginate splits cleaned content into page-sized text chunks. For
// each content file it picks one of four strategies based on the content's
// shape (a single page for short files, greedy paragraph packing, greedy
// sentence packing, or forced character breaks) and computes an aggregate
// quality score over all produced pages.
package paginate

import (
	"fmt"
	"math"
	"strings"

	"github.com/tsawler/folio/model"
)

const stage = "pagination-engine"

// EmptyPageMarker replaces pages that trim to nothing; empty pages are
// rendered explicitly rather than silently dropped.
const EmptyPageMarker = "(empty page)"

// sentenceDensityWindow is the character window in which roughly one
// sentence-ending punctuation mark must appear for sentence packing to be
// viable.
const sentenceDensityWindow = 500

// breakUtilizationFloor is the minimum page utilization a backed-off forced
// break must retain to prefer a word boundary over a hard cut.
const breakUtilizationFloor = 0.8

// Strategy identifies a pagination strategy. The set is closed and selected
// per file by content shape.
type Strategy int

const (
	// StrategySinglePage keeps short content as one page.
	StrategySinglePage Strategy = iota
	// StrategyParagraph greedily packs paragraphs up to the page limit.
	StrategyParagraph
	// StrategySentence greedily packs sentences up to the page limit.
	StrategySentence
	// StrategyForcedBreak cuts at fixed character intervals, backing off to
	// the nearest preceding space or newline when that keeps the page
	// reasonably full.
	StrategyForcedBreak
)

// String returns the strategy name.
func (s Strategy) String() string {
	switch s {
	case StrategySinglePage:
		return "single-page"
	case StrategyParagraph:
		return "paragraph"
	case StrategySentence:
		return "sentence"
	case StrategyForcedBreak:
		return "forced-break"
	default:
		return "unknown"
	}
}

// pageQuality is the strategy-reported per-page quality used in the
// aggregate score.
func (s Strategy) pageQuality() float64 {
	switch s {
	case StrategySinglePage:
		return 1.0
	case StrategyParagraph:
		return 0.9
	case StrategySentence:
		return 0.75
	case StrategyForcedBreak:
		return 0.5
	default:
		return 0
	}
}

// Options configures pagination.
type Options struct {
	// TargetChars is the preferred page length in characters.
	TargetChars int

	// MinChars is the advisory lower bound for page length.
	MinChars int

	// MaxChars is the hard page length limit driving strategy selection.
	MaxChars int

	// PreserveParagraphs prefers paragraph packing when the content shape
	// allows it.
	PreserveParagraphs bool
}

// DefaultOptions returns the default page size bounds.
func DefaultOptions() Options {
	return Options{
		TargetChars:        1200,
		MinChars:           800,
		MaxChars:           1800,
		PreserveParagraphs: true,
	}
}

// Result summarizes a pagination run.
type Result struct {
	// TotalPages is the page count across all files. Numbering is global
	// and sequential in file order.
	TotalPages int

	// Quality is the aggregate pagination quality in [0, 1].
	Quality float64

	// StrategiesUsed lists the distinct strategies applied, in first-use
	// order.
	StrategiesUsed []string
}

// Run paginates every content file in place, populating Pages, and returns
// the aggregate result and diagnostics.
func Run(files []*model.ContentFile, opts Options) (*Result, []model.Diagnostic) {
	if opts.MaxChars <= 0 {
		opts = DefaultOptions()
	}

	var (
		diags      []model.Diagnostic
		pageLens   []int
		pageQs     []float64
		used       []string
		usedSet    = make(map[string]bool)
		totalPages int
	)

	for _, f := range files {
		s := chooseStrategy(f.Cleaned, opts)
		pages := split(s, f.Cleaned, opts)

		// Pages are trimmed; empties become explicit markers.
		for i, p := range pages {
			p = strings.TrimSpace(p)
			if p == "" {
				p = EmptyPageMarker
			}
			pages[i] = p
		}
		if len(pages) == 0 {
			pages = []string{EmptyPageMarker}
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("content file %s produced no pages; substituting empty page", f.Href)).
				WithLocation(f.Href))
		}

		f.Pages = pages
		totalPages += len(pages)

		if !usedSet[s.String()] {
			usedSet[s.String()] = true
			used = append(used, s.String())
		}
		for _, p := range pages {
			pageLens = append(pageLens, len(p))
			pageQs = append(pageQs, s.pageQuality())
		}
	}

	return &Result{
		TotalPages:     totalPages,
		Quality:        aggregateQuality(pageLens, pageQs, opts.TargetChars),
		StrategiesUsed: used,
	}, diags
}

// chooseStrategy picks the pagination strategy from the content shape.
func chooseStrategy(content string, opts Options) Strategy {
	if len(content) <= opts.MaxChars {
		return StrategySinglePage
	}

	if opts.PreserveParagraphs {
		paragraphs := splitParagraphs(content)
		if len(paragraphs) > 1 {
			avg := len(content) / len(paragraphs)
			if avg < 2*opts.MaxChars {
				return StrategyParagraph
			}
		}
	}

	if sentenceEnders(content) >= len(content)/sentenceDensityWindow {
		return StrategySentence
	}

	return StrategyForcedBreak
}

// split dispatches the selected strategy.
func split(s Strategy, content string, opts Options) []string {
	switch s {
	case StrategySinglePage:
		return []string{content}
	case StrategyParagraph:
		return packGreedy(splitParagraphs(content), "\n\n", opts.MaxChars)
	case StrategySentence:
		return packGreedy(splitSentences(content), " ", opts.MaxChars)
	case StrategyForcedBreak:
		return forcedBreak(content, opts.MaxChars)
	default:
		return nil
	}
}

// splitParagraphs splits content on blank lines, dropping empty segments.
func splitParagraphs(content string) []string {
	var out []string
	for _, p := range strings.Split(content, "\n\n") {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences splits content after sentence-ending punctuation followed
// by whitespace.
func splitSentences(content string) []string {
	var (
		out   []string
		start int
	)
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '.', '!', '?':
			end := i + 1
			for end < len(content) && (content[end] == '.' || content[end] == '!' || content[end] == '?') {
				end++
			}
			if end >= len(content) || content[end] == ' ' || content[end] == '\n' || content[end] == '\t' {
				s := strings.TrimSpace(content[start:end])
				if s != "" {
					out = append(out, s)
				}
				start = end
				i = end - 1
			}
		}
	}
	if rest := strings.TrimSpace(content[start:]); rest != "" {
		out = append(out, rest)
	}
	return out
}

// sentenceEnders counts sentence-ending punctuation marks.
func sentenceEnders(content string) int {
	n := 0
	for i := 0; i < len(content); i++ {
		switch content[i] {
		case '.', '!', '?':
			n++
		}
	}
	return n
}

// packGreedy accumulates units into pages until adding the next unit would
// exceed max, then flushes. A single unit longer than max gets its own
// oversized page rather than being split further.
func packGreedy(units []string, sep string, max int) []string {
	var (
		pages []string
		cur   strings.Builder
	)

	flush := func() {
		if cur.Len() > 0 {
			pages = append(pages, cur.String())
			cur.Reset()
		}
	}

	for _, u := range units {
		add := len(u)
		if cur.Len() > 0 {
			add += len(sep)
		}
		if cur.Len() > 0 && cur.Len()+add > max {
			flush()
		}
		if cur.Len() > 0 {
			cur.WriteString(sep)
		}
		cur.WriteString(u)
	}
	flush()
	return pages
}

// forcedBreak cuts content at fixed intervals, backing off to the nearest
// preceding space or newline when that breakpoint still keeps the page at
// least breakUtilizationFloor full.
func forcedBreak(content string, max int) []string {
	var pages []string

	for len(content) > 0 {
		if len(content) <= max {
			pages = append(pages, content)
			break
		}

		cut := max
		if idx := strings.LastIndexAny(content[:max], " \n"); idx >= int(float64(max)*breakUtilizationFloor) {
			cut = idx
		}

		pages = append(pages, content[:cut])
		content = strings.TrimLeft(content[cut:], " \n")
	}

	return pages
}

// aggregateQuality combines page-length consistency (0.3), target-length
// achievement (0.4), and mean strategy-reported page quality (0.3), clamped
// to [0, 1].
func aggregateQuality(pageLens []int, pageQs []float64, target int) float64 {
	if len(pageLens) == 0 {
		return 0
	}

	mean := 0.0
	for _, l := range pageLens {
		mean += float64(l)
	}
	mean /= float64(len(pageLens))

	variance := 0.0
	for _, l := range pageLens {
		d := float64(l) - mean
		variance += d * d
	}
	variance /= float64(len(pageLens))
	stddev := math.Sqrt(variance)

	consistency := 1.0
	if mean > 0 {
		consistency = clamp01(1 - stddev/mean)
	}

	achievement := 0.0
	if target > 0 {
		achievement = clamp01(1 - math.Abs(mean-float64(target))/float64(target))
	}

	meanQ := 0.0
	for _, q := range pageQs {
		meanQ += q
	}
	meanQ /= float64(len(pageQs))

	return clamp01(0.3*consistency + 0.4*achievement + 0.3*meanQ)
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
