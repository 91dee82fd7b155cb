// Package chapters infers the chapter structure of a book by running three
// independent detection strategies (navigation tree, heading scan, spine
// order), scoring each by confidence, and merging the results into a final
// flat chapter list with page ranges assigned.
package chapters

import (
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/structure"
)

const stage = "chapter-analyzer"

// pagesPerChapterEstimate is the fixed page-range estimate assigned after
// the merge. It is a coarse approximation independent of actual pagination;
// see Reconcile.
const pagesPerChapterEstimate = 10

// confidenceFloor is the minimum top-strategy confidence required to accept
// its result outright instead of merging across strategies.
const confidenceFloor = 0.5

// result is one strategy's output.
type result struct {
	name       string
	chapters   []*model.ChapterNode
	confidence float64
}

// Analyze runs all three strategies and merges their results. It returns
// the final chapter list, the diagnostics raised, and the strategy names
// attempted in order.
func Analyze(doc *structure.Document, files []*model.ContentFile) ([]*model.ChapterNode, []model.Diagnostic, []string) {
	var diags []model.Diagnostic

	results := []result{
		analyzeNavigation(doc),
		analyzeHeadings(files),
		analyzeSpine(doc, files),
	}
	attempted := make([]string, 0, len(results))
	for _, r := range results {
		attempted = append(attempted, r.name)
	}

	selected, how := merge(results, files)
	diags = append(diags, model.NewWarning(stage,
		fmt.Sprintf("chapter detection used %s (%d chapters)", how, len(selected))))

	assignPageRanges(selected)
	return selected, diags, attempted
}

// merge selects or combines strategy results. The highest-confidence result
// wins outright when it has chapters and clears the confidence floor;
// otherwise results are unioned with first-title-wins deduplication; an
// empty union falls back to synthetic chapters.
func merge(results []result, files []*model.ContentFile) ([]*model.ChapterNode, string) {
	sorted := make([]result, len(results))
	copy(sorted, results)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].confidence > sorted[j].confidence
	})

	top := sorted[0]
	if len(top.chapters) > 0 && top.confidence > confidenceFloor {
		return top.chapters, top.name + " strategy"
	}

	var (
		union []*model.ChapterNode
		seen  = make(map[string]bool)
	)
	for _, r := range sorted {
		for _, ch := range r.chapters {
			if seen[ch.Title] {
				continue
			}
			seen[ch.Title] = true
			union = append(union, ch)
		}
	}
	if len(union) > 0 {
		return union, "merged strategies"
	}

	return fallbackChapters(files), "fallback synthesis"
}

// fallbackChapters synthesizes one chapter per content file, or a single
// generic chapter when there are no files.
func fallbackChapters(files []*model.ContentFile) []*model.ChapterNode {
	if len(files) == 0 {
		return []*model.ChapterNode{{
			ID:    "chapter-1",
			Title: "Document Content",
			Level: 1,
		}}
	}

	out := make([]*model.ChapterNode, 0, len(files))
	for i, f := range files {
		title := humanizeBasename(f.Href)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}
		out = append(out, &model.ChapterNode{
			ID:    fmt.Sprintf("chapter-%d", i+1),
			Title: title,
			Level: 1,
			Href:  f.Href,
			File:  f,
		})
	}
	return out
}

// assignPageRanges assigns sequential, non-overlapping estimated page
// ranges starting at page 0.
func assignPageRanges(chs []*model.ChapterNode) {
	page := 0
	for _, ch := range chs {
		ch.StartPage = page
		ch.EndPage = page + pagesPerChapterEstimate - 1
		page = ch.EndPage + 1
	}
}

// Reconcile replaces estimated chapter page ranges with the real page spans
// of the chapters' content files, computed from global page numbering. Best
// effort: chapters without a resolvable file keep their estimates.
func Reconcile(chs []*model.ChapterNode, files []*model.ContentFile) {
	type span struct{ start, end int }
	spans := make(map[string]span, len(files))

	page := 0
	for _, f := range files {
		n := f.PageCount()
		if n == 0 {
			continue
		}
		spans[f.Href] = span{start: page, end: page + n - 1}
		page += n
	}

	for _, ch := range chs {
		href := ch.Href
		if i := strings.IndexByte(href, '#'); i >= 0 {
			href = href[:i]
		}
		if ch.File != nil && ch.File.Href != "" {
			href = ch.File.Href
		}
		if s, ok := spans[href]; ok {
			ch.StartPage = s.start
			ch.EndPage = s.end
		}
	}
}

// chapterLikePattern matches generic chapter-number titles that carry no
// real information.
var chapterLikePattern = regexp.MustCompile(`(?i)^(?:chapter|section|part)\s+\d+$`)

var numericPattern = regexp.MustCompile(`^\d+$`)

// looksLikeChapterTitle reports whether a title looks like a meaningful
// chapter name: long enough, not purely numeric, not a bare chapter-number
// prefix.
func looksLikeChapterTitle(title string) bool {
	t := strings.TrimSpace(title)
	if len(t) <= 3 {
		return false
	}
	if numericPattern.MatchString(t) {
		return false
	}
	return !chapterLikePattern.MatchString(t)
}

// humanizeBasename turns a file path into a displayable title: basename
// without extension, separators spaced, words title-cased.
func humanizeBasename(href string) string {
	base := path.Base(href)
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	words := strings.Fields(base)
	if len(words) == 0 {
		return ""
	}
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
