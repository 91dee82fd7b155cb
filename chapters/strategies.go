package chapters

import (
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/structure"
)

// Strategy base confidences. Navigation is most trustworthy (author-curated
// structure), headings are moderately reliable, spine order is a floor.
const (
	navigationBaseConfidence = 0.9
	headingBaseConfidence    = 0.7
	spineBaseConfidence      = 0.5
)

// analyzeNavigation flattens the navigation tree into chapters. Confidence
// drops for very short lists and rises when most titles look like real
// chapter names.
func analyzeNavigation(doc *structure.Document) result {
	r := result{name: "navigation"}

	if doc.Navigation.IsEmpty() {
		return r
	}

	flat := doc.Navigation.Flatten()
	chapterLike := 0
	for i, node := range flat {
		href, anchor := splitFragment(node.Href)
		r.chapters = append(r.chapters, &model.ChapterNode{
			ID:     fmt.Sprintf("nav-chapter-%d", i+1),
			Title:  node.Label,
			Level:  node.Level,
			Href:   href,
			Anchor: anchor,
		})
		if looksLikeChapterTitle(node.Label) {
			chapterLike++
		}
	}

	conf := navigationBaseConfidence
	if len(r.chapters) < 3 {
		conf *= 0.7
	}
	if float64(chapterLike) > 0.6*float64(len(r.chapters)) {
		conf *= 1.1
	}
	if conf > 1.0 {
		conf = 1.0
	}
	r.confidence = conf
	return r
}

// headingTagPattern captures h1-h6 elements and their inner markup.
var headingTagPattern = regexp.MustCompile(`(?is)<h([1-6])[^>]*>(.*?)</h[1-6]\s*>`)

var nestedTagPattern = regexp.MustCompile(`<[^>]*>`)

// analyzeHeadings scans each content file's raw HTML for heading tags.
// Confidence is halved when the heading count far exceeds the file count,
// a signal that most headings are not chapter boundaries.
func analyzeHeadings(files []*model.ContentFile) result {
	r := result{name: "heading"}

	n := 0
	for _, f := range files {
		for _, m := range headingTagPattern.FindAllStringSubmatch(f.Raw, -1) {
			level, _ := strconv.Atoi(m[1])
			title := strings.TrimSpace(html.UnescapeString(nestedTagPattern.ReplaceAllString(m[2], "")))
			if title == "" {
				continue
			}
			n++
			r.chapters = append(r.chapters, &model.ChapterNode{
				ID:    fmt.Sprintf("heading-chapter-%d", n),
				Title: title,
				Level: level,
				Href:  f.Href,
				File:  f,
			})
		}
	}

	if len(r.chapters) == 0 {
		return r
	}

	conf := headingBaseConfidence
	if len(files) > 0 && len(r.chapters) > 5*len(files) {
		conf /= 2
	}
	r.confidence = conf
	return r
}

// analyzeSpine produces one chapter per spine item, titled from the linked
// file's basename or a generic fallback. Confidence rises slightly for
// plausible book-sized chapter counts.
func analyzeSpine(doc *structure.Document, files []*model.ContentFile) result {
	r := result{name: "spine"}

	byHref := make(map[string]*model.ContentFile, len(files))
	for _, f := range files {
		byHref[f.Href] = f
	}

	for i, si := range doc.Spine {
		item, ok := doc.Manifest.ByID(si.IDRef)
		if !ok {
			continue
		}
		href := doc.ResolveHref(item.Href)

		title := humanizeBasename(href)
		if title == "" {
			title = fmt.Sprintf("Chapter %d", i+1)
		}

		r.chapters = append(r.chapters, &model.ChapterNode{
			ID:    fmt.Sprintf("spine-chapter-%d", i+1),
			Title: title,
			Level: 1,
			Href:  href,
			File:  byHref[href],
		})
	}

	if len(r.chapters) == 0 {
		return r
	}

	conf := spineBaseConfidence
	if len(r.chapters) >= 3 && len(r.chapters) <= 50 {
		conf *= 1.1
	}
	if conf > 1.0 {
		conf = 1.0
	}
	r.confidence = conf
	return r
}

// splitFragment splits an href into path and fragment.
func splitFragment(href string) (string, string) {
	if i := strings.IndexByte(href, '#'); i >= 0 {
		return href[:i], href[i+1:]
	}
	return href, ""
}
