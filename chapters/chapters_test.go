package chapters

import (
	"fmt"
	"strings"
	"testing"

	"github.com/tsawler/folio/model"
	"github.com/tsawler/folio/structure"
)

// navDocument builds a structure document with a navigation tree of the
// given chapter titles.
func navDocument(titles ...string) *structure.Document {
	tree := &model.NavigationTree{}
	for i, title := range titles {
		tree.Entries = append(tree.Entries, &model.NavigationNode{
			ID:    fmt.Sprintf("n%d", i+1),
			Label: title,
			Href:  fmt.Sprintf("ch%d.xhtml", i+1),
			Level: 1,
		})
	}
	return &structure.Document{
		Metadata:   model.PackageMetadata{Title: "Nav Book"},
		Navigation: tree,
	}
}

// spineDocument builds a structure document with spine entries only.
func spineDocument(hrefs ...string) *structure.Document {
	doc := &structure.Document{Metadata: model.PackageMetadata{Title: "Spine Book"}}
	for i, href := range hrefs {
		id := fmt.Sprintf("item%d", i+1)
		doc.Manifest.Add(model.ManifestItem{ID: id, Href: href, MediaType: "application/xhtml+xml"})
		doc.Spine = append(doc.Spine, model.SpineItem{IDRef: id, Linear: true})
	}
	return doc
}

func contentFiles(rawByHref map[string]string) []*model.ContentFile {
	var out []*model.ContentFile
	for href, raw := range rawByHref {
		out = append(out, &model.ContentFile{ID: href, Href: href, Raw: raw})
	}
	return out
}

func titles(chs []*model.ChapterNode) []string {
	out := make([]string, 0, len(chs))
	for _, ch := range chs {
		out = append(out, ch.Title)
	}
	return out
}

func TestAnalyze_NavigationPreferred(t *testing.T) {
	// Well-formed navigation with >= 3 chapter-like titles must win outright
	// and reproduce the navigation list exactly.
	doc := navDocument("The Beginning", "The Middle Part", "The Grand Finale")
	files := contentFiles(map[string]string{
		"ch1.xhtml": "<h1>Other Heading</h1>",
	})

	chs, _, attempted := Analyze(doc, files)

	want := []string{"The Beginning", "The Middle Part", "The Grand Finale"}
	got := titles(chs)
	if len(got) != len(want) {
		t.Fatalf("got %d chapters %v, want %v", len(got), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("chapter[%d] = %q, want %q", i, got[i], want[i])
		}
	}

	if len(attempted) != 3 {
		t.Errorf("attempted = %v, all three strategies should run", attempted)
	}
}

func TestAnalyze_PageRangesSequential(t *testing.T) {
	doc := navDocument("Alpha Chapter", "Beta Chapter", "Gamma Chapter")
	chs, _, _ := Analyze(doc, nil)

	page := 0
	for i, ch := range chs {
		if ch.StartPage != page {
			t.Errorf("chapter %d StartPage = %d, want %d", i, ch.StartPage, page)
		}
		if ch.EndPage < ch.StartPage {
			t.Errorf("chapter %d EndPage %d < StartPage %d", i, ch.EndPage, ch.StartPage)
		}
		if ch.EndPage-ch.StartPage+1 != pagesPerChapterEstimate {
			t.Errorf("chapter %d range = %d pages, want %d", i, ch.EndPage-ch.StartPage+1, pagesPerChapterEstimate)
		}
		page = ch.EndPage + 1
	}
}

func TestAnalyze_HeadingStrategy(t *testing.T) {
	// No navigation: headings in content should produce the chapters.
	doc := &structure.Document{Metadata: model.PackageMetadata{Title: "H Book"}}
	files := []*model.ContentFile{
		{ID: "c1", Href: "c1.xhtml", Raw: `<h1>Introduction</h1><p>text</p><h2>Deeper <em>Topics</em></h2>`},
	}

	chs, _, _ := Analyze(doc, files)

	got := titles(chs)
	if len(got) < 2 {
		t.Fatalf("got chapters %v, want headings detected", got)
	}
	if got[0] != "Introduction" {
		t.Errorf("chapter[0] = %q", got[0])
	}
	// Nested tags are stripped from captured heading text.
	if got[1] != "Deeper Topics" {
		t.Errorf("chapter[1] = %q, want nested tags stripped", got[1])
	}
	if chs[0].Level != 1 || chs[1].Level != 2 {
		t.Errorf("levels = %d, %d", chs[0].Level, chs[1].Level)
	}
}

func TestAnalyze_SpineFallbackTitles(t *testing.T) {
	doc := spineDocument("my_first-chapter.xhtml", "second.xhtml")
	chs, _, _ := Analyze(doc, nil)

	got := titles(chs)
	if len(got) != 2 {
		t.Fatalf("got %v", got)
	}
	if got[0] != "My First Chapter" {
		t.Errorf("humanized title = %q, want %q", got[0], "My First Chapter")
	}
}

func TestAnalyze_FallbackSynthesis(t *testing.T) {
	// No navigation, no headings, no spine: fallback synthesizes chapters.
	doc := &structure.Document{Metadata: model.PackageMetadata{Title: "Empty"}}

	t.Run("with content files", func(t *testing.T) {
		files := contentFiles(map[string]string{"body.xhtml": "plain text only"})
		chs, _, _ := Analyze(doc, files)
		if len(chs) != 1 {
			t.Fatalf("got %d chapters, want 1 per content file", len(chs))
		}
	})

	t.Run("without content files", func(t *testing.T) {
		chs, _, _ := Analyze(doc, nil)
		if len(chs) != 1 || chs[0].Title != "Document Content" {
			t.Fatalf("got %v, want single generic chapter", titles(chs))
		}
	})
}

func TestMerge_DeduplicatesByTitle(t *testing.T) {
	// Low-confidence results union with first-title-wins semantics.
	results := []result{
		{name: "a", confidence: 0.4, chapters: []*model.ChapterNode{
			{ID: "a1", Title: "Shared"},
			{ID: "a2", Title: "Only A"},
		}},
		{name: "b", confidence: 0.3, chapters: []*model.ChapterNode{
			{ID: "b1", Title: "Shared"},
			{ID: "b2", Title: "Only B"},
		}},
	}

	merged, how := merge(results, nil)

	got := titles(merged)
	want := []string{"Shared", "Only A", "Only B"}
	if len(got) != len(want) {
		t.Fatalf("merged = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("merged[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if merged[0].ID != "a1" {
		t.Error("first occurrence should win on duplicate titles")
	}
	if !strings.Contains(how, "merged") {
		t.Errorf("how = %q", how)
	}
}

func TestAnalyzeNavigation_Confidence(t *testing.T) {
	tests := []struct {
		name  string
		doc   *structure.Document
		check func(t *testing.T, conf float64)
	}{
		{
			name: "absent navigation scores zero",
			doc:  &structure.Document{},
			check: func(t *testing.T, conf float64) {
				if conf != 0 {
					t.Errorf("confidence = %v, want 0", conf)
				}
			},
		},
		{
			name: "short list is penalized",
			doc:  navDocument("Lone Entry Here"),
			check: func(t *testing.T, conf float64) {
				if conf >= navigationBaseConfidence {
					t.Errorf("confidence = %v, want < %v", conf, navigationBaseConfidence)
				}
			},
		},
		{
			name: "chapter-like titles are boosted but capped",
			doc:  navDocument("A Real Title", "Another Real Title", "Third Real Title", "Fourth One Here"),
			check: func(t *testing.T, conf float64) {
				if conf <= navigationBaseConfidence || conf > 1.0 {
					t.Errorf("confidence = %v, want in (%v, 1.0]", conf, navigationBaseConfidence)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := analyzeNavigation(tt.doc)
			tt.check(t, r.confidence)
		})
	}
}

func TestAnalyzeHeadings_FalsePositivePenalty(t *testing.T) {
	// Far more headings than files halves the confidence.
	var b strings.Builder
	for i := 0; i < 12; i++ {
		fmt.Fprintf(&b, "<h3>Heading number %d</h3>", i)
	}
	files := []*model.ContentFile{{ID: "c1", Href: "c1.xhtml", Raw: b.String()}}

	r := analyzeHeadings(files)
	if r.confidence != headingBaseConfidence/2 {
		t.Errorf("confidence = %v, want %v", r.confidence, headingBaseConfidence/2)
	}
}

func TestAnalyzeSpine_PlausibleCountBoost(t *testing.T) {
	small := analyzeSpine(spineDocument("a.xhtml", "b.xhtml"), nil)
	if small.confidence != spineBaseConfidence {
		t.Errorf("2-chapter confidence = %v, want base %v", small.confidence, spineBaseConfidence)
	}

	hrefs := make([]string, 5)
	for i := range hrefs {
		hrefs[i] = fmt.Sprintf("ch%d.xhtml", i+1)
	}
	plausible := analyzeSpine(spineDocument(hrefs...), nil)
	if plausible.confidence <= spineBaseConfidence {
		t.Errorf("5-chapter confidence = %v, want boosted above %v", plausible.confidence, spineBaseConfidence)
	}
}

func TestLooksLikeChapterTitle(t *testing.T) {
	tests := []struct {
		title string
		want  bool
	}{
		{"The Fellowship of the Ring", true},
		{"42", false},
		{"ab", false},
		{"Chapter 7", false},
		{"Part 2", false},
		{"Chapter 7: The Cave", true},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			if got := looksLikeChapterTitle(tt.title); got != tt.want {
				t.Errorf("looksLikeChapterTitle(%q) = %v, want %v", tt.title, got, tt.want)
			}
		})
	}
}

func TestReconcile(t *testing.T) {
	files := []*model.ContentFile{
		{Href: "a.xhtml", Pages: []string{"p1", "p2", "p3"}},
		{Href: "b.xhtml", Pages: []string{"p4"}},
	}
	chs := []*model.ChapterNode{
		{Title: "A", Href: "a.xhtml", StartPage: 0, EndPage: 9},
		{Title: "B", Href: "b.xhtml#top", StartPage: 10, EndPage: 19},
		{Title: "C", Href: "missing.xhtml", StartPage: 20, EndPage: 29},
	}

	Reconcile(chs, files)

	if chs[0].StartPage != 0 || chs[0].EndPage != 2 {
		t.Errorf("A range = %d-%d, want 0-2", chs[0].StartPage, chs[0].EndPage)
	}
	if chs[1].StartPage != 3 || chs[1].EndPage != 3 {
		t.Errorf("B range = %d-%d, want 3-3 (anchor stripped)", chs[1].StartPage, chs[1].EndPage)
	}
	// Unresolvable chapters keep their estimates.
	if chs[2].StartPage != 20 || chs[2].EndPage != 29 {
		t.Errorf("C range = %d-%d, want untouched", chs[2].StartPage, chs[2].EndPage)
	}
}
