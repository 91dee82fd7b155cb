package structure

import (
	"archive/zip"
	"bytes"
	"errors"
	"testing"

	"github.com/tsawler/folio/archive"
	"github.com/tsawler/folio/model"
)

const testContainer = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Test Author</dc:creator>
    <dc:contributor>Helpful Editor</dc:contributor>
    <dc:language>en</dc:language>
    <dc:identifier id="bookid">test-isbn-123</dc:identifier>
    <dc:publisher>Test Press</dc:publisher>
  </metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="cover" href="cover.jpg" media-type="image/jpeg" properties="cover-image"/>
    <item id="chapter1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
    <item id="chapter2" href="sub/chapter2.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine>
    <itemref idref="chapter1"/>
    <itemref idref="chapter2" linear="no"/>
  </spine>
</package>`

const testNav = `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops">
<body>
<nav epub:type="toc">
  <h1>Contents</h1>
  <ol>
    <li><a href="chapter1.xhtml">Getting Started</a>
      <ol>
        <li><a href="chapter1.xhtml#s1">First Steps</a></li>
      </ol>
    </li>
    <li><a href="sub/chapter2.xhtml">Going Further</a></li>
  </ol>
</nav>
</body>
</html>`

const testNCX = `<?xml version="1.0" encoding="UTF-8"?>
<ncx xmlns="http://www.daisy.org/z3986/2005/ncx/" version="2005-1">
  <docTitle><text>Test Book</text></docTitle>
  <navMap>
    <navPoint id="np1" playOrder="1">
      <navLabel><text>Getting Started</text></navLabel>
      <content src="chapter1.xhtml"/>
      <navPoint id="np2" playOrder="2">
        <navLabel><text>First Steps</text></navLabel>
        <content src="chapter1.xhtml#s1"/>
      </navPoint>
    </navPoint>
  </navMap>
</ncx>`

// buildArchive creates a decoded archive from the given entries.
func buildArchive(t *testing.T, entries map[string]string) *archive.Archive {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		fw, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		fw.Write([]byte(content))
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	a, err := archive.Decode(buf.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	return a
}

func TestParse_Metadata(t *testing.T) {
	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
	})

	doc, _, err := Parse(a)
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	m := doc.Metadata
	if m.Title != "Test Book" {
		t.Errorf("Title = %q", m.Title)
	}
	if m.Author != "Test Author" {
		t.Errorf("Author = %q", m.Author)
	}
	if m.Language != "en" {
		t.Errorf("Language = %q", m.Language)
	}
	if m.Identifier != "test-isbn-123" {
		t.Errorf("Identifier = %q", m.Identifier)
	}
	if m.Publisher != "Test Press" {
		t.Errorf("Publisher = %q", m.Publisher)
	}
	if len(m.Contributors) != 1 || m.Contributors[0] != "Helpful Editor" {
		t.Errorf("Contributors = %v", m.Contributors)
	}
}

func TestParse_TitleDefaultsToPlaceholder(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package version="2.0">
  <metadata></metadata>
  <manifest><item id="c1" href="c1.xhtml" media-type="application/xhtml+xml"/></manifest>
  <spine><itemref idref="c1"/></spine>
</package>`

	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      opf,
	})

	doc, _, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.Title != model.DefaultTitle {
		t.Errorf("Title = %q, want placeholder %q", doc.Metadata.Title, model.DefaultTitle)
	}
}

func TestParse_ManifestAndSpine(t *testing.T) {
	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
	})

	doc, _, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Manifest.Len() != 4 {
		t.Errorf("manifest has %d items, want 4", doc.Manifest.Len())
	}

	nav, ok := doc.Manifest.Nav()
	if !ok || nav.ID != "nav" {
		t.Errorf("Nav() = %+v, %v", nav, ok)
	}

	cover, _ := doc.Manifest.ByID("cover")
	if !cover.IsCoverImage {
		t.Error("cover item should carry the cover-image flag")
	}

	if len(doc.Spine) != 2 {
		t.Fatalf("spine has %d items, want 2", len(doc.Spine))
	}
	if !doc.Spine[0].Linear {
		t.Error("spine[0] should default to linear")
	}
	if doc.Spine[1].Linear {
		t.Error(`spine[1] has linear="no" and must be flagged non-linear`)
	}

	// Relative hrefs resolve against the package document directory.
	if got := doc.ResolveHref("sub/chapter2.xhtml"); got != "OEBPS/sub/chapter2.xhtml" {
		t.Errorf("ResolveHref = %q", got)
	}
}

func TestParse_NavDocument(t *testing.T) {
	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF,
		"OEBPS/nav.xhtml":        testNav,
	})

	doc, _, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Navigation.IsEmpty() {
		t.Fatal("navigation should be parsed")
	}
	if doc.Navigation.Title != "Contents" {
		t.Errorf("Navigation.Title = %q", doc.Navigation.Title)
	}

	flat := doc.Navigation.Flatten()
	want := []string{"Getting Started", "First Steps", "Going Further"}
	if len(flat) != len(want) {
		t.Fatalf("flattened %d nodes, want %d", len(flat), len(want))
	}
	for i, label := range want {
		if flat[i].Label != label {
			t.Errorf("flat[%d] = %q, want %q", i, flat[i].Label, label)
		}
	}
	if flat[1].Level != 2 {
		t.Errorf("nested node level = %d, want 2", flat[1].Level)
	}

	// Nav-document presence implies EPUB 3 under the version heuristic.
	if doc.Version != VersionEPUB3 {
		t.Errorf("Version = %q, want %q", doc.Version, VersionEPUB3)
	}
}

func TestParse_NCXFallback(t *testing.T) {
	opf := `<?xml version="1.0"?>
<package version="2.0">
  <metadata><title>NCX Book</title></metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="c1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx"><itemref idref="c1"/></spine>
</package>`

	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      opf,
		"OEBPS/toc.ncx":          testNCX,
	})

	doc, _, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}

	if doc.Navigation.IsEmpty() {
		t.Fatal("NCX navigation should be parsed")
	}
	flat := doc.Navigation.Flatten()
	if len(flat) != 2 {
		t.Fatalf("flattened %d nodes, want 2", len(flat))
	}
	if flat[0].Label != "Getting Started" || flat[1].Label != "First Steps" {
		t.Errorf("labels = %q, %q", flat[0].Label, flat[1].Label)
	}
	if flat[0].PlayOrder != 1 || flat[1].PlayOrder != 2 {
		t.Errorf("play orders = %d, %d", flat[0].PlayOrder, flat[1].PlayOrder)
	}

	// NCX-only books read as EPUB 2 under the version heuristic.
	if doc.Version != VersionEPUB2 {
		t.Errorf("Version = %q, want %q", doc.Version, VersionEPUB2)
	}
}

func TestParse_TitleMergedFromNCX(t *testing.T) {
	// A titleless package document picks up the NCX docTitle.
	opf := `<?xml version="1.0"?>
<package version="2.0">
  <metadata></metadata>
  <manifest>
    <item id="ncx" href="toc.ncx" media-type="application/x-dtbncx+xml"/>
    <item id="c1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine toc="ncx"><itemref idref="c1"/></spine>
</package>`

	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      opf,
		"OEBPS/toc.ncx":          testNCX,
	})

	doc, _, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.Title != "Test Book" {
		t.Errorf("Title = %q, want the NCX docTitle", doc.Metadata.Title)
	}
}

func TestParse_NavHeadingNeverBecomesTitle(t *testing.T) {
	// Nav-document headings are TOC labels, not book titles.
	opf := `<?xml version="1.0"?>
<package version="3.0">
  <metadata></metadata>
  <manifest>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
    <item id="c1" href="chapter1.xhtml" media-type="application/xhtml+xml"/>
  </manifest>
  <spine><itemref idref="c1"/></spine>
</package>`

	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      opf,
		"OEBPS/nav.xhtml":        testNav,
	})

	doc, _, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Metadata.Title != model.DefaultTitle {
		t.Errorf("Title = %q, want placeholder kept", doc.Metadata.Title)
	}
}

func TestParse_NavigationAbsentNotFatal(t *testing.T) {
	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer,
		"OEBPS/content.opf":      testOPF, // nav.xhtml entry not present in archive
	})

	doc, diags, err := Parse(a)
	if err != nil {
		t.Fatalf("missing navigation must not be fatal: %v", err)
	}
	if !doc.Navigation.IsEmpty() {
		t.Error("navigation should be absent")
	}
	if model.HasFatal(diags) {
		t.Error("no fatal diagnostics expected")
	}
}

func TestParse_MissingPackageDoc(t *testing.T) {
	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": testContainer, // points at OEBPS/content.opf
	})

	_, diags, err := Parse(a)
	if !errors.Is(err, ErrNoPackageDoc) {
		t.Fatalf("expected ErrNoPackageDoc, got %v", err)
	}
	if !model.HasFatal(diags) {
		t.Error("expected a fatal diagnostic")
	}
}

func TestParse_NoRootfile(t *testing.T) {
	a := buildArchive(t, map[string]string{
		"META-INF/container.xml": `<?xml version="1.0"?><container><rootfiles/></container>`,
	})

	_, _, err := Parse(a)
	if !errors.Is(err, ErrNoRootfile) {
		t.Fatalf("expected ErrNoRootfile, got %v", err)
	}
}

func TestParse_DRMWarning(t *testing.T) {
	a := buildArchive(t, map[string]string{
		"META-INF/container.xml":  testContainer,
		"META-INF/encryption.xml": "<encryption/>",
		"OEBPS/content.opf":       testOPF,
	})

	_, diags, err := Parse(a)
	if err != nil {
		t.Fatal(err)
	}

	found := false
	for _, d := range diags {
		if d.Severity == model.SeverityWarning && d.Location == "META-INF/encryption.xml" {
			found = true
		}
	}
	if !found {
		t.Error("expected a DRM warning for encryption.xml")
	}
}

func TestNCX_DepthGuard(t *testing.T) {
	// Build an NCX nested beyond the depth cap.
	var b bytes.Buffer
	b.WriteString(`<?xml version="1.0"?><ncx><navMap>`)
	for i := 0; i < model.MaxNavigationDepth+10; i++ {
		b.WriteString(`<navPoint id="p"><navLabel><text>Deep</text></navLabel><content src="c.xhtml"/>`)
	}
	for i := 0; i < model.MaxNavigationDepth+10; i++ {
		b.WriteString(`</navPoint>`)
	}
	b.WriteString(`</navMap></ncx>`)

	tree, err := parseNCX(b.Bytes())
	if err != nil {
		t.Fatal(err)
	}
	if got := len(tree.Flatten()); got > model.MaxNavigationDepth {
		t.Errorf("flattened %d nodes, depth guard should cap at %d", got, model.MaxNavigationDepth)
	}
}
