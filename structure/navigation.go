package structure

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	"github.com/tsawler/folio/archive"
	"github.com/tsawler/folio/model"
)

// parseNavigation resolves the navigation tree, trying the EPUB 3
// nav-document first, then the legacy NCX. The boolean reports whether the
// tree came from a nav-document, which feeds the format version heuristic.
// Absent navigation is not fatal.
func parseNavigation(a *archive.Archive, doc *Document) (*model.NavigationTree, bool, []model.Diagnostic) {
	var diags []model.Diagnostic

	if item, ok := doc.Manifest.Nav(); ok {
		href := doc.ResolveHref(item.Href)
		data, err := a.Read(href)
		if err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("navigation document %s not found in archive", href)).
				WithLocation(href))
		} else if tree, err := parseNavDocument(data); err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("navigation document could not be parsed: %v", err)).
				WithLocation(href))
		} else if !tree.IsEmpty() {
			return tree, true, diags
		}
	}

	for _, item := range doc.Manifest.ByMediaType(NCXMediaType) {
		href := doc.ResolveHref(item.Href)
		data, err := a.Read(href)
		if err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("NCX document %s not found in archive", href)).
				WithLocation(href))
			continue
		}
		tree, err := parseNCX(data)
		if err != nil {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("NCX document could not be parsed: %v", err)).
				WithLocation(href))
			continue
		}
		if !tree.IsEmpty() {
			return tree, false, diags
		}
	}

	diags = append(diags, model.NewWarning(stage, "no navigation document found; chapter detection will rely on headings and spine order"))
	return nil, false, diags
}

// parseNavDocument parses an EPUB 3 XHTML navigation document: a nav
// element typed "toc" containing nested ol/li/a structure.
func parseNavDocument(data []byte) (*model.NavigationTree, error) {
	root, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	nav := findTocNav(root)
	if nav == nil {
		return nil, fmt.Errorf("no nav element typed toc")
	}

	tree := &model.NavigationTree{Title: findNavHeading(nav)}

	if ol := findChildElement(nav, "ol"); ol != nil {
		counter := 0
		tree.Entries = parseNavList(ol, 1, &counter)
	}
	return tree, nil
}

// findTocNav locates the nav element whose epub:type (or type) attribute
// names "toc".
func findTocNav(n *html.Node) *html.Node {
	if n.Type == html.ElementNode && n.Data == "nav" {
		for _, attr := range n.Attr {
			if attr.Key != "epub:type" && attr.Key != "type" {
				continue
			}
			for _, v := range strings.Fields(attr.Val) {
				if v == "toc" {
					return n
				}
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findTocNav(c); found != nil {
			return found
		}
	}
	return nil
}

// findNavHeading returns the first heading text inside the nav element.
func findNavHeading(n *html.Node) string {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "h1", "h2", "h3", "h4", "h5", "h6":
			return nodeText(n)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if title := findNavHeading(c); title != "" {
			return title
		}
	}
	return ""
}

// findChildElement finds the first descendant element with the given name.
func findChildElement(n *html.Node, name string) *html.Node {
	if n.Type == html.ElementNode && n.Data == name {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findChildElement(c, name); found != nil {
			return found
		}
	}
	return nil
}

// parseNavList converts an ol element into navigation nodes. Depth beyond
// MaxNavigationDepth is dropped.
func parseNavList(ol *html.Node, level int, counter *int) []*model.NavigationNode {
	if level > model.MaxNavigationDepth {
		return nil
	}

	var nodes []*model.NavigationNode
	for li := ol.FirstChild; li != nil; li = li.NextSibling {
		if li.Type != html.ElementNode || li.Data != "li" {
			continue
		}
		node := parseNavItem(li, level, counter)
		if node != nil && node.Label != "" {
			nodes = append(nodes, node)
		}
	}
	return nodes
}

// parseNavItem converts a single li element into a navigation node.
func parseNavItem(li *html.Node, level int, counter *int) *model.NavigationNode {
	*counter++
	node := &model.NavigationNode{
		ID:    fmt.Sprintf("nav-%d", *counter),
		Level: level,
	}

	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode {
			continue
		}
		switch c.Data {
		case "a":
			node.Label = nodeText(c)
			for _, attr := range c.Attr {
				if attr.Key == "href" {
					node.Href = attr.Val
				}
			}
		case "span":
			if node.Label == "" {
				node.Label = nodeText(c)
			}
		case "ol":
			node.Children = parseNavList(c, level+1, counter)
		}
	}
	return node
}

// nodeText extracts the trimmed text content of an HTML node.
func nodeText(n *html.Node) string {
	if n.Type == html.TextNode {
		return strings.TrimSpace(n.Data)
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(nodeText(c))
		b.WriteString(" ")
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// ncxDocument mirrors the legacy NCX navigation document.
type ncxDocument struct {
	XMLName xml.Name  `xml:"ncx"`
	Title   string    `xml:"docTitle>text"`
	NavMap  ncxNavMap `xml:"navMap"`
}

type ncxNavMap struct {
	NavPoints []ncxNavPoint `xml:"navPoint"`
}

type ncxNavPoint struct {
	ID        string        `xml:"id,attr"`
	PlayOrder string        `xml:"playOrder,attr"`
	Label     string        `xml:"navLabel>text"`
	Content   ncxContent    `xml:"content"`
	Children  []ncxNavPoint `xml:"navPoint"`
}

type ncxContent struct {
	Src string `xml:"src,attr"`
}

// parseNCX parses a legacy NCX document into a navigation tree.
func parseNCX(data []byte) (*model.NavigationTree, error) {
	var ncx ncxDocument
	if err := xml.Unmarshal(data, &ncx); err != nil {
		return nil, err
	}

	counter := 0
	return &model.NavigationTree{
		Title:   strings.TrimSpace(ncx.Title),
		Entries: convertNavPoints(ncx.NavMap.NavPoints, 1, &counter),
	}, nil
}

// convertNavPoints converts NCX navPoints recursively, guarding depth.
func convertNavPoints(points []ncxNavPoint, level int, counter *int) []*model.NavigationNode {
	if level > model.MaxNavigationDepth {
		return nil
	}

	nodes := make([]*model.NavigationNode, 0, len(points))
	for _, p := range points {
		label := strings.TrimSpace(p.Label)
		if label == "" {
			continue
		}
		*counter++
		node := &model.NavigationNode{
			ID:    p.ID,
			Label: label,
			Href:  p.Content.Src,
			Level: level,
		}
		if node.ID == "" {
			node.ID = fmt.Sprintf("nav-%d", *counter)
		}
		if po, err := strconv.Atoi(strings.TrimSpace(p.PlayOrder)); err == nil {
			node.PlayOrder = po
		}
		node.Children = convertNavPoints(p.Children, level+1, counter)
		nodes = append(nodes, node)
	}
	return nodes
}
