package structure

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/tsawler/folio/archive"
	"github.com/tsawler/folio/model"
)

// opfPackage mirrors the OPF package document. encoding/xml matches local
// element names regardless of namespace, which covers both dc:-prefixed and
// unprefixed metadata elements.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Version  string      `xml:"version,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

type opfMetadata struct {
	Title       []textElement `xml:"title"`
	Creator     []textElement `xml:"creator"`
	Contributor []textElement `xml:"contributor"`
	Language    []textElement `xml:"language"`
	Identifier  []textElement `xml:"identifier"`
	Publisher   []textElement `xml:"publisher"`
	Description []textElement `xml:"description"`
	Subject     []textElement `xml:"subject"`
	Rights      []textElement `xml:"rights"`
	Meta        []opfMeta     `xml:"meta"`
}

type textElement struct {
	Content string `xml:",chardata"`
}

type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []opfItem `xml:"item"`
}

type opfItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	Toc      string       `xml:"toc,attr"`
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// parsePackage loads and parses the package document at opfPath.
func parsePackage(a *archive.Archive, opfPath string) (*Document, []model.Diagnostic, error) {
	var diags []model.Diagnostic

	data, err := a.Read(opfPath)
	if err != nil {
		diags = append(diags, model.NewFatal(stage,
			fmt.Sprintf("package document %s not found in archive", opfPath)).
			WithLocation(opfPath))
		return nil, diags, ErrNoPackageDoc
	}

	var opf opfPackage
	if err := xml.Unmarshal(data, &opf); err != nil {
		diags = append(diags, model.NewFatal(stage,
			fmt.Sprintf("package document could not be parsed: %v", err)).
			WithLocation(opfPath))
		return nil, diags, ErrNoPackageDoc
	}

	baseDir := path.Dir(opfPath)
	if baseDir == "." {
		baseDir = ""
	}

	doc := &Document{
		PackagePath: opfPath,
		BaseDir:     baseDir,
		Metadata:    convertMetadata(&opf.Metadata),
	}

	doc.Manifest, doc.Spine = convertManifestAndSpine(&opf)

	if len(doc.Spine) == 0 {
		diags = append(diags, model.NewWarning(stage, "spine is empty; reading order is unknown").
			WithLocation(opfPath))
	}
	if doc.Manifest.Len() == 0 {
		diags = append(diags, model.NewWarning(stage, "manifest declares no items").
			WithLocation(opfPath))
	}

	return doc, diags, nil
}

// convertMetadata maps OPF metadata onto PackageMetadata. The title falls
// back through dc:title elements and then meta name="title" before
// defaulting to the placeholder.
func convertMetadata(m *opfMetadata) model.PackageMetadata {
	meta := model.PackageMetadata{}

	meta.Title = firstText(m.Title)
	if meta.Title == "" {
		for _, mt := range m.Meta {
			if strings.EqualFold(mt.Name, "title") && strings.TrimSpace(mt.Content) != "" {
				meta.Title = strings.TrimSpace(mt.Content)
				break
			}
		}
	}
	if meta.Title == "" {
		meta.Title = model.DefaultTitle
	}

	meta.Author = firstText(m.Creator)
	meta.Language = firstText(m.Language)
	meta.Identifier = firstText(m.Identifier)
	meta.Publisher = firstText(m.Publisher)
	meta.Description = firstText(m.Description)
	meta.Subject = firstText(m.Subject)
	meta.Rights = firstText(m.Rights)

	for _, c := range m.Contributor {
		if s := strings.TrimSpace(c.Content); s != "" {
			meta.Contributors = append(meta.Contributors, s)
		}
	}

	return meta
}

func firstText(elems []textElement) string {
	for _, e := range elems {
		if s := strings.TrimSpace(e.Content); s != "" {
			return s
		}
	}
	return ""
}

// convertManifestAndSpine builds the manifest and spine, resolving property
// flags and linear markers. linear="no" is the only way an item becomes
// non-linear.
func convertManifestAndSpine(opf *opfPackage) (model.Manifest, []model.SpineItem) {
	linearByID := make(map[string]bool, len(opf.Spine.ItemRefs))
	spine := make([]model.SpineItem, 0, len(opf.Spine.ItemRefs))
	for _, ref := range opf.Spine.ItemRefs {
		if ref.IDRef == "" {
			continue
		}
		linear := ref.Linear != "no"
		linearByID[ref.IDRef] = linear
		spine = append(spine, model.SpineItem{IDRef: ref.IDRef, Linear: linear})
	}

	var manifest model.Manifest
	for _, item := range opf.Manifest.Items {
		if item.ID == "" || item.Href == "" {
			continue
		}
		mi := model.ManifestItem{
			ID:        item.ID,
			Href:      item.Href,
			MediaType: item.MediaType,
			Linear:    true,
		}
		for _, prop := range strings.Fields(item.Properties) {
			switch prop {
			case "nav":
				mi.IsNav = true
			case "cover-image":
				mi.IsCoverImage = true
			}
		}
		if linear, ok := linearByID[item.ID]; ok {
			mi.Linear = linear
		}
		manifest.Add(mi)
	}

	return manifest, spine
}
