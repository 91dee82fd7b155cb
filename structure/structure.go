package structure

import (
	"errors"
	"fmt"
	"net/url"
	"path"

	"github.com/tsawler/folio/archive"
	"github.com/tsawler/folio/model"
)

const stage = "structure-parser"

// Structural parse errors. These are the only fatal failures past
// validation: without a package document there is nothing to parse.
var (
	ErrNoRootfile   = errors.New("structure: container.xml declares no usable rootfile path")
	ErrNoPackageDoc = errors.New("structure: package document not found in archive")
)

// Media types used to locate structural documents.
const (
	PackageMediaType = "application/oebps-package+xml"
	NCXMediaType     = "application/x-dtbncx+xml"
)

// Format version labels. VersionEPUB3 is inferred from the presence of a
// nav-document, not read from declared metadata.
const (
	VersionEPUB2 = "2.0"
	VersionEPUB3 = "3.0+"
)

// Document is the parsed structural skeleton of the book.
type Document struct {
	// Metadata is the package metadata. Title is always set.
	Metadata model.PackageMetadata

	// Manifest lists every declared item with hrefs resolved against the
	// package document's directory.
	Manifest model.Manifest

	// Spine is the ordered reading order.
	Spine []model.SpineItem

	// Navigation is the parsed navigation tree, nil when absent.
	Navigation *model.NavigationTree

	// Version is the inferred format version (VersionEPUB2 or VersionEPUB3).
	Version string

	// PackagePath is the archive path of the package document.
	PackagePath string

	// BaseDir is the directory of the package document, used to resolve
	// relative hrefs. Empty for a root-level package document.
	BaseDir string
}

// ResolveHref resolves a manifest-relative href to an archive path,
// URL-unescaping it first.
func (d *Document) ResolveHref(href string) string {
	if decoded, err := url.QueryUnescape(href); err == nil {
		href = decoded
	}
	if d.BaseDir == "" {
		return href
	}
	return path.Join(d.BaseDir, href)
}

// Parse parses the structural documents of the archive. The returned error
// is non-nil only for the two fatal cases (ErrNoRootfile, ErrNoPackageDoc);
// all other problems surface as diagnostics.
func Parse(a *archive.Archive) (*Document, []model.Diagnostic, error) {
	var diags []model.Diagnostic

	opfPath, d, err := parseContainer(a)
	diags = append(diags, d...)
	if err != nil {
		return nil, diags, err
	}

	doc, d, err := parsePackage(a, opfPath)
	diags = append(diags, d...)
	if err != nil {
		return nil, diags, err
	}

	diags = append(diags, checkDRM(a)...)

	nav, fromNavDoc, d := parseNavigation(a, doc)
	diags = append(diags, d...)
	doc.Navigation = nav

	// The NCX docTitle is an authoritative title source for books whose
	// package metadata lacks one. Nav-document headings are TOC labels, not
	// titles, so they are never merged.
	if nav != nil && !fromNavDoc {
		doc.Metadata = doc.Metadata.Merge(model.PackageMetadata{Title: nav.Title})
	}

	// Version heuristic: a nav-document implies EPUB 3. This is not read
	// from the declared package version.
	if nav != nil && fromNavDoc {
		doc.Version = VersionEPUB3
	} else {
		doc.Version = VersionEPUB2
	}

	return doc, diags, nil
}

// checkDRM looks for common DRM markers. Encrypted books still parse as far
// as possible; the marker surfaces as a warning so callers can explain why
// content may be unreadable.
func checkDRM(a *archive.Archive) []model.Diagnostic {
	markers := []string{
		"META-INF/encryption.xml",
		"META-INF/rights.xml",
		"META-INF/license.lcpl",
	}
	var diags []model.Diagnostic
	for _, m := range markers {
		if a.Has(m) {
			diags = append(diags,
				model.NewWarning(stage, fmt.Sprintf("DRM marker present: %s; content files may be encrypted", m)).
					WithLocation(m))
		}
	}
	return diags
}
