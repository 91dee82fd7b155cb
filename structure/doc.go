// Package structure parses the structural skeleton of an EPUB archive: the
// container descriptor, the package document (metadata, manifest, spine),
// and the navigation document in either its EPUB 3 nav-document or legacy
// NCX form.
//
// Only two conditions are fatal: a container with no usable rootfile path,
// and a package document that cannot be located or parsed. Everything else
// degrades to diagnostics so downstream stages can attempt fallbacks.
package structure
