// Package model defines the value types shared by every stage of the EPUB
// ingestion pipeline: package metadata, manifest and spine entries, the
// navigation tree, content files, chapters, diagnostics, and the final
// assembled BookDocument.
//
// Types in this package carry no behavior beyond lookups and traversal.
// Stages communicate exclusively through these values, so each stage can be
// tested in isolation by constructing them directly.
package model
