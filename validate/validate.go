// Package validate performs pre-parse validation of an EPUB archive. It
// runs an ordered series of checks over the file and its ZIP structure,
// producing diagnostics rather than errors: expected failure modes (missing
// file, wrong format, corrupt data) become fatal diagnostics that suppress
// downstream stages, while recoverable oddities become warnings.
package validate

import (
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tsawler/folio/archive"
	"github.com/tsawler/folio/model"
)

const stage = "validator"

const (
	// Mimetype is the value the EPUB mimetype member must contain.
	Mimetype = "application/epub+zip"

	// ContainerPath is the mandated container descriptor entry.
	ContainerPath = "META-INF/container.xml"

	metaInfPrefix  = "META-INF/"
	maxSaneEntries = 10000
)

// Options configures validation thresholds.
type Options struct {
	// MaxArchiveSize is the advisory size bound in bytes. Exceeding it
	// raises a warning, never a fatal.
	MaxArchiveSize int64

	// Extension is the expected file extension, e.g. ".epub". A mismatch
	// raises a warning.
	Extension string
}

// DefaultOptions returns the default validation thresholds.
func DefaultOptions() Options {
	return Options{
		MaxArchiveSize: 50 * 1024 * 1024,
		Extension:      ".epub",
	}
}

// Report is the validation verdict. The archive is decoded as a side effect
// so downstream stages can reuse it without re-reading the file.
type Report struct {
	// Valid is true iff no fatal diagnostic was raised.
	Valid bool

	// Diagnostics are the collected checks' findings, in emission order.
	Diagnostics []model.Diagnostic

	// Charset is the best-effort sniffed charset of the container
	// descriptor, empty when undetermined.
	Charset string

	// FileSize is the archive size in bytes.
	FileSize int64

	// Data is the raw archive bytes, nil when the file could not be read.
	Data []byte

	// Archive is the decoded container, nil when decoding failed fatally.
	Archive *archive.Archive
}

func (r *Report) warn(msg string) {
	r.Diagnostics = append(r.Diagnostics, model.NewWarning(stage, msg))
}

func (r *Report) fatal(msg string) {
	r.Diagnostics = append(r.Diagnostics, model.NewFatal(stage, msg))
}

// File validates the archive at path. It never returns an error for
// expected failure modes; consult Report.Valid and Report.Diagnostics.
func File(path string, opts Options) *Report {
	r := &Report{}

	info, err := os.Stat(path)
	if err != nil {
		r.Diagnostics = append(r.Diagnostics,
			model.NewFatal(stage, fmt.Sprintf("file does not exist: %s", path)).
				WithSuggestion("check the file path"))
		return r
	}
	if info.Size() == 0 {
		r.fatal("file is empty")
		return r
	}

	data, err := os.ReadFile(path)
	if err != nil {
		r.Diagnostics = append(r.Diagnostics,
			model.NewFatal(stage, fmt.Sprintf("file could not be read: %v", err)))
		return r
	}

	return Bytes(path, data, opts)
}

// Bytes validates in-memory archive data. name is used only for the
// extension check and diagnostics.
func Bytes(name string, data []byte, opts Options) *Report {
	r := &Report{FileSize: int64(len(data)), Data: data}

	if len(data) == 0 {
		r.fatal("file is empty")
		return r
	}

	if opts.MaxArchiveSize > 0 && int64(len(data)) > opts.MaxArchiveSize {
		r.warn(fmt.Sprintf("archive size %d exceeds configured maximum %d bytes; parsing continues",
			len(data), opts.MaxArchiveSize))
	}

	if opts.Extension != "" && !strings.EqualFold(filepath.Ext(name), opts.Extension) {
		r.warn(fmt.Sprintf("unexpected file extension %q, expected %q",
			filepath.Ext(name), opts.Extension))
	}

	// ZIP local file header magic: PK
	if len(data) < 2 || data[0] != 0x50 || data[1] != 0x4B {
		r.Diagnostics = append(r.Diagnostics,
			model.NewFatal(stage, "file does not start with ZIP magic bytes (not a ZIP archive)").
				WithSuggestion("the file may be renamed or corrupted"))
		return r
	}

	a, err := archive.Decode(data)
	if err != nil {
		r.fatal("archive could not be decoded as ZIP")
		return r
	}
	r.Archive = a

	if a.Len() == 0 {
		r.fatal("archive contains no entries")
		return r
	}

	if a.Len() > maxSaneEntries {
		r.warn(fmt.Sprintf("archive contains %d entries, which is unusually large", a.Len()))
	}

	if bad := a.Corrupted(); len(bad) > 0 {
		r.Diagnostics = append(r.Diagnostics,
			model.NewWarning(stage, fmt.Sprintf("%d archive entries are corrupted and unreadable", len(bad))).
				WithLocation(bad[0]))
	}

	checkMimetype(r, a)

	if !a.HasPrefix(metaInfPrefix) {
		r.fatal("META-INF directory is missing")
		return r
	}

	if !checkContainer(r, a) {
		return r
	}

	r.Valid = !model.HasFatal(r.Diagnostics)
	return r
}

// checkMimetype verifies the mimetype member. Missing or wrong values are
// warnings only: many otherwise-readable EPUBs omit the member.
func checkMimetype(r *Report, a *archive.Archive) {
	data, err := a.Read("mimetype")
	if err != nil {
		r.warn("mimetype entry is missing")
		return
	}
	if got := strings.TrimSpace(string(data)); got != Mimetype {
		r.warn(fmt.Sprintf("mimetype is %q, expected %q", got, Mimetype))
	}
}

// containerProbe is the minimal container.xml shape needed for validation.
type containerProbe struct {
	XMLName   xml.Name `xml:"container"`
	Rootfiles struct {
		Rootfile []struct {
			FullPath string `xml:"full-path,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// checkContainer verifies the container descriptor exists, parses, and names
// at least one rootfile. Returns false when a fatal was raised.
func checkContainer(r *Report, a *archive.Archive) bool {
	data, err := a.Read(ContainerPath)
	if err != nil {
		r.Diagnostics = append(r.Diagnostics,
			model.NewFatal(stage, fmt.Sprintf("%s is missing", ContainerPath)).
				WithLocation(ContainerPath))
		return false
	}

	r.Charset = archive.SniffCharset(data)

	var probe containerProbe
	if err := xml.Unmarshal(data, &probe); err != nil {
		r.Diagnostics = append(r.Diagnostics,
			model.NewFatal(stage, fmt.Sprintf("%s is not parseable XML", ContainerPath)).
				WithLocation(ContainerPath))
		return false
	}
	if len(probe.Rootfiles.Rootfile) == 0 {
		r.Diagnostics = append(r.Diagnostics,
			model.NewFatal(stage, fmt.Sprintf("%s declares no rootfile element", ContainerPath)).
				WithLocation(ContainerPath))
		return false
	}

	return true
}
