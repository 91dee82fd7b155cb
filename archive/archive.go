// Package archive wraps a decoded ZIP container with the lookup semantics
// the pipeline needs: path-addressed entries with a case-insensitive
// fallback, malformed-tolerant UTF-8 text decoding, and charset sniffing.
// An Archive is immutable once decoded and safe for concurrent reads.
package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Archive errors.
var (
	// ErrInvalid indicates the data is not a readable ZIP archive.
	ErrInvalid = errors.New("archive: invalid or corrupted zip data")

	// ErrNotFound indicates the requested entry does not exist under either
	// exact or case-insensitive lookup.
	ErrNotFound = errors.New("archive: entry not found")
)

// Archive is a decoded ZIP container.
type Archive struct {
	files   []*zip.File
	byName  map[string]*zip.File
	byLower map[string]string // lowercased name -> actual name
	size    int64
}

// Decode decodes ZIP data into an Archive.
func Decode(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, ErrInvalid
	}

	a := &Archive{
		files:   zr.File,
		byName:  make(map[string]*zip.File, len(zr.File)),
		byLower: make(map[string]string, len(zr.File)),
		size:    int64(len(data)),
	}
	for _, f := range zr.File {
		a.byName[f.Name] = f
		lower := strings.ToLower(f.Name)
		if _, ok := a.byLower[lower]; !ok {
			a.byLower[lower] = f.Name
		}
	}
	return a, nil
}

// Size returns the encoded archive size in bytes.
func (a *Archive) Size() int64 {
	return a.size
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.files)
}

// Entries returns all entry names in archive order.
func (a *Archive) Entries() []string {
	names := make([]string, 0, len(a.files))
	for _, f := range a.files {
		names = append(names, f.Name)
	}
	return names
}

// Has reports whether an entry exists, using exact then case-insensitive
// lookup.
func (a *Archive) Has(name string) bool {
	_, ok := a.resolve(name)
	return ok
}

// HasPrefix reports whether any entry name starts with prefix.
func (a *Archive) HasPrefix(prefix string) bool {
	for _, f := range a.files {
		if strings.HasPrefix(f.Name, prefix) {
			return true
		}
	}
	return false
}

// resolve maps a requested name to the actual entry, preferring an exact
// match and falling back to case-insensitive lookup.
func (a *Archive) resolve(name string) (*zip.File, bool) {
	if f, ok := a.byName[name]; ok {
		return f, true
	}
	if actual, ok := a.byLower[strings.ToLower(name)]; ok {
		return a.byName[actual], true
	}
	return nil, false
}

// Read returns the raw bytes of an entry.
func (a *Archive) Read(name string) ([]byte, error) {
	f, ok := a.resolve(name)
	if !ok {
		return nil, ErrNotFound
	}
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(rc)
}

// ReadText returns an entry decoded as text. Decoding never fails on
// malformed byte sequences; see DecodeText.
func (a *Archive) ReadText(name string) (string, error) {
	data, err := a.Read(name)
	if err != nil {
		return "", err
	}
	return DecodeText(data), nil
}

// Corrupted returns the names of entries whose contents cannot be read,
// typically because of CRC mismatches or truncated streams.
func (a *Archive) Corrupted() []string {
	var bad []string
	for _, f := range a.files {
		rc, err := f.Open()
		if err != nil {
			bad = append(bad, f.Name)
			continue
		}
		if _, err := io.Copy(io.Discard, rc); err != nil {
			bad = append(bad, f.Name)
		}
		rc.Close()
	}
	return bad
}

// DecodeText decodes bytes as text, never failing on bad input. Content
// declaring a non-UTF-8 charset is converted through that encoding;
// everything else goes through a UTF-8 decoder that substitutes U+FFFD for
// malformed sequences.
func DecodeText(data []byte) string {
	if label := SniffCharset(data); label != "" && label != "utf-8" {
		if r, err := charset.NewReaderLabel(label, bytes.NewReader(data)); err == nil {
			if out, err := io.ReadAll(r); err == nil {
				return string(out)
			}
		}
	}
	out, _, err := transform.Bytes(unicode.UTF8.NewDecoder(), data)
	if err != nil {
		return string(data)
	}
	return string(out)
}

// xmlEncodingPattern matches the encoding pseudo-attribute of an XML
// declaration.
var xmlEncodingPattern = regexp.MustCompile(`(?i)<\?xml[^>]*encoding=["']([A-Za-z0-9._-]+)["']`)

// SniffCharset returns the best-effort charset label for the data: an XML
// declaration encoding if present, otherwise content sniffing. Returns an
// empty string when nothing can be determined.
func SniffCharset(data []byte) string {
	head := data
	if len(head) > 1024 {
		head = head[:1024]
	}
	if m := xmlEncodingPattern.FindSubmatch(head); m != nil {
		return strings.ToLower(string(m[1]))
	}
	_, name, certain := charset.DetermineEncoding(head, "")
	if !certain {
		return ""
	}
	return name
}
