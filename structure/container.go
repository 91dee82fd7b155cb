package structure

import (
	"encoding/xml"
	"fmt"

	"github.com/tsawler/folio/archive"
	"github.com/tsawler/folio/model"
)

// containerXML mirrors the structure of META-INF/container.xml.
type containerXML struct {
	XMLName   xml.Name  `xml:"container"`
	Version   string    `xml:"version,attr"`
	Rootfiles rootfiles `xml:"rootfiles"`
}

type rootfiles struct {
	Rootfile []rootfile `xml:"rootfile"`
}

type rootfile struct {
	FullPath  string `xml:"full-path,attr"`
	MediaType string `xml:"media-type,attr"`
}

// parseContainer locates the package document path from the container
// descriptor: the first rootfile with the package media type wins, falling
// back to the first rootfile declaring any full-path.
func parseContainer(a *archive.Archive) (string, []model.Diagnostic, error) {
	var diags []model.Diagnostic

	data, err := a.Read("META-INF/container.xml")
	if err != nil {
		diags = append(diags, model.NewFatal(stage, "META-INF/container.xml is missing").
			WithLocation("META-INF/container.xml"))
		return "", diags, ErrNoRootfile
	}

	var container containerXML
	if err := xml.Unmarshal(data, &container); err != nil {
		diags = append(diags, model.NewFatal(stage,
			fmt.Sprintf("container.xml could not be parsed: %v", err)).
			WithLocation("META-INF/container.xml"))
		return "", diags, ErrNoRootfile
	}

	for _, rf := range container.Rootfiles.Rootfile {
		if rf.MediaType == PackageMediaType || rf.MediaType == "" {
			if rf.FullPath != "" {
				return rf.FullPath, diags, nil
			}
		}
	}

	// No media-type match; take any rootfile with a path.
	for _, rf := range container.Rootfiles.Rootfile {
		if rf.FullPath != "" {
			diags = append(diags, model.NewWarning(stage,
				fmt.Sprintf("no rootfile with media type %q; using %q", PackageMediaType, rf.FullPath)))
			return rf.FullPath, diags, nil
		}
	}

	diags = append(diags, model.NewFatal(stage, "container.xml declares no rootfile with a full-path attribute").
		WithLocation("META-INF/container.xml").
		WithSuggestion("the archive is not a usable EPUB"))
	return "", diags, ErrNoRootfile
}
