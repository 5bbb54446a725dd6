package detector

import (
	"encoding/xml"
	"io"
	"os"

	dErrors "calibra/pkg/domain-errors"
)

type additionalDocument struct {
	XMLName xml.Name        `xml:"additional"`
	Loops   []inductionLoop `xml:"inductionLoop"`
}

type inductionLoop struct {
	ID   string `xml:"id,attr"`
	Lane string `xml:"lane,attr"`
	File string `xml:"file,attr"`
}

// ParseDefinitions reads the detector additional file. Rows missing an id or
// an output file reference are useless downstream and are dropped here.
func ParseDefinitions(r io.Reader) ([]Definition, error) {
	var doc additionalDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "decode detector definitions")
	}
	defs := make([]Definition, 0, len(doc.Loops))
	for _, loop := range doc.Loops {
		if loop.ID == "" || loop.File == "" {
			continue
		}
		defs = append(defs, Definition{ID: loop.ID, Lane: loop.Lane, File: loop.File})
	}
	return defs, nil
}

// ParseDefinitionsFile opens and parses the detector additional file.
func ParseDefinitionsFile(path string) ([]Definition, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "open detector definitions")
	}
	defer f.Close()
	return ParseDefinitions(f)
}
