package zone

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"

	dErrors "calibra/pkg/domain-errors"
)

type tazDocument struct {
	XMLName xml.Name `xml:"tazs"`
	Zones   []Zone   `xml:"taz"`
}

// Parse reads a TAZ additional file, preserving document order. Duplicated
// ids are returned as-is; resolution is the resolver's job.
func Parse(r io.Reader) ([]Zone, error) {
	var doc tazDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "decode taz document")
	}
	return doc.Zones, nil
}

// ParseFile opens and parses a TAZ additional file.
func ParseFile(path string) ([]Zone, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "open taz file")
	}
	defer f.Close()
	zones, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return zones, nil
}

// Write emits the zone collection as a TAZ additional document. It refuses to
// export a collection that still contains duplicate ids: a broken artifact
// must never reach the simulator.
func Write(w io.Writer, zones []Zone) error {
	if err := Validate(zones); err != nil {
		return err
	}
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "    ")
	if err := enc.Encode(tazDocument{Zones: zones}); err != nil {
		return fmt.Errorf("encode taz document: %w", err)
	}
	if err := enc.Close(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// WriteFile writes the zone collection to path.
func WriteFile(path string, zones []Zone) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create taz file: %w", err)
	}
	if err := Write(f, zones); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Validate flags duplicate ids in a collection that is supposed to be
// resolved.
func Validate(zones []Zone) error {
	seen := make(map[string]struct{}, len(zones))
	for _, z := range zones {
		if _, dup := seen[z.ID]; dup {
			return dErrors.Newf(dErrors.CodeConsistency, "duplicate zone id %q after resolution", z.ID)
		}
		seen[z.ID] = struct{}{}
	}
	return nil
}
