package detector

import (
	"encoding/xml"
	"os"

	dErrors "calibra/pkg/domain-errors"
)

type outputDocument struct {
	Intervals []outputInterval `xml:"interval"`
}

type outputInterval struct {
	Begin float64 `xml:"begin,attr"`
	End   float64 `xml:"end,attr"`
	Count float64 `xml:"count,attr"`
}

// parseOutputFile reads one detector output file: interval elements carrying
// begin/end in simulation seconds and a vehicle count.
func parseOutputFile(path string) ([]outputInterval, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "open detector output")
	}
	defer f.Close()

	var doc outputDocument
	if err := xml.NewDecoder(f).Decode(&doc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "decode detector output")
	}
	return doc.Intervals, nil
}
