package zone

import "encoding/xml"

// Role says which side of a paired zone couple this zone plays. A source
// zone borrows its sink list from its opposite; a sink zone borrows its
// source list.
type Role string

const (
	RoleSource Role = "tazSource"
	RoleSink   Role = "tazSink"
)

// Entry is one weighted edge reference inside a zone definition.
type Entry struct {
	ID     string  `xml:"id,attr"`
	Weight float64 `xml:"weight,attr"`
}

// Zone is one traffic-analysis-zone definition as it appears in the TAZ
// additional file. Source and sink order is preserved from the document.
type Zone struct {
	XMLName xml.Name `xml:"taz"`
	ID      string   `xml:"id,attr"`
	Name    string   `xml:"name,attr,omitempty"`
	Sources []Entry  `xml:"tazSource"`
	Sinks   []Entry  `xml:"tazSink"`
}

// HasSources reports whether the definition carries at least one source edge.
func (z Zone) HasSources() bool { return len(z.Sources) > 0 }

// HasSinks reports whether the definition carries at least one sink edge.
func (z Zone) HasSinks() bool { return len(z.Sinks) > 0 }

// Clone returns a deep copy so resolver output never aliases input slices.
func (z Zone) Clone() Zone {
	c := z
	c.Sources = append([]Entry(nil), z.Sources...)
	c.Sinks = append([]Entry(nil), z.Sinks...)
	return c
}

// RoleHint is one row of the external reference mapping. Presence
// expectations guide duplicate selection; role and opposite id drive pairing
// synthesis. Hints are consulted during repair only and never persisted.
type RoleHint struct {
	ZoneID string

	// HasPresence is true when the row carries expected source/sink flags.
	HasPresence  bool
	ExpectSource bool
	ExpectSink   bool

	// Role is empty when the row carries no pairing instruction.
	Role       Role
	OppositeID string
}

// RoleMap indexes hints by zone id.
type RoleMap map[string]RoleHint
