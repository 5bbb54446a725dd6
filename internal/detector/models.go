package detector

import "strings"

// Definition is one detector row from the simulator's additional file: the
// detector id, the lane it sits on, and the output file the simulator writes
// for it.
type Definition struct {
	ID   string
	Lane string
	File string
}

// StationID derives the logical aggregation key from a detector id. Lane
// detectors of one gantry share the prefix before the first underscore, so
// "G001_lane0" and "G001_lane1" both roll up into station "G001". An id
// without a delimiter is its own station.
func StationID(detectorID string) string {
	if i := strings.Index(detectorID, "_"); i >= 0 {
		return detectorID[:i]
	}
	return detectorID
}
