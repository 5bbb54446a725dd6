package zone

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	dErrors "calibra/pkg/domain-errors"
)

// ParseRoleMap reads the reference mapping CSV. Recognized columns:
//
//	point_id     zone id the row applies to (required)
//	has_source   "yes"/"no" expected source presence (dedup aid)
//	has_sink     "yes"/"no" expected sink presence (dedup aid)
//	ori_taz_type "tazSource" or "tazSink" (pairing aid)
//	opp_point_id opposite zone id (pairing aid)
//
// Rows without a point_id are skipped. A pairing instruction is only taken
// when both ori_taz_type and opp_point_id are present, mirroring how the
// reference data is produced.
func ParseRoleMap(r io.Reader) (RoleMap, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "read role map header")
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := col["point_id"]; !ok {
		return nil, dErrors.New(dErrors.CodeParse, "role map missing point_id column")
	}

	hints := make(RoleMap)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeParse, "read role map row")
		}

		id := field(record, col, "point_id")
		if id == "" {
			continue
		}
		hint := RoleHint{ZoneID: id}

		hasSource := field(record, col, "has_source")
		hasSink := field(record, col, "has_sink")
		if hasSource != "" || hasSink != "" {
			hint.HasPresence = true
			hint.ExpectSource = strings.EqualFold(hasSource, "yes")
			hint.ExpectSink = strings.EqualFold(hasSink, "yes")
		}

		role := Role(field(record, col, "ori_taz_type"))
		opposite := field(record, col, "opp_point_id")
		if (role == RoleSource || role == RoleSink) && opposite != "" {
			hint.Role = role
			hint.OppositeID = opposite
		}

		hints[id] = hint
	}
	return hints, nil
}

// ParseRoleMapFile opens and parses the reference mapping CSV.
func ParseRoleMapFile(path string) (RoleMap, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeParse, "open role map")
	}
	defer f.Close()
	return ParseRoleMap(f)
}

func field(record []string, col map[string]int, name string) string {
	i, ok := col[name]
	if !ok || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}
