package zone

import (
	"fmt"
	"sort"
)

// Report collects what a resolution pass did. Errors are recorded
// validation problems, not fatal ones: the pass always completes for the
// ids it can handle.
type Report struct {
	Input        int
	DuplicateIDs []string
	HintSelected int
	Paired       int
	Errors       []string
}

// ErrorCount returns the number of recorded validation errors.
func (r Report) ErrorCount() int { return len(r.Errors) }

// Resolve repairs a zone collection in two independent passes: duplicate
// resolution first, pairing synthesis second. The output contains exactly one
// definition per id, in first-occurrence document order, and never aliases
// the input. Resolving the output again is a no-op.
func Resolve(zones []Zone, hints RoleMap) ([]Zone, Report) {
	report := Report{Input: len(zones)}

	// One pass builds the id index; duplicate groups keep document order.
	order := make([]string, 0, len(zones))
	groups := make(map[string][]Zone, len(zones))
	for _, z := range zones {
		if _, seen := groups[z.ID]; !seen {
			order = append(order, z.ID)
		}
		groups[z.ID] = append(groups[z.ID], z)
	}

	resolved := make([]Zone, 0, len(order))
	index := make(map[string]int, len(order))
	for _, id := range order {
		group := groups[id]
		if len(group) > 1 {
			report.DuplicateIDs = append(report.DuplicateIDs, id)
		}
		selected, byHint := selectDefinition(group, hints)
		if byHint {
			report.HintSelected++
		}
		index[id] = len(resolved)
		resolved = append(resolved, selected.Clone())
	}

	// Presence hints that name no definition at all cannot be resolved;
	// record and move on.
	for _, id := range sortedIDs(hints) {
		hint := hints[id]
		if hint.Role != "" {
			continue // reported by the pairing pass below
		}
		if _, ok := groups[id]; !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("zone %s referenced by mapping but absent from document", id))
		}
	}

	// Pairing synthesis. A failure for one id leaves that zone unmodified
	// and never aborts the remaining ids.
	for _, id := range sortedIDs(hints) {
		hint := hints[id]
		if hint.Role == "" {
			continue
		}
		zi, ok := index[id]
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("zone %s has a pairing hint but is absent from document", id))
			continue
		}
		oi, ok := index[hint.OppositeID]
		if !ok {
			report.Errors = append(report.Errors, fmt.Sprintf("zone %s: opposite %s absent from document", id, hint.OppositeID))
			continue
		}

		switch hint.Role {
		case RoleSource:
			// A source zone discards its own sinks and adopts the
			// opposite zone's sink list wholesale.
			resolved[zi].Sinks = append([]Entry(nil), resolved[oi].Sinks...)
		case RoleSink:
			resolved[zi].Sources = append([]Entry(nil), resolved[oi].Sources...)
		}
		report.Paired++
	}

	return resolved, report
}

// selectDefinition applies the documented tie-break: for duplicate groups,
// the first member whose observed source/sink presence matches the mapping's
// expectation wins; with no matching member (or no expectation) the first
// definition in document order wins. Nothing else participates.
func selectDefinition(group []Zone, hints RoleMap) (Zone, bool) {
	if len(group) == 1 {
		return group[0], false
	}
	if hint, ok := hints[group[0].ID]; ok && hint.HasPresence {
		for _, candidate := range group {
			if candidate.HasSources() == hint.ExpectSource && candidate.HasSinks() == hint.ExpectSink {
				return candidate, true
			}
		}
	}
	return group[0], false
}

func sortedIDs(hints RoleMap) []string {
	ids := make([]string, 0, len(hints))
	for id := range hints {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
