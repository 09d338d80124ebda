package transform

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// DefaultMaxTransformations caps the merged list unless configured
// otherwise.
const DefaultMaxTransformations = 10

// ApplyPrecedence merges explicit URL transformations over policy authored
// ones. The policy list keeps its original order; a URL transformation
// whose type already exists overwrites that slot in place, anything new is
// appended at the end.
func ApplyPrecedence(urlList, policyList []Transformation) []Transformation {
	merged := make([]Transformation, len(policyList))
	position := make(map[string]int, len(policyList))
	for i, t := range policyList {
		t.Source = SourcePolicy
		merged[i] = t
		position[t.Type] = i
	}

	for _, t := range urlList {
		t.Source = SourceURL
		if i, ok := position[t.Type]; ok {
			merged[i] = t
		} else {
			position[t.Type] = len(merged)
			merged = append(merged, t)
		}
	}

	return merged
}

// EnforceLimits truncates the merged list to the first max entries in
// merged order and returns the number of dropped transformations. Entries
// are never reordered to save a later one.
func EnforceLimits(list []Transformation, max int) ([]Transformation, int) {
	if max <= 0 {
		max = DefaultMaxTransformations
	}

	if len(list) <= max {
		return list, 0
	}

	dropped := list[max:]
	names := make([]string, len(dropped))
	for i, t := range dropped {
		names[i] = t.Type + "(" + string(t.Source) + ")"
	}

	log.Warnf("transformation limit %d exceeded, dropping %d: %s",
		max, len(dropped), strings.Join(names, ", "))

	return list[:max], len(dropped)
}
