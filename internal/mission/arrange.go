package mission

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
)

// SortMode selects the mission order.
type SortMode string

const (
	SortNone   SortMode = "x"
	SortSource SortMode = "source"
	SortTarget SortMode = "target"
	SortPreset SortMode = "preset"
)

// ParseSortMode accepts x, none, source, target or preset. An empty string is
// SortNone.
func ParseSortMode(s string) (SortMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "x", "none":
		return SortNone, nil
	case "source":
		return SortSource, nil
	case "target":
		return SortTarget, nil
	case "preset":
		return SortPreset, nil
	}
	return "", fmt.Errorf("unknown sort mode %q (want source, target, preset or x)", s)
}

// Arrangement is the result of Arrange.
type Arrangement struct {
	Missions   []Mission
	Duplicates []Mission
}

// Arrange orders missions by mode and drops exact duplicates, keeping the
// first occurrence in the sorted order. Sorting is stable. The input slice is
// not modified.
func Arrange(missions []Mission, mode SortMode) Arrangement {
	ordered := slices.Clone(missions)
	switch mode {
	case SortSource:
		slices.SortStableFunc(ordered, func(a, b Mission) int { return cmp.Compare(a.Source, b.Source) })
	case SortTarget:
		slices.SortStableFunc(ordered, func(a, b Mission) int { return cmp.Compare(a.StandardTarget, b.StandardTarget) })
	case SortPreset:
		slices.SortStableFunc(ordered, func(a, b Mission) int { return cmp.Compare(a.PresetID(), b.PresetID()) })
	}

	result := Arrangement{Missions: make([]Mission, 0, len(ordered))}
	seen := make(map[Key]struct{}, len(ordered))
	for _, m := range ordered {
		key := m.Key()
		if _, dup := seen[key]; dup {
			result.Duplicates = append(result.Duplicates, m)
			continue
		}
		seen[key] = struct{}{}
		result.Missions = append(result.Missions, m)
	}
	return result
}
