// Package priority implements the Eisenhower priority score shared by sets
// and requirements.
package priority

// Importance is the strategic weight of a work item.
type Importance string

const (
	ImportanceLow      Importance = "low"
	ImportanceMedium   Importance = "medium"
	ImportanceHigh     Importance = "high"
	ImportanceCritical Importance = "critical"
)

// Urgency is the time pressure on a work item.
type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

// ValidImportance is the set of accepted importance values.
var ValidImportance = map[Importance]bool{
	ImportanceLow:      true,
	ImportanceMedium:   true,
	ImportanceHigh:     true,
	ImportanceCritical: true,
}

// ValidUrgency is the set of accepted urgency values.
var ValidUrgency = map[Urgency]bool{
	UrgencyLow:    true,
	UrgencyMedium: true,
	UrgencyHigh:   true,
}

// scores is the full Eisenhower lookup, 1 (do now) through 6 (drop).
var scores = map[Importance]map[Urgency]int{
	ImportanceCritical: {UrgencyHigh: 1, UrgencyMedium: 2, UrgencyLow: 3},
	ImportanceHigh:     {UrgencyHigh: 2, UrgencyMedium: 3, UrgencyLow: 4},
	ImportanceMedium:   {UrgencyHigh: 3, UrgencyMedium: 4, UrgencyLow: 5},
	ImportanceLow:      {UrgencyHigh: 4, UrgencyMedium: 5, UrgencyLow: 6},
}

// DefaultScore is used when either input is missing or unrecognized.
const DefaultScore = 4

// Score derives the priority from (importance, urgency). It is a pure
// function; stored priority columns are always overwritten with this value,
// never accepted from a caller.
func Score(imp Importance, urg Urgency) int {
	if m, ok := scores[imp]; ok {
		if s, ok := m[urg]; ok {
			return s
		}
	}
	return DefaultScore
}
