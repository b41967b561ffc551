package tienlen

// LeadRule selects who leads the first trick of a round.
type LeadRule int

const (
	// LeadLowestCard gives the lead to the holder of the lowest card.
	LeadLowestCard LeadRule = iota
	// LeadPreviousWinner gives the lead to the previous round's winner,
	// falling back to the lowest-card holder for the first round.
	LeadPreviousWinner
)

// Rules is a named rule-variant configuration selected at construction.
// Two divergent rule sets exist in the wild; both are preserved as explicit
// presets instead of near-identical engine copies.
type Rules struct {
	Name string
	// SuitTiebreak makes beat comparison use the composite rank+suit key.
	// When false only a strictly higher rank beats.
	SuitTiebreak bool
	// PairRunChops enables the full chop chain (quads and consecutive-pair
	// runs override deuces, quads and shorter runs). When false quads are
	// the only bombs and they chop deuces only.
	PairRunChops bool
	// Lead decides who opens the first trick of a round.
	Lead LeadRule
}

// RulesSouthern is the southern preset: suit tiebreaks, full chop chain,
// lowest-card holder opens.
var RulesSouthern = Rules{
	Name:         "southern",
	SuitTiebreak: true,
	PairRunChops: true,
	Lead:         LeadLowestCard,
}

// RulesNorthern is the northern preset: rank-only comparison, quads chop
// deuces only, previous winner opens.
var RulesNorthern = Rules{
	Name:         "northern",
	SuitTiebreak: false,
	PairRunChops: false,
	Lead:         LeadPreviousWinner,
}

// RulesByName resolves a configured variant name, defaulting to southern.
func RulesByName(name string) Rules {
	if name == RulesNorthern.Name {
		return RulesNorthern
	}
	return RulesSouthern
}
