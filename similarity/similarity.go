package similarity

import "github.com/meysamhadeli/assemble/feature_repository/models"

// Match pairs a candidate with the existing features whose inputs contain all of its inputs.
type Match struct {
	Candidate models.NewFeatureCandidate
	Similar   []models.FeatureRecord
}

// HasMatches reports whether at least one existing feature is similar to the candidate.
func (m Match) HasMatches() bool {
	return len(m.Similar) > 0
}

// IsSimilar reports whether existing covers every input of candidate. A candidate without inputs is covered by everything.
func IsSimilar(candidate models.NewFeatureCandidate, existing models.FeatureRecord) bool {
	inputs := make(map[string]struct{}, len(existing.Inputs))
	for _, input := range existing.Inputs {
		inputs[input] = struct{}{}
	}
	for _, input := range candidate.Inputs {
		if _, ok := inputs[input]; !ok {
			return false
		}
	}
	return true
}

// FindSimilar computes the full match set of every candidate, in candidate order.
// Matches keep the order of existing.
func FindSimilar(candidates []models.NewFeatureCandidate, existing []models.FeatureRecord) []Match {
	matches := make([]Match, 0, len(candidates))
	for _, candidate := range candidates {
		match := Match{Candidate: candidate, Similar: []models.FeatureRecord{}}
		for _, record := range existing {
			if IsSimilar(candidate, record) {
				match.Similar = append(match.Similar, record)
			}
		}
		matches = append(matches, match)
	}

	return matches
}
