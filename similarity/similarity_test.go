package similarity

import (
	"testing"

	"github.com/meysamhadeli/assemble/feature_repository/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindSimilar_Superset(t *testing.T) {
	candidate := models.NewFeatureCandidate{Name: "ratio", Inputs: []string{"age", "income"}}
	existing := []models.FeatureRecord{
		{ID: "2", Name: "age_only", Inputs: []string{"age"}},
		{ID: "1", Name: "wide", Inputs: []string{"age", "income", "zip"}},
	}

	matches := FindSimilar([]models.NewFeatureCandidate{candidate}, existing)
	require.Len(t, matches, 1)

	assert.True(t, matches[0].HasMatches())
	require.Len(t, matches[0].Similar, 1)
	assert.Equal(t, "1", matches[0].Similar[0].ID)
}

func TestFindSimilar_EveryCandidateGetsItsFullMatchSet(t *testing.T) {
	candidates := []models.NewFeatureCandidate{
		{Name: "a", Inputs: []string{"zip"}},
		{Name: "b", Inputs: []string{"missing"}},
		{Name: "c", Inputs: []string{"age"}},
	}
	existing := []models.FeatureRecord{
		{ID: "3", Inputs: []string{"age", "zip"}},
		{ID: "1", Inputs: []string{"zip"}},
		{ID: "2", Inputs: []string{"age"}},
	}

	matches := FindSimilar(candidates, existing)
	require.Len(t, matches, 3)

	assert.Equal(t, "a", matches[0].Candidate.Name)
	assert.Equal(t, []string{"3", "1"}, ids(matches[0].Similar))
	assert.False(t, matches[1].HasMatches())
	assert.NotNil(t, matches[1].Similar)
	assert.Equal(t, []string{"3", "2"}, ids(matches[2].Similar))
}

func TestFindSimilar_KeepsCandidateAndFeatureOrder(t *testing.T) {
	candidates := []models.NewFeatureCandidate{
		{Name: "z_ratio", Inputs: []string{"age"}},
		{Name: "a_income", Inputs: []string{"income"}},
	}
	existing := []models.FeatureRecord{
		{ID: "b", Inputs: []string{"age", "income"}},
		{ID: "a", Inputs: []string{"income"}},
		{ID: "c", Inputs: []string{"age"}},
	}

	matches := FindSimilar(candidates, existing)
	require.Len(t, matches, 2)

	assert.Equal(t, "z_ratio", matches[0].Candidate.Name)
	assert.Equal(t, []string{"b", "c"}, ids(matches[0].Similar))
	assert.Equal(t, "a_income", matches[1].Candidate.Name)
	assert.Equal(t, []string{"b", "a"}, ids(matches[1].Similar))
}

func TestIsSimilar_Reflexive(t *testing.T) {
	inputs := []string{"age", "income"}
	assert.True(t, IsSimilar(models.NewFeatureCandidate{Inputs: inputs}, models.FeatureRecord{Inputs: inputs}))
}

func TestIsSimilar_Monotone(t *testing.T) {
	candidate := models.NewFeatureCandidate{Inputs: []string{"age"}}
	base := models.FeatureRecord{Inputs: []string{"age"}}
	grown := models.FeatureRecord{Inputs: []string{"age", "zip", "income"}}
	shrunk := models.FeatureRecord{Inputs: []string{"zip"}}

	require.True(t, IsSimilar(candidate, base))
	assert.True(t, IsSimilar(candidate, grown))
	assert.False(t, IsSimilar(candidate, shrunk))

	// removing inputs never creates a match
	unmatched := models.NewFeatureCandidate{Inputs: []string{"height"}}
	assert.False(t, IsSimilar(unmatched, grown))
	assert.False(t, IsSimilar(unmatched, base))
}

func TestIsSimilar_EmptyCandidateMatchesEverything(t *testing.T) {
	assert.True(t, IsSimilar(models.NewFeatureCandidate{}, models.FeatureRecord{}))
	assert.True(t, IsSimilar(models.NewFeatureCandidate{}, models.FeatureRecord{Inputs: []string{"x"}}))
}

func ids(records []models.FeatureRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.ID)
	}
	return out
}
