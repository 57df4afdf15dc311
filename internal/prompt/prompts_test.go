package prompt

import (
	"testing"

	"sdr-service/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gorm.io/datatypes"
)

func TestNormalizeWeightsDefaults(t *testing.T) {
	weights, err := NormalizeWeights(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultWeights(), weights)
}

func TestNormalizeWeightsMergesOverrides(t *testing.T) {
	weights, err := NormalizeWeights(map[string]int{"industry_fit": 5})
	require.NoError(t, err)
	assert.Equal(t, 5, weights["industry_fit"])
	// untouched criteria keep their defaults
	assert.Equal(t, 1, weights["company_size"])
	assert.Equal(t, 2, weights["decision_maker"])
}

func TestNormalizeWeightsRejectsUnknownCriterion(t *testing.T) {
	_, err := NormalizeWeights(map[string]int{"vibes": 3})
	assert.ErrorContains(t, err, "unknown scoring criterion")
}

func TestNormalizeWeightsRejectsNonPositiveWeight(t *testing.T) {
	_, err := NormalizeWeights(map[string]int{"funding": 0})
	assert.ErrorContains(t, err, "must be positive")

	_, err = NormalizeWeights(map[string]int{"funding": -2})
	assert.ErrorContains(t, err, "must be positive")
}

func TestQualificationPromptEmbedsLeadAndWeights(t *testing.T) {
	lead := &model.Lead{
		Company: "Acme",
		Name:    "Jo Smith",
		Title:   "CTO",
		CompanyMetadata: datatypes.JSONMap{
			"industry": "SaaS",
		},
	}
	weights, err := NormalizeWeights(map[string]int{"tech_stack": 4})
	require.NoError(t, err)

	p := Qualification(lead, weights)
	assert.Contains(t, p, "Acme")
	assert.Contains(t, p, "Jo Smith")
	assert.Contains(t, p, "SaaS")
	assert.Contains(t, p, `"tech_stack": 4`)
	assert.Contains(t, p, "Return strictly valid JSON")
	for _, criterion := range Criteria {
		assert.Contains(t, p, criterion)
	}
}

func TestOutreachPromptEmbedsToneAndGoal(t *testing.T) {
	lead := &model.Lead{Company: "Acme", Email: "a@acme.com"}

	p := Outreach(lead, "friendly", "book a meeting")
	assert.Contains(t, p, "Acme")
	assert.Contains(t, p, "Tone: friendly")
	assert.Contains(t, p, "CTA to book a meeting")
	assert.Contains(t, p, `"subject"`)
	assert.Contains(t, p, `"tags"`)
}
