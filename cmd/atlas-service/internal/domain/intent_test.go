package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEntitiesMerge(t *testing.T) {
	elected := true
	prior := Entities{Name: "Ana Souza", SubjectID: 1, Group: "PT", Year: 2020, Elected: &elected}
	current := Entities{Year: 2024}

	merged := current.Merge(prior)

	assert.Equal(t, 2024, merged.Year)
	assert.Equal(t, "Ana Souza", merged.Name)
	assert.Equal(t, int64(1), merged.SubjectID)
	assert.Equal(t, "PT", merged.Group)
	assert.Equal(t, &elected, merged.Elected)
}

func TestNewIntentResultFallbackFlag(t *testing.T) {
	res := NewIntentResult(IntentGeneral, Entities{}, ConfidenceNone)
	assert.True(t, res.RequiresFallback)

	res = NewIntentResult(IntentSearchSubject, Entities{}, ConfidenceSearch)
	assert.False(t, res.RequiresFallback)
}
