package serviceorder

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateRelations(t *testing.T) {
	assert.NoError(t, ValidateRelations(nil))
	assert.NoError(t, ValidateRelations([]string{"tecnicos", "assinatura"}))

	err := ValidateRelations([]string{"tecnicos", "faturas"})
	assert.ErrorIs(t, err, ErrUnknownRelation)
	assert.Contains(t, err.Error(), "faturas")
}

func TestDegradationLadder(t *testing.T) {
	t.Run("shrinks one token at a time down to empty", func(t *testing.T) {
		ladder := DegradationLadder([]string{"tecnicos", "atendimento", "assinatura"})
		assert.Equal(t, [][]string{
			{"tecnicos", "atendimento", "assinatura"},
			{"tecnicos", "atendimento"},
			{"tecnicos"},
			{},
		}, ladder)
	})

	t.Run("drops tokens outside the allow-list", func(t *testing.T) {
		ladder := DegradationLadder([]string{"faturas", "tecnicos"})
		assert.Equal(t, [][]string{{"tecnicos"}, {}}, ladder)
	})

	t.Run("empty preferred set yields a single empty candidate", func(t *testing.T) {
		ladder := DegradationLadder(nil)
		assert.Equal(t, [][]string{{}}, ladder)
	})
}
