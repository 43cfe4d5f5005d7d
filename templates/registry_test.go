package templates

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pecajuridica-backend/models"
)

func TestEveryTypeHasDistinctSections(t *testing.T) {
	types := List()
	require.Len(t, types, 12)

	for _, docType := range types {
		tpl, err := Get(docType)
		require.NoError(t, err, docType)
		require.NotEmpty(t, tpl.Sections, docType)

		seen := make(map[string]bool)
		for _, name := range tpl.Sections {
			assert.False(t, seen[name], "%s repeats section %s", docType, name)
			seen[name] = true
		}
		assert.True(t, tpl.Requires(models.FieldFactSummary), docType)
	}
}

func TestGetUnknownType(t *testing.T) {
	_, err := Get("habeas_corpus")
	assert.ErrorIs(t, err, ErrUnknownDocumentType)
}

func TestGetReturnsCopy(t *testing.T) {
	tpl, err := Get(models.DocumentTypePetition)
	require.NoError(t, err)
	tpl.Sections[0] = "mutated"

	again, err := Get(models.DocumentTypePetition)
	require.NoError(t, err)
	assert.Equal(t, "preambulo", again.Sections[0])
}

func TestPetitionRequiresParties(t *testing.T) {
	tpl, err := Get(models.DocumentTypePetition)
	require.NoError(t, err)
	assert.True(t, tpl.Requires(models.FieldParties))
	assert.False(t, tpl.Requires(models.FieldRequestedRelief))

	motion, err := Get(models.DocumentTypeInterlocutoryMotion)
	require.NoError(t, err)
	assert.False(t, motion.Requires(models.FieldParties))
}

func TestParse(t *testing.T) {
	tests := []struct {
		raw  string
		want models.DocumentType
	}{
		{"petition", models.DocumentTypePetition},
		{" Appeal ", models.DocumentTypeAppeal},
		{"peticao_inicial", models.DocumentTypePetition},
		{"contestacao", models.DocumentTypeAnswer},
	}
	for _, tt := range tests {
		got, err := Parse(tt.raw)
		require.NoError(t, err, tt.raw)
		assert.Equal(t, tt.want, got)
	}

	_, err := Parse("mandado")
	assert.ErrorIs(t, err, ErrUnknownDocumentType)
}

func TestSectionTitle(t *testing.T) {
	assert.Equal(t, "Dos Pedidos", SectionTitle("dos_pedidos"))
	assert.Equal(t, "Fumus Boni Iuris", SectionTitle("fumus_boni_iuris"))
	assert.Equal(t, "Preambulo", SectionTitle("preambulo"))
	assert.Equal(t, "", SectionTitle(""))
}

func TestSectionPatterns(t *testing.T) {
	assert.True(t, IsRequestsSection("dos_pedidos"))
	assert.True(t, IsRequestsSection("requerimentos"))
	assert.True(t, IsRequestsSection("pedidos_antecipatorios"))
	assert.False(t, IsRequestsSection("dos_fatos"))

	assert.True(t, IsGroundsSection("fundamentacao_juridica"))
	assert.True(t, IsGroundsSection("teses_defendidas"))
	assert.False(t, IsGroundsSection("jurisprudencia"))
}
