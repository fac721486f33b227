package biz

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractEntities_Year(t *testing.T) {
	e := extractEntities("eleições de 2022")
	assert.Equal(t, 2022, e.Year)

	e = extractEntities("o número 123456 não é um ano")
	assert.Zero(t, e.Year)
}

func TestExtractEntities_PartyAcronym(t *testing.T) {
	e := extractEntities("candidatos do psol em 2024")
	assert.Equal(t, "PSOL", e.Group)

	// token-exact: a party acronym inside a word does not count
	e = extractEntities("aptidão para o cargo")
	assert.Empty(t, e.Group)
}

func TestExtractEntities_PositionCompoundTitle(t *testing.T) {
	e := extractEntities("quem foi vice-presidente em 2018")
	assert.Equal(t, "vice-presidente", e.Position)

	e = extractEntities("deputado federal pelo PT")
	assert.Equal(t, "deputado federal", e.Position)
}

func TestExtractEntities_StateNames(t *testing.T) {
	testCases := []struct {
		message  string
		location string
		code     string
	}{
		{"políticos de minas gerais", "minas gerais", "MG"},
		{"candidatos do rio grande do sul", "rio grande do sul", "RS"},
		{"eleitos em mato grosso do sul", "mato grosso do sul", "MS"},
		{"vereadores de são paulo", "sao paulo", "SP"},
	}

	for _, tc := range testCases {
		e := extractEntities(tc.message)
		assert.Equal(t, tc.location, e.Location, "message: %q", tc.message)
		assert.Equal(t, tc.code, e.LocationCode, "message: %q", tc.message)
	}
}

func TestExtractEntities_ParaRequiresAccent(t *testing.T) {
	// "para" the preposition must not read as the state
	e := extractEntities("candidatos para prefeito")
	assert.Empty(t, e.LocationCode)

	e = extractEntities("deputados do Pará")
	assert.Equal(t, "PA", e.LocationCode)
}

func TestExtractEntities_BareStateCode(t *testing.T) {
	e := extractEntities("senadores de SP eleitos")
	assert.Equal(t, "SP", e.LocationCode)

	// PT is a party, never a state code
	e = extractEntities("candidatos do PT")
	assert.Equal(t, "PT", e.Group)
	assert.Empty(t, e.LocationCode)
}

func TestExtractEntities_Elected(t *testing.T) {
	e := extractEntities("candidatos eleitos em 2024")
	if assert.NotNil(t, e.Elected) {
		assert.True(t, *e.Elected)
	}

	e = extractEntities("candidatos não eleitos em 2024")
	if assert.NotNil(t, e.Elected) {
		assert.False(t, *e.Elected)
	}

	e = extractEntities("candidatos derrotados")
	if assert.NotNil(t, e.Elected) {
		assert.False(t, *e.Elected)
	}

	e = extractEntities("candidatos do PT")
	assert.Nil(t, e.Elected)
}

func TestCleanCapture(t *testing.T) {
	testCases := []struct {
		in       string
		expected string
	}{
		{"Ana Souza?", "Ana Souza"},
		{"  Carlos   Lima!! ", "Carlos Lima"},
		{"o presidente", "presidente"},
		{"a Maria Santos", "Maria Santos"},
		{"os deputados", "deputados"},
		{"", ""},
	}

	for _, tc := range testCases {
		assert.Equal(t, tc.expected, cleanCapture(tc.in), "input: %q", tc.in)
	}
}

func TestResolveLocation(t *testing.T) {
	name, code := resolveLocation("Minas Gerais")
	assert.Equal(t, "minas gerais", name)
	assert.Equal(t, "MG", code)

	name, code = resolveLocation("RJ")
	assert.Empty(t, name)
	assert.Equal(t, "RJ", code)

	// unknown text stays a free-form city name
	name, code = resolveLocation("Campinas")
	assert.Equal(t, "Campinas", name)
	assert.Empty(t, code)
}
