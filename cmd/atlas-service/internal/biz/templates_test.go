package biz

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"atlashub/cmd/atlas-service/internal/domain"
)

func TestRenderTemplate_Statistics(t *testing.T) {
	result := &domain.QueryResult{
		Type:  domain.QueryStatistics,
		Count: 120,
		Stats: &domain.Statistics{
			Total: 120,
			ByGroup: []domain.GroupCount{
				{Group: "PT", Count: 40},
				{Group: "PSDB", Count: 30},
				{Group: "MDB", Count: 20},
				{Group: "PL", Count: 15},
				{Group: "PSOL", Count: 10},
				{Group: "NOVO", Count: 5},
			},
		},
	}

	text := RenderTemplate(result)

	assert.Contains(t, text, "Total: 120")
	assert.Contains(t, text, "PT: 40")
	assert.Contains(t, text, "PSDB: 30")
	// only the top five parties are spelled out
	assert.NotContains(t, text, "NOVO")
}

func TestRenderTemplate_MissingGroup(t *testing.T) {
	result := &domain.QueryResult{
		Type: domain.QueryByGroup,
		Err:  "group not specified",
	}

	text := RenderTemplate(result)
	assert.Contains(t, text, "Qual partido")
}

func TestRenderTemplate_EmptyResult(t *testing.T) {
	result := &domain.QueryResult{Type: domain.QuerySearchSubject}
	assert.Equal(t, "Nenhum resultado encontrado.", RenderTemplate(result))

	assert.NotEmpty(t, RenderTemplate(nil))
}

func TestRenderTemplate_RecordListCapped(t *testing.T) {
	records := make([]domain.Record, 8)
	for i := range records {
		records[i] = domain.Record{
			SubjectID:   int64(i + 1),
			SubjectName: fmt.Sprintf("Político %d", i+1),
			Group:       "PT",
			Year:        2024,
		}
	}
	result := &domain.QueryResult{
		Type:    domain.QueryByGroup,
		Count:   len(records),
		Records: records,
	}

	text := RenderTemplate(result)

	assert.Contains(t, text, "Encontrei 8 políticos")
	assert.Contains(t, text, "Político 5")
	assert.NotContains(t, text, "Político 6")
	assert.Contains(t, text, "+ 3 outros")
}

func TestRenderTemplate_Detail(t *testing.T) {
	result := &domain.QueryResult{
		Type:  domain.QuerySubjectDetails,
		Count: 1,
		Detail: &domain.SubjectDetail{
			SubjectRef: domain.SubjectRef{ID: 1, Name: "Ana Souza", Group: "PT", LocationCode: "SP"},
			History: []domain.Record{
				{Position: "deputado federal", Year: 2022, Elected: true},
				{Position: "vereador", Year: 2016, Elected: false},
			},
		},
	}

	text := RenderTemplate(result)

	assert.Contains(t, text, "Ana Souza")
	assert.Contains(t, text, "Partido: PT")
	assert.Contains(t, text, "Estado: SP")
	assert.Contains(t, text, "deputado federal em 2022 (eleito)")
	assert.Contains(t, text, "vereador em 2016")
	assert.NotContains(t, text, "vereador em 2016 (eleito)")
}

func TestRenderTemplate_GroupList(t *testing.T) {
	result := &domain.QueryResult{
		Type:  domain.QueryGroupList,
		Count: 2,
		Groups: []domain.GroupCount{
			{Group: "PT", Count: 40},
			{Group: "MDB", Count: 12},
		},
	}

	text := RenderTemplate(result)
	assert.Contains(t, text, "PT: 40")
	assert.Contains(t, text, "MDB: 12")
}

func TestRenderTemplate_IsPure(t *testing.T) {
	result := &domain.QueryResult{
		Type:  domain.QueryStatistics,
		Count: 7,
		Stats: &domain.Statistics{Total: 7, ByGroup: []domain.GroupCount{{Group: "PT", Count: 7}}},
	}

	first := RenderTemplate(result)
	second := RenderTemplate(result)
	assert.Equal(t, first, second)
}

func TestSuggestionsFor(t *testing.T) {
	for _, intent := range []domain.Intent{
		domain.IntentSearchSubject,
		domain.IntentByGroup,
		domain.IntentStatistics,
		domain.IntentGeneral,
		domain.Intent("unknown"),
	} {
		suggestions := SuggestionsFor(intent)
		assert.NotEmpty(t, suggestions, "intent: %s", intent)
	}

	// callers get a copy, not the shared table
	s := SuggestionsFor(domain.IntentByGroup)
	s[0] = strings.ToUpper(s[0])
	assert.NotEqual(t, s[0], SuggestionsFor(domain.IntentByGroup)[0])
}
