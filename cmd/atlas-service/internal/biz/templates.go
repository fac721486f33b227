package biz

import (
	"fmt"
	"strings"

	"atlashub/cmd/atlas-service/internal/domain"
)

// listRenderCap bounds how many rows a templated listing spells out
// before collapsing the rest into a remainder line.
const listRenderCap = 5

// statsTopN bounds how many per-party lines the statistics template
// prints.
const statsTopN = 5

// RenderTemplate produces the deterministic fallback answer for a
// query result. It is a pure function of the result so the service can
// always answer, providers up or not.
func RenderTemplate(result *domain.QueryResult) string {
	if result == nil {
		return "Desculpe, não consegui processar sua pergunta."
	}
	if result.Err != "" {
		return renderQueryError(result)
	}
	if result.Empty() {
		return "Nenhum resultado encontrado."
	}

	switch result.Type {
	case domain.QuerySearchSubject:
		return renderMatches(result.Matches)
	case domain.QuerySubjectDetails:
		return renderDetail(result.Detail)
	case domain.QueryByGroup, domain.QueryByLocation:
		return renderRecords(result.Records)
	case domain.QueryStatistics:
		return renderStatistics(result.Stats)
	case domain.QueryGroupList:
		return renderGroups(result.Groups)
	default:
		return "Nenhum resultado encontrado."
	}
}

func renderQueryError(result *domain.QueryResult) string {
	switch result.Err {
	case "group not specified":
		return "Qual partido você quer consultar? Por exemplo: \"políticos do PT\"."
	case "location not specified":
		return "Qual estado ou cidade você quer consultar? Por exemplo: \"políticos de São Paulo\"."
	case "name not specified":
		return "Qual político você quer consultar? Por exemplo: \"quem é Ana Souza?\"."
	default:
		return fmt.Sprintf("Não consegui completar a consulta: %s.", result.Err)
	}
}

func renderMatches(matches []domain.SubjectMatch) string {
	var b strings.Builder
	if len(matches) == 1 {
		b.WriteString("Encontrei 1 resultado:\n")
	} else {
		fmt.Fprintf(&b, "Encontrei %d resultados:\n", len(matches))
	}
	for i, m := range matches {
		if i == listRenderCap {
			fmt.Fprintf(&b, "+ %d outros", len(matches)-listRenderCap)
			break
		}
		fmt.Fprintf(&b, "- %s", m.Name)
		if m.Group != "" {
			fmt.Fprintf(&b, " (%s)", m.Group)
		}
		if len(m.Recent) > 0 {
			r := m.Recent[0]
			if r.Position != "" && r.Year != 0 {
				fmt.Fprintf(&b, " — %s em %d", r.Position, r.Year)
			}
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderDetail(d *domain.SubjectDetail) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", d.Name)
	if d.Group != "" {
		fmt.Fprintf(&b, "Partido: %s\n", d.Group)
	}
	if d.LocationCode != "" {
		fmt.Fprintf(&b, "Estado: %s\n", d.LocationCode)
	}
	if len(d.History) > 0 {
		b.WriteString("Mandatos:\n")
		for i, r := range d.History {
			if i == listRenderCap {
				fmt.Fprintf(&b, "+ %d outros\n", len(d.History)-listRenderCap)
				break
			}
			fmt.Fprintf(&b, "- %s em %d", r.Position, r.Year)
			if r.Elected {
				b.WriteString(" (eleito)")
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderRecords(records []domain.Record) string {
	var b strings.Builder
	if len(records) == 1 {
		b.WriteString("Encontrei 1 político:\n")
	} else {
		fmt.Fprintf(&b, "Encontrei %d políticos:\n", len(records))
	}
	for i, r := range records {
		if i == listRenderCap {
			fmt.Fprintf(&b, "+ %d outros", len(records)-listRenderCap)
			break
		}
		fmt.Fprintf(&b, "- %s", r.SubjectName)
		var tags []string
		if r.Group != "" {
			tags = append(tags, r.Group)
		}
		if r.Position != "" {
			tags = append(tags, r.Position)
		}
		if r.Year != 0 {
			tags = append(tags, fmt.Sprintf("%d", r.Year))
		}
		if len(tags) > 0 {
			fmt.Fprintf(&b, " (%s)", strings.Join(tags, ", "))
		}
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderStatistics(s *domain.Statistics) string {
	var b strings.Builder
	b.WriteString("Estatísticas:\n")
	fmt.Fprintf(&b, "Total: %d\n", s.Total)
	if len(s.ByGroup) > 0 {
		b.WriteString("Por partido:\n")
		for i, g := range s.ByGroup {
			if i == statsTopN {
				break
			}
			fmt.Fprintf(&b, "%s: %d\n", g.Group, g.Count)
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderGroups(groups []domain.GroupCount) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Partidos com mandatos registrados (%d):\n", len(groups))
	for i, g := range groups {
		if i == listRenderCap {
			fmt.Fprintf(&b, "+ %d outros", len(groups)-listRenderCap)
			break
		}
		fmt.Fprintf(&b, "- %s: %d\n", g.Group, g.Count)
	}
	return strings.TrimRight(b.String(), "\n")
}

// fixed follow-up suggestions per intent, used when the provider path
// cannot produce any
var defaultSuggestions = map[domain.Intent][]string{
	domain.IntentSearchSubject:  {"Detalhes do primeiro resultado", "Políticos do PT", "Estatísticas gerais"},
	domain.IntentSubjectDetails: {"Quais são os partidos?", "Políticos do mesmo partido", "Estatísticas gerais"},
	domain.IntentByGroup:        {"Quantos foram eleitos?", "Estatísticas do partido", "Quais são os partidos?"},
	domain.IntentByLocation:     {"Quantos foram eleitos?", "Políticos do PT", "Estatísticas gerais"},
	domain.IntentStatistics:     {"Quais são os partidos?", "Políticos do PT", "Eleitos em 2024"},
	domain.IntentGroupList:      {"Políticos do PT", "Estatísticas gerais", "Eleitos em 2024"},
	domain.IntentFollowUp:       {"Estatísticas gerais", "Quais são os partidos?"},
	domain.IntentGeneral:        {"Quem é Ana Souza?", "Políticos do PT", "Quais são os partidos?"},
}

// SuggestionsFor returns the canned follow-up suggestions for an
// intent. The returned slice is a copy.
func SuggestionsFor(intent domain.Intent) []string {
	base, ok := defaultSuggestions[intent]
	if !ok {
		base = defaultSuggestions[domain.IntentGeneral]
	}
	out := make([]string, len(base))
	copy(out, base)
	return out
}
