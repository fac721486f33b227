package biz

import (
	"regexp"
	"strconv"
	"strings"

	"atlashub/cmd/atlas-service/internal/domain"
)

// Static vocabulary for intent-independent entity extraction: party
// acronyms, position titles, state names and election keywords.

var partyAcronyms = map[string]bool{
	"PT": true, "PSDB": true, "MDB": true, "PMDB": true, "PL": true,
	"PP": true, "PSD": true, "PDT": true, "PSB": true, "PSOL": true,
	"PCDOB": true, "NOVO": true, "PODE": true, "REPUBLICANOS": true,
	"PV": true, "REDE": true, "SOLIDARIEDADE": true, "AVANTE": true,
	"CIDADANIA": true, "PSC": true, "PTB": true, "PROS": true,
	"DEM": true, "PFL": true, "PRB": true, "PSL": true, "UNIAO": true,
	"AGIR": true, "MOBILIZA": true, "PRTB": true, "DC": true,
}

// Compound titles come before their base forms so "vice-presidente"
// is not read as "presidente".
var positionTitles = []string{
	"vice-presidente",
	"presidente",
	"vice-governador",
	"governador",
	"senador",
	"deputado federal",
	"deputado estadual",
	"deputado distrital",
	"vice-prefeito",
	"prefeito",
	"vereador",
}

type stateEntry struct {
	name string // normalized (lowercase, accent-folded)
	code string
}

// stateEntries is ordered longest-name-first so "mato grosso do sul"
// wins over "mato grosso", and "rio grande do norte/sul" over
// "rio de janeiro" prefixes.
var stateEntries = []stateEntry{
	{"rio grande do norte", "RN"},
	{"mato grosso do sul", "MS"},
	{"rio grande do sul", "RS"},
	{"distrito federal", "DF"},
	{"santa catarina", "SC"},
	{"rio de janeiro", "RJ"},
	{"espirito santo", "ES"},
	{"mato grosso", "MT"},
	{"minas gerais", "MG"},
	{"pernambuco", "PE"},
	{"sao paulo", "SP"},
	{"tocantins", "TO"},
	{"amazonas", "AM"},
	{"maranhao", "MA"},
	{"rondonia", "RO"},
	{"alagoas", "AL"},
	{"paraiba", "PB"},
	{"roraima", "RR"},
	{"sergipe", "SE"},
	{"parana", "PR"},
	{"bahia", "BA"},
	{"ceara", "CE"},
	{"goias", "GO"},
	{"piaui", "PI"},
	{"amapa", "AP"},
	{"acre", "AC"},
	{"para", "PA"},
}

// stateCodes maps normalized state names to their two-letter codes.
var stateCodes = func() map[string]string {
	m := make(map[string]string, len(stateEntries))
	for _, s := range stateEntries {
		m[s.name] = s.code
	}
	return m
}()

var stateCodeSet = func() map[string]bool {
	set := make(map[string]bool, len(stateCodes))
	for _, code := range stateCodes {
		set[code] = true
	}
	return set
}()

var (
	reYear       = regexp.MustCompile(`\b(19[89]\d|20[0-3]\d)\b`)
	reWord       = regexp.MustCompile(`[A-Za-zÀ-ÖØ-öø-ÿ]+`)
	reNotElected = regexp.MustCompile(`(?i)\bn[ãa]o\s+eleit[oa]s?\b|\bderrotad[oa]s?\b`)
	reElected    = regexp.MustCompile(`(?i)\beleit[oa]s?\b`)
	reSpaces     = regexp.MustCompile(`\s+`)

	// accent folding table for vocabulary lookups
	accentReplacer = strings.NewReplacer(
		"á", "a", "à", "a", "â", "a", "ã", "a", "ä", "a",
		"é", "e", "ê", "e", "è", "e", "ë", "e",
		"í", "i", "î", "i", "ì", "i", "ï", "i",
		"ó", "o", "ô", "o", "õ", "o", "ò", "o", "ö", "o",
		"ú", "u", "û", "u", "ù", "u", "ü", "u",
		"ç", "c",
	)
)

// normalize lowercases and strips accents for vocabulary matching.
func normalize(s string) string {
	return accentReplacer.Replace(strings.ToLower(strings.TrimSpace(s)))
}

// extractEntities pulls intent-independent entities out of a message.
// The result is merged into the classification regardless of which
// pattern family wins.
func extractEntities(message string) domain.Entities {
	var e domain.Entities
	norm := normalize(message)

	if m := reYear.FindString(message); m != "" {
		year, _ := strconv.Atoi(m)
		e.Year = year
	}

	// party acronyms are matched token-exact, case-insensitively
	for _, token := range reWord.FindAllString(message, -1) {
		upper := strings.ToUpper(accentReplacer.Replace(strings.ToLower(token)))
		if partyAcronyms[upper] {
			e.Group = upper
			break
		}
	}

	for _, title := range positionTitles {
		if strings.Contains(norm, title) {
			e.Position = title
			break
		}
	}

	for _, st := range stateEntries {
		// "para" is also the common preposition; only treat it as
		// the state when written with its accent.
		if st.name == "para" && !strings.Contains(strings.ToLower(message), "pará") {
			continue
		}
		if containsWord(norm, st.name) {
			e.Location = st.name
			e.LocationCode = st.code
			break
		}
	}
	if e.LocationCode == "" {
		// bare two-letter state code as its own token
		for _, token := range reWord.FindAllString(message, -1) {
			upper := strings.ToUpper(token)
			if len(token) == 2 && stateCodeSet[upper] && !partyAcronyms[upper] {
				e.LocationCode = upper
				break
			}
		}
	}

	if reNotElected.MatchString(message) {
		v := false
		e.Elected = &v
	} else if reElected.MatchString(message) {
		v := true
		e.Elected = &v
	}

	return e
}

// cleanCapture tidies a name or location captured by a pattern: trims,
// strips trailing punctuation, collapses whitespace and drops a single
// leading article token.
func cleanCapture(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimRight(s, "?!.,;:")
	s = reSpaces.ReplaceAllString(s, " ")
	s = strings.TrimSpace(s)

	if first, rest, ok := strings.Cut(s, " "); ok {
		switch strings.ToLower(first) {
		case "o", "a", "os", "as", "um", "uma":
			s = rest
		}
	}
	return strings.TrimSpace(s)
}

// containsWord reports whether phrase occurs in s on word boundaries.
func containsWord(s, phrase string) bool {
	idx := 0
	for {
		i := strings.Index(s[idx:], phrase)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(phrase)
		beforeOK := start == 0 || !isLetter(rune(s[start-1]))
		afterOK := end == len(s) || !isLetter(rune(s[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// isNumeric reports whether the string is digits only. Used to keep a
// captured "location" that is really a year from being misread.
func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// resolveLocation maps a free-text location to a state code when it
// names a state; otherwise the text is kept as a city name.
func resolveLocation(loc string) (name, code string) {
	norm := normalize(loc)
	if c, ok := stateCodes[norm]; ok {
		return norm, c
	}
	if len(loc) == 2 && stateCodeSet[strings.ToUpper(loc)] {
		return "", strings.ToUpper(loc)
	}
	return strings.TrimSpace(loc), ""
}
