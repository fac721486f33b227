package biz

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-kratos/kratos/v2/log"

	"atlashub/cmd/atlas-service/internal/domain"
)

// captureKind says what a pattern's first capture group holds.
type captureKind int

const (
	captureNone captureKind = iota
	captureName
	captureGroup
	captureLocation
)

// intentPattern is one rule in a family: a compiled pattern plus what
// its capture group extracts.
type intentPattern struct {
	re      *regexp.Regexp
	capture captureKind
}

// patternFamily groups the patterns for one intent. Families are
// evaluated in fixed priority order and the first matching pattern of
// the first matching family wins with the family's fixed confidence.
type patternFamily struct {
	name       string
	intent     domain.Intent
	confidence float64
	patterns   []intentPattern
}

// Classifier turns a free-text message plus prior-turn context into an
// intent and entity set. Classify is a total function: it never fails,
// worst case is the catch-all intent at confidence zero.
type Classifier struct {
	families  []patternFamily
	reference []*regexp.Regexp
	log       *log.Helper
}

// NewClassifier compiles the default rule tables.
func NewClassifier(logger log.Logger) *Classifier {
	return &Classifier{
		families:  defaultFamilies(),
		reference: referencePatterns(),
		log:       log.NewHelper(log.With(logger, "module", "classifier")),
	}
}

func defaultFamilies() []patternFamily {
	return []patternFamily{
		{
			name:       "group_list",
			intent:     domain.IntentGroupList,
			confidence: domain.ConfidenceListing,
			patterns: []intentPattern{
				{re: regexp.MustCompile(`(?i)^quais\s+(?:s[ãa]o\s+os\s+)?partidos`), capture: captureNone},
				{re: regexp.MustCompile(`(?i)\blista(?:gem)?\s+d[eo]s?\s+partidos\b`), capture: captureNone},
				{re: regexp.MustCompile(`(?i)^partidos[\s?!.]*$`), capture: captureNone},
			},
		},
		{
			name:       "statistics",
			intent:     domain.IntentStatistics,
			confidence: domain.ConfidenceListing,
			patterns: []intentPattern{
				{re: regexp.MustCompile(`(?i)\bestat[íi]sticas?\b`), capture: captureNone},
				{re: regexp.MustCompile(`(?i)^quant[oa]s\b`), capture: captureNone},
				{re: regexp.MustCompile(`(?i)\bquant[oa]s\s+(?:foram|s[ãa]o|existem|h[áa])\b`), capture: captureNone},
				{re: regexp.MustCompile(`(?i)\btotal\s+de\b`), capture: captureNone},
				{re: regexp.MustCompile(`(?i)\bn[úu]mero\s+de\b`), capture: captureNone},
				{re: regexp.MustCompile(`(?i)\bresumo\s+geral\b`), capture: captureNone},
			},
		},
		{
			name:       "by_group",
			intent:     domain.IntentByGroup,
			confidence: domain.ConfidenceListing,
			patterns: []intentPattern{
				{re: regexp.MustCompile(`(?i)\bdo\s+partido\s+([A-Za-zÀ-ÖØ-öø-ÿ]+)`), capture: captureGroup},
				{re: regexp.MustCompile(`(?i)^(?:pol[íi]ticos|candidatos|filiados|membros)\s+d[oae]\s+([A-Za-zÀ-ÖØ-öø-ÿ]+)[\s?!.]*$`), capture: captureGroup},
				{re: regexp.MustCompile(`(?i)\bfiliados?\s+ao\s+([A-Za-zÀ-ÖØ-öø-ÿ]+)`), capture: captureGroup},
			},
		},
		{
			name:       "by_location",
			intent:     domain.IntentByLocation,
			confidence: domain.ConfidenceLocation,
			patterns: []intentPattern{
				{re: regexp.MustCompile(`(?i)(?:pol[íi]ticos|candidatos|deputados|senadores|vereadores|prefeitos)\s+(?:de|em|do\s+estado\s+d[eoa]|da\s+cidade\s+de|no|na)\s+(.+)$`), capture: captureLocation},
				{re: regexp.MustCompile(`(?i)^quem\s+s[ãa]o\s+os\s+.*\b(?:de|em)\s+(.+)$`), capture: captureLocation},
				{re: regexp.MustCompile(`(?i)^eleit[oa]s?\s+(?:de|em|por)\s+(.+)$`), capture: captureLocation},
			},
		},
		{
			name:       "subject_details",
			intent:     domain.IntentSubjectDetails,
			confidence: domain.ConfidenceDetails,
			patterns: []intentPattern{
				{re: regexp.MustCompile(`(?i)^(?:detalhes|informa[çc][õo]es)\s+(?:de|do|da|sobre)\s+(.+)$`), capture: captureName},
				{re: regexp.MustCompile(`(?i)^(?:me\s+)?(?:fale|conte|diga)\s+(?:mais\s+)?sobre\s+(.+)$`), capture: captureName},
				{re: regexp.MustCompile(`(?i)^hist[óo]rico\s+(?:de|do|da)\s+(.+)$`), capture: captureName},
				{re: regexp.MustCompile(`(?i)^perfil\s+(?:de|do|da)\s+(.+)$`), capture: captureName},
			},
		},
		{
			name:       "search_subject",
			intent:     domain.IntentSearchSubject,
			confidence: domain.ConfidenceSearch,
			patterns: []intentPattern{
				{re: regexp.MustCompile(`(?i)^quem\s+[ée]\s+(.+)$`), capture: captureName},
				{re: regexp.MustCompile(`(?i)^(?:procur[ae]r?|busque?|buscar|encontr[ae]r?)\s+(?:por\s+)?(.+)$`), capture: captureName},
				{re: regexp.MustCompile(`(?i)^pesquis[ae]r?\s+(?:por\s+)?(.+)$`), capture: captureName},
				{re: regexp.MustCompile(`(?i)^existe\s+(?:algum|alguma)?\s*pol[íi]tic[oa]\s+chamad[oa]\s+(.+)$`), capture: captureName},
			},
		},
	}
}

// referencePatterns match short messages that lean on the previous
// turn: pronouns, bare question words and bare affirmations.
func referencePatterns() []*regexp.Regexp {
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)^e\s`),
		regexp.MustCompile(`(?i)^mas\s`),
		regexp.MustCompile(`(?i)\b(?:ele|ela|deles?|delas?|desses?|dessas?|destes?|destas?|nisso|disso)\b`),
		regexp.MustCompile(`(?i)^(?:quant[oa]s|quais|quando|onde|qual|por\s+qu[eê])\b`),
		regexp.MustCompile(`(?i)^(?:sim|claro|ok|isso|pode\s+ser|por\s+favor)[\s?!.]*$`),
	}
}

// maxReferenceLen bounds how long a message can be and still count as
// a short follow-up reference.
const maxReferenceLen = 80

// Classify runs the ordered cascade:
//  1. intent-independent entity extraction (always merged in)
//  2. short-reference check against the prior query (follow_up)
//  3. pattern families in fixed priority order
//  4. entity-implied intents (group => by_group, location => by_location)
//  5. the catch-all at confidence zero
func (c *Classifier) Classify(message string, prior *domain.LastQuery) domain.IntentResult {
	trimmed := strings.TrimSpace(message)
	entities := extractEntities(trimmed)

	if prior != nil && c.isReference(trimmed) {
		merged := entities.Merge(prior.Entities)
		res := domain.NewIntentResult(domain.IntentFollowUp, merged, domain.ConfidenceFollowUp)
		res.Matched = "reference"
		c.log.Debugf("classified follow_up: %q", trimmed)
		return res
	}

	for _, family := range c.families {
		for _, p := range family.patterns {
			m := p.re.FindStringSubmatch(trimmed)
			if m == nil {
				continue
			}
			if !applyCapture(&entities, p.capture, m) {
				continue
			}
			res := domain.NewIntentResult(family.intent, entities, family.confidence)
			res.Matched = family.name
			c.log.Debugf("classified %s via %s: %q", family.intent, family.name, trimmed)
			return res
		}
	}

	if entities.Group != "" {
		res := domain.NewIntentResult(domain.IntentByGroup, entities, domain.ConfidenceImplied)
		res.Matched = "implied_group"
		return res
	}
	if entities.HasLocation() {
		res := domain.NewIntentResult(domain.IntentByLocation, entities, domain.ConfidenceImplied)
		res.Matched = "implied_location"
		return res
	}

	res := domain.NewIntentResult(domain.IntentGeneral, entities, domain.ConfidenceNone)
	res.Matched = "none"
	return res
}

// isReference reports whether the message reads as a follow-up to the
// previous query rather than a self-contained question.
func (c *Classifier) isReference(message string) bool {
	if utf8.RuneCountInString(message) > maxReferenceLen {
		return false
	}
	for _, re := range c.reference {
		if re.MatchString(message) {
			return true
		}
	}
	return false
}

// applyCapture folds a pattern capture into the entity set. It returns
// false when the capture invalidates the match (unknown party acronym,
// purely numeric "location").
func applyCapture(e *domain.Entities, kind captureKind, m []string) bool {
	if kind == captureNone {
		return true
	}
	if len(m) < 2 {
		return true
	}
	captured := cleanCapture(m[1])
	if captured == "" {
		return false
	}

	switch kind {
	case captureName:
		if isNumeric(captured) {
			return false
		}
		e.Name = captured
	case captureGroup:
		upper := strings.ToUpper(accentReplacer.Replace(strings.ToLower(captured)))
		if !partyAcronyms[upper] {
			return false
		}
		e.Group = upper
	case captureLocation:
		// a 4-digit token that parses as a year is a year, never a
		// location
		if isNumeric(captured) {
			return false
		}
		name, code := resolveLocation(captured)
		if name != "" {
			e.Location = name
		}
		if code != "" {
			e.LocationCode = code
		}
	}
	return true
}
