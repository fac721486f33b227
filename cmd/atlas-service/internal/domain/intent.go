package domain

// Intent is the classified purpose of a user message.
type Intent string

const (
	IntentSearchSubject  Intent = "search_subject"  // fuzzy lookup of a politician by name
	IntentSubjectDetails Intent = "subject_details" // full profile of one politician
	IntentByGroup        Intent = "by_group"        // politicians filtered by party
	IntentByLocation     Intent = "by_location"     // politicians filtered by state or city
	IntentStatistics     Intent = "statistics"      // aggregate counts
	IntentGroupList      Intent = "group_list"      // distinct parties ranked by mandate count
	IntentFollowUp       Intent = "follow_up"       // depends on entities from a previous turn
	IntentGeneral        Intent = "general"         // catch-all
)

// Per-family confidence constants. Pattern matches carry a fixed
// confidence, not a computed score.
const (
	ConfidenceDetails  = 0.9
	ConfidenceListing  = 0.8
	ConfidenceFollowUp = 0.7
	ConfidenceLocation = 0.7
	ConfidenceSearch   = 0.6
	ConfidenceImplied  = 0.6
	ConfidenceNone     = 0.0

	// FallbackThreshold marks results that should take a less
	// specific handling path downstream.
	FallbackThreshold = 0.5
)

// Entities holds the structured fields extracted from free text. Zero
// values mean "not present"; Elected uses a pointer so "not elected"
// and "unstated" stay distinct.
type Entities struct {
	Name         string `json:"name,omitempty"`
	SubjectID    int64  `json:"id,omitempty"`
	Group        string `json:"group,omitempty"`
	Location     string `json:"location,omitempty"`
	LocationCode string `json:"location_code,omitempty"`
	Year         int    `json:"year,omitempty"`
	Position     string `json:"position,omitempty"`
	Elected      *bool  `json:"elected,omitempty"`
}

// Merge fills fields missing in e from prior. Fields already set in e
// always win.
func (e Entities) Merge(prior Entities) Entities {
	if e.Name == "" {
		e.Name = prior.Name
	}
	if e.SubjectID == 0 {
		e.SubjectID = prior.SubjectID
	}
	if e.Group == "" {
		e.Group = prior.Group
	}
	if e.Location == "" {
		e.Location = prior.Location
	}
	if e.LocationCode == "" {
		e.LocationCode = prior.LocationCode
	}
	if e.Year == 0 {
		e.Year = prior.Year
	}
	if e.Position == "" {
		e.Position = prior.Position
	}
	if e.Elected == nil {
		e.Elected = prior.Elected
	}
	return e
}

// HasSubject reports whether the entities identify a single politician.
func (e Entities) HasSubject() bool {
	return e.SubjectID != 0 || e.Name != ""
}

// HasLocation reports whether any location reference is present.
func (e Entities) HasLocation() bool {
	return e.Location != "" || e.LocationCode != ""
}

// IntentResult is the transient output of one classification.
type IntentResult struct {
	Intent           Intent   `json:"intent"`
	Entities         Entities `json:"entities"`
	Confidence       float64  `json:"confidence"`
	RequiresFallback bool     `json:"requiresFallback"`

	// Matched names the winning rule, for logs and metrics.
	Matched string `json:"-"`
}

// NewIntentResult creates a result with the fallback flag derived from
// the confidence.
func NewIntentResult(intent Intent, entities Entities, confidence float64) IntentResult {
	return IntentResult{
		Intent:           intent,
		Entities:         entities,
		Confidence:       confidence,
		RequiresFallback: confidence < FallbackThreshold,
	}
}
