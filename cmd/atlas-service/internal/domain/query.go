package domain

// QueryType tags the shape of a QueryResult payload. Exactly one
// payload field is populated per type.
type QueryType string

const (
	QuerySearchSubject  QueryType = "search_subject"
	QuerySubjectDetails QueryType = "subject_details"
	QueryByGroup        QueryType = "by_group"
	QueryByLocation     QueryType = "by_location"
	QueryStatistics     QueryType = "statistics"
	QueryGroupList      QueryType = "group_list"
)

// SubjectRef identifies one politician.
type SubjectRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Group        string `json:"group,omitempty"`
	LocationCode string `json:"location_code,omitempty"`
}

// Record is one mandate row joined with its subject.
type Record struct {
	SubjectID    int64  `json:"subject_id"`
	SubjectName  string `json:"subject_name"`
	Group        string `json:"group,omitempty"`
	Position     string `json:"position,omitempty"`
	Year         int    `json:"year,omitempty"`
	Location     string `json:"location,omitempty"`
	LocationCode string `json:"location_code,omitempty"`
	Elected      bool   `json:"elected"`
}

// SubjectMatch is one fuzzy-search hit with its most recent mandates.
type SubjectMatch struct {
	SubjectRef
	Recent []Record `json:"recent,omitempty"`
}

// SubjectDetail is a full profile: identity plus complete mandate
// history ordered most-recent-first.
type SubjectDetail struct {
	SubjectRef
	History []Record `json:"history,omitempty"`
}

// GroupCount pairs a party with its mandate count.
type GroupCount struct {
	Group string `json:"group"`
	Count int    `json:"count"`
}

// PositionCount pairs a position title with its mandate count.
type PositionCount struct {
	Position string `json:"position"`
	Count    int    `json:"count"`
}

// YearCount pairs an election year with its mandate count.
type YearCount struct {
	Year  int `json:"year"`
	Count int `json:"count"`
}

// Statistics aggregates mandate counts along the three axes.
type Statistics struct {
	Total      int             `json:"total"`
	ByGroup    []GroupCount    `json:"by_group,omitempty"`
	ByPosition []PositionCount `json:"by_position,omitempty"`
	ByYear     []YearCount     `json:"by_year,omitempty"`
}

// QueryResult is the dispatcher's output. Err carries recoverable
// query problems (missing required filter); empty result sets are not
// errors. Hard failures are returned as Go errors, not in here.
type QueryResult struct {
	Type             QueryType `json:"queryType"`
	Count            int       `json:"count"`
	Err              string    `json:"error,omitempty"`
	ProcessingTimeMs int64     `json:"processingTimeMs"`

	Matches []SubjectMatch `json:"matches,omitempty"`
	Detail  *SubjectDetail `json:"detail,omitempty"`
	Records []Record       `json:"records,omitempty"`
	Stats   *Statistics    `json:"stats,omitempty"`
	Groups  []GroupCount   `json:"groups,omitempty"`
}

// Empty reports whether the result carries no rows at all.
func (r *QueryResult) Empty() bool {
	return r.Count == 0 && r.Detail == nil && r.Stats == nil
}
