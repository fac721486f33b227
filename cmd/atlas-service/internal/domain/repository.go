package domain

import "context"

// RecordFilter narrows mandate queries. Zero values mean "no filter".
type RecordFilter struct {
	Group        string
	Location     string
	LocationCode string
	Position     string
	Year         int
	Elected      *bool
}

// PoliticalData is the read-only data-access collaborator. All
// operations return empty slices (never an error) when nothing
// matches; errors signal an unreachable or failing backend.
type PoliticalData interface {
	// SearchSubjects does a fuzzy name match, best hits first.
	SearchSubjects(ctx context.Context, name string, limit int) ([]SubjectRef, error)

	// SubjectByID returns nil, nil when the id is unknown.
	SubjectByID(ctx context.Context, id int64) (*SubjectRef, error)

	// SubjectByName returns the first name match, or nil, nil.
	SubjectByName(ctx context.Context, name string) (*SubjectRef, error)

	// RecordsForSubject returns mandates newest-first; limit <= 0
	// returns the full history.
	RecordsForSubject(ctx context.Context, subjectID int64, limit int) ([]Record, error)

	// Records returns filtered mandates newest-first.
	Records(ctx context.Context, f RecordFilter) ([]Record, error)

	// Statistics aggregates mandate counts under the filter.
	Statistics(ctx context.Context, f RecordFilter) (*Statistics, error)

	// GroupCounts returns distinct parties sorted by count descending.
	GroupCounts(ctx context.Context) ([]GroupCount, error)

	// Ping checks backend reachability.
	Ping(ctx context.Context) error
}

// ProviderMessage is one message passed to a language-model provider.
type ProviderMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Provider generates natural-language text from a prompt. Adapters own
// authentication, timeouts and transport details.
type Provider interface {
	Name() string
	Generate(ctx context.Context, systemPrompt string, messages []ProviderMessage) (string, error)
}
