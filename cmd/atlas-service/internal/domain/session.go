package domain

import "time"

// Role of a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// MaxTurns caps per-session history. Oldest turns are evicted first.
const MaxTurns = 20

// Turn is one utterance in a conversation.
type Turn struct {
	Role      Role      `json:"role"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// LastQuery is the condensed record of the most recent dispatched
// query. Only essential fields are kept; the full payload is not
// retained so session memory stays bounded.
type LastQuery struct {
	Intent    Intent    `json:"intent"`
	Entities  Entities  `json:"entities"`
	QueryType QueryType `json:"queryType"`
	Count     int       `json:"count"`
	Timestamp time.Time `json:"timestamp"`
}

// Session is the server-side memory of one conversation.
type Session struct {
	ID           string     `json:"id"`
	Turns        []Turn     `json:"turns"`
	LastQuery    *LastQuery `json:"lastQuery,omitempty"`
	Resolved     Entities   `json:"resolvedEntities"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastActivity time.Time  `json:"lastActivity"`
}

// Expired reports whether the session passed its idle TTL at now.
func (s *Session) Expired(now time.Time, ttl time.Duration) bool {
	return now.Sub(s.LastActivity) > ttl
}

// Clone returns a deep copy so callers cannot mutate store-owned state.
func (s *Session) Clone() *Session {
	cp := *s
	cp.Turns = make([]Turn, len(s.Turns))
	copy(cp.Turns, s.Turns)
	if s.LastQuery != nil {
		lq := *s.LastQuery
		cp.LastQuery = &lq
	}
	return &cp
}
