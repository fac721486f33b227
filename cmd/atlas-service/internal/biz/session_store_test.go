package biz

import (
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/stretchr/testify/assert"

	"atlashub/cmd/atlas-service/internal/domain"
)

func newTestStore(ttl time.Duration) *SessionStore {
	return NewSessionStore(ttl, log.NewStdLogger(os.Stdout))
}

func TestSessionStore_GetOrCreate(t *testing.T) {
	store := newTestStore(time.Minute)

	created := store.GetOrCreate("")
	assert.NotEmpty(t, created.ID)
	assert.Empty(t, created.Turns)

	// a known id returns the same session
	again := store.GetOrCreate(created.ID)
	assert.Equal(t, created.ID, again.ID)

	// an unknown id allocates a fresh one
	fresh := store.GetOrCreate("no-such-session")
	assert.NotEqual(t, created.ID, fresh.ID)
	assert.Equal(t, 2, store.Len())
}

func TestSessionStore_ExpiredSessionIsReplaced(t *testing.T) {
	store := newTestStore(time.Minute)

	sess := store.GetOrCreate("")
	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }

	replaced := store.GetOrCreate(sess.ID)
	assert.NotEqual(t, sess.ID, replaced.ID)

	assert.Nil(t, store.Get(sess.ID))
}

func TestSessionStore_AddTurnCapsHistory(t *testing.T) {
	store := newTestStore(time.Minute)
	sess := store.GetOrCreate("")

	for i := 0; i < domain.MaxTurns+5; i++ {
		store.AddTurn(sess.ID, domain.RoleUser, fmt.Sprintf("mensagem %d", i))
	}

	got := store.Get(sess.ID)
	assert.Len(t, got.Turns, domain.MaxTurns)
	// oldest evicted first
	assert.Equal(t, "mensagem 5", got.Turns[0].Text)
	assert.Equal(t, fmt.Sprintf("mensagem %d", domain.MaxTurns+4), got.Turns[len(got.Turns)-1].Text)
}

func TestSessionStore_AddTurnUnknownIDIsNoop(t *testing.T) {
	store := newTestStore(time.Minute)
	store.AddTurn("ghost", domain.RoleUser, "oi")
	assert.Zero(t, store.Len())
}

func TestSessionStore_UpdateLastQueryPinsResolvedEntities(t *testing.T) {
	store := newTestStore(time.Minute)
	sess := store.GetOrCreate("")

	result := &domain.QueryResult{
		Type:  domain.QueryByGroup,
		Count: 3,
	}
	store.UpdateLastQuery(sess.ID, domain.IntentByGroup, domain.Entities{Group: "PT"}, result)

	got := store.Get(sess.ID)
	assert.Equal(t, domain.IntentByGroup, got.LastQuery.Intent)
	assert.Equal(t, 3, got.LastQuery.Count)
	assert.Equal(t, "PT", got.Resolved.Group)
}

func TestSessionStore_UpdateLastQueryPinsSingleSubject(t *testing.T) {
	store := newTestStore(time.Minute)
	sess := store.GetOrCreate("")

	result := &domain.QueryResult{
		Type:  domain.QuerySearchSubject,
		Count: 1,
		Matches: []domain.SubjectMatch{
			{SubjectRef: domain.SubjectRef{ID: 42, Name: "Ana Souza", Group: "PT"}},
		},
	}
	store.UpdateLastQuery(sess.ID, domain.IntentSearchSubject, domain.Entities{Name: "Ana Souza"}, result)

	got := store.Get(sess.ID)
	assert.Equal(t, int64(42), got.Resolved.SubjectID)
	assert.Equal(t, "Ana Souza", got.Resolved.Name)
}

func TestSessionStore_ResolveReferencesKeepsExplicitEntities(t *testing.T) {
	store := newTestStore(time.Minute)
	sess := store.GetOrCreate("")

	store.UpdateLastQuery(sess.ID, domain.IntentByGroup, domain.Entities{Group: "PT", Year: 2022},
		&domain.QueryResult{Type: domain.QueryByGroup, Count: 5})

	// an explicit group wins over the remembered one
	resolved := store.ResolveReferences(sess.ID, domain.Entities{Group: "PSOL"})
	assert.Equal(t, "PSOL", resolved.Group)

	resolved = store.ResolveReferences(sess.ID, domain.Entities{})
	assert.Equal(t, "PT", resolved.Group)
}

func TestSessionStore_Clear(t *testing.T) {
	store := newTestStore(time.Minute)
	sess := store.GetOrCreate("")

	assert.True(t, store.Clear(sess.ID))
	assert.False(t, store.Clear(sess.ID))
	assert.Zero(t, store.Len())
}

func TestSessionStore_Sweep(t *testing.T) {
	store := newTestStore(time.Minute)
	store.GetOrCreate("")
	store.GetOrCreate("")

	assert.Zero(t, store.Sweep())

	store.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	assert.Equal(t, 2, store.Sweep())
	assert.Zero(t, store.Len())
}

func TestSessionStore_CloneIsDefensive(t *testing.T) {
	store := newTestStore(time.Minute)
	sess := store.GetOrCreate("")
	store.AddTurn(sess.ID, domain.RoleUser, "original")

	got := store.Get(sess.ID)
	got.Turns[0].Text = "mutated"

	again := store.Get(sess.ID)
	assert.Equal(t, "original", again.Turns[0].Text)
}
