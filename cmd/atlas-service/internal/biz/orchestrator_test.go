package biz

import (
	"context"
	"os"
	"testing"

	"github.com/go-kratos/kratos/v2/log"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"

	"atlashub/cmd/atlas-service/internal/domain"
)

type recordingSink struct {
	events []TurnEvent
}

func (s *recordingSink) PublishTurn(ctx context.Context, ev TurnEvent) {
	s.events = append(s.events, ev)
}

func newTestUsecase(repo domain.PoliticalData, providers []domain.Provider, sink TurnEventSink) (*ChatUsecase, *SessionStore) {
	logger := log.NewStdLogger(os.Stdout)
	store := NewSessionStore(0, logger)
	uc := NewChatUsecase(
		NewClassifier(logger),
		store,
		NewDispatcher(repo, logger),
		NewAnswerGenerator(providers, logger),
		sink,
		logger,
	)
	return uc, store
}

func TestChatUsecase_EmptyMessage(t *testing.T) {
	uc, _ := newTestUsecase(&MockPoliticalData{}, nil, nil)

	_, err := uc.Chat(context.Background(), "", "   ")
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestChatUsecase_HappyPath(t *testing.T) {
	repo := &MockPoliticalData{
		RecordsFunc: func(ctx context.Context, f domain.RecordFilter) ([]domain.Record, error) {
			return []domain.Record{
				{SubjectID: 1, SubjectName: "Ana Souza", Group: "PT", Year: 2024},
			}, nil
		},
	}
	sink := &recordingSink{}
	uc, store := newTestUsecase(repo, nil, sink)

	reply, err := uc.Chat(context.Background(), "", "Políticos do PT")

	assert.NoError(t, err)
	assert.NotEmpty(t, reply.SessionID)
	assert.Equal(t, domain.IntentByGroup, reply.Intent)
	assert.Contains(t, reply.Answer, "Ana Souza")
	assert.NotEmpty(t, reply.Suggestions)

	sess := store.Get(reply.SessionID)
	assert.Len(t, sess.Turns, 2)
	assert.Equal(t, domain.RoleUser, sess.Turns[0].Role)
	assert.Equal(t, domain.RoleAssistant, sess.Turns[1].Role)
	assert.Equal(t, domain.IntentByGroup, sess.LastQuery.Intent)

	if assert.Len(t, sink.events, 1) {
		assert.Equal(t, reply.SessionID, sink.events[0].SessionID)
		assert.Equal(t, string(domain.IntentByGroup), sink.events[0].Intent)
	}
}

func TestChatUsecase_FollowUpCarriesContext(t *testing.T) {
	var lastFilter domain.RecordFilter
	repo := &MockPoliticalData{
		RecordsFunc: func(ctx context.Context, f domain.RecordFilter) ([]domain.Record, error) {
			lastFilter = f
			return []domain.Record{
				{SubjectID: 1, SubjectName: "Ana Souza", Group: "PT", Year: 2024, Elected: true},
			}, nil
		},
	}
	uc, _ := newTestUsecase(repo, nil, nil)

	first, err := uc.Chat(context.Background(), "", "Políticos do PT")
	assert.NoError(t, err)

	second, err := uc.Chat(context.Background(), first.SessionID, "E quantos foram eleitos em 2024?")
	assert.NoError(t, err)

	assert.Equal(t, first.SessionID, second.SessionID)
	assert.Equal(t, domain.IntentFollowUp, second.Intent)
	assert.Equal(t, "PT", lastFilter.Group)
	assert.Equal(t, 2024, lastFilter.Year)
	if assert.NotNil(t, lastFilter.Elected) {
		assert.True(t, *lastFilter.Elected)
	}
}

func TestChatUsecase_ProviderSeesConversationHistory(t *testing.T) {
	var got []domain.ProviderMessage
	capture := &MockProvider{
		NameVal: "capture",
		GenerateFunc: func(ctx context.Context, _ string, messages []domain.ProviderMessage) (string, error) {
			// skip the single-message suggestion calls
			if len(messages) > len(got) {
				got = messages
			}
			return "resposta gerada", nil
		},
	}
	repo := &MockPoliticalData{
		RecordsFunc: func(ctx context.Context, f domain.RecordFilter) ([]domain.Record, error) {
			return []domain.Record{
				{SubjectID: 1, SubjectName: "Ana Souza", Group: "PT", Year: 2024, Elected: true},
			}, nil
		},
	}
	uc, _ := newTestUsecase(repo, []domain.Provider{capture}, nil)

	first, err := uc.Chat(context.Background(), "", "Políticos do PT")
	assert.NoError(t, err)

	_, err = uc.Chat(context.Background(), first.SessionID, "E quantos foram eleitos em 2024?")
	assert.NoError(t, err)

	// second main call: both prior turns plus the new prompt
	if assert.Len(t, got, 3) {
		assert.Equal(t, "user", got[0].Role)
		assert.Equal(t, "Políticos do PT", got[0].Content)
		assert.Equal(t, "assistant", got[1].Role)
		assert.Equal(t, "resposta gerada", got[1].Content)
		assert.Contains(t, got[2].Content, "E quantos foram eleitos em 2024?")
	}
}

func TestChatUsecase_MissingGroupIsRecoverable(t *testing.T) {
	uc, _ := newTestUsecase(&MockPoliticalData{}, nil, nil)

	// force by_group with no group entity via the follow-up of a
	// group-less prior turn
	reply, err := uc.Chat(context.Background(), "", "candidatos do partido Inventado")

	assert.NoError(t, err)
	assert.NotEqual(t, domain.IntentByGroup, reply.Intent)
	assert.NotEmpty(t, reply.Answer)
}

func TestChatUsecase_UnconfiguredBackend(t *testing.T) {
	uc, store := newTestUsecase(nil, nil, nil)

	reply, err := uc.Chat(context.Background(), "", "Políticos do PT")

	assert.NoError(t, err)
	assert.Equal(t, unconfiguredText, reply.Answer)
	assert.Nil(t, reply.Result)

	// the exchange is still part of the conversation history
	sess := store.Get(reply.SessionID)
	assert.Len(t, sess.Turns, 2)
}

func TestChatUsecase_PanicBecomesApology(t *testing.T) {
	panicking := &MockProvider{
		NameVal: "explosive",
		GenerateFunc: func(ctx context.Context, _ string, _ []domain.ProviderMessage) (string, error) {
			panic("provider went sideways")
		},
	}
	uc, store := newTestUsecase(&MockPoliticalData{}, []domain.Provider{panicking}, nil)

	reply, err := uc.Chat(context.Background(), "", "Estatísticas gerais")

	assert.NoError(t, err)
	assert.Equal(t, apologyText, reply.Answer)

	sess := store.Get(reply.SessionID)
	assert.Len(t, sess.Turns, 2)
	assert.Equal(t, apologyText, sess.Turns[1].Text)
}

func TestChatUsecase_ClearSession(t *testing.T) {
	uc, _ := newTestUsecase(&MockPoliticalData{}, nil, nil)

	reply, err := uc.Chat(context.Background(), "", "Estatísticas gerais")
	assert.NoError(t, err)

	assert.True(t, uc.ClearSession(reply.SessionID))
	assert.False(t, uc.ClearSession(reply.SessionID))

	_, err = uc.Session(reply.SessionID)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestChatUsecase_DataFailureDegrades(t *testing.T) {
	repo := &MockPoliticalData{
		StatisticsFunc: func(ctx context.Context, f domain.RecordFilter) (*domain.Statistics, error) {
			return nil, context.DeadlineExceeded
		},
	}
	uc, _ := newTestUsecase(repo, nil, nil)

	reply, err := uc.Chat(context.Background(), "", "Estatísticas gerais")

	assert.NoError(t, err)
	assert.Equal(t, dataDownText, reply.Answer)
}

func chatDurationSamples(t *testing.T, intent domain.Intent) uint64 {
	t.Helper()
	observer, err := MetricChatDuration.GetMetricWithLabelValues(string(intent))
	assert.NoError(t, err)
	var m dto.Metric
	assert.NoError(t, observer.(prometheus.Metric).Write(&m))
	return m.GetHistogram().GetSampleCount()
}

func TestChatUsecase_DurationObservedOnDegradedPaths(t *testing.T) {
	uc, _ := newTestUsecase(nil, nil, nil)

	before := chatDurationSamples(t, domain.IntentByGroup)
	_, err := uc.Chat(context.Background(), "", "Políticos do PT")
	assert.NoError(t, err)
	assert.Equal(t, before+1, chatDurationSamples(t, domain.IntentByGroup))

	repo := &MockPoliticalData{
		StatisticsFunc: func(ctx context.Context, f domain.RecordFilter) (*domain.Statistics, error) {
			return nil, context.DeadlineExceeded
		},
	}
	uc, _ = newTestUsecase(repo, nil, nil)

	before = chatDurationSamples(t, domain.IntentStatistics)
	_, err = uc.Chat(context.Background(), "", "Estatísticas gerais")
	assert.NoError(t, err)
	assert.Equal(t, before+1, chatDurationSamples(t, domain.IntentStatistics))
}
