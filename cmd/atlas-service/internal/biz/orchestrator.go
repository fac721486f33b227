package biz

import (
	"context"
	"strings"
	"time"

	"github.com/go-kratos/kratos/v2/log"

	"atlashub/cmd/atlas-service/internal/domain"
)

const (
	apologyText      = "Desculpe, ocorreu um erro ao processar sua pergunta. Tente novamente."
	unconfiguredText = "O serviço de dados não está configurado no momento. Tente novamente mais tarde."
	dataDownText     = "Não consegui acessar os dados políticos agora. Tente novamente em instantes."
)

// TurnEvent is the record of one completed chat exchange, published
// for downstream analytics.
type TurnEvent struct {
	SessionID        string    `json:"session_id"`
	Message          string    `json:"message"`
	Intent           string    `json:"intent"`
	Confidence       float64   `json:"confidence"`
	Answer           string    `json:"answer"`
	UsedProvider     bool      `json:"used_provider"`
	Provider         string    `json:"provider,omitempty"`
	ResultCount      int       `json:"result_count"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	Timestamp        time.Time `json:"timestamp"`
}

// TurnEventSink receives completed-turn events. Implementations must
// not block the chat path; failures are the sink's problem.
type TurnEventSink interface {
	PublishTurn(ctx context.Context, ev TurnEvent)
}

// ChatReply is the orchestrator's output for one message.
type ChatReply struct {
	SessionID        string
	Intent           domain.Intent
	Confidence       float64
	Entities         domain.Entities
	Answer           string
	Suggestions      []string
	Result           *domain.QueryResult
	UsedProvider     bool
	Provider         string
	ProcessingTimeMs int64
}

// ChatUsecase wires the chat pipeline: classify, resolve references,
// dispatch, generate, record. It is the single recovery boundary; a
// panic anywhere downstream becomes an apology answer with the turn
// still recorded.
type ChatUsecase struct {
	classifier *Classifier
	store      *SessionStore
	dispatcher *Dispatcher
	generator  *AnswerGenerator
	sink       TurnEventSink
	log        *log.Helper
}

// NewChatUsecase creates the orchestrator. sink may be nil.
func NewChatUsecase(
	classifier *Classifier,
	store *SessionStore,
	dispatcher *Dispatcher,
	generator *AnswerGenerator,
	sink TurnEventSink,
	logger log.Logger,
) *ChatUsecase {
	return &ChatUsecase{
		classifier: classifier,
		store:      store,
		dispatcher: dispatcher,
		generator:  generator,
		sink:       sink,
		log:        log.NewHelper(log.With(logger, "module", "chat-usecase")),
	}
}

// Chat processes one user message. The only error it returns is
// ErrEmptyMessage; everything else degrades into a well-formed reply.
func (uc *ChatUsecase) Chat(ctx context.Context, sessionID, message string) (reply *ChatReply, err error) {
	message = strings.TrimSpace(message)
	if message == "" {
		return nil, domain.ErrEmptyMessage
	}

	start := time.Now()
	sess := uc.store.GetOrCreate(sessionID)

	defer func() {
		if r := recover(); r != nil {
			uc.log.Errorf("chat pipeline panic: session=%s err=%v", sess.ID, r)
			reply = uc.recordAndReply(ctx, sess.ID, message, domain.IntentGeneral, domain.ConfidenceNone, domain.Entities{}, nil, &Answer{
				Text:        apologyText,
				Suggestions: SuggestionsFor(domain.IntentGeneral),
			}, start)
			err = nil
			MetricChatRequests.WithLabelValues(string(domain.IntentGeneral), "panic").Inc()
		}
	}()

	res := uc.classifier.Classify(message, sess.LastQuery)
	res.Entities = uc.store.ResolveReferences(sess.ID, res.Entities)

	if !uc.dispatcher.Configured() {
		uc.log.Warn("chat served without a data backend")
		MetricChatRequests.WithLabelValues(string(res.Intent), "unconfigured").Inc()
		return uc.recordAndReply(ctx, sess.ID, message, res.Intent, res.Confidence, res.Entities, nil, &Answer{
			Text:        unconfiguredText,
			Suggestions: SuggestionsFor(res.Intent),
		}, start), nil
	}

	result, dispatchErr := uc.dispatcher.Execute(ctx, res)
	if dispatchErr != nil {
		uc.log.Errorf("dispatch failed: session=%s intent=%s err=%v", sess.ID, res.Intent, dispatchErr)
		MetricChatRequests.WithLabelValues(string(res.Intent), "data_error").Inc()
		return uc.recordAndReply(ctx, sess.ID, message, res.Intent, res.Confidence, res.Entities, nil, &Answer{
			Text:        dataDownText,
			Suggestions: SuggestionsFor(res.Intent),
		}, start), nil
	}

	answer := uc.generator.Generate(ctx, res.Intent, message, sess.Turns, result)

	MetricChatRequests.WithLabelValues(string(res.Intent), "ok").Inc()
	return uc.recordAndReply(ctx, sess.ID, message, res.Intent, res.Confidence, res.Entities, result, answer, start), nil
}

// recordAndReply is the single exit path: it appends both turns, stores
// the condensed query record, publishes the event and shapes the reply.
func (uc *ChatUsecase) recordAndReply(
	ctx context.Context,
	sessionID, message string,
	intent domain.Intent,
	confidence float64,
	entities domain.Entities,
	result *domain.QueryResult,
	answer *Answer,
	start time.Time,
) *ChatReply {
	uc.store.AddTurn(sessionID, domain.RoleUser, message)
	uc.store.AddTurn(sessionID, domain.RoleAssistant, answer.Text)
	if result != nil {
		uc.store.UpdateLastQuery(sessionID, intent, entities, result)
	}

	// degraded exits pass through here too, so the histogram sees
	// every outcome, not just happy paths
	MetricChatDuration.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())

	elapsed := time.Since(start).Milliseconds()
	if uc.sink != nil {
		uc.sink.PublishTurn(ctx, TurnEvent{
			SessionID:        sessionID,
			Message:          message,
			Intent:           string(intent),
			Confidence:       confidence,
			Answer:           answer.Text,
			UsedProvider:     answer.UsedProvider,
			Provider:         answer.Provider,
			ResultCount:      resultCount(result),
			ProcessingTimeMs: elapsed,
			Timestamp:        time.Now(),
		})
	}

	reply := &ChatReply{
		SessionID:        sessionID,
		Intent:           intent,
		Confidence:       confidence,
		Entities:         entities,
		Answer:           answer.Text,
		Suggestions:      answer.Suggestions,
		Result:           result,
		UsedProvider:     answer.UsedProvider,
		Provider:         answer.Provider,
		ProcessingTimeMs: elapsed,
	}
	return reply
}

// ClearSession wipes a session's history. Unknown ids are not an error.
func (uc *ChatUsecase) ClearSession(sessionID string) bool {
	return uc.store.Clear(sessionID)
}

// Session returns a copy of the session, or ErrSessionNotFound.
func (uc *ChatUsecase) Session(sessionID string) (*domain.Session, error) {
	sess := uc.store.Get(sessionID)
	if sess == nil {
		return nil, domain.ErrSessionNotFound
	}
	return sess, nil
}
