package biz

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kratos/kratos/v2/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"atlashub/cmd/atlas-service/internal/domain"
)

var tracer = otel.Tracer("atlas-service/biz")

const (
	searchLimit     = 10
	recentPerMatch  = 3
	dispatchTimeout = 15 * time.Second
)

// Dispatcher maps a classified intent to one query operation against
// the data-access collaborator and normalizes the result shape.
//
// Missing required filters are recoverable: the result carries an Err
// message and an empty payload. An unreachable backend is a hard
// failure returned as an error; retries, if any, belong to the
// collaborator.
type Dispatcher struct {
	repo domain.PoliticalData
	log  *log.Helper
}

// NewDispatcher creates a dispatcher. repo may be nil when the data
// service is not configured; Execute then fails with ErrNotConfigured.
func NewDispatcher(repo domain.PoliticalData, logger log.Logger) *Dispatcher {
	return &Dispatcher{
		repo: repo,
		log:  log.NewHelper(log.With(logger, "module", "dispatcher")),
	}
}

// Configured reports whether a data-access collaborator is wired.
func (d *Dispatcher) Configured() bool {
	return d.repo != nil
}

// Execute runs the query operation for the intent. Empty result sets
// are normal results, never errors.
func (d *Dispatcher) Execute(ctx context.Context, res domain.IntentResult) (*domain.QueryResult, error) {
	if d.repo == nil {
		return nil, domain.ErrNotConfigured
	}

	ctx, cancel := context.WithTimeout(ctx, dispatchTimeout)
	defer cancel()

	ctx, span := tracer.Start(ctx, "dispatch")
	span.SetAttributes(attribute.String("chat.intent", string(res.Intent)))
	defer span.End()

	start := time.Now()
	qr, err := d.dispatch(ctx, res.Intent, res.Entities)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, fmt.Errorf("%w: %v", domain.ErrDataUnavailable, err)
	}
	qr.ProcessingTimeMs = time.Since(start).Milliseconds()
	return qr, nil
}

func (d *Dispatcher) dispatch(ctx context.Context, intent domain.Intent, e domain.Entities) (*domain.QueryResult, error) {
	switch intent {
	case domain.IntentSearchSubject:
		return d.searchSubject(ctx, e)
	case domain.IntentSubjectDetails:
		return d.subjectDetails(ctx, e)
	case domain.IntentByGroup:
		return d.byGroup(ctx, e)
	case domain.IntentByLocation:
		return d.byLocation(ctx, e)
	case domain.IntentStatistics:
		return d.statistics(ctx, e)
	case domain.IntentGroupList:
		return d.groupList(ctx)
	case domain.IntentFollowUp:
		return d.followUp(ctx, e)
	default:
		return d.general(ctx, e)
	}
}

// searchSubject fuzzy-matches by name and attaches the most recent
// mandates of each hit.
func (d *Dispatcher) searchSubject(ctx context.Context, e domain.Entities) (*domain.QueryResult, error) {
	if e.Name == "" {
		return missingField(domain.QuerySearchSubject, "name"), nil
	}

	subjects, err := d.repo.SearchSubjects(ctx, e.Name, searchLimit)
	if err != nil {
		return nil, err
	}

	matches := make([]domain.SubjectMatch, 0, len(subjects))
	for _, subj := range subjects {
		recent, err := d.repo.RecordsForSubject(ctx, subj.ID, recentPerMatch)
		if err != nil {
			return nil, err
		}
		matches = append(matches, domain.SubjectMatch{SubjectRef: subj, Recent: recent})
	}

	return &domain.QueryResult{
		Type:    domain.QuerySearchSubject,
		Count:   len(matches),
		Matches: matches,
	}, nil
}

// subjectDetails resolves one politician by id, or by name taking the
// first hit, and attaches the full mandate history.
func (d *Dispatcher) subjectDetails(ctx context.Context, e domain.Entities) (*domain.QueryResult, error) {
	if !e.HasSubject() {
		return missingField(domain.QuerySubjectDetails, "name"), nil
	}

	var subj *domain.SubjectRef
	var err error
	if e.SubjectID != 0 {
		subj, err = d.repo.SubjectByID(ctx, e.SubjectID)
	} else {
		subj, err = d.repo.SubjectByName(ctx, e.Name)
	}
	if err != nil {
		return nil, err
	}
	if subj == nil {
		return &domain.QueryResult{Type: domain.QuerySubjectDetails}, nil
	}

	history, err := d.repo.RecordsForSubject(ctx, subj.ID, 0)
	if err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Type:   domain.QuerySubjectDetails,
		Count:  1,
		Detail: &domain.SubjectDetail{SubjectRef: *subj, History: history},
	}, nil
}

func (d *Dispatcher) byGroup(ctx context.Context, e domain.Entities) (*domain.QueryResult, error) {
	if e.Group == "" {
		return missingField(domain.QueryByGroup, "group"), nil
	}

	records, err := d.repo.Records(ctx, domain.RecordFilter{
		Group:    e.Group,
		Position: e.Position,
		Year:     e.Year,
		Elected:  e.Elected,
	})
	if err != nil {
		return nil, err
	}

	records = dedupeBySubject(records)
	return &domain.QueryResult{
		Type:    domain.QueryByGroup,
		Count:   len(records),
		Records: records,
	}, nil
}

func (d *Dispatcher) byLocation(ctx context.Context, e domain.Entities) (*domain.QueryResult, error) {
	if !e.HasLocation() {
		return missingField(domain.QueryByLocation, "location"), nil
	}

	// the state code is the stronger key; free-text names only when
	// no code was resolved
	filter := domain.RecordFilter{
		Position: e.Position,
		Year:     e.Year,
		Elected:  e.Elected,
	}
	if e.LocationCode != "" {
		filter.LocationCode = e.LocationCode
	} else {
		filter.Location = e.Location
	}

	records, err := d.repo.Records(ctx, filter)
	if err != nil {
		return nil, err
	}

	records = dedupeBySubject(records)
	return &domain.QueryResult{
		Type:    domain.QueryByLocation,
		Count:   len(records),
		Records: records,
	}, nil
}

func (d *Dispatcher) statistics(ctx context.Context, e domain.Entities) (*domain.QueryResult, error) {
	stats, err := d.repo.Statistics(ctx, domain.RecordFilter{
		Group:        e.Group,
		Location:     e.Location,
		LocationCode: e.LocationCode,
		Position:     e.Position,
		Year:         e.Year,
		Elected:      e.Elected,
	})
	if err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Type:  domain.QueryStatistics,
		Count: stats.Total,
		Stats: stats,
	}, nil
}

func (d *Dispatcher) groupList(ctx context.Context) (*domain.QueryResult, error) {
	groups, err := d.repo.GroupCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &domain.QueryResult{
		Type:   domain.QueryGroupList,
		Count:  len(groups),
		Groups: groups,
	}, nil
}

// followUp re-dispatches using whatever the merged entities identify,
// falling back to statistics, which needs no required filter.
func (d *Dispatcher) followUp(ctx context.Context, e domain.Entities) (*domain.QueryResult, error) {
	switch {
	case e.Group != "":
		return d.byGroup(ctx, e)
	case e.HasLocation():
		return d.byLocation(ctx, e)
	case e.HasSubject():
		return d.subjectDetails(ctx, e)
	default:
		return d.statistics(ctx, e)
	}
}

// general makes a best-effort dispatch in priority order name, group,
// location, and finally the party listing.
func (d *Dispatcher) general(ctx context.Context, e domain.Entities) (*domain.QueryResult, error) {
	switch {
	case e.Name != "":
		return d.searchSubject(ctx, e)
	case e.Group != "":
		return d.byGroup(ctx, e)
	case e.HasLocation():
		return d.byLocation(ctx, e)
	default:
		return d.groupList(ctx)
	}
}

// missingField builds the recoverable empty result for an absent
// required filter.
func missingField(t domain.QueryType, field string) *domain.QueryResult {
	return &domain.QueryResult{
		Type: t,
		Err:  fmt.Sprintf("%s not specified", field),
	}
}

// dedupeBySubject keeps the first record per subject id, preserving
// the underlying (reverse-chronological) order.
func dedupeBySubject(records []domain.Record) []domain.Record {
	seen := make(map[int64]bool, len(records))
	out := records[:0]
	for _, r := range records {
		if seen[r.SubjectID] {
			continue
		}
		seen[r.SubjectID] = true
		out = append(out, r)
	}
	return out
}
