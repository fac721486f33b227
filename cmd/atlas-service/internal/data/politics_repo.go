package data

import (
	"context"
	"errors"

	"github.com/go-kratos/kratos/v2/log"
	"gorm.io/gorm"

	"atlashub/cmd/atlas-service/internal/domain"
)

// PoliticianDO is the politicians table row.
type PoliticianDO struct {
	ID           int64  `gorm:"primaryKey"`
	Name         string `gorm:"index"`
	GroupName    string `gorm:"index"`
	LocationCode string `gorm:"index;size:2"`
}

func (PoliticianDO) TableName() string {
	return "atlas.politicians"
}

// MandateDO is one mandate (candidacy or office term) row.
type MandateDO struct {
	ID           int64  `gorm:"primaryKey"`
	PoliticianID int64  `gorm:"index"`
	GroupName    string `gorm:"index"`
	Position     string
	Year         int    `gorm:"index"`
	Location     string
	LocationCode string `gorm:"index;size:2"`
	Elected      bool
}

func (MandateDO) TableName() string {
	return "atlas.mandates"
}

// PoliticsRepository is the gorm-backed implementation of the
// political data reads.
type PoliticsRepository struct {
	db  *gorm.DB
	log *log.Helper
}

// NewPoliticsRepository creates the repository. A nil db yields a nil
// collaborator, which the dispatcher treats as "not configured".
func NewPoliticsRepository(db *gorm.DB, logger log.Logger) domain.PoliticalData {
	if db == nil {
		return nil
	}
	return &PoliticsRepository{
		db:  db,
		log: log.NewHelper(log.With(logger, "module", "politics-repo")),
	}
}

// SearchSubjects does a case-insensitive substring match on the name.
func (r *PoliticsRepository) SearchSubjects(ctx context.Context, name string, limit int) ([]domain.SubjectRef, error) {
	var dos []PoliticianDO
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+name+"%").
		Order("name ASC").
		Limit(limit).
		Find(&dos).Error; err != nil {
		return nil, err
	}

	subjects := make([]domain.SubjectRef, len(dos))
	for i, do := range dos {
		subjects[i] = toSubjectRef(&do)
	}
	return subjects, nil
}

func (r *PoliticsRepository) SubjectByID(ctx context.Context, id int64) (*domain.SubjectRef, error) {
	var do PoliticianDO
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&do).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	subj := toSubjectRef(&do)
	return &subj, nil
}

func (r *PoliticsRepository) SubjectByName(ctx context.Context, name string) (*domain.SubjectRef, error) {
	var do PoliticianDO
	if err := r.db.WithContext(ctx).
		Where("name ILIKE ?", "%"+name+"%").
		Order("name ASC").
		First(&do).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	subj := toSubjectRef(&do)
	return &subj, nil
}

func (r *PoliticsRepository) RecordsForSubject(ctx context.Context, subjectID int64, limit int) ([]domain.Record, error) {
	query := r.recordQuery(ctx).
		Where("m.politician_id = ?", subjectID)
	if limit > 0 {
		query = query.Limit(limit)
	}

	var rows []recordRow
	if err := query.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

func (r *PoliticsRepository) Records(ctx context.Context, f domain.RecordFilter) ([]domain.Record, error) {
	var rows []recordRow
	if err := r.applyFilter(r.recordQuery(ctx), f).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return toRecords(rows), nil
}

// Statistics runs the three GROUP BY aggregations under one filter.
func (r *PoliticsRepository) Statistics(ctx context.Context, f domain.RecordFilter) (*domain.Statistics, error) {
	stats := &domain.Statistics{}

	var total int64
	if err := r.applyFilter(r.filterBase(ctx), f).Count(&total).Error; err != nil {
		return nil, err
	}
	stats.Total = int(total)

	var byGroup []groupRow
	if err := r.applyFilter(r.filterBase(ctx), f).
		Select("m.group_name AS group_name, COUNT(*) AS count").
		Group("m.group_name").
		Order("count DESC, group_name ASC").
		Scan(&byGroup).Error; err != nil {
		return nil, err
	}
	for _, row := range byGroup {
		stats.ByGroup = append(stats.ByGroup, domain.GroupCount{Group: row.GroupName, Count: row.Count})
	}

	var byPosition []positionRow
	if err := r.applyFilter(r.filterBase(ctx), f).
		Select("m.position AS position, COUNT(*) AS count").
		Group("m.position").
		Order("count DESC, position ASC").
		Scan(&byPosition).Error; err != nil {
		return nil, err
	}
	for _, row := range byPosition {
		stats.ByPosition = append(stats.ByPosition, domain.PositionCount{Position: row.Position, Count: row.Count})
	}

	var byYear []yearRow
	if err := r.applyFilter(r.filterBase(ctx), f).
		Select("m.year AS year, COUNT(*) AS count").
		Group("m.year").
		Order("year DESC").
		Scan(&byYear).Error; err != nil {
		return nil, err
	}
	for _, row := range byYear {
		stats.ByYear = append(stats.ByYear, domain.YearCount{Year: row.Year, Count: row.Count})
	}

	return stats, nil
}

func (r *PoliticsRepository) GroupCounts(ctx context.Context) ([]domain.GroupCount, error) {
	var rows []groupRow
	if err := r.db.WithContext(ctx).
		Table("atlas.mandates AS m").
		Select("m.group_name AS group_name, COUNT(*) AS count").
		Group("m.group_name").
		Order("count DESC, group_name ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	groups := make([]domain.GroupCount, len(rows))
	for i, row := range rows {
		groups[i] = domain.GroupCount{Group: row.GroupName, Count: row.Count}
	}
	return groups, nil
}

func (r *PoliticsRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// recordQuery is the mandate-join-politician projection, newest first.
func (r *PoliticsRepository) recordQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("atlas.mandates AS m").
		Select(`m.politician_id AS politician_id, p.name AS subject_name,
			m.group_name AS group_name, m.position AS position, m.year AS year,
			m.location AS location, m.location_code AS location_code, m.elected AS elected`).
		Joins("JOIN atlas.politicians AS p ON p.id = m.politician_id").
		Order("m.year DESC, p.name ASC")
}

// filterBase is the bare joined table for counting and grouping.
func (r *PoliticsRepository) filterBase(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("atlas.mandates AS m").
		Joins("JOIN atlas.politicians AS p ON p.id = m.politician_id")
}

func (r *PoliticsRepository) applyFilter(query *gorm.DB, f domain.RecordFilter) *gorm.DB {
	if f.Group != "" {
		query = query.Where("m.group_name = ?", f.Group)
	}
	if f.LocationCode != "" {
		query = query.Where("m.location_code = ?", f.LocationCode)
	} else if f.Location != "" {
		query = query.Where("m.location ILIKE ?", "%"+f.Location+"%")
	}
	if f.Position != "" {
		query = query.Where("m.position = ?", f.Position)
	}
	if f.Year != 0 {
		query = query.Where("m.year = ?", f.Year)
	}
	if f.Elected != nil {
		query = query.Where("m.elected = ?", *f.Elected)
	}
	return query
}

type recordRow struct {
	PoliticianID int64
	SubjectName  string
	GroupName    string
	Position     string
	Year         int
	Location     string
	LocationCode string
	Elected      bool
}

type groupRow struct {
	GroupName string
	Count     int
}

type positionRow struct {
	Position string
	Count    int
}

type yearRow struct {
	Year  int
	Count int
}

func toSubjectRef(do *PoliticianDO) domain.SubjectRef {
	return domain.SubjectRef{
		ID:           do.ID,
		Name:         do.Name,
		Group:        do.GroupName,
		LocationCode: do.LocationCode,
	}
}

func toRecords(rows []recordRow) []domain.Record {
	records := make([]domain.Record, len(rows))
	for i, row := range rows {
		records[i] = domain.Record{
			SubjectID:    row.PoliticianID,
			SubjectName:  row.SubjectName,
			Group:        row.GroupName,
			Position:     row.Position,
			Year:         row.Year,
			Location:     row.Location,
			LocationCode: row.LocationCode,
			Elected:      row.Elected,
		}
	}
	return records
}
