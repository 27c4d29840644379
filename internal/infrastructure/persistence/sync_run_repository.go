package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	syncdomain "github.com/orderpulse/backend/internal/domain/sync"
)

// SyncRunModel is the GORM model for sync run audit records
type SyncRunModel struct {
	ID           string     `gorm:"column:id;primaryKey;size:36"`
	SyncType     string     `gorm:"column:sync_type;size:30"`
	SDate        string     `gorm:"column:sdate;size:10"`
	EDate        string     `gorm:"column:edate;size:10"`
	Status       string     `gorm:"column:status;size:20;index"`
	TotalCount   int        `gorm:"column:total_count"`
	SkippedUnits int        `gorm:"column:skipped_units"`
	StartedAt    time.Time  `gorm:"column:started_at"`
	CompletedAt  *time.Time `gorm:"column:completed_at"`
	ErrorMessage string     `gorm:"column:error_message;type:text"`
}

// TableName specifies the table name
func (SyncRunModel) TableName() string {
	return "sync_runs"
}

// ToEntity converts the model to a domain run
func (m *SyncRunModel) ToEntity(loc *time.Location) (*syncdomain.Run, error) {
	id, err := uuid.Parse(m.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid sync run id %q: %w", m.ID, err)
	}
	start, err := time.ParseInLocation(syncdomain.DateFormat, m.SDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid sync run sdate %q: %w", m.SDate, err)
	}
	end, err := time.ParseInLocation(syncdomain.DateFormat, m.EDate, loc)
	if err != nil {
		return nil, fmt.Errorf("invalid sync run edate %q: %w", m.EDate, err)
	}

	return &syncdomain.Run{
		ID:           id,
		Type:         syncdomain.RunType(m.SyncType),
		Window:       syncdomain.DateRange{Start: start, End: end},
		Status:       syncdomain.RunStatus(m.Status),
		TotalCount:   m.TotalCount,
		SkippedUnits: m.SkippedUnits,
		StartedAt:    m.StartedAt,
		CompletedAt:  m.CompletedAt,
		ErrorMessage: m.ErrorMessage,
	}, nil
}

// GormSyncRunRepository implements syncdomain.RunRepository using GORM
type GormSyncRunRepository struct {
	db  *gorm.DB
	loc *time.Location
}

// NewGormSyncRunRepository creates a new GORM-based sync run repository
func NewGormSyncRunRepository(db *gorm.DB, loc *time.Location) *GormSyncRunRepository {
	if loc == nil {
		loc = time.Local
	}
	return &GormSyncRunRepository{db: db, loc: loc}
}

// Begin inserts the run as the single in-flight run. The conditional
// insert makes the single-flight check atomic: two concurrent starts
// race on one statement and exactly one of them inserts a row.
func (r *GormSyncRunRepository) Begin(ctx context.Context, run *syncdomain.Run) error {
	result := r.db.WithContext(ctx).Exec(`
		INSERT INTO sync_runs (id, sync_type, sdate, edate, status, total_count, skipped_units, started_at, error_message)
		SELECT ?, ?, ?, ?, ?, 0, 0, ?, ''
		WHERE NOT EXISTS (SELECT 1 FROM sync_runs WHERE status = ?)`,
		run.ID.String(),
		string(run.Type),
		run.Window.Start.Format(syncdomain.DateFormat),
		run.Window.End.Format(syncdomain.DateFormat),
		string(syncdomain.RunStatusRunning),
		run.StartedAt,
		string(syncdomain.RunStatusRunning),
	)
	if result.Error != nil {
		return fmt.Errorf("failed to begin sync run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return syncdomain.ErrAlreadyRunning
	}
	return nil
}

// Finish persists the terminal state of the run
func (r *GormSyncRunRepository) Finish(ctx context.Context, run *syncdomain.Run) error {
	result := r.db.WithContext(ctx).Model(&SyncRunModel{}).
		Where("id = ?", run.ID.String()).
		Updates(map[string]any{
			"status":        string(run.Status),
			"total_count":   run.TotalCount,
			"skipped_units": run.SkippedUnits,
			"completed_at":  run.CompletedAt,
			"error_message": run.ErrorMessage,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to finish sync run: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return syncdomain.ErrRunNotFound
	}
	return nil
}

// Running returns the in-flight run, or nil when there is none
func (r *GormSyncRunRepository) Running(ctx context.Context) (*syncdomain.Run, error) {
	return r.firstWhere(ctx, "status = ?", string(syncdomain.RunStatusRunning))
}

// LastFinished returns the most recently finished run, or nil
func (r *GormSyncRunRepository) LastFinished(ctx context.Context) (*syncdomain.Run, error) {
	return r.firstWhere(ctx, "status <> ?", string(syncdomain.RunStatusRunning))
}

// LastCompleted returns the most recent fully completed run, or nil
func (r *GormSyncRunRepository) LastCompleted(ctx context.Context) (*syncdomain.Run, error) {
	return r.firstWhere(ctx, "status = ?", string(syncdomain.RunStatusCompleted))
}

func (r *GormSyncRunRepository) firstWhere(ctx context.Context, cond string, arg any) (*syncdomain.Run, error) {
	var model SyncRunModel
	err := r.db.WithContext(ctx).
		Where(cond, arg).
		Order("started_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	return model.ToEntity(r.loc)
}

// History returns runs newest first with the total count
func (r *GormSyncRunRepository) History(ctx context.Context, page, pageSize int) ([]syncdomain.Run, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := r.db.WithContext(ctx).Model(&SyncRunModel{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count sync runs: %w", err)
	}

	var models []SyncRunModel
	if err := r.db.WithContext(ctx).
		Order("started_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list sync runs: %w", err)
	}

	runs := make([]syncdomain.Run, 0, len(models))
	for i := range models {
		run, err := models[i].ToEntity(r.loc)
		if err != nil {
			return nil, 0, err
		}
		runs = append(runs, *run)
	}
	return runs, total, nil
}

// Compile-time interface check
var _ syncdomain.RunRepository = (*GormSyncRunRepository)(nil)
