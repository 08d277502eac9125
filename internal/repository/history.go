package repository

import (
	"errors"

	"softlink/internal/db"
	"softlink/internal/model"
)

type HistoryRepository struct{}

func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{}
}

func (r *HistoryRepository) Save(outcome model.Outcome) error {
	var errMsg string
	switch {
	case outcome.Err != nil:
		errMsg = outcome.Err.Error()
	case len(outcome.Failures) > 0:
		errMsg = errors.Join(outcome.Failures...).Error()
	}

	pass := model.Pass{
		Status:     outcome.Status,
		Trigger:    outcome.Trigger,
		DryRun:     outcome.DryRun,
		Linked:     outcome.Count(model.ActionLink),
		Unlinked:   outcome.Count(model.ActionUnlink),
		Failures:   len(outcome.Failures),
		ErrMsg:     errMsg,
		StartedAt:  outcome.StartedAt,
		FinishedAt: outcome.FinishedAt,
	}

	return db.DB.Create(&pass).Error
}

type Stats struct {
	Total   int64
	Success int64
	Aborted int64
	Partial int64
}

func (r *HistoryRepository) GetStats() (Stats, error) {
	var stats Stats
	if err := db.DB.Model(&model.Pass{}).Count(&stats.Total).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.Pass{}).
		Where("status = ?", model.PassAborted).
		Count(&stats.Aborted).Error; err != nil {
		return stats, err
	}

	if err := db.DB.Model(&model.Pass{}).
		Where("status = ?", model.PassPartial).
		Count(&stats.Partial).Error; err != nil {
		return stats, err
	}

	stats.Success = stats.Total - stats.Aborted - stats.Partial
	return stats, nil
}

func (r *HistoryRepository) GetRecent(limit int) ([]model.Pass, error) {
	var passes []model.Pass
	result := db.DB.
		Order("started_at desc").
		Order("id desc").
		Limit(limit).
		Find(&passes)

	return passes, result.Error
}

func (r *HistoryRepository) GetFailed() ([]model.Pass, error) {
	var passes []model.Pass
	result := db.DB.
		Where("status <> ?", model.PassSuccess).
		Order("started_at desc").
		Find(&passes)

	return passes, result.Error
}
