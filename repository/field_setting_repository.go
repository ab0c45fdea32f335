package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FieldSettingRepositoryImpl implements FieldSettingRepository interface
type FieldSettingRepositoryImpl struct {
	*BaseRepository[models.LeadFieldSetting, models.LeadFieldSettingFilter]
}

// NewFieldSettingRepository creates a new field setting repository
func NewFieldSettingRepository(db *gorm.DB) FieldSettingRepository {
	return &FieldSettingRepositoryImpl{
		BaseRepository: NewBaseRepository[models.LeadFieldSetting, models.LeadFieldSettingFilter](db),
	}
}

// All lists every field setting ordered by key
func (r *FieldSettingRepositoryImpl) All(ctx context.Context) ([]*models.LeadFieldSetting, error) {
	return r.ByFilter(ctx, models.LeadFieldSettingFilter{}, "key ASC", 0, 0)
}

// Upsert inserts a setting or updates visibility and requiredness on key conflict
func (r *FieldSettingRepositoryImpl) Upsert(ctx context.Context, setting *models.LeadFieldSetting) error {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return err
	}

	if shouldCommit {
		defer func() {
			if err != nil {
				db.Rollback()
			} else {
				db.Commit()
			}
		}()
	}

	setting.UpdatedAt = utils.UTCNow()
	err = db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"visible", "required", "updated_at"}),
	}).Create(setting).Error
	if err != nil {
		return fmt.Errorf("failed to upsert field setting %s: %w", setting.Key, err)
	}
	return nil
}

// applyFilter applies filter criteria to a GORM query
func (r *FieldSettingRepositoryImpl) applyFilter(query *gorm.DB, filter models.LeadFieldSettingFilter) *gorm.DB {
	if filter.Key != nil {
		query = query.Where("key = ?", *filter.Key)
	}
	if filter.Visible != nil {
		query = query.Where("visible = ?", *filter.Visible)
	}
	if filter.Required != nil {
		query = query.Where("required = ?", *filter.Required)
	}
	return query
}

// ByFilter retrieves field settings based on filter criteria
func (r *FieldSettingRepositoryImpl) ByFilter(ctx context.Context, filter models.LeadFieldSettingFilter, orderBy string, limit, offset int) ([]*models.LeadFieldSetting, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.LeadFieldSetting{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "key ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.LeadFieldSetting
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of field settings matching filter
func (r *FieldSettingRepositoryImpl) Count(ctx context.Context, filter models.LeadFieldSettingFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.LeadFieldSetting{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any field setting matches the filter
func (r *FieldSettingRepositoryImpl) Exists(ctx context.Context, filter models.LeadFieldSettingFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
