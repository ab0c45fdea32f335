package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/utils"
	"gorm.io/gorm"
)

// RoutingRuleRepositoryImpl implements RoutingRuleRepository interface
type RoutingRuleRepositoryImpl struct {
	*BaseRepository[models.RoutingRule, models.RoutingRuleFilter]
}

// NewRoutingRuleRepository creates a new routing rule repository
func NewRoutingRuleRepository(db *gorm.DB) RoutingRuleRepository {
	return &RoutingRuleRepositoryImpl{
		BaseRepository: NewBaseRepository[models.RoutingRule, models.RoutingRuleFilter](db),
	}
}

// ActiveByCenter retrieves the most recently updated active rule of a center
func (r *RoutingRuleRepositoryImpl) ActiveByCenter(ctx context.Context, centerName string) (*models.RoutingRule, error) {
	active := true
	rows, err := r.ByFilter(ctx, models.RoutingRuleFilter{CenterName: &centerName, IsActive: &active}, "updated_at DESC", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// DeactivateForCenter marks every active rule of a center inactive
func (r *RoutingRuleRepositoryImpl) DeactivateForCenter(ctx context.Context, centerName string) error {
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

	err = db.Model(&models.RoutingRule{}).
		Where("center_name = ? AND is_active = ?", centerName, true).
		Updates(map[string]any{"is_active": false, "updated_at": utils.UTCNow()}).Error
	if err != nil {
		return fmt.Errorf("failed to deactivate rules for center %s: %w", centerName, err)
	}
	return nil
}

// Update persists all fields of an existing rule
func (r *RoutingRuleRepositoryImpl) Update(ctx context.Context, rule *models.RoutingRule) error {
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

	err = db.Save(rule).Error
	if err != nil {
		return fmt.Errorf("failed to update routing rule %d: %w", rule.ID, err)
	}
	return nil
}

// CompareAndSetLastAssigned advances the round-robin cursor only if it still holds
// the previously observed value. Returns false when another writer moved it first.
func (r *RoutingRuleRepositoryImpl) CompareAndSetLastAssigned(ctx context.Context, ruleID uint, prev *uint, next uint) (bool, error) {
	db, shouldCommit, err := r.getDBForWrite(ctx)
	if err != nil {
		return false, err
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

	res := db.Model(&models.RoutingRule{}).
		Where("id = ? AND last_assigned_user_id IS NOT DISTINCT FROM ?", ruleID, prev).
		Updates(map[string]any{"last_assigned_user_id": next, "updated_at": utils.UTCNow()})
	if res.Error != nil {
		err = fmt.Errorf("failed to advance routing cursor for rule %d: %w", ruleID, res.Error)
		return false, err
	}
	return res.RowsAffected > 0, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *RoutingRuleRepositoryImpl) applyFilter(query *gorm.DB, filter models.RoutingRuleFilter) *gorm.DB {
	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.CenterName != nil {
		query = query.Where("center_name = ?", *filter.CenterName)
	}
	if filter.RuleType != nil {
		query = query.Where("rule_type = ?", *filter.RuleType)
	}
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	return query
}

// ByFilter retrieves routing rules based on filter criteria
func (r *RoutingRuleRepositoryImpl) ByFilter(ctx context.Context, filter models.RoutingRuleFilter, orderBy string, limit, offset int) ([]*models.RoutingRule, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.RoutingRule{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id DESC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.RoutingRule
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of routing rules matching filter
func (r *RoutingRuleRepositoryImpl) Count(ctx context.Context, filter models.RoutingRuleFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.RoutingRule{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any routing rule matches the filter
func (r *RoutingRuleRepositoryImpl) Exists(ctx context.Context, filter models.RoutingRuleFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
