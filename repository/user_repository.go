package repository

import (
	"context"
	"fmt"

	"github.com/amirphl/Seiryu-CRM/models"
	"gorm.io/gorm"
)

// UserRepositoryImpl implements UserRepository interface
type UserRepositoryImpl struct {
	*BaseRepository[models.User, models.UserFilter]
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *gorm.DB) UserRepository {
	return &UserRepositoryImpl{
		BaseRepository: NewBaseRepository[models.User, models.UserFilter](db),
	}
}

// ByUserName retrieves an active user by username
func (r *UserRepositoryImpl) ByUserName(ctx context.Context, userName string) (*models.User, error) {
	rows, err := r.ByFilter(ctx, models.UserFilter{UserName: &userName}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ByIDs retrieves active users by their IDs
func (r *UserRepositoryImpl) ByIDs(ctx context.Context, ids []uint) ([]*models.User, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	db := r.getDB(ctx)
	var rows []*models.User
	err := db.Where("id IN ? AND deleted = ?", ids, false).Order("id ASC").Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find users by IDs: %w", err)
	}
	return rows, nil
}

// ListCounselorsByCenter lists active counselors of a center ordered by ID
func (r *UserRepositoryImpl) ListCounselorsByCenter(ctx context.Context, centerName string) ([]*models.User, error) {
	db := r.getDB(ctx)
	var rows []*models.User
	err := db.Where("center_name = ? AND deleted = ?", centerName, false).
		Where("LOWER(role) IN ?", []string{"counselor", "counsellor", "agent", "sales coordinator", "sales-coordinator"}).
		Order("id ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list counselors for center %s: %w", centerName, err)
	}
	return rows, nil
}

// DistinctCenterNames lists every center name present in the user directory
func (r *UserRepositoryImpl) DistinctCenterNames(ctx context.Context) ([]string, error) {
	db := r.getDB(ctx)
	var names []string
	err := db.Model(&models.User{}).
		Where("center_name IS NOT NULL AND center_name <> '' AND deleted = ?", false).
		Distinct("center_name").
		Order("center_name ASC").
		Pluck("center_name", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list center names: %w", err)
	}
	return names, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *UserRepositoryImpl) applyFilter(query *gorm.DB, filter models.UserFilter) *gorm.DB {
	query = query.Where("deleted = ?", false)

	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.UserName != nil {
		query = query.Where("user_name = ?", *filter.UserName)
	}
	if filter.Email != nil {
		query = query.Where("email = ?", *filter.Email)
	}
	if filter.Role != nil {
		query = query.Where("LOWER(role) = LOWER(?)", *filter.Role)
	}
	if filter.IsAdmin != nil {
		query = query.Where("is_admin = ?", *filter.IsAdmin)
	}
	if filter.CenterName != nil {
		query = query.Where("center_name = ?", *filter.CenterName)
	}
	if filter.Presence != nil {
		query = query.Where("presence = ?", *filter.Presence)
	}
	return query
}

// ByFilter retrieves users based on filter criteria
func (r *UserRepositoryImpl) ByFilter(ctx context.Context, filter models.UserFilter, orderBy string, limit, offset int) ([]*models.User, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.User{})

	query = r.applyFilter(query, filter)

	if orderBy == "" {
		orderBy = "id ASC"
	}
	query = query.Order(orderBy)

	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	var rows []*models.User
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of users matching filter
func (r *UserRepositoryImpl) Count(ctx context.Context, filter models.UserFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.User{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any user matches the filter
func (r *UserRepositoryImpl) Exists(ctx context.Context, filter models.UserFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
