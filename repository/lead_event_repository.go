package repository

import (
	"context"

	"github.com/amirphl/Seiryu-CRM/models"
	"gorm.io/gorm"
)

// LeadEventRepositoryImpl implements LeadEventRepository interface.
// Events are append-only; this repository exposes no update or delete operations.
type LeadEventRepositoryImpl struct {
	*BaseRepository[models.LeadEvent, models.LeadEventFilter]
}

// NewLeadEventRepository creates a new lead event repository
func NewLeadEventRepository(db *gorm.DB) LeadEventRepository {
	return &LeadEventRepositoryImpl{
		BaseRepository: NewBaseRepository[models.LeadEvent, models.LeadEventFilter](db),
	}
}

// ListByLead lists a lead's events newest first
func (r *LeadEventRepositoryImpl) ListByLead(ctx context.Context, leadID uint, limit, offset int) ([]*models.LeadEvent, error) {
	return r.ByFilter(ctx, models.LeadEventFilter{LeadID: &leadID}, "changed_at DESC, id DESC", limit, offset)
}

// applyFilter applies filter criteria to a GORM query
func (r *LeadEventRepositoryImpl) applyFilter(query *gorm.DB, filter models.LeadEventFilter) *gorm.DB {
	if filter.LeadID != nil {
		query = query.Where("lead_id = ?", *filter.LeadID)
	}
	if filter.Action != nil {
		query = query.Where("action = ?", *filter.Action)
	}
	if filter.ChangedBy != nil {
		query = query.Where("changed_by = ?", *filter.ChangedBy)
	}
	if filter.ChangedAfter != nil {
		query = query.Where("changed_at > ?", *filter.ChangedAfter)
	}
	if filter.ChangedBefore != nil {
		query = query.Where("changed_at < ?", *filter.ChangedBefore)
	}
	return query
}

// ByFilter retrieves lead events based on filter criteria
func (r *LeadEventRepositoryImpl) ByFilter(ctx context.Context, filter models.LeadEventFilter, orderBy string, limit, offset int) ([]*models.LeadEvent, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.LeadEvent{})

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

	var rows []*models.LeadEvent
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of lead events matching filter
func (r *LeadEventRepositoryImpl) Count(ctx context.Context, filter models.LeadEventFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.LeadEvent{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any lead event matches the filter
func (r *LeadEventRepositoryImpl) Exists(ctx context.Context, filter models.LeadEventFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}
