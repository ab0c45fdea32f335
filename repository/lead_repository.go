package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/utils"
	"gorm.io/gorm"
)

// LeadRepositoryImpl implements LeadRepository interface
type LeadRepositoryImpl struct {
	*BaseRepository[models.Lead, models.LeadFilter]
}

// NewLeadRepository creates a new lead repository
func NewLeadRepository(db *gorm.DB) LeadRepository {
	return &LeadRepositoryImpl{
		BaseRepository: NewBaseRepository[models.Lead, models.LeadFilter](db),
	}
}

// ByUUID retrieves a lead by UUID
func (r *LeadRepositoryImpl) ByUUID(ctx context.Context, uuidStr string) (*models.Lead, error) {
	parsed, err := utils.ParseUUID(uuidStr)
	if err != nil {
		return nil, err
	}
	rows, err := r.ByFilter(ctx, models.LeadFilter{UUID: &parsed}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ByReferenceNo retrieves a lead by its reference number
func (r *LeadRepositoryImpl) ByReferenceNo(ctx context.Context, referenceNo string) (*models.Lead, error) {
	rows, err := r.ByFilter(ctx, models.LeadFilter{ReferenceNo: &referenceNo}, "", 1, 0)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return rows[0], nil
}

// ExistsByReferenceNo checks whether a reference number is already taken
func (r *LeadRepositoryImpl) ExistsByReferenceNo(ctx context.Context, referenceNo string) (bool, error) {
	db := r.getDB(ctx)
	var count int64
	if err := db.Model(&models.Lead{}).Where("reference_no = ?", referenceNo).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update persists all fields of an existing lead
func (r *LeadRepositoryImpl) Update(ctx context.Context, lead *models.Lead) error {
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

	err = db.Save(lead).Error
	if err != nil {
		return fmt.Errorf("failed to update lead %d: %w", lead.ID, err)
	}
	return nil
}

// Delete permanently removes a lead row
func (r *LeadRepositoryImpl) Delete(ctx context.Context, id uint) error {
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

	err = db.Delete(&models.Lead{}, id).Error
	if err != nil {
		return fmt.Errorf("failed to delete lead %d: %w", id, err)
	}
	return nil
}

// CountActiveByAssignees returns the number of open leads per assignee. Leads in a
// closed status and leads flagged as deleted are excluded. Assignees with no open
// leads are present in the result with a zero count.
func (r *LeadRepositoryImpl) CountActiveByAssignees(ctx context.Context, userIDs []uint) (map[uint]int64, error) {
	counts := make(map[uint]int64, len(userIDs))
	for _, id := range userIDs {
		counts[id] = 0
	}
	if len(userIDs) == 0 {
		return counts, nil
	}

	db := r.getDB(ctx)
	type row struct {
		AssignedUserID uint
		Total          int64
	}
	var rows []row
	err := db.Model(&models.Lead{}).
		Select("assigned_user_id, COUNT(*) AS total").
		Where("assigned_user_id IN ?", userIDs).
		Where("deleted = ?", false).
		Where("lead_status NOT IN ?", models.ClosedLeadStatuses()).
		Group("assigned_user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count active leads: %w", err)
	}

	for _, rr := range rows {
		counts[rr.AssignedUserID] = rr.Total
	}
	return counts, nil
}

// CountByStatus groups matching leads by status
func (r *LeadRepositoryImpl) CountByStatus(ctx context.Context, filter models.LeadFilter) (map[string]int64, error) {
	return r.groupCounts(ctx, filter, "lead_status")
}

// CountBySource groups matching leads by source
func (r *LeadRepositoryImpl) CountBySource(ctx context.Context, filter models.LeadFilter) (map[string]int64, error) {
	return r.groupCounts(ctx, filter, "COALESCE(lead_source, 'Unknown')")
}

func (r *LeadRepositoryImpl) groupCounts(ctx context.Context, filter models.LeadFilter, expr string) (map[string]int64, error) {
	db := r.getDB(ctx)
	query := r.applyFilter(db.Model(&models.Lead{}), filter)

	type row struct {
		Bucket string
		Total  int64
	}
	var rows []row
	err := query.Select(fmt.Sprintf("%s AS bucket, COUNT(*) AS total", expr)).
		Group(expr).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group leads: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, rr := range rows {
		out[rr.Bucket] = rr.Total
	}
	return out, nil
}

// CountByDay groups matching leads created in the last N days by calendar day
func (r *LeadRepositoryImpl) CountByDay(ctx context.Context, filter models.LeadFilter, days int) (map[string]int64, error) {
	if days <= 0 {
		days = 30
	}
	db := r.getDB(ctx)
	since := utils.UTCNow().AddDate(0, 0, -days)
	query := r.applyFilter(db.Model(&models.Lead{}), filter).
		Where("created_at >= ?", since)

	type row struct {
		Bucket string
		Total  int64
	}
	var rows []row
	err := query.Select("TO_CHAR(created_at, 'YYYY-MM-DD') AS bucket, COUNT(*) AS total").
		Group("TO_CHAR(created_at, 'YYYY-MM-DD')").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to group leads by day: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, rr := range rows {
		out[rr.Bucket] = rr.Total
	}
	return out, nil
}

// applyFilter applies filter criteria to a GORM query
func (r *LeadRepositoryImpl) applyFilter(query *gorm.DB, filter models.LeadFilter) *gorm.DB {
	query = query.Where("deleted = ?", false)

	if filter.ID != nil {
		query = query.Where("id = ?", *filter.ID)
	}
	if filter.UUID != nil {
		query = query.Where("uuid = ?", *filter.UUID)
	}
	if filter.ReferenceNo != nil {
		query = query.Where("reference_no = ?", *filter.ReferenceNo)
	}
	if filter.Status != nil {
		query = query.Where("lead_status = ?", *filter.Status)
	}
	if filter.SubStatus != nil {
		query = query.Where("lead_sub_status = ?", *filter.SubStatus)
	}
	if filter.LeadSource != nil {
		query = query.Where("lead_source = ?", *filter.LeadSource)
	}
	if filter.LocationCity != nil {
		query = query.Where("location_city = ?", *filter.LocationCity)
	}
	if filter.LocationState != nil {
		query = query.Where("location_state = ?", *filter.LocationState)
	}
	if filter.CenterName != nil {
		query = query.Where("center_name = ?", *filter.CenterName)
	}
	if filter.AssignedUserID != nil {
		query = query.Where("assigned_user_id = ?", *filter.AssignedUserID)
	}
	if filter.IsImportant != nil {
		query = query.Where("is_important = ?", *filter.IsImportant)
	}
	if filter.Search != nil && *filter.Search != "" {
		like := "%" + *filter.Search + "%"
		query = query.Where(
			"first_name ILIKE ? OR last_name ILIKE ? OR email ILIKE ? OR mobile_number ILIKE ? OR reference_no ILIKE ?",
			like, like, like, like, like,
		)
	}
	if filter.CreatedAfter != nil {
		query = query.Where("created_at > ?", *filter.CreatedAfter)
	}
	if filter.CreatedBefore != nil {
		query = query.Where("created_at < ?", *filter.CreatedBefore)
	}

	// Role scope: leads assigned to the caller, or unassigned leads the caller created
	if filter.ScopeAssignedTo != nil || filter.ScopeUnassignedCreatedBy != nil {
		assigned := filter.ScopeAssignedTo
		if assigned == nil {
			assigned = []uint{}
		}
		creators := filter.ScopeUnassignedCreatedBy
		if creators == nil {
			creators = []uint{}
		}
		query = query.Where(
			"assigned_user_id IN ? OR (assigned_user_id IS NULL AND created_by IN ?)",
			assigned, creators,
		)
	}

	return query
}

// ByFilter retrieves leads based on filter criteria
func (r *LeadRepositoryImpl) ByFilter(ctx context.Context, filter models.LeadFilter, orderBy string, limit, offset int) ([]*models.Lead, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Lead{})

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

	var rows []*models.Lead
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns number of leads matching filter
func (r *LeadRepositoryImpl) Count(ctx context.Context, filter models.LeadFilter) (int64, error) {
	db := r.getDB(ctx)
	query := db.Model(&models.Lead{})
	query = r.applyFilter(query, filter)
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Exists checks if any lead matches the filter
func (r *LeadRepositoryImpl) Exists(ctx context.Context, filter models.LeadFilter) (bool, error) {
	c, err := r.Count(ctx, filter)
	if err != nil {
		return false, err
	}
	return c > 0, nil
}

// ByID retrieves a lead by its ID, excluding rows flagged as deleted
func (r *LeadRepositoryImpl) ByID(ctx context.Context, id uint) (*models.Lead, error) {
	db := r.getDB(ctx)
	var row models.Lead
	if err := db.Where("deleted = ?", false).Last(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}
