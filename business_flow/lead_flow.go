// Package businessflow contains the business logic for the application.
package businessflow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/app/services"
	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/amirphl/Seiryu-CRM/repository"
	"github.com/amirphl/Seiryu-CRM/utils"
	"gorm.io/gorm"
)

// LeadFlow defines the lead lifecycle business operations
type LeadFlow interface {
	Create(ctx context.Context, req *dto.CreateLeadRequest, actor Actor, metadata *ClientMetadata) (*dto.CreateLeadResponse, error)
	Get(ctx context.Context, id uint, actor Actor) (*dto.GetLeadResponse, error)
	List(ctx context.Context, req *dto.ListLeadsRequest, actor Actor) (*dto.ListLeadsResponse, error)
	Update(ctx context.Context, id uint, req *dto.UpdateLeadRequest, actor Actor) (*dto.UpdateLeadResponse, error)
	Assign(ctx context.Context, id uint, req *dto.AssignLeadRequest, actor Actor) (*dto.AssignLeadResponse, error)
	BulkAssign(ctx context.Context, req *dto.BulkAssignLeadsRequest, actor Actor) (*dto.BulkAssignLeadsResponse, error)
	Remove(ctx context.Context, id uint, actor Actor) (*dto.RemoveLeadResponse, error)
	BulkRemove(ctx context.Context, req *dto.BulkRemoveLeadsRequest, actor Actor) (*dto.BulkRemoveLeadsResponse, error)
	History(ctx context.Context, id uint, actor Actor) (*dto.LeadHistoryResponse, error)
	Statistics(ctx context.Context, actor Actor) (*dto.LeadStatisticsResponse, error)
	Timeseries(ctx context.Context, days int, actor Actor) (*dto.LeadTimeseriesResponse, error)
}

// LeadFlowImpl implements LeadFlow
type LeadFlowImpl struct {
	leadRepo      repository.LeadRepository
	userRepo      repository.UserRepository
	eventRepo     repository.LeadEventRepository
	routing       LeadRoutingFlow
	centerCodes   CenterCodeFlow
	fieldSettings FieldSettingsFlow
	realtime      services.RealtimeService
	db            *gorm.DB
}

// NewLeadFlow creates a new lead flow
func NewLeadFlow(
	leadRepo repository.LeadRepository,
	userRepo repository.UserRepository,
	eventRepo repository.LeadEventRepository,
	routing LeadRoutingFlow,
	centerCodes CenterCodeFlow,
	fieldSettings FieldSettingsFlow,
	realtime services.RealtimeService,
	db *gorm.DB,
) LeadFlow {
	return &LeadFlowImpl{
		leadRepo:      leadRepo,
		userRepo:      userRepo,
		eventRepo:     eventRepo,
		routing:       routing,
		centerCodes:   centerCodes,
		fieldSettings: fieldSettings,
		realtime:      realtime,
		db:            db,
	}
}

// inTx runs fn inside a database transaction when one is available
func (f *LeadFlowImpl) inTx(ctx context.Context, fn func(context.Context) error) error {
	if f.db == nil {
		return fn(ctx)
	}
	return repository.WithTransaction(ctx, f.db, fn)
}

// centerUserIDs lists the IDs of every active user in the actor's center
func (f *LeadFlowImpl) centerUserIDs(ctx context.Context, centerName string) ([]uint, error) {
	users, err := f.userRepo.ByFilter(ctx, models.UserFilter{CenterName: &centerName}, "id ASC", 0, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list center users: %w", err)
	}
	ids := make([]uint, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	return ids, nil
}

// scopeFilter narrows a lead filter to what the actor's role may see.
// Center managers see their center's leads (assigned to center users, or unassigned
// and created by center users); counselors see only their own assignments.
func (f *LeadFlowImpl) scopeFilter(ctx context.Context, filter models.LeadFilter, actor Actor) (models.LeadFilter, error) {
	switch {
	case actor.IsSuperAdmin():
		return filter, nil
	case actor.Role == models.RoleCenterManager:
		if actor.CenterName == "" {
			return filter, ErrCenterRequired
		}
		ids, err := f.centerUserIDs(ctx, actor.CenterName)
		if err != nil {
			return filter, err
		}
		filter.ScopeAssignedTo = ids
		filter.ScopeUnassignedCreatedBy = ids
		return filter, nil
	case actor.Role == models.RoleCounselor:
		filter.ScopeAssignedTo = []uint{actor.ID}
		filter.ScopeUnassignedCreatedBy = []uint{}
		return filter, nil
	default:
		return filter, ErrForbidden
	}
}

// canAccess checks whether the actor may read or mutate the given lead
func (f *LeadFlowImpl) canAccess(ctx context.Context, lead *models.Lead, actor Actor) error {
	switch {
	case actor.IsSuperAdmin():
		return nil
	case actor.Role == models.RoleCounselor:
		if lead.AssignedUserID != nil && *lead.AssignedUserID == actor.ID {
			return nil
		}
		return ErrForbidden
	case actor.Role == models.RoleCenterManager:
		if actor.CenterName == "" {
			return ErrCenterRequired
		}
		ids, err := f.centerUserIDs(ctx, actor.CenterName)
		if err != nil {
			return err
		}
		member := make(map[uint]struct{}, len(ids))
		for _, id := range ids {
			member[id] = struct{}{}
		}
		if lead.AssignedUserID != nil {
			if _, ok := member[*lead.AssignedUserID]; ok {
				return nil
			}
			return ErrCenterMismatch
		}
		if lead.CreatedBy != nil {
			if _, ok := member[*lead.CreatedBy]; ok {
				return nil
			}
		}
		return ErrCenterMismatch
	default:
		return ErrForbidden
	}
}

// validateFollowUp enforces the scheduling window a status allows
func validateFollowUp(status string, at *time.Time) error {
	if at == nil {
		return nil
	}
	if at.IsZero() {
		return ErrInvalidFollowUpDate
	}
	now := utils.UTCNow()
	if at.Before(now) {
		return ErrFollowUpInPast
	}
	if max := models.MaxFollowUpDate(status, now); max != nil && at.After(*max) {
		return ErrFollowUpOutOfWindow
	}
	return nil
}

// validateRequiredSettings checks the configurable required fields against a lead snapshot
func (f *LeadFlowImpl) validateRequiredSettings(ctx context.Context, lead *models.Lead) error {
	required, err := f.fieldSettings.RequiredKeys(ctx)
	if err != nil {
		return fmt.Errorf("failed to load required field keys: %w", err)
	}

	var missing []string
	for _, key := range required {
		if strings.TrimSpace(leadFieldValue(lead, key)) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return NewBusinessErrorf("REQUIRED_FIELDS_MISSING", "missing required fields: %s", ErrRequiredFieldMissing, strings.Join(missing, ", "))
	}
	return nil
}

// leadFieldValue resolves a field-setting key to the lead's current value as a string
func leadFieldValue(lead *models.Lead, key string) string {
	str := func(p *string) string {
		if p == nil {
			return ""
		}
		return *p
	}
	switch key {
	case "referenceNo":
		return lead.ReferenceNo
	case "firstName":
		return lead.FirstName
	case "lastName":
		return lead.LastName
	case "email":
		return lead.Email
	case "mobileNumber":
		return lead.MobileNumber
	case "alternateNumber":
		return str(lead.AlternateNumber)
	case "whatsappNumber":
		return str(lead.WhatsappNumber)
	case "locationCity":
		return str(lead.LocationCity)
	case "locationState":
		return str(lead.LocationState)
	case "nationality":
		return str(lead.Nationality)
	case "gender":
		return str(lead.Gender)
	case "dateOfBirth":
		if lead.DateOfBirth == nil {
			return ""
		}
		return lead.DateOfBirth.Format(time.RFC3339)
	case "motherTongue":
		return str(lead.MotherTongue)
	case "highestQualification":
		return str(lead.HighestQualification)
	case "yearOfCompletion":
		if lead.YearOfCompletion == nil {
			return ""
		}
		return strconv.Itoa(*lead.YearOfCompletion)
	case "yearsOfExperience":
		return str(lead.YearsOfExperience)
	case "university":
		return str(lead.University)
	case "program":
		return str(lead.Program)
	case "specialization":
		return str(lead.Specialization)
	case "batch":
		return str(lead.Batch)
	case "leadSource":
		return str(lead.LeadSource)
	case "leadSubSource":
		return str(lead.LeadSubSource)
	case "createdFrom":
		return str(lead.CreatedFrom)
	case "leadStatus":
		return lead.Status
	case "leadSubStatus":
		return str(lead.SubStatus)
	case "leadDescription":
		return str(lead.Description)
	case "reasonDeadInvalid":
		return str(lead.ReasonDeadInvalid)
	case "nextFollowUpAt":
		if lead.NextFollowUpAt == nil {
			return ""
		}
		return lead.NextFollowUpAt.Format(time.RFC3339)
	case "comment":
		return str(lead.Comment)
	default:
		// Keys without a create-time value (score, timestamps, assignment) never block
		return "-"
	}
}

// isDuplicateKeyErr detects a unique constraint violation surfaced by the driver
func isDuplicateKeyErr(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "23505") || strings.Contains(msg, "duplicate key")
}

// Create registers a new lead, mints its reference number, applies the center's
// routing rule when a manager creates it, and records the audit events in the
// same transaction as the insert.
func (f *LeadFlowImpl) Create(ctx context.Context, req *dto.CreateLeadRequest, actor Actor, metadata *ClientMetadata) (*dto.CreateLeadResponse, error) {
	if actor.Role != models.RoleCenterManager && actor.Role != models.RoleCounselor {
		return nil, NewBusinessError("LEAD_CREATE_FORBIDDEN", "not allowed to create leads", ErrForbidden)
	}

	if strings.TrimSpace(req.FirstName) == "" {
		return nil, NewBusinessError("FIRST_NAME_REQUIRED", "first name is required", ErrFirstNameRequired)
	}
	if strings.TrimSpace(req.LastName) == "" {
		return nil, NewBusinessError("LAST_NAME_REQUIRED", "last name is required", ErrLastNameRequired)
	}
	if strings.TrimSpace(req.Email) == "" {
		return nil, NewBusinessError("EMAIL_REQUIRED", "email is required", ErrEmailRequired)
	}
	if strings.TrimSpace(req.MobileNumber) == "" {
		return nil, NewBusinessError("MOBILE_NUMBER_REQUIRED", "mobile number is required", ErrMobileNumberRequired)
	}

	status := utils.DefaultLeadStatus
	if req.Status != nil && strings.TrimSpace(*req.Status) != "" {
		status = strings.TrimSpace(*req.Status)
	}

	if err := validateFollowUp(status, req.NextFollowUpAt); err != nil {
		return nil, NewBusinessError("FOLLOW_UP_INVALID", "follow-up date rejected", err)
	}

	referenceNo, err := f.centerCodes.NewReferenceNo(ctx, actor.CenterName)
	if err != nil {
		return nil, NewBusinessError("REFERENCE_NO_FAILED", "failed to generate reference number", err)
	}

	// Default owner is the creator; manager-created leads go through routing
	assignedUserID := &actor.ID
	var routedRuleType string
	if actor.Role == models.RoleCenterManager {
		rule, err := f.routing.ActiveRule(ctx, actor.CenterName)
		if err != nil {
			return nil, NewBusinessError("ROUTING_FAILED", "failed to evaluate routing rule", err)
		}
		if rule != nil {
			pick, err := f.routing.PickAssignee(ctx, rule, RoutingInput{
				Program:        req.Program,
				Specialization: req.Specialization,
				MotherTongue:   req.MotherTongue,
			})
			if err != nil {
				return nil, NewBusinessError("ROUTING_FAILED", "failed to pick assignee", err)
			}
			if pick != nil {
				assignedUserID = &pick.ID
				routedRuleType = rule.RuleType.String()
			}
		}
	}

	whatsapp := req.WhatsappNumber
	if whatsapp == nil || *whatsapp == "" {
		whatsapp = &req.MobileNumber
	}

	var centerName *string
	if actor.CenterName != "" {
		centerName = &actor.CenterName
	} else if req.CenterName != nil {
		centerName = req.CenterName
	}

	lead := &models.Lead{
		ReferenceNo:          referenceNo,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		Email:                req.Email,
		MobileNumber:         req.MobileNumber,
		AlternateNumber:      req.AlternateNumber,
		WhatsappNumber:       whatsapp,
		LocationCity:         req.LocationCity,
		LocationState:        req.LocationState,
		Nationality:          req.Nationality,
		Gender:               req.Gender,
		DateOfBirth:          req.DateOfBirth,
		MotherTongue:         req.MotherTongue,
		HighestQualification: req.HighestQualification,
		YearOfCompletion:     req.YearOfCompletion,
		YearsOfExperience:    req.YearsOfExperience,
		University:           req.University,
		Program:              req.Program,
		Specialization:       req.Specialization,
		Batch:                req.Batch,
		LeadSource:           req.LeadSource,
		LeadSubSource:        req.LeadSubSource,
		CreatedFrom:          req.CreatedFrom,
		Status:               status,
		SubStatus:            req.SubStatus,
		ScorePercent:         models.CombineScore(status, req.ActionScore, 0),
		NextFollowUpAt:       req.NextFollowUpAt,
		Description:          req.Description,
		Comment:              req.Comment,
		CenterName:           centerName,
		AssignedUserID:       assignedUserID,
		CreatedBy:            &actor.ID,
		ModifiedBy:           &actor.ID,
	}

	if err := f.validateRequiredSettings(ctx, lead); err != nil {
		return nil, err
	}

	// Counselor display metadata comes from the assignee's directory entry
	if assignedUserID != nil {
		assignee, err := f.userRepo.ByID(ctx, *assignedUserID)
		if err != nil {
			return nil, NewBusinessError("LEAD_CREATE_FAILED", "failed to load assignee", err)
		}
		if assignee != nil {
			lead.CounselorName = utils.ToPtr(assignee.FullName())
			lead.CounselorCode = utils.ToPtr(assignee.UserName)
		}
	}

	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.leadRepo.Save(txCtx, lead); err != nil {
			return err
		}

		events := []*models.LeadEvent{{
			LeadID:    lead.ID,
			Action:    models.LeadActionCreate,
			ChangedBy: &actor.ID,
			ToValue: &models.EventValue{
				LeadStatus:     &lead.Status,
				AssignedUserID: lead.AssignedUserID,
				ReferenceNo:    &lead.ReferenceNo,
			},
		}}
		if lead.AssignedUserID != nil {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionAssignment,
				ChangedBy: &actor.ID,
				ToValue:   &models.EventValue{AssignedUserID: lead.AssignedUserID},
			})
		}
		if lead.Comment != nil && *lead.Comment != "" {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionComment,
				ChangedBy: &actor.ID,
				Note:      lead.Comment,
			})
		}
		if lead.CreatedFrom != nil && *lead.CreatedFrom == models.LeadCreatedFromImport {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionImport,
				ChangedBy: &actor.ID,
				ToValue:   &models.EventValue{ReferenceNo: &lead.ReferenceNo},
			})
		}
		return f.eventRepo.SaveBatch(txCtx, events)
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			return nil, NewBusinessError("DUPLICATE_LEAD", "duplicate lead (email or reference number conflict)", ErrReferenceNoConflict)
		}
		return nil, NewBusinessError("LEAD_CREATE_FAILED", "failed to create lead", err)
	}

	leadsCreatedTotal.WithLabelValues(leadCreationSource(lead.CreatedFrom)).Inc()
	if routedRuleType != "" {
		leadsRoutedTotal.WithLabelValues(routedRuleType).Inc()
	}

	f.realtime.EmitLeadCreated(ctx, lead)

	return &dto.CreateLeadResponse{
		Message: "Lead created successfully",
		Lead:    ToLeadDTO(*lead),
	}, nil
}

// Get returns a single lead after a role scope check
func (f *LeadFlowImpl) Get(ctx context.Context, id uint, actor Actor) (*dto.GetLeadResponse, error) {
	lead, err := f.loadAccessible(ctx, id, actor)
	if err != nil {
		return nil, err
	}
	return &dto.GetLeadResponse{
		Message: "Lead retrieved successfully",
		Lead:    ToLeadDTO(*lead),
	}, nil
}

// loadAccessible fetches a lead and enforces the actor's access to it.
// Out-of-scope leads read as not found so a caller cannot discover whether a
// lead exists in another center.
func (f *LeadFlowImpl) loadAccessible(ctx context.Context, id uint, actor Actor) (*models.Lead, error) {
	lead, err := f.leadRepo.ByID(ctx, id)
	if err != nil {
		return nil, NewBusinessError("LEAD_LOOKUP_FAILED", "failed to load lead", err)
	}
	if lead == nil || lead.Deleted {
		return nil, NewBusinessErrorf("LEAD_NOT_FOUND", "lead %d not found", ErrLeadNotFound, id)
	}
	if accessErr := f.canAccess(ctx, lead, actor); accessErr != nil {
		if errors.Is(accessErr, ErrCenterRequired) {
			return nil, NewBusinessError("CENTER_REQUIRED", "caller has no center assigned", accessErr)
		}
		return nil, NewBusinessErrorf("LEAD_NOT_FOUND", "lead %d not found", ErrLeadNotFound, id)
	}
	return lead, nil
}

// List returns a page of leads visible to the actor
func (f *LeadFlowImpl) List(ctx context.Context, req *dto.ListLeadsRequest, actor Actor) (*dto.ListLeadsResponse, error) {
	page := req.Page
	if page == 0 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize == 0 {
		pageSize = 20
	}
	if pageSize > 100 {
		return nil, NewBusinessError("INVALID_PAGE_SIZE", "page size must be between 1 and 100", ErrInvalidPageSize)
	}
	if req.StartDate != nil && req.EndDate != nil && req.StartDate.After(*req.EndDate) {
		return nil, NewBusinessError("INVALID_DATE_RANGE", "start date cannot be after end date", ErrStartDateAfterEndDate)
	}

	filter := models.LeadFilter{
		Status:         req.Status,
		SubStatus:      req.SubStatus,
		LeadSource:     req.LeadSource,
		LocationCity:   req.LocationCity,
		LocationState:  req.LocationState,
		AssignedUserID: req.AssignedTo,
		IsImportant:    req.IsImportant,
		Search:         req.Search,
		CreatedAfter:   req.StartDate,
		CreatedBefore:  req.EndDate,
	}
	if actor.IsSuperAdmin() {
		filter.CenterName = req.CenterName
	}

	filter, err := f.scopeFilter(ctx, filter, actor)
	if err != nil {
		return nil, NewBusinessError("LEAD_LIST_FORBIDDEN", "not allowed to list leads", err)
	}

	total, err := f.leadRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LEAD_LIST_FAILED", "failed to count leads", err)
	}

	rows, err := f.leadRepo.ByFilter(ctx, filter, "created_at DESC", int(pageSize), int((page-1)*pageSize))
	if err != nil {
		return nil, NewBusinessError("LEAD_LIST_FAILED", "failed to list leads", err)
	}

	leads := make([]dto.LeadDTO, 0, len(rows))
	for _, l := range rows {
		leads = append(leads, ToLeadDTO(*l))
	}

	return &dto.ListLeadsResponse{
		Message: "Leads retrieved successfully",
		Leads:   leads,
		Total:   total,
		Page:    page,
	}, nil
}

// stripForCounselor drops every field a counselor may not edit
func stripForCounselor(req *dto.UpdateLeadRequest) *dto.UpdateLeadRequest {
	return &dto.UpdateLeadRequest{
		Status:         req.Status,
		SubStatus:      req.SubStatus,
		Description:    req.Description,
		NextFollowUpAt: req.NextFollowUpAt,
	}
}

// Update applies a partial update. Status transitions recompute the score without
// ever lowering it, and every material change lands in the audit trail inside the
// same transaction as the row update.
func (f *LeadFlowImpl) Update(ctx context.Context, id uint, req *dto.UpdateLeadRequest, actor Actor) (*dto.UpdateLeadResponse, error) {
	lead, err := f.loadAccessible(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	if actor.Role == models.RoleCounselor {
		req = stripForCounselor(req)
	}
	if *req == (dto.UpdateLeadRequest{}) {
		return nil, NewBusinessError("LEAD_UPDATE_REQUIRED", "request carries no updatable fields", ErrLeadUpdateRequired)
	}

	before := *lead

	statusChanged := req.Status != nil && *req.Status != lead.Status
	subStatusChanged := req.SubStatus != nil && !equalPtr(req.SubStatus, lead.SubStatus)
	ownerChanged := req.AssignedUserID != nil && !equalUintPtr(req.AssignedUserID, lead.AssignedUserID)

	effectiveStatus := lead.Status
	if req.Status != nil {
		effectiveStatus = *req.Status
	}

	if err := validateFollowUp(effectiveStatus, req.NextFollowUpAt); err != nil {
		return nil, NewBusinessError("FOLLOW_UP_INVALID", "follow-up date rejected", err)
	}

	applyLeadUpdate(lead, req)
	lead.ModifiedBy = &actor.ID

	if statusChanged || req.ActionScore != nil {
		lead.ScorePercent = models.CombineScore(effectiveStatus, req.ActionScore, before.ScorePercent)
	}
	followUpChanged := req.NextFollowUpAt != nil && !equalTimePtr(req.NextFollowUpAt, before.NextFollowUpAt)
	scoreChanged := lead.ScorePercent != before.ScorePercent

	if err := f.validateRequiredSettings(ctx, lead); err != nil {
		return nil, err
	}

	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.leadRepo.Update(txCtx, lead); err != nil {
			return err
		}

		var events []*models.LeadEvent
		if ownerChanged {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionOwnerChange,
				ChangedBy: &actor.ID,
				FromValue: &models.EventValue{AssignedUserID: before.AssignedUserID},
				ToValue:   &models.EventValue{AssignedUserID: lead.AssignedUserID},
			})
		}
		if statusChanged {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionStatusChange,
				ChangedBy: &actor.ID,
				FromValue: &models.EventValue{LeadStatus: &before.Status},
				ToValue:   &models.EventValue{LeadStatus: &lead.Status},
			})
		}
		if subStatusChanged {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionSubStatusChange,
				ChangedBy: &actor.ID,
				FromValue: &models.EventValue{LeadSubStatus: before.SubStatus},
				ToValue:   &models.EventValue{LeadSubStatus: lead.SubStatus},
			})
		}
		if followUpChanged {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionFollowUpChange,
				ChangedBy: &actor.ID,
				FromValue: &models.EventValue{NextFollowUpAt: formatTimePtr(before.NextFollowUpAt)},
				ToValue:   &models.EventValue{NextFollowUpAt: formatTimePtr(lead.NextFollowUpAt)},
			})
		}
		if scoreChanged {
			events = append(events, &models.LeadEvent{
				LeadID:    lead.ID,
				Action:    models.LeadActionScoreChange,
				ChangedBy: &actor.ID,
				FromValue: &models.EventValue{ScorePercent: &before.ScorePercent},
				ToValue:   &models.EventValue{ScorePercent: &lead.ScorePercent},
			})
		}
		return f.eventRepo.SaveBatch(txCtx, events)
	})
	if err != nil {
		if isDuplicateKeyErr(err) {
			return nil, NewBusinessError("DUPLICATE_LEAD", "duplicate value (email or reference number)", ErrReferenceNoConflict)
		}
		return nil, NewBusinessError("LEAD_UPDATE_FAILED", "failed to update lead", err)
	}

	f.realtime.EmitLeadUpdated(ctx, lead)

	return &dto.UpdateLeadResponse{
		Message: "Lead updated successfully",
		Lead:    ToLeadDTO(*lead),
	}, nil
}

// applyLeadUpdate copies non-nil request fields onto the lead
func applyLeadUpdate(lead *models.Lead, req *dto.UpdateLeadRequest) {
	if req.FirstName != nil {
		lead.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		lead.LastName = *req.LastName
	}
	if req.Email != nil {
		lead.Email = *req.Email
	}
	if req.MobileNumber != nil {
		lead.MobileNumber = *req.MobileNumber
	}
	if req.AlternateNumber != nil {
		lead.AlternateNumber = req.AlternateNumber
	}
	if req.WhatsappNumber != nil {
		lead.WhatsappNumber = req.WhatsappNumber
	}
	if req.LocationCity != nil {
		lead.LocationCity = req.LocationCity
	}
	if req.LocationState != nil {
		lead.LocationState = req.LocationState
	}
	if req.Nationality != nil {
		lead.Nationality = req.Nationality
	}
	if req.Gender != nil {
		lead.Gender = req.Gender
	}
	if req.DateOfBirth != nil {
		lead.DateOfBirth = req.DateOfBirth
	}
	if req.MotherTongue != nil {
		lead.MotherTongue = req.MotherTongue
	}
	if req.HighestQualification != nil {
		lead.HighestQualification = req.HighestQualification
	}
	if req.YearOfCompletion != nil {
		lead.YearOfCompletion = req.YearOfCompletion
	}
	if req.YearsOfExperience != nil {
		lead.YearsOfExperience = req.YearsOfExperience
	}
	if req.University != nil {
		lead.University = req.University
	}
	if req.Program != nil {
		lead.Program = req.Program
	}
	if req.Specialization != nil {
		lead.Specialization = req.Specialization
	}
	if req.Batch != nil {
		lead.Batch = req.Batch
	}
	if req.LeadSource != nil {
		lead.LeadSource = req.LeadSource
	}
	if req.LeadSubSource != nil {
		lead.LeadSubSource = req.LeadSubSource
	}
	if req.Status != nil {
		lead.Status = *req.Status
	}
	if req.SubStatus != nil {
		lead.SubStatus = req.SubStatus
	}
	if req.NextFollowUpAt != nil {
		lead.NextFollowUpAt = req.NextFollowUpAt
	}
	if req.Description != nil {
		lead.Description = req.Description
	}
	if req.ReasonDeadInvalid != nil {
		lead.ReasonDeadInvalid = req.ReasonDeadInvalid
	}
	if req.Comment != nil {
		lead.Comment = req.Comment
	}
	if req.IsImportant != nil {
		lead.IsImportant = *req.IsImportant
	}
	if req.AssignedUserID != nil {
		lead.AssignedUserID = req.AssignedUserID
	}
}

// ensureCounselorInCenter verifies the assignee is an active counselor of the manager's center
func (f *LeadFlowImpl) ensureCounselorInCenter(ctx context.Context, counselorID uint, centerName string) (*models.User, error) {
	counselor, err := f.userRepo.ByID(ctx, counselorID)
	if err != nil {
		return nil, NewBusinessError("ASSIGNEE_LOOKUP_FAILED", "failed to load assignee", err)
	}
	if counselor == nil || counselor.Deleted || counselor.NormalizedRole() != models.RoleCounselor {
		return nil, NewBusinessError("ASSIGNEE_NOT_FOUND", "counselor not found", ErrAssigneeNotFound)
	}
	if counselor.CenterName == nil || *counselor.CenterName != centerName {
		return nil, NewBusinessError("ASSIGNEE_NOT_IN_CENTER", "counselor is not in your center", ErrAssigneeNotInCenter)
	}
	return counselor, nil
}

// Assign hands a lead to a counselor of the manager's center
func (f *LeadFlowImpl) Assign(ctx context.Context, id uint, req *dto.AssignLeadRequest, actor Actor) (*dto.AssignLeadResponse, error) {
	if actor.Role != models.RoleCenterManager {
		return nil, NewBusinessError("LEAD_ASSIGN_FORBIDDEN", "only center managers can assign leads", ErrForbidden)
	}

	counselor, err := f.ensureCounselorInCenter(ctx, req.AssigneeID, actor.CenterName)
	if err != nil {
		return nil, err
	}

	lead, err := f.loadAccessible(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	beforeOwner := lead.AssignedUserID
	lead.AssignedUserID = &counselor.ID
	lead.CounselorName = utils.ToPtr(counselor.FullName())
	lead.CounselorCode = utils.ToPtr(counselor.UserName)
	lead.ModifiedBy = &actor.ID

	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.leadRepo.Update(txCtx, lead); err != nil {
			return err
		}

		action := models.LeadActionAssignment
		var fromValue *models.EventValue
		if beforeOwner != nil {
			action = models.LeadActionOwnerChange
			fromValue = &models.EventValue{AssignedUserID: beforeOwner}
		}
		return f.eventRepo.Save(txCtx, &models.LeadEvent{
			LeadID:    lead.ID,
			Action:    action,
			ChangedBy: &actor.ID,
			FromValue: fromValue,
			ToValue:   &models.EventValue{AssignedUserID: &counselor.ID},
		})
	})
	if err != nil {
		return nil, NewBusinessError("LEAD_ASSIGN_FAILED", "failed to assign lead", err)
	}

	leadsAssignedTotal.Inc()
	f.realtime.EmitLeadAssigned(ctx, lead, counselor.ID, beforeOwner)

	return &dto.AssignLeadResponse{
		Message: "Lead assigned successfully",
		Lead:    ToLeadDTO(*lead),
	}, nil
}

// BulkAssign assigns a batch of leads, reporting per-lead outcomes instead of
// failing the whole batch
func (f *LeadFlowImpl) BulkAssign(ctx context.Context, req *dto.BulkAssignLeadsRequest, actor Actor) (*dto.BulkAssignLeadsResponse, error) {
	if actor.Role != models.RoleCenterManager {
		return nil, NewBusinessError("LEAD_ASSIGN_FORBIDDEN", "only center managers can assign leads", ErrForbidden)
	}
	if len(req.LeadIDs) == 0 {
		return nil, NewBusinessError("LEAD_IDS_REQUIRED", "at least one lead ID is required", ErrLeadIDsRequired)
	}

	if _, err := f.ensureCounselorInCenter(ctx, req.AssigneeID, actor.CenterName); err != nil {
		return nil, err
	}

	results := make([]dto.BulkResultItem, 0, len(req.LeadIDs))
	succeeded := 0
	for _, leadID := range req.LeadIDs {
		_, err := f.Assign(ctx, leadID, &dto.AssignLeadRequest{AssigneeID: req.AssigneeID}, actor)
		if err != nil {
			msg := err.Error()
			results = append(results, dto.BulkResultItem{LeadID: leadID, OK: false, Error: &msg})
			continue
		}
		succeeded++
		results = append(results, dto.BulkResultItem{LeadID: leadID, OK: true})
	}

	return &dto.BulkAssignLeadsResponse{
		Message:   "Bulk assignment completed",
		Succeeded: succeeded,
		Failed:    len(req.LeadIDs) - succeeded,
		Results:   results,
	}, nil
}

// Remove permanently deletes a lead. Event rows carry no FK constraint back to
// leads, so the audit trail (delete event included) outlives the row itself.
func (f *LeadFlowImpl) Remove(ctx context.Context, id uint, actor Actor) (*dto.RemoveLeadResponse, error) {
	lead, err := f.loadAccessible(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	err = f.inTx(ctx, func(txCtx context.Context) error {
		if err := f.eventRepo.Save(txCtx, &models.LeadEvent{
			LeadID:    lead.ID,
			Action:    models.LeadActionDelete,
			ChangedBy: &actor.ID,
			FromValue: &models.EventValue{ReferenceNo: &lead.ReferenceNo},
		}); err != nil {
			return err
		}
		return f.leadRepo.Delete(txCtx, lead.ID)
	})
	if err != nil {
		return nil, NewBusinessError("LEAD_REMOVE_FAILED", "failed to remove lead", err)
	}

	f.realtime.EmitLeadDeleted(ctx, lead)

	return &dto.RemoveLeadResponse{
		Message: "Lead removed successfully",
		ID:      lead.ID,
	}, nil
}

// BulkRemove removes a batch of leads, reporting per-lead outcomes
func (f *LeadFlowImpl) BulkRemove(ctx context.Context, req *dto.BulkRemoveLeadsRequest, actor Actor) (*dto.BulkRemoveLeadsResponse, error) {
	if len(req.LeadIDs) == 0 {
		return nil, NewBusinessError("LEAD_IDS_REQUIRED", "at least one lead ID is required", ErrLeadIDsRequired)
	}

	results := make([]dto.BulkResultItem, 0, len(req.LeadIDs))
	succeeded := 0
	for _, leadID := range req.LeadIDs {
		_, err := f.Remove(ctx, leadID, actor)
		if err != nil {
			msg := err.Error()
			results = append(results, dto.BulkResultItem{LeadID: leadID, OK: false, Error: &msg})
			continue
		}
		succeeded++
		results = append(results, dto.BulkResultItem{LeadID: leadID, OK: true})
	}

	return &dto.BulkRemoveLeadsResponse{
		Message:   "Bulk removal completed",
		Succeeded: succeeded,
		Failed:    len(req.LeadIDs) - succeeded,
		Results:   results,
	}, nil
}

// History returns a lead's audit trail, newest first, after an access check
func (f *LeadFlowImpl) History(ctx context.Context, id uint, actor Actor) (*dto.LeadHistoryResponse, error) {
	lead, err := f.loadAccessible(ctx, id, actor)
	if err != nil {
		return nil, err
	}

	events, err := f.eventRepo.ListByLead(ctx, lead.ID, 0, 0)
	if err != nil {
		return nil, NewBusinessError("LEAD_HISTORY_FAILED", "failed to load lead history", err)
	}

	users, err := f.eventUsers(ctx, events)
	if err != nil {
		return nil, NewBusinessError("LEAD_HISTORY_FAILED", "failed to load history users", err)
	}

	items := make([]dto.LeadEventItem, 0, len(events))
	for _, e := range events {
		items = append(items, ToLeadEventItem(*e, users))
	}

	return &dto.LeadHistoryResponse{
		Message: "Lead history retrieved successfully",
		LeadID:  lead.ID,
		Events:  items,
	}, nil
}

// eventUsers batch-loads every user a set of events references, one query for
// actors and old/new owners combined
func (f *LeadFlowImpl) eventUsers(ctx context.Context, events []*models.LeadEvent) (map[uint]*models.User, error) {
	idSet := make(map[uint]struct{})
	collect := func(id *uint) {
		if id != nil {
			idSet[*id] = struct{}{}
		}
	}
	for _, e := range events {
		collect(e.ChangedBy)
		if e.FromValue != nil {
			collect(e.FromValue.AssignedUserID)
		}
		if e.ToValue != nil {
			collect(e.ToValue.AssignedUserID)
		}
	}
	users := make(map[uint]*models.User, len(idSet))
	if len(idSet) == 0 {
		return users, nil
	}

	ids := make([]uint, 0, len(idSet))
	for id := range idSet {
		ids = append(ids, id)
	}
	rows, err := f.userRepo.ByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, u := range rows {
		users[u.ID] = u
	}
	return users, nil
}

// Statistics returns aggregate lead counts within the actor's scope
func (f *LeadFlowImpl) Statistics(ctx context.Context, actor Actor) (*dto.LeadStatisticsResponse, error) {
	filter, err := f.scopeFilter(ctx, models.LeadFilter{}, actor)
	if err != nil {
		return nil, NewBusinessError("LEAD_STATS_FORBIDDEN", "not allowed to view statistics", err)
	}

	total, err := f.leadRepo.Count(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LEAD_STATS_FAILED", "failed to count leads", err)
	}
	byStatus, err := f.leadRepo.CountByStatus(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LEAD_STATS_FAILED", "failed to group leads by status", err)
	}
	bySource, err := f.leadRepo.CountBySource(ctx, filter)
	if err != nil {
		return nil, NewBusinessError("LEAD_STATS_FAILED", "failed to group leads by source", err)
	}

	return &dto.LeadStatisticsResponse{
		Message:  "Lead statistics retrieved successfully",
		Total:    total,
		ByStatus: byStatus,
		BySource: bySource,
	}, nil
}

// Timeseries returns daily lead creation counts within the actor's scope
func (f *LeadFlowImpl) Timeseries(ctx context.Context, days int, actor Actor) (*dto.LeadTimeseriesResponse, error) {
	if days <= 0 {
		days = 30
	}

	filter, err := f.scopeFilter(ctx, models.LeadFilter{}, actor)
	if err != nil {
		return nil, NewBusinessError("LEAD_STATS_FORBIDDEN", "not allowed to view statistics", err)
	}

	byDay, err := f.leadRepo.CountByDay(ctx, filter, days)
	if err != nil {
		return nil, NewBusinessError("LEAD_STATS_FAILED", "failed to group leads by day", err)
	}

	return &dto.LeadTimeseriesResponse{
		Message: "Lead timeseries retrieved successfully",
		Days:    days,
		ByDay:   byDay,
	}, nil
}

func equalPtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalUintPtr(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func equalTimePtr(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(time.RFC3339)
	return &s
}
