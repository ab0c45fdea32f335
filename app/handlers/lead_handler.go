// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"io"
	"strconv"
	"time"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	businessflow "github.com/amirphl/Seiryu-CRM/business_flow"
	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// LeadHandlerInterface defines the contract for lead handlers
type LeadHandlerInterface interface {
	Create(c fiber.Ctx) error
	OpenCreate(c fiber.Ctx) error
	Ingest(c fiber.Ctx) error
	List(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Update(c fiber.Ctx) error
	Assign(c fiber.Ctx) error
	BulkAssign(c fiber.Ctx) error
	Remove(c fiber.Ctx) error
	BulkRemove(c fiber.Ctx) error
	History(c fiber.Ctx) error
	Statistics(c fiber.Ctx) error
	Timeseries(c fiber.Ctx) error
	Import(c fiber.Ctx) error
}

// LeadHandler handles lead-related HTTP requests
type LeadHandler struct {
	flow       businessflow.LeadFlow
	importFlow businessflow.LeadImportFlow
	validator  *validator.Validate
}

// NewLeadHandler creates a new lead handler
func NewLeadHandler(flow businessflow.LeadFlow, importFlow businessflow.LeadImportFlow) *LeadHandler {
	return &LeadHandler{
		flow:       flow,
		importFlow: importFlow,
		validator:  validator.New(),
	}
}

func (h *LeadHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *LeadHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// respondBusinessError maps a business error onto the HTTP status it deserves
func (h *LeadHandler) respondBusinessError(c fiber.Ctx, err error, fallbackMsg, fallbackCode string) error {
	if be, ok := err.(*businessflow.BusinessError); ok {
		switch be.Code {
		case "LEAD_NOT_FOUND", "ASSIGNEE_NOT_FOUND":
			return h.ErrorResponse(c, fiber.StatusNotFound, be.Message, be.Code, nil)
		case "LEAD_CREATE_FORBIDDEN", "LEAD_ASSIGN_FORBIDDEN",
			"LEAD_LIST_FORBIDDEN", "LEAD_STATS_FORBIDDEN", "ASSIGNEE_NOT_IN_CENTER":
			return h.ErrorResponse(c, fiber.StatusForbidden, be.Message, be.Code, nil)
		case "FIRST_NAME_REQUIRED", "LAST_NAME_REQUIRED", "EMAIL_REQUIRED", "MOBILE_NUMBER_REQUIRED",
			"REQUIRED_FIELDS_MISSING", "FOLLOW_UP_INVALID", "DUPLICATE_LEAD", "LEAD_IDS_REQUIRED",
			"LEAD_UPDATE_REQUIRED", "INVALID_PAGE_SIZE", "INVALID_DATE_RANGE", "IMPORT_FILE_REQUIRED",
			"IMPORT_FILE_UNSUPPORTED", "IMPORT_FILE_EMPTY":
			return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, be.Error())
		}
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMsg, fallbackCode, nil)
}

// actorFromContext builds the acting identity from the auth middleware locals
func (h *LeadHandler) actorFromContext(c fiber.Ctx) (businessflow.Actor, bool) {
	return actorFromLocals(c)
}

// Create Lead
// @Description Create a new lead. Center managers and counselors only; manager-created leads go through the center routing rule.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body dto.CreateLeadRequest true "Lead payload"
// @Success 201 {object} dto.APIResponse{data=dto.CreateLeadResponse} "Lead created successfully"
// @Failure 400 {object} dto.APIResponse "Validation error or invalid request"
// @Failure 401 {object} dto.APIResponse "Unauthorized"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /api/v1/leads [post]
func (h *LeadHandler) Create(c fiber.Ctx) error {
	return h.createWithSource(c, "/api/v1/leads", nil)
}

// OpenCreate Lead
// @Description Create a lead through the open form endpoint; identical semantics to the standard create, authenticated per request.
// @Tags Leads
// @Router /api/v1/open/leads [post]
func (h *LeadHandler) OpenCreate(c fiber.Ctx) error {
	return h.createWithSource(c, "/api/v1/open/leads", utils.ToPtr("open-form"))
}

// Ingest Lead
// @Description Fallback ingest endpoint for external sources (landing pages, ad integrations) pushing raw lead payloads.
// @Tags Leads
// @Router /api/v1/integrations/ingest [post]
func (h *LeadHandler) Ingest(c fiber.Ctx) error {
	return h.createWithSource(c, "/api/v1/integrations/ingest", utils.ToPtr("ingest"))
}

func (h *LeadHandler) createWithSource(c fiber.Ctx, endpoint string, createdFrom *string) error {
	var req dto.CreateLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}

	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", getValidationErrorMessage(err))
	}

	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	if createdFrom != nil && req.CreatedFrom == nil {
		req.CreatedFrom = createdFrom
	}

	metadata := businessflow.NewClientMetadata(c.IP(), c.Get("User-Agent"))
	result, err := h.flow.Create(h.createRequestContext(c, endpoint), &req, actor, metadata)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to create lead", "LEAD_CREATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusCreated, "Lead created successfully", result)
}

// List Leads
// @Description List leads visible to the caller. Managers see their center, counselors their own assignments.
// @Tags Leads
// @Produce json
// @Param lead_status query string false "Exact status filter"
// @Param lead_source query string false "Exact source filter"
// @Param search query string false "Free text over name, email, mobile, and reference number"
// @Param start_date query string false "Created-after bound (RFC3339)"
// @Param end_date query string false "Created-before bound (RFC3339)"
// @Param page query integer false "Page number (default: 1)"
// @Param page_size query integer false "Items per page (default: 20, max: 100)"
// @Success 200 {object} dto.APIResponse{data=dto.ListLeadsResponse} "Leads retrieved successfully"
// @Router /api/v1/leads [get]
func (h *LeadHandler) List(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	req := &dto.ListLeadsRequest{
		Status:        queryPtr(c, "lead_status"),
		SubStatus:     queryPtr(c, "lead_sub_status"),
		LeadSource:    queryPtr(c, "lead_source"),
		LocationCity:  queryPtr(c, "location_city"),
		LocationState: queryPtr(c, "location_state"),
		CenterName:    queryPtr(c, "center_name"),
		Search:        queryPtr(c, "search"),
	}
	if v := c.Query("assigned_to"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			u := uint(n)
			req.AssignedTo = &u
		}
	}
	if v := c.Query("is_important"); v != "" {
		b := v == "true" || v == "1"
		req.IsImportant = &b
	}
	if v := c.Query("start_date"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			req.StartDate = &parsed
		}
	}
	if v := c.Query("end_date"); v != "" {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			req.EndDate = &parsed
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			req.Page = uint(n)
		}
	}
	if v := c.Query("page_size"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 32); err == nil {
			req.PageSize = uint(n)
		}
	}

	result, err := h.flow.List(h.createRequestContext(c, "/api/v1/leads"), req, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to list leads", "LEAD_LIST_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Leads retrieved successfully", result)
}

// Get Lead
// @Description Retrieve a single lead by ID, subject to the caller's role scope.
// @Tags Leads
// @Produce json
// @Param id path integer true "Lead ID"
// @Success 200 {object} dto.APIResponse{data=dto.GetLeadResponse} "Lead retrieved successfully"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Failure 404 {object} dto.APIResponse "Lead not found"
// @Router /api/v1/leads/{id} [get]
func (h *LeadHandler) Get(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	id, err := leadIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", "INVALID_LEAD_ID", err.Error())
	}

	result, err := h.flow.Get(h.createRequestContext(c, "/api/v1/leads/:id"), id, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to retrieve lead", "LEAD_LOOKUP_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead retrieved successfully", result)
}

// Update Lead
// @Description Partially update a lead. Counselors may only change status, sub-status, description, and follow-up date.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path integer true "Lead ID"
// @Param request body dto.UpdateLeadRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateLeadResponse} "Lead updated successfully"
// @Router /api/v1/leads/{id} [patch]
func (h *LeadHandler) Update(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	id, err := leadIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", "INVALID_LEAD_ID", err.Error())
	}

	var req dto.UpdateLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", getValidationErrorMessage(err))
	}

	result, err := h.flow.Update(h.createRequestContext(c, "/api/v1/leads/:id"), id, &req, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to update lead", "LEAD_UPDATE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead updated successfully", result)
}

// Assign Lead
// @Description Assign a lead to a counselor of the manager's center.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path integer true "Lead ID"
// @Param request body dto.AssignLeadRequest true "Assignee"
// @Success 200 {object} dto.APIResponse{data=dto.AssignLeadResponse} "Lead assigned successfully"
// @Router /api/v1/leads/{id}/assign [post]
func (h *LeadHandler) Assign(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	id, err := leadIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", "INVALID_LEAD_ID", err.Error())
	}

	var req dto.AssignLeadRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", getValidationErrorMessage(err))
	}

	result, err := h.flow.Assign(h.createRequestContext(c, "/api/v1/leads/:id/assign"), id, &req, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to assign lead", "LEAD_ASSIGN_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead assigned successfully", result)
}

// BulkAssign Leads
// @Description Assign a batch of leads to one counselor; failures are reported per lead.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body dto.BulkAssignLeadsRequest true "Lead IDs and assignee"
// @Success 200 {object} dto.APIResponse{data=dto.BulkAssignLeadsResponse} "Bulk assignment completed"
// @Router /api/v1/leads/bulk-assign [post]
func (h *LeadHandler) BulkAssign(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	var req dto.BulkAssignLeadsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", getValidationErrorMessage(err))
	}

	result, err := h.flow.BulkAssign(h.createRequestContext(c, "/api/v1/leads/bulk-assign"), &req, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to assign leads", "LEAD_ASSIGN_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bulk assignment completed", result)
}

// Remove Lead
// @Description Permanently delete a lead; its audit trail is preserved.
// @Tags Leads
// @Produce json
// @Param id path integer true "Lead ID"
// @Success 200 {object} dto.APIResponse{data=dto.RemoveLeadResponse} "Lead removed successfully"
// @Router /api/v1/leads/{id} [delete]
func (h *LeadHandler) Remove(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	id, err := leadIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", "INVALID_LEAD_ID", err.Error())
	}

	result, err := h.flow.Remove(h.createRequestContext(c, "/api/v1/leads/:id"), id, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to remove lead", "LEAD_REMOVE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead removed successfully", result)
}

// BulkRemove Leads
// @Description Permanently delete a batch of leads; failures are reported per lead.
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body dto.BulkRemoveLeadsRequest true "Lead IDs"
// @Success 200 {object} dto.APIResponse{data=dto.BulkRemoveLeadsResponse} "Bulk removal completed"
// @Router /api/v1/leads/bulk-remove [post]
func (h *LeadHandler) BulkRemove(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	var req dto.BulkRemoveLeadsRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", getValidationErrorMessage(err))
	}

	result, err := h.flow.BulkRemove(h.createRequestContext(c, "/api/v1/leads/bulk-remove"), &req, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to remove leads", "LEAD_REMOVE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Bulk removal completed", result)
}

// History Lead
// @Description Return a lead's change history, newest first.
// @Tags Leads
// @Produce json
// @Param id path integer true "Lead ID"
// @Success 200 {object} dto.APIResponse{data=dto.LeadHistoryResponse} "Lead history retrieved successfully"
// @Router /api/v1/leads/{id}/history [get]
func (h *LeadHandler) History(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	id, err := leadIDParam(c)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid lead ID", "INVALID_LEAD_ID", err.Error())
	}

	result, err := h.flow.History(h.createRequestContext(c, "/api/v1/leads/:id/history"), id, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to retrieve lead history", "LEAD_HISTORY_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead history retrieved successfully", result)
}

// Statistics Leads
// @Description Aggregate lead counts (total, by status, by source) within the caller's scope.
// @Tags Leads
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.LeadStatisticsResponse} "Lead statistics retrieved successfully"
// @Router /api/v1/leads/statistics [get]
func (h *LeadHandler) Statistics(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	result, err := h.flow.Statistics(h.createRequestContext(c, "/api/v1/leads/statistics"), actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to retrieve statistics", "LEAD_STATS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead statistics retrieved successfully", result)
}

// Timeseries Leads
// @Description Daily lead creation counts within the caller's scope.
// @Tags Leads
// @Produce json
// @Param days query integer false "Window size in days (default: 30)"
// @Success 200 {object} dto.APIResponse{data=dto.LeadTimeseriesResponse} "Lead timeseries retrieved successfully"
// @Router /api/v1/leads/timeseries [get]
func (h *LeadHandler) Timeseries(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	days := 0
	if v := c.Query("days"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			days = n
		}
	}

	result, err := h.flow.Timeseries(h.createRequestContext(c, "/api/v1/leads/timeseries"), days, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to retrieve timeseries", "LEAD_STATS_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Lead timeseries retrieved successfully", result)
}

// Import Leads
// @Description Import leads from an uploaded CSV or XLSX file; row failures are reported individually.
// @Tags Leads
// @Accept mpfd
// @Produce json
// @Param file formData file true "CSV or XLSX file with a header row"
// @Success 200 {object} dto.APIResponse{data=dto.ImportLeadsResponse} "Import completed"
// @Router /api/v1/leads/import [post]
func (h *LeadHandler) Import(c fiber.Ctx) error {
	actor, ok := h.actorFromContext(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil || fileHeader == nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "An import file is required", "IMPORT_FILE_REQUIRED", nil)
	}

	src, err := fileHeader.Open()
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", "IMPORT_FILE_REQUIRED", err.Error())
	}
	defer src.Close()

	data, err := io.ReadAll(src)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Failed to read uploaded file", "IMPORT_FILE_REQUIRED", err.Error())
	}

	result, err := h.importFlow.Import(h.createRequestContext(c, "/api/v1/leads/import"), fileHeader.Filename, data, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to import leads", "LEAD_IMPORT_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

func (h *LeadHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *LeadHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}

func leadIDParam(c fiber.Ctx) (uint, error) {
	n, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

func queryPtr(c fiber.Ctx, key string) *string {
	if v := c.Query(key); v != "" {
		return &v
	}
	return nil
}
