// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	businessflow "github.com/amirphl/Seiryu-CRM/business_flow"
	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// FieldSettingsHandlerInterface defines the contract for field settings handlers
type FieldSettingsHandlerInterface interface {
	List(c fiber.Ctx) error
	Update(c fiber.Ctx) error
}

// FieldSettingsHandler handles lead form configuration HTTP requests
type FieldSettingsHandler struct {
	flow      businessflow.FieldSettingsFlow
	validator *validator.Validate
}

// NewFieldSettingsHandler creates a new field settings handler
func NewFieldSettingsHandler(flow businessflow.FieldSettingsFlow) *FieldSettingsHandler {
	return &FieldSettingsHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *FieldSettingsHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *FieldSettingsHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// List Field Settings
// @Description Return the effective lead form configuration (defaults merged with stored overrides).
// @Tags FieldSettings
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListFieldSettingsResponse} "Field settings retrieved successfully"
// @Router /api/v1/field-settings [get]
func (h *FieldSettingsHandler) List(c fiber.Ctx) error {
	actor, ok := actorFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	result, err := h.flow.List(h.createRequestContext(c, "/api/v1/field-settings"), actor)
	if err != nil {
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to load field settings", "FIELD_SETTINGS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Field settings retrieved successfully", result)
}

// Update Field Setting
// @Description Change one field's visibility or requiredness. Super admins only; mandatory fields stay locked.
// @Tags FieldSettings
// @Accept json
// @Produce json
// @Param request body dto.UpdateFieldSettingRequest true "Field setting"
// @Success 200 {object} dto.APIResponse{data=dto.UpdateFieldSettingResponse} "Field setting updated successfully"
// @Router /api/v1/field-settings [put]
func (h *FieldSettingsHandler) Update(c fiber.Ctx) error {
	actor, ok := actorFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	var req dto.UpdateFieldSettingRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", getValidationErrorMessage(err))
	}

	result, err := h.flow.Update(h.createRequestContext(c, "/api/v1/field-settings"), &req, actor)
	if err != nil {
		if be, ok := err.(*businessflow.BusinessError); ok {
			switch be.Code {
			case "FIELD_SETTINGS_FORBIDDEN":
				return h.ErrorResponse(c, fiber.StatusForbidden, be.Message, be.Code, nil)
			case "FIELD_KEY_UNKNOWN", "MANDATORY_FIELD_LOCKED":
				return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, be.Error())
			}
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update field setting", "FIELD_SETTINGS_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Field setting updated successfully", result)
}

func (h *FieldSettingsHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *FieldSettingsHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
