// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	businessflow "github.com/amirphl/Seiryu-CRM/business_flow"
	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/gofiber/fiber/v3"
)

// CenterHandlerInterface defines the contract for center handlers
type CenterHandlerInterface interface {
	ListCodes(c fiber.Ctx) error
}

// CenterHandler handles center registry HTTP requests
type CenterHandler struct {
	flow businessflow.CenterCodeFlow
}

// NewCenterHandler creates a new center handler
func NewCenterHandler(flow businessflow.CenterCodeFlow) *CenterHandler {
	return &CenterHandler{flow: flow}
}

func (h *CenterHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *CenterHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ListCodes Center Codes
// @Description Return the short code assigned to every known center. Super admins only.
// @Tags Centers
// @Produce json
// @Success 200 {object} dto.APIResponse{data=dto.ListCenterCodesResponse} "Center codes retrieved successfully"
// @Failure 403 {object} dto.APIResponse "Forbidden"
// @Router /api/v1/centers/codes [get]
func (h *CenterHandler) ListCodes(c fiber.Ctx) error {
	actor, ok := actorFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	result, err := h.flow.ListCenterCodes(h.createRequestContext(c, "/api/v1/centers/codes"), actor)
	if err != nil {
		if be, ok := err.(*businessflow.BusinessError); ok && be.Code == "CENTER_CODES_FORBIDDEN" {
			return h.ErrorResponse(c, fiber.StatusForbidden, be.Message, be.Code, nil)
		}
		return h.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to list center codes", "CENTER_CODES_FAILED", nil)
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Center codes retrieved successfully", result)
}

func (h *CenterHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
