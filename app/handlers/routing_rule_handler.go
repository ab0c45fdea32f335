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

// RoutingRuleHandlerInterface defines the contract for routing rule handlers
type RoutingRuleHandlerInterface interface {
	Upsert(c fiber.Ctx) error
	Get(c fiber.Ctx) error
	Deactivate(c fiber.Ctx) error
}

// RoutingRuleHandler handles routing rule HTTP requests
type RoutingRuleHandler struct {
	flow      businessflow.RoutingRuleFlow
	validator *validator.Validate
}

// NewRoutingRuleHandler creates a new routing rule handler
func NewRoutingRuleHandler(flow businessflow.RoutingRuleFlow) *RoutingRuleHandler {
	return &RoutingRuleHandler{
		flow:      flow,
		validator: validator.New(),
	}
}

func (h *RoutingRuleHandler) ErrorResponse(c fiber.Ctx, statusCode int, message, errorCode string, details any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: false,
		Message: message,
		Error: dto.ErrorDetail{
			Code:    errorCode,
			Details: details,
		},
	})
}

func (h *RoutingRuleHandler) SuccessResponse(c fiber.Ctx, statusCode int, message string, data any) error {
	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func (h *RoutingRuleHandler) respondBusinessError(c fiber.Ctx, err error, fallbackMsg, fallbackCode string) error {
	if be, ok := err.(*businessflow.BusinessError); ok {
		switch be.Code {
		case "ROUTING_RULE_FORBIDDEN":
			return h.ErrorResponse(c, fiber.StatusForbidden, be.Message, be.Code, nil)
		case "INVALID_RULE_TYPE":
			return h.ErrorResponse(c, fiber.StatusBadRequest, be.Message, be.Code, be.Error())
		}
	}
	return h.ErrorResponse(c, fiber.StatusInternalServerError, fallbackMsg, fallbackCode, nil)
}

// Upsert Routing Rule
// @Description Create or replace a center's active routing rule. Managers for their own center, super admins for any.
// @Tags RoutingRules
// @Accept json
// @Produce json
// @Param request body dto.UpsertRoutingRuleRequest true "Rule definition"
// @Success 200 {object} dto.APIResponse{data=dto.UpsertRoutingRuleResponse} "Routing rule saved successfully"
// @Router /api/v1/routing-rules [put]
func (h *RoutingRuleHandler) Upsert(c fiber.Ctx) error {
	actor, ok := actorFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	var req dto.UpsertRoutingRuleRequest
	if err := c.Bind().JSON(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", "INVALID_REQUEST", err.Error())
	}
	if err := h.validator.Struct(&req); err != nil {
		return h.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", "VALIDATION_ERROR", getValidationErrorMessage(err))
	}

	result, err := h.flow.Upsert(h.createRequestContext(c, "/api/v1/routing-rules"), &req, actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to store routing rule", "ROUTING_RULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Routing rule saved successfully", result)
}

// Get Routing Rule
// @Description Return the center's active routing rule, if any. Expired rules are deactivated on read.
// @Tags RoutingRules
// @Produce json
// @Param center_name query string false "Center name (super admins only; managers always see their own)"
// @Success 200 {object} dto.APIResponse{data=dto.GetRoutingRuleResponse} "Routing rule retrieved successfully"
// @Router /api/v1/routing-rules [get]
func (h *RoutingRuleHandler) Get(c fiber.Ctx) error {
	actor, ok := actorFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	result, err := h.flow.Get(h.createRequestContext(c, "/api/v1/routing-rules"), c.Query("center_name"), actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to load routing rule", "ROUTING_RULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, result.Message, result)
}

// Deactivate Routing Rule
// @Description Deactivate the center's active routing rule; new leads fall back to the creator.
// @Tags RoutingRules
// @Produce json
// @Param center_name query string false "Center name (super admins only)"
// @Success 200 {object} dto.APIResponse{data=dto.DeactivateRoutingRuleResponse} "Routing rule deactivated"
// @Router /api/v1/routing-rules [delete]
func (h *RoutingRuleHandler) Deactivate(c fiber.Ctx) error {
	actor, ok := actorFromLocals(c)
	if !ok {
		return h.ErrorResponse(c, fiber.StatusUnauthorized, "User not found in context", "MISSING_USER", nil)
	}

	result, err := h.flow.Deactivate(h.createRequestContext(c, "/api/v1/routing-rules"), c.Query("center_name"), actor)
	if err != nil {
		return h.respondBusinessError(c, err, "Failed to deactivate routing rule", "ROUTING_RULE_FAILED")
	}

	return h.SuccessResponse(c, fiber.StatusOK, "Routing rule deactivated", result)
}

func (h *RoutingRuleHandler) createRequestContext(c fiber.Ctx, endpoint string) context.Context {
	return h.createRequestContextWithTimeout(c, endpoint, 30*time.Second)
}

func (h *RoutingRuleHandler) createRequestContextWithTimeout(c fiber.Ctx, endpoint string, timeout time.Duration) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	ctx = context.WithValue(ctx, utils.RequestIDKey, c.Get("X-Request-ID"))
	ctx = context.WithValue(ctx, utils.UserAgentKey, c.Get("User-Agent"))
	ctx = context.WithValue(ctx, utils.IPAddressKey, c.IP())
	ctx = context.WithValue(ctx, utils.EndpointKey, endpoint)
	ctx = context.WithValue(ctx, utils.TimeoutKey, timeout)
	ctx = context.WithValue(ctx, utils.CancelFuncKey, cancel)
	return ctx
}
