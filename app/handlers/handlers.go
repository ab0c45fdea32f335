// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"fmt"

	"github.com/amirphl/Seiryu-CRM/app/services"
	businessflow "github.com/amirphl/Seiryu-CRM/business_flow"
	"github.com/amirphl/Seiryu-CRM/models"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

// actorFromLocals builds the acting identity from the auth middleware locals
func actorFromLocals(c fiber.Ctx) (businessflow.Actor, bool) {
	userID, ok := c.Locals("user_id").(uint)
	if !ok {
		return businessflow.Actor{}, false
	}
	claims, ok := c.Locals("user_claims").(*services.TokenClaims)
	if !ok {
		return businessflow.Actor{}, false
	}
	return businessflow.Actor{
		ID:         userID,
		Role:       models.NormalizeRole(claims.Role, claims.IsAdmin),
		CenterName: claims.CenterName,
		IsAdmin:    claims.IsAdmin,
	}, true
}

// getValidationErrorMessage flattens validator errors into readable messages
func getValidationErrorMessage(err error) []string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return []string{err.Error()}
	}
	messages := make([]string, 0, len(validationErrors))
	for _, fe := range validationErrors {
		messages = append(messages, fieldErrorMessage(fe))
	}
	return messages
}

func fieldErrorMessage(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return err.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "min":
		return err.Field() + " must be at least " + err.Param()
	case "max":
		return err.Field() + " must be at most " + err.Param()
	case "len":
		return err.Field() + " must be exactly " + err.Param() + " characters"
	case "oneof":
		return err.Field() + " must be one of: " + err.Param()
	case "numeric":
		return err.Field() + " must contain only numbers"
	case "gte":
		return fmt.Sprintf("%s must be greater than or equal to %s", err.Field(), err.Param())
	case "lte":
		return fmt.Sprintf("%s must be less than or equal to %s", err.Field(), err.Param())
	default:
		return err.Field() + " is invalid"
	}
}
