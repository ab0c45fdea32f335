// Package businessflow contains the core business logic and use cases for lead management workflows
package businessflow

import (
	"errors"
	"fmt"
)

// Business flow error constants
var (
	// Lead-related errors
	ErrLeadNotFound         = errors.New("lead not found")
	ErrFirstNameRequired    = errors.New("first name is required")
	ErrLastNameRequired     = errors.New("last name is required")
	ErrEmailRequired        = errors.New("email is required")
	ErrMobileNumberRequired = errors.New("mobile number is required")
	ErrRequiredFieldMissing = errors.New("a required field is missing")
	ErrReferenceNoConflict  = errors.New("reference number already exists")
	ErrLeadUpdateRequired   = errors.New("at least one field must be provided for update")
	ErrLeadIDsRequired      = errors.New("at least one lead ID is required")

	// Follow-up window errors
	ErrInvalidFollowUpDate = errors.New("follow-up date is invalid")
	ErrFollowUpInPast      = errors.New("follow-up date cannot be in the past")
	ErrFollowUpOutOfWindow = errors.New("follow-up date exceeds the allowed window for this status")

	// Role and scope errors
	ErrForbidden           = errors.New("operation not permitted for this role")
	ErrCenterRequired      = errors.New("caller has no center assigned")
	ErrCenterMismatch      = errors.New("resource belongs to another center")
	ErrAssigneeNotFound    = errors.New("assignee not found")
	ErrAssigneeNotInCenter = errors.New("assignee does not belong to this center")

	// Routing errors
	ErrRuleNotFound    = errors.New("routing rule not found")
	ErrInvalidRuleType = errors.New("invalid routing rule type")

	// Center code errors
	ErrCenterNameRequired = errors.New("center name is required")

	// Import errors
	ErrImportFileRequired    = errors.New("import file is required")
	ErrImportFileUnsupported = errors.New("unsupported import file format")
	ErrImportFileEmpty       = errors.New("import file contains no rows")

	// Field setting errors
	ErrFieldKeyUnknown      = errors.New("unknown field key")
	ErrMandatoryFieldLocked = errors.New("mandatory fields cannot be hidden or made optional")

	// Filter errors
	ErrInvalidPageSize       = errors.New("page size must be between 1 and 100")
	ErrStartDateAfterEndDate = errors.New("start date cannot be after end date")
)

type BusinessError struct {
	Code    string
	Message string
	Err     error
}

func (e *BusinessError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func NewBusinessError(code, message string, err error) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

func NewBusinessErrorf(code, message string, err error, args ...any) *BusinessError {
	return &BusinessError{
		Code:    code,
		Message: fmt.Sprintf(message, args...),
		Err:     err,
	}
}

func IsLeadNotFound(err error) bool {
	return errors.Is(err, ErrLeadNotFound)
}

func IsRequiredFieldMissing(err error) bool {
	return errors.Is(err, ErrRequiredFieldMissing)
}

func IsReferenceNoConflict(err error) bool {
	return errors.Is(err, ErrReferenceNoConflict)
}

func IsLeadUpdateRequired(err error) bool {
	return errors.Is(err, ErrLeadUpdateRequired)
}

func IsLeadIDsRequired(err error) bool {
	return errors.Is(err, ErrLeadIDsRequired)
}

func IsInvalidFollowUpDate(err error) bool {
	return errors.Is(err, ErrInvalidFollowUpDate)
}

func IsFollowUpInPast(err error) bool {
	return errors.Is(err, ErrFollowUpInPast)
}

func IsFollowUpOutOfWindow(err error) bool {
	return errors.Is(err, ErrFollowUpOutOfWindow)
}

func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

func IsCenterRequired(err error) bool {
	return errors.Is(err, ErrCenterRequired)
}

func IsCenterMismatch(err error) bool {
	return errors.Is(err, ErrCenterMismatch)
}

func IsAssigneeNotFound(err error) bool {
	return errors.Is(err, ErrAssigneeNotFound)
}

func IsAssigneeNotInCenter(err error) bool {
	return errors.Is(err, ErrAssigneeNotInCenter)
}

func IsRuleNotFound(err error) bool {
	return errors.Is(err, ErrRuleNotFound)
}

func IsInvalidRuleType(err error) bool {
	return errors.Is(err, ErrInvalidRuleType)
}

func IsCenterNameRequired(err error) bool {
	return errors.Is(err, ErrCenterNameRequired)
}

func IsImportFileRequired(err error) bool {
	return errors.Is(err, ErrImportFileRequired)
}

func IsImportFileUnsupported(err error) bool {
	return errors.Is(err, ErrImportFileUnsupported)
}

func IsImportFileEmpty(err error) bool {
	return errors.Is(err, ErrImportFileEmpty)
}

func IsFieldKeyUnknown(err error) bool {
	return errors.Is(err, ErrFieldKeyUnknown)
}

func IsMandatoryFieldLocked(err error) bool {
	return errors.Is(err, ErrMandatoryFieldLocked)
}

func IsInvalidPageSize(err error) bool {
	return errors.Is(err, ErrInvalidPageSize)
}

func IsStartDateAfterEndDate(err error) bool {
	return errors.Is(err, ErrStartDateAfterEndDate)
}
