package models

import (
	"time"

	"github.com/amirphl/Seiryu-CRM/utils"
	"gorm.io/gorm"
)

// LeadFieldSetting controls visibility and requiredness of a lead form field
// Table: lead_field_settings
type LeadFieldSetting struct {
	ID       uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Key      string `gorm:"type:varchar(64);uniqueIndex;not null" json:"key"`
	Visible  bool   `gorm:"default:true" json:"visible"`
	Required bool   `gorm:"default:false" json:"required"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (LeadFieldSetting) TableName() string { return "lead_field_settings" }

// BeforeCreate normalizes timestamps
func (s *LeadFieldSetting) BeforeCreate(tx *gorm.DB) error {
	if s.CreatedAt.IsZero() {
		s.CreatedAt = utils.UTCNow()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// MandatoryFieldKeys are always visible and required regardless of saved settings
var MandatoryFieldKeys = map[string]struct{}{
	"referenceNo":  {},
	"firstName":    {},
	"lastName":     {},
	"email":        {},
	"mobileNumber": {},
}

// DefaultFieldSettings is the seed list for the lead form configuration
var DefaultFieldSettings = []LeadFieldSetting{
	{Key: "referenceNo", Visible: true, Required: true},
	{Key: "firstName", Visible: true, Required: true},
	{Key: "lastName", Visible: true, Required: true},
	{Key: "email", Visible: true, Required: true},
	{Key: "emailVerified", Visible: true, Required: false},
	{Key: "mobileNumber", Visible: true, Required: true},
	{Key: "alternateNumber", Visible: true, Required: false},
	{Key: "mobileVerified", Visible: true, Required: false},
	{Key: "whatsappNumber", Visible: true, Required: false},
	{Key: "whatsappVerified", Visible: true, Required: false},
	{Key: "locationCity", Visible: true, Required: false},
	{Key: "locationState", Visible: true, Required: false},
	{Key: "nationality", Visible: true, Required: false},
	{Key: "gender", Visible: true, Required: false},
	{Key: "dateOfBirth", Visible: true, Required: false},
	{Key: "motherTongue", Visible: true, Required: false},
	{Key: "highestQualification", Visible: true, Required: false},
	{Key: "yearOfCompletion", Visible: true, Required: false},
	{Key: "yearsOfExperience", Visible: true, Required: false},
	{Key: "university", Visible: true, Required: false},
	{Key: "program", Visible: true, Required: false},
	{Key: "specialization", Visible: true, Required: false},
	{Key: "batch", Visible: true, Required: false},
	{Key: "leadSource", Visible: true, Required: false},
	{Key: "leadSubSource", Visible: true, Required: false},
	{Key: "createdFrom", Visible: true, Required: false},
	{Key: "leadStatus", Visible: true, Required: false},
	{Key: "leadSubStatus", Visible: true, Required: false},
	{Key: "leadDescription", Visible: true, Required: false},
	{Key: "reasonDeadInvalid", Visible: true, Required: false},
	{Key: "nextFollowUpAt", Visible: true, Required: false},
	{Key: "comment", Visible: true, Required: false},
	{Key: "leadScorePercent", Visible: true, Required: false},
	{Key: "dateEntered", Visible: true, Required: false},
	{Key: "dateModified", Visible: true, Required: false},
	{Key: "assignedUserId", Visible: true, Required: false},
	{Key: "counselorName", Visible: true, Required: false},
	{Key: "counselorCode", Visible: true, Required: false},
}

// LeadFieldSettingFilter represents filter criteria for field setting queries
type LeadFieldSettingFilter struct {
	Key      *string `json:"key,omitempty"`
	Visible  *bool   `json:"visible,omitempty"`
	Required *bool   `json:"required,omitempty"`
}
