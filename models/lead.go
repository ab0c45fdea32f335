package models

import (
	"time"

	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// LeadCreatedFromImport marks leads ingested through a spreadsheet import
const LeadCreatedFromImport = "import"

// Lead represents a prospective student tracked through the sales pipeline
// Table: leads
// ReferenceNo is a 2-3 letter center code followed by 8-10 digits, unique platform-wide
type Lead struct {
	ID          uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID        uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	ReferenceNo string    `gorm:"type:varchar(16);uniqueIndex;not null" json:"reference_no"`

	// Person details
	FirstName        string  `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName         string  `gorm:"type:varchar(100);not null" json:"last_name"`
	Email            string  `gorm:"type:varchar(150);not null;index" json:"email"`
	EmailVerified    bool    `gorm:"default:false" json:"email_verified"`
	MobileNumber     string  `gorm:"type:varchar(30);not null;index" json:"mobile_number"`
	MobileVerified   bool    `gorm:"default:false" json:"mobile_verified"`
	AlternateNumber  *string `gorm:"type:varchar(30)" json:"alternate_number,omitempty"`
	WhatsappNumber   *string `gorm:"type:varchar(30)" json:"whatsapp_number,omitempty"`
	WhatsappVerified bool    `gorm:"default:false" json:"whatsapp_verified"`

	// Location & demographics
	LocationCity  *string    `gorm:"type:varchar(100)" json:"location_city,omitempty"`
	LocationState *string    `gorm:"type:varchar(100)" json:"location_state,omitempty"`
	Nationality   *string    `gorm:"type:varchar(100)" json:"nationality,omitempty"`
	Gender        *string    `gorm:"type:varchar(32)" json:"gender,omitempty"`
	DateOfBirth   *time.Time `gorm:"type:date" json:"date_of_birth,omitempty"`
	MotherTongue  *string    `gorm:"type:varchar(100)" json:"mother_tongue,omitempty"`

	// Education & program
	HighestQualification *string `gorm:"type:varchar(64)" json:"highest_qualification,omitempty"`
	YearOfCompletion     *int    `json:"year_of_completion,omitempty"`
	YearsOfExperience    *string `gorm:"type:varchar(64)" json:"years_of_experience,omitempty"`
	University           *string `gorm:"type:varchar(150)" json:"university,omitempty"`
	Program              *string `gorm:"type:varchar(150)" json:"program,omitempty"`
	Specialization       *string `gorm:"type:varchar(150)" json:"specialization,omitempty"`
	Batch                *string `gorm:"type:varchar(50)" json:"batch,omitempty"`

	// Source & status
	LeadSource    *string `gorm:"type:varchar(100);index" json:"lead_source,omitempty"`
	LeadSubSource *string `gorm:"type:varchar(100)" json:"lead_sub_source,omitempty"`
	CreatedFrom   *string `gorm:"type:varchar(150)" json:"created_from,omitempty"`
	Status        string  `gorm:"column:lead_status;type:varchar(50);not null;default:'New';index" json:"lead_status"`
	SubStatus     *string `gorm:"column:lead_sub_status;type:varchar(100)" json:"lead_sub_status,omitempty"`

	// Scoring and scheduling
	ScorePercent   int        `gorm:"column:lead_score_percent;default:0" json:"lead_score_percent"`
	NextFollowUpAt *time.Time `json:"next_follow_up_at,omitempty"`

	// Notes & reasons
	Description       *string `gorm:"column:lead_description;type:text" json:"lead_description,omitempty"`
	ReasonDeadInvalid *string `gorm:"type:text" json:"reason_dead_invalid,omitempty"`
	Comment           *string `gorm:"type:text" json:"comment,omitempty"`

	// Tenancy & ownership
	CenterName     *string `gorm:"type:varchar(150);index" json:"center_name,omitempty"`
	AssignedUserID *uint   `gorm:"index" json:"assigned_user_id,omitempty"`
	CounselorName  *string `gorm:"type:varchar(150)" json:"counselor_name,omitempty"`
	CounselorCode  *string `gorm:"type:varchar(64)" json:"counselor_code,omitempty"`
	CreatedBy      *uint   `gorm:"index" json:"created_by,omitempty"`
	ModifiedBy     *uint   `json:"modified_by,omitempty"`

	IsImportant bool `gorm:"default:false;index" json:"is_important"`
	Deleted     bool `gorm:"default:false;index" json:"deleted"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`

	// Relations
	AssignedUser *User `gorm:"foreignKey:AssignedUserID;references:ID" json:"assigned_user,omitempty"`
}

func (Lead) TableName() string { return "leads" }

// BeforeCreate ensures UUID, default status, and timestamps are set
func (l *Lead) BeforeCreate(tx *gorm.DB) error {
	if l.UUID == uuid.Nil {
		l.UUID = uuid.New()
	}
	if l.Status == "" {
		l.Status = utils.DefaultLeadStatus
	}
	if l.CreatedAt.IsZero() {
		l.CreatedAt = utils.UTCNow()
	}
	if l.UpdatedAt.IsZero() {
		l.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// BeforeUpdate refreshes the updated timestamp
func (l *Lead) BeforeUpdate(tx *gorm.DB) error {
	l.UpdatedAt = utils.UTCNow()
	return nil
}

// LeadFilter represents filter criteria for lead queries.
// The Scope* fields restrict visibility by role: when either slice is non-nil the
// repository builds (assigned_user_id IN ScopeAssignedTo OR (assigned_user_id IS NULL
// AND created_by IN ScopeUnassignedCreatedBy)).
type LeadFilter struct {
	ID             *uint      `json:"id,omitempty"`
	UUID           *uuid.UUID `json:"uuid,omitempty"`
	ReferenceNo    *string    `json:"reference_no,omitempty"`
	Status         *string    `json:"lead_status,omitempty"`
	SubStatus      *string    `json:"lead_sub_status,omitempty"`
	LeadSource     *string    `json:"lead_source,omitempty"`
	LocationCity   *string    `json:"location_city,omitempty"`
	LocationState  *string    `json:"location_state,omitempty"`
	CenterName     *string    `json:"center_name,omitempty"`
	AssignedUserID *uint      `json:"assigned_user_id,omitempty"`
	IsImportant    *bool      `json:"is_important,omitempty"`
	Search         *string    `json:"search,omitempty"`
	CreatedAfter   *time.Time `json:"created_after,omitempty"`
	CreatedBefore  *time.Time `json:"created_before,omitempty"`

	ScopeAssignedTo          []uint `json:"-"`
	ScopeUnassignedCreatedBy []uint `json:"-"`
}
