package dto

import "time"

// LeadDTO represents a lead in API responses
type LeadDTO struct {
	ID                   uint       `json:"id"`
	UUID                 string     `json:"uuid"`
	ReferenceNo          string     `json:"reference_no"`
	FirstName            string     `json:"first_name"`
	LastName             string     `json:"last_name"`
	Email                string     `json:"email"`
	EmailVerified        bool       `json:"email_verified"`
	MobileNumber         string     `json:"mobile_number"`
	MobileVerified       bool       `json:"mobile_verified"`
	AlternateNumber      *string    `json:"alternate_number,omitempty"`
	WhatsappNumber       *string    `json:"whatsapp_number,omitempty"`
	WhatsappVerified     bool       `json:"whatsapp_verified"`
	LocationCity         *string    `json:"location_city,omitempty"`
	LocationState        *string    `json:"location_state,omitempty"`
	Nationality          *string    `json:"nationality,omitempty"`
	Gender               *string    `json:"gender,omitempty"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	MotherTongue         *string    `json:"mother_tongue,omitempty"`
	HighestQualification *string    `json:"highest_qualification,omitempty"`
	YearOfCompletion     *int       `json:"year_of_completion,omitempty"`
	YearsOfExperience    *string    `json:"years_of_experience,omitempty"`
	University           *string    `json:"university,omitempty"`
	Program              *string    `json:"program,omitempty"`
	Specialization       *string    `json:"specialization,omitempty"`
	Batch                *string    `json:"batch,omitempty"`
	LeadSource           *string    `json:"lead_source,omitempty"`
	LeadSubSource        *string    `json:"lead_sub_source,omitempty"`
	CreatedFrom          *string    `json:"created_from,omitempty"`
	Status               string     `json:"lead_status"`
	SubStatus            *string    `json:"lead_sub_status,omitempty"`
	ScorePercent         int        `json:"lead_score_percent"`
	NextFollowUpAt       *time.Time `json:"next_follow_up_at,omitempty"`
	Description          *string    `json:"lead_description,omitempty"`
	ReasonDeadInvalid    *string    `json:"reason_dead_invalid,omitempty"`
	Comment              *string    `json:"comment,omitempty"`
	CenterName           *string    `json:"center_name,omitempty"`
	AssignedUserID       *uint      `json:"assigned_user_id,omitempty"`
	CounselorName        *string    `json:"counselor_name,omitempty"`
	CounselorCode        *string    `json:"counselor_code,omitempty"`
	IsImportant          bool       `json:"is_important"`
	CreatedAt            string     `json:"created_at"`
	UpdatedAt            string     `json:"updated_at"`
}

// CreateLeadRequest carries data to create a new lead
// FirstName, LastName, Email, and MobileNumber are always required; other
// requirements follow the configured field settings
type CreateLeadRequest struct {
	FirstName            string     `json:"first_name" validate:"required,max=100"`
	LastName             string     `json:"last_name" validate:"required,max=100"`
	Email                string     `json:"email" validate:"required,email,max=150"`
	MobileNumber         string     `json:"mobile_number" validate:"required,max=30"`
	AlternateNumber      *string    `json:"alternate_number,omitempty" validate:"omitempty,max=30"`
	WhatsappNumber       *string    `json:"whatsapp_number,omitempty" validate:"omitempty,max=30"`
	LocationCity         *string    `json:"location_city,omitempty" validate:"omitempty,max=100"`
	LocationState        *string    `json:"location_state,omitempty" validate:"omitempty,max=100"`
	Nationality          *string    `json:"nationality,omitempty" validate:"omitempty,max=100"`
	Gender               *string    `json:"gender,omitempty" validate:"omitempty,max=32"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	MotherTongue         *string    `json:"mother_tongue,omitempty" validate:"omitempty,max=100"`
	HighestQualification *string    `json:"highest_qualification,omitempty" validate:"omitempty,max=64"`
	YearOfCompletion     *int       `json:"year_of_completion,omitempty"`
	YearsOfExperience    *string    `json:"years_of_experience,omitempty" validate:"omitempty,max=64"`
	University           *string    `json:"university,omitempty" validate:"omitempty,max=150"`
	Program              *string    `json:"program,omitempty" validate:"omitempty,max=150"`
	Specialization       *string    `json:"specialization,omitempty" validate:"omitempty,max=150"`
	Batch                *string    `json:"batch,omitempty" validate:"omitempty,max=50"`
	LeadSource           *string    `json:"lead_source,omitempty" validate:"omitempty,max=100"`
	LeadSubSource        *string    `json:"lead_sub_source,omitempty" validate:"omitempty,max=100"`
	CreatedFrom          *string    `json:"created_from,omitempty" validate:"omitempty,max=150"`
	Status               *string    `json:"lead_status,omitempty" validate:"omitempty,max=50"`
	SubStatus            *string    `json:"lead_sub_status,omitempty" validate:"omitempty,max=100"`
	ActionScore          *int       `json:"action_score,omitempty" validate:"omitempty,min=0,max=100"`
	NextFollowUpAt       *time.Time `json:"next_follow_up_at,omitempty"`
	Description          *string    `json:"lead_description,omitempty"`
	Comment              *string    `json:"comment,omitempty"`
	CenterName           *string    `json:"center_name,omitempty" validate:"omitempty,max=150"`
	AssignedUserID       *uint      `json:"assigned_user_id,omitempty"`
}

// CreateLeadResponse returns the created lead
type CreateLeadResponse struct {
	Message string  `json:"message"`
	Lead    LeadDTO `json:"lead"`
}

// ListLeadsRequest filters for lead listings
type ListLeadsRequest struct {
	Status        *string    `json:"lead_status,omitempty"`
	SubStatus     *string    `json:"lead_sub_status,omitempty"`
	LeadSource    *string    `json:"lead_source,omitempty"`
	LocationCity  *string    `json:"location_city,omitempty"`
	LocationState *string    `json:"location_state,omitempty"`
	CenterName    *string    `json:"center_name,omitempty"`
	AssignedTo    *uint      `json:"assigned_to,omitempty"`
	IsImportant   *bool      `json:"is_important,omitempty"`
	Search        *string    `json:"search,omitempty"`
	StartDate     *time.Time `json:"start_date,omitempty"`
	EndDate       *time.Time `json:"end_date,omitempty"`
	Page          uint       `json:"page,omitempty"`
	PageSize      uint       `json:"page_size,omitempty"`
}

// ListLeadsResponse returns a page of leads
type ListLeadsResponse struct {
	Message string    `json:"message"`
	Leads   []LeadDTO `json:"leads"`
	Total   int64     `json:"total"`
	Page    uint      `json:"page"`
}

// GetLeadResponse returns a single lead
type GetLeadResponse struct {
	Message string  `json:"message"`
	Lead    LeadDTO `json:"lead"`
}

// UpdateLeadRequest carries a partial lead update; nil fields stay untouched
type UpdateLeadRequest struct {
	FirstName            *string    `json:"first_name,omitempty" validate:"omitempty,max=100"`
	LastName             *string    `json:"last_name,omitempty" validate:"omitempty,max=100"`
	Email                *string    `json:"email,omitempty" validate:"omitempty,email,max=150"`
	MobileNumber         *string    `json:"mobile_number,omitempty" validate:"omitempty,max=30"`
	AlternateNumber      *string    `json:"alternate_number,omitempty" validate:"omitempty,max=30"`
	WhatsappNumber       *string    `json:"whatsapp_number,omitempty" validate:"omitempty,max=30"`
	LocationCity         *string    `json:"location_city,omitempty" validate:"omitempty,max=100"`
	LocationState        *string    `json:"location_state,omitempty" validate:"omitempty,max=100"`
	Nationality          *string    `json:"nationality,omitempty" validate:"omitempty,max=100"`
	Gender               *string    `json:"gender,omitempty" validate:"omitempty,max=32"`
	DateOfBirth          *time.Time `json:"date_of_birth,omitempty"`
	MotherTongue         *string    `json:"mother_tongue,omitempty" validate:"omitempty,max=100"`
	HighestQualification *string    `json:"highest_qualification,omitempty" validate:"omitempty,max=64"`
	YearOfCompletion     *int       `json:"year_of_completion,omitempty"`
	YearsOfExperience    *string    `json:"years_of_experience,omitempty" validate:"omitempty,max=64"`
	University           *string    `json:"university,omitempty" validate:"omitempty,max=150"`
	Program              *string    `json:"program,omitempty" validate:"omitempty,max=150"`
	Specialization       *string    `json:"specialization,omitempty" validate:"omitempty,max=150"`
	Batch                *string    `json:"batch,omitempty" validate:"omitempty,max=50"`
	LeadSource           *string    `json:"lead_source,omitempty" validate:"omitempty,max=100"`
	LeadSubSource        *string    `json:"lead_sub_source,omitempty" validate:"omitempty,max=100"`
	Status               *string    `json:"lead_status,omitempty" validate:"omitempty,max=50"`
	SubStatus            *string    `json:"lead_sub_status,omitempty" validate:"omitempty,max=100"`
	ActionScore          *int       `json:"action_score,omitempty" validate:"omitempty,min=0,max=100"`
	NextFollowUpAt       *time.Time `json:"next_follow_up_at,omitempty"`
	Description          *string    `json:"lead_description,omitempty"`
	ReasonDeadInvalid    *string    `json:"reason_dead_invalid,omitempty"`
	Comment              *string    `json:"comment,omitempty"`
	IsImportant          *bool      `json:"is_important,omitempty"`
	AssignedUserID       *uint      `json:"assigned_user_id,omitempty"`
}

// UpdateLeadResponse returns the updated lead
type UpdateLeadResponse struct {
	Message string  `json:"message"`
	Lead    LeadDTO `json:"lead"`
}

// AssignLeadRequest assigns a single lead to a counselor
type AssignLeadRequest struct {
	AssigneeID uint `json:"assignee_id" validate:"required"`
}

// AssignLeadResponse returns the assigned lead
type AssignLeadResponse struct {
	Message string  `json:"message"`
	Lead    LeadDTO `json:"lead"`
}

// BulkAssignLeadsRequest assigns a batch of leads to a counselor
type BulkAssignLeadsRequest struct {
	LeadIDs    []uint `json:"lead_ids" validate:"required,min=1"`
	AssigneeID uint   `json:"assignee_id" validate:"required"`
}

// BulkResultItem reports the outcome of one lead in a bulk operation
type BulkResultItem struct {
	LeadID uint    `json:"lead_id"`
	OK     bool    `json:"ok"`
	Error  *string `json:"error,omitempty"`
}

// BulkAssignLeadsResponse reports per-lead outcomes of a bulk assignment
type BulkAssignLeadsResponse struct {
	Message   string           `json:"message"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkResultItem `json:"results"`
}

// RemoveLeadResponse confirms a lead removal
type RemoveLeadResponse struct {
	Message string `json:"message"`
	ID      uint   `json:"id"`
}

// BulkRemoveLeadsRequest removes a batch of leads
type BulkRemoveLeadsRequest struct {
	LeadIDs []uint `json:"lead_ids" validate:"required,min=1"`
}

// BulkRemoveLeadsResponse reports per-lead outcomes of a bulk removal
type BulkRemoveLeadsResponse struct {
	Message   string           `json:"message"`
	Succeeded int              `json:"succeeded"`
	Failed    int              `json:"failed"`
	Results   []BulkResultItem `json:"results"`
}

// LeadEventUser identifies a user referenced by a history entry
type LeadEventUser struct {
	ID       uint   `json:"id"`
	UserName string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// LeadEventItem represents one entry of a lead's change history
type LeadEventItem struct {
	ID            uint           `json:"id"`
	Action        string         `json:"action"`
	ChangedBy     *uint          `json:"changed_by,omitempty"`
	ChangedByUser *LeadEventUser `json:"changed_by_user,omitempty"`
	ChangedAt     string         `json:"changed_at"`
	FromValue     any            `json:"from_value,omitempty"`
	FromUser      *LeadEventUser `json:"from_user,omitempty"`
	ToValue       any            `json:"to_value,omitempty"`
	ToUser        *LeadEventUser `json:"to_user,omitempty"`
	Note          *string        `json:"note,omitempty"`
}

// LeadHistoryResponse returns a lead's change history, newest first
type LeadHistoryResponse struct {
	Message string          `json:"message"`
	LeadID  uint            `json:"lead_id"`
	Events  []LeadEventItem `json:"events"`
}

// LeadStatisticsResponse returns aggregate lead counts for dashboards
type LeadStatisticsResponse struct {
	Message  string           `json:"message"`
	Total    int64            `json:"total"`
	ByStatus map[string]int64 `json:"by_status"`
	BySource map[string]int64 `json:"by_source"`
}

// LeadTimeseriesResponse returns daily lead creation counts
type LeadTimeseriesResponse struct {
	Message string           `json:"message"`
	Days    int              `json:"days"`
	ByDay   map[string]int64 `json:"by_day"`
}

// ImportRowError reports one failed row of an import file
type ImportRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

// ImportLeadsResponse reports the outcome of a lead import
type ImportLeadsResponse struct {
	Message   string           `json:"message"`
	Imported  int              `json:"imported"`
	Failed    int              `json:"failed"`
	RowErrors []ImportRowError `json:"row_errors,omitempty"`
}
