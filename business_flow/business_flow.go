// Package businessflow contains the business logic for the application.
package businessflow

import (
	"time"

	"github.com/amirphl/Seiryu-CRM/app/dto"
	"github.com/amirphl/Seiryu-CRM/models"
)

const RequestIDKey = "X-Request-ID"

// Actor identifies the authenticated caller of a flow operation
type Actor struct {
	ID         uint
	Role       models.NormalizedRole
	CenterName string
	IsAdmin    bool
}

// IsSuperAdmin reports whether the actor sees every center
func (a Actor) IsSuperAdmin() bool {
	return a.IsAdmin || a.Role == models.RoleSuperAdmin
}

// ClientMetadata holds client-related information for audit logging and request tracking
type ClientMetadata struct {
	IPAddress  string            `json:"ip_address"`
	UserAgent  string            `json:"user_agent"`
	RequestID  string            `json:"request_id,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// NewClientMetadata creates a new ClientMetadata instance with basic information
func NewClientMetadata(ipAddress, userAgent string) *ClientMetadata {
	return &ClientMetadata{
		IPAddress:  ipAddress,
		UserAgent:  userAgent,
		Additional: make(map[string]string),
	}
}

// AddAdditional adds additional custom information to the metadata
func (cm *ClientMetadata) AddAdditional(key, value string) {
	if cm.Additional == nil {
		cm.Additional = make(map[string]string)
	}
	cm.Additional[key] = value
}

// SetRequestID sets the request ID
func (cm *ClientMetadata) SetRequestID(requestID string) {
	cm.RequestID = requestID
}

// ToLeadDTO converts a lead model to its API representation
func ToLeadDTO(lead models.Lead) dto.LeadDTO {
	return dto.LeadDTO{
		ID:                   lead.ID,
		UUID:                 lead.UUID.String(),
		ReferenceNo:          lead.ReferenceNo,
		FirstName:            lead.FirstName,
		LastName:             lead.LastName,
		Email:                lead.Email,
		EmailVerified:        lead.EmailVerified,
		MobileNumber:         lead.MobileNumber,
		MobileVerified:       lead.MobileVerified,
		AlternateNumber:      lead.AlternateNumber,
		WhatsappNumber:       lead.WhatsappNumber,
		WhatsappVerified:     lead.WhatsappVerified,
		LocationCity:         lead.LocationCity,
		LocationState:        lead.LocationState,
		Nationality:          lead.Nationality,
		Gender:               lead.Gender,
		DateOfBirth:          lead.DateOfBirth,
		MotherTongue:         lead.MotherTongue,
		HighestQualification: lead.HighestQualification,
		YearOfCompletion:     lead.YearOfCompletion,
		YearsOfExperience:    lead.YearsOfExperience,
		University:           lead.University,
		Program:              lead.Program,
		Specialization:       lead.Specialization,
		Batch:                lead.Batch,
		LeadSource:           lead.LeadSource,
		LeadSubSource:        lead.LeadSubSource,
		CreatedFrom:          lead.CreatedFrom,
		Status:               lead.Status,
		SubStatus:            lead.SubStatus,
		ScorePercent:         lead.ScorePercent,
		NextFollowUpAt:       lead.NextFollowUpAt,
		Description:          lead.Description,
		ReasonDeadInvalid:    lead.ReasonDeadInvalid,
		Comment:              lead.Comment,
		CenterName:           lead.CenterName,
		AssignedUserID:       lead.AssignedUserID,
		CounselorName:        lead.CounselorName,
		CounselorCode:        lead.CounselorCode,
		IsImportant:          lead.IsImportant,
		CreatedAt:            lead.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            lead.UpdatedAt.Format(time.RFC3339),
	}
}

// ToRoutingRuleDTO converts a routing rule model to its API representation
func ToRoutingRuleDTO(rule models.RoutingRule) dto.RoutingRuleDTO {
	return dto.RoutingRuleDTO{
		ID:                 rule.ID,
		UUID:               rule.UUID.String(),
		CenterName:         rule.CenterName,
		RuleType:           rule.RuleType.String(),
		MaxActiveLeads:     rule.Config.MaxActive(),
		InterestPools:      rule.Config.InterestToCounselors,
		LanguagePools:      rule.Config.LanguageToCounselors,
		ActiveUntil:        rule.ActiveUntil,
		IsActive:           rule.IsActive,
		LastAssignedUserID: rule.LastAssignedUserID,
		CreatedAt:          rule.CreatedAt.Format(time.RFC3339),
	}
}

// ToLeadEventItem converts a lead event model to its API representation.
// The users map enriches actor and ownership references with directory details;
// users absent from the map (removed accounts) stay as bare IDs.
func ToLeadEventItem(event models.LeadEvent, users map[uint]*models.User) dto.LeadEventItem {
	item := dto.LeadEventItem{
		ID:            event.ID,
		Action:        event.Action,
		ChangedBy:     event.ChangedBy,
		ChangedByUser: toLeadEventUser(event.ChangedBy, users),
		ChangedAt:     event.ChangedAt.Format(time.RFC3339),
		Note:          event.Note,
	}
	if event.FromValue != nil {
		item.FromValue = *event.FromValue
		item.FromUser = toLeadEventUser(event.FromValue.AssignedUserID, users)
	}
	if event.ToValue != nil {
		item.ToValue = *event.ToValue
		item.ToUser = toLeadEventUser(event.ToValue.AssignedUserID, users)
	}
	return item
}

func toLeadEventUser(id *uint, users map[uint]*models.User) *dto.LeadEventUser {
	if id == nil {
		return nil
	}
	u, ok := users[*id]
	if !ok || u == nil {
		return nil
	}
	return &dto.LeadEventUser{
		ID:       u.ID,
		UserName: u.UserName,
		FullName: u.FullName(),
		Role:     u.NormalizedRole().String(),
	}
}
