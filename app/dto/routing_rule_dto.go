package dto

import "time"

// RoutingRuleDTO represents a center routing rule in API responses
type RoutingRuleDTO struct {
	ID                 uint              `json:"id"`
	UUID               string            `json:"uuid"`
	CenterName         string            `json:"center_name"`
	RuleType           string            `json:"rule_type"`
	MaxActiveLeads     int               `json:"max_active_leads_per_counselor"`
	InterestPools      map[string][]uint `json:"interest_pools,omitempty"`
	LanguagePools      map[string][]uint `json:"language_pools,omitempty"`
	ActiveUntil        *time.Time        `json:"active_until,omitempty"`
	IsActive           bool              `json:"is_active"`
	LastAssignedUserID *uint             `json:"last_assigned_user_id,omitempty"`
	CreatedAt          string            `json:"created_at"`
}

// UpsertRoutingRuleRequest creates or replaces a center's active routing rule
type UpsertRoutingRuleRequest struct {
	CenterName     string            `json:"center_name" validate:"required,max=150"`
	RuleType       string            `json:"rule_type" validate:"required,oneof=round_robin skill_match"`
	MaxActiveLeads *int              `json:"max_active_leads_per_counselor,omitempty" validate:"omitempty,min=1"`
	InterestPools  map[string][]uint `json:"interest_pools,omitempty"`
	LanguagePools  map[string][]uint `json:"language_pools,omitempty"`
	ActiveUntil    *time.Time        `json:"active_until,omitempty"`
}

// UpsertRoutingRuleResponse returns the stored rule
type UpsertRoutingRuleResponse struct {
	Message string         `json:"message"`
	Rule    RoutingRuleDTO `json:"rule"`
}

// GetRoutingRuleResponse returns a center's active rule, if any
type GetRoutingRuleResponse struct {
	Message string          `json:"message"`
	Rule    *RoutingRuleDTO `json:"rule,omitempty"`
}

// DeactivateRoutingRuleResponse confirms deactivation
type DeactivateRoutingRuleResponse struct {
	Message    string `json:"message"`
	CenterName string `json:"center_name"`
}

// CenterCodeItem maps one center name to its short code
type CenterCodeItem struct {
	CenterName string `json:"center_name"`
	Code       string `json:"code"`
}

// ListCenterCodesResponse returns the code assigned to every known center
type ListCenterCodesResponse struct {
	Message string           `json:"message"`
	Centers []CenterCodeItem `json:"centers"`
}
