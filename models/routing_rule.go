package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RuleType represents the routing strategy of a center routing rule
type RuleType string

const (
	RuleTypeRoundRobin RuleType = "round_robin"
	RuleTypeSkillMatch RuleType = "skill_match"
)

// String returns the string representation of the rule type
func (t RuleType) String() string {
	return string(t)
}

// Valid checks if the rule type is valid
func (t RuleType) Valid() bool {
	switch t {
	case RuleTypeRoundRobin, RuleTypeSkillMatch:
		return true
	default:
		return false
	}
}

// Scan implements the sql.Scanner interface for RuleType
func (t *RuleType) Scan(value any) error {
	if value == nil {
		*t = ""
		return nil
	}

	switch v := value.(type) {
	case string:
		*t = RuleType(v)
	case []byte:
		*t = RuleType(string(v))
	default:
		return fmt.Errorf("cannot scan %T into RuleType", value)
	}

	return nil
}

// Value implements the driver.Valuer interface for RuleType
func (t RuleType) Value() (driver.Value, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid RuleType: %s", t)
	}
	return string(t), nil
}

// RoutingConfig represents the JSON configuration of a routing rule
type RoutingConfig struct {
	// Cap on simultaneously open assignments per counselor
	MaxActiveLeadsPerCounselor *int `json:"maxActiveLeadsPerCounselor,omitempty"`

	// Skill-match pools: program/specialization and mother tongue to counselor IDs
	InterestToCounselors map[string][]uint `json:"interestToCounselors,omitempty"`
	LanguageToCounselors map[string][]uint `json:"languageToCounselors,omitempty"`
}

// MaxActive returns the configured cap or the platform default
func (c RoutingConfig) MaxActive() int {
	if c.MaxActiveLeadsPerCounselor != nil && *c.MaxActiveLeadsPerCounselor > 0 {
		return *c.MaxActiveLeadsPerCounselor
	}
	return utils.DefaultMaxActiveLeadsPerCounselor
}

// Value implements the driver.Valuer interface for RoutingConfig
func (c RoutingConfig) Value() (driver.Value, error) {
	return json.Marshal(c)
}

// Scan implements the sql.Scanner interface for RoutingConfig
func (c *RoutingConfig) Scan(value any) error {
	if value == nil {
		*c = RoutingConfig{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into RoutingConfig", value)
	}

	return json.Unmarshal(bytes, c)
}

// RoutingRule represents a center's lead routing policy
// Table: center_routing_rules
// At most one rule per center is active at a time; starting a new rule deactivates prior ones
type RoutingRule struct {
	ID                 uint          `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID               uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	CenterName         string        `gorm:"type:varchar(150);not null;index" json:"center_name"`
	RuleType           RuleType      `gorm:"type:varchar(32);not null" json:"rule_type"`
	Config             RoutingConfig `gorm:"type:jsonb;not null;default:'{}'" json:"config"`
	ActiveUntil        *time.Time    `json:"active_until,omitempty"`
	IsActive           bool          `gorm:"default:true;index" json:"is_active"`
	LastAssignedUserID *uint         `json:"last_assigned_user_id,omitempty"`
	CreatedBy          *uint         `json:"created_by,omitempty"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP;index" json:"updated_at"`
}

func (RoutingRule) TableName() string { return "center_routing_rules" }

// BeforeCreate ensures UUID and timestamps are set
func (r *RoutingRule) BeforeCreate(tx *gorm.DB) error {
	if r.UUID == uuid.Nil {
		r.UUID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = utils.UTCNow()
	}
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// Expired reports whether the rule's activation window has passed
func (r *RoutingRule) Expired(now time.Time) bool {
	return r.ActiveUntil != nil && r.ActiveUntil.Before(now)
}

// RoutingRuleFilter represents filter criteria for routing rule queries
type RoutingRuleFilter struct {
	ID         *uint     `json:"id,omitempty"`
	CenterName *string   `json:"center_name,omitempty"`
	RuleType   *RuleType `json:"rule_type,omitempty"`
	IsActive   *bool     `json:"is_active,omitempty"`
}
