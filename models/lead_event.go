package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/amirphl/Seiryu-CRM/utils"
	"gorm.io/gorm"
)

// Lead event action constants
const (
	LeadActionCreate          = "create"
	LeadActionUpdate          = "update"
	LeadActionStatusChange    = "status_change"
	LeadActionSubStatusChange = "sub_status_change"
	LeadActionOwnerChange     = "owner_change"
	LeadActionAssignment      = "assignment"
	LeadActionDelete          = "delete"
	LeadActionScoreChange     = "score_change"
	LeadActionFollowUpChange  = "follow_up_change"
	LeadActionComment         = "comment"
	LeadActionImport          = "import"
)

// EventValue is the jsonb snapshot stored on either side of a lead event
type EventValue struct {
	LeadStatus     *string `json:"leadStatus,omitempty"`
	LeadSubStatus  *string `json:"leadSubStatus,omitempty"`
	AssignedUserID *uint   `json:"assignedUserId,omitempty"`
	ScorePercent   *int    `json:"leadScorePercent,omitempty"`
	NextFollowUpAt *string `json:"nextFollowUpAt,omitempty"`
	ReferenceNo    *string `json:"referenceNo,omitempty"`
	Comment        *string `json:"comment,omitempty"`
}

// Value implements the driver.Valuer interface for EventValue
func (v EventValue) Value() (driver.Value, error) {
	return json.Marshal(v)
}

// Scan implements the sql.Scanner interface for EventValue
func (v *EventValue) Scan(value any) error {
	if value == nil {
		*v = EventValue{}
		return nil
	}

	var bytes []byte
	switch val := value.(type) {
	case []byte:
		bytes = val
	case string:
		bytes = []byte(val)
	default:
		return fmt.Errorf("cannot scan %T into EventValue", value)
	}

	return json.Unmarshal(bytes, v)
}

// LeadEvent is an append-only audit record of a lead mutation.
// Rows are never updated or deleted; a nil ChangedBy marks a system-originated change.
// LeadID is deliberately unconstrained so the trail survives a lead deletion.
// Table: lead_events
type LeadEvent struct {
	ID        uint        `gorm:"primaryKey;autoIncrement" json:"id"`
	LeadID    uint        `gorm:"not null;index:idx_lead_events_lead_id" json:"lead_id"`
	Action    string      `gorm:"type:varchar(32);not null;index:idx_lead_events_action" json:"action"`
	ChangedBy *uint       `gorm:"index" json:"changed_by,omitempty"`
	ChangedAt time.Time   `gorm:"not null;default:CURRENT_TIMESTAMP;index:idx_lead_events_changed_at" json:"changed_at"`
	FromValue *EventValue `gorm:"type:jsonb" json:"from_value,omitempty"`
	ToValue   *EventValue `gorm:"type:jsonb" json:"to_value,omitempty"`
	Note      *string     `gorm:"type:text" json:"note,omitempty"`
}

func (LeadEvent) TableName() string { return "lead_events" }

// BeforeCreate stamps the change time
func (e *LeadEvent) BeforeCreate(tx *gorm.DB) error {
	if e.ChangedAt.IsZero() {
		e.ChangedAt = utils.UTCNow()
	}
	return nil
}

// LeadEventFilter represents filter criteria for lead event queries
type LeadEventFilter struct {
	LeadID        *uint      `json:"lead_id,omitempty"`
	Action        *string    `json:"action,omitempty"`
	ChangedBy     *uint      `json:"changed_by,omitempty"`
	ChangedAfter  *time.Time `json:"changed_after,omitempty"`
	ChangedBefore *time.Time `json:"changed_before,omitempty"`
}
