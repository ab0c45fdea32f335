package models

import (
	"time"

	"github.com/amirphl/Seiryu-CRM/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User presence statuses reported by the realtime client
const (
	PresenceOnline    = "online"
	PresenceOffline   = "offline"
	PresenceInMeeting = "in_meeting"
	PresenceOnCall    = "on_call"
)

// EligiblePresences lists the presence statuses that keep a counselor in the routing pool
var EligiblePresences = map[string]struct{}{
	PresenceOnline:    {},
	PresenceOnCall:    {},
	PresenceInMeeting: {},
}

// User represents a platform user (super admin, center manager, or counselor)
// Table: users
type User struct {
	ID           uint      `gorm:"primaryKey;autoIncrement" json:"id"`
	UUID         uuid.UUID `gorm:"type:uuid;uniqueIndex;not null;default:gen_random_uuid()" json:"uuid"`
	UserName     string    `gorm:"type:varchar(100);uniqueIndex;not null" json:"username"`
	FirstName    string    `gorm:"type:varchar(100);not null" json:"first_name"`
	LastName     string    `gorm:"type:varchar(100);not null" json:"last_name"`
	Email        string    `gorm:"type:varchar(150);index" json:"email"`
	MobileNumber string    `gorm:"type:varchar(30)" json:"mobile_number"`
	Role         string    `gorm:"type:varchar(50);not null;index" json:"role"`
	IsAdmin      bool      `gorm:"default:false" json:"is_admin"`
	CenterName   *string   `gorm:"type:varchar(150);index" json:"center_name,omitempty"`
	Presence     string    `gorm:"type:varchar(20);default:'offline'" json:"presence"`
	Deleted      bool      `gorm:"default:false;index" json:"deleted"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

func (User) TableName() string { return "users" }

// BeforeCreate ensures UUID and timestamps are set
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.UUID == uuid.Nil {
		u.UUID = uuid.New()
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = utils.UTCNow()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = utils.UTCNow()
	}
	return nil
}

// NormalizedRole returns the canonical role of the user
func (u *User) NormalizedRole() NormalizedRole {
	return NormalizeRole(u.Role, u.IsAdmin)
}

// FullName returns the display name of the user
func (u *User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsEligibleForRouting reports whether the user's presence keeps them in the routing pool
func (u *User) IsEligibleForRouting() bool {
	_, ok := EligiblePresences[u.Presence]
	return ok
}

// UserFilter represents filter criteria for user queries
type UserFilter struct {
	ID         *uint      `json:"id,omitempty"`
	UUID       *uuid.UUID `json:"uuid,omitempty"`
	UserName   *string    `json:"username,omitempty"`
	Email      *string    `json:"email,omitempty"`
	Role       *string    `json:"role,omitempty"`
	IsAdmin    *bool      `json:"is_admin,omitempty"`
	CenterName *string    `json:"center_name,omitempty"`
	Presence   *string    `json:"presence,omitempty"`
	Deleted    *bool      `json:"deleted,omitempty"`
}
