package roster

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RosterEntry is an agent's own copy of a person's data. (AgentID, PersonKey) is
// unique, so re-applying a key always lands on the same row.
type RosterEntry struct {
	ID             uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID        uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex:idx_roster_agent_key,priority:1;index:idx_roster_agent_active,priority:1" json:"agent_id"`
	PersonRefID    uuid.UUID     `gorm:"type:uuid;not null;index" json:"person_ref_id"`
	PersonKey      string        `gorm:"column:person_key;size:64;not null;uniqueIndex:idx_roster_agent_key,priority:2;index" json:"person_key"`
	FirstName      string        `gorm:"column:first_name;size:128;not null;default:''" json:"first_name"`
	LastName       string        `gorm:"column:last_name;size:128;not null;default:''" json:"last_name"`
	Email          *string       `gorm:"column:email;size:256" json:"email,omitempty"`
	Phone          *string       `gorm:"column:phone;size:64" json:"phone,omitempty"`
	District       *string       `gorm:"column:district;size:128" json:"district,omitempty"`
	AddressNote    *string       `gorm:"column:address_note" json:"address_note,omitempty"`
	Notes          *string       `gorm:"column:notes" json:"notes,omitempty"`
	StatusOptionID *uuid.UUID    `gorm:"type:uuid;column:status_option_id;index" json:"status_option_id,omitempty"`
	StatusOption   *StatusOption `gorm:"foreignKey:StatusOptionID" json:"status,omitempty"`
	Active         bool          `gorm:"column:active;not null;index:idx_roster_agent_active,priority:2" json:"active"`
	CreatedAt      time.Time     `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (RosterEntry) TableName() string { return "roster_entry" }

func (e *RosterEntry) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

// StatusKey resolves the catalog key, "" when unset or not preloaded.
func (e *RosterEntry) StatusKey() string {
	if e == nil || e.StatusOption == nil {
		return ""
	}
	return e.StatusOption.Key
}
