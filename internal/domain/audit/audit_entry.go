package audit

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	EntityUploadBatch = "UploadBatch"
	EntityAgent       = "Agent"
	EntityRosterEntry = "RosterEntry"

	ActionApply         = "APPLY"
	ActionApplySelected = "APPLY_SELECTED"
	ActionReject        = "REJECT"
	ActionUpdate        = "UPDATE"
	ActionDeactivate    = "DEACTIVATE"
	ActionDelete        = "DELETE"
)

// AuditEntry is append-only; nothing in the service layer updates or deletes it.
type AuditEntry struct {
	ID       uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Entity   string         `gorm:"column:entity;size:64;not null;index:idx_audit_entity,priority:1" json:"entity"`
	EntityID uuid.UUID      `gorm:"type:uuid;column:entity_id;not null;index:idx_audit_entity,priority:2" json:"entity_id"`
	Action   string         `gorm:"column:action;size:32;not null" json:"action"`
	Before   datatypes.JSON `gorm:"column:before_json" json:"before,omitempty"`
	After    datatypes.JSON `gorm:"column:after_json" json:"after,omitempty"`
	Actor    *string        `gorm:"column:actor;size:128" json:"actor,omitempty"`
	At       time.Time      `gorm:"column:at;not null;autoCreateTime;index" json:"at"`
}

func (AuditEntry) TableName() string { return "audit_log" }

func (a *AuditEntry) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
