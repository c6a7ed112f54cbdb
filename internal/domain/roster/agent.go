package roster

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Agent owns an independent roster. BusinessKey is the registry number the
// agent is known by outside the system.
type Agent struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BusinessKey string    `gorm:"column:business_key;size:64;not null;uniqueIndex" json:"business_key"`
	FirstName   string    `gorm:"column:first_name;size:128;not null" json:"first_name"`
	LastName    string    `gorm:"column:last_name;size:128;not null" json:"last_name"`
	CreatedAt   time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (Agent) TableName() string { return "agent" }

func (a *Agent) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}

func (a *Agent) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}
