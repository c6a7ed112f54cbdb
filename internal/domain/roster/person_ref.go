package roster

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// PersonRef is the cross-agent anchor for a person key. It is created the first
// time a key is seen and never updated afterwards; roster data lives on RosterEntry.
type PersonRef struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	PersonKey string    `gorm:"column:person_key;size:64;not null;uniqueIndex" json:"person_key"`
	FirstName string    `gorm:"column:first_name;size:128;not null" json:"first_name"`
	LastName  string    `gorm:"column:last_name;size:128;not null" json:"last_name"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (PersonRef) TableName() string { return "person_ref" }

func (p *PersonRef) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
