package roster

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusOption is one entry of the response status catalog. Key is the stable
// machine token stored in uploads; Label and Color are presentation only.
type StatusOption struct {
	ID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Key   string    `gorm:"column:key;size:64;not null;uniqueIndex" json:"key"`
	Label string    `gorm:"column:label;size:64;not null" json:"label"`
	Color *string   `gorm:"column:color;size:16" json:"color,omitempty"`
}

func (StatusOption) TableName() string { return "status_option" }

func (s *StatusOption) BeforeCreate(tx *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
