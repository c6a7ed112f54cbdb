package uploads

import (
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StagingRow holds one accepted upload row. StatusKey stays a raw string because
// the catalog entry may not exist yet when the row is staged.
type StagingRow struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID     uuid.UUID `gorm:"type:uuid;not null;index:idx_staging_batch_key,priority:1" json:"batch_id"`
	RowIndex    int       `gorm:"column:row_index;not null;default:0" json:"row_index"`
	PersonKey   string    `gorm:"column:person_key;size:64;not null;index:idx_staging_batch_key,priority:2" json:"person_key"`
	FirstName   string    `gorm:"column:first_name;size:128;not null" json:"first_name"`
	LastName    string    `gorm:"column:last_name;size:128;not null" json:"last_name"`
	Email       *string   `gorm:"column:email;size:256" json:"email,omitempty"`
	Phone       *string   `gorm:"column:phone;size:64" json:"phone,omitempty"`
	District    *string   `gorm:"column:district;size:128" json:"district,omitempty"`
	AddressNote *string   `gorm:"column:address_note" json:"address_note,omitempty"`
	Notes       *string   `gorm:"column:notes" json:"notes,omitempty"`
	StatusKey   *string   `gorm:"column:status_key;size:64" json:"status_key,omitempty"`
}

func (StagingRow) TableName() string { return "upload_row_staging" }

func (r *StagingRow) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
