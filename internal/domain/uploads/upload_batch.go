package uploads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BatchStatus string

const (
	BatchStaged   BatchStatus = "STAGED"
	BatchApplied  BatchStatus = "APPLIED"
	BatchRejected BatchStatus = "REJECTED"
)

// Terminal reports whether no further apply or reject is allowed.
func (s BatchStatus) Terminal() bool {
	return s == BatchApplied || s == BatchRejected
}

// UploadBatch is one upload attempt for one agent. It is created STAGED and
// leaves that state at most once.
type UploadBatch struct {
	ID               uuid.UUID   `gorm:"type:uuid;primaryKey" json:"id"`
	AgentID          uuid.UUID   `gorm:"type:uuid;not null;index" json:"agent_id"`
	OriginalFilename string      `gorm:"column:original_filename;size:512;not null;default:''" json:"original_filename"`
	RowCount         int         `gorm:"column:row_count;not null;default:0" json:"row_count"`
	Status           BatchStatus `gorm:"column:status;size:16;not null;index" json:"status"`
	CreatedBy        *string     `gorm:"column:created_by;size:128" json:"created_by,omitempty"`
	CreatedAt        time.Time   `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time   `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

func (UploadBatch) TableName() string { return "upload_batch" }

func (b *UploadBatch) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	if b.Status == "" {
		b.Status = BatchStaged
	}
	return nil
}
