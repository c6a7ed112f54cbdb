package uploads

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// BatchDiff caches a computed diff for a batch. Apply prefers it but must
// recompute when it is missing.
type BatchDiff struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BatchID      uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"batch_id"`
	AddedCount   int            `gorm:"column:added_count;not null;default:0" json:"added_count"`
	RemovedCount int            `gorm:"column:removed_count;not null;default:0" json:"removed_count"`
	ChangedCount int            `gorm:"column:changed_count;not null;default:0" json:"changed_count"`
	Payload      datatypes.JSON `gorm:"column:payload" json:"payload"`
	CreatedAt    time.Time      `gorm:"not null;autoCreateTime" json:"created_at"`
}

func (BatchDiff) TableName() string { return "batch_diff" }

func (d *BatchDiff) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}
