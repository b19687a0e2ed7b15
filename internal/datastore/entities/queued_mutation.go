package entities

import "time"

// QueuedMutation is one deferred write persisted for later replay. The
// auto-increment ID doubles as a monotonic insert sequence so two mutations
// enqueued within the same clock tick cannot shadow each other; EnqueuedAt
// remains the primary ordering key for drains.
type QueuedMutation struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Key        string    `gorm:"size:36;not null;uniqueIndex" json:"key"` // UUID
	URL        string    `gorm:"size:2048;not null" json:"url"`
	Method     string    `gorm:"size:10;not null" json:"method"`
	Headers    string    `gorm:"type:text" json:"headers"` // JSON-encoded map
	Body       []byte    `gorm:"type:blob" json:"-"`
	EnqueuedAt time.Time `gorm:"not null;index" json:"enqueued_at"`
	Attempts   int       `gorm:"not null;default:0" json:"attempts"`
}

// TableName returns the table name for GORM.
func (QueuedMutation) TableName() string {
	return "queued_mutations"
}
