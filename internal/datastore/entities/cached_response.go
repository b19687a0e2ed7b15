package entities

import "time"

// CachedResponse is a stored response snapshot, keyed by (namespace, method,
// URL). Records are always replaced wholesale on a fresh successful fetch,
// never mutated in place. Namespace membership is the staleness boundary;
// there is no per-record TTL.
type CachedResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Namespace string    `gorm:"size:100;not null;uniqueIndex:idx_cache_key,priority:1" json:"namespace"`
	Method    string    `gorm:"size:10;not null;uniqueIndex:idx_cache_key,priority:2" json:"method"`
	URL       string    `gorm:"size:512;not null;uniqueIndex:idx_cache_key,priority:3" json:"url"`
	Status    int       `gorm:"not null" json:"status"`
	Headers   string    `gorm:"type:text" json:"headers"` // JSON-encoded http.Header
	Body      []byte    `gorm:"type:blob" json:"-"`
	StoredAt  time.Time `gorm:"autoCreateTime" json:"stored_at"`
}

// TableName returns the table name for GORM.
func (CachedResponse) TableName() string {
	return "cached_responses"
}
