package entities

import "time"

// GovAPIResponse caches one government-API lookup (Agrofit, Bioinsumos)
// keyed by (api_source, endpoint) with a per-record TTL in hours. Unlike
// CachedResponse these entries expire individually rather than by
// namespace supersession.
type GovAPIResponse struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	APISource string    `gorm:"size:50;not null;uniqueIndex:idx_gov_cache,priority:1" json:"api_source"`
	Endpoint  string    `gorm:"size:512;not null;uniqueIndex:idx_gov_cache,priority:2" json:"endpoint"`
	Response  string    `gorm:"type:text" json:"response"` // JSON payload
	CachedAt  time.Time `gorm:"not null" json:"cached_at"`
	TTLHours  int       `gorm:"not null;default:24" json:"ttl_hours"`
}

// TableName returns the table name for GORM.
func (GovAPIResponse) TableName() string {
	return "gov_api_cache"
}

// Expired reports whether the entry is past its TTL at the given instant.
func (g *GovAPIResponse) Expired(now time.Time) bool {
	return now.Sub(g.CachedAt) > time.Duration(g.TTLHours)*time.Hour
}
