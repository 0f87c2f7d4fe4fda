package models

import (
	"gorm.io/gorm"
)

// SearchHistory records one completed discovery run. Written fire-and-forget
// by the finder controller after the pipeline returns.
type SearchHistory struct {
	gorm.Model

	RunID     string `gorm:"index" json:"run_id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Domain    string `gorm:"index" json:"domain"`

	// Best result
	BestEmail  string `json:"best_email"`
	Confidence string `json:"confidence"` // verified, likely, possible, low
	Score      int    `gorm:"default:0" json:"score"`
	Method     string `json:"method"`

	Provider   string `json:"provider"`
	IsCatchAll bool   `gorm:"default:false" json:"is_catch_all"`
	DurationMS int64  `json:"duration_ms"`
}
