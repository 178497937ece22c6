package models

import "time"

// Vote is a single fixed-value endorsement of one answer by one user.
// The composite unique index makes duplicate votes fail at the storage
// layer even when two requests race past the application pre-check.
type Vote struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Value     int       `gorm:"not null;default:1" json:"value"`
	UserID    uint      `gorm:"not null;uniqueIndex:idx_votes_user_answer" json:"user_id"`
	AnswerID  uint      `gorm:"not null;uniqueIndex:idx_votes_user_answer" json:"answer_id"`
	CreatedAt time.Time `json:"created_at"`
}
