package models

import "time"

// Answer is a reply to a question.
type Answer struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	Content    string    `gorm:"type:text;not null" json:"content"`
	UserID     uint      `gorm:"index;not null" json:"user_id"`
	QuestionID uint      `gorm:"index;not null" json:"question_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	User       User      `json:"user"`
	Votes      []Vote    `json:"votes"`
}
