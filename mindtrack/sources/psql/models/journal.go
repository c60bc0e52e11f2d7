package models

import "time"

type Journal struct {
	ID        int       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID    int       `json:"user_id" gorm:"not null;index"`
	User      User      `json:"-" gorm:"foreignKey:UserID;references:ID;constraint:OnDelete:CASCADE"`
	Title     string    `json:"title" gorm:"type:varchar(255);default:''"`
	Content   string    `json:"content" gorm:"type:text;not null"`
	MoodEmoji string    `json:"mood_emoji" gorm:"type:varchar(10);not null"`
	MoodValue int       `json:"mood_value" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime;index"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

func (Journal) TableName() string {
	return "journals"
}
