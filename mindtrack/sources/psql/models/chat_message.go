package models

import (
	"time"

	"gorm.io/datatypes"
)

// ChatMessage is one turn. UserID is always the conversing user, bot replies
// included, so per-user feeds and ownership checks need no join through sessions.
// Classification fields and ReplyToID, the triggering user turn, are only
// ever set on bot replies.
type ChatMessage struct {
	ID              int                         `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID       int                         `json:"session_id" gorm:"not null;index:idx_chat_messages_session_created,priority:1"`
	Session         ChatSession                 `json:"-" gorm:"foreignKey:SessionID;references:ID;constraint:OnDelete:CASCADE"`
	UserID          int                         `json:"user_id" gorm:"not null;index:idx_chat_messages_user_created,priority:1"`
	Message         string                      `json:"message" gorm:"type:text;not null"`
	IsBot           bool                        `json:"is_bot" gorm:"not null;default:false"`
	StressScore     *float64                    `json:"stress_score"`
	PredictedClass  *string                     `json:"predicted_class" gorm:"type:varchar(50)"`
	Recommendations datatypes.JSONSlice[string] `json:"recommendations" gorm:"type:text"`
	ClientMessageID *string                     `json:"client_message_id,omitempty" gorm:"type:varchar(64);index"`
	ReplyToID       *int                        `json:"reply_to_id,omitempty" gorm:"index"`
	CreatedAt       time.Time                   `json:"created_at" gorm:"autoCreateTime;index:idx_chat_messages_session_created,priority:2;index:idx_chat_messages_user_created,priority:2"`
}

func (ChatMessage) TableName() string {
	return "chat_messages"
}

// Classification is the part of a classifier verdict stored on a bot reply.
type Classification struct {
	StressScore     *float64
	PredictedClass  string
	Recommendations []string
}
