package dao

import (
	"context"
	"errors"

	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/utils/errs"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatMessageDAO struct {
	DB *gorm.DB
}

func NewChatMessageDAO(db *gorm.DB) *ChatMessageDAO {
	return &ChatMessageDAO{DB: db}
}

type AppendParams struct {
	SessionID int
	// UserID is the conversing user, for bot replies too.
	UserID int
	Body   string
	IsBot  bool
	// Classification may only be set on bot replies.
	Classification  *models.Classification
	ClientMessageID string
	// ReplyToID links a bot reply to the user turn that triggered it.
	ReplyToID int
}

// Append inserts a message and bumps the parent session's updated_at in the
// same transaction. A vanished session rolls the insert back.
func (dao *ChatMessageDAO) Append(ctx context.Context, p AppendParams) (*models.ChatMessage, error) {
	if !p.IsBot && (p.Classification != nil || p.ReplyToID != 0) {
		return nil, errs.Validation("user messages carry no classification or reply link")
	}
	msg := models.ChatMessage{
		SessionID: p.SessionID,
		UserID:    p.UserID,
		Message:   p.Body,
		IsBot:     p.IsBot,
	}
	if c := p.Classification; c != nil {
		class := c.PredictedClass
		msg.StressScore = c.StressScore
		msg.PredictedClass = &class
		msg.Recommendations = datatypes.NewJSONSlice(append([]string{}, c.Recommendations...))
	}
	if p.ClientMessageID != "" {
		key := p.ClientMessageID
		msg.ClientMessageID = &key
	}
	if p.ReplyToID != 0 {
		replyTo := p.ReplyToID
		msg.ReplyToID = &replyTo
	}

	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Create(&msg).Error; err != nil {
			return err
		}
		res := tx.Model(&models.ChatSession{}).
			Where("id = ?", p.SessionID).
			UpdateColumn("updated_at", msg.CreatedAt)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return errs.NotFound()
		}
		return nil
	})
	if err != nil {
		return nil, errs.Storage(err, "append message")
	}
	return &msg, nil
}

func ownedMessages(db *gorm.DB, sessionID, userID int) *gorm.DB {
	return db.Model(&models.ChatMessage{}).
		Select("chat_messages.*").
		Joins("JOIN chat_sessions ON chat_sessions.id = chat_messages.session_id").
		Where("chat_messages.session_id = ? AND chat_sessions.user_id = ?", sessionID, userID)
}

// ListForSession pages through a session's messages oldest first, ties broken
// by insertion order. A session the user does not own yields an empty page.
func (dao *ChatMessageDAO) ListForSession(ctx context.Context, sessionID, userID, page, pageSize int) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	err := ownedMessages(dao.DB.WithContext(ctx), sessionID, userID).
		Order("chat_messages.created_at ASC").
		Order("chat_messages.id ASC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&msgs).Error
	if err != nil {
		return nil, errs.Storage(err, "list session messages")
	}
	return msgs, nil
}

// ListRecentForUser returns the user's latest messages across all sessions, newest first.
func (dao *ChatMessageDAO) ListRecentForUser(ctx context.Context, userID, limit int) ([]models.ChatMessage, error) {
	msgs := []models.ChatMessage{}
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&msgs).Error
	if err != nil {
		return nil, errs.Storage(err, "list recent messages")
	}
	return msgs, nil
}

// FindByClientMessageID looks up a user turn by its client-supplied key.
func (dao *ChatMessageDAO) FindByClientMessageID(ctx context.Context, userID int, key string) (*models.ChatMessage, error) {
	var msg models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("user_id = ? AND client_message_id = ? AND is_bot = ?", userID, key, false).
		Order("id ASC").
		First(&msg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "find message by client id")
	}
	return &msg, nil
}

// FindReplyTo returns the bot reply linked to the given user turn, wherever
// it sits in the session, or nil when the reply was never persisted.
func (dao *ChatMessageDAO) FindReplyTo(ctx context.Context, userMsg *models.ChatMessage) (*models.ChatMessage, error) {
	var reply models.ChatMessage
	err := dao.DB.WithContext(ctx).
		Where("session_id = ? AND reply_to_id = ? AND is_bot = ?", userMsg.SessionID, userMsg.ID, true).
		Order("id ASC").
		First(&reply).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "find reply")
	}
	return &reply, nil
}

// IsLatestInSession reports whether nothing was stored in the message's
// session after it.
func (dao *ChatMessageDAO) IsLatestInSession(ctx context.Context, msg *models.ChatMessage) (bool, error) {
	var later int64
	err := dao.DB.WithContext(ctx).
		Model(&models.ChatMessage{}).
		Where("session_id = ? AND id > ?", msg.SessionID, msg.ID).
		Count(&later).Error
	if err != nil {
		return false, errs.Storage(err, "check latest message")
	}
	return later == 0, nil
}
