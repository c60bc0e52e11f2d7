package dao

import (
	"context"
	"errors"

	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/utils/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ChatSessionDAO struct {
	DB *gorm.DB
}

func NewChatSessionDAO(db *gorm.DB) *ChatSessionDAO {
	return &ChatSessionDAO{DB: db}
}

// lockOwner serializes session-state changes for one user until the
// transaction ends. SQLite already serializes writers, so it is a no-op there.
func lockOwner(tx *gorm.DB, userID int) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	return tx.Exec("SELECT pg_advisory_xact_lock(?)", int64(userID)).Error
}

func deactivateAll(tx *gorm.DB, userID int) error {
	return tx.Model(&models.ChatSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		UpdateColumn("is_active", false).Error
}

func createActive(tx *gorm.DB, userID int, title string) (*models.ChatSession, error) {
	if err := deactivateAll(tx, userID); err != nil {
		return nil, err
	}
	session := models.ChatSession{UserID: userID, Title: title, IsActive: true}
	if err := tx.Omit(clause.Associations).Create(&session).Error; err != nil {
		return nil, err
	}
	return &session, nil
}

// CreateSession deactivates every other session of the user and inserts the
// new one as active, in a single transaction.
func (dao *ChatSessionDAO) CreateSession(ctx context.Context, userID int, title string) (*models.ChatSession, error) {
	var session *models.ChatSession
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, userID); err != nil {
			return err
		}
		var err error
		session, err = createActive(tx, userID, title)
		return err
	})
	if err != nil {
		return nil, errs.Storage(err, "create session")
	}
	return session, nil
}

// SetActive activates (deactivating the rest) or deactivates one owned session.
// It reports false when the session is absent or owned by someone else.
func (dao *ChatSessionDAO) SetActive(ctx context.Context, sessionID, userID int, active bool) (bool, error) {
	found := false
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, userID); err != nil {
			return err
		}
		var session models.ChatSession
		err := tx.Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		if active {
			if err := deactivateAll(tx, userID); err != nil {
				return err
			}
		}
		return tx.Model(&session).UpdateColumn("is_active", active).Error
	})
	if err != nil {
		return false, errs.Storage(err, "set active session")
	}
	return found, nil
}

// GetActiveOrCreate returns the user's active session, creating one titled
// defaultTitle when there is none. Lookup and creation share one transaction.
func (dao *ChatSessionDAO) GetActiveOrCreate(ctx context.Context, userID int, defaultTitle string) (*models.ChatSession, error) {
	var session *models.ChatSession
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockOwner(tx, userID); err != nil {
			return err
		}
		var active models.ChatSession
		err := tx.Where("user_id = ? AND is_active = ?", userID, true).First(&active).Error
		if err == nil {
			session = &active
			return nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		session, err = createActive(tx, userID, defaultTitle)
		return err
	})
	if err != nil {
		return nil, errs.Storage(err, "get or create active session")
	}
	return session, nil
}

// FindOwned returns nil, nil for sessions that are missing or belong to another user.
func (dao *ChatSessionDAO) FindOwned(ctx context.Context, sessionID, userID int) (*models.ChatSession, error) {
	var session models.ChatSession
	err := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "find session")
	}
	return &session, nil
}

func hasMessages(db *gorm.DB) *gorm.DB {
	return db.Where("EXISTS (SELECT 1 FROM chat_messages WHERE chat_messages.session_id = chat_sessions.id)")
}

// ListOwned pages through the user's sessions that hold at least one message,
// most recently active first, and also returns how many such sessions exist.
func (dao *ChatSessionDAO) ListOwned(ctx context.Context, userID, page, pageSize int) ([]models.ChatSession, int64, error) {
	base := func() *gorm.DB {
		return hasMessages(dao.DB.WithContext(ctx).Model(&models.ChatSession{}).Where("user_id = ?", userID))
	}
	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, errs.Storage(err, "count sessions")
	}
	sessions := []models.ChatSession{}
	err := base().
		Order("updated_at DESC").
		Order("id DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&sessions).Error
	if err != nil {
		return nil, 0, errs.Storage(err, "list sessions")
	}
	return sessions, total, nil
}

// Delete removes an owned session and its messages. It reports false when
// the session is absent or owned by someone else.
func (dao *ChatSessionDAO) Delete(ctx context.Context, sessionID, userID int) (bool, error) {
	deleted := false
	err := dao.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", sessionID, userID).Delete(&models.ChatSession{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		return tx.Where("session_id = ?", sessionID).Delete(&models.ChatMessage{}).Error
	})
	if err != nil {
		return false, errs.Storage(err, "delete session")
	}
	return deleted, nil
}
