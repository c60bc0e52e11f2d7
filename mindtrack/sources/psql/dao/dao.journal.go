package dao

import (
	"context"
	"errors"
	"time"

	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/utils/errs"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JournalDAO struct {
	DB *gorm.DB
}

func NewJournalDAO(db *gorm.DB) *JournalDAO {
	return &JournalDAO{DB: db}
}

func (dao *JournalDAO) CreateJournal(ctx context.Context, journal *models.Journal) error {
	if err := dao.DB.WithContext(ctx).Omit(clause.Associations).Create(journal).Error; err != nil {
		return errs.Storage(err, "create journal")
	}
	return nil
}

// GetOwned returns nil, nil when the journal is missing or belongs to another user.
func (dao *JournalDAO) GetOwned(ctx context.Context, id, userID int) (*models.Journal, error) {
	var journal models.Journal
	err := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&journal).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "get journal")
	}
	return &journal, nil
}

func (dao *JournalDAO) ListByUser(ctx context.Context, userID, page, limit int) ([]models.Journal, int64, error) {
	var total int64
	if err := dao.DB.WithContext(ctx).Model(&models.Journal{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, errs.Storage(err, "count journals")
	}
	journals := []models.Journal{}
	err := dao.DB.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&journals).Error
	if err != nil {
		return nil, 0, errs.Storage(err, "list journals")
	}
	return journals, total, nil
}

// UpdateOwned applies updates to an owned journal and reports whether it matched.
func (dao *JournalDAO) UpdateOwned(ctx context.Context, id, userID int, updates map[string]interface{}) (bool, error) {
	res := dao.DB.WithContext(ctx).Model(&models.Journal{}).Where("id = ? AND user_id = ?", id, userID).Updates(updates)
	if res.Error != nil {
		return false, errs.Storage(res.Error, "update journal")
	}
	return res.RowsAffected > 0, nil
}

func (dao *JournalDAO) DeleteOwned(ctx context.Context, id, userID int) (bool, error) {
	res := dao.DB.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).Delete(&models.Journal{})
	if res.Error != nil {
		return false, errs.Storage(res.Error, "delete journal")
	}
	return res.RowsAffected > 0, nil
}

// ListSince returns the user's journals created at or after since, oldest first.
func (dao *JournalDAO) ListSince(ctx context.Context, userID int, since time.Time) ([]models.Journal, error) {
	journals := []models.Journal{}
	err := dao.DB.WithContext(ctx).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Order("created_at ASC").
		Find(&journals).Error
	if err != nil {
		return nil, errs.Storage(err, "list journals since")
	}
	return journals, nil
}
