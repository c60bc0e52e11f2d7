package dao

import (
	"context"
	"errors"

	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/utils/errs"

	"gorm.io/gorm"
)

type UserDAO struct {
	DB *gorm.DB
}

func NewUserDAO(db *gorm.DB) *UserDAO {
	return &UserDAO{DB: db}
}

func (dao *UserDAO) GetUserByID(ctx context.Context, id int) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "get user")
	}
	return &user, nil
}

func (dao *UserDAO) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := dao.DB.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, errs.Storage(err, "get user by email")
	}
	return &user, nil
}

// CreateUser expects an already hashed password.
func (dao *UserDAO) CreateUser(ctx context.Context, user *models.User) error {
	if err := dao.DB.WithContext(ctx).Create(user).Error; err != nil {
		return errs.Storage(err, "create user")
	}
	return nil
}

// UpdateUser updates user fields in DB based on the values in the struct.
func (dao *UserDAO) UpdateUser(ctx context.Context, user *models.User) error {
	if err := dao.DB.WithContext(ctx).Save(user).Error; err != nil {
		return errs.Storage(err, "update user")
	}
	return nil
}
