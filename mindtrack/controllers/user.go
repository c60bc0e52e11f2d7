package controllers

import (
	"context"
	"strings"

	"mindtrack/mindtrack/sources/psql/dao"
	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/types"
	"mindtrack/mindtrack/utils/errs"

	"golang.org/x/crypto/bcrypt"
)

type UserController struct {
	dao *dao.UserDAO
}

func NewUserController(dao *dao.UserDAO) *UserController {
	return &UserController{dao: dao}
}

func (c *UserController) GetProfile(ctx context.Context, id int) (*models.User, error) {
	user, err := c.dao.GetUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errs.NotFound()
	}
	return user, nil
}

func (c *UserController) UpdateProfile(ctx context.Context, id int, req types.UpdateProfileRequest) (*models.User, error) {
	name := strings.TrimSpace(req.Name)
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if name == "" || email == "" {
		return nil, errs.Validation("Nama dan email harus diisi!")
	}
	if !validEmail(email) {
		return nil, errs.Validation("Format email tidak valid!")
	}
	user, err := c.GetProfile(ctx, id)
	if err != nil {
		return nil, err
	}
	if email != user.Email {
		taken, err := c.dao.GetUserByEmail(ctx, email)
		if err != nil {
			return nil, err
		}
		if taken != nil {
			return nil, errs.Validation("Email sudah digunakan!")
		}
	}
	user.Name = name
	user.Email = email
	user.Phone = req.Phone
	if err := c.dao.UpdateUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (c *UserController) ChangePassword(ctx context.Context, id int, req types.ChangePasswordRequest) error {
	if req.CurrentPassword == "" || req.NewPassword == "" {
		return errs.Validation("Password saat ini dan password baru harus diisi!")
	}
	if len(req.NewPassword) < minPasswordLen {
		return errs.Validation("Password baru minimal 6 karakter!")
	}
	user, err := c.GetProfile(ctx, id)
	if err != nil {
		return err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.CurrentPassword)) != nil {
		return errs.Validation("Password saat ini tidak benar!")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	user.Password = string(hash)
	return c.dao.UpdateUser(ctx, user)
}
