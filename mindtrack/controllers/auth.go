package controllers

import (
	"context"
	"net/mail"
	"strings"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/middlewares"
	"mindtrack/mindtrack/sources/psql/dao"
	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/types"
	"mindtrack/mindtrack/utils/errs"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type AuthController struct {
	userDAO *dao.UserDAO
	cfg     config.Config
}

func NewAuthController(userDAO *dao.UserDAO, cfg config.Config) *AuthController {
	return &AuthController{
		userDAO: userDAO,
		cfg:     cfg,
	}
}

func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}

func (c *AuthController) Register(ctx context.Context, req types.RegisterRequest) (*models.User, string, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	if req.Name == "" || req.Email == "" || req.Password == "" {
		return nil, "", errs.Validation("Nama, email, dan password harus diisi!")
	}
	if !validEmail(req.Email) {
		return nil, "", errs.Validation("Format email tidak valid!")
	}
	if len(req.Password) < minPasswordLen {
		return nil, "", errs.Validation("Password minimal 6 karakter!")
	}
	existing, err := c.userDAO.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", errs.Validation("Email sudah terdaftar!")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	user := &models.User{Name: req.Name, Email: req.Email, Phone: req.Phone, Password: string(hash)}
	if err := c.userDAO.CreateUser(ctx, user); err != nil {
		return nil, "", err
	}
	token, err := middlewares.IssueToken(c.cfg.JWTSecret, user.ID, c.cfg.JWTTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login returns a signed token. Unknown emails and wrong passwords get the same error.
func (c *AuthController) Login(ctx context.Context, req types.LoginRequest) (*models.User, string, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		return nil, "", errs.Validation("Email dan password harus diisi!")
	}
	user, err := c.userDAO.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if user == nil || bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		return nil, "", errs.Unauthenticated("invalid credentials")
	}
	token, err := middlewares.IssueToken(c.cfg.JWTSecret, user.ID, c.cfg.JWTTTL)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}
