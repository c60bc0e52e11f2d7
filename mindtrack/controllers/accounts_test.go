package controllers

import (
	"context"
	"testing"
	"time"

	"mindtrack/mindtrack/config"
	"mindtrack/mindtrack/middlewares"
	"mindtrack/mindtrack/sources/psql/dao"
	"mindtrack/mindtrack/sources/psql/psqltest"
	"mindtrack/mindtrack/types"
	"mindtrack/mindtrack/utils/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	db := psqltest.NewDB(t)
	cfg := config.Config{JWTSecret: "s3cret", JWTTTL: time.Hour}
	auth := NewAuthController(dao.NewUserDAO(db), cfg)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, types.RegisterRequest{Name: "Sari", Email: "Sari@Example.com", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, "sari@example.com", user.Email)
	assert.NotEqual(t, "rahasia", user.Password)
	id, err := middlewares.ParseToken(cfg.JWTSecret, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, id)

	_, _, err = auth.Register(ctx, types.RegisterRequest{Name: "Dup", Email: "sari@example.com", Password: "rahasia"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, _, err = auth.Register(ctx, types.RegisterRequest{Name: "Short", Email: "short@example.com", Password: "123"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	_, _, err = auth.Register(ctx, types.RegisterRequest{Name: "Bad", Email: "not-an-email", Password: "rahasia"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	logged, _, err := auth.Login(ctx, types.LoginRequest{Email: "sari@example.com", Password: "rahasia"})
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)

	_, _, err = auth.Login(ctx, types.LoginRequest{Email: "sari@example.com", Password: "wrong!"})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
	_, _, err = auth.Login(ctx, types.LoginRequest{Email: "nobody@example.com", Password: "rahasia"})
	assert.ErrorIs(t, err, errs.ErrUnauthenticated)
}

func TestProfileAndPassword(t *testing.T) {
	db := psqltest.NewDB(t)
	users := dao.NewUserDAO(db)
	auth := NewAuthController(users, config.Config{JWTSecret: "x", JWTTTL: time.Hour})
	ctrl := NewUserController(users)
	ctx := context.Background()

	a, _, err := auth.Register(ctx, types.RegisterRequest{Name: "A", Email: "a@example.com", Password: "password"})
	require.NoError(t, err)
	_, _, err = auth.Register(ctx, types.RegisterRequest{Name: "B", Email: "b@example.com", Password: "password"})
	require.NoError(t, err)

	phone := "08123456789"
	updated, err := ctrl.UpdateProfile(ctx, a.ID, types.UpdateProfileRequest{Name: "Ayu", Email: "a@example.com", Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ayu", updated.Name)
	require.NotNil(t, updated.Phone)

	_, err = ctrl.UpdateProfile(ctx, a.ID, types.UpdateProfileRequest{Name: "Ayu", Email: "b@example.com"})
	assert.ErrorIs(t, err, errs.ErrValidation)

	_, err = ctrl.GetProfile(ctx, 9999)
	assert.ErrorIs(t, err, errs.ErrNotFoundOrNotOwned)

	err = ctrl.ChangePassword(ctx, a.ID, types.ChangePasswordRequest{CurrentPassword: "nope", NewPassword: "newpass"})
	assert.ErrorIs(t, err, errs.ErrValidation)
	require.NoError(t, ctrl.ChangePassword(ctx, a.ID, types.ChangePasswordRequest{CurrentPassword: "password", NewPassword: "newpass"}))

	_, _, err = auth.Login(ctx, types.LoginRequest{Email: "a@example.com", Password: "newpass"})
	assert.NoError(t, err)
}

func TestJournalLifecycleAndStats(t *testing.T) {
	db := psqltest.NewDB(t)
	users := dao.NewUserDAO(db)
	auth := NewAuthController(users, config.Config{JWTSecret: "x", JWTTTL: time.Hour})
	ctrl := NewJournalController(dao.NewJournalDAO(db))
	ctx := context.Background()

	owner, _, err := auth.Register(ctx, types.RegisterRequest{Name: "O", Email: "o@example.com", Password: "password"})
	require.NoError(t, err)
	other, _, err := auth.Register(ctx, types.RegisterRequest{Name: "P", Email: "p@example.com", Password: "password"})
	require.NoError(t, err)

	_, err = ctrl.CreateJournal(ctx, owner.ID, types.JournalRequest{Content: "x", MoodEmoji: "🙂", MoodValue: 9})
	assert.ErrorIs(t, err, errs.ErrValidation)

	j1, err := ctrl.CreateJournal(ctx, owner.ID, types.JournalRequest{Content: "good", MoodEmoji: "😀", MoodValue: 5})
	require.NoError(t, err)
	_, err = ctrl.CreateJournal(ctx, owner.ID, types.JournalRequest{Content: "meh", MoodEmoji: "😐", MoodValue: 2})
	require.NoError(t, err)

	_, err = ctrl.GetJournal(ctx, other.ID, j1.ID)
	assert.ErrorIs(t, err, errs.ErrNotFoundOrNotOwned)
	_, err = ctrl.UpdateJournal(ctx, other.ID, j1.ID, types.JournalRequest{Content: "x", MoodEmoji: "🙂", MoodValue: 1})
	assert.ErrorIs(t, err, errs.ErrNotFoundOrNotOwned)

	updated, err := ctrl.UpdateJournal(ctx, owner.ID, j1.ID, types.JournalRequest{Title: "Edited", Content: "great", MoodEmoji: "😀", MoodValue: 4})
	require.NoError(t, err)
	assert.Equal(t, "Edited", updated.Title)

	list, page, err := ctrl.ListJournals(ctx, owner.ID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.EqualValues(t, 2, page.Total)

	stats, err := ctrl.MoodStats(ctx, owner.ID, "week")
	require.NoError(t, err)
	require.Len(t, stats, 1)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), stats[0].Date)
	assert.Equal(t, 2, stats[0].Entries)
	assert.InDelta(t, 3.0, stats[0].AverageMood, 1e-9)

	_, err = ctrl.MoodStats(ctx, owner.ID, "year")
	assert.ErrorIs(t, err, errs.ErrValidation)

	assert.ErrorIs(t, ctrl.DeleteJournal(ctx, other.ID, j1.ID), errs.ErrNotFoundOrNotOwned)
	require.NoError(t, ctrl.DeleteJournal(ctx, owner.ID, j1.ID))
}
