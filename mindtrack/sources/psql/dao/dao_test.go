package dao

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/sources/psql/psqltest"
	"mindtrack/mindtrack/utils/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newUser(t *testing.T, db *gorm.DB, email string) int {
	t.Helper()
	user := &models.User{Name: "Test User", Email: email, Password: "hashed"}
	require.NoError(t, NewUserDAO(db).CreateUser(context.Background(), user))
	return user.ID
}

func activeIDs(t *testing.T, db *gorm.DB, userID int) []int {
	t.Helper()
	var ids []int
	require.NoError(t, db.Model(&models.ChatSession{}).
		Where("user_id = ? AND is_active = ?", userID, true).
		Pluck("id", &ids).Error)
	return ids
}

func TestCreateSessionDeactivatesPrevious(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	user := newUser(t, db, "a@example.com")

	s1, err := sessions.CreateSession(ctx, user, "First")
	require.NoError(t, err)
	assert.True(t, s1.IsActive)

	s2, err := sessions.CreateSession(ctx, user, "Second")
	require.NoError(t, err)
	assert.Equal(t, []int{s2.ID}, activeIDs(t, db, user))

	found, err := sessions.SetActive(ctx, s1.ID, user, true)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []int{s1.ID}, activeIDs(t, db, user))

	found, err = sessions.SetActive(ctx, s1.ID, user, false)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Empty(t, activeIDs(t, db, user))
}

func TestCreateSessionConcurrentKeepsOneActive(t *testing.T) {
	db := psqltest.NewDB(t)
	sessions := NewChatSessionDAO(db)
	user := newUser(t, db, "race@example.com")

	var wg sync.WaitGroup
	errCh := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := sessions.CreateSession(context.Background(), user, fmt.Sprintf("Chat %d", i))
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}

	var total int64
	require.NoError(t, db.Model(&models.ChatSession{}).Where("user_id = ?", user).Count(&total).Error)
	assert.EqualValues(t, 8, total)
	assert.Len(t, activeIDs(t, db, user), 1)
}

func TestSessionsAreScopedToOwner(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	messages := NewChatMessageDAO(db)
	owner := newUser(t, db, "owner@example.com")
	other := newUser(t, db, "other@example.com")

	s, err := sessions.CreateSession(ctx, owner, "Mine")
	require.NoError(t, err)
	_, err = messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: owner, Body: "hi"})
	require.NoError(t, err)

	got, err := sessions.FindOwned(ctx, s.ID, other)
	require.NoError(t, err)
	assert.Nil(t, got)

	found, err := sessions.SetActive(ctx, s.ID, other, true)
	require.NoError(t, err)
	assert.False(t, found)

	deleted, err := sessions.Delete(ctx, s.ID, other)
	require.NoError(t, err)
	assert.False(t, deleted)

	got, err = sessions.FindOwned(ctx, s.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.IsActive)

	msgs, err := messages.ListForSession(ctx, s.ID, owner, 1, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	msgs, err = messages.ListForSession(ctx, s.ID, other, 1, 50)
	require.NoError(t, err)
	assert.Empty(t, msgs)
}

func TestDeleteRemovesMessages(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	messages := NewChatMessageDAO(db)
	user := newUser(t, db, "del@example.com")

	s, err := sessions.CreateSession(ctx, user, "Doomed")
	require.NoError(t, err)
	for _, body := range []string{"one", "two"} {
		_, err := messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: body})
		require.NoError(t, err)
	}

	deleted, err := sessions.Delete(ctx, s.ID, user)
	require.NoError(t, err)
	assert.True(t, deleted)

	var left int64
	require.NoError(t, db.Model(&models.ChatMessage{}).Where("session_id = ?", s.ID).Count(&left).Error)
	assert.Zero(t, left)

	deleted, err = sessions.Delete(ctx, s.ID, user)
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestListOwnedSkipsEmptySessions(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	messages := NewChatMessageDAO(db)
	user := newUser(t, db, "list@example.com")

	older, err := sessions.CreateSession(ctx, user, "Older")
	require.NoError(t, err)
	newer, err := sessions.CreateSession(ctx, user, "Newer")
	require.NoError(t, err)
	_, err = sessions.CreateSession(ctx, user, "Empty")
	require.NoError(t, err)

	_, err = messages.Append(ctx, AppendParams{SessionID: newer.ID, UserID: user, Body: "first"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	_, err = messages.Append(ctx, AppendParams{SessionID: older.ID, UserID: user, Body: "later"})
	require.NoError(t, err)

	list, total, err := sessions.ListOwned(ctx, user, 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 2)
	assert.Equal(t, older.ID, list[0].ID)
	assert.Equal(t, newer.ID, list[1].ID)

	list, total, err = sessions.ListOwned(ctx, user, 2, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	require.Len(t, list, 1)
	assert.Equal(t, newer.ID, list[0].ID)
}

func TestGetActiveOrCreate(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	user := newUser(t, db, "auto@example.com")

	created, err := sessions.GetActiveOrCreate(ctx, user, "Chat 01/02/2026")
	require.NoError(t, err)
	assert.Equal(t, "Chat 01/02/2026", created.Title)
	assert.True(t, created.IsActive)

	again, err := sessions.GetActiveOrCreate(ctx, user, "ignored")
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
}

func TestAppendStoresClassification(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	messages := NewChatMessageDAO(db)
	user := newUser(t, db, "bot@example.com")

	s, err := sessions.CreateSession(ctx, user, "Chat")
	require.NoError(t, err)
	score := 0.82
	_, err = messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "I feel tired"})
	require.NoError(t, err)
	_, err = messages.Append(ctx, AppendParams{
		SessionID: s.ID,
		UserID:    user,
		Body:      "Take a break",
		IsBot:     true,
		Classification: &models.Classification{
			StressScore:     &score,
			PredictedClass:  "stress",
			Recommendations: []string{"A", "B", "C"},
		},
	})
	require.NoError(t, err)

	msgs, err := messages.ListForSession(ctx, s.ID, user, 1, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)

	assert.False(t, msgs[0].IsBot)
	assert.Nil(t, msgs[0].StressScore)
	assert.Nil(t, msgs[0].PredictedClass)
	assert.Empty(t, msgs[0].Recommendations)

	bot := msgs[1]
	assert.True(t, bot.IsBot)
	require.NotNil(t, bot.StressScore)
	assert.InDelta(t, 0.82, *bot.StressScore, 1e-9)
	require.NotNil(t, bot.PredictedClass)
	assert.Equal(t, "stress", *bot.PredictedClass)
	assert.Equal(t, []string{"A", "B", "C"}, []string(bot.Recommendations))
	assert.Equal(t, user, bot.UserID)
}

func TestAppendRejectsClassifiedUserMessage(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	user := newUser(t, db, "bad@example.com")
	s, err := NewChatSessionDAO(db).CreateSession(ctx, user, "Chat")
	require.NoError(t, err)

	_, err = NewChatMessageDAO(db).Append(ctx, AppendParams{
		SessionID:      s.ID,
		UserID:         user,
		Body:           "hello",
		Classification: &models.Classification{PredictedClass: "normal"},
	})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestAppendToMissingSession(t *testing.T) {
	db := psqltest.NewDB(t)
	user := newUser(t, db, "ghost@example.com")

	_, err := NewChatMessageDAO(db).Append(context.Background(), AppendParams{SessionID: 9999, UserID: user, Body: "hello"})
	assert.ErrorIs(t, err, errs.ErrNotFoundOrNotOwned)

	var count int64
	require.NoError(t, db.Model(&models.ChatMessage{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAppendBumpsSessionActivity(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	user := newUser(t, db, "bump@example.com")

	s, err := sessions.CreateSession(ctx, user, "Chat")
	require.NoError(t, err)
	before := s.UpdatedAt

	time.Sleep(5 * time.Millisecond)
	_, err = NewChatMessageDAO(db).Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "ping"})
	require.NoError(t, err)

	reloaded, err := sessions.FindOwned(ctx, s.ID, user)
	require.NoError(t, err)
	require.NotNil(t, reloaded)
	assert.True(t, reloaded.UpdatedAt.After(before))

	// toggling activation is a metadata edit and leaves activity time alone
	_, err = sessions.SetActive(ctx, s.ID, user, false)
	require.NoError(t, err)
	again, err := sessions.FindOwned(ctx, s.ID, user)
	require.NoError(t, err)
	assert.True(t, again.UpdatedAt.Equal(reloaded.UpdatedAt))
}

func TestMessagesListInInsertionOrder(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	user := newUser(t, db, "order@example.com")
	s, err := NewChatSessionDAO(db).CreateSession(ctx, user, "Chat")
	require.NoError(t, err)
	messages := NewChatMessageDAO(db)

	for i := 0; i < 6; i++ {
		_, err := messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: fmt.Sprintf("m%d", i), IsBot: i%2 == 1})
		require.NoError(t, err)
	}

	msgs, err := messages.ListForSession(ctx, s.ID, user, 1, 50)
	require.NoError(t, err)
	require.Len(t, msgs, 6)
	for i := 1; i < len(msgs); i++ {
		assert.False(t, msgs[i].CreatedAt.Before(msgs[i-1].CreatedAt))
		assert.Equal(t, fmt.Sprintf("m%d", i), msgs[i].Message)
	}

	page, err := messages.ListForSession(ctx, s.ID, user, 2, 4)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "m4", page[0].Message)

	recent, err := messages.ListRecentForUser(ctx, user, 3)
	require.NoError(t, err)
	require.Len(t, recent, 3)
	assert.Equal(t, "m5", recent[0].Message)
	assert.Equal(t, "m3", recent[2].Message)
}

func TestFindByClientMessageIDAndReply(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	user := newUser(t, db, "idem@example.com")
	other := newUser(t, db, "idem2@example.com")
	s, err := NewChatSessionDAO(db).CreateSession(ctx, user, "Chat")
	require.NoError(t, err)
	messages := NewChatMessageDAO(db)
	key := "3f1c1c4e-8d7e-4c51-a0a4-4c5d2f7c9b10"

	userMsg, err := messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "hello", ClientMessageID: key})
	require.NoError(t, err)

	reply, err := messages.FindReplyTo(ctx, userMsg)
	require.NoError(t, err)
	assert.Nil(t, reply)

	botMsg, err := messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "hi there", IsBot: true, ReplyToID: userMsg.ID,
		Classification: &models.Classification{PredictedClass: "normal"}})
	require.NoError(t, err)

	found, err := messages.FindByClientMessageID(ctx, user, key)
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, userMsg.ID, found.ID)

	reply, err = messages.FindReplyTo(ctx, found)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, botMsg.ID, reply.ID)

	found, err = messages.FindByClientMessageID(ctx, other, key)
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestFindReplyToAcrossInterleavedTurns(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	user := newUser(t, db, "tabs@example.com")
	s, err := NewChatSessionDAO(db).CreateSession(ctx, user, "Chat")
	require.NoError(t, err)
	messages := NewChatMessageDAO(db)

	first, err := messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "from laptop"})
	require.NoError(t, err)
	second, err := messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "from phone"})
	require.NoError(t, err)

	latest, err := messages.IsLatestInSession(ctx, first)
	require.NoError(t, err)
	assert.False(t, latest)
	latest, err = messages.IsLatestInSession(ctx, second)
	require.NoError(t, err)
	assert.True(t, latest)

	firstReply, err := messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "reply one", IsBot: true, ReplyToID: first.ID})
	require.NoError(t, err)

	reply, err := messages.FindReplyTo(ctx, first)
	require.NoError(t, err)
	require.NotNil(t, reply)
	assert.Equal(t, firstReply.ID, reply.ID)

	reply, err = messages.FindReplyTo(ctx, second)
	require.NoError(t, err)
	assert.Nil(t, reply)

	_, err = messages.Append(ctx, AppendParams{SessionID: s.ID, UserID: user, Body: "hi", ReplyToID: first.ID})
	assert.ErrorIs(t, err, errs.ErrValidation)
}

func TestMixedActivationKeepsOneActive(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	sessions := NewChatSessionDAO(db)
	user := newUser(t, db, "mixed@example.com")

	var ids []int
	for i := 0; i < 4; i++ {
		s, err := sessions.CreateSession(ctx, user, fmt.Sprintf("Seed %d", i))
		require.NoError(t, err)
		ids = append(ids, s.ID)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			var err error
			switch i % 3 {
			case 0:
				_, err = sessions.CreateSession(ctx, user, fmt.Sprintf("Chat %d", i))
			case 1:
				_, err = sessions.SetActive(ctx, ids[i%len(ids)], user, true)
			default:
				_, err = sessions.SetActive(ctx, ids[i%len(ids)], user, false)
			}
			errCh <- err
		}(i)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, len(activeIDs(t, db, user)), 1)
}

func TestJournalDAO(t *testing.T) {
	db := psqltest.NewDB(t)
	ctx := context.Background()
	journals := NewJournalDAO(db)
	user := newUser(t, db, "journal@example.com")
	other := newUser(t, db, "journal2@example.com")

	j := &models.Journal{UserID: user, Title: "Day", Content: "Calm day", MoodEmoji: "🙂", MoodValue: 4}
	require.NoError(t, journals.CreateJournal(ctx, j))

	got, err := journals.GetOwned(ctx, j.ID, other)
	require.NoError(t, err)
	assert.Nil(t, got)

	ok, err := journals.UpdateOwned(ctx, j.ID, other, map[string]interface{}{"content": "hijack"})
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = journals.UpdateOwned(ctx, j.ID, user, map[string]interface{}{"mood_value": 2})
	require.NoError(t, err)
	assert.True(t, ok)

	list, total, err := journals.ListByUser(ctx, user, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].MoodValue)

	since, err := journals.ListSince(ctx, user, time.Now().UTC().Add(-time.Hour))
	require.NoError(t, err)
	assert.Len(t, since, 1)

	ok, err = journals.DeleteOwned(ctx, j.ID, other)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = journals.DeleteOwned(ctx, j.ID, user)
	require.NoError(t, err)
	assert.True(t, ok)
}
