package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"mindtrack/mindtrack/services/classifier"
	"mindtrack/mindtrack/services/composer"
	"mindtrack/mindtrack/sources/psql/dao"
	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/types"
	"mindtrack/mindtrack/utils/errs"
	"mindtrack/mindtrack/utils/logging"
	"mindtrack/mindtrack/utils/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// ErrExportDisabled is returned by ExportSession when no object storage is configured.
var ErrExportDisabled = errors.New("transcript export is not configured")

type SessionStore interface {
	CreateSession(ctx context.Context, userID int, title string) (*models.ChatSession, error)
	SetActive(ctx context.Context, sessionID, userID int, active bool) (bool, error)
	GetActiveOrCreate(ctx context.Context, userID int, defaultTitle string) (*models.ChatSession, error)
	FindOwned(ctx context.Context, sessionID, userID int) (*models.ChatSession, error)
	ListOwned(ctx context.Context, userID, page, pageSize int) ([]models.ChatSession, int64, error)
	Delete(ctx context.Context, sessionID, userID int) (bool, error)
}

type MessageStore interface {
	Append(ctx context.Context, p dao.AppendParams) (*models.ChatMessage, error)
	ListForSession(ctx context.Context, sessionID, userID, page, pageSize int) ([]models.ChatMessage, error)
	ListRecentForUser(ctx context.Context, userID, limit int) ([]models.ChatMessage, error)
	FindByClientMessageID(ctx context.Context, userID int, key string) (*models.ChatMessage, error)
	FindReplyTo(ctx context.Context, userMsg *models.ChatMessage) (*models.ChatMessage, error)
	IsLatestInSession(ctx context.Context, msg *models.ChatMessage) (bool, error)
}

type Classifier interface {
	Predict(ctx context.Context, text string) classifier.Result
}

type Composer interface {
	Compose(res classifier.Result) composer.Reply
}

type TranscriptStore interface {
	UploadTranscript(ctx context.Context, key string, data []byte) error
}

// SendResult is one completed turn pair. BotMessage is nil when the reply
// could not be stored; Reply and Classification are still filled in.
type SendResult struct {
	SessionID      int                 `json:"session_id"`
	Session        *models.ChatSession `json:"session"`
	UserMessage    *models.ChatMessage `json:"user_message"`
	BotMessage     *models.ChatMessage `json:"bot_message"`
	Reply          composer.Reply      `json:"reply"`
	Classification classifier.Result   `json:"classification"`
	Replayed       bool                `json:"replayed,omitempty"`
}

type ChatController struct {
	sessions    SessionStore
	messages    MessageStore
	classifier  Classifier
	composer    Composer
	transcripts TranscriptStore
	now         func() time.Time
}

func NewChatController(sessions SessionStore, messages MessageStore, cls Classifier, comp Composer) *ChatController {
	return &ChatController{
		sessions:   sessions,
		messages:   messages,
		classifier: cls,
		composer:   comp,
		now:        time.Now,
	}
}

// WithTranscripts enables ExportSession.
func (c *ChatController) WithTranscripts(t TranscriptStore) *ChatController {
	c.transcripts = t
	return c
}

func DefaultSessionTitle(now time.Time) string {
	return "Chat " + now.Format("02/01/2006")
}

// NormalizePage clamps paging input: page starts at 1, size defaults to
// DefaultPageSize and never exceeds MaxPageSize.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

func (c *ChatController) CreateSession(ctx context.Context, userID int, title string) (*models.ChatSession, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		title = DefaultSessionTitle(c.now())
	}
	return c.sessions.CreateSession(ctx, userID, title)
}

func (c *ChatController) ListSessions(ctx context.Context, userID, page, pageSize int) ([]models.ChatSession, types.Pagination, error) {
	page, pageSize = NormalizePage(page, pageSize)
	sessions, total, err := c.sessions.ListOwned(ctx, userID, page, pageSize)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return sessions, types.Pagination{Page: page, PageSize: pageSize, Total: total}, nil
}

func (c *ChatController) ActivateSession(ctx context.Context, userID, sessionID int, active bool) (bool, error) {
	return c.sessions.SetActive(ctx, sessionID, userID, active)
}

func (c *ChatController) DeleteSession(ctx context.Context, userID, sessionID int) (bool, error) {
	return c.sessions.Delete(ctx, sessionID, userID)
}

func (c *ChatController) ListMessages(ctx context.Context, userID, sessionID, page, pageSize int) ([]models.ChatMessage, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return c.messages.ListForSession(ctx, sessionID, userID, page, pageSize)
}

func (c *ChatController) ListRecentMessages(ctx context.Context, userID, limit int) ([]models.ChatMessage, error) {
	_, limit = NormalizePage(1, limit)
	return c.messages.ListRecentForUser(ctx, userID, limit)
}

func validateSend(req types.SendMessageRequest) error {
	if strings.TrimSpace(req.Message) == "" {
		return errs.Validation("Message is required!")
	}
	if req.SessionID != nil && *req.SessionID <= 0 {
		return errs.Validation("Invalid session id!")
	}
	if req.ClientMessageID != "" {
		if _, err := uuid.Parse(req.ClientMessageID); err != nil {
			return errs.Validation("Invalid client message id!")
		}
	}
	return nil
}

// SendMessage stores the user's turn, classifies it and stores the bot's reply.
// Only session resolution and the user turn can fail the call; a degraded
// classification or a lost bot turn still yields a result.
func (c *ChatController) SendMessage(ctx context.Context, userID int, req types.SendMessageRequest) (*SendResult, error) {
	defer logging.LogDuration(ctx, "chat_send_message")()
	if err := validateSend(req); err != nil {
		return nil, err
	}

	if req.ClientMessageID != "" {
		res, err := c.replay(ctx, userID, req.ClientMessageID)
		if err != nil || res != nil {
			return res, err
		}
	}

	session, err := c.resolveSession(ctx, userID, req.SessionID)
	if err != nil {
		return nil, err
	}

	userMsg, err := c.messages.Append(ctx, dao.AppendParams{
		SessionID:       session.ID,
		UserID:          userID,
		Body:            req.Message,
		ClientMessageID: req.ClientMessageID,
	})
	if err != nil {
		return nil, err
	}
	return c.reply(ctx, session, userMsg), nil
}

func (c *ChatController) resolveSession(ctx context.Context, userID int, sessionID *int) (*models.ChatSession, error) {
	if sessionID == nil {
		return c.sessions.GetActiveOrCreate(ctx, userID, DefaultSessionTitle(c.now()))
	}
	session, err := c.sessions.FindOwned(ctx, *sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errs.NotFound()
	}
	return session, nil
}

// reply runs the classify, compose and persist-bot steps for a stored user turn.
func (c *ChatController) reply(ctx context.Context, session *models.ChatSession, userMsg *models.ChatMessage) *SendResult {
	cls := c.classifier.Predict(ctx, userMsg.Message)
	rep := c.composer.Compose(cls)

	botMsg, err := c.messages.Append(ctx, dao.AppendParams{
		SessionID: session.ID,
		UserID:    userMsg.UserID,
		Body:      rep.Text,
		IsBot:     true,
		ReplyToID: userMsg.ID,
		Classification: &models.Classification{
			StressScore:     cls.Confidence,
			PredictedClass:  cls.PredictedClass,
			Recommendations: rep.Recommendations,
		},
	})
	if err != nil {
		metrics.BotTurnPersistFailures.Inc()
		logging.ErrorLogger.Error("bot turn not persisted",
			zap.Int("session_id", session.ID),
			zap.Int("user_message_id", userMsg.ID),
			zap.Error(err),
		)
		botMsg = nil
	}
	if !cls.Succeeded {
		logging.AppLogger.Warn("replied in degraded mode",
			zap.Int("session_id", session.ID),
			zap.String("reason", cls.FailureReason),
		)
	}

	return &SendResult{
		SessionID:      session.ID,
		Session:        session,
		UserMessage:    userMsg,
		BotMessage:     botMsg,
		Reply:          rep,
		Classification: cls,
	}
}

// replay answers a retried send from what was stored the first time. A user
// turn whose reply was lost gets its reply now, but only while it is still the
// session's latest message; otherwise BotMessage stays nil. It returns nil, nil
// for new keys.
func (c *ChatController) replay(ctx context.Context, userID int, key string) (*SendResult, error) {
	userMsg, err := c.messages.FindByClientMessageID(ctx, userID, key)
	if err != nil || userMsg == nil {
		return nil, err
	}
	session, err := c.sessions.FindOwned(ctx, userMsg.SessionID, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, errs.NotFound()
	}
	botMsg, err := c.messages.FindReplyTo(ctx, userMsg)
	if err != nil {
		return nil, err
	}
	if botMsg == nil {
		latest, err := c.messages.IsLatestInSession(ctx, userMsg)
		if err != nil {
			return nil, err
		}
		if !latest {
			return &SendResult{
				SessionID:      session.ID,
				Session:        session,
				UserMessage:    userMsg,
				Classification: classifier.Result{PredictedClass: classifier.UnknownClass},
				Replayed:       true,
			}, nil
		}
		res := c.reply(ctx, session, userMsg)
		res.Replayed = true
		return res, nil
	}

	cls := classifier.Result{
		Confidence:      botMsg.StressScore,
		Recommendations: []string(botMsg.Recommendations),
	}
	if botMsg.PredictedClass != nil {
		cls.PredictedClass = *botMsg.PredictedClass
	}
	cls.Succeeded = cls.PredictedClass != classifier.UnknownClass
	return &SendResult{
		SessionID:      session.ID,
		Session:        session,
		UserMessage:    userMsg,
		BotMessage:     botMsg,
		Reply:          composer.Reply{Text: botMsg.Message, Recommendations: cls.Recommendations},
		Classification: cls,
		Replayed:       true,
	}, nil
}

type transcript struct {
	Session    *models.ChatSession  `json:"session"`
	Messages   []models.ChatMessage `json:"messages"`
	ExportedAt time.Time            `json:"exported_at"`
}

// ExportSession uploads the full session as JSON and returns the object key.
func (c *ChatController) ExportSession(ctx context.Context, userID, sessionID int) (string, error) {
	defer logging.LogDuration(ctx, "chat_export_session")()
	if c.transcripts == nil {
		return "", ErrExportDisabled
	}
	session, err := c.sessions.FindOwned(ctx, sessionID, userID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", errs.NotFound()
	}

	all := []models.ChatMessage{}
	for page := 1; ; page++ {
		msgs, err := c.messages.ListForSession(ctx, sessionID, userID, page, MaxPageSize)
		if err != nil {
			return "", err
		}
		all = append(all, msgs...)
		if len(msgs) < MaxPageSize {
			break
		}
	}

	data, err := json.Marshal(transcript{Session: session, Messages: all, ExportedAt: c.now().UTC()})
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("transcripts/%d/%d-%s.json", userID, sessionID, uuid.NewString())
	if err := c.transcripts.UploadTranscript(ctx, key, data); err != nil {
		return "", errs.Storage(err, "upload transcript")
	}
	logging.AppLogger.Info("exported transcript", zap.String("key", key), zap.Int("messages", len(all)))
	return key, nil
}
