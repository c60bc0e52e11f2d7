package controllers

import (
	"context"
	"math"
	"strings"
	"time"

	"mindtrack/mindtrack/sources/psql/dao"
	"mindtrack/mindtrack/sources/psql/models"
	"mindtrack/mindtrack/types"
	"mindtrack/mindtrack/utils/errs"
)

type JournalController struct {
	dao *dao.JournalDAO
	now func() time.Time
}

func NewJournalController(dao *dao.JournalDAO) *JournalController {
	return &JournalController{dao: dao, now: time.Now}
}

func validateJournal(req types.JournalRequest) error {
	if strings.TrimSpace(req.Content) == "" || req.MoodEmoji == "" || req.MoodValue == 0 {
		return errs.Validation("Konten jurnal dan mood harus diisi!")
	}
	if req.MoodValue < 1 || req.MoodValue > 5 {
		return errs.Validation("Nilai mood harus antara 1 dan 5!")
	}
	return nil
}

func (c *JournalController) CreateJournal(ctx context.Context, userID int, req types.JournalRequest) (*models.Journal, error) {
	if err := validateJournal(req); err != nil {
		return nil, err
	}
	journal := &models.Journal{
		UserID:    userID,
		Title:     strings.TrimSpace(req.Title),
		Content:   req.Content,
		MoodEmoji: req.MoodEmoji,
		MoodValue: req.MoodValue,
	}
	if err := c.dao.CreateJournal(ctx, journal); err != nil {
		return nil, err
	}
	return journal, nil
}

func (c *JournalController) GetJournal(ctx context.Context, userID, id int) (*models.Journal, error) {
	journal, err := c.dao.GetOwned(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if journal == nil {
		return nil, errs.NotFound()
	}
	return journal, nil
}

func (c *JournalController) ListJournals(ctx context.Context, userID, page, limit int) ([]models.Journal, types.Pagination, error) {
	page, limit = NormalizePage(page, limit)
	journals, total, err := c.dao.ListByUser(ctx, userID, page, limit)
	if err != nil {
		return nil, types.Pagination{}, err
	}
	return journals, types.Pagination{Page: page, PageSize: limit, Total: total}, nil
}

func (c *JournalController) UpdateJournal(ctx context.Context, userID, id int, req types.JournalRequest) (*models.Journal, error) {
	if err := validateJournal(req); err != nil {
		return nil, err
	}
	ok, err := c.dao.UpdateOwned(ctx, id, userID, map[string]interface{}{
		"title":      strings.TrimSpace(req.Title),
		"content":    req.Content,
		"mood_emoji": req.MoodEmoji,
		"mood_value": req.MoodValue,
	})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errs.NotFound()
	}
	return c.GetJournal(ctx, userID, id)
}

func (c *JournalController) DeleteJournal(ctx context.Context, userID, id int) error {
	ok, err := c.dao.DeleteOwned(ctx, id, userID)
	if err != nil {
		return err
	}
	if !ok {
		return errs.NotFound()
	}
	return nil
}

// MoodStats averages mood per UTC day over the last 7 ("week", default) or
// 30 ("month") days, oldest day first. Days without entries are omitted.
func (c *JournalController) MoodStats(ctx context.Context, userID int, period string) ([]types.MoodStat, error) {
	days := 7
	switch period {
	case "", "week":
	case "month":
		days = 30
	default:
		return nil, errs.Validation("Periode harus week atau month!")
	}
	now := c.now().UTC()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	since := today.AddDate(0, 0, -(days - 1))

	journals, err := c.dao.ListSince(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	stats := []types.MoodStat{}
	sums := map[string]int{}
	for _, j := range journals {
		day := j.CreatedAt.UTC().Format("2006-01-02")
		if _, seen := sums[day]; !seen {
			stats = append(stats, types.MoodStat{Date: day})
		}
		sums[day] += j.MoodValue
		stats[len(stats)-1].Entries++
	}
	for i := range stats {
		avg := float64(sums[stats[i].Date]) / float64(stats[i].Entries)
		stats[i].AverageMood = math.Round(avg*100) / 100
	}
	return stats, nil
}
