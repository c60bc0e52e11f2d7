package types

type JournalRequest struct {
	Title     string `json:"title"`
	Content   string `json:"content"`
	MoodEmoji string `json:"mood_emoji"`
	MoodValue int    `json:"mood_value"`
}

// MoodStat is the average mood of one calendar day (UTC), formatted 2006-01-02.
type MoodStat struct {
	Date        string  `json:"date"`
	AverageMood float64 `json:"average_mood"`
	Entries     int     `json:"entries"`
}
