package model

type Activity struct {
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	TeamID       string   `json:"teamId"`
	ActivityType string   `json:"activityType"`
	Content      string   `json:"content"`
	Metadata     Metadata `json:"metadata"`
	Processed    bool     `json:"processed"`
	VectorID     *string  `json:"vectorId"`
	AttemptCount int      `json:"-"`
	LastError    *string  `json:"-"`
	Ctime        int64    `json:"ctime"`
	Mtime        int64    `json:"mtime"`
}

type ActivityStats struct {
	Total       int64 `json:"total"`
	Processed   int64 `json:"processed"`
	Unprocessed int64 `json:"unprocessed"`
}
