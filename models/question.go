package models

import "time"

// Question is a single generated multiple-choice question.
type Question struct {
	ID           string   `json:"id"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// UsageRecord holds the rolling upload counters of one user
type UsageRecord struct {
	UploadsThisHour int
	UploadsToday    int
	LastUploadAt    time.Time
	WindowAnchor    time.Time
}

// ScoreReport is the outcome of a finished quiz
type ScoreReport struct {
	Correct  int     `json:"correct"`
	Total    int     `json:"total"`
	Accuracy float64 `json:"accuracy"`
}

// QuizResult is a finished quiz as stored in the history database
type QuizResult struct {
	UserID     int64
	Correct    int
	Total      int
	Accuracy   float64
	FinishedAt int64
}

// UploadRecord stores an accepted document upload
type UploadRecord struct {
	UserID    int64
	FileName  string
	Extension string
	Pages     int
	Status    string
	Timestamp int64
}

// Upload statuses
const (
	UploadExtracted = "extracted"
	UploadFailed    = "failed"
)
