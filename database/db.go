package database

import (
	"database/sql"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/korjavin/docquizbot/models"
)

// DB handles all database operations
type DB struct {
	conn *sql.DB
}

// UserStats aggregates the quiz history of one user
type UserStats struct {
	Quizzes        int
	Correct        int
	Questions      int
	BestAccuracy   float64
	UploadsTotal   int
	UploadsFailed  int
	LastFinishedAt int64
}

// New creates a new database connection and initializes tables
func New(dbPath string) (*DB, error) {
	if dir := filepath.Dir(dbPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err = db.Ping(); err != nil {
		return nil, err
	}

	if err = createTables(db); err != nil {
		return nil, err
	}

	return &DB{conn: db}, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// Ping checks that the database is reachable
func (db *DB) Ping() error {
	return db.conn.Ping()
}

// createTables creates the necessary tables if they don't exist
func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS quiz_results (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			correct INTEGER NOT NULL,
			total INTEGER NOT NULL,
			accuracy REAL NOT NULL,
			finished_at INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS uploads (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL,
			file_name TEXT NOT NULL,
			extension TEXT NOT NULL,
			pages INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			timestamp INTEGER NOT NULL
		)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_quiz_results_user ON quiz_results(user_id, finished_at)`)
	return err
}

// SaveQuizResult records a finished quiz
func (db *DB) SaveQuizResult(userID int64, report models.ScoreReport) error {
	_, err := db.conn.Exec(
		"INSERT INTO quiz_results (user_id, correct, total, accuracy, finished_at) VALUES (?, ?, ?, ?, ?)",
		userID, report.Correct, report.Total, report.Accuracy, time.Now().Unix(),
	)
	return err
}

// SaveUpload records an accepted upload and how its extraction went
func (db *DB) SaveUpload(rec models.UploadRecord) error {
	if rec.Timestamp == 0 {
		rec.Timestamp = time.Now().Unix()
	}
	_, err := db.conn.Exec(
		"INSERT INTO uploads (user_id, file_name, extension, pages, status, timestamp) VALUES (?, ?, ?, ?, ?, ?)",
		rec.UserID, rec.FileName, rec.Extension, rec.Pages, rec.Status, rec.Timestamp,
	)
	return err
}

// GetUserStats retrieves statistics about the user's quizzes and uploads
func (db *DB) GetUserStats(userID int64) (UserStats, error) {
	var st UserStats
	err := db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(correct), 0), COALESCE(SUM(total), 0),
		       COALESCE(MAX(accuracy), 0), COALESCE(MAX(finished_at), 0)
		FROM quiz_results WHERE user_id = ?`,
		userID,
	).Scan(&st.Quizzes, &st.Correct, &st.Questions, &st.BestAccuracy, &st.LastFinishedAt)
	if err != nil {
		return UserStats{}, err
	}

	err = db.conn.QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
		FROM uploads WHERE user_id = ?`,
		models.UploadFailed, userID,
	).Scan(&st.UploadsTotal, &st.UploadsFailed)
	return st, err
}

// GetRecentResults returns the user's latest quizzes, newest first
func (db *DB) GetRecentResults(userID int64, limit int) ([]models.QuizResult, error) {
	rows, err := db.conn.Query(`
		SELECT user_id, correct, total, accuracy, finished_at
		FROM quiz_results
		WHERE user_id = ?
		ORDER BY finished_at DESC, id DESC
		LIMIT ?`,
		userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []models.QuizResult
	for rows.Next() {
		var r models.QuizResult
		if err := rows.Scan(&r.UserID, &r.Correct, &r.Total, &r.Accuracy, &r.FinishedAt); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
