package quiz

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Limits carries every tunable bound of the quiz engine.
type Limits struct {
	MaxQuestionsPerFile int
	MinQuestions        int
	QuestionsPerBatch   int
	MaxFilesPerHour     int
	MaxFilesPerDay      int
	ChunkWords          int
}

// DefaultLimits returns the production defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxQuestionsPerFile: 50,
		MinQuestions:        5,
		QuestionsPerBatch:   5,
		MaxFilesPerHour:     2,
		MaxFilesPerDay:      5,
		ChunkWords:          DefaultChunkWords,
	}
}

// Validate reports limits that cannot work together.
func (l Limits) Validate() error {
	switch {
	case l.MinQuestions < 1:
		return fmt.Errorf("min questions must be positive, got %d", l.MinQuestions)
	case l.MaxQuestionsPerFile < l.MinQuestions:
		return fmt.Errorf("max questions per file (%d) is below min questions (%d)", l.MaxQuestionsPerFile, l.MinQuestions)
	case l.QuestionsPerBatch < 1:
		return fmt.Errorf("questions per batch must be positive, got %d", l.QuestionsPerBatch)
	case l.MaxFilesPerHour < 1 || l.MaxFilesPerDay < 1:
		return fmt.Errorf("file quotas must be positive, got %d/h %d/day", l.MaxFilesPerHour, l.MaxFilesPerDay)
	case l.ChunkWords < 1:
		return fmt.Errorf("chunk words must be positive, got %d", l.ChunkWords)
	}
	return nil
}

// MaxQuestionsFor estimates how many questions a document can carry:
// two per page, never below the minimum and never above the per-file cap.
func (l Limits) MaxQuestionsFor(pages int) int {
	return min(l.MaxQuestionsPerFile, max(l.MinQuestions, pages*2))
}

var supportedExtensions = map[string]bool{
	"pdf":  true,
	"ppt":  true,
	"pptx": true,
}

// SupportedExtensions lists the document types accepted for upload.
func SupportedExtensions() []string {
	return []string{"pdf", "ppt", "pptx"}
}

// IsSupported reports whether ext (without dot, any case) can be extracted.
func IsSupported(ext string) bool {
	return supportedExtensions[strings.ToLower(strings.TrimPrefix(ext, "."))]
}

// ExtensionOf returns the lower-cased extension of a file name without the dot.
func ExtensionOf(fileName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(fileName), "."))
}
