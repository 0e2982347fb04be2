package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/korjavin/docquizbot/database"
	"github.com/korjavin/docquizbot/models"
	"github.com/korjavin/docquizbot/quiz"
	"github.com/korjavin/docquizbot/worker"
)

func (b *Bot) welcomeText() (string, string) {
	l := b.engine.Limits()
	body := fmt.Sprintf(`Send me a PDF or PowerPoint (PPT/PPTX) file and I will turn it into a quiz.

1. Upload a file
2. Choose how many questions you want
3. Answer the quiz polls

Limits: %d files per hour, %d files per day, up to %d questions per file.

Use /help for the list of commands.`, l.MaxFilesPerHour, l.MaxFilesPerDay, l.MaxQuestionsPerFile)
	return "📚 Welcome to the Document Quiz Bot!", body
}

func (b *Bot) helpText() string {
	l := b.engine.Limits()
	return fmt.Sprintf(`Available commands:
/start - Start the bot
/help - Show this help message
/stat - Show your quiz statistics
/cancel - Discard the current file or quiz

Send a %s file to create a quiz. Questions arrive in batches of %d; press "More questions" for the next batch and "Finish" to see your score.`,
		strings.ToUpper(strings.Join(quiz.SupportedExtensions(), "/")), l.QuestionsPerBatch)
}

func statText(st database.UserStats, recent []models.QuizResult) string {
	if st.Quizzes == 0 && st.UploadsTotal == 0 {
		return "You haven't taken any quizzes yet. Send a file to start!"
	}

	var sb strings.Builder
	sb.WriteString("📊 Your statistics\n\n")
	fmt.Fprintf(&sb, "Files uploaded: %d (%d failed)\n", st.UploadsTotal, st.UploadsFailed)
	fmt.Fprintf(&sb, "Quizzes finished: %d\n", st.Quizzes)
	if st.Questions > 0 {
		overall := float64(st.Correct) / float64(st.Questions) * 100
		fmt.Fprintf(&sb, "Correct answers: %d of %d (%.1f%%)\n", st.Correct, st.Questions, overall)
		fmt.Fprintf(&sb, "Best quiz: %.1f%%\n", st.BestAccuracy)
	}
	if st.LastFinishedAt > 0 {
		fmt.Fprintf(&sb, "Last quiz: %s\n", formatTime(st.LastFinishedAt))
	}
	if len(recent) > 0 {
		sb.WriteString("\nRecent quizzes:\n")
		for _, r := range recent {
			fmt.Fprintf(&sb, "• %s: %d/%d (%.1f%%)\n", formatTime(r.FinishedAt), r.Correct, r.Total, r.Accuracy)
		}
	}
	return sb.String()
}

func usageText(rec models.UsageRecord, l quiz.Limits) string {
	return fmt.Sprintf("\nUploads used: %d/%d this hour, %d/%d today", rec.UploadsThisHour, l.MaxFilesPerHour, rec.UploadsToday, l.MaxFilesPerDay)
}

func progressText(p quiz.Progress) string {
	return fmt.Sprintf("📝 A quiz is in progress: %d of %d questions sent, %d answered.\nAnswer the polls, press Finish, or use /cancel to start over.",
		p.Emitted, p.Total, p.Answered)
}

func formatTime(unix int64) string {
	return time.Unix(unix, 0).UTC().Format("2006-01-02 15:04 MST")
}

func continueText(emitted, total int) string {
	return fmt.Sprintf("📝 Sent %d of %d questions.", emitted, total)
}

func finishText(total int) string {
	return fmt.Sprintf("✅ All %d questions sent. Answer them or press Finish to see your score.", total)
}

func reportText(r models.ScoreReport) string {
	return fmt.Sprintf("🏁 Quiz finished!\n\n✅ Correct answers: %d/%d\n📈 Accuracy: %.1f%%", r.Correct, r.Total, r.Accuracy)
}

// userMessage maps an error to the text shown to the user
func (b *Bot) userMessage(err error) string {
	l := b.engine.Limits()

	var countErr *quiz.CountError
	switch {
	case errors.As(err, &countErr):
		if countErr.NotNumber {
			return "⚠️ Please send a whole number."
		}
		return fmt.Sprintf("⚠️ Please choose a number between %d and %d.", countErr.Min, countErr.Max)
	case errors.Is(err, quiz.ErrQuotaExceeded):
		return fmt.Sprintf("⛔ You have reached the upload limit:\n%d files per hour\n%d files per day", l.MaxFilesPerHour, l.MaxFilesPerDay)
	case errors.Is(err, quiz.ErrUnsupportedFileType):
		return "❌ Unsupported file type! Please send a PDF or PPT/PPTX file."
	case errors.Is(err, quiz.ErrExtractionFailed):
		return "❌ Failed to process the file. Please try another file."
	case errors.Is(err, quiz.ErrGenerationFailed):
		return "❌ I couldn't generate questions from this file. Send the number again to retry, or upload another file."
	case errors.Is(err, quiz.ErrSessionPending):
		return "⏳ Your questions are still being generated, please wait."
	case errors.Is(err, quiz.ErrNoDocument):
		return "📄 Please send a PDF or PPT/PPTX file first."
	case errors.Is(err, quiz.ErrQuizInProgress):
		return "📝 A quiz is in progress. Answer the polls, press Finish, or use /cancel to start over."
	case errors.Is(err, quiz.ErrNoActiveSession):
		return "ℹ️ There is no active quiz. Send a file to start a new one."
	case errors.Is(err, errFileTooLarge):
		return fmt.Sprintf("❌ The file is too large. The limit is %d MB.", b.maxFileBytes>>20)
	case errors.Is(err, worker.ErrQueueFull):
		return "🚦 I'm busy right now, please try again in a minute."
	}
	return "❌ Something went wrong. Please try again."
}
