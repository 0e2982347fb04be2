package bot

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/korjavin/docquizbot/models"
)

// sendMessage sends a plain text message and returns its id, or 0 on failure
func (b *Bot) sendMessage(chatID int64, text string) int {
	return b.send(chatID, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) send(chatID int64, c tgbotapi.Chattable) int {
	sent, err := b.tg.Send(c)
	if err != nil {
		b.log.Error("Error sending message", "chat_id", chatID, "error", err)
		return 0
	}
	return sent.MessageID
}

// sendMarkdownMessage sends a bold title and a body with MarkdownV2 formatting,
// falling back to plain text when Telegram rejects the markup
func (b *Bot) sendMarkdownMessage(chatID int64, title, body string) {
	msg := tgbotapi.NewMessage(chatID, "*"+escapeMarkdown(title)+"*\n\n"+escapeMarkdown(body))
	msg.ParseMode = tgbotapi.ModeMarkdownV2

	if _, err := b.tg.Send(msg); err != nil {
		b.log.Warn("Markdown rendering failed, falling back to plain text", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, title+"\n\n"+body)
	}
}

// escapeMarkdown escapes special characters for Telegram's MarkdownV2 format
func escapeMarkdown(text string) string {
	// Characters that need escaping in MarkdownV2: _*[]()~`>#+-=|{}.!
	specialChars := []string{"\\", "_", "*", "[", "]", "(", ")", "~", "`", ">", "#", "+", "-", "=", "|", "{", "}", ".", "!"}

	for _, char := range specialChars {
		text = strings.ReplaceAll(text, char, "\\"+char)
	}
	return text
}

// sendCallbackResponse acknowledges a callback query
func (b *Bot) sendCallbackResponse(callbackID, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.tg.Request(callback); err != nil {
		b.log.Warn("Error sending callback response", "error", err)
	}
}

// editMessage edits an existing message
func (b *Bot) editMessage(chatID int64, messageID int, newText string) {
	if messageID == 0 {
		b.sendMessage(chatID, newText)
		return
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, newText)
	if _, err := b.tg.Send(edit); err != nil {
		b.log.Warn("Error editing message, sending a new one", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, newText)
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if messageID == 0 {
		return
	}
	if _, err := b.tg.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.log.Warn("Error deleting message", "chat_id", chatID, "message_id", messageID, "error", err)
	}
}

// showProgress posts a status line that later steps edit in place
func (b *Bot) showProgress(chatID int64, text string) int {
	return b.sendMessage(chatID, text)
}

func (b *Bot) showError(chatID int64, err error) {
	b.sendMessage(chatID, b.userMessage(err))
}

// presentQuestion sends q as a non-anonymous quiz poll and remembers the
// poll id so the answer can be matched back to the question.
func (b *Bot) presentQuestion(chatID, userID int64, q models.Question) {
	poll := tgbotapi.NewPoll(chatID, q.Prompt, q.Options...)
	poll.Type = "quiz"
	poll.IsAnonymous = false
	poll.CorrectOptionID = int64(q.CorrectIndex)

	sent, err := b.tg.Send(poll)
	if err != nil {
		b.log.Error("Error sending poll", "chat_id", chatID, "question_id", q.ID, "error", err)
		return
	}
	if sent.Poll == nil {
		b.log.Warn("Poll sent without poll payload", "chat_id", chatID, "question_id", q.ID)
		return
	}
	b.rememberPoll(sent.Poll.ID, pollRef{userID: userID, chatID: chatID, questionID: q.ID})
}

func (b *Bot) offerContinue(chatID int64, emitted, total int) {
	msg := tgbotapi.NewMessage(chatID, continueText(emitted, total))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("👉 More questions", callbackNextBatch),
			tgbotapi.NewInlineKeyboardButtonData("🏁 Finish", callbackFinish),
		),
	)
	b.send(chatID, msg)
}

func (b *Bot) offerFinish(chatID int64, total int) {
	msg := tgbotapi.NewMessage(chatID, finishText(total))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🏁 Finish", callbackFinish),
		),
	)
	b.send(chatID, msg)
}

func (b *Bot) showFinalReport(chatID int64, report models.ScoreReport) {
	b.sendMessage(chatID, reportText(report))
}
