package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/korjavin/docquizbot/config"
	"github.com/korjavin/docquizbot/database"
	"github.com/korjavin/docquizbot/logger"
	"github.com/korjavin/docquizbot/models"
	"github.com/korjavin/docquizbot/quiz"
	"github.com/korjavin/docquizbot/worker"
)

const (
	cmdStart  = "start"
	cmdHelp   = "help"
	cmdStat   = "stat"
	cmdCancel = "cancel"

	callbackNextBatch = "next_batch"
	callbackFinish    = "finish_quiz"
)

var errFileTooLarge = errors.New("file too large")

// telegramAPI is the part of tgbotapi.BotAPI the handlers use.
type telegramAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Extractor turns document bytes into text.
type Extractor interface {
	Extract(ctx context.Context, data []byte, ext string) (string, error)
}

// History stores finished quizzes and uploads.
type History interface {
	SaveQuizResult(userID int64, report models.ScoreReport) error
	SaveUpload(rec models.UploadRecord) error
	GetUserStats(userID int64) (database.UserStats, error)
	GetRecentResults(userID int64, limit int) ([]models.QuizResult, error)
}

type pollRef struct {
	userID     int64
	chatID     int64
	questionID string
}

// Bot represents the Telegram bot
type Bot struct {
	api       *tgbotapi.BotAPI
	tg        telegramAPI
	engine    *quiz.Engine
	extractor Extractor
	history   History
	pool      *worker.Pool
	lanes     *worker.Lanes
	http      *http.Client
	log       *logger.Logger

	maxFileBytes int64

	pollsMu sync.Mutex
	polls   map[string]pollRef
}

// New creates a new bot instance
func New(cfg *config.Config, engine *quiz.Engine, extractor Extractor, history History, pool *worker.Pool, log *logger.Logger) (*Bot, error) {
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create bot API: %w", err)
	}
	botAPI.Debug = cfg.Debug

	b := newBot(botAPI, engine, extractor, history, pool, log, cfg.MaxFileBytes)
	b.api = botAPI
	b.log.Info("Authorized on account", "username", botAPI.Self.UserName)
	return b, nil
}

func newBot(tg telegramAPI, engine *quiz.Engine, extractor Extractor, history History, pool *worker.Pool, log *logger.Logger, maxFileBytes int64) *Bot {
	log = log.With("component", "TelegramBot")
	return &Bot{
		tg:           tg,
		engine:       engine,
		extractor:    extractor,
		history:      history,
		pool:         pool,
		lanes:        worker.NewLanes(log),
		http:         &http.Client{Timeout: 2 * time.Minute},
		log:          log,
		maxFileBytes: maxFileBytes,
		polls:        make(map[string]pollRef),
	}
}

// Start polls for updates until ctx is cancelled
func (b *Bot) Start(ctx context.Context) {
	b.log.Info("Starting bot polling")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	u.AllowedUpdates = []string{"message", "callback_query", "poll_answer"}

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("Bot polling stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.dispatch(update)
		}
	}
}

// dispatch runs the update on its user's lane so one user's events are
// handled in arrival order while other users proceed in parallel.
func (b *Bot) dispatch(update tgbotapi.Update) {
	userID, ok := updateUserID(update)
	if !ok {
		return
	}
	b.lanes.Do(userID, func() { b.handleUpdate(update) })
}

func updateUserID(update tgbotapi.Update) (int64, bool) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, true
	case update.CallbackQuery != nil && update.CallbackQuery.From != nil:
		return update.CallbackQuery.From.ID, true
	case update.PollAnswer != nil:
		return update.PollAnswer.User.ID, true
	}
	return 0, false
}

func (b *Bot) handleUpdate(update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		b.handleCallback(update.CallbackQuery)
	case update.PollAnswer != nil:
		b.handlePollAnswer(update.PollAnswer)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(update.Message)
	}
}

// handleMessage processes incoming messages
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	if message.Document != nil {
		b.handleDocument(message)
		return
	}

	text := strings.TrimSpace(message.Text)
	switch {
	case strings.HasPrefix(text, "/"+cmdStart):
		b.handleStartCommand(message)
	case strings.HasPrefix(text, "/"+cmdHelp):
		b.sendMessage(message.Chat.ID, b.helpText())
	case strings.HasPrefix(text, "/"+cmdStat):
		b.handleStatCommand(message)
	case strings.HasPrefix(text, "/"+cmdCancel):
		b.handleCancelCommand(message)
	case strings.HasPrefix(text, "/"):
		b.sendMessage(message.Chat.ID, "Unknown command. Use /help to see what I can do.")
	case text != "":
		b.handleQuestionCount(message)
	}
}

func (b *Bot) handleStartCommand(message *tgbotapi.Message) {
	title, body := b.welcomeText()
	b.sendMarkdownMessage(message.Chat.ID, title, body)
}

func (b *Bot) handleStatCommand(message *tgbotapi.Message) {
	st, err := b.history.GetUserStats(message.From.ID)
	if err != nil {
		b.log.Error("Error getting user stats", "user_id", message.From.ID, "error", err)
		b.sendMessage(message.Chat.ID, "Sorry, I couldn't retrieve your statistics. Please try again later.")
		return
	}
	recent, err := b.history.GetRecentResults(message.From.ID, 3)
	if err != nil {
		b.log.Warn("Error getting recent results", "user_id", message.From.ID, "error", err)
	}
	usage, _ := b.engine.Usage().Snapshot(message.From.ID)
	b.sendMessage(message.Chat.ID, statText(st, recent)+usageText(usage, b.engine.Limits()))
}

func (b *Bot) handleCancelCommand(message *tgbotapi.Message) {
	userID := message.From.ID
	if b.engine.Cancel(userID) {
		b.forgetPolls(userID)
		b.sendMessage(message.Chat.ID, "🗑 Your current quiz was discarded. Send a new file to start again.")
		return
	}
	b.sendMessage(message.Chat.ID, "There is nothing to cancel.")
}

// handleDocument accepts an upload and extracts it on the worker pool
func (b *Bot) handleDocument(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID
	doc := message.Document
	ext := quiz.ExtensionOf(doc.FileName)

	if b.maxFileBytes > 0 && int64(doc.FileSize) > b.maxFileBytes {
		b.showError(chatID, errFileTooLarge)
		return
	}

	uploadID, err := b.engine.BeginUpload(userID, ext)
	if err != nil {
		b.showError(chatID, err)
		return
	}
	b.forgetPolls(userID)

	progressID := b.showProgress(chatID, "📥 Downloading file...")
	b.log.Info("Document received", "user_id", userID, "file_name", doc.FileName, "size", doc.FileSize)

	err = b.pool.Submit(func(ctx context.Context) {
		data, err := b.download(ctx, doc.FileID)
		var text string
		if err == nil {
			b.editMessage(chatID, progressID, "🔍 Processing the file and extracting content...")
			text, err = b.extractor.Extract(ctx, data, ext)
		}
		b.lanes.Do(userID, func() {
			b.finishExtraction(chatID, userID, progressID, uploadID, doc.FileName, ext, text, err)
		})
	})
	if err != nil {
		b.engine.AbortUpload(userID, uploadID)
		b.editMessage(chatID, progressID, b.userMessage(err))
	}
}

func (b *Bot) finishExtraction(chatID, userID int64, progressID int, uploadID, fileName, ext, text string, extractErr error) {
	rec := models.UploadRecord{UserID: userID, FileName: fileName, Extension: ext, Status: models.UploadFailed}

	if extractErr != nil {
		b.log.Warn("Error processing file", "user_id", userID, "file_name", fileName, "error", extractErr)
		b.engine.DropUpload(userID, uploadID)
		b.saveUpload(rec)
		b.editMessage(chatID, progressID, b.userMessage(quiz.ErrExtractionFailed))
		return
	}

	draft, err := b.engine.AttachText(userID, uploadID, text)
	if errors.Is(err, quiz.ErrSuperseded) {
		b.log.Info("Extraction result superseded", "user_id", userID, "upload_id", uploadID)
		return
	}
	if err != nil {
		b.saveUpload(rec)
		b.editMessage(chatID, progressID, b.userMessage(err))
		return
	}

	rec.Status = models.UploadExtracted
	rec.Pages = draft.Pages
	b.saveUpload(rec)
	b.editMessage(chatID, progressID, fmt.Sprintf(
		"✅ Extracted %d page(s)\n📊 Choose the number of questions (%d-%d):",
		draft.Pages, draft.MinQuestions, draft.MaxQuestions))
}

func (b *Bot) saveUpload(rec models.UploadRecord) {
	if err := b.history.SaveUpload(rec); err != nil {
		b.log.Warn("Error saving upload", "user_id", rec.UserID, "error", err)
	}
}

// handleQuestionCount validates the requested count and generates on the worker pool
func (b *Bot) handleQuestionCount(message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	ticket, err := b.engine.SelectCount(userID, message.Text)
	if errors.Is(err, quiz.ErrQuizInProgress) {
		b.showQuizProgress(chatID, userID)
		return
	}
	if err != nil {
		b.showError(chatID, err)
		return
	}

	progressID := b.showProgress(chatID, "🤖 Generating questions...")
	err = b.pool.Submit(func(ctx context.Context) {
		questions, err := b.engine.Generate(ctx, ticket)
		if err != nil {
			b.log.Warn("Generation failed", "user_id", userID, "error", err)
		}
		b.lanes.Do(userID, func() {
			b.finishGeneration(chatID, userID, progressID, ticket, questions)
		})
	})
	if err != nil {
		b.engine.CompleteGeneration(userID, ticket, nil)
		b.editMessage(chatID, progressID, b.userMessage(err))
	}
}

func (b *Bot) finishGeneration(chatID, userID int64, progressID int, ticket quiz.Ticket, questions []models.Question) {
	n, err := b.engine.CompleteGeneration(userID, ticket, questions)
	if errors.Is(err, quiz.ErrSuperseded) {
		return
	}
	b.deleteMessage(chatID, progressID)
	if err != nil {
		b.showError(chatID, err)
		return
	}
	if n < ticket.Count {
		b.sendMessage(chatID, fmt.Sprintf("⚠️ Only %d of %d questions could be generated.", n, ticket.Count))
	}
	b.sendBatch(chatID, userID)
}

// sendBatch emits the next batch of polls and the continue or finish button
func (b *Bot) sendBatch(chatID, userID int64) {
	batch, err := b.engine.NextBatch(userID)
	if err != nil {
		b.showError(chatID, err)
		return
	}

	for _, q := range batch.Questions {
		b.presentQuestion(chatID, userID, q)
	}

	if batch.HasMore {
		b.offerContinue(chatID, batch.Emitted, batch.Total)
		return
	}
	b.offerFinish(chatID, batch.Total)
}

// handleCallback processes callback queries from inline buttons
func (b *Bot) handleCallback(callback *tgbotapi.CallbackQuery) {
	b.sendCallbackResponse(callback.ID, "")
	if callback.Message == nil {
		return
	}
	chatID := callback.Message.Chat.ID
	userID := callback.From.ID

	switch callback.Data {
	case callbackNextBatch:
		b.deleteMessage(chatID, callback.Message.MessageID)
		b.sendBatch(chatID, userID)
	case callbackFinish:
		b.deleteMessage(chatID, callback.Message.MessageID)
		b.finalize(chatID, userID)
	default:
		b.log.Warn("Invalid callback data", "user_id", userID, "data", callback.Data)
	}
}

// handlePollAnswer correlates the answer with its question by poll id
func (b *Bot) handlePollAnswer(answer *tgbotapi.PollAnswer) {
	userID := answer.User.ID

	b.pollsMu.Lock()
	ref, ok := b.polls[answer.PollID]
	b.pollsMu.Unlock()
	if !ok || ref.userID != userID {
		b.log.Info("Answer for unknown poll ignored", "user_id", userID, "poll_id", answer.PollID)
		return
	}
	if len(answer.OptionIDs) == 0 {
		return
	}

	done, err := b.engine.RecordAnswer(userID, ref.questionID, answer.OptionIDs[0])
	if err != nil {
		b.log.Info("Answer rejected", "user_id", userID, "poll_id", answer.PollID, "error", err)
		return
	}
	if done {
		b.finalize(ref.chatID, userID)
	}
}

func (b *Bot) finalize(chatID, userID int64) {
	report, err := b.engine.Finalize(userID)
	if err != nil {
		b.showError(chatID, err)
		return
	}
	b.forgetPolls(userID)

	if err := b.history.SaveQuizResult(userID, report); err != nil {
		b.log.Warn("Error saving quiz result", "user_id", userID, "error", err)
	}
	b.showFinalReport(chatID, report)
}

func (b *Bot) showQuizProgress(chatID, userID int64) {
	p, err := b.engine.Progress(userID)
	if err != nil {
		b.showError(chatID, err)
		return
	}
	b.sendMessage(chatID, progressText(p))
}

// Stats reports engine state together with the gateway's own bookkeeping.
func (b *Bot) Stats() quiz.Stats {
	st := b.engine.Stats()
	st.ActiveLanes = b.lanes.Active()
	b.pollsMu.Lock()
	st.OpenPolls = len(b.polls)
	b.pollsMu.Unlock()
	return st
}

func (b *Bot) rememberPoll(pollID string, ref pollRef) {
	b.pollsMu.Lock()
	b.polls[pollID] = ref
	b.pollsMu.Unlock()
}

func (b *Bot) forgetPolls(userID int64) {
	b.pollsMu.Lock()
	defer b.pollsMu.Unlock()
	for id, ref := range b.polls {
		if ref.userID == userID {
			delete(b.polls, id)
		}
	}
}

// download fetches a Telegram file, refusing anything above maxFileBytes
func (b *Bot) download(ctx context.Context, fileID string) ([]byte, error) {
	url, err := b.tg.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("get file url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download file: status %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if b.maxFileBytes > 0 {
		body = io.LimitReader(resp.Body, b.maxFileBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	if b.maxFileBytes > 0 && int64(len(data)) > b.maxFileBytes {
		return nil, errFileTooLarge
	}
	return data, nil
}
