package quiz

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/korjavin/docquizbot/logger"
	"github.com/korjavin/docquizbot/models"
)

// ExtractedText is document text with its page count. Pages are separated by
// form feeds.
type ExtractedText struct {
	Text  string
	Pages int
}

func NewExtractedText(text string) ExtractedText {
	return ExtractedText{Text: text, Pages: strings.Count(text, "\f") + 1}
}

// Draft is an extracted document waiting for the user to pick a question count.
type Draft struct {
	Pages        int
	MinQuestions int
	MaxQuestions int

	text string
}

// Ticket identifies one pending generation.
type Ticket struct {
	ID     string
	UserID int64
	Count  int

	text string
}

// Stats is a point-in-time view of the engine.
type Stats struct {
	ActiveSessions     int `json:"active_sessions"`
	PendingGenerations int `json:"pending_generations"`
	TrackedUsers       int `json:"tracked_users"`

	// Filled in by the messaging gateway.
	ActiveLanes int `json:"active_lanes"`
	OpenPolls   int `json:"open_polls"`
}

type upload struct {
	id     string
	draft  *Draft
	ticket string
}

// Engine drives a user from document upload to final score.
type Engine struct {
	limits    Limits
	usage     *UsageTracker
	store     *Store
	generator *Generator
	log       *logger.Logger

	mu      sync.Mutex
	uploads map[int64]*upload
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces time.Now in quota accounting.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) {
		e.usage = NewUsageTracker(e.limits.MaxFilesPerHour, e.limits.MaxFilesPerDay, now)
	}
}

func NewEngine(limits Limits, generator *Generator, log *logger.Logger, opts ...Option) *Engine {
	e := &Engine{
		limits:    limits,
		usage:     NewUsageTracker(limits.MaxFilesPerHour, limits.MaxFilesPerDay, nil),
		store:     NewStore(),
		generator: generator,
		log:       log.With("component", "QuizEngine"),
		uploads:   make(map[int64]*upload),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Limits() Limits { return e.limits }

// Usage exposes the quota tracker.
func (e *Engine) Usage() *UsageTracker { return e.usage }

// BeginUpload accepts a new document of type ext for the user, charges the
// quota and discards whatever the user had in progress. The returned id must
// be passed to AttachText or DropUpload.
func (e *Engine) BeginUpload(userID int64, ext string) (string, error) {
	if !IsSupported(ext) {
		e.log.Info("Rejected upload", "user_id", userID, "extension", ext, "reason", "unsupported")
		return "", ErrUnsupportedFileType
	}
	if !e.usage.Admit(userID) {
		e.log.Info("Rejected upload", "user_id", userID, "reason", "quota")
		return "", ErrQuotaExceeded
	}
	e.usage.Record(userID)

	id := uuid.NewString()
	e.mu.Lock()
	e.uploads[userID] = &upload{id: id}
	e.mu.Unlock()
	e.store.Clear(userID)

	e.log.Info("Upload accepted", "user_id", userID, "upload_id", id, "extension", ext)
	return id, nil
}

// AttachText stores the extracted text of an accepted upload and returns the
// question count range the user may choose from.
func (e *Engine) AttachText(userID int64, uploadID, text string) (Draft, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	up, ok := e.uploads[userID]
	if !ok || up.id != uploadID {
		return Draft{}, ErrSuperseded
	}
	if strings.TrimSpace(text) == "" {
		delete(e.uploads, userID)
		return Draft{}, ErrExtractionFailed
	}

	et := NewExtractedText(text)
	draft := &Draft{
		Pages:        et.Pages,
		MinQuestions: e.limits.MinQuestions,
		MaxQuestions: e.limits.MaxQuestionsFor(et.Pages),
		text:         et.Text,
	}
	up.draft = draft
	return *draft, nil
}

// DropUpload forgets an upload whose extraction failed.
func (e *Engine) DropUpload(userID int64, uploadID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if up, ok := e.uploads[userID]; ok && up.id == uploadID {
		delete(e.uploads, userID)
	}
}

// AbortUpload forgets an upload that was never processed and refunds its
// charge. Used when the upload could not be queued.
func (e *Engine) AbortUpload(userID int64, uploadID string) {
	e.mu.Lock()
	up, ok := e.uploads[userID]
	current := ok && up.id == uploadID && up.draft == nil
	if current {
		delete(e.uploads, userID)
	}
	e.mu.Unlock()

	if current {
		e.usage.Refund(userID)
		e.log.Info("Upload aborted, quota refunded", "user_id", userID, "upload_id", uploadID)
	}
}

// SelectCount validates the user's question count against the draft and marks
// generation as pending. A rejected count leaves the draft in place.
func (e *Engine) SelectCount(userID int64, raw string) (Ticket, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	up, ok := e.uploads[userID]
	if !ok {
		if e.store.Has(userID) {
			return Ticket{}, ErrQuizInProgress
		}
		return Ticket{}, ErrNoDocument
	}
	if up.ticket != "" {
		return Ticket{}, ErrSessionPending
	}
	if up.draft == nil {
		return Ticket{}, ErrNoDocument
	}

	raw = strings.TrimSpace(raw)
	n, err := strconv.Atoi(raw)
	if err != nil {
		return Ticket{}, &CountError{Raw: raw, Min: up.draft.MinQuestions, Max: up.draft.MaxQuestions, NotNumber: true}
	}
	if n < up.draft.MinQuestions || n > up.draft.MaxQuestions {
		return Ticket{}, &CountError{Raw: raw, Min: up.draft.MinQuestions, Max: up.draft.MaxQuestions}
	}

	t := Ticket{ID: uuid.NewString(), UserID: userID, Count: n, text: up.draft.text}
	up.ticket = t.ID
	return t, nil
}

// Generate runs the generator for a ticket. It is safe to call from a worker.
func (e *Engine) Generate(ctx context.Context, t Ticket) ([]models.Question, error) {
	return e.generator.Generate(ctx, t.text, t.Count)
}

// CompleteGeneration turns generated questions into the user's session and
// returns its size. A ticket superseded by a newer upload is ignored. With no
// questions the draft is kept so the user can try again.
func (e *Engine) CompleteGeneration(userID int64, t Ticket, questions []models.Question) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	up, ok := e.uploads[userID]
	if !ok || up.ticket != t.ID {
		e.log.Info("Dropping stale generation", "user_id", userID, "ticket", t.ID)
		return 0, ErrSuperseded
	}
	if len(questions) == 0 {
		up.ticket = ""
		return 0, ErrGenerationFailed
	}

	delete(e.uploads, userID)
	e.store.StartSession(userID, questions)
	e.log.Info("Session started", "user_id", userID, "questions", len(questions), "requested", t.Count)
	return len(questions), nil
}

// NextBatch emits the next batch of the user's session.
func (e *Engine) NextBatch(userID int64) (Batch, error) {
	if e.pending(userID) {
		return Batch{}, ErrSessionPending
	}
	return e.store.NextBatch(userID, e.limits.QuestionsPerBatch)
}

// RecordAnswer stores the user's answer to a question. done reports that every
// question has been emitted and answered.
func (e *Engine) RecordAnswer(userID int64, questionID string, selected int) (bool, error) {
	p, err := e.store.RecordAnswerByID(userID, questionID, selected)
	if err != nil {
		return false, err
	}
	return p.Complete(), nil
}

// Progress reports the state of the user's session.
func (e *Engine) Progress(userID int64) (Progress, error) {
	if e.pending(userID) {
		return Progress{}, ErrSessionPending
	}
	return e.store.Progress(userID)
}

// Finalize scores the user's session and clears it.
func (e *Engine) Finalize(userID int64) (models.ScoreReport, error) {
	report, err := e.store.Finalize(userID)
	if err != nil {
		return report, err
	}
	e.log.Info("Session finalized", "user_id", userID,
		"correct", report.Correct, "total", report.Total, "accuracy", report.Accuracy)
	return report, nil
}

// Cancel drops everything the user has in progress.
func (e *Engine) Cancel(userID int64) bool {
	e.mu.Lock()
	_, hadUpload := e.uploads[userID]
	delete(e.uploads, userID)
	e.mu.Unlock()

	hadSession := e.store.Has(userID)
	e.store.Clear(userID)
	return hadUpload || hadSession
}

func (e *Engine) Stats() Stats {
	e.mu.Lock()
	pending := 0
	for _, up := range e.uploads {
		if up.ticket != "" {
			pending++
		}
	}
	e.mu.Unlock()

	return Stats{
		ActiveSessions:     e.store.Len(),
		PendingGenerations: pending,
		TrackedUsers:       e.usage.Len(),
	}
}

func (e *Engine) pending(userID int64) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	up, ok := e.uploads[userID]
	return ok && up.ticket != ""
}
