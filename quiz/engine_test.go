package quiz

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/korjavin/docquizbot/logger"
)

func newTestEngine(t *testing.T, model Model, opts ...Option) *Engine {
	t.Helper()
	g := NewGenerator(model, logger.Nop(), seeded(5))
	return NewEngine(DefaultLimits(), g, logger.Nop(), opts...)
}

const twoPages = "Insulin is secreted by pancreatic beta cells.\fGlucagon raises glucose concentration in blood."

func TestEngineEndToEnd(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"question: What secretes insulin?"}})

	uploadID, err := e.BeginUpload(10, "pdf")
	if err != nil {
		t.Fatalf("BeginUpload: %v", err)
	}
	rec, _ := e.Usage().Snapshot(10)
	if rec.UploadsThisHour != 1 || rec.UploadsToday != 1 {
		t.Fatalf("quota charged: want=1/1 got=%d/%d", rec.UploadsThisHour, rec.UploadsToday)
	}

	draft, err := e.AttachText(10, uploadID, twoPages)
	if err != nil {
		t.Fatalf("AttachText: %v", err)
	}
	if draft.Pages != 2 || draft.MaxQuestions != 5 || draft.MinQuestions != 5 {
		t.Fatalf("draft: want pages=2 range=5..5 got=%+v", draft)
	}

	ticket, err := e.SelectCount(10, " 5 ")
	if err != nil {
		t.Fatalf("SelectCount: %v", err)
	}
	if _, err := e.NextBatch(10); !errors.Is(err, ErrSessionPending) {
		t.Fatalf("NextBatch while pending: want=%v got=%v", ErrSessionPending, err)
	}
	if st := e.Stats(); st.PendingGenerations != 1 {
		t.Fatalf("PendingGenerations: want=1 got=%d", st.PendingGenerations)
	}

	questions, err := e.Generate(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	n, err := e.CompleteGeneration(10, ticket, questions)
	if err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}
	if n != 5 {
		t.Fatalf("session size: want=5 got=%d", n)
	}

	batch, err := e.NextBatch(10)
	if err != nil {
		t.Fatalf("NextBatch: %v", err)
	}
	if len(batch.Questions) != 5 || batch.HasMore {
		t.Fatalf("batch: want 5 without more, got %d more=%v", len(batch.Questions), batch.HasMore)
	}

	for i, q := range batch.Questions {
		selected := q.CorrectIndex
		if i >= 3 {
			selected = (q.CorrectIndex + 1) % 4
		}
		done, err := e.RecordAnswer(10, q.ID, selected)
		if err != nil {
			t.Fatalf("RecordAnswer %d: %v", i, err)
		}
		if done != (i == 4) {
			t.Fatalf("RecordAnswer %d done: got=%v", i, done)
		}
	}

	report, err := e.Finalize(10)
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if report.Total != 5 || report.Correct != 3 || report.Accuracy != 60 {
		t.Fatalf("report: want 3/5 60%% got=%+v", report)
	}
	if _, err := e.NextBatch(10); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("NextBatch after finalize: want=%v got=%v", ErrNoActiveSession, err)
	}
}

func TestEngineInvalidCountKeepsDraft(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"Why?"}})
	id, _ := e.BeginUpload(1, "pptx")
	if _, err := e.AttachText(1, id, twoPages); err != nil {
		t.Fatalf("AttachText: %v", err)
	}

	_, err := e.SelectCount(1, "4")
	if !errors.Is(err, ErrInvalidQuestionCount) {
		t.Fatalf("count 4: want=%v got=%v", ErrInvalidQuestionCount, err)
	}
	var ce *CountError
	if !errors.As(err, &ce) || ce.Min != 5 || ce.Max != 5 || ce.NotNumber {
		t.Fatalf("CountError: got=%+v", ce)
	}

	_, err = e.SelectCount(1, "five")
	if !errors.As(err, &ce) || !ce.NotNumber {
		t.Fatalf("non-numeric: want NotNumber CountError got=%v", err)
	}

	if _, err := e.SelectCount(1, "5"); err != nil {
		t.Fatalf("retry SelectCount: %v", err)
	}
}

func TestEngineUnsupportedTypeDoesNotTouchQuota(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"Why?"}})
	if _, err := e.BeginUpload(3, "docx"); !errors.Is(err, ErrUnsupportedFileType) {
		t.Fatalf("docx: want=%v got=%v", ErrUnsupportedFileType, err)
	}
	if _, ok := e.Usage().Snapshot(3); ok {
		t.Fatalf("usage record created for unsupported upload")
	}
}

func TestEngineQuotaExceeded(t *testing.T) {
	clock := newFakeClock()
	e := newTestEngine(t, &stubModel{outputs: []string{"Why?"}}, WithClock(clock.Now))

	for i := 0; i < 2; i++ {
		if _, err := e.BeginUpload(4, "pdf"); err != nil {
			t.Fatalf("BeginUpload #%d: %v", i+1, err)
		}
	}
	if _, err := e.BeginUpload(4, "pdf"); !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("third upload: want=%v got=%v", ErrQuotaExceeded, err)
	}
	clock.Advance(2 * time.Hour)
	if _, err := e.BeginUpload(4, "pdf"); err != nil {
		t.Fatalf("upload after an hour: %v", err)
	}
}

func TestEngineExtractionFailedStillCharges(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"Why?"}})
	id, _ := e.BeginUpload(5, "pdf")
	if _, err := e.AttachText(5, id, "  \n "); !errors.Is(err, ErrExtractionFailed) {
		t.Fatalf("AttachText: want=%v got=%v", ErrExtractionFailed, err)
	}
	rec, _ := e.Usage().Snapshot(5)
	if rec.UploadsToday != 1 {
		t.Fatalf("UploadsToday: want=1 got=%d", rec.UploadsToday)
	}
	if _, err := e.SelectCount(5, "5"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("SelectCount: want=%v got=%v", ErrNoDocument, err)
	}
}

func TestEngineNewUploadSupersedes(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"What is glucagon?"}})

	first, _ := e.BeginUpload(6, "pdf")
	e.AttachText(6, first, twoPages)
	ticket, err := e.SelectCount(6, "5")
	if err != nil {
		t.Fatalf("SelectCount: %v", err)
	}

	second, _ := e.BeginUpload(6, "pdf")
	if _, err := e.AttachText(6, first, twoPages); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale AttachText: want=%v got=%v", ErrSuperseded, err)
	}

	qs, _ := e.Generate(context.Background(), ticket)
	if _, err := e.CompleteGeneration(6, ticket, qs); !errors.Is(err, ErrSuperseded) {
		t.Fatalf("stale CompleteGeneration: want=%v got=%v", ErrSuperseded, err)
	}
	if _, err := e.NextBatch(6); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("NextBatch: want=%v got=%v", ErrNoActiveSession, err)
	}

	if _, err := e.AttachText(6, second, twoPages); err != nil {
		t.Fatalf("AttachText second: %v", err)
	}
}

func TestEngineUploadDiscardsActiveSession(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"What is glucagon?"}})
	id, _ := e.BeginUpload(8, "pdf")
	e.AttachText(8, id, twoPages)
	ticket, _ := e.SelectCount(8, "5")
	qs, _ := e.Generate(context.Background(), ticket)
	if _, err := e.CompleteGeneration(8, ticket, qs); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}

	if _, err := e.BeginUpload(8, "pdf"); err != nil {
		t.Fatalf("BeginUpload: %v", err)
	}
	if _, err := e.Finalize(8); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("Finalize: want=%v got=%v", ErrNoActiveSession, err)
	}
}

func TestEngineGenerationFailedKeepsDraft(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{""}})
	id, _ := e.BeginUpload(9, "pdf")
	e.AttachText(9, id, twoPages)
	ticket, _ := e.SelectCount(9, "5")

	qs, err := e.Generate(context.Background(), ticket)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if _, err := e.CompleteGeneration(9, ticket, qs); !errors.Is(err, ErrGenerationFailed) {
		t.Fatalf("CompleteGeneration: want=%v got=%v", ErrGenerationFailed, err)
	}
	if _, err := e.NextBatch(9); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("NextBatch: want=%v got=%v", ErrNoActiveSession, err)
	}
	if _, err := e.SelectCount(9, "5"); err != nil {
		t.Fatalf("retry SelectCount: %v", err)
	}
}

func TestEngineCancel(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"Why?"}})
	if e.Cancel(11) {
		t.Fatalf("Cancel without state: want=false")
	}
	id, _ := e.BeginUpload(11, "pdf")
	e.AttachText(11, id, twoPages)
	if !e.Cancel(11) {
		t.Fatalf("Cancel with draft: want=true")
	}
	if _, err := e.SelectCount(11, "5"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("SelectCount after cancel: want=%v got=%v", ErrNoDocument, err)
	}
}

func TestLimitsMaxQuestionsFor(t *testing.T) {
	l := DefaultLimits()
	tests := []struct{ pages, want int }{{1, 5}, {2, 5}, {3, 6}, {10, 20}, {40, 50}}
	for _, tt := range tests {
		if got := l.MaxQuestionsFor(tt.pages); got != tt.want {
			t.Fatalf("MaxQuestionsFor(%d): want=%d got=%d", tt.pages, tt.want, got)
		}
	}
}

func TestExtensionHelpers(t *testing.T) {
	if ExtensionOf("Lecture 3.PPTX") != "pptx" {
		t.Fatalf("ExtensionOf: got=%q", ExtensionOf("Lecture 3.PPTX"))
	}
	for _, ext := range []string{"pdf", "PPT", ".pptx"} {
		if !IsSupported(ext) {
			t.Fatalf("IsSupported(%q): want=true", ext)
		}
	}
	for _, ext := range []string{"docx", "", "txt"} {
		if IsSupported(ext) {
			t.Fatalf("IsSupported(%q): want=false", ext)
		}
	}
}

func TestEngineAbortUploadRefunds(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"Why?"}})

	for i := 0; i < 3; i++ {
		id, err := e.BeginUpload(12, "pdf")
		if err != nil {
			t.Fatalf("BeginUpload #%d: %v", i+1, err)
		}
		e.AbortUpload(12, id)
	}
	rec, _ := e.Usage().Snapshot(12)
	if rec.UploadsThisHour != 0 || rec.UploadsToday != 0 {
		t.Fatalf("counters after aborts: want=0/0 got=%d/%d", rec.UploadsThisHour, rec.UploadsToday)
	}
	if _, err := e.SelectCount(12, "5"); !errors.Is(err, ErrNoDocument) {
		t.Fatalf("SelectCount after abort: want=%v got=%v", ErrNoDocument, err)
	}

	id, _ := e.BeginUpload(12, "pdf")
	e.AttachText(12, id, twoPages)
	e.AbortUpload(12, id)
	rec, _ = e.Usage().Snapshot(12)
	if rec.UploadsToday != 1 {
		t.Fatalf("abort after extraction must keep the charge: got=%d", rec.UploadsToday)
	}
	if _, err := e.SelectCount(12, "5"); err != nil {
		t.Fatalf("draft dropped by late abort: %v", err)
	}
}

func TestEngineCountDuringQuiz(t *testing.T) {
	e := newTestEngine(t, &stubModel{outputs: []string{"What is glucagon?"}})
	id, _ := e.BeginUpload(13, "pdf")
	e.AttachText(13, id, twoPages)
	ticket, _ := e.SelectCount(13, "5")
	qs, _ := e.Generate(context.Background(), ticket)
	if _, err := e.CompleteGeneration(13, ticket, qs); err != nil {
		t.Fatalf("CompleteGeneration: %v", err)
	}

	if _, err := e.SelectCount(13, "5"); !errors.Is(err, ErrQuizInProgress) {
		t.Fatalf("SelectCount during quiz: want=%v got=%v", ErrQuizInProgress, err)
	}
	p, err := e.Progress(13)
	if err != nil || p.Total != 5 || p.Emitted != 0 {
		t.Fatalf("Progress: got=%+v err=%v", p, err)
	}
}
