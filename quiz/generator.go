package quiz

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/korjavin/docquizbot/logger"
	"github.com/korjavin/docquizbot/models"
)

const (
	maxPromptRunes = 300
	maxOptionRunes = 100
	promptPrefix   = "generate question: "
)

// Model turns a prompt into generated text.
type Model interface {
	Infer(ctx context.Context, prompt string) (string, error)
}

// Generator builds multiple-choice questions from document text.
type Generator struct {
	model      Model
	log        *logger.Logger
	tracer     trace.Tracer
	chunkWords int
	timeout    time.Duration
	newRand    func() *rand.Rand
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

func WithChunkWords(n int) GeneratorOption {
	return func(g *Generator) { g.chunkWords = n }
}

// WithModelTimeout bounds every single model call.
func WithModelTimeout(d time.Duration) GeneratorOption {
	return func(g *Generator) { g.timeout = d }
}

// WithRandSource sets the factory for the per-call randomness source.
func WithRandSource(f func() *rand.Rand) GeneratorOption {
	return func(g *Generator) { g.newRand = f }
}

func NewGenerator(model Model, log *logger.Logger, opts ...GeneratorOption) *Generator {
	g := &Generator{
		model:      model,
		log:        log.With("component", "QuestionGenerator"),
		tracer:     otel.Tracer("github.com/korjavin/docquizbot/quiz"),
		chunkWords: DefaultChunkWords,
		timeout:    60 * time.Second,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano()))
		},
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate makes one attempt per requested question and returns the questions
// that succeeded. Failed attempts are skipped, so the result may be shorter
// than count or empty. Only empty text is reported as an error.
func (g *Generator) Generate(ctx context.Context, text string, count int) ([]models.Question, error) {
	chunks := Chunk(text, g.chunkWords)
	if len(chunks) == 0 {
		return nil, ErrNoContent
	}

	vocab := NewVocabulary(text)
	rng := g.newRand()
	started := time.Now()

	questions := make([]models.Question, 0, count)
	for attempt := 0; attempt < count; attempt++ {
		if ctx.Err() != nil {
			g.log.Warn("Generation interrupted", "attempt", attempt, "error", ctx.Err())
			break
		}
		raw, err := g.infer(ctx, chunks[attempt%len(chunks)], attempt)
		if err != nil {
			g.log.Warn("Model attempt failed, skipping", "attempt", attempt, "error", err)
			continue
		}
		q, ok := BuildQuestion(raw, vocab.Sample(rng), rng.Intn(optionCount))
		if !ok {
			g.log.Warn("Model output unusable, skipping", "attempt", attempt)
			continue
		}
		q.ID = uuid.NewString()
		questions = append(questions, q)
	}

	g.log.Info("Generation finished",
		"requested", count,
		"generated", len(questions),
		"chunks", len(chunks),
		"duration", time.Since(started),
	)
	return questions, nil
}

func (g *Generator) infer(ctx context.Context, chunk string, attempt int) (string, error) {
	ctx, span := g.tracer.Start(ctx, "quiz.generate_attempt")
	defer span.End()
	span.SetAttributes(
		attribute.Int("quiz.attempt", attempt),
		attribute.Int("quiz.chunk_chars", len(chunk)),
	)

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	out, err := g.model.Infer(ctx, promptPrefix+chunk)
	if err == nil && strings.TrimSpace(out) == "" {
		err = ErrEmptyResponse
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "model call failed")
		return "", fmt.Errorf("attempt %d: %w", attempt, err)
	}
	return out, nil
}

// BuildQuestion turns raw model output into a question. The cleaned question
// text becomes the correct option at slot; the remaining slots keep the given
// distractors. A distractor equal to the answer is replaced by the one the
// answer displaced.
func BuildQuestion(raw string, distractors []string, slot int) (models.Question, bool) {
	prompt := cleanPrompt(raw)
	answer := cleanAnswer(prompt)
	if answer == "" || len(distractors) != optionCount || slot < 0 || slot >= optionCount {
		return models.Question{}, false
	}

	options := make([]string, optionCount)
	for i, d := range distractors {
		options[i] = truncateRunes(d, maxOptionRunes)
	}
	spare := options[slot]
	options[slot] = answer
	for i, o := range options {
		if i == slot || !strings.EqualFold(o, answer) {
			continue
		}
		if spare == "" || strings.EqualFold(spare, answer) {
			return models.Question{}, false
		}
		options[i], spare = spare, ""
	}

	return models.Question{
		Prompt:       truncateRunes(prompt, maxPromptRunes),
		Options:      options,
		CorrectIndex: slot,
	}, true
}

func cleanPrompt(raw string) string {
	s := strings.TrimSpace(raw)
	if len(s) >= len("question:") && strings.EqualFold(s[:len("question:")], "question:") {
		s = strings.TrimSpace(s[len("question:"):])
	}
	return s
}

// cleanAnswer keeps the text before the first question mark, capped for use
// as a poll option.
func cleanAnswer(prompt string) string {
	s, _, _ := strings.Cut(prompt, "?")
	return truncateRunes(strings.TrimSpace(s), maxOptionRunes)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
