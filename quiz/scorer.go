package quiz

import (
	"math"

	"github.com/korjavin/docquizbot/models"
)

// RecordAnswer attributes the answer to the next question by arrival order.
// Prefer RecordAnswerByID when the transport can correlate answers.
func (s *Store) RecordAnswer(userID int64, selected int) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Progress{}, ErrNoActiveSession
	}
	return sess.record(len(sess.Answers), selected)
}

// RecordAnswerByID attributes the answer to the question with the given id.
// Questions not yet emitted, unknown ids and repeated answers are rejected.
func (s *Store) RecordAnswerByID(userID int64, questionID string, selected int) (Progress, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Progress{}, ErrNoActiveSession
	}
	idx, ok := sess.index[questionID]
	if !ok || idx >= sess.Cursor {
		return sess.progress(), ErrUnknownQuestion
	}
	return sess.record(idx, selected)
}

func (s *Session) record(idx, selected int) (Progress, error) {
	if idx < 0 || idx >= len(s.Questions) {
		return s.progress(), ErrUnknownQuestion
	}
	if _, dup := s.Answers[idx]; dup {
		return s.progress(), ErrDuplicateAnswer
	}
	if selected < 0 || selected >= len(s.Questions[idx].Options) {
		return s.progress(), ErrInvalidOption
	}
	s.Answers[idx] = selected
	return s.progress(), nil
}

// Finalize scores the user's session and clears it.
func (s *Store) Finalize(userID int64) (models.ScoreReport, error) {
	s.mu.Lock()
	sess, ok := s.sessions[userID]
	delete(s.sessions, userID)
	s.mu.Unlock()

	if !ok {
		return models.ScoreReport{}, ErrNoActiveSession
	}
	return Score(sess.Questions, sess.Answers), nil
}

// Score compares answers (question index to selected option) with the ground
// truth. Unanswered questions count as wrong.
func Score(questions []models.Question, answers map[int]int) models.ScoreReport {
	correct := 0
	for idx, selected := range answers {
		if idx >= 0 && idx < len(questions) && questions[idx].CorrectIndex == selected {
			correct++
		}
	}
	return models.ScoreReport{
		Correct:  correct,
		Total:    len(questions),
		Accuracy: Accuracy(correct, len(questions)),
	}
}

// Accuracy is correct/total as a percentage rounded to one decimal; zero for
// an empty quiz.
func Accuracy(correct, total int) float64 {
	if total == 0 {
		return 0
	}
	return math.Round(float64(correct)/float64(total)*1000) / 10
}
