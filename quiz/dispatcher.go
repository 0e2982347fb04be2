package quiz

import "github.com/korjavin/docquizbot/models"

// Batch is one slice of questions handed to the messaging layer.
type Batch struct {
	Questions []models.Question
	Emitted   int
	Total     int
	HasMore   bool
}

// NextBatch returns the questions in [cursor, cursor+batchSize) clipped to the
// session and advances the cursor past them.
func (s *Store) NextBatch(userID int64, batchSize int) (Batch, error) {
	if batchSize < 1 {
		batchSize = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[userID]
	if !ok {
		return Batch{}, ErrNoActiveSession
	}

	total := sess.TotalCount()
	end := min(sess.Cursor+batchSize, total)
	emitted := make([]models.Question, end-sess.Cursor)
	copy(emitted, sess.Questions[sess.Cursor:end])
	sess.Cursor = end

	return Batch{
		Questions: emitted,
		Emitted:   sess.Cursor,
		Total:     total,
		HasMore:   sess.Cursor < total,
	}, nil
}
