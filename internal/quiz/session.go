package quiz

import (
	"errors"
	"time"

	"github.com/wilcolinadev/naturalize/internal/bank"
)

var (
	ErrSessionCompleted = errors.New("quiz session already completed")
	ErrNoAnswerOption   = errors.New("answer option out of range")
	ErrEmptySession     = errors.New("quiz session has no questions")
)

// Session is one run of a civics quiz. It lives in the session store for
// the duration of the run and is discarded on restart or expiry. Question
// text is never stored here; only IDs, so a language switch re-resolves
// display text without reshuffling.
type Session struct {
	ID          string    `json:"id"`
	Subject     string    `json:"subject"`
	QuestionIDs []int     `json:"question_ids"`
	Answers     []*int    `json:"answers"`
	Position    int       `json:"position"`
	Completed   bool      `json:"completed"`
	StartedAt   time.Time `json:"started_at"`
	TrackingID  string    `json:"tracking_id,omitempty"`
}

// NewSession captures the selected question IDs and zero-fills the answer
// array.
func NewSession(id, subject string, questions []bank.Question, now time.Time) (*Session, error) {
	if len(questions) == 0 {
		return nil, ErrEmptySession
	}
	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	return &Session{
		ID:          id,
		Subject:     subject,
		QuestionIDs: ids,
		Answers:     make([]*int, len(ids)),
		Position:    0,
		StartedAt:   now,
	}, nil
}

// Answer records the selected option at the current position. Earlier
// recorded answers are preserved; re-answering the same position overwrites.
func (s *Session) Answer(optionIndex, optionCount int) error {
	if s.Completed {
		return ErrSessionCompleted
	}
	if optionIndex < 0 || optionIndex >= optionCount {
		return ErrNoAnswerOption
	}
	recorded := optionIndex
	s.Answers[s.Position] = &recorded
	return nil
}

// Previous moves back one question. The handler reloads the recorded answer
// for the new position from Answers.
func (s *Session) Previous() {
	if s.Position > 0 {
		s.Position--
	}
}

// Advance moves forward one question. Advancing past the last index
// completes the session; the return value is true only on that transition,
// so completion side effects (score persistence) run exactly once.
func (s *Session) Advance() bool {
	if s.Completed {
		return false
	}
	if s.Position < len(s.QuestionIDs)-1 {
		s.Position++
		return false
	}
	s.Completed = true
	return true
}

// CurrentAnswer returns the recorded answer at the current position, or nil.
func (s *Session) CurrentAnswer() *int {
	return s.Answers[s.Position]
}

// Restart re-seeds the session with a freshly shuffled sequence, resets the
// answers and the timer.
func (s *Session) Restart(questions []bank.Question, now time.Time) error {
	if len(questions) == 0 {
		return ErrEmptySession
	}
	ids := make([]int, len(questions))
	for i, q := range questions {
		ids[i] = q.ID
	}
	s.QuestionIDs = ids
	s.Answers = make([]*int, len(ids))
	s.Position = 0
	s.Completed = false
	s.StartedAt = now
	s.TrackingID = ""
	return nil
}

// CorrectCount counts positions whose recorded answer equals the question's
// correct option. Unanswered positions never count.
func (s *Session) CorrectCount(questions []bank.Question) int {
	byID := make(map[int]int, len(questions))
	for _, q := range questions {
		byID[q.ID] = q.CorrectAnswer
	}
	correct := 0
	for i, id := range s.QuestionIDs {
		answer := s.Answers[i]
		if answer == nil {
			continue
		}
		if want, ok := byID[id]; ok && *answer == want {
			correct++
		}
	}
	return correct
}

// ScorePercent is round(100 * correct / total).
func (s *Session) ScorePercent(questions []bank.Question) int {
	total := len(s.QuestionIDs)
	if total == 0 {
		return 0
	}
	return int(float64(s.CorrectCount(questions))/float64(total)*100 + 0.5)
}

// AnsweredCount is how many positions carry a recorded answer.
func (s *Session) AnsweredCount() int {
	answered := 0
	for _, a := range s.Answers {
		if a != nil {
			answered++
		}
	}
	return answered
}

// ElapsedMinutes is the study time attributed to this session on completion.
func (s *Session) ElapsedMinutes(now time.Time) float64 {
	return now.Sub(s.StartedAt).Minutes()
}
