package quiz

import (
	"math/rand"
	"sync"
	"time"

	"github.com/wilcolinadev/naturalize/internal/bank"
	"github.com/wilcolinadev/naturalize/internal/model"
)

// FreePolicy selects how free-plan users access the full civics quiz. Both
// observed product policies are supported.
type FreePolicy string

const (
	// FreeBlocked gates the full civics quiz entirely behind premium.
	FreeBlocked FreePolicy = "blocked"
	// FreeCapped serves a small shuffled subset, shrunk by how much of the
	// daily allowance is already spent.
	FreeCapped FreePolicy = "capped"
)

// Capped-policy sizing, as shipped: at most 10 questions, and never more
// than the legacy 5-per-day allowance leaves room for.
const (
	cappedMaxQuestions   = 10
	cappedDailyAllowance = 5
)

// RecentSentenceWindow is how many recently served sentences the picker
// avoids repeating.
const RecentSentenceWindow = 5

// Selector produces shuffled, plan-gated question and sentence sequences.
type Selector struct {
	bank   *bank.Bank
	policy FreePolicy

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSelector builds a selector over the given bank. A nil rng gets a
// time-seeded source; tests inject a seeded one for determinism.
func NewSelector(b *bank.Bank, policy FreePolicy, rng *rand.Rand) *Selector {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if policy != FreeCapped {
		policy = FreeBlocked
	}
	return &Selector{bank: b, policy: policy, rng: rng}
}

// Policy reports the configured free-plan policy.
func (s *Selector) Policy() FreePolicy {
	return s.policy
}

// SelectCivics returns the question sequence for one civics quiz session.
// Premium plans get the full bank in uniform shuffled order. Free plans get
// nothing under the blocked policy, or a truncated shuffle under the capped
// policy; an empty result means the premium-required screen.
func (s *Selector) SelectCivics(plan model.Plan, lang bank.Language, dailyCount int) []bank.Question {
	all := s.bank.Civics(lang)
	shuffled := s.shuffleQuestions(all)

	if plan == model.PlanPremium {
		return shuffled
	}

	if s.policy == FreeBlocked {
		return nil
	}

	max := cappedDailyAllowance - dailyCount
	if max > cappedMaxQuestions {
		max = cappedMaxQuestions
	}
	if max <= 0 {
		return nil
	}
	if max > len(shuffled) {
		max = len(shuffled)
	}
	return shuffled[:max]
}

// RandomQuestion serves the quick-quiz mode: one uniformly random question.
func (s *Selector) RandomQuestion(lang bank.Language) (bank.Question, bool) {
	all := s.bank.Civics(lang)
	if len(all) == 0 {
		return bank.Question{}, false
	}
	s.mu.Lock()
	idx := s.rng.Intn(len(all))
	s.mu.Unlock()
	return all[idx], true
}

// PickSentence returns a random practice sentence, avoiding the recently
// served IDs. When exclusion would empty the pool the full pool is used.
func (s *Selector) PickSentence(lang bank.Language, recentIDs []int) (bank.Sentence, bool) {
	all := s.bank.Sentences(lang)
	if len(all) == 0 {
		return bank.Sentence{}, false
	}

	recent := make(map[int]bool, len(recentIDs))
	for _, id := range recentIDs {
		recent[id] = true
	}

	pool := make([]bank.Sentence, 0, len(all))
	for _, sentence := range all {
		if !recent[sentence.ID] {
			pool = append(pool, sentence)
		}
	}
	if len(pool) == 0 {
		pool = all
	}

	s.mu.Lock()
	idx := s.rng.Intn(len(pool))
	s.mu.Unlock()
	return pool[idx], true
}

// shuffleQuestions copies then swap-shuffles; the bank's slice is never
// mutated.
func (s *Selector) shuffleQuestions(questions []bank.Question) []bank.Question {
	shuffled := make([]bank.Question, len(questions))
	copy(shuffled, questions)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rng.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}
