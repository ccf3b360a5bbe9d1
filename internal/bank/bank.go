package bank

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
)

//go:embed data/*.json
var dataFS embed.FS

// Bank holds the per-language question and sentence datasets, loaded and
// validated once at startup.
type Bank struct {
	civics        map[Language][]Question
	civicsByID    map[Language]map[int]Question
	sentences     map[Language][]Sentence
	sentencesByID map[Language]map[int]Sentence
}

// Load reads the embedded datasets for every supported language.
func Load() (*Bank, error) {
	return LoadFS(dataFS)
}

// LoadFS loads datasets from the given filesystem. Separated from Load so
// tests can supply small fixture banks.
func LoadFS(dataFS fs.FS) (*Bank, error) {
	b := &Bank{
		civics:        make(map[Language][]Question),
		civicsByID:    make(map[Language]map[int]Question),
		sentences:     make(map[Language][]Sentence),
		sentencesByID: make(map[Language]map[int]Sentence),
	}

	for _, lang := range []Language{LanguageEN, LanguageES} {
		questions, err := loadCivics(dataFS, lang)
		if err != nil {
			return nil, err
		}
		byID := make(map[int]Question, len(questions))
		for _, q := range questions {
			byID[q.ID] = q
		}
		b.civics[lang] = questions
		b.civicsByID[lang] = byID

		sentences, err := loadSentences(dataFS, lang)
		if err != nil {
			return nil, err
		}
		sentenceByID := make(map[int]Sentence, len(sentences))
		for _, s := range sentences {
			sentenceByID[s.ID] = s
		}
		b.sentences[lang] = sentences
		b.sentencesByID[lang] = sentenceByID
	}

	return b, nil
}

func loadCivics(dataFS fs.FS, lang Language) ([]Question, error) {
	name := fmt.Sprintf("data/civics-questions-%s.json", lang)
	raw, err := fs.ReadFile(dataFS, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var file civicsFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(file.Questions) == 0 {
		return nil, fmt.Errorf("%s: no questions", name)
	}
	seen := make(map[int]bool, len(file.Questions))
	for i, q := range file.Questions {
		if q.ID <= 0 {
			return nil, fmt.Errorf("%s: question %d: missing id", name, i)
		}
		if seen[q.ID] {
			return nil, fmt.Errorf("%s: duplicate question id %d", name, q.ID)
		}
		seen[q.ID] = true
		if q.Question == "" {
			return nil, fmt.Errorf("%s: question %d: empty prompt", name, q.ID)
		}
		if len(q.Options) < 2 {
			return nil, fmt.Errorf("%s: question %d: needs at least 2 options", name, q.ID)
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
			return nil, fmt.Errorf("%s: question %d: correctAnswer out of range", name, q.ID)
		}
	}
	return file.Questions, nil
}

func loadSentences(dataFS fs.FS, lang Language) ([]Sentence, error) {
	name := fmt.Sprintf("data/practice-sentences-%s.json", lang)
	raw, err := fs.ReadFile(dataFS, name)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", name, err)
	}
	var file sentencesFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parse %s: %w", name, err)
	}
	if len(file.PracticeSentences) == 0 {
		return nil, fmt.Errorf("%s: no sentences", name)
	}
	seen := make(map[int]bool, len(file.PracticeSentences))
	for i, s := range file.PracticeSentences {
		if s.ID <= 0 {
			return nil, fmt.Errorf("%s: sentence %d: missing id", name, i)
		}
		if seen[s.ID] {
			return nil, fmt.Errorf("%s: duplicate sentence id %d", name, s.ID)
		}
		seen[s.ID] = true
		if s.Sentence == "" {
			return nil, fmt.Errorf("%s: sentence %d: empty text", name, s.ID)
		}
	}
	return file.PracticeSentences, nil
}

// Civics returns the full civics dataset for a language. Callers must not
// mutate the returned slice.
func (b *Bank) Civics(lang Language) []Question {
	return b.civics[lang]
}

// CivicsQuestion looks up one civics question by ID in the given language.
func (b *Bank) CivicsQuestion(lang Language, id int) (Question, bool) {
	q, ok := b.civicsByID[lang][id]
	return q, ok
}

// ResolveCivics maps an ID sequence onto the target-language dataset,
// preserving order. IDs unknown to the dataset are skipped. This is what
// keeps a session's questions stable across a mid-session language switch.
func (b *Bank) ResolveCivics(lang Language, ids []int) []Question {
	byID := b.civicsByID[lang]
	out := make([]Question, 0, len(ids))
	for _, id := range ids {
		if q, ok := byID[id]; ok {
			out = append(out, q)
		}
	}
	return out
}

// Sentences returns the full sentence dataset for a language. Callers must
// not mutate the returned slice.
func (b *Bank) Sentences(lang Language) []Sentence {
	return b.sentences[lang]
}

// Sentence looks up one practice sentence by ID in the given language.
func (b *Bank) Sentence(lang Language, id int) (Sentence, bool) {
	s, ok := b.sentencesByID[lang][id]
	return s, ok
}
