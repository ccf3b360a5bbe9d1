package bank

import (
	"testing"
	"testing/fstest"
)

func TestLoadEmbeddedDatasets(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	for _, lang := range []Language{LanguageEN, LanguageES} {
		questions := b.Civics(lang)
		if len(questions) == 0 {
			t.Fatalf("expected civics questions for %s", lang)
		}
		sentences := b.Sentences(lang)
		if len(sentences) == 0 {
			t.Fatalf("expected sentences for %s", lang)
		}
	}

	// Both languages must carry the same question IDs so a mid-session
	// language switch can re-resolve every question.
	en := b.Civics(LanguageEN)
	for _, q := range en {
		if _, ok := b.CivicsQuestion(LanguageES, q.ID); !ok {
			t.Fatalf("question %d missing from Spanish dataset", q.ID)
		}
	}
	for _, s := range b.Sentences(LanguageEN) {
		if _, ok := b.Sentence(LanguageES, s.ID); !ok {
			t.Fatalf("sentence %d missing from Spanish dataset", s.ID)
		}
	}
}

func TestResolveCivicsPreservesOrder(t *testing.T) {
	b, err := Load()
	if err != nil {
		t.Fatalf("load error: %v", err)
	}

	ids := []int{5, 1, 3}
	resolved := b.ResolveCivics(LanguageES, ids)
	if len(resolved) != 3 {
		t.Fatalf("expected 3 questions, got %d", len(resolved))
	}
	for i, id := range ids {
		if resolved[i].ID != id {
			t.Fatalf("position %d: expected id %d, got %d", i, id, resolved[i].ID)
		}
	}

	// Unknown IDs are skipped, not errored.
	resolved = b.ResolveCivics(LanguageEN, []int{1, 99999})
	if len(resolved) != 1 || resolved[0].ID != 1 {
		t.Fatalf("expected unknown id to be skipped")
	}
}

func TestLoadRejectsBadData(t *testing.T) {
	valid := map[string]string{
		"data/civics-questions-en.json":   `{"questions":[{"id":1,"question":"q","options":["a","b"],"correctAnswer":0,"explanation":"e"}]}`,
		"data/civics-questions-es.json":   `{"questions":[{"id":1,"question":"q","options":["a","b"],"correctAnswer":0,"explanation":"e"}]}`,
		"data/practice-sentences-en.json": `{"practiceSentences":[{"id":1,"sentence":"s","category":"c","difficulty":"easy"}]}`,
		"data/practice-sentences-es.json": `{"practiceSentences":[{"id":1,"sentence":"s","category":"c","difficulty":"easy"}]}`,
	}

	cases := map[string]struct {
		file    string
		content string
	}{
		"correctAnswer out of range": {
			file:    "data/civics-questions-en.json",
			content: `{"questions":[{"id":1,"question":"q","options":["a","b"],"correctAnswer":2,"explanation":"e"}]}`,
		},
		"duplicate question id": {
			file:    "data/civics-questions-en.json",
			content: `{"questions":[{"id":1,"question":"q","options":["a","b"],"correctAnswer":0},{"id":1,"question":"q2","options":["a","b"],"correctAnswer":0}]}`,
		},
		"empty question prompt": {
			file:    "data/civics-questions-es.json",
			content: `{"questions":[{"id":1,"question":"","options":["a","b"],"correctAnswer":0}]}`,
		},
		"single option": {
			file:    "data/civics-questions-en.json",
			content: `{"questions":[{"id":1,"question":"q","options":["a"],"correctAnswer":0}]}`,
		},
		"empty sentence text": {
			file:    "data/practice-sentences-en.json",
			content: `{"practiceSentences":[{"id":1,"sentence":"","category":"c","difficulty":"easy"}]}`,
		},
		"empty dataset": {
			file:    "data/practice-sentences-es.json",
			content: `{"practiceSentences":[]}`,
		},
	}

	for name, tc := range cases {
		fsys := fstest.MapFS{}
		for path, content := range valid {
			fsys[path] = &fstest.MapFile{Data: []byte(content)}
		}
		fsys[tc.file] = &fstest.MapFile{Data: []byte(tc.content)}

		if _, err := LoadFS(fsys); err == nil {
			t.Fatalf("%s: expected load to fail", name)
		}
	}

	fsys := fstest.MapFS{}
	for path, content := range valid {
		fsys[path] = &fstest.MapFile{Data: []byte(content)}
	}
	if _, err := LoadFS(fsys); err != nil {
		t.Fatalf("valid fixture bank should load: %v", err)
	}
}
