package bank

// Language identifies a supported dataset language.
type Language string

const (
	LanguageEN Language = "en"
	LanguageES Language = "es"
)

// ParseLanguage maps an arbitrary string to a supported language,
// falling back to English.
func ParseLanguage(val string) Language {
	if Language(val) == LanguageES {
		return LanguageES
	}
	return LanguageEN
}

// Question is one civics quiz item. Immutable after load.
type Question struct {
	ID            int      `json:"id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// Sentence is one reading/writing practice sentence. Immutable after load.
type Sentence struct {
	ID         int    `json:"id"`
	Sentence   string `json:"sentence"`
	Category   string `json:"category"`
	Difficulty string `json:"difficulty"`
}

type civicsFile struct {
	Questions []Question `json:"questions"`
}

type sentencesFile struct {
	PracticeSentences []Sentence `json:"practiceSentences"`
}
