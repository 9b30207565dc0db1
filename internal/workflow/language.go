package workflow

import (
	"strings"
	"unicode"
)

// Language is the detected language of the latest user message.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
	LanguageMixed   Language = "mixed"
)

// DetectLanguage classifies text by the share of Arabic letters among its
// non-space characters. Arabic above 30% is "ar", or "mixed" when Latin
// letters also exceed 20%.
func DetectLanguage(text string) Language {
	var total, arabic, latin int
	for _, r := range text {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		switch {
		case isArabic(r):
			arabic++
		case r < unicode.MaxASCII && unicode.IsLetter(r):
			latin++
		}
	}
	if total == 0 {
		return LanguageEnglish
	}
	if float64(arabic)/float64(total) > 0.3 {
		if float64(latin)/float64(total) > 0.2 {
			return LanguageMixed
		}
		return LanguageArabic
	}
	return LanguageEnglish
}

func isArabic(r rune) bool {
	return (r >= 0x0600 && r <= 0x06FF) ||
		(r >= 0x0750 && r <= 0x077F) ||
		(r >= 0x08A0 && r <= 0x08FF) ||
		(r >= 0xFB50 && r <= 0xFDFF) ||
		(r >= 0xFE70 && r <= 0xFEFF)
}

// localize picks the Arabic text only for pure Arabic; mixed input gets English.
func localize(lang Language, en, ar string) string {
	if lang == LanguageArabic {
		return ar
	}
	return en
}

// escapePhrases always ask to stop answering questions.
var escapePhrases = []string{
	"just proceed", "proceed anyway", "that's enough", "thats enough",
	"just estimate", "use defaults", "that's all", "thats all",
	"enough questions", "just calculate", "proceed",

	"استمر", "كفاية", "كفايه", "خلاص", "بس كده", "بس كدا", "كده تمام", "كدا تمام",
}

// acknowledgements read as an escape only on their own; next to new
// details they are part of an answer.
var acknowledgements = []string{
	"go ahead", "skip", "continue", "let's go", "lets go", "ok",

	"كمل", "كمّل", "امشي", "يلا", "يللا", "روح", "تمام", "ماشي", "ماشى",
	"حاضر", "اوك", "اوكي",
}

// IsEscapePhrase reports whether the message asks to stop answering
// questions and proceed with defaults. Phrases match on whole words.
func IsEscapePhrase(message string) bool {
	return matchesAny(message, escapePhrases) || matchesAny(message, acknowledgements)
}

// WantsToProceed is IsEscapePhrase for a requirements answer. When the
// message also stated requirement fields, only an explicit escape phrase
// counts.
func WantsToProceed(message string, stated bool) bool {
	if stated {
		return matchesAny(message, escapePhrases)
	}
	return IsEscapePhrase(message)
}

func matchesAny(message string, phrases []string) bool {
	words := tokenize(message)
	if len(words) == 0 {
		return false
	}
	for _, phrase := range phrases {
		if containsSequence(words, tokenize(phrase)) {
			return true
		}
	}
	return false
}

// tokenize lowercases text and splits it into letter/digit/apostrophe runs.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !(unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) || r == '\'')
	})
}

func containsSequence(words, seq []string) bool {
	if len(seq) == 0 || len(seq) > len(words) {
		return false
	}
	for i := 0; i+len(seq) <= len(words); i++ {
		match := true
		for j := range seq {
			if words[i+j] != seq[j] {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}
