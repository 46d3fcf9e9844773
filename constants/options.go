package constants

import (
	"strings"
)

// SummaryStyle selects the explanation register the summarizer writes in.
type SummaryStyle string

const (
	StyleBeginner      SummaryStyle = "beginner"
	StyleComprehensive SummaryStyle = "comprehensive"
	StyleExecutive     SummaryStyle = "executive"
)

// DefaultStyle is applied when an upload does not specify a style.
const DefaultStyle = StyleComprehensive

var allStyles = []SummaryStyle{
	StyleBeginner,
	StyleComprehensive,
	StyleExecutive,
}

// StyleStrings returns the allowed style values for schema validation.
func StyleStrings() []string {
	result := make([]string, len(allStyles))
	for i, s := range allStyles {
		result[i] = string(s)
	}
	return result
}

// NormalizeStyle maps free-form input to a canonical style. Empty input
// resolves to DefaultStyle. The second return is false when the input
// named no known style.
func NormalizeStyle(input string) (SummaryStyle, bool) {
	if input == "" {
		return DefaultStyle, true
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	// synonyms map
	synonyms := map[string]SummaryStyle{
		"basic":    StyleBeginner,
		"simple":   StyleBeginner,
		"detailed": StyleComprehensive,
		"full":     StyleComprehensive,
		"exec":     StyleExecutive,
		"summary":  StyleExecutive,
	}

	if s, ok := synonyms[normalized]; ok {
		return s, true
	}

	for _, s := range allStyles {
		if normalized == string(s) {
			return s, true
		}
	}

	return DefaultStyle, false
}

// Language selects the language the summarizer answers in.
type Language string

const (
	LanguageEnglish Language = "en"
	LanguageHebrew  Language = "he"
	LanguageRussian Language = "ru"
	LanguageSpanish Language = "es"
)

// DefaultLanguage is applied when an upload does not specify a language.
const DefaultLanguage = LanguageEnglish

var allLanguages = []Language{
	LanguageEnglish,
	LanguageHebrew,
	LanguageRussian,
	LanguageSpanish,
}

// LanguageStrings returns the allowed language codes for schema validation.
func LanguageStrings() []string {
	result := make([]string, len(allLanguages))
	for i, l := range allLanguages {
		result[i] = string(l)
	}
	return result
}

// DisplayName returns the English name of the language for prompt text.
func (l Language) DisplayName() string {
	switch l {
	case LanguageHebrew:
		return "Hebrew"
	case LanguageRussian:
		return "Russian"
	case LanguageSpanish:
		return "Spanish"
	default:
		return "English"
	}
}

// NormalizeLanguage maps free-form input to a canonical language code.
// Empty input resolves to DefaultLanguage. The second return is false
// when the input named no known language.
func NormalizeLanguage(input string) (Language, bool) {
	if input == "" {
		return DefaultLanguage, true
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]Language{
		"english": LanguageEnglish,
		"hebrew":  LanguageHebrew,
		"russian": LanguageRussian,
		"spanish": LanguageSpanish,
	}

	if l, ok := synonyms[normalized]; ok {
		return l, true
	}

	for _, l := range allLanguages {
		if normalized == string(l) {
			return l, true
		}
	}

	return DefaultLanguage, false
}
