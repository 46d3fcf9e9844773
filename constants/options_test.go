package constants

import "testing"

func TestNormalizeStyle(t *testing.T) {
	cases := []struct {
		input string
		want  SummaryStyle
		ok    bool
	}{
		{"", DefaultStyle, true},
		{"beginner", StyleBeginner, true},
		{"Comprehensive", StyleComprehensive, true},
		{"  executive  ", StyleExecutive, true},
		{"basic", StyleBeginner, true},
		{"detailed", StyleComprehensive, true},
		{"exec", StyleExecutive, true},
		{"poetic", DefaultStyle, false},
	}
	for _, c := range cases {
		got, ok := NormalizeStyle(c.input)
		if got != c.want || ok != c.ok {
			t.Fatalf("NormalizeStyle(%q) = (%s, %v), want (%s, %v)", c.input, got, ok, c.want, c.ok)
		}
	}
}

func TestNormalizeLanguage(t *testing.T) {
	cases := []struct {
		input string
		want  Language
		ok    bool
	}{
		{"", DefaultLanguage, true},
		{"en", LanguageEnglish, true},
		{"HE", LanguageHebrew, true},
		{"russian", LanguageRussian, true},
		{"Spanish", LanguageSpanish, true},
		{"fr", DefaultLanguage, false},
	}
	for _, c := range cases {
		got, ok := NormalizeLanguage(c.input)
		if got != c.want || ok != c.ok {
			t.Fatalf("NormalizeLanguage(%q) = (%s, %v), want (%s, %v)", c.input, got, ok, c.want, c.ok)
		}
	}
}

func TestLanguageDisplayName(t *testing.T) {
	if LanguageHebrew.DisplayName() != "Hebrew" {
		t.Fatalf("unexpected display name: %s", LanguageHebrew.DisplayName())
	}
	if LanguageEnglish.DisplayName() != "English" {
		t.Fatalf("unexpected display name: %s", LanguageEnglish.DisplayName())
	}
}

func TestNormalizeExt(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{".pptx", "pptx"},
		{"PPTX", "pptx"},
		{".PpTx", "pptx"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeExt(c.input); got != c.want {
			t.Fatalf("NormalizeExt(%q) = %q, want %q", c.input, got, c.want)
		}
	}
}
