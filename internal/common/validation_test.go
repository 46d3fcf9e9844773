package common

import (
	"errors"
	"strings"
	"testing"
)

func TestRequired(t *testing.T) {
	if err := Required("name", "value"); err != nil {
		t.Fatalf("Required rejected non-empty string: %v", err)
	}
	if err := Required("name", ""); err == nil {
		t.Fatal("Required accepted empty string")
	}
	if err := Required("name", "   "); err == nil {
		t.Fatal("Required accepted whitespace-only string")
	}
	if err := Required("name", nil); err == nil {
		t.Fatal("Required accepted nil")
	}
}

func TestEmail(t *testing.T) {
	valid := []string{
		"user@example.com",
		"first.last@sub.example.org",
		"batch@localhost",
	}
	for _, addr := range valid {
		if err := Email("email", addr); err != nil {
			t.Fatalf("Email rejected %q: %v", addr, err)
		}
	}

	invalid := []string{
		"",
		"not-an-email",
		"missing@",
		"Display Name <user@example.com>",
		"two@at@signs",
	}
	for _, addr := range invalid {
		if err := Email("email", addr); err == nil {
			t.Fatalf("Email accepted %q", addr)
		}
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  User@Example.COM "); got != "user@example.com" {
		t.Fatalf("NormalizeEmail = %q, want user@example.com", got)
	}
}

func TestUUIDRule(t *testing.T) {
	if err := UUID("id", "8a2b7f8e-1df0-44aa-9a62-3a4c0b6a6e09"); err != nil {
		t.Fatalf("UUID rejected valid id: %v", err)
	}
	if err := UUID("id", "nope"); err == nil {
		t.Fatal("UUID accepted invalid id")
	}
	if err := UUID("id", 42); err == nil {
		t.Fatal("UUID accepted non-string")
	}
}

func TestValidatorErrorWrapsSentinel(t *testing.T) {
	v := NewValidator()
	v.Field("filename", "", Required)
	v.Field("email", "bad", Email)

	err := v.Error()
	if err == nil {
		t.Fatal("expected combined error")
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("combined error does not wrap ErrValidation: %v", err)
	}
	if !strings.Contains(err.Error(), "filename") || !strings.Contains(err.Error(), "email") {
		t.Fatalf("combined error missing field names: %v", err)
	}
}

func TestValidatorNoErrors(t *testing.T) {
	v := NewValidator()
	v.Field("filename", "deck.pptx", Required)
	if v.HasErrors() {
		t.Fatalf("unexpected validation errors: %s", v.ErrorMessage())
	}
	if err := v.Error(); err != nil {
		t.Fatalf("Error returned non-nil for clean validator: %v", err)
	}
}

func TestMinMaxLength(t *testing.T) {
	if err := MinLength("name", "ab", 3); err == nil {
		t.Fatal("MinLength accepted short string")
	}
	if err := MinLength("name", "abc", 3); err != nil {
		t.Fatalf("MinLength rejected exact-length string: %v", err)
	}
	if err := MaxLength("name", "abcd", 3); err == nil {
		t.Fatal("MaxLength accepted long string")
	}
	if err := MaxLength("name", "abc", 3); err != nil {
		t.Fatalf("MaxLength rejected exact-length string: %v", err)
	}
}
