package utils

import (
	"strings"
	"testing"
)

func TestDereferencePtr(t *testing.T) {
	if got := DereferencePtr[string](nil); got != "" {
		t.Fatalf("expected zero value for nil pointer, got %q", got)
	}
	if got := DereferencePtr[string](nil, "fallback"); got != "fallback" {
		t.Fatalf("expected default for nil pointer, got %q", got)
	}
	s := "value"
	if got := DereferencePtr(&s, "fallback"); got != "value" {
		t.Fatalf("expected pointed-to value, got %q", got)
	}
}

func TestNewTrue(t *testing.T) {
	if b := NewTrue(); b == nil || !*b {
		t.Fatal("expected a pointer to true")
	}
}

type validatedInput struct {
	Name  string `validate:"required"`
	Email string `validate:"omitempty,email"`
}

func TestValidateStructFlattensTagFailures(t *testing.T) {
	err := ValidateStruct(&validatedInput{Email: "not-an-email"})
	if err == nil {
		t.Fatal("expected a validation error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "Name") || !strings.Contains(msg, "required") {
		t.Fatalf("expected the failed field and rule in the error, got %q", msg)
	}
	if !strings.Contains(msg, "Email") || !strings.Contains(msg, "email") {
		t.Fatalf("expected the email rule in the error, got %q", msg)
	}

	if err := ValidateStruct(&validatedInput{Name: "ok"}); err != nil {
		t.Fatalf("unexpected error for valid input: %v", err)
	}
}
