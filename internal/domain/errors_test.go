package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestMissingCredentialError_Unwrap(t *testing.T) {
	err := NewMissingCredential("MISTRAL_API_KEY")
	if !errors.Is(err, ErrMissingCredential) {
		t.Fatalf("expected errors.Is ErrMissingCredential, got %v", err)
	}

	var mce *MissingCredentialError
	if !errors.As(fmt.Errorf("provision: %w", err), &mce) {
		t.Fatal("expected errors.As to find MissingCredentialError through wrapping")
	}
	if mce.Name != "MISTRAL_API_KEY" {
		t.Errorf("Name = %q", mce.Name)
	}
}

func TestMissingCredentialError_Message(t *testing.T) {
	err := NewMissingCredential("SUPABASE_CLIENT_URL")
	want := "missing credential: SUPABASE_CLIENT_URL is not set"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
